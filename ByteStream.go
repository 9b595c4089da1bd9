package gifdecoder

import "errors"

// errInsufficientData reports a read past the end of the input buffer. Every
// failure caused by truncated input reduces to it.
var errInsufficientData = errors.New("gifdecoder: insufficient data")

// byteStream is a read cursor over the input buffer. All multi-byte integers
// in a GIF stream are little-endian; readUint16 performs that conversion.
// The input is never written to.
//
// byteStream is a plain value: copying one yields an independent cursor over
// the same buffer, which the walker uses to peek ahead without committing.
type byteStream struct {
	data []byte
	pos  int
}

func (s *byteStream) remaining() int {
	return len(s.data) - s.pos
}

func (s *byteStream) readByte() (byte, error) {
	if s.pos >= len(s.data) {
		return 0, errInsufficientData
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}

func (s *byteStream) readUint16() (int, error) {
	if s.pos+2 > len(s.data) {
		return 0, errInsufficientData
	}
	v := int(s.data[s.pos]) | int(s.data[s.pos+1])<<8
	s.pos += 2
	return v, nil
}

// take returns the next n bytes as a subslice of the input, without copying.
func (s *byteStream) take(n int) ([]byte, error) {
	if n < 0 || s.pos+n > len(s.data) {
		return nil, errInsufficientData
	}
	b := s.data[s.pos : s.pos+n]
	s.pos += n
	return b, nil
}

func (s *byteStream) skip(n int) error {
	if n < 0 || s.pos+n > len(s.data) {
		return errInsufficientData
	}
	s.pos += n
	return nil
}

// skipSubBlocks advances past one sub-block chain: a sequence of
// (length byte L, L payload bytes) pairs ending at L=0. On success the
// cursor points one past the zero-length terminator.
func (s *byteStream) skipSubBlocks() error {
	for {
		l, err := s.readByte()
		if err != nil {
			return err
		}
		if l == 0 {
			return nil
		}
		if err := s.skip(int(l)); err != nil {
			return err
		}
	}
}
