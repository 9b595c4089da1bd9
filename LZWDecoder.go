package gifdecoder

import "errors"

/*
LZWDecoder.go

Dictionary-based expander for the LZW variant used by GIF image data:
variable code widths starting at (minimum code size)+1 bits, LSB-first codes,
a clear code that resets the dictionary, a stop code that ends the stream,
and a hard 12-bit ceiling on the code width.

The code stream is framed as a GIF sub-block chain; the bit reader below
refills across sub-block boundaries transparently, so the expander itself
only ever sees a continuous stream of codes.
*/

const (
	minLZWCodeSize = 2
	maxLZWCodeSize = 8
	maxCodeWidth   = 12
	dictLen        = 1 << maxCodeWidth // 4096 entries
)

// lzwStatus describes how a frame's code stream ended. Anything short of
// lzwClean still yields usable pixels; hard failures are reported as errors
// instead.
type lzwStatus int

const (
	// lzwClean: stop code reached, chain terminator directly after it.
	lzwClean lzwStatus = iota
	// lzwTrailingData: stop code reached but more sub-blocks followed. The
	// frame is valid; the excess was skipped.
	lzwTrailingData
	// lzwNoStopCode: the sub-block chain ended before a stop code was seen.
	// The pixels produced so far are kept.
	lzwNoStopCode
)

var (
	errBadMinCodeSize = errors.New("gifdecoder: minimum LZW code size out of range")
	errEmptyCodeChain = errors.New("gifdecoder: empty LZW sub-block chain")
	errMissingClear   = errors.New("gifdecoder: first LZW code is not a clear code")
	errBadCode        = errors.New("gifdecoder: LZW code references an undefined dictionary entry")

	// errChainDone is internal to the bit reader: the chain terminator was
	// consumed mid-stream. Never escapes expand.
	errChainDone = errors.New("gifdecoder: sub-block chain ended")
)

// codeReader yields LZW codes of the current width from a sub-block chain.
// Bytes are loaded into a LSB-first accumulator one at a time; a code that
// straddles a sub-block boundary is assembled from both sides without the
// caller noticing. After errChainDone the underlying cursor points one past
// the chain's zero-length terminator.
type codeReader struct {
	s         *byteStream
	blockLeft int // payload bytes left in the current sub-block
	bits      uint32
	nbits     uint
}

func (r *codeReader) next(width uint) (int, error) {
	for r.nbits < width {
		if r.blockLeft == 0 {
			l, err := r.s.readByte()
			if err != nil {
				return 0, err
			}
			if l == 0 {
				return 0, errChainDone
			}
			r.blockLeft = int(l)
			continue
		}
		b, err := r.s.readByte()
		if err != nil {
			return 0, err
		}
		r.blockLeft--
		r.bits |= uint32(b) << r.nbits
		r.nbits += 8
	}
	code := int(r.bits & (1<<width - 1))
	r.bits >>= width
	r.nbits -= width
	return code, nil
}

// expand decodes one frame's LZW section. On entry the cursor points at the
// minimum-code-size byte; on any non-error return it points one past the
// chain's zero-length terminator. Decoded palette indices are written to the
// head of dst.
//
// Dictionary entries are single uint32 cells:
//
//	bits 31..24  suffix byte (last byte of the entry's expansion)
//	bits 23..12  expansion length minus one, saturating at 4095
//	bits 11..0   prefix code
//
// A literal entry i is i<<24: suffix i, length 1, prefix 0. Expansion walks
// the prefix chain tail-to-head, writing bytes backward from the end of the
// string, then advances the output cursor by the string length.
func (d *GIFDecoder) expand(s *byteStream, dst []byte) (lzwStatus, error) {
	ctsz, err := s.readByte()
	if err != nil {
		return 0, err
	}
	if ctsz < minLZWCodeSize || ctsz > maxLZWCodeSize {
		return 0, errBadMinCodeSize
	}

	clear := 1 << ctsz
	stop := clear + 1
	width := uint(ctsz) + 1

	r := codeReader{s: s}
	first, err := r.next(width)
	if err != nil {
		if err == errChainDone {
			return 0, errEmptyCodeChain
		}
		return 0, err
	}
	if first != clear {
		return 0, errMissingClear
	}

	dict := &d.dict
	for i := 0; i < clear; i++ {
		dict[i] = uint32(i) << 24
	}
	avail := stop + 1 // next dictionary index to assign
	prev := -1
	n := 0 // bytes written to dst

	for {
		code, err := r.next(width)
		if err == errChainDone {
			return lzwNoStopCode, nil
		}
		if err != nil {
			return 0, err
		}

		switch {
		case code == clear:
			width = uint(ctsz) + 1
			avail = stop + 1
			prev = -1
			continue

		case code == stop:
			// Whatever is left of the current sub-block is padding.
			if err := s.skip(r.blockLeft); err != nil {
				return 0, err
			}
			l, err := s.readByte()
			if err != nil {
				return 0, err
			}
			if l == 0 {
				return lzwClean, nil
			}
			if err := s.skip(int(l)); err != nil {
				return 0, err
			}
			if err := s.skipSubBlocks(); err != nil {
				return 0, err
			}
			return lzwTrailingData, nil

		case code > avail || (code == avail && prev < 0):
			return 0, errBadCode
		}

		var firstByte byte
		if code < avail {
			e := dict[code]
			length := int(e>>12&0xFFF) + 1
			if n+length > len(dst) {
				return d.overrun(s, &r)
			}
			c := code
			for i := length; i > 0; i-- {
				e := dict[c]
				dst[n+i-1] = byte(e >> 24)
				c = int(e & 0xFFF)
			}
			firstByte = dst[n]
			n += length
		} else {
			// code == avail: the entry being defined right now. Its
			// expansion is prev's expansion plus prev's first byte.
			e := dict[prev]
			length := int(e>>12&0xFFF) + 1
			if n+length+1 > len(dst) {
				return d.overrun(s, &r)
			}
			c := prev
			for i := length; i > 0; i-- {
				e := dict[c]
				dst[n+i-1] = byte(e >> 24)
				c = int(e & 0xFFF)
			}
			firstByte = dst[n]
			dst[n+length] = firstByte
			n += length + 1
		}

		if prev >= 0 && avail < dictLen {
			plen := int(dict[prev] >> 12 & 0xFFF)
			nlen := plen + 1
			if nlen > 0xFFF {
				nlen = 0xFFF
			}
			dict[avail] = uint32(firstByte)<<24 | uint32(nlen)<<12 | uint32(prev)
			avail++
			if avail == 1<<width && width < maxCodeWidth {
				width++
			}
		}
		prev = code
	}
}

// overrun handles a code stream that expands past the raster. The stream is
// corrupt but the pixels already written are kept; the rest of the chain is
// drained so the walker can continue at the next block.
func (d *GIFDecoder) overrun(s *byteStream, r *codeReader) (lzwStatus, error) {
	if err := s.skip(r.blockLeft); err != nil {
		return 0, err
	}
	if err := s.skipSubBlocks(); err != nil {
		return 0, err
	}
	return lzwNoStopCode, nil
}
