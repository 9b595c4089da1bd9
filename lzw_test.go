package gifdecoder

import (
	"bytes"
	"compress/lzw"
	"testing"

	"github.com/stretchr/testify/require"
)

// lzwChain frames hand-built code bytes as a complete LZW section: minimum
// code size, sub-blocks, terminator.
func lzwChain(minCodeSize byte, blocks ...[]byte) []byte {
	out := []byte{minCodeSize}
	for _, b := range blocks {
		out = append(out, byte(len(b)))
		out = append(out, b...)
	}
	return append(out, 0)
}

// lzwCompress produces a real GIF code stream with the stdlib encoder.
func lzwCompress(t *testing.T, minCodeSize int, pixels []byte) []byte {
	t.Helper()
	var raw bytes.Buffer
	w := lzw.NewWriter(&raw, lzw.LSB, minCodeSize)
	_, err := w.Write(pixels)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	out := []byte{byte(minCodeSize)}
	b := raw.Bytes()
	for len(b) > 0 {
		n := len(b)
		if n > 255 {
			n = 255
		}
		out = append(out, byte(n))
		out = append(out, b[:n]...)
		b = b[n:]
	}
	return append(out, 0)
}

// expandChain runs the expander over a standalone LZW section and reports
// the output buffer, the status, the final cursor position and the error.
func expandChain(chain []byte, dstLen int) ([]byte, lzwStatus, int, error) {
	d := NewGIFDecoder(nil)
	s := byteStream{data: chain}
	dst := make([]byte, dstLen)
	status, err := d.expand(&s, dst)
	return dst, status, s.pos, err
}

func TestExpandSingleLiteral(t *testing.T) {
	// clear, 0, stop at width 3.
	dst, status, pos, err := expandChain(lzwChain(2, []byte{0x44, 0x01}), 1)
	require.NoError(t, err)
	require.Equal(t, lzwClean, status)
	require.Equal(t, byte(0), dst[0])
	require.Equal(t, 5, pos, "cursor must stop one past the chain terminator")
}

func TestExpandWidthIncrease(t *testing.T) {
	// clear, 0, 1, 2 at width 3; the dictionary reaches 8 entries so 3 and
	// the stop code are read at width 4.
	dst, status, _, err := expandChain(lzwChain(2, []byte{0x44, 0x34, 0x05}), 4)
	require.NoError(t, err)
	require.Equal(t, lzwClean, status)
	require.Equal(t, []byte{0, 1, 2, 3}, dst)
}

func TestExpandKwKwK(t *testing.T) {
	// clear, 0, 6, stop: code 6 is the entry being defined, the classic
	// KwKwK case, expanding to the previous string plus its own first byte.
	dst, status, _, err := expandChain(lzwChain(2, []byte{0x84, 0x0B}), 3)
	require.NoError(t, err)
	require.Equal(t, lzwClean, status)
	require.Equal(t, []byte{0, 0, 0}, dst)
}

func TestExpandNoStopCode(t *testing.T) {
	// clear, 0 and then the chain terminator with no stop code: the pixels
	// produced so far are kept.
	dst, status, pos, err := expandChain(lzwChain(2, []byte{0x04}), 1)
	require.NoError(t, err)
	require.Equal(t, lzwNoStopCode, status)
	require.Equal(t, byte(0), dst[0])
	require.Equal(t, 4, pos)
}

func TestExpandTrailingData(t *testing.T) {
	chain := lzwChain(2, []byte{0x44, 0x01}, []byte{0xDE, 0xAD})
	dst, status, pos, err := expandChain(chain, 1)
	require.NoError(t, err)
	require.Equal(t, lzwTrailingData, status)
	require.Equal(t, byte(0), dst[0])
	require.Equal(t, len(chain), pos)
}

func TestExpandErrors(t *testing.T) {
	cases := []struct {
		name  string
		chain []byte
		want  error
	}{
		{"min code size too small", lzwChain(1, []byte{0x44, 0x01}), errBadMinCodeSize},
		{"min code size too large", lzwChain(9, []byte{0x44, 0x01}), errBadMinCodeSize},
		{"empty chain", lzwChain(2), errEmptyCodeChain},
		{"first code not clear", lzwChain(2, []byte{0x00}), errMissingClear},
		{"undefined code", lzwChain(2, []byte{0x3C}), errBadCode},
		{"premature end", []byte{2, 4, 0x44}, errInsufficientData},
		{"no data at all", []byte{}, errInsufficientData},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, _, err := expandChain(c.chain, 16)
			require.ErrorIs(t, err, c.want)
		})
	}
}

func TestExpandOverlongStreamKeepsPrefix(t *testing.T) {
	// A stream carrying more pixels than the raster has room for: the head
	// is kept, the rest of the chain is drained.
	chain := lzwCompress(t, 2, []byte{0, 1, 2, 3, 0, 1, 2, 3})
	dst, status, pos, err := expandChain(chain, 4)
	require.NoError(t, err)
	require.Equal(t, lzwNoStopCode, status)
	require.Equal(t, []byte{0, 1, 2, 3}, dst)
	require.Equal(t, len(chain), pos)
}

func TestExpandRoundTrip(t *testing.T) {
	patterns := map[string]struct {
		minCodeSize int
		pixels      func() []byte
	}{
		"zero run": {2, func() []byte {
			return make([]byte, 10000)
		}},
		"two-bit ramp": {2, func() []byte {
			p := make([]byte, 4096)
			for i := range p {
				p[i] = byte(i % 4)
			}
			return p
		}},
		"byte ramp": {8, func() []byte {
			p := make([]byte, 4096)
			for i := range p {
				p[i] = byte(i)
			}
			return p
		}},
		"dictionary churn": {8, func() []byte {
			// Enough low-repetition data to fill the 4096-entry table and
			// force the encoder through clear-code resets.
			p := make([]byte, 65536)
			for i := range p {
				p[i] = byte((i*7 + i/5) % 256)
			}
			return p
		}},
	}
	for name, c := range patterns {
		t.Run(name, func(t *testing.T) {
			pixels := c.pixels()
			chain := lzwCompress(t, c.minCodeSize, pixels)
			dst, status, pos, err := expandChain(chain, len(pixels))
			require.NoError(t, err)
			require.Equal(t, lzwClean, status)
			require.Equal(t, pixels, dst)
			require.Equal(t, len(chain), pos)
		})
	}
}

func TestExpandClearCodeMidStream(t *testing.T) {
	// clear, 0, 1, clear, 1, 0, stop: the reset drops the table back to
	// literals and the code width back to its initial value.
	//
	// Codes at width 3 throughout: 4, 0, 1, 4, 1, 0, 5.
	// LSB-first packing, each code's bits low bit first:
	// 001 000 100 001 100 000 101.
	chain := lzwChain(2, []byte{0x44, 0x18, 0x14})
	dst, status, _, err := expandChain(chain, 4)
	require.NoError(t, err)
	require.Equal(t, lzwClean, status)
	require.Equal(t, []byte{0, 1, 1, 0}, dst)
}
