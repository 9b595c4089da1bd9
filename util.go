package gifdecoder

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// Animation is the result of a whole-stream convenience decode: every frame
// deep-copied, plus the loop count from a NETSCAPE2.0 application extension
// when one is present.
type Animation struct {
	Width, Height int
	Frames        []*Frame
	LoopCount     int  // -1 when the stream carries no loop extension
	Complete      bool // false when the input is truncated
}

// DecodeOptions configures DecodeGIFWithOptions.
type DecodeOptions struct {
	// Skip parses but does not collect the first Skip frames.
	Skip int64
	// Allocator overrides the raster allocator.
	Allocator Allocator
	// OnAppExtension additionally receives every application extension.
	OnAppExtension AppExtensionFunc
}

// DecodeGIF decodes data and collects all frames into an Animation.
func DecodeGIF(data []byte) (*Animation, error) {
	return DecodeGIFWithOptions(data, DecodeOptions{})
}

// DecodeGIFWithOptions decodes data with custom options. A truncated stream
// is not an error: the frames present are returned with Complete set to
// false.
func DecodeGIFWithOptions(data []byte, opts DecodeOptions) (*Animation, error) {
	if opts.Skip < 0 {
		return nil, errors.Errorf("negative skip %d", opts.Skip)
	}
	d := NewGIFDecoder(data)
	if !d.parseHeader() {
		return nil, errors.New("not a GIF stream")
	}
	total, complete := d.countFrames()
	if opts.Skip > total {
		return nil, errors.Errorf("skip %d exceeds frame count %d", opts.Skip, total)
	}
	if opts.Allocator != nil {
		d.SetAllocator(opts.Allocator)
	}
	d.SetSkip(opts.Skip)

	anim := &Animation{
		Width:     d.width,
		Height:    d.height,
		LoopCount: -1,
		Complete:  complete,
	}
	d.SetAppExtensionFunc(func(e *AppExtension) {
		if e.ID() == "NETSCAPE2.0" {
			for _, sb := range e.Data() {
				if len(sb) == 3 && sb[0] == 1 {
					anim.LoopCount = int(sb[1]) | int(sb[2])<<8
				}
			}
		}
		if opts.OnAppExtension != nil {
			opts.OnAppExtension(e)
		}
	})
	d.Decode(func(f *Frame) {
		anim.Frames = append(anim.Frames, f.Clone())
	})
	return anim, nil
}

// Clone deep-copies a frame so it stays valid after the sink call returns.
// The clone's Pixels hold only the frame's own Width*Height bytes.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Palette = append([]byte(nil), f.Palette...)
	c.Pixels = append([]byte(nil), f.Pixels[:f.Width*f.Height]...)
	return &c
}

// The four interlace passes: starting row and row stride of each.
var (
	interlaceOffsets = [4]int{0, 4, 2, 1}
	interlaceStrides = [4]int{8, 8, 4, 2}
)

// Deinterlace reorders the rows of an interlaced frame into natural
// top-to-bottom order. src holds w*h indexed pixels in interlaced row order,
// as delivered for a frame with Interlaced set.
func Deinterlace(src []byte, w, h int) []byte {
	dst := make([]byte, w*h)
	row := 0
	for pass := 0; pass < 4; pass++ {
		for y := interlaceOffsets[pass]; y < h; y += interlaceStrides[pass] {
			copy(dst[y*w:(y+1)*w], src[row*w:(row+1)*w])
			row++
		}
	}
	return dst
}

// Image converts the frame to a stdlib paletted image positioned at the
// frame's offset within the logical screen. Interlaced rows are reordered
// and the transparent index, if any, becomes a fully transparent palette
// entry.
func (f *Frame) Image() *image.Paletted {
	pal := make(color.Palette, f.ColorCount)
	for i := range pal {
		pal[i] = color.NRGBA{
			R: f.Palette[3*i],
			G: f.Palette[3*i+1],
			B: f.Palette[3*i+2],
			A: 0xFF,
		}
	}
	if f.Transparent >= 0 && f.Transparent < len(pal) {
		pal[f.Transparent] = color.NRGBA{}
	}
	img := image.NewPaletted(image.Rect(f.X, f.Y, f.X+f.Width, f.Y+f.Height), pal)
	pix := f.Pixels[:f.Width*f.Height]
	if f.Interlaced {
		pix = Deinterlace(pix, f.Width, f.Height)
	}
	copy(img.Pix, pix)
	return img
}
