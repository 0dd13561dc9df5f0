// Package texture turns 2D detector arrays into 8-bit grayscale images using
// a percentile stretch.
package texture

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/banshee-data/grismview/internal/percentile"
)

// Options configure FromData. VMin and VMax override the percentile bounds
// when both are set. Sorted may carry a pre-sorted copy of Data (see
// percentile.SortedCache); it is computed on demand otherwise.
type Options struct {
	Data        [][]float64
	PMin        float64
	PMax        float64
	VMin        *float64
	VMax        *float64
	Sorted      []float64
	ExcludeZero bool
}

// Texture is a row-major grayscale buffer with the bounds used to build it.
type Texture struct {
	Width  int
	Height int
	Pix    []uint8
	VMin   float64
	VMax   float64

	once     sync.Once
	released bool
}

// FromData builds a texture from opts.Data. The texture has exactly
// len(Data) rows and len(Data[0]) columns; shorter rows are padded with
// black and longer rows truncated. Each value maps to
// clamp((v-vmin)/(vmax-vmin), 0, 1) scaled to 0..255. NaN values and a
// zero-width stretch (vmax == vmin) map to 0.
//
// Missing data yields a nil texture.
func FromData(opts Options) *Texture {
	if len(opts.Data) == 0 || len(opts.Data[0]) == 0 {
		return nil
	}
	height, width := len(opts.Data), len(opts.Data[0])

	var vmin, vmax float64
	if opts.VMin != nil && opts.VMax != nil {
		vmin, vmax = *opts.VMin, *opts.VMax
	} else {
		sorted := opts.Sorted
		if sorted == nil {
			sorted = percentile.SortFlatArray(opts.Data, opts.ExcludeZero)
		}
		vmin = percentile.FromSorted(sorted, opts.PMin, opts.ExcludeZero)
		vmax = percentile.FromSorted(sorted, opts.PMax, opts.ExcludeZero)
		if opts.VMin != nil {
			vmin = *opts.VMin
		}
		if opts.VMax != nil {
			vmax = *opts.VMax
		}
	}

	t := &Texture{Width: width, Height: height, Pix: make([]uint8, width*height), VMin: vmin, VMax: vmax}
	span := vmax - vmin
	if span == 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return t
	}
	for y, row := range opts.Data {
		off := y * width
		for x := 0; x < width && x < len(row); x++ {
			t.Pix[off+x] = intensity((row[x] - vmin) / span)
		}
	}
	return t
}

func intensity(n float64) uint8 {
	switch {
	case math.IsNaN(n), n <= 0:
		return 0
	case n >= 1:
		return 255
	}
	return uint8(math.Round(n * 255))
}

// Released reports whether Release has been called.
func (t *Texture) Released() bool {
	return t == nil || t.released
}

// Release frees the pixel buffer. It is safe to call more than once and on
// a nil texture.
func (t *Texture) Release() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		t.Pix = nil
		t.released = true
	})
}

// Image wraps the pixel buffer as an image.Gray without copying.
func (t *Texture) Image() (*image.Gray, error) {
	if t.Released() {
		return nil, fmt.Errorf("texture released")
	}
	return &image.Gray{Pix: t.Pix, Stride: t.Width, Rect: image.Rect(0, 0, t.Width, t.Height)}, nil
}

// Resize returns a new texture scaled to width×height with Catmull-Rom
// resampling. The bounds are carried over.
func (t *Texture) Resize(width, height int) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid size %dx%d", width, height)
	}
	src, err := t.Image()
	if err != nil {
		return nil, err
	}
	dst := image.NewGray(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return &Texture{Width: width, Height: height, Pix: dst.Pix, VMin: t.VMin, VMax: t.VMax}, nil
}

// EncodePNG writes the texture as a grayscale PNG.
func (t *Texture) EncodePNG(w io.Writer) error {
	img, err := t.Image()
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
