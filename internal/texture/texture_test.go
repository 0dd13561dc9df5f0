package texture

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/grismview/internal/percentile"
	"github.com/banshee-data/grismview/internal/spectrum"
	"github.com/banshee-data/grismview/internal/wavelength"
)

func ptr(v float64) *float64 { return &v }

func TestFromData_ExplicitBounds(t *testing.T) {
	tex := FromData(Options{
		Data: [][]float64{
			{0, 5, 10},
			{-1, 11, math.NaN()},
		},
		VMin: ptr(0),
		VMax: ptr(10),
	})
	require.NotNil(t, tex)
	assert.Equal(t, 3, tex.Width)
	assert.Equal(t, 2, tex.Height)
	assert.Equal(t, []uint8{0, 128, 255, 0, 255, 0}, tex.Pix)
	assert.Equal(t, 0.0, tex.VMin)
	assert.Equal(t, 10.0, tex.VMax)
}

func TestFromData_FlatStretch(t *testing.T) {
	tex := FromData(Options{Data: [][]float64{{3, 3}, {3, 3}}, PMin: 1, PMax: 99})
	require.NotNil(t, tex)
	assert.Equal(t, 3.0, tex.VMin)
	assert.Equal(t, 3.0, tex.VMax)
	assert.Equal(t, []uint8{0, 0, 0, 0}, tex.Pix)
}

func TestFromData_AllZeroExcluded(t *testing.T) {
	tex := FromData(Options{Data: [][]float64{{0, 0}}, PMin: 1, PMax: 99, ExcludeZero: true})
	require.NotNil(t, tex)
	assert.Equal(t, percentile.EmptyValue, tex.VMin)
	assert.Equal(t, percentile.EmptyValue, tex.VMax)
	assert.Equal(t, []uint8{0, 0}, tex.Pix)
}

func TestFromData_UsesProvidedSorted(t *testing.T) {
	data := [][]float64{{1, 2, 3, 4}}
	// A sorted array from a wider sample overrides the local distribution.
	tex := FromData(Options{Data: data, PMin: 0, PMax: 100, Sorted: []float64{0, 8}})
	require.NotNil(t, tex)
	assert.Equal(t, 0.0, tex.VMin)
	assert.Equal(t, 8.0, tex.VMax)
	assert.Equal(t, uint8(128), tex.Pix[3])
}

func TestFromData_OneBoundOverride(t *testing.T) {
	tex := FromData(Options{Data: [][]float64{{0, 10}}, PMin: 0, PMax: 100, VMax: ptr(5)})
	require.NotNil(t, tex)
	assert.Equal(t, 0.0, tex.VMin)
	assert.Equal(t, 5.0, tex.VMax)
	assert.Equal(t, []uint8{0, 255}, tex.Pix)
}

func TestFromData_Shape(t *testing.T) {
	assert.Nil(t, FromData(Options{}))
	assert.Nil(t, FromData(Options{Data: [][]float64{{}}}))

	tex := FromData(Options{
		Data: [][]float64{{1, 2, 3}, {4}, {5, 6, 7, 8}},
		VMin: ptr(0),
		VMax: ptr(8),
	})
	require.NotNil(t, tex)
	assert.Equal(t, 3, tex.Width)
	assert.Equal(t, 3, tex.Height)
	assert.Len(t, tex.Pix, 9)
	assert.Equal(t, uint8(0), tex.Pix[4], "short rows padded black")
}

func TestTexture_Release(t *testing.T) {
	tex := FromData(Options{Data: [][]float64{{1, 2}}, VMin: ptr(0), VMax: ptr(2)})
	require.NotNil(t, tex)
	assert.False(t, tex.Released())

	tex.Release()
	tex.Release()
	assert.True(t, tex.Released())
	assert.Nil(t, tex.Pix)

	_, err := tex.Image()
	assert.Error(t, err)

	var nilTex *Texture
	nilTex.Release()
	assert.True(t, nilTex.Released())
}

func TestTexture_EncodePNG(t *testing.T) {
	tex := FromData(Options{Data: [][]float64{{0, 1}, {2, 3}}, VMin: ptr(0), VMax: ptr(3)})
	require.NotNil(t, tex)

	var buf bytes.Buffer
	require.NoError(t, tex.EncodePNG(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
	r, _, _, _ := img.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

func TestTexture_Resize(t *testing.T) {
	tex := FromData(Options{Data: [][]float64{{5, 5}, {5, 5}}, VMin: ptr(0), VMax: ptr(10)})
	require.NotNil(t, tex)

	big, err := tex.Resize(8, 4)
	require.NoError(t, err)
	assert.Equal(t, 8, big.Width)
	assert.Equal(t, 4, big.Height)
	assert.Len(t, big.Pix, 32)
	for _, p := range big.Pix {
		assert.InDelta(t, 128, int(p), 1, "uniform image stays uniform")
	}
	assert.Equal(t, tex.VMax, big.VMax)

	_, err = tex.Resize(0, 4)
	assert.Error(t, err)
}

func TestSlot(t *testing.T) {
	var s Slot
	a := FromData(Options{Data: [][]float64{{1}}, VMin: ptr(0), VMax: ptr(1)})
	b := FromData(Options{Data: [][]float64{{1}}, VMin: ptr(0), VMax: ptr(1)})

	s.Swap(a)
	assert.Same(t, a, s.Current())
	s.Swap(a)
	assert.False(t, a.Released(), "re-storing the held texture keeps it")

	s.Swap(b)
	assert.True(t, a.Released())
	assert.False(t, b.Released())

	err := s.With(func(cur *Texture) error {
		assert.Same(t, b, cur)
		return nil
	})
	require.NoError(t, err)

	s.Release()
	assert.True(t, b.Released())
	assert.Nil(t, s.Current())
	s.Release()
}

// TestSlicedCubeStretch slices a wavelength range out of a 2D spectrum and
// stretches it, comparing bounds with numpy.percentile(sub, [1, 99]).
func TestSlicedCubeStretch(t *testing.T) {
	wave := []float64{3.8, 3.9, 4.0, 4.1, 4.2, 4.3, 4.4, 4.5, 4.6, 4.7, 4.8, 4.9, 5.0}
	s := wavelength.SliceIndices(wave, 3.9, 4.1)
	require.Equal(t, wavelength.Slice{Start: 1, End: 4}, s)

	cube := make([][]float64, 10)
	for r := range cube {
		cube[r] = make([]float64, len(wave))
		for c := range cube[r] {
			cube[r][c] = float64(r*len(wave) + c)
		}
	}
	sub := spectrum.SliceColumns(spectrum.ExtractedSpectrum{Wavelength: wave, Spectrum2D: cube, Covered: true}, s)
	require.True(t, sub.Covered)
	require.Equal(t, []float64{3.9, 4.0, 4.1}, sub.Wavelength)

	tex := FromData(Options{Data: sub.Spectrum2D, PMin: 1, PMax: 99})
	require.NotNil(t, tex)
	assert.Equal(t, 3, tex.Width)
	assert.Equal(t, 10, tex.Height)
	assert.InDelta(t, 1.29, tex.VMin, 1e-9)
	assert.InDelta(t, 119.71, tex.VMax, 1e-9)

	assert.Equal(t, uint8(0), tex.Pix[0])
	assert.Equal(t, uint8(255), tex.Pix[len(tex.Pix)-1])
	assert.Equal(t, uint8(2), tex.Pix[1])
}
