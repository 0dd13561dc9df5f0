// Package spectrum extracts 1D spectra from 2D grism detector data.
//
// Grids are row-major [][]float64 indexed [row][column]: rows are the
// spatial axis and columns the dispersion (wavelength) axis. NaN marks a
// masked pixel.
package spectrum

import "math"

// Offsets is the per-exposure pixel shift between ROI-local and absolute
// detector coordinates.
type Offsets struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// ROI is a rectangle on the detector in pixel coordinates.
type ROI struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Degenerate reports whether the ROI has no area.
func (r ROI) Degenerate() bool {
	return !(r.Width > 0) || !(r.Height > 0)
}

// CollapseWindow selects a wavelength (column) and spatial (row) sub-range
// of a 2D spectrum. Either range may be given in any order.
type CollapseWindow struct {
	WaveMin    float64 `json:"wave_min"`
	WaveMax    float64 `json:"wave_max"`
	SpatialMin float64 `json:"spatial_min"`
	SpatialMax float64 `json:"spatial_max"`
}

// Normalize returns the window with both ranges ordered min <= max.
func (w CollapseWindow) Normalize() CollapseWindow {
	if w.WaveMin > w.WaveMax {
		w.WaveMin, w.WaveMax = w.WaveMax, w.WaveMin
	}
	if w.SpatialMin > w.SpatialMax {
		w.SpatialMin, w.SpatialMax = w.SpatialMax, w.SpatialMin
	}
	return w
}

// Point is one wavelength column of an extracted 1D spectrum.
type Point struct {
	Wavelength   float64 `json:"wavelength"`
	Flux         float64 `json:"flux"`
	Error        float64 `json:"error"`
	FluxMinusErr float64 `json:"flux_minus_err"`
	FluxPlusErr  float64 `json:"flux_plus_err"`
}

// ExtractedSpectrum is a 2D spectrum as delivered by the extraction
// service. Covered is false when the source has no usable data; consumers
// render nothing in that case.
type ExtractedSpectrum struct {
	Wavelength []float64   `json:"wavelength"`
	Spectrum2D [][]float64 `json:"spectrum_2d"`
	Covered    bool        `json:"covered"`
}

// GrismCutout is the flux/error variant of ExtractedSpectrum used for
// aperture extraction.
type GrismCutout struct {
	Wavelength []float64   `json:"wavelength"`
	Flux       [][]float64 `json:"flux"`
	Err        [][]float64 `json:"err"`
	Offsets    *Offsets    `json:"offsets,omitempty"`
	Covered    bool        `json:"covered"`
}

// Dims returns the row and column count of a grid, using the first row for
// the width.
func Dims(grid [][]float64) (height, width int) {
	if len(grid) == 0 {
		return 0, 0
	}
	return len(grid), len(grid[0])
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
