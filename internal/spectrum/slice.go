package spectrum

import (
	"github.com/banshee-data/grismview/internal/wavelength"
)

// SliceColumns cuts the columns [s.Start, s.End) out of every row of a 2D
// spectrum and the wavelength array. Indices are clamped to each row; an
// uncovered spectrum or an empty slice yields an uncovered result.
// Rows share memory with the input.
func SliceColumns(es ExtractedSpectrum, s wavelength.Slice) ExtractedSpectrum {
	if !es.Covered || s.Len() == 0 {
		return ExtractedSpectrum{}
	}
	out := ExtractedSpectrum{
		Wavelength: subslice(es.Wavelength, s),
		Spectrum2D: make([][]float64, len(es.Spectrum2D)),
		Covered:    true,
	}
	for i, row := range es.Spectrum2D {
		out.Spectrum2D[i] = subslice(row, s)
	}
	return out
}

// CollapseWindowSlice resolves the wavelength range of a window, given in
// physical units, to columns of es.
func CollapseWindowSlice(es ExtractedSpectrum, win CollapseWindow) wavelength.Slice {
	return wavelength.SliceIndices(es.Wavelength, win.WaveMin, win.WaveMax)
}

func subslice(v []float64, s wavelength.Slice) []float64 {
	start, end := s.Start, s.End
	if start < 0 {
		start = 0
	}
	if end > len(v) {
		end = len(v)
	}
	if start >= end {
		return []float64{}
	}
	return v[start:end]
}
