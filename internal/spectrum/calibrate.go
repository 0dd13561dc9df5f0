package spectrum

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Calibrate replaces the ROI-local column stored in each point's Wavelength
// with wave[col]. Points whose column falls outside wave are dropped. The
// input slice is not modified.
func Calibrate(points []Point, wave []float64) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		col := int(p.Wavelength)
		if col < 0 || col >= len(wave) {
			continue
		}
		p.Wavelength = wave[col]
		out = append(out, p)
	}
	return out
}

// Summary condenses a 1D spectrum for chart subtitles and list views.
type Summary struct {
	Columns      int     `json:"columns"`
	TotalFlux    float64 `json:"total_flux"`
	TotalError   float64 `json:"total_error"`
	SNR          float64 `json:"snr"`
	PeakFlux     float64 `json:"peak_flux"`
	PeakWave     float64 `json:"peak_wavelength"`
	CentroidWave float64 `json:"centroid_wavelength"`
}

// Summarize integrates a spectrum. The centroid is the flux-weighted mean
// wavelength over positive-flux columns and is NaN when there are none.
// An empty spectrum yields the zero Summary with a NaN centroid.
func Summarize(points []Point) Summary {
	s := Summary{Columns: len(points), CentroidWave: math.NaN()}
	if len(points) == 0 {
		return s
	}

	wave := make([]float64, len(points))
	flux := make([]float64, len(points))
	errs := make([]float64, len(points))
	for i, p := range points {
		wave[i], flux[i], errs[i] = p.Wavelength, p.Flux, p.Error
	}

	s.TotalFlux = floats.Sum(flux)
	s.TotalError = math.Sqrt(floats.Dot(errs, errs))
	if s.TotalError > 0 {
		s.SNR = s.TotalFlux / s.TotalError
	}
	peak := floats.MaxIdx(flux)
	s.PeakFlux, s.PeakWave = flux[peak], wave[peak]

	weights := make([]float64, len(flux))
	var wsum float64
	for i, f := range flux {
		if f > 0 {
			weights[i] = f
			wsum += f
		}
	}
	if wsum > 0 {
		s.CentroidWave = stat.Mean(wave, weights)
	}
	return s
}
