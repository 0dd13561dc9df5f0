package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/banshee-data/grismview/internal/httputil"
	"github.com/banshee-data/grismview/internal/spectrum"
	"github.com/banshee-data/grismview/internal/units"
	"github.com/banshee-data/grismview/internal/wavelength"
)

// formatWave labels an observed-frame micron value with the configured
// unit, frame and digits.
func (s *Server) formatWave(valueUm, z float64) string {
	return units.FormatWavelength(valueUm, s.waveUnit, s.waveFrame, z, s.digits)
}

// toGrid is the inverse of grid.values: NaN becomes null.
func toGrid(data [][]float64) grid {
	out := make(grid, len(data))
	for i, row := range data {
		out[i] = make([]*float64, len(row))
		for j := range row {
			if !math.IsNaN(row[j]) {
				out[i][j] = &row[j]
			}
		}
	}
	return out
}

type sliceRequest struct {
	Wavelength []float64 `json:"wavelength"`
	Spectrum2D grid      `json:"spectrum_2d,omitempty"`
	Covered    *bool     `json:"covered,omitempty"`
	WaveMin    float64   `json:"wave_min"`
	WaveMax    float64   `json:"wave_max"`
}

type sliceResponse struct {
	wavelength.Slice
	Wavelength []float64 `json:"wavelength"`
	Spectrum2D grid      `json:"spectrum_2d,omitempty"`
	Covered    bool      `json:"covered"`
	Label      string    `json:"label,omitempty"`
}

// handleWavelengthSlice resolves a wavelength window (microns, inclusive)
// to a column range and, when a 2D spectrum is supplied, cuts it.
func (s *Server) handleWavelengthSlice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req sliceRequest
	if err := httputil.DecodeJSON(w, r, s.maxBody, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}
	if err := spectrum.ValidateWavelength(req.Wavelength); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	cols := wavelength.SliceIndices(req.Wavelength, req.WaveMin, req.WaveMax)
	es := spectrum.ExtractedSpectrum{
		Wavelength: req.Wavelength,
		Spectrum2D: req.Spectrum2D.values(),
		Covered:    req.Covered == nil || *req.Covered,
	}
	cut := spectrum.SliceColumns(es, cols)

	resp := sliceResponse{Slice: cols, Wavelength: cut.Wavelength, Covered: cut.Covered}
	if resp.Wavelength == nil {
		resp.Wavelength = []float64{}
	}
	if req.Spectrum2D != nil {
		resp.Spectrum2D = toGrid(cut.Spectrum2D)
	}
	if n := len(cut.Wavelength); n > 0 {
		resp.Label = s.formatWave(cut.Wavelength[0], 0) + " to " + s.formatWave(cut.Wavelength[n-1], 0)
	}
	httputil.WriteJSONOK(w, resp)
}

type nearestRequest struct {
	Wavelength []float64 `json:"wavelength"`
	Target     float64   `json:"target"`
}

type nearestResponse struct {
	wavelength.Nearest
	Label string `json:"label"`
}

// handleWavelengthNearest finds the column closest to a target wavelength.
func (s *Server) handleWavelengthNearest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req nearestRequest
	if err := httputil.DecodeJSON(w, r, s.maxBody, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}
	if err := spectrum.ValidateWavelength(req.Wavelength); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	n, ok := wavelength.NearestIndex(req.Wavelength, req.Target)
	if !ok {
		httputil.NotFound(w, "no wavelengths to search")
		return
	}
	httputil.WriteJSONOK(w, nearestResponse{Nearest: n, Label: s.formatWave(n.Wavelength, 0)})
}

type formatResponse struct {
	Value   float64 `json:"value"`
	Display float64 `json:"display"`
	Unit    string  `json:"unit"`
	Frame   string  `json:"frame"`
	Label   string  `json:"label"`
}

// handleWavelengthFormat converts an observed-frame micron value for
// display. unit, frame and digits default to the configured values.
func (s *Server) handleWavelengthFormat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	if q.Get("value") == "" {
		httputil.BadRequest(w, "value is required")
		return
	}
	value, err := parseFloatParam(r, "value", 0)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	z, err := parseFloatParam(r, "z", 0)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	unit := s.waveUnit
	if raw := q.Get("unit"); raw != "" {
		u, ok := units.ParseUnit(raw)
		if !ok {
			httputil.BadRequest(w, "invalid unit, expected one of "+units.GetValidUnitsString())
			return
		}
		unit = u
	}
	frame := s.waveFrame
	if raw := q.Get("frame"); raw != "" {
		if !units.IsValidFrame(raw) {
			httputil.BadRequest(w, "invalid frame")
			return
		}
		frame = raw
	}
	digits := s.digits
	if raw := q.Get("digits"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 0 || d > 10 {
			httputil.BadRequest(w, "digits must be within 0..10")
			return
		}
		digits = d
	}

	httputil.WriteJSONOK(w, formatResponse{
		Value:   value,
		Display: units.ToDisplayWavelength(value, unit, frame, z),
		Unit:    unit,
		Frame:   frame,
		Label:   units.FormatWavelength(value, unit, frame, z, digits),
	})
}
