package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/banshee-data/grismview/internal/httputil"
	"github.com/banshee-data/grismview/internal/monitoring"
	"github.com/banshee-data/grismview/internal/spectrum"
)

type exposureRequest struct {
	ID      string            `json:"id"`
	Flux    grid              `json:"flux"`
	Err     grid              `json:"err"`
	Offsets *spectrum.Offsets `json:"offsets,omitempty"`
}

// extractRequest selects the exposures to extract: either those in the
// body or, with use_sample, the cutout loaded into the session.
// Wavelength, when given, is indexed by ROI-local column and calibrates
// the output; a session cutout brings its own wavelength array.
type extractRequest struct {
	Exposures  []exposureRequest       `json:"exposures"`
	UseSample  bool                    `json:"use_sample"`
	ROI        spectrum.ROI            `json:"roi"`
	Window     spectrum.CollapseWindow `json:"window"`
	Wavelength []float64               `json:"wavelength,omitempty"`
	Redshift   float64                 `json:"redshift"`
}

// summary is spectrum.Summary on the wire; a missing centroid is null.
type summary struct {
	Columns      int      `json:"columns"`
	TotalFlux    float64  `json:"total_flux"`
	TotalError   float64  `json:"total_error"`
	SNR          float64  `json:"snr"`
	PeakFlux     float64  `json:"peak_flux"`
	PeakWave     float64  `json:"peak_wavelength"`
	CentroidWave *float64 `json:"centroid_wavelength"`
}

func toSummary(s spectrum.Summary) summary {
	out := summary{
		Columns:    s.Columns,
		TotalFlux:  s.TotalFlux,
		TotalError: s.TotalError,
		SNR:        s.SNR,
		PeakFlux:   s.PeakFlux,
		PeakWave:   s.PeakWave,
	}
	if !math.IsNaN(s.CentroidWave) {
		c := s.CentroidWave
		out.CentroidWave = &c
	}
	return out
}

type exposureResult struct {
	ID         string           `json:"id"`
	Points     []spectrum.Point `json:"points"`
	Summary    summary          `json:"summary"`
	Calibrated bool             `json:"calibrated"`
}

type extractResponse struct {
	Exposures []exposureResult `json:"exposures"`
}

// decodeExtract reads an extract request and runs the extraction.
// It writes the error response itself and returns ok=false on failure.
func (s *Server) decodeExtract(w http.ResponseWriter, r *http.Request) (extractRequest, []exposureResult, bool) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return extractRequest{}, nil, false
	}
	var req extractRequest
	if err := httputil.DecodeJSON(w, r, s.maxBody, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return req, nil, false
	}
	if !finite(req.ROI.X, req.ROI.Y, req.ROI.Width, req.ROI.Height, req.Redshift) {
		httputil.BadRequest(w, "roi and redshift must be finite")
		return req, nil, false
	}
	results, err := s.extract(r.Context(), req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			monitoring.Logf("spectrum: extraction abandoned: %v", err)
			return req, nil, false
		}
		httputil.BadRequest(w, err.Error())
		return req, nil, false
	}
	return req, results, true
}

func (s *Server) extract(ctx context.Context, req extractRequest) ([]exposureResult, error) {
	var exposures []spectrum.Exposure
	var calibrate func([]spectrum.Point) []spectrum.Point
	if len(req.Wavelength) > 0 {
		calibrate = func(points []spectrum.Point) []spectrum.Point {
			return dropNaNWave(spectrum.Calibrate(points, req.Wavelength))
		}
	}

	if req.UseSample {
		sample, ok := s.sess.Sample()
		if !ok || sample.Cutout == nil {
			return nil, errors.New("no cutout loaded")
		}
		c := sample.Cutout
		if !c.Covered {
			return []exposureResult{}, nil
		}
		exposures = append(exposures, spectrum.Exposure{ID: sample.Version, Flux: c.Flux, Err: c.Err, Offsets: cutoutOffsets(c)})
		if len(c.Wavelength) > 0 {
			off := cutoutOffsets(c)
			calibrate = func(points []spectrum.Point) []spectrum.Point {
				return detectorWavelengths(points, c.Wavelength, req.ROI, off)
			}
		}
	} else {
		if len(req.Exposures) == 0 {
			return nil, errors.New("no exposures given")
		}
		for i, e := range req.Exposures {
			exp := spectrum.Exposure{ID: e.ID, Flux: e.Flux.values(), Err: e.Err.values(), Offsets: e.Offsets}
			if exp.ID == "" {
				exp.ID = fmt.Sprintf("exposure-%d", i)
			}
			if err := spectrum.ValidateCutout(&spectrum.GrismCutout{Flux: exp.Flux, Err: exp.Err}); err != nil {
				return nil, fmt.Errorf("%s: %w", exp.ID, err)
			}
			exposures = append(exposures, exp)
		}
	}

	spectra, err := spectrum.ExtractExposures(ctx, exposures, req.ROI, req.Window, s.workers)
	if err != nil {
		return nil, err
	}

	out := make([]exposureResult, 0, len(spectra))
	for _, es := range spectra {
		res := exposureResult{ID: es.ID, Points: es.Points}
		if calibrate != nil {
			res.Points = calibrate(es.Points)
			res.Calibrated = true
		}
		res.Summary = toSummary(spectrum.Summarize(res.Points))
		out = append(out, res)
	}
	return out, nil
}

// cutoutOffsets treats a cutout without offsets as unshifted.
func cutoutOffsets(c *spectrum.GrismCutout) *spectrum.Offsets {
	if c.Offsets != nil {
		return c.Offsets
	}
	return &spectrum.Offsets{}
}

// detectorWavelengths maps each point's ROI-local column through the
// extraction's column mapping onto a detector wavelength array. Points off
// the detector or on a NaN wavelength are dropped.
func detectorWavelengths(points []spectrum.Point, wave []float64, roi spectrum.ROI, off *spectrum.Offsets) []spectrum.Point {
	out := make([]spectrum.Point, 0, len(points))
	for _, p := range points {
		x := int(math.Round(roi.X + p.Wavelength - off.DX))
		if x < 0 || x >= len(wave) || math.IsNaN(wave[x]) {
			continue
		}
		p.Wavelength = wave[x]
		out = append(out, p)
	}
	return out
}

func dropNaNWave(points []spectrum.Point) []spectrum.Point {
	out := points[:0]
	for _, p := range points {
		if !math.IsNaN(p.Wavelength) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Server) handleSpectrumExtract(w http.ResponseWriter, r *http.Request) {
	_, results, ok := s.decodeExtract(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONOK(w, extractResponse{Exposures: results})
}
