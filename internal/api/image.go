package api

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/banshee-data/grismview/internal/fitsload"
	"github.com/banshee-data/grismview/internal/httputil"
	"github.com/banshee-data/grismview/internal/monitoring"
	"github.com/banshee-data/grismview/internal/percentile"
	"github.com/banshee-data/grismview/internal/session"
	"github.com/banshee-data/grismview/internal/spectrum"
	"github.com/banshee-data/grismview/internal/texture"
	"github.com/banshee-data/grismview/internal/wavelength"
)

// grid is a 2D array on the wire. JSON has no NaN, so masked pixels are
// sent as null.
type grid [][]*float64

func (g grid) values() [][]float64 {
	if g == nil {
		return nil
	}
	out := make([][]float64, len(g))
	for i, row := range g {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				out[i][j] = math.NaN()
				continue
			}
			out[i][j] = *v
		}
	}
	return out
}

type sampleRequest struct {
	Version string `json:"version"`
	Data    grid   `json:"data"`
}

// handleSample replaces the session sample. The version is a label echoed
// back in the session state; samples without one get a generated label.
func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req sampleRequest
	if err := httputil.DecodeJSON(w, r, s.maxBody, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}
	data := req.Data.values()
	if err := spectrum.ValidateGrid(data); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.Version == "" {
		req.Version = uuid.New().String()
	}
	s.sess.SetSample(session.Sample{Version: req.Version, Data: data})
	httputil.WriteJSONOK(w, s.sess.State())
}

type cutoutResponse struct {
	Version string  `json:"version"`
	Height  int     `json:"height"`
	Width   int     `json:"width"`
	Covered bool    `json:"covered"`
	WaveMin float64 `json:"wave_min,omitempty"`
	WaveMax float64 `json:"wave_max,omitempty"`
	Label   string  `json:"label,omitempty"`
}

// handleCutout reads a FITS grism cutout from the request body and makes
// its flux the session sample.
func (s *Server) handleCutout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, s.maxBody)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteJSONError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		httputil.BadRequest(w, fmt.Sprintf("read body: %v", err))
		return
	}
	cutout, err := fitsload.LoadCutout(&buf)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	version := r.URL.Query().Get("version")
	if version == "" {
		version = uuid.New().String()
	}
	s.sess.SetSample(session.Sample{Version: version, Data: cutout.Flux, Cutout: cutout})

	resp := cutoutResponse{Version: version, Covered: cutout.Covered}
	resp.Height, resp.Width = spectrum.Dims(cutout.Flux)
	if n := len(cutout.Wavelength); n > 0 {
		resp.WaveMin, resp.WaveMax = cutout.Wavelength[0], cutout.Wavelength[n-1]
		resp.Label = s.formatWave(resp.WaveMin, 0) + " to " + s.formatWave(resp.WaveMax, 0)
	}
	monitoring.Logf("cutout: loaded %dx%d sample %s", resp.Height, resp.Width, version)
	httputil.WriteJSONOK(w, resp)
}

type normRequest struct {
	PMin        *float64 `json:"pmin,omitempty"`
	PMax        *float64 `json:"pmax,omitempty"`
	VMin        *float64 `json:"vmin,omitempty"`
	VMax        *float64 `json:"vmax,omitempty"`
	ExcludeZero *bool    `json:"exclude_zero,omitempty"`
}

// handleNorm reports (GET) or changes (POST) the stretch. Percentile moves
// keep the minimum gap; explicit vmin/vmax pin the bounds and move the
// percentiles to match.
func (s *Server) handleNorm(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, s.sess.Norm())
		return
	case http.MethodPost:
	default:
		httputil.MethodNotAllowed(w)
		return
	}

	var req normRequest
	if err := httputil.DecodeJSON(w, r, s.maxBody, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}
	if (req.VMin == nil) != (req.VMax == nil) {
		httputil.BadRequest(w, "vmin and vmax must be set together")
		return
	}
	for _, p := range []*float64{req.PMin, req.PMax, req.VMin, req.VMax} {
		if p != nil && !finite(*p) {
			httputil.BadRequest(w, "stretch values must be finite")
			return
		}
	}

	if req.ExcludeZero != nil {
		s.sess.SetExcludeZero(*req.ExcludeZero)
	}
	var norm percentile.NormParams
	switch {
	case req.VMin != nil:
		var err error
		norm, err = s.sess.SetBounds(*req.VMin, *req.VMax)
		if errors.Is(err, session.ErrNoSample) {
			httputil.WriteJSONError(w, http.StatusConflict, err.Error())
			return
		}
	case req.PMin != nil && req.PMax != nil:
		norm = s.sess.SetRange(*req.PMin, *req.PMax)
	case req.PMin != nil:
		norm = s.sess.SetPMin(*req.PMin)
	case req.PMax != nil:
		norm = s.sess.SetPMax(*req.PMax)
	default:
		norm, _ = s.sess.ResolveNorm()
	}
	httputil.WriteJSONOK(w, norm)
}

// textureRequest renders an arbitrary 2D array. When Wavelength and a
// wavelength window are given, only the columns inside the window are
// rendered and the stretch is computed over that slice.
type textureRequest struct {
	Data        grid      `json:"data"`
	PMin        *float64  `json:"pmin,omitempty"`
	PMax        *float64  `json:"pmax,omitempty"`
	VMin        *float64  `json:"vmin,omitempty"`
	VMax        *float64  `json:"vmax,omitempty"`
	ExcludeZero *bool     `json:"exclude_zero,omitempty"`
	Wavelength  []float64 `json:"wavelength,omitempty"`
	WaveMin     *float64  `json:"wave_min,omitempty"`
	WaveMax     *float64  `json:"wave_max,omitempty"`
}

// handleTexture encodes a grayscale PNG. GET renders the session sample
// with the session stretch; POST renders the array in the body. The bounds
// used are returned in the X-Vmin and X-Vmax headers. Optional width and
// height query parameters resample the image.
func (s *Server) handleTexture(w http.ResponseWriter, r *http.Request) {
	width, height, err := parseSize(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		err := s.sess.BuildTexture(func(t *texture.Texture) error {
			return writeTexture(w, t, width, height)
		})
		switch {
		case errors.Is(err, session.ErrNoSample):
			httputil.WriteJSONError(w, http.StatusConflict, err.Error())
		case errors.Is(err, errEmptyTexture):
			httputil.BadRequest(w, err.Error())
		case err != nil:
			monitoring.Logf("texture: %v", err)
		}
	case http.MethodPost:
		var req textureRequest
		if err := httputil.DecodeJSON(w, r, s.maxBody, &req); err != nil {
			httputil.WriteDecodeError(w, err)
			return
		}
		opts, err := s.textureOptions(req)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		t := texture.FromData(opts)
		defer t.Release()
		if err := writeTexture(w, t, width, height); err != nil {
			if errors.Is(err, errEmptyTexture) {
				httputil.BadRequest(w, err.Error())
				return
			}
			monitoring.Logf("texture: %v", err)
		}
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) textureOptions(req textureRequest) (texture.Options, error) {
	data := req.Data.values()
	if err := spectrum.ValidateGrid(data); err != nil {
		return texture.Options{}, err
	}

	norm := s.sess.Norm()
	opts := texture.Options{
		Data:        data,
		PMin:        norm.PMin,
		PMax:        norm.PMax,
		VMin:        req.VMin,
		VMax:        req.VMax,
		ExcludeZero: s.sess.State().ExcludeZero,
	}
	if req.PMin != nil {
		opts.PMin = *req.PMin
	}
	if req.PMax != nil {
		opts.PMax = *req.PMax
	}
	if req.ExcludeZero != nil {
		opts.ExcludeZero = *req.ExcludeZero
	}
	if err := (percentile.NormParams{PMin: opts.PMin, PMax: opts.PMax}).Validate(); err != nil {
		return texture.Options{}, err
	}

	if req.WaveMin != nil || req.WaveMax != nil {
		if req.WaveMin == nil || req.WaveMax == nil {
			return texture.Options{}, errors.New("wave_min and wave_max must be set together")
		}
		if err := spectrum.ValidateWavelength(req.Wavelength); err != nil {
			return texture.Options{}, err
		}
		if _, w := spectrum.Dims(data); w != len(req.Wavelength) {
			return texture.Options{}, fmt.Errorf("%d wavelengths for %d columns: %w", len(req.Wavelength), w, spectrum.ErrWaveMismatch)
		}
		es := spectrum.ExtractedSpectrum{Wavelength: req.Wavelength, Spectrum2D: data, Covered: true}
		cols := wavelength.SliceIndices(req.Wavelength, *req.WaveMin, *req.WaveMax)
		opts.Data = spectrum.SliceColumns(es, cols).Spectrum2D
	}
	return opts, nil
}

var errEmptyTexture = errors.New("no data to render")

func parseSize(r *http.Request) (width, height int, err error) {
	q := r.URL.Query()
	if q.Get("width") == "" && q.Get("height") == "" {
		return 0, 0, nil
	}
	width, err1 := strconv.Atoi(q.Get("width"))
	height, err2 := strconv.Atoi(q.Get("height"))
	if err1 != nil || err2 != nil || width <= 0 || height <= 0 || width > 8192 || height > 8192 {
		return 0, 0, errors.New("width and height must be set together, each within 1..8192")
	}
	return width, height, nil
}

// writeTexture encodes t, resampled when width and height are set.
func writeTexture(w http.ResponseWriter, t *texture.Texture, width, height int) error {
	if t == nil {
		return errEmptyTexture
	}
	out := t
	if width > 0 && height > 0 {
		resized, err := t.Resize(width, height)
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return err
		}
		defer resized.Release()
		out = resized
	}

	var buf bytes.Buffer
	if err := out.EncodePNG(&buf); err != nil {
		httputil.InternalServerError(w, err.Error())
		return err
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Vmin", strconv.FormatFloat(t.VMin, 'g', -1, 64))
	w.Header().Set("X-Vmax", strconv.FormatFloat(t.VMax, 'g', -1, 64))
	_, err := w.Write(buf.Bytes())
	return err
}
