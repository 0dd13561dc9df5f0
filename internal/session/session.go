// Package session holds the interactive state of one viewer: camera,
// stretch settings, the image sample being displayed and the footprint the
// user has selected. Engine packages never see a Session; callers read the
// fields they need and pass them as plain values.
package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/grismview/internal/monitoring"
	"github.com/banshee-data/grismview/internal/percentile"
	"github.com/banshee-data/grismview/internal/projection"
	"github.com/banshee-data/grismview/internal/spectrum"
	"github.com/banshee-data/grismview/internal/texture"
)

// ErrNoSample is returned by operations that need an image sample before
// one has been set.
var ErrNoSample = errors.New("no sample loaded")

// Options seed a new Session.
type Options struct {
	View          projection.ViewState
	InitialRadius float64
	MinScale      float64
	MaxScale      float64
	Norm          percentile.NormParams
	ExcludeZero   bool
}

// Sample is the 2D array currently shown as a texture. Version is the
// caller's label for the data. The sorted cache is keyed by an id the
// session assigns on every SetSample, so re-sending changed data under an
// old label never reuses a stale sort.
type Sample struct {
	Version string
	Data    [][]float64
	Cutout  *spectrum.GrismCutout
}

// State is a read-only snapshot of a Session.
type State struct {
	View          projection.ViewState  `json:"view"`
	Center        projection.RaDec      `json:"center"`
	Norm          percentile.NormParams `json:"norm"`
	ExcludeZero   bool                  `json:"exclude_zero"`
	SampleVersion string                `json:"sample_version,omitempty"`
	SampleHeight  int                   `json:"sample_height"`
	SampleWidth   int                   `json:"sample_width"`
	Selected      string                `json:"selected_footprint,omitempty"`
}

// Session is safe for concurrent use.
type Session struct {
	mu            sync.RWMutex
	view          projection.ViewState
	initialRadius float64
	minScale      float64
	maxScale      float64
	norm          percentile.NormParams
	excludeZero   bool
	sample        *Sample
	sampleKey     string
	selected      string

	sorted percentile.SortedCache
	tex    texture.Slot
}

// New returns a Session seeded from opts.
func New(opts Options) *Session {
	return &Session{
		view:          opts.View.Normalize(),
		initialRadius: opts.InitialRadius,
		minScale:      opts.MinScale,
		maxScale:      opts.MaxScale,
		norm:          opts.Norm,
		excludeZero:   opts.ExcludeZero,
	}
}

// Close releases the current texture.
func (s *Session) Close() {
	s.tex.Release()
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := State{
		View:        s.view,
		Center:      s.view.Center(),
		Norm:        s.norm,
		ExcludeZero: s.excludeZero,
		Selected:    s.selected,
	}
	if s.sample != nil {
		st.SampleVersion = s.sample.Version
		st.SampleHeight, st.SampleWidth = spectrum.Dims(s.sample.Data)
	}
	return st
}

// InitialRadius is the on-screen globe radius at scale 1.
func (s *Session) InitialRadius() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialRadius
}

// View returns the camera.
func (s *Session) View() projection.ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Pan rotates the camera and returns the new view.
func (s *Session) Pan(dYawDeg, dPitchDeg float64) projection.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = s.view.Pan(dYawDeg, dPitchDeg)
	return s.view
}

// Zoom scales the camera within the configured limits.
func (s *Session) Zoom(factor float64) projection.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = s.view.Zoom(factor, s.minScale, s.maxScale)
	return s.view
}

// GoTo centres the camera on (ra, dec).
func (s *Session) GoTo(ra, dec float64) projection.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = s.view.GoTo(ra, dec)
	return s.view
}

// GoToScreen centres the camera on the sky point under (sx, sy) in a
// viewport centred at (cx, cy). ok is false when the point is off the globe.
func (s *Session) GoToScreen(sx, sy, cx, cy float64) (projection.ViewState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.view.GoToScreen(sx, sy, cx, cy, s.initialRadius)
	s.view = v
	return v, ok
}

// SetView replaces the camera.
func (s *Session) SetView(v projection.ViewState) projection.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v.Zoom(1, s.minScale, s.maxScale)
	return s.view
}

// Select marks a footprint as selected. An empty id clears the selection.
func (s *Session) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
}

// Selected returns the selected footprint id.
func (s *Session) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// SetSample replaces the displayed sample. Resolved stretch bounds belong
// to the previous sample and are cleared.
func (s *Session) SetSample(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sorted.Invalidate()
	s.sample = &sample
	s.sampleKey = uuid.NewString()
	s.norm.VMin, s.norm.VMax = nil, nil
	monitoring.Debugf("session: sample %q %d rows", sample.Version, len(sample.Data))
}

// Sample returns the current sample.
func (s *Session) Sample() (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sample == nil {
		return Sample{}, false
	}
	return *s.sample, true
}

// Norm returns the stretch settings.
func (s *Session) Norm() percentile.NormParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.norm
}

// SetExcludeZero switches the zero-exclusion policy, which invalidates
// resolved bounds.
func (s *Session) SetExcludeZero(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.excludeZero != on {
		s.excludeZero = on
		s.norm.VMin, s.norm.VMax = nil, nil
	}
}

// SetPMin moves the lower percentile and resolves the bounds again if a
// sample is loaded.
func (s *Session) SetPMin(p float64) percentile.NormParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.norm = percentile.SetPMin(s.norm, p)
	return s.resolveLocked()
}

// SetPMax moves the upper percentile and resolves the bounds again if a
// sample is loaded.
func (s *Session) SetPMax(p float64) percentile.NormParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.norm = percentile.SetPMax(s.norm, p)
	return s.resolveLocked()
}

// SetRange moves both percentiles in one step and resolves the bounds again
// if a sample is loaded.
func (s *Session) SetRange(pmin, pmax float64) percentile.NormParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.norm = percentile.SetRange(s.norm, pmin, pmax)
	return s.resolveLocked()
}

// SetBounds pins vmin and vmax directly. The percentiles are moved to the
// ranks of the bounds in the current sample so the sliders follow, widened
// to MinGap when the bounds sit closer than that.
func (s *Session) SetBounds(vmin, vmax float64) (percentile.NormParams, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sample == nil {
		return s.norm, ErrNoSample
	}
	if vmin > vmax {
		vmin, vmax = vmax, vmin
	}
	sorted := s.sorted.Get(s.sampleKey, s.sample.Data, s.excludeZero)
	s.norm.PMin, s.norm.PMax = percentile.FitRange(
		percentile.RankOfValue(sorted, vmin, s.excludeZero),
		percentile.RankOfValue(sorted, vmax, s.excludeZero),
	)
	s.norm.VMin, s.norm.VMax = &vmin, &vmax
	return s.norm, nil
}

// ResolveNorm computes the bounds of the current percentiles against the
// sample.
func (s *Session) ResolveNorm() (percentile.NormParams, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sample == nil {
		return s.norm, ErrNoSample
	}
	return s.resolveLocked(), nil
}

func (s *Session) resolveLocked() percentile.NormParams {
	if s.sample == nil {
		return s.norm
	}
	sorted := s.sorted.Get(s.sampleKey, s.sample.Data, s.excludeZero)
	s.norm = percentile.Resolve(s.norm, sorted, s.excludeZero)
	return s.norm
}

// SortBuilds reports how many times the sample has been sorted.
func (s *Session) SortBuilds() int {
	return s.sorted.Builds()
}

// BuildTexture renders the current sample with the current stretch and
// stores it as the session texture, releasing the previous one. fn is
// called with the new texture while the session still owns it.
func (s *Session) BuildTexture(fn func(*texture.Texture) error) error {
	s.mu.Lock()
	if s.sample == nil {
		s.mu.Unlock()
		return ErrNoSample
	}
	norm := s.resolveLocked()
	vmin, vmax, _ := norm.Bounds()
	tex := texture.FromData(texture.Options{
		Data:        s.sample.Data,
		PMin:        norm.PMin,
		PMax:        norm.PMax,
		VMin:        &vmin,
		VMax:        &vmax,
		ExcludeZero: s.excludeZero,
	})
	s.mu.Unlock()

	s.tex.Swap(tex)
	return s.tex.With(fn)
}
