package projection

import "math"

// Default zoom limits applied when a caller passes non-positive bounds.
const (
	DefaultMinScale = 0.2
	DefaultMaxScale = 50.0
)

// ViewState is the camera of the globe. Yaw is kept in [0, 360), pitch in
// [-90, 90] and scale > 0; every method returns a normalized copy.
type ViewState struct {
	YawDeg   float64 `json:"yaw_deg"`
	PitchDeg float64 `json:"pitch_deg"`
	Scale    float64 `json:"scale"`
}

// NewViewState returns a view centred on (ra, dec) at the given scale.
func NewViewState(ra, dec, scale float64) ViewState {
	yaw, pitch := CenterRaDecToView(ra, dec)
	return ViewState{YawDeg: yaw, PitchDeg: pitch, Scale: scale}.Normalize()
}

// Normalize wraps yaw, clamps pitch and replaces a non-positive or
// non-finite scale with 1.
func (v ViewState) Normalize() ViewState {
	v.YawDeg = WrapDeg360(v.YawDeg)
	v.PitchDeg = Clamp(v.PitchDeg, -90, 90)
	if !(v.Scale > 0) || math.IsInf(v.Scale, 0) {
		v.Scale = 1
	}
	return v
}

// Center returns the sky position at screen centre.
func (v ViewState) Center() RaDec {
	return ViewToCenterRaDec(v.YawDeg, v.PitchDeg)
}

// Pan rotates the camera by the given yaw and pitch deltas in degrees.
func (v ViewState) Pan(dYawDeg, dPitchDeg float64) ViewState {
	v.YawDeg += dYawDeg
	v.PitchDeg += dPitchDeg
	return v.Normalize()
}

// Zoom multiplies the scale by factor and clamps it to [minScale, maxScale].
// Non-positive limits fall back to DefaultMinScale and DefaultMaxScale.
// A non-positive or non-finite factor leaves the scale unchanged.
func (v ViewState) Zoom(factor, minScale, maxScale float64) ViewState {
	if minScale <= 0 {
		minScale = DefaultMinScale
	}
	if maxScale <= 0 {
		maxScale = DefaultMaxScale
	}
	if factor > 0 && !math.IsInf(factor, 0) {
		v.Scale = Clamp(v.Scale*factor, minScale, maxScale)
	}
	return v.Normalize()
}

// GoTo centres the camera on (ra, dec), keeping the current scale.
func (v ViewState) GoTo(ra, dec float64) ViewState {
	if math.IsNaN(ra) || math.IsNaN(dec) || math.IsInf(ra, 0) || math.IsInf(dec, 0) {
		return v
	}
	v.YawDeg, v.PitchDeg = CenterRaDecToView(ra, dec)
	return v.Normalize()
}

// GoToScreen centres the camera on the sky position under a screen point.
// The view is unchanged when the point is off the globe.
func (v ViewState) GoToScreen(sx, sy, centerX, centerY, initialRadius float64) (ViewState, bool) {
	target, ok := ScreenToRaDec(sx, sy, centerX, centerY, v.Scale, initialRadius, v.YawDeg, v.PitchDeg)
	if !ok {
		return v, false
	}
	return v.GoTo(target.RA, target.Dec), true
}

// Project projects a sky position with this view.
func (v ViewState) Project(p RaDec) ProjectedPoint {
	return ProjectRaDec(p.RA, p.Dec, v.YawDeg, v.PitchDeg)
}
