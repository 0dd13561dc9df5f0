// Package projection maps sky coordinates onto the rotatable orthographic
// globe and back.
//
// Conventions:
//   - All angles crossing the package boundary are in degrees.
//   - The view is described by yaw (rotation of RA) and pitch (elevation).
//     The sky point at screen centre is (RA, Dec) = (yaw, pitch).
//   - The globe is seen from inside the celestial sphere, so RA increases
//     to the left of the screen (east-left, as on a sky chart).
//   - Projected x/y are in units of the globe radius; x right, y up.
package projection

import "math"

// RaDec is a sky position in degrees.
type RaDec struct {
	RA  float64 `json:"ra"`
	Dec float64 `json:"dec"`
}

// ProjectedPoint is the orthographic projection of a single sky position.
// Visible is false on the far hemisphere; such points must not be drawn or
// joined to visible neighbours.
type ProjectedPoint struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Visible bool    `json:"visible"`
}

// ScreenPoint is a position in screen pixels (y down).
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ProjectRaDec projects (raDeg, decDeg) for a camera oriented by yawDeg and
// pitchDeg. Non-finite inputs produce non-finite coordinates.
func ProjectRaDec(raDeg, decDeg, yawDeg, pitchDeg float64) ProjectedPoint {
	lambda := degToRad(raDeg - yawDeg)
	dec := degToRad(decDeg)
	phi := degToRad(pitchDeg)

	// Unit vector after the yaw rotation: depth toward the viewer,
	// horizontal toward increasing RA, vertical toward the north pole.
	cosDec := math.Cos(dec)
	depth := cosDec * math.Cos(lambda)
	horiz := cosDec * math.Sin(lambda)
	vert := math.Sin(dec)

	// Pitch tilts the elevation about the horizontal axis.
	sinPhi, cosPhi := math.Sincos(phi)
	d := depth*cosPhi + vert*sinPhi
	v := -depth*sinPhi + vert*cosPhi

	return ProjectedPoint{
		X:       -horiz,
		Y:       v,
		Visible: d >= 0,
	}
}

// ToScreen places a projected point on screen for a globe centred at
// (centerX, centerY) with the given zoom scale and base radius in pixels.
func ToScreen(p ProjectedPoint, centerX, centerY, scale, initialRadius float64) ScreenPoint {
	r := initialRadius * scale
	return ScreenPoint{
		X: centerX + p.X*r,
		Y: centerY - p.Y*r,
	}
}

// ScreenToRaDec inverts ToScreen and ProjectRaDec for a point on the visible
// disc. ok is false when the screen point falls outside the globe or the
// radius is degenerate.
func ScreenToRaDec(sx, sy, centerX, centerY, scale, initialRadius, yawDeg, pitchDeg float64) (RaDec, bool) {
	r := initialRadius * scale
	if !(r > 0) {
		return RaDec{}, false
	}
	x := (sx - centerX) / r
	y := (centerY - sy) / r
	rr := x*x + y*y
	if !(rr <= 1) {
		return RaDec{}, false
	}

	d := math.Sqrt(1 - rr)
	horiz := -x
	v := y

	sinPhi, cosPhi := math.Sincos(degToRad(pitchDeg))
	depth := d*cosPhi - v*sinPhi
	vert := d*sinPhi + v*cosPhi

	dec := math.Asin(Clamp(vert, -1, 1))
	lambda := math.Atan2(horiz, depth)

	return RaDec{
		RA:  WrapDeg360(radToDeg(lambda) + yawDeg),
		Dec: radToDeg(dec),
	}, true
}

// ViewToCenterRaDec returns the sky position at screen centre for a view.
func ViewToCenterRaDec(yawDeg, pitchDeg float64) RaDec {
	return RaDec{
		RA:  WrapDeg360(yawDeg),
		Dec: Clamp(pitchDeg, -90, 90),
	}
}

// CenterRaDecToView returns the yaw/pitch that puts (ra, dec) at screen
// centre. It is the inverse of ViewToCenterRaDec.
func CenterRaDecToView(ra, dec float64) (yawDeg, pitchDeg float64) {
	return WrapDeg360(ra), Clamp(dec, -90, 90)
}

// WrapDeg360 wraps deg into [0, 360).
func WrapDeg360(deg float64) float64 {
	w := math.Mod(deg, 360)
	if w < 0 {
		w += 360
	}
	// -tiny + 360 rounds to 360 in float64.
	if w >= 360 {
		w = 0
	}
	return w
}

// Clamp limits v to [lo, hi]. NaN passes through.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
