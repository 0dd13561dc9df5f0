package units

import (
	"math"
	"strconv"
)

// DisplayFactor is the multiplier from an observed-frame micron value to the
// requested display unit and frame. A non-finite redshift is treated as 0,
// and a zero (1+z) as 1 so the factor is always finite for finite z.
// Unknown units and frames fall back to microns and the observed frame.
func DisplayFactor(unit, frame string, z float64) float64 {
	if math.IsNaN(z) || math.IsInf(z, 0) {
		z = 0
	}
	zFactor := 1 + z
	if zFactor == 0 {
		zFactor = 1
	}

	factor := 1.0
	if unit == Angstrom {
		factor = 1e4
	}
	if frame == Rest {
		factor /= zFactor
	}
	return factor
}

// ToDisplayWavelength converts an observed-frame micron value for display.
func ToDisplayWavelength(valueUm float64, unit, frame string, z float64) float64 {
	return valueUm * DisplayFactor(unit, frame, z)
}

// FromDisplayWavelength converts a displayed value back to observed-frame
// microns. It is the exact inverse of ToDisplayWavelength.
func FromDisplayWavelength(value float64, unit, frame string, z float64) float64 {
	return value / DisplayFactor(unit, frame, z)
}

// FormatWavelength renders an observed-frame micron value as a label:
// microns with digits decimals and a " μm" suffix, or Ångström rounded to
// an integer with a " Å" suffix. Negative digits are treated as 0.
func FormatWavelength(valueUm float64, unit, frame string, z float64, digits int) string {
	v := ToDisplayWavelength(valueUm, unit, frame, z)
	if digits < 0 {
		digits = 0
	}
	if unit == Angstrom {
		return strconv.FormatFloat(math.Round(v), 'f', 0, 64) + " Å"
	}
	return strconv.FormatFloat(v, 'f', digits, 64) + " μm"
}
