// Package units provides shared constants, validation and conversion for
// wavelength display units and reference frames.
//
// Wavelengths are stored in observed-frame microns everywhere in the
// application; these helpers convert to whatever the user chose to display.
package units

import "strings"

// Unit constants
const (
	Micron   = "µm"
	Angstrom = "Å"
)

// Frame constants
const (
	Observed = "observe"
	Rest     = "rest"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Micron, Angstrom}

// ValidFrames contains all valid frame values
var ValidFrames = []string{Observed, Rest}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// IsValidFrame checks if the given frame is in the list of valid frames
func IsValidFrame(frame string) bool {
	for _, validFrame := range ValidFrames {
		if frame == validFrame {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ParseUnit accepts the ASCII spellings used in query strings ("um",
// "micron", "A", "angstrom") as well as the display symbols. The second
// result is false for anything else.
func ParseUnit(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "µm", "μm", "um", "micron", "microns":
		return Micron, true
	case "å", "a", "aa", "angstrom", "angstroms":
		return Angstrom, true
	}
	return "", false
}
