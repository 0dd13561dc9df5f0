package units

import (
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid micron", Micron, true},
		{"valid angstrom", Angstrom, true},
		{"ascii um", "um", false},
		{"empty unit", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValid(tt.unit)
			if result != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestIsValidFrame(t *testing.T) {
	if !IsValidFrame(Observed) || !IsValidFrame(Rest) {
		t.Error("expected observe and rest to be valid")
	}
	if IsValidFrame("restframe") {
		t.Error("unexpected frame accepted")
	}
}

func TestGetValidUnitsString(t *testing.T) {
	if got := GetValidUnitsString(); got != "µm, Å" {
		t.Errorf("GetValidUnitsString() = %q", got)
	}
}

func TestParseUnit(t *testing.T) {
	for _, s := range []string{"um", "µm", "micron", " UM "} {
		if u, ok := ParseUnit(s); !ok || u != Micron {
			t.Errorf("ParseUnit(%q) = %q, %v", s, u, ok)
		}
	}
	for _, s := range []string{"A", "Å", "angstrom"} {
		if u, ok := ParseUnit(s); !ok || u != Angstrom {
			t.Errorf("ParseUnit(%q) = %q, %v", s, u, ok)
		}
	}
	if _, ok := ParseUnit("nm"); ok {
		t.Error("nm should not parse")
	}
}

func TestDisplayFactor(t *testing.T) {
	tests := []struct {
		name  string
		unit  string
		frame string
		z     float64
		want  float64
	}{
		{"micron observed", Micron, Observed, 2, 1},
		{"angstrom observed", Angstrom, Observed, 2, 1e4},
		{"micron rest", Micron, Rest, 3, 0.25},
		{"angstrom rest", Angstrom, Rest, 1, 5e3},
		{"nan redshift", Angstrom, Rest, math.NaN(), 1e4},
		{"infinite redshift", Micron, Rest, math.Inf(1), 1},
		{"zero zfactor", Micron, Rest, -1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DisplayFactor(tt.unit, tt.frame, tt.z)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("DisplayFactor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDisplayRoundTrip(t *testing.T) {
	values := []float64{0.6, 1.2345678, 3.95, 4.4, 5.0, 1e-3}
	for _, unit := range ValidUnits {
		for _, frame := range ValidFrames {
			for _, z := range []float64{0, 0.5, 1.7, 6.3, 12} {
				for _, v := range values {
					back := FromDisplayWavelength(ToDisplayWavelength(v, unit, frame, z), unit, frame, z)
					if math.Abs(back-v) > 1e-9*math.Abs(v) {
						t.Errorf("%s/%s z=%v: %v -> %v", unit, frame, z, v, back)
					}
				}
			}
		}
	}
}

func TestFormatWavelength(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		unit   string
		frame  string
		z      float64
		digits int
		want   string
	}{
		{"micron default digits", 4.05123, Micron, Observed, 0, 4, "4.0512 μm"},
		{"micron two digits", 4.05123, Micron, Observed, 0, 2, "4.05 μm"},
		{"micron rest", 4.0, Micron, Rest, 1, 3, "2.000 μm"},
		{"angstrom", 4.05123, Angstrom, Observed, 0, 4, "40512 Å"},
		{"angstrom rest", 1.31256, Angstrom, Rest, 1, 4, "6563 Å"},
		{"negative digits", 4.6, Micron, Observed, 0, -2, "5 μm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatWavelength(tt.value, tt.unit, tt.frame, tt.z, tt.digits)
			if got != tt.want {
				t.Errorf("FormatWavelength = %q, want %q", got, tt.want)
			}
		})
	}
}
