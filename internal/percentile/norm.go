package percentile

import (
	"fmt"
	"math"
)

// MinGap is the smallest allowed separation between pmin and pmax.
const MinGap = 5.0

// NormParams are the stretch settings of one image. VMin/VMax are derived
// from PMin/PMax against a specific sample and are stale once the sample
// changes; nil means "not yet resolved".
type NormParams struct {
	PMin float64  `json:"pmin"`
	PMax float64  `json:"pmax"`
	VMin *float64 `json:"vmin,omitempty"`
	VMax *float64 `json:"vmax,omitempty"`
}

// DefaultNormParams returns the 1–99 percentile stretch.
func DefaultNormParams() NormParams {
	return NormParams{PMin: 1, PMax: 99}
}

// Validate checks 0 <= pmin < pmax <= 100 with at least MinGap between them.
func (n NormParams) Validate() error {
	if math.IsNaN(n.PMin) || math.IsNaN(n.PMax) {
		return fmt.Errorf("percentiles must be numbers")
	}
	if n.PMin < 0 || n.PMax > 100 {
		return fmt.Errorf("percentiles must be within [0, 100], got pmin=%g pmax=%g", n.PMin, n.PMax)
	}
	if n.PMax-n.PMin < MinGap {
		return fmt.Errorf("pmax must exceed pmin by at least %g, got pmin=%g pmax=%g", MinGap, n.PMin, n.PMax)
	}
	return nil
}

// SetPMin moves the lower percentile, keeping it within [0, pmax-MinGap],
// and clears the resolved bounds.
func SetPMin(n NormParams, p float64) NormParams {
	if math.IsNaN(p) {
		return n
	}
	n.PMin = clamp(p, 0, n.PMax-MinGap)
	n.VMin, n.VMax = nil, nil
	return n
}

// SetPMax moves the upper percentile, keeping it within [pmin+MinGap, 100],
// and clears the resolved bounds.
func SetPMax(n NormParams, p float64) NormParams {
	if math.IsNaN(p) {
		return n
	}
	n.PMax = clamp(p, n.PMin+MinGap, 100)
	n.VMin, n.VMax = nil, nil
	return n
}

// SetRange moves both percentiles at once. The pair is ordered and fitted
// with FitRange, so the result does not depend on the previous range.
func SetRange(n NormParams, pmin, pmax float64) NormParams {
	if math.IsNaN(pmin) || math.IsNaN(pmax) {
		return n
	}
	if pmin > pmax {
		pmin, pmax = pmax, pmin
	}
	n.PMin, n.PMax = FitRange(pmin, pmax)
	n.VMin, n.VMax = nil, nil
	return n
}

// FitRange clamps pmin and pmax to [0, 100] and widens the pair to MinGap
// when it is narrower, raising pmax first and lowering pmin only when pmax
// is pinned at 100.
func FitRange(pmin, pmax float64) (float64, float64) {
	pmin = clamp(pmin, 0, 100)
	pmax = clamp(pmax, 0, 100)
	if pmax-pmin < MinGap {
		pmax = math.Min(pmin+MinGap, 100)
		pmin = pmax - MinGap
	}
	return pmin, pmax
}

// Resolve fills VMin and VMax from the sorted sample.
func Resolve(n NormParams, sorted []float64, excludeZero bool) NormParams {
	vmin := FromSorted(sorted, n.PMin, excludeZero)
	vmax := FromSorted(sorted, n.PMax, excludeZero)
	n.VMin, n.VMax = &vmin, &vmax
	return n
}

// Bounds returns the resolved bounds and whether both are set.
func (n NormParams) Bounds() (vmin, vmax float64, ok bool) {
	if n.VMin == nil || n.VMax == nil {
		return 0, 0, false
	}
	return *n.VMin, *n.VMax, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
