// Package wavelength locates wavelengths in a monotonically increasing
// wavelength array.
package wavelength

import (
	"math"
	"sort"
)

// Slice is a half-open column range [Start, End) of a wavelength array.
type Slice struct {
	Start int `json:"start_idx"`
	End   int `json:"end_idx"`
}

// Len returns the number of columns in the slice.
func (s Slice) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// Nearest is the result of NearestIndex.
type Nearest struct {
	Index      int     `json:"index"`
	Wavelength float64 `json:"wavelength"`
}

// SliceIndices returns the columns whose wavelength lies in
// [waveMin, waveMax]. Start is the first index with w >= waveMin and End the
// first index with w > waveMax, so both bounds are inclusive in wavelength.
// Reversed bounds are swapped. Results are clamped to [0, len(wave)] and
// End is never below Start.
func SliceIndices(wave []float64, waveMin, waveMax float64) Slice {
	if waveMin > waveMax {
		waveMin, waveMax = waveMax, waveMin
	}
	n := len(wave)
	start := sort.Search(n, func(i int) bool { return wave[i] >= waveMin })
	end := sort.Search(n, func(i int) bool { return wave[i] > waveMax })
	if end < start {
		end = start
	}
	return Slice{Start: start, End: end}
}

// NearestIndex returns the index whose wavelength is closest to target.
// When target is equidistant from two neighbours the lower index wins.
// ok is false for an empty array or a NaN target.
func NearestIndex(wave []float64, target float64) (Nearest, bool) {
	n := len(wave)
	if n == 0 || math.IsNaN(target) {
		return Nearest{}, false
	}

	i := sort.Search(n, func(k int) bool { return wave[k] >= target })
	switch {
	case i == 0:
		// below or at the first sample
	case i == n:
		i = n - 1
	default:
		if target-wave[i-1] <= wave[i]-target {
			i--
		}
	}
	return Nearest{Index: i, Wavelength: wave[i]}, true
}
