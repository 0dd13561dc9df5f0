// Package percentile computes percentile stretch bounds over detector data.
//
// Percentiles use linear interpolation between the order statistics
// bracketing position p/100*(n-1), the same definition as NumPy's default
// "linear" method. An empty sample (including one where every value was
// excluded) yields EmptyValue.
package percentile

import (
	"math"
	"slices"
	"sort"
)

// EmptyValue is returned by FromSorted when there is nothing to rank.
// Bounds of 0/0 make the texture builder emit an all-black image.
const EmptyValue = 0.0

// SortFlatArray flattens data row by row, drops non-finite values (masked
// pixels) and, when excludeZero is set, values equal to zero, and returns
// the remainder in ascending order. The input is not modified.
func SortFlatArray(data [][]float64, excludeZero bool) []float64 {
	n := 0
	for _, row := range data {
		n += len(row)
	}
	out := make([]float64, 0, n)
	for _, row := range data {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if excludeZero && v == 0 {
				continue
			}
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}

// FromSorted returns the p-th percentile (p in [0, 100]) of an ascending
// array. p outside the range is clamped; a NaN p yields NaN. When
// excludeZero is set, zeros still present in sorted are skipped; the zero
// run is located by binary search so no copy is made.
func FromSorted(sorted []float64, p float64, excludeZero bool) float64 {
	if math.IsNaN(p) {
		return math.NaN()
	}
	if p < 0 {
		p = 0
	} else if p > 100 {
		p = 100
	}

	skipFrom, skipLen := len(sorted), 0
	if excludeZero {
		skipFrom, skipLen = zeroRun(sorted)
	}
	n := len(sorted) - skipLen
	if n <= 0 {
		return EmptyValue
	}

	pos := p / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	hi := lo + 1
	if hi > n-1 {
		hi = n - 1
	}
	frac := pos - float64(lo)
	vlo := valueAt(sorted, lo, skipFrom, skipLen)
	if frac == 0 || hi == lo {
		return vlo
	}
	return vlo + (valueAt(sorted, hi, skipFrom, skipLen)-vlo)*frac
}

// zeroRun returns the start index and length of the run of zeros in an
// ascending array.
func zeroRun(sorted []float64) (int, int) {
	start := sort.SearchFloat64s(sorted, 0)
	end := sort.Search(len(sorted), func(i int) bool { return sorted[i] > 0 })
	if end < start {
		end = start
	}
	return start, end - start
}

// RankOfValue is the inverse of FromSorted: it returns the percentile at
// which v would sit in sorted, interpolating between neighbours. Values
// below the minimum map to 0 and above the maximum to 100. An empty array
// yields 0.
func RankOfValue(sorted []float64, v float64, excludeZero bool) float64 {
	if math.IsNaN(v) {
		return math.NaN()
	}
	skipFrom, skipLen := len(sorted), 0
	if excludeZero {
		skipFrom, skipLen = zeroRun(sorted)
	}
	n := len(sorted) - skipLen
	if n <= 0 {
		return 0
	}
	if n == 1 {
		if v < valueAt(sorted, 0, skipFrom, skipLen) {
			return 0
		}
		return 100
	}

	// First logical index whose value is >= v.
	k := sort.Search(n, func(i int) bool { return valueAt(sorted, i, skipFrom, skipLen) >= v })
	if k == 0 {
		return 0
	}
	if k == n {
		return 100
	}
	lo := valueAt(sorted, k-1, skipFrom, skipLen)
	hi := valueAt(sorted, k, skipFrom, skipLen)
	pos := float64(k - 1)
	if hi > lo {
		pos += (v - lo) / (hi - lo)
	} else {
		pos = float64(k)
	}
	return pos / float64(n-1) * 100
}

func valueAt(sorted []float64, k, skipFrom, skipLen int) float64 {
	if k >= skipFrom {
		k += skipLen
	}
	return sorted[k]
}
