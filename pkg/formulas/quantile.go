// Package formulas provides pure statistical helpers shared across risk modules.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Sorted returns an ascending copy of data. The input is never modified.
func Sorted(data []float64) []float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return sorted
}

// Quantile returns the p-quantile of ascending-sorted data using linear
// interpolation between order statistics:
//
//	h = (n-1)*p
//	Q = x[floor(h)] + (h-floor(h)) * (x[floor(h)+1] - x[floor(h)])
//
// p is clamped to [0, 1]. Returns NaN for empty input.
//
// gonum's stat.Quantile only offers the Empirical and LinInterp CDF
// conventions, neither of which interpolates between order statistics this way.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	h := float64(n-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}
	frac := h - lo
	if frac == 0 {
		return sorted[i]
	}
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}

// QuantileOf sorts a copy of data and returns its p-quantile.
func QuantileOf(data []float64, p float64) float64 {
	return Quantile(Sorted(data), p)
}

// TailMean returns the mean of all values >= threshold together with the
// number of values that qualified. The count is zero (and the mean NaN) when
// nothing reaches the threshold.
func TailMean(data []float64, threshold float64) (float64, int) {
	tail := make([]float64, 0, len(data)/10+1)
	for _, v := range data {
		if v >= threshold {
			tail = append(tail, v)
		}
	}
	if len(tail) == 0 {
		return math.NaN(), 0
	}
	return stat.Mean(tail, nil), len(tail)
}
