// Package stats holds the numeric helpers behind KPI aggregation. Every function skips NaN
// inputs, so a missing value never poisons a group.
package stats

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
)

// DropNaN returns the finite-or-infinite values of in, skipping NaN. The input is not modified.
func DropNaN(in []float64) []float64 {
	out := make([]float64, 0, len(in))
	for _, v := range in {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Count returns the number of non-NaN values.
func Count(values []float64) int {
	n := 0
	for _, v := range values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Sum adds the non-NaN values. An empty input sums to 0.
func Sum(values []float64) float64 {
	clean := DropNaN(values)
	if len(clean) == 0 {
		return 0
	}
	s, err := mstats.Sum(clean)
	if err != nil {
		return 0
	}
	return s
}

// Mean averages the non-NaN values. An empty input has no mean (NaN).
func Mean(values []float64) float64 {
	clean := DropNaN(values)
	if len(clean) == 0 {
		return math.NaN()
	}
	m, err := mstats.Mean(clean)
	if err != nil {
		return math.NaN()
	}
	return m
}

// Ratio divides two sums, NaN when the denominator is zero.
func Ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return math.NaN()
	}
	return numerator / denominator
}

// Quantile returns the q-quantile (0..1) of the non-NaN values using linear interpolation
// between closest ranks: position q*(n-1) in the sorted data. Empty input yields NaN.
func Quantile(values []float64, q float64) float64 {
	sorted := DropNaN(values)
	if len(sorted) == 0 {
		return math.NaN()
	}
	sort.Float64s(sorted)
	return quantileSorted(sorted, q)
}

// Quantiles computes several quantiles with a single sort.
func Quantiles(values []float64, qs ...float64) []float64 {
	sorted := DropNaN(values)
	out := make([]float64, len(qs))
	if len(sorted) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	sort.Float64s(sorted)
	for i, q := range qs {
		out[i] = quantileSorted(sorted, q)
	}
	return out
}

func quantileSorted(sorted []float64, q float64) float64 {
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}

	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	weight := pos - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

// LinearFit fits y = slope*x + intercept by least squares.
// ok is false when fewer than two distinct x values are given.
func LinearFit(xs, ys []float64) (slope, intercept float64, ok bool) {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0, 0, false
	}
	series := make(mstats.Series, len(xs))
	minX, maxX := math.Inf(1), math.Inf(-1)
	for i := range xs {
		series[i] = mstats.Coordinate{X: xs[i], Y: ys[i]}
		minX = math.Min(minX, xs[i])
		maxX = math.Max(maxX, xs[i])
	}
	if minX == maxX {
		return 0, 0, false
	}

	fitted, err := mstats.LinearRegression(series)
	if err != nil || len(fitted) < 2 {
		return 0, 0, false
	}

	// The regression returns fitted points at the input x values; two of them define the line.
	var a, b mstats.Coordinate
	a = fitted[0]
	for _, c := range fitted[1:] {
		if c.X != a.X {
			b = c
			break
		}
	}
	slope = (b.Y - a.Y) / (b.X - a.X)
	intercept = a.Y - slope*a.X
	return slope, intercept, true
}
