package observer

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// gini computes the Gini coefficient over the non-zero values of balances
// using the standard Lorenz-curve formulation. Returns 0 when one or fewer
// agents hold the currency.
func gini(balances []float64) float64 {
	holders := make([]float64, 0, len(balances))
	for _, b := range balances {
		if b > 0 {
			holders = append(holders, b)
		}
	}
	if len(holders) <= 1 {
		return 0
	}

	sort.Float64s(holders)

	n := float64(len(holders))
	var cumulative, weighted float64
	for i, b := range holders {
		cumulative += b
		weighted += float64(i+1) * b
	}
	if cumulative == 0 {
		return 0
	}

	// G = (2 * sum(i * x_i) / (n * sum(x))) - (n + 1) / n
	g := (2*weighted)/(n*cumulative) - (n+1)/n
	if g < 0 {
		return 0
	}
	return g
}

// median returns the middle value of the samples (mean of the two middle
// values for even counts). Zero for an empty slice.
func median(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// mean returns the arithmetic mean, 0 for an empty slice.
func mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return stat.Mean(samples, nil)
}

// top10PctShare returns the share of total held by the top ceil(n/10)
// holders. Zero when nothing is held.
func top10PctShare(balances []float64) float64 {
	if len(balances) == 0 {
		return 0
	}
	sorted := append([]float64(nil), balances...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	var total float64
	for _, b := range sorted {
		total += b
	}
	if total <= 0 {
		return 0
	}

	topN := int(math.Ceil(float64(len(sorted)) / 10))
	var top float64
	for _, b := range sorted[:topN] {
		top += b
	}
	return top / total
}

// arbitrageIndex measures price dispersion for one currency as
// min(1, stddev(ln p)) over its positive prices. Zero when fewer than two
// positive prices exist or all prices are equal.
func arbitrageIndex(prices map[string]float64) float64 {
	logs := make([]float64, 0, len(prices))
	for _, p := range prices {
		if p > 0 {
			logs = append(logs, math.Log(p))
		}
	}
	if len(logs) < 2 {
		return 0
	}

	sd := stat.StdDev(logs, nil)
	if math.IsNaN(sd) {
		return 0
	}
	return math.Min(1, sd)
}

// safeDiv divides with the max(1, denominator) guard used throughout the
// observer so ratios never blow up on empty economies.
func safeDiv(num, den float64) float64 {
	return num / math.Max(1, den)
}

// noNaN replaces NaN with 0. The observer's contract is that NaN never
// leaks into a metrics record except eventCompletionRate.
func noNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
