// Package stats provides distribution summaries for per-script counts.
package stats

import (
	"math"
	"sort"
)

// Percentile calculates the p-th percentile of a sorted slice.
// The slice must already be sorted in ascending order.
// Returns 0 if the slice is empty.
func Percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Summary describes the distribution of one count over a set of scripts.
type Summary struct {
	Count int     `json:"count" toon:"count"`
	Total float64 `json:"total" toon:"total"`
	Mean  float64 `json:"mean" toon:"mean"`
	P50   float64 `json:"p50" toon:"p50"`
	P90   float64 `json:"p90" toon:"p90"`
	Max   float64 `json:"max" toon:"max"`
}

// Summarize computes the summary of values without modifying them. The
// mean is rounded to two decimals.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var total float64
	for _, v := range sorted {
		total += v
	}
	return Summary{
		Count: len(sorted),
		Total: total,
		Mean:  math.Round(total/float64(len(sorted))*100) / 100,
		P50:   Percentile(sorted, 50),
		P90:   Percentile(sorted, 90),
		Max:   sorted[len(sorted)-1],
	}
}

// Ints converts counts for Summarize.
func Ints(counts []int) []float64 {
	out := make([]float64, len(counts))
	for i, c := range counts {
		out[i] = float64(c)
	}
	return out
}
