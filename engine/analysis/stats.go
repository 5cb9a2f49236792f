package analysis

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// log2Plus1 returns log2(x+1) applied elementwise.
func log2Plus1(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Log2(v + 1)
	}
	return out
}

// nonzero returns the strictly positive values.
func nonzero(values []float64) []float64 {
	var out []float64
	for _, v := range values {
		if v > 0 {
			out = append(out, v)
		}
	}
	return out
}

// zScores expresses each value against the given mean and standard
// deviation. A zero spread yields zero scores.
func zScores(values []float64, mean, std float64) []float64 {
	out := make([]float64, len(values))
	if std == 0 {
		return out
	}
	for i, v := range values {
		out[i] = (v - mean) / std
	}
	return out
}

// populationStats returns the mean and population standard deviation.
func populationStats(values []float64) (mean, std float64) {
	mean, _ = stats.Mean(values)
	std, _ = stats.StandardDeviationPopulation(values)
	return mean, std
}

// median returns the sample median, zero for empty input.
func median(values []float64) float64 {
	m, err := stats.Median(values)
	if err != nil {
		return 0
	}
	return m
}

// ranks converts values to fractional ranks, averaging ties. Grounded on the
// rank transform used for Spearman correlation.
func ranks(values []float64) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}
	type pair struct {
		value float64
		index int
	}
	pairs := make([]pair, n)
	for i, v := range values {
		pairs[i] = pair{value: v, index: i}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].value < pairs[j].value })

	out := make([]float64, n)
	i := 0
	for i < n {
		j := i + 1
		for j < n && pairs[j].value == pairs[i].value {
			j++
		}
		avgRank := float64(i+1) + float64(j-i-1)/2.0
		for k := i; k < j; k++ {
			out[pairs[k].index] = avgRank
		}
		i = j
	}
	return out
}
