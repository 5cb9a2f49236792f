package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"metaqc/domain/core"
)

func registryContext(t *testing.T) *Context {
	return newTestContext(t, map[string][]float64{
		"s1": {1, 10, 3, 7, 2},
		"s2": {2, 9, 4, 6, 3},
		"s3": {9, 1, 8, 2, 9},
		"s4": {8, 2, 7, 1, 8},
	}, []string{"s1", "s2", "s3", "s4"})
}

func TestRegistryNames(t *testing.T) {
	registry := NewRegistry()
	names := registry.Names()
	assert.Len(t, names, 17)

	// Every name resolves back through the lookup.
	for _, name := range names {
		_, ok := registry.Analyzer(name)
		assert.True(t, ok, "analyzer %s not resolvable", name)
	}
	_, ok := registry.Analyzer("nope")
	assert.False(t, ok)
}

func TestRunAll(t *testing.T) {
	registry := NewRegistry()
	report := registry.Run(registryContext(t), nil, true)

	assert.Empty(t, report.Failures, "all analyses should succeed on a healthy table")
	assert.NotEmpty(t, report.RunID)
	assert.Greater(t, report.Elapsed.Nanoseconds(), int64(0))

	types := make(map[string]bool)
	for _, r := range report.Results {
		types[r.Type] = true
	}
	// One multi-metric analyzer fans out into several results.
	for _, want := range []string{"pca", "tsne", "tics", "sum_intensity", "pearson_correlation", "MedianCorrelationZScores"} {
		assert.True(t, types[want], "missing result type %s", want)
	}
}

func TestRunSelected(t *testing.T) {
	registry := NewRegistry()
	report := registry.Run(registryContext(t), []string{"pca", "intensity_analysis"}, false)

	assert.Empty(t, report.Failures)
	assert.Len(t, report.Results, 12) // pca + 11 intensity metrics
}

func TestRunUnknownAnalysisIsFailureNotFatal(t *testing.T) {
	registry := NewRegistry()
	report := registry.Run(registryContext(t), []string{"pca", "doesnotexist"}, false)

	assert.Len(t, report.Results, 1)
	if assert.Len(t, report.Failures, 1) {
		assert.Equal(t, "doesnotexist", report.Failures[0].Analysis)
		assert.True(t, errors.Is(report.Failures[0].Err, core.ErrUnknownAnalysis))
	}
}

func TestRunFailureDoesNotAbortBatch(t *testing.T) {
	// Two samples: pca fails, intensity still runs.
	ctx := newTestContext(t, map[string][]float64{
		"s1": {1, 2, 3},
		"s2": {4, 5, 6},
	}, []string{"s1", "s2"})

	registry := NewRegistry()
	report := registry.Run(ctx, []string{"pca", "intensity_analysis"}, false)

	assert.Len(t, report.Results, 11)
	if assert.Len(t, report.Failures, 1) {
		assert.Equal(t, "pca", report.Failures[0].Analysis)
	}
}

func TestAnalyzerNameForResult(t *testing.T) {
	cases := map[string]string{
		"tics":                     "intensity_analysis",
		"log_missing_dropped_sum_intensity": "intensity_analysis",
		"pearson_logtransformed_correlation": "log_pearson",
		"MedianCorrelationZScores": "median_correlation_outlier_detection",
		"snr_distribution":         "properties_distribution",
		"pca":                      "pca",
	}
	for resultName, want := range cases {
		got, ok := AnalyzerNameForResult(resultName)
		assert.True(t, ok, resultName)
		assert.Equal(t, want, got, resultName)
	}
	_, ok := AnalyzerNameForResult("unmapped")
	assert.False(t, ok)
}
