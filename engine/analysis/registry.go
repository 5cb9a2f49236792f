package analysis

import (
	"time"

	"metaqc/domain/core"
	"metaqc/domain/qaqc"
)

// Analyzer is one named QAQC analysis. Run reads the current table through
// the context and returns every result record it produced; multi-metric
// analyzers return several.
type Analyzer interface {
	Name() string
	Run(ctx *Context) ([]qaqc.Result, error)
}

// Registry holds the fixed analyzer set and the mapping from user-facing
// result names to the analyzer that produces them.
type Registry struct {
	analyzers []Analyzer
	byName    map[string]Analyzer
}

// NewRegistry builds the full analyzer set.
func NewRegistry() *Registry {
	analyzers := []Analyzer{
		&pcaAnalyzer{},
		&tsneAnalyzer{Perplexity: 30},
		&correlationAnalyzer{name: "pearson", metric: MetricPearson},
		&correlationAnalyzer{name: "kendall", metric: MetricKendall},
		&correlationAnalyzer{name: "spearman", metric: MetricSpearman},
		&correlationAnalyzer{name: "log_pearson", metric: MetricPearson, logTransform: true},
		&correlationAnalyzer{name: "log_kendall", metric: MetricKendall, logTransform: true},
		&correlationAnalyzer{name: "log_spearman", metric: MetricSpearman, logTransform: true},
		&medianCorrelationAnalyzer{metric: MetricPearson},
		&intensityAnalyzer{},
		&missingPercentilesAnalyzer{},
		&missingDistributionAnalyzer{},
		&missingZScoresAnalyzer{},
		&featureDistributionAnalyzer{},
		&featureOutlierAnalyzer{},
		&intensityDistributionAnalyzer{},
		&propertiesDistributionAnalyzer{},
	}
	byName := make(map[string]Analyzer, len(analyzers))
	for _, a := range analyzers {
		byName[a.Name()] = a
	}
	return &Registry{analyzers: analyzers, byName: byName}
}

// Analyzer looks up an analyzer by analysis name.
func (r *Registry) Analyzer(name string) (Analyzer, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Names lists the registered analysis names in execution order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.analyzers))
	for i, a := range r.analyzers {
		out[i] = a.Name()
	}
	return out
}

// resultKeys maps user-facing result names to the analysis that computes
// them. Many-to-one: the eleven intensity metrics all come from one
// intensity_analysis call, the log-transformed correlations from the
// corresponding correlation analyses, and the distribution aliases from
// properties_distribution.
var resultKeys = map[string]string{
	"pca":  "pca",
	"tsne": "tsne",
	"pearson_correlation":                   "pearson",
	"kendall_correlation":                   "kendall",
	"spearman_correlation":                  "spearman",
	"pearson_logtransformed_correlation":    "log_pearson",
	"kendall_logtransformed_correlation":    "log_kendall",
	"spearman_logtransformed_correlation":   "log_spearman",
	"missingfeaturepercentiles":             "missing_feature_percentiles",
	"MissingFeatureDistribution":            "missing_feature_distribution",
	"missing_feature_z_scores":              "missing_feature_z_scores",
	"FeatureDistribution":                   "feature_distribution",
	"sum_intensity":                         "intensity_analysis",
	"mean_intensity":                        "intensity_analysis",
	"median_intensity":                      "intensity_analysis",
	"missing_dropped_sum_intensity":         "intensity_analysis",
	"missing_dropped_mean_intensity":        "intensity_analysis",
	"missing_dropped_median_intensity":      "intensity_analysis",
	"log_missing_dropped_sum_intensity":     "intensity_analysis",
	"log_missing_dropped_mean_intensity":    "intensity_analysis",
	"log_missing_dropped_median_intensity":  "intensity_analysis",
	"tics":                                  "intensity_analysis",
	"log_tics":                              "intensity_analysis",
	"feature_count_z_scores":                "feature_outlier_detection",
	"intensity_distribution":                "intensity_distribution",
	"intensity_distribution_log":            "intensity_distribution",
	"snr_distribution":                      "properties_distribution",
	"cSelectivity_distribution":             "properties_distribution",
	"MedianCorrelationZScores":              "median_correlation_outlier_detection",
}

// AnalyzerNameForResult resolves a user-facing result name to its analysis.
func AnalyzerNameForResult(resultName string) (string, bool) {
	name, ok := resultKeys[resultName]
	return name, ok
}

// Failure records one analysis that did not complete.
type Failure struct {
	Analysis string
	Err      error
}

// Report is the outcome of one QAQC batch run. Failed analyses appear in
// Failures and are simply absent from Results; a partial run is never an
// error.
type Report struct {
	RunID    core.RunID
	Results  []qaqc.Result
	Failures []Failure
	Elapsed  time.Duration
}

// Run executes the requested analyses in registry order. Unknown names are
// reported as failures. Each failing analyzer gets one bounded retry before
// it is recorded as failed; nothing aborts the batch.
func (r *Registry) Run(ctx *Context, requested []string, runAll bool) Report {
	start := time.Now()
	report := Report{RunID: core.NewRunID()}

	want := make(map[string]bool, len(requested))
	for _, name := range requested {
		want[name] = true
	}
	for _, a := range r.analyzers {
		if !runAll && !want[a.Name()] {
			continue
		}
		delete(want, a.Name())
		results, err := a.Run(ctx)
		if err != nil {
			results, err = a.Run(ctx)
		}
		if err != nil {
			report.Failures = append(report.Failures, Failure{Analysis: a.Name(), Err: err})
			continue
		}
		report.Results = append(report.Results, results...)
	}
	if !runAll {
		for name := range want {
			report.Failures = append(report.Failures, Failure{
				Analysis: name,
				Err:      core.NewUnknownAnalysisError(name),
			})
		}
	}
	report.Elapsed = time.Since(start)
	return report
}
