package analysis

import (
	"metaqc/domain/qaqc"
	"metaqc/ports"
)

// missingPercentilesAnalyzer profiles the missingness distribution: for each
// percentile 0-100 it counts the features whose across-sample nonzero count
// is at or below that percentile's sample-count threshold.
type missingPercentilesAnalyzer struct{}

func (a *missingPercentilesAnalyzer) Name() string { return "missing_feature_percentiles" }

func (a *missingPercentilesAnalyzer) Run(ctx *Context) ([]qaqc.Result, error) {
	numRows := ctx.Table.NumRows()
	presentCounts := make([]int, numRows)
	for _, sample := range ctx.SampleColumns {
		for i, v := range ctx.SampleVector(sample) {
			if v > 0 {
				presentCounts[i]++
			}
		}
	}

	table := make([]qaqc.PercentileRow, 0, 101)
	xy := make([][2]float64, 0, 101)
	for percentile := 0; percentile <= 100; percentile++ {
		threshold := float64(ctx.NumSamples()) * float64(percentile) / 100
		count := 0
		for _, c := range presentCounts {
			if float64(c) <= threshold {
				count++
			}
		}
		table = append(table, qaqc.PercentileRow{
			Percentile:      percentile,
			SampleThreshold: threshold,
			FeatureCount:    count,
		})
		xy = append(xy, [2]float64{float64(percentile), float64(count)})
	}

	if err := ctx.Draw(ports.Figure{
		Kind:           ports.FigureScatter,
		Data:           ports.FigureData{XY: xy},
		Title:          "Missing Feature Percentiles",
		XLabel:         "Percentile",
		YLabel:         "Num. Dropped Features",
		SkipAnnotation: true,
	}); err != nil {
		return nil, err
	}

	result := qaqc.Result{
		Type:   "missingfeaturepercentiles",
		Config: map[string]interface{}{},
		Table:  table,
	}
	return []qaqc.Result{result}, nil
}

// countPerSample counts, for every sample column, the features whose value
// satisfies the predicate.
func countPerSample(ctx *Context, predicate func(float64) bool) []float64 {
	counts := make([]float64, ctx.NumSamples())
	for i, sample := range ctx.SampleColumns {
		for _, v := range ctx.SampleVector(sample) {
			if predicate(v) {
				counts[i]++
			}
		}
	}
	return counts
}

// missingDistributionAnalyzer counts missing features per sample: those at
// or below the intensity cutoff.
type missingDistributionAnalyzer struct {
	IntensityCutoff float64
}

func (a *missingDistributionAnalyzer) Name() string { return "missing_feature_distribution" }

func (a *missingDistributionAnalyzer) Run(ctx *Context) ([]qaqc.Result, error) {
	counts := countPerSample(ctx, func(v float64) bool { return v <= a.IntensityCutoff })
	if err := ctx.Draw(ports.Figure{
		Kind:   ports.FigureBar,
		Data:   ports.FigureData{Labels: ctx.SampleColumns, Values: counts},
		Title:  "missing_feature_counts",
		XLabel: "Missing Feature Counts",
		YLabel: "Num. Missing Features",
	}); err != nil {
		return nil, err
	}
	scalars := make(map[string]float64, len(counts))
	for i, sample := range ctx.SampleColumns {
		scalars[sample] = counts[i]
	}
	result := qaqc.Result{
		Type:    "MissingFeatureDistribution",
		Config:  map[string]interface{}{"intensity_cutoff": a.IntensityCutoff},
		Scalars: scalars,
	}
	return []qaqc.Result{result}, nil
}

// missingZScoresAnalyzer expresses per-sample missing feature counts as
// z-scores against the cross-sample mean and standard deviation.
type missingZScoresAnalyzer struct {
	IntensityCutoff float64
}

func (a *missingZScoresAnalyzer) Name() string { return "missing_feature_z_scores" }

func (a *missingZScoresAnalyzer) Run(ctx *Context) ([]qaqc.Result, error) {
	counts := countPerSample(ctx, func(v float64) bool { return v <= a.IntensityCutoff })
	mean, std := populationStats(counts)
	scores := zScores(counts, mean, std)

	xy := make([][2]float64, len(scores))
	for i, z := range scores {
		xy[i] = [2]float64{float64(i), z}
	}
	if err := ctx.Draw(ports.Figure{
		Kind:   ports.FigureScatter,
		Data:   ports.FigureData{XY: xy},
		Title:  "missing_feature_z_scores",
		XLabel: "Sample",
		YLabel: "Num Missing Feature Z-Score",
	}); err != nil {
		return nil, err
	}
	scalars := make(map[string]float64, len(scores))
	for i, sample := range ctx.SampleColumns {
		scalars[sample] = scores[i]
	}
	result := qaqc.Result{
		Type:    "missing_feature_z_scores",
		Config:  map[string]interface{}{"intensity_cutoff": a.IntensityCutoff},
		Scalars: scalars,
	}
	return []qaqc.Result{result}, nil
}

// featureDistributionAnalyzer counts detected features per sample: those
// strictly above the intensity cutoff.
type featureDistributionAnalyzer struct {
	IntensityCutoff float64
}

func (a *featureDistributionAnalyzer) Name() string { return "feature_distribution" }

func (a *featureDistributionAnalyzer) Run(ctx *Context) ([]qaqc.Result, error) {
	counts := countPerSample(ctx, func(v float64) bool { return v > a.IntensityCutoff })
	if err := ctx.Draw(ports.Figure{
		Kind:   ports.FigureBar,
		Data:   ports.FigureData{Labels: ctx.SampleColumns, Values: counts},
		Title:  "Feature Counts",
		YLabel: "Num. Features",
	}); err != nil {
		return nil, err
	}
	scalars := make(map[string]float64, len(counts))
	for i, sample := range ctx.SampleColumns {
		scalars[sample] = counts[i]
	}
	result := qaqc.Result{
		Type:    "FeatureDistribution",
		Config:  map[string]interface{}{"intensity_cutoff": a.IntensityCutoff},
		Scalars: scalars,
	}
	return []qaqc.Result{result}, nil
}

// featureOutlierAnalyzer z-scores the per-sample detected feature counts.
type featureOutlierAnalyzer struct {
	IntensityCutoff float64
}

func (a *featureOutlierAnalyzer) Name() string { return "feature_outlier_detection" }

func (a *featureOutlierAnalyzer) Run(ctx *Context) ([]qaqc.Result, error) {
	counts := countPerSample(ctx, func(v float64) bool { return v > a.IntensityCutoff })
	mean, std := populationStats(counts)
	scores := zScores(counts, mean, std)

	xy := make([][2]float64, len(scores))
	for i, z := range scores {
		xy[i] = [2]float64{float64(i), z}
	}
	if err := ctx.Draw(ports.Figure{
		Kind:   ports.FigureScatter,
		Data:   ports.FigureData{XY: xy},
		Title:  "feature_count_z_scores",
		XLabel: "Sample",
		YLabel: "Num Feature Z-Score",
	}); err != nil {
		return nil, err
	}
	scalars := make(map[string]float64, len(scores))
	for i, sample := range ctx.SampleColumns {
		scalars[sample] = scores[i]
	}
	result := qaqc.Result{
		Type:    "feature_count_z_scores",
		Config:  map[string]interface{}{"intensity_cutoff": a.IntensityCutoff},
		Scalars: scalars,
	}
	return []qaqc.Result{result}, nil
}
