package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"metaqc/domain/qaqc"
	"metaqc/ports"
)

// Metric selects the correlation statistic.
type Metric string

const (
	MetricPearson  Metric = "pearson"
	MetricKendall  Metric = "kendall"
	MetricSpearman Metric = "spearman"
)

// Correlate computes the chosen statistic between two vectors. Spearman is
// Pearson over fractional ranks; Kendall is the tau rank coefficient.
func Correlate(x, y []float64, metric Metric) (float64, error) {
	switch metric {
	case MetricPearson:
		return stat.Correlation(x, y, nil), nil
	case MetricKendall:
		return stat.Kendall(x, y, nil), nil
	case MetricSpearman:
		return stat.Correlation(ranks(x), ranks(y), nil), nil
	default:
		return 0, fmt.Errorf("unknown correlation metric %q", metric)
	}
}

// correlationMatrix builds the symmetric sample-by-sample matrix, computing
// only the upper triangle and mirroring it.
func correlationMatrix(ctx *Context, metric Metric, logTransform bool) ([][]float64, error) {
	n := ctx.NumSamples()
	vectors := ctx.SampleVectors()
	if logTransform {
		transformed := make([][]float64, n)
		for i, vec := range vectors {
			transformed[i] = log2Plus1(vec)
		}
		vectors = transformed
	}
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			corr, err := Correlate(vectors[i], vectors[j], metric)
			if err != nil {
				return nil, err
			}
			matrix[i][j] = corr
			matrix[j][i] = corr
		}
	}
	return matrix, nil
}

// correlationAnalyzer builds a sample-by-sample correlation heatmap. The log
// transform is only meaningful for Pearson; rank statistics are invariant
// under monotonic transforms but the option is honored for all metrics,
// matching the reference.
type correlationAnalyzer struct {
	name         string
	metric       Metric
	logTransform bool
}

func (a *correlationAnalyzer) Name() string { return a.name }

func (a *correlationAnalyzer) resultType() string {
	if a.logTransform {
		return string(a.metric) + "_logtransformed_correlation"
	}
	return string(a.metric) + "_correlation"
}

func (a *correlationAnalyzer) Run(ctx *Context) ([]qaqc.Result, error) {
	matrix, err := correlationMatrix(ctx, a.metric, a.logTransform)
	if err != nil {
		return nil, err
	}
	title := a.resultType()
	if err := ctx.Draw(ports.Figure{
		Kind:  ports.FigureClustermap,
		Data:  ports.FigureData{Matrix: matrix},
		Title: title,
	}); err != nil {
		return nil, err
	}

	pairwise := make(map[string]map[string]float64, len(matrix))
	for i, s1 := range ctx.SampleColumns {
		row := make(map[string]float64, len(matrix))
		for j, s2 := range ctx.SampleColumns {
			row[s2] = matrix[i][j]
		}
		pairwise[s1] = row
	}
	result := qaqc.Result{
		Type: title,
		Config: map[string]interface{}{
			"Metric":         string(a.metric),
			"LogTransformed": a.logTransform,
		},
		Pairwise: pairwise,
	}
	return []qaqc.Result{result}, nil
}

// medianCorrelationAnalyzer z-scores each sample's median pairwise
// correlation against the distribution of all off-diagonal correlations in
// the experiment, not just the medians.
type medianCorrelationAnalyzer struct {
	metric Metric
}

func (a *medianCorrelationAnalyzer) Name() string { return "median_correlation_outlier_detection" }

func (a *medianCorrelationAnalyzer) Run(ctx *Context) ([]qaqc.Result, error) {
	matrix, err := correlationMatrix(ctx, a.metric, false)
	if err != nil {
		return nil, err
	}

	var all []float64
	medians := make([]float64, len(matrix))
	for i := range matrix {
		var offDiagonal []float64
		for j, v := range matrix[i] {
			if i != j {
				offDiagonal = append(offDiagonal, v)
			}
		}
		medians[i] = median(offDiagonal)
		all = append(all, offDiagonal...)
	}
	_, allStd := populationStats(all)
	allMedian := median(all)
	scores := zScores(medians, allMedian, allStd)

	medianXY := make([][2]float64, len(medians))
	scoreXY := make([][2]float64, len(scores))
	for i := range medians {
		medianXY[i] = [2]float64{float64(i), medians[i]}
		scoreXY[i] = [2]float64{float64(i), scores[i]}
	}
	if err := ctx.Draw(ports.Figure{
		Kind:   ports.FigureScatter,
		Data:   ports.FigureData{XY: medianXY},
		Title:  "Median Correlation Values for Samples",
		XLabel: "Sample",
		YLabel: "Median Correlation Value",
	}); err != nil {
		return nil, err
	}
	if err := ctx.Draw(ports.Figure{
		Kind:   ports.FigureScatter,
		Data:   ports.FigureData{XY: scoreXY},
		Title:  "Median Correlation Z-Scores for Samples",
		XLabel: "Sample",
		YLabel: "Median Correlation Z-Score",
	}); err != nil {
		return nil, err
	}

	scalars := make(map[string]float64, len(scores))
	for i, name := range ctx.SampleColumns {
		scalars[name] = scores[i]
	}
	result := qaqc.Result{
		Type:    "MedianCorrelationZScores",
		Config:  map[string]interface{}{"Metric": string(a.metric)},
		Scalars: scalars,
	}
	return []qaqc.Result{result}, nil
}
