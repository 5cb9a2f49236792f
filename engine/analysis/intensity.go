package analysis

import (
	"math"

	"github.com/montanaflynn/stats"

	"metaqc/domain/qaqc"
	"metaqc/ports"
)

// intensityAnalyzer computes eleven per-sample summary statistics: raw
// sum/mean/median, nonzero-only mean/median (zeros treated as missing),
// log2 of the nonzero-only sum/mean/median, and the TIC with its log2.
// Each metric is returned as its own named result with its own figure.
// Note the sums: with zeros treated as missing the nonzero-only sum equals
// the raw sum, so missing_dropped_sum_intensity aliases sum_intensity and
// tics, exactly as the reference computes them.
type intensityAnalyzer struct{}

func (a *intensityAnalyzer) Name() string { return "intensity_analysis" }

func (a *intensityAnalyzer) Run(ctx *Context) ([]qaqc.Result, error) {
	samples := ctx.SampleColumns
	metrics := map[string][]float64{}
	order := []string{
		"sum_intensity",
		"mean_intensity",
		"median_intensity",
		"missing_dropped_sum_intensity",
		"missing_dropped_mean_intensity",
		"missing_dropped_median_intensity",
		"log_missing_dropped_sum_intensity",
		"log_missing_dropped_mean_intensity",
		"log_missing_dropped_median_intensity",
		"log_tics",
		"tics",
	}
	for _, name := range order {
		metrics[name] = make([]float64, len(samples))
	}

	for i, sample := range samples {
		values := ctx.SampleVector(sample)
		sum, _ := stats.Sum(values)
		mean, _ := stats.Mean(values)
		med := median(values)

		nz := nonzero(values)
		nzMean, _ := stats.Mean(nz)
		nzMedian := median(nz)

		logNZ := make([]float64, len(nz))
		for j, v := range nz {
			logNZ[j] = math.Log2(v)
		}
		logSum, _ := stats.Sum(logNZ)
		logMean, _ := stats.Mean(logNZ)
		logMedian := median(logNZ)

		metrics["sum_intensity"][i] = sum
		metrics["mean_intensity"][i] = mean
		metrics["median_intensity"][i] = med
		metrics["missing_dropped_sum_intensity"][i] = sum
		metrics["missing_dropped_mean_intensity"][i] = nzMean
		metrics["missing_dropped_median_intensity"][i] = nzMedian
		metrics["log_missing_dropped_sum_intensity"][i] = logSum
		metrics["log_missing_dropped_mean_intensity"][i] = logMean
		metrics["log_missing_dropped_median_intensity"][i] = logMedian
		metrics["tics"][i] = sum
		metrics["log_tics"][i] = math.Log2(sum)
	}

	results := make([]qaqc.Result, 0, len(order))
	for _, name := range order {
		values := metrics[name]
		if err := ctx.Draw(ports.Figure{
			Kind:   ports.FigureBar,
			Data:   ports.FigureData{Labels: samples, Values: values},
			Title:  name,
			XLabel: name,
			YLabel: "sample",
		}); err != nil {
			return nil, err
		}
		scalars := make(map[string]float64, len(samples))
		for i, sample := range samples {
			scalars[sample] = values[i]
		}
		results = append(results, qaqc.Result{
			Type:    name,
			Config:  map[string]interface{}{},
			Scalars: scalars,
		})
	}
	return results, nil
}
