package analysis

import (
	"math"

	"metaqc/domain/qaqc"
	"metaqc/ports"
)

// intensityDistributionAnalyzer renders histograms of the flattened nonzero
// sample intensities: raw and log2, or only the raw view when the table is
// already log-transformed. It produces figures only, no result records.
type intensityDistributionAnalyzer struct{}

func (a *intensityDistributionAnalyzer) Name() string { return "intensity_distribution" }

func (a *intensityDistributionAnalyzer) Run(ctx *Context) ([]qaqc.Result, error) {
	values := ctx.FlattenedSampleValues(true)
	if ctx.LogTransformed {
		err := ctx.Draw(ports.Figure{
			Kind:   ports.FigureHistogram,
			Data:   ports.FigureData{Values: values},
			Title:  "intensity_distribution_log",
			XLabel: "Intensity (Log-Transformed)",
			YLabel: "Counts",
		})
		return nil, err
	}
	if err := ctx.Draw(ports.Figure{
		Kind:   ports.FigureHistogram,
		Data:   ports.FigureData{Values: values},
		Title:  "intensity_distribution",
		XLabel: "Intensity",
		YLabel: "Counts",
	}); err != nil {
		return nil, err
	}
	logged := make([]float64, len(values))
	for i, v := range values {
		logged[i] = math.Log2(v)
	}
	err := ctx.Draw(ports.Figure{
		Kind:   ports.FigureHistogram,
		Data:   ports.FigureData{Values: logged},
		Title:  "intensity_distribution_log",
		XLabel: "Intensity (Log-Transformed)",
		YLabel: "Counts",
	})
	return nil, err
}

// propertiesDistributionAnalyzer renders histograms for every numeric
// non-sample metadata column (snr, cSelectivity, goodness of fit and
// similar feature descriptors), raw and log10 of the positive values.
// Identifier columns are skipped. Figures only, no result records.
type propertiesDistributionAnalyzer struct{}

func (a *propertiesDistributionAnalyzer) Name() string { return "properties_distribution" }

func (a *propertiesDistributionAnalyzer) Run(ctx *Context) ([]qaqc.Result, error) {
	skip := map[string]bool{"id_number": true, "parent_masstrack_id": true}
	for _, column := range ctx.NonSampleColumns {
		if skip[column] {
			continue
		}
		values, ok := ctx.Table.Column(column)
		if !ok {
			continue
		}
		if err := ctx.Draw(ports.Figure{
			Kind:   ports.FigureHistogram,
			Data:   ports.FigureData{Values: values},
			Title:  column + "_distribution",
			XLabel: column,
			YLabel: "Counts",
			Bins:   100,
		}); err != nil {
			return nil, err
		}
		var logged []float64
		for _, v := range values {
			if v > 0 {
				logged = append(logged, math.Log10(v))
			}
		}
		if err := ctx.Draw(ports.Figure{
			Kind:   ports.FigureHistogram,
			Data:   ports.FigureData{Values: logged},
			Title:  "log10_" + column + "_distribution",
			XLabel: column,
			YLabel: "Counts",
			Bins:   100,
		}); err != nil {
			return nil, err
		}
	}
	return nil, nil
}
