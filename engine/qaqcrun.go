package engine

import (
	"strings"

	"metaqc/domain/qaqc"
	"metaqc/engine/analysis"
	"metaqc/internal"
)

// QAQCParams selects and configures one QAQC batch run.
type QAQCParams struct {
	// Analyses names the analyses to execute; ignored when All is set.
	Analyses []string
	// All runs every registered analysis.
	All bool

	Interactive bool
	SaveFigs    bool

	// Cosmetic overlays: metadata fields driving per-sample colors,
	// markers, and text labels on figures.
	ColorBy  []string
	MarkerBy []string
	TextBy   []string
	Seed     int64
}

// RunQAQC executes the requested analyses against the current table. Every
// produced result is cached and registered with the experiment; failed
// analyses are reported, never fatal.
func (e *Engine) RunQAQC(params QAQCParams) analysis.Report {
	ctx := e.analysisContext(e.buildFigureParams(params))
	report := e.registry.Run(ctx, params.Analyses, params.All)
	for _, r := range report.Results {
		e.results.Put(e.table.Moniker, r)
		e.experiment.RegisterResult(e.table.Moniker, r)
	}
	for _, f := range report.Failures {
		internal.DefaultLogger.Warn("analysis %s failed: %v", f.Analysis, f.Err)
	}
	internal.DefaultLogger.Info("qaqc run %s: %d results, %d failures in %s",
		report.RunID, len(report.Results), len(report.Failures), report.Elapsed)
	return report
}

// Registry exposes the analyzer registry, mainly for listing analyses.
func (e *Engine) Registry() *analysis.Registry { return e.registry }

// buildFigureParams assembles the cosmetic configuration for figure calls:
// one color/marker/text list per requested metadata field, aligned with the
// sample columns, plus the legends.
func (e *Engine) buildFigureParams(params QAQCParams) qaqc.FigureParams {
	fig := qaqc.FigureParams{
		Interactive:  params.Interactive,
		SaveFigs:     params.SaveFigs,
		ColorLegend:  make(map[string]string),
		MarkerLegend: make(map[string]string),
	}

	colorMaps := make([]map[string]string, len(params.ColorBy))
	for i, field := range params.ColorBy {
		colorMaps[i] = e.experiment.CosmeticMap(field, "color", params.Seed)
	}
	markerMaps := make([]map[string]string, len(params.MarkerBy))
	for i, field := range params.MarkerBy {
		markerMaps[i] = e.experiment.CosmeticMap(field, "marker", params.Seed)
	}

	fig.Colors = make([][]string, len(params.ColorBy))
	fig.Markers = make([][]string, len(params.MarkerBy))
	fig.Text = make([][]string, len(params.TextBy))

	acquisitions := e.experiment.Acquisitions()
	for _, column := range e.SampleColumns() {
		name := column
		if idx := strings.LastIndex(name, "___"); idx >= 0 {
			name = name[idx+3:]
		}
		for _, acq := range acquisitions {
			if acq.Name != name {
				continue
			}
			for i, field := range params.ColorBy {
				value := acq.MetadataTags[field]
				color := colorMaps[i][value]
				fig.Colors[i] = append(fig.Colors[i], color)
				fig.ColorLegend[value] = color
			}
			for i, field := range params.MarkerBy {
				value := acq.MetadataTags[field]
				marker := markerMaps[i][value]
				fig.Markers[i] = append(fig.Markers[i], marker)
				fig.MarkerLegend[value] = marker
			}
			for i, field := range params.TextBy {
				fig.Text[i] = append(fig.Text[i], acq.MetadataTags[field])
			}
			break
		}
	}
	return fig
}
