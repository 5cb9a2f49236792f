package ports

import (
	"metaqc/domain/qaqc"
)

// FigureKind selects the plot family a renderer draws.
type FigureKind string

const (
	FigureScatter    FigureKind = "scatter"
	FigureBar        FigureKind = "bar"
	FigureHeatmap    FigureKind = "heatmap"
	FigureClustermap FigureKind = "clustermap"
	FigureHistogram  FigureKind = "histogram"
)

// FigureData carries the plottable payload. Which field is set depends on
// the figure kind: XY for scatters, Labels+Values for bars, Values for
// histograms, Matrix for heatmaps and clustermaps.
type FigureData struct {
	XY     [][2]float64
	Labels []string
	Values []float64
	Matrix [][]float64
}

// Figure is one render request.
type Figure struct {
	Kind           FigureKind
	Data           FigureData
	Title          string
	XLabel         string
	YLabel         string
	Params         qaqc.FigureParams
	SkipAnnotation bool
	Bins           int
	// Path is where the figure should be saved when Params.SaveFigs is set.
	Path string
}

// RendererPort is the draw contract consumed by the engine. Figure drawing
// itself is an external collaborator; the engine only issues requests.
type RendererPort interface {
	Draw(fig Figure) error
}
