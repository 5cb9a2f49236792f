// Package analysis implements the QAQC analyzer registry: a fixed set of
// analyses over the current feature table, each producing result records and
// figure render requests, executed with per-analysis failure tolerance.
package analysis

import (
	"metaqc/domain/feature"
	"metaqc/domain/qaqc"
	"metaqc/ports"
)

// Context is the read view an analyzer works against: the current table
// snapshot, its derived sample partition, and the figure plumbing.
type Context struct {
	Table            *feature.Table
	SampleColumns    []string
	NonSampleColumns []string
	LogTransformed   bool
	Params           qaqc.FigureParams
	Renderer         ports.RendererPort

	// FigurePath derives the save path for a figure title.
	FigurePath func(title string) string
}

// Draw issues one render request. Requests are suppressed entirely when the
// figure params ask for neither display nor persistence, mirroring the
// renderer contract.
func (c *Context) Draw(fig ports.Figure) error {
	if !c.Params.Interactive && !c.Params.SaveFigs {
		return nil
	}
	fig.Params = c.Params
	if c.FigurePath != nil {
		fig.Path = c.FigurePath(fig.Title)
	}
	if c.Renderer == nil {
		return nil
	}
	return c.Renderer.Draw(fig)
}

// NumSamples returns the sample column count.
func (c *Context) NumSamples() int { return len(c.SampleColumns) }

// SampleVector returns the live intensity vector for one sample column.
func (c *Context) SampleVector(name string) []float64 {
	vals, _ := c.Table.Column(name)
	return vals
}

// SampleVectors returns one intensity vector per sample column, in sample
// column order.
func (c *Context) SampleVectors() [][]float64 {
	out := make([][]float64, len(c.SampleColumns))
	for i, name := range c.SampleColumns {
		out[i] = c.SampleVector(name)
	}
	return out
}

// FlattenedSampleValues returns every cell of the sample columns, optionally
// skipping zeros.
func (c *Context) FlattenedSampleValues(skipZero bool) []float64 {
	var out []float64
	for _, name := range c.SampleColumns {
		for _, v := range c.SampleVector(name) {
			if skipZero && v == 0 {
				continue
			}
			out = append(out, v)
		}
	}
	return out
}
