// Package engine wires the feature table to its spatial index, result
// cache, filter pipeline, and QAQC analyzer registry.
package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"metaqc/domain/core"
	"metaqc/domain/feature"
	"metaqc/domain/qaqc"
	"metaqc/engine/analysis"
	"metaqc/internal/resultcache"
	"metaqc/internal/spatial"
	"metaqc/ports"
)

// Engine owns one feature table and everything derived from it. It is
// single-owner mutable state: one logical caller at a time, no locking.
type Engine struct {
	table      *feature.Table
	experiment ports.ExperimentPort
	renderer   ports.RendererPort
	spatial    *spatial.Index
	results    *resultcache.Cache
	registry   *analysis.Registry

	indexedRows int
	indexedCols int
}

// New wraps a loaded table. Legacy "___"-prefixed column names are
// normalized immediately; when any were found (and the moniker is not
// already marked cleaned) the cleaned variant is persisted at once under a
// derived moniker.
func New(table *feature.Table, experiment ports.ExperimentPort, renderer ports.RendererPort) (*Engine, error) {
	e := &Engine{
		table:      table,
		experiment: experiment,
		renderer:   renderer,
		results:    resultcache.New(),
		registry:   analysis.NewRegistry(),
	}
	idx, err := spatial.New(e.snapshot, spatial.DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	e.spatial = idx
	e.indexedRows = table.NumRows()
	e.indexedCols = len(table.Columns())

	if !strings.Contains(table.Moniker, "cleaned") && table.CleanColumnNames() {
		if err := e.Save(SaveOptions{NewMoniker: table.Moniker + feature.CleanedSuffix}); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Load resolves a moniker through the experiment's table registry and loads
// the persisted table. The cleaned variant is preferred when one exists.
func Load(moniker string, experiment ports.ExperimentPort, renderer ports.RendererPort) (*Engine, error) {
	if _, ok := experiment.TablePath(moniker + feature.CleanedSuffix); ok {
		moniker += feature.CleanedSuffix
	}
	path, ok := experiment.TablePath(moniker)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrTableNotFound, moniker)
	}
	table, err := feature.LoadTSV(path, moniker)
	if err != nil {
		return nil, err
	}
	return New(table, experiment, renderer)
}

// Table exposes the current matrix.
func (e *Engine) Table() *feature.Table { return e.table }

// Moniker returns the table's current moniker.
func (e *Engine) Moniker() string { return e.table.Moniker }

// SampleColumns derives the sample column set against the experiment's
// registry. Recomputed on every call, never cached.
func (e *Engine) SampleColumns() []string {
	return e.table.SampleColumns(e.experiment.SampleNames())
}

// NonSampleColumns returns the metadata columns.
func (e *Engine) NonSampleColumns() []string {
	return e.table.NonSampleColumns(e.experiment.SampleNames())
}

// NumSamples returns the number of sample columns.
func (e *Engine) NumSamples() int { return len(e.SampleColumns()) }

// NumFeatures returns the number of feature rows.
func (e *Engine) NumFeatures() int { return e.table.NumRows() }

// LogTransformed reports whether this table's moniker is registered as
// log-transformed with the experiment.
func (e *Engine) LogTransformed() bool {
	return e.experiment.IsLogTransformed(e.table.Moniker)
}

func (e *Engine) snapshot() spatial.Snapshot {
	mz, _ := e.table.Column(feature.ColMZ)
	rt, _ := e.table.Column(feature.ColRTime)
	return spatial.Snapshot{IDs: e.table.IDs(), MZ: mz, RTime: rt}
}

// touch invalidates derived state after a mutation that changed the table
// shape: the spatial index caches and every cached result for this moniker.
func (e *Engine) touch() {
	rows := e.table.NumRows()
	cols := len(e.table.Columns())
	if rows != e.indexedRows || cols != e.indexedCols {
		e.spatial.Invalidate()
		e.indexedRows = rows
		e.indexedCols = cols
	}
	e.results.InvalidateMoniker(e.table.Moniker)
}

// SearchForFeature finds feature ids matching a mass and/or retention-time
// query. The mass tolerance is in ppm, the retention-time tolerance in
// absolute units. A tolerance of zero or less disables that axis; supplying
// both intersects the axis result sets.
func (e *Engine) SearchForFeature(queryMZ, queryRT, mzTolPPM, rtTol float64) []int {
	var mzMatches, rtMatches map[int]bool
	if mzTolPPM > 0 {
		mzMatches = e.spatial.QueryMass(queryMZ, mzTolPPM)
	}
	if rtTol > 0 {
		rtMatches = e.spatial.QueryRTime(queryRT, rtTol)
	}
	var matches map[int]bool
	switch {
	case mzMatches != nil && rtMatches != nil:
		matches = spatial.Intersect(mzMatches, rtMatches)
	case mzMatches != nil:
		matches = mzMatches
	case rtMatches != nil:
		matches = rtMatches
	default:
		return nil
	}
	out := make([]int, 0, len(matches))
	for _, id := range e.table.IDs() {
		if matches[id] {
			out = append(out, id)
		}
	}
	return out
}

// SaveOptions controls table persistence.
type SaveOptions struct {
	// NewMoniker registers the saved table under a new identity. Empty
	// means reuse the current moniker. Either way the reserved
	// preprocessor outputs cannot be overwritten.
	NewMoniker string
	// KeepInvariants skips the default invariant-dropping pass before
	// writing. There is rarely a reason to set it.
	KeepInvariants bool
}

// Save persists the table as TSV under the experiment root and registers
// the path. Persistence failures are returned, never swallowed.
func (e *Engine) Save(opts SaveOptions) error {
	moniker := opts.NewMoniker
	if moniker == "" {
		moniker = e.table.Moniker
	}
	if feature.IsReservedMoniker(moniker) {
		return fmt.Errorf("%w: %s", core.ErrReservedMoniker, moniker)
	}
	if !opts.KeepInvariants {
		e.DropInvariants(false)
	}

	dir := filepath.Join(e.experiment.Root(), "filtered_feature_tables")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.NewSaveError(moniker, err)
	}
	path := filepath.Join(dir, moniker+"_Feature_table.tsv")
	if err := e.table.SaveTSV(path); err != nil {
		return core.NewSaveError(moniker, err)
	}
	e.experiment.RegisterTable(moniker, path)
	if err := e.experiment.Save(); err != nil {
		return core.NewSaveError(moniker, err)
	}
	e.table.Moniker = moniker
	return nil
}

var unsafePathChars = regexp.MustCompile(`[/\\?%*:|"<>\x7F\x00-\x1F]`)

// FigurePath derives where a figure for this table should be saved.
func (e *Engine) FigurePath(title string) string {
	name := unsafePathChars.ReplaceAllString(strings.ReplaceAll(title, " ", "_"), "_")
	return filepath.Join(
		e.experiment.Root(),
		"QAQC_figs",
		e.table.Moniker,
		e.experiment.Name()+"_"+name+".png",
	)
}

// analysisContext builds the read view handed to analyzers.
func (e *Engine) analysisContext(params qaqc.FigureParams) *analysis.Context {
	return &analysis.Context{
		Table:            e.table,
		SampleColumns:    e.SampleColumns(),
		NonSampleColumns: e.NonSampleColumns(),
		LogTransformed:   e.LogTransformed(),
		Params:           params,
		Renderer:         e.renderer,
		FigurePath:       e.FigurePath,
	}
}

// batches resolves the experiment's batch partition restricted to columns
// actually present in this table.
func (e *Engine) batches(field string) map[string][]string {
	sampleSet := make(map[string]bool)
	for _, c := range e.SampleColumns() {
		sampleSet[c] = true
	}
	out := make(map[string][]string)
	for name, members := range e.experiment.Batches(field) {
		var kept []string
		for _, m := range members {
			if sampleSet[m] {
				kept = append(kept, m)
			}
		}
		out[name] = kept
	}
	return out
}

// IsConfigurationError reports whether a pipeline error is a fail-fast
// configuration problem rather than a data problem.
func IsConfigurationError(err error) bool {
	return core.IsConfigurationError(err) || errors.Is(err, core.ErrTableNotFound)
}
