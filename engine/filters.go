package engine

import (
	"fmt"
	"math"

	"metaqc/domain/core"
	"metaqc/domain/qaqc"
	"metaqc/engine/analysis"
	"metaqc/internal"
)

var (
	posInf = math.Inf(1)
	negInf = math.Inf(-1)
)

// LogicMode combines per-batch drop flags across batches.
type LogicMode string

const (
	// LogicOr drops a feature flagged in any batch.
	LogicOr LogicMode = "or"
	// LogicAnd drops a feature only when flagged in every batch.
	LogicAnd LogicMode = "and"
)

// DropInvariants removes every feature row whose sample values are constant
// (a single distinct value, the all-zero case included) and every sample
// column that is constant across the remaining features. The zerosOnly flag
// is accepted for compatibility: the reference collapses both branches to
// the same drop decision, and that behavior is preserved here.
func (e *Engine) DropInvariants(zerosOnly bool) {
	_ = zerosOnly
	samples := e.SampleColumns()
	if len(samples) == 0 {
		return
	}

	keep := make([]bool, e.table.NumRows())
	for i := range keep {
		distinct := make(map[float64]bool, 2)
		for _, s := range samples {
			vals, _ := e.table.Column(s)
			distinct[vals[i]] = true
			if len(distinct) > 1 {
				break
			}
		}
		keep[i] = len(distinct) > 1
	}
	e.table.KeepRows(keep)

	var dropCols []string
	for _, s := range samples {
		vals, _ := e.table.Column(s)
		distinct := make(map[float64]bool, 2)
		for _, v := range vals {
			distinct[v] = true
			if len(distinct) > 1 {
				break
			}
		}
		if len(distinct) == 1 {
			dropCols = append(dropCols, s)
		}
	}
	if len(dropCols) > 0 {
		e.table.DropColumns(dropCols...)
	}
	e.touch()
}

// DropSampleByName removes one sample column, or with dropOthers every
// sample column except it.
func (e *Engine) DropSampleByName(name string, dropOthers bool) {
	if dropOthers {
		var others []string
		for _, s := range e.SampleColumns() {
			if s != name {
				others = append(others, s)
			}
		}
		e.table.DropColumns(others...)
	} else {
		e.table.DropColumns(name)
	}
	e.touch()
}

// DropSamplesByFilter removes the sample columns whose acquisitions match
// the metadata filter; dropOthers inverts the kept and dropped sets.
func (e *Engine) DropSamplesByFilter(filter qaqc.SampleFilter, dropOthers bool) {
	inTable := make(map[string]bool)
	for _, s := range e.SampleColumns() {
		inTable[s] = true
	}
	toDrop := make(map[string]bool)
	for _, acq := range e.experiment.FilterSamples(filter) {
		if inTable[acq.Name] {
			toDrop[acq.Name] = true
		}
	}
	var drop []string
	for _, s := range e.SampleColumns() {
		if toDrop[s] != dropOthers {
			drop = append(drop, s)
		}
	}
	e.table.DropColumns(drop...)
	e.touch()
}

// DropSamplesByField removes sample columns whose metadata field includes
// the given value.
func (e *Engine) DropSamplesByField(value, field string, dropOthers bool) {
	e.DropSamplesByFilter(qaqc.SampleFilter{field: {Includes: []string{value}}}, dropOthers)
}

// DropSamplesByQAQC evaluates threshold filters against QAQC results. For
// each named result the analysis is computed lazily through the registry when
// not already cached (figures suppressed), then every sample whose value
// falls outside the open interval gets the filter's action applied. Samples
// are collected into one drop set and removed once after all fields are
// evaluated.
func (e *Engine) DropSamplesByQAQC(filter qaqc.FilterSpec, dropOthers bool) error {
	toDrop := make(map[string]bool)
	for field, fieldSpec := range filter {
		result, err := e.resultForField(field)
		if err != nil {
			internal.DefaultLogger.Warn("no qaqc results for %s: %v", field, err)
			continue
		}
		upper := posInf
		if fieldSpec.Conditions.Upper != nil {
			upper = *fieldSpec.Conditions.Upper
		}
		lower := negInf
		if fieldSpec.Conditions.Lower != nil {
			lower = *fieldSpec.Conditions.Lower
		}
		for sample, value := range result.Scalars {
			if lower < value && value < upper {
				continue
			}
			if fieldSpec.Action == qaqc.ActionDrop {
				toDrop[sample] = true
			}
		}
	}

	var drop []string
	for _, s := range e.SampleColumns() {
		if toDrop[s] != dropOthers {
			drop = append(drop, s)
		}
	}
	if len(drop) > 0 {
		e.table.DropColumns(drop...)
		e.touch()
	}
	return nil
}

// resultForField fetches a cached result by user-facing name, computing the
// owning analysis on a miss.
func (e *Engine) resultForField(field string) (qaqc.Result, error) {
	analyzerName, ok := analysis.AnalyzerNameForResult(field)
	if !ok {
		return qaqc.Result{}, core.NewUnknownAnalysisError(field)
	}
	return e.results.GetOrCompute(e.table.Moniker, field, func() ([]qaqc.Result, error) {
		analyzer, ok := e.registry.Analyzer(analyzerName)
		if !ok {
			return nil, core.NewUnknownAnalysisError(analyzerName)
		}
		// figures suppressed for lazy threshold evaluation
		ctx := e.analysisContext(qaqc.FigureParams{})
		results, err := analyzer.Run(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			e.experiment.RegisterResult(e.table.Moniker, r)
		}
		return results, nil
	})
}

// BlankMaskOptions configures contaminant masking.
type BlankMaskOptions struct {
	BlankValue  string  // metadata value naming blank samples, default "Blank"
	SampleValue string  // metadata value naming real samples, default "Unknown"
	QueryField  string  // metadata field queried, default "Sample Type"
	Ratio       float64 // blank-to-sample intensity ratio, default 3
	ByBatch     string  // batch field; empty masks globally
	LogicMode   LogicMode
}

func (o *BlankMaskOptions) defaults() {
	if o.BlankValue == "" {
		o.BlankValue = "Blank"
	}
	if o.SampleValue == "" {
		o.SampleValue = "Unknown"
	}
	if o.QueryField == "" {
		o.QueryField = "Sample Type"
	}
	if o.Ratio == 0 {
		o.Ratio = 3
	}
	if o.LogicMode == "" {
		o.LogicMode = LogicOr
	}
}

// BlankMask drops features whose mean intensity in blank samples is not
// negligible against real samples: a feature is flagged when
// blankMean*ratio exceeds the sample mean (means over nonzero values), or
// when it has no nonzero sample values at all. A nonzero exact tie keeps
// the feature. Per batch the flags combine with the logic mode; or drops
// features flagged in any batch, and only in all.
func (e *Engine) BlankMask(opts BlankMaskOptions) error {
	opts.defaults()
	if opts.LogicMode != LogicOr && opts.LogicMode != LogicAnd {
		return fmt.Errorf("%w: %s", core.ErrUnknownLogicMode, opts.LogicMode)
	}

	inTable := make(map[string]bool)
	for _, s := range e.SampleColumns() {
		inTable[s] = true
	}
	blankNames := make(map[string]bool)
	for _, acq := range e.experiment.FilterSamples(qaqc.SampleFilter{opts.QueryField: {Includes: []string{opts.BlankValue}}}) {
		if inTable[acq.Name] {
			blankNames[acq.Name] = true
		}
	}
	sampleNames := make(map[string]bool)
	for _, acq := range e.experiment.FilterSamples(qaqc.SampleFilter{opts.QueryField: {Includes: []string{opts.SampleValue}}}) {
		if inTable[acq.Name] {
			sampleNames[acq.Name] = true
		}
	}

	flag := func(blanks, samples []string) []bool {
		blankMeans := e.nonzeroMeans(blanks)
		sampleMeans := e.nonzeroMeans(samples)
		flags := make([]bool, e.table.NumRows())
		for i := range flags {
			flags[i] = blankMeans[i]*opts.Ratio > sampleMeans[i] || sampleMeans[i] == 0
		}
		return flags
	}

	var masked []bool
	if opts.ByBatch != "" {
		for _, members := range e.batches(opts.ByBatch) {
			var blanks, samples []string
			for _, m := range members {
				if blankNames[m] {
					blanks = append(blanks, m)
				}
				if sampleNames[m] {
					samples = append(samples, m)
				}
			}
			masked = combineFlags(masked, flag(blanks, samples), opts.LogicMode)
		}
	} else {
		masked = flag(setToList(blankNames, e.SampleColumns()), setToList(sampleNames, e.SampleColumns()))
	}
	if masked == nil {
		return nil
	}

	keep := make([]bool, len(masked))
	for i, m := range masked {
		keep[i] = !m
	}
	e.table.KeepRows(keep)
	e.touch()
	return nil
}

// nonzeroMeans computes, per feature row, the mean of the nonzero values
// in the named columns; zero when no nonzero values exist.
func (e *Engine) nonzeroMeans(columns []string) []float64 {
	sums := make([]float64, e.table.NumRows())
	counts := make([]int, e.table.NumRows())
	for _, name := range columns {
		vals, ok := e.table.Column(name)
		if !ok {
			continue
		}
		for i, v := range vals {
			if v > 0 {
				sums[i] += v
				counts[i]++
			}
		}
	}
	out := make([]float64, len(sums))
	for i := range sums {
		if counts[i] > 0 {
			out[i] = sums[i] / float64(counts[i])
		}
	}
	return out
}

func combineFlags(acc, next []bool, mode LogicMode) []bool {
	if acc == nil {
		out := make([]bool, len(next))
		copy(out, next)
		return out
	}
	for i := range acc {
		if mode == LogicAnd {
			acc[i] = acc[i] && next[i]
		} else {
			acc[i] = acc[i] || next[i]
		}
	}
	return acc
}

func setToList(set map[string]bool, ordered []string) []string {
	var out []string
	for _, s := range ordered {
		if set[s] {
			out = append(out, s)
		}
	}
	return out
}

// DropMissingFeatures removes features with insufficient presence. Globally
// a feature is dropped when its percent inclusion (fraction of samples with
// a nonzero value) falls below dropPercentile. Per batch, or keeps features
// that reach the threshold in at least one batch while and requires every
// batch, matching the reference combination.
func (e *Engine) DropMissingFeatures(byBatch string, dropPercentile float64, logicMode LogicMode) error {
	if logicMode != LogicOr && logicMode != LogicAnd {
		return fmt.Errorf("%w: %s", core.ErrUnknownLogicMode, logicMode)
	}

	var drop []bool
	if byBatch != "" {
		var inclusions [][]float64
		for _, members := range e.batches(byBatch) {
			if len(members) == 0 {
				continue
			}
			inclusions = append(inclusions, e.percentInclusion(members))
		}
		drop = make([]bool, e.table.NumRows())
		for i := range drop {
			met := 0
			for _, inc := range inclusions {
				if inc[i] >= dropPercentile {
					met++
				}
			}
			if logicMode == LogicOr {
				drop[i] = met == 0
			} else {
				drop[i] = met < len(inclusions)
			}
		}
	} else {
		inclusion := e.percentInclusion(e.SampleColumns())
		drop = make([]bool, e.table.NumRows())
		for i := range drop {
			drop[i] = inclusion[i] < dropPercentile
		}
	}

	keep := make([]bool, len(drop))
	for i, d := range drop {
		keep[i] = !d
	}
	e.table.KeepRows(keep)
	e.touch()
	return nil
}

// percentInclusion computes, per feature, the fraction of the named columns
// holding a nonzero value.
func (e *Engine) percentInclusion(columns []string) []float64 {
	counts := make([]int, e.table.NumRows())
	for _, name := range columns {
		vals, ok := e.table.Column(name)
		if !ok {
			continue
		}
		for i, v := range vals {
			if v > 0 {
				counts[i]++
			}
		}
	}
	out := make([]float64, len(counts))
	if len(columns) == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = float64(c) / float64(len(columns))
	}
	return out
}
