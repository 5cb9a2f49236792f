package engine

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"metaqc/domain/core"
)

// StatMode names the central statistic used by interpolation and TIC
// normalization.
type StatMode string

const (
	StatMedian StatMode = "median"
	StatMean   StatMode = "mean"
	StatMin    StatMode = "min"
	StatMax    StatMode = "max"
)

func statFunc(mode StatMode) (func(stats.Float64Data) (float64, error), error) {
	switch mode {
	case StatMedian:
		return stats.Median, nil
	case StatMean:
		return stats.Mean, nil
	case StatMin:
		return stats.Min, nil
	case StatMax:
		return stats.Max, nil
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownStatMode, mode)
	}
}

// LogMode names the logarithm applied by LogTransform.
type LogMode string

const (
	Log2  LogMode = "log2"
	Log10 LogMode = "log10"
	LogE  LogMode = "ln"
)

func logFunc(mode LogMode) (func(float64) float64, error) {
	switch mode {
	case Log2:
		return math.Log2, nil
	case Log10:
		return math.Log10, nil
	case LogE:
		return math.Log, nil
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownLogMode, mode)
	}
}

// InterpolateMissingFeatures imputes a floor for missing observations. Per
// feature (per batch when byBatch is set) the chosen statistic of the
// nonzero sample values is scaled by ratio, and every sample value is
// raised to at least that floor: max(original, statistic*ratio). Values are
// only ever raised, never lowered. Features with no nonzero values are left
// untouched.
func (e *Engine) InterpolateMissingFeatures(ratio float64, byBatch string, method StatMode) error {
	stat, err := statFunc(method)
	if err != nil {
		return err
	}
	apply := func(members []string) {
		if len(members) == 0 {
			return
		}
		floors := make([]float64, e.table.NumRows())
		for i := 0; i < e.table.NumRows(); i++ {
			var values []float64
			for _, m := range members {
				vals, _ := e.table.Column(m)
				if vals[i] > 0 {
					values = append(values, vals[i])
				}
			}
			if len(values) == 0 {
				continue
			}
			v, err := stat(values)
			if err != nil {
				continue
			}
			floors[i] = v * ratio
		}
		for _, m := range members {
			vals, _ := e.table.Column(m)
			for i, v := range vals {
				if floors[i] > v {
					vals[i] = floors[i]
				}
			}
		}
	}

	if byBatch != "" {
		for _, members := range e.batches(byBatch) {
			apply(members)
		}
	} else {
		apply(e.SampleColumns())
	}
	e.touch()
	return nil
}

// TICNormalize equalizes sample totals. Per sample the total ion current is
// summed over the features whose percent inclusion exceeds the percentile
// threshold; each sample is then scaled by centralStatistic(qualifying
// TICs)/ownTIC. When batched this runs within each batch first, then a
// second multiplicative correction equalizes the per-batch aggregate TICs
// to their cross-batch central statistic.
func (e *Engine) TICNormalize(percentile float64, byBatch string, mode StatMode) error {
	stat, err := statFunc(mode)
	if err != nil {
		return err
	}
	if len(e.SampleColumns()) == 0 {
		return core.ErrNoSamples
	}

	normalize := func(members []string) (aggregate float64, err error) {
		if len(members) == 0 {
			return 0, nil
		}
		inclusion := e.percentInclusion(members)
		tics := make([]float64, len(members))
		for s, m := range members {
			vals, _ := e.table.Column(m)
			for i, v := range vals {
				if inclusion[i] > percentile {
					tics[s] += v
				}
			}
		}
		central, err := stat(tics)
		if err != nil {
			return 0, err
		}
		for s, m := range members {
			factor := central / tics[s]
			vals, _ := e.table.Column(m)
			for i := range vals {
				vals[i] *= factor
			}
		}
		return central, nil
	}

	if byBatch != "" {
		batches := e.batches(byBatch)
		aggregates := make(map[string]float64, len(batches))
		var aggregateList []float64
		for name, members := range batches {
			agg, err := normalize(members)
			if err != nil {
				return err
			}
			aggregates[name] = agg
			aggregateList = append(aggregateList, agg)
		}
		central, err := stat(aggregateList)
		if err != nil {
			return err
		}
		for name, members := range batches {
			correction := central / aggregates[name]
			for _, m := range members {
				vals, _ := e.table.Column(m)
				for i := range vals {
					vals[i] *= correction
				}
			}
		}
	} else {
		if _, err := normalize(e.SampleColumns()); err != nil {
			return err
		}
	}
	e.touch()
	return nil
}

// LogTransform applies log(x+1) to every sample value, re-floors the table
// to strictly positive values, and registers newMoniker in the experiment's
// log-transformed registry so downstream analyses avoid a second transform.
// The guard is advisory: the current table is not itself checked for a
// previous transform.
func (e *Engine) LogTransform(newMoniker string, mode LogMode) error {
	logFn, err := logFunc(mode)
	if err != nil {
		return err
	}
	if len(e.SampleColumns()) == 0 {
		return core.ErrNoSamples
	}
	e.experiment.MarkLogTransformed(newMoniker)
	if err := e.experiment.Save(); err != nil {
		return core.NewSaveError(newMoniker, err)
	}

	samples := e.SampleColumns()
	for _, name := range samples {
		vals, _ := e.table.Column(name)
		for i, v := range vals {
			vals[i] = logFn(v + 1)
		}
	}
	e.table.MakeNonnegative(1, samples)
	e.touch()
	return nil
}
