// Package qaqc holds the value types exchanged between the feature table
// engine, its analyzers, and the embedding experiment.
package qaqc

// Result is the record produced by every analyzer metric. Exactly one of the
// payload fields is populated depending on the analysis shape: per-sample
// scalars, symmetric sample-by-sample values, 2-D sample coordinates, or the
// missingness percentile table.
type Result struct {
	Type     string                        `json:"type"`
	Config   map[string]interface{}        `json:"config,omitempty"`
	Scalars  map[string]float64            `json:"scalars,omitempty"`
	Pairwise map[string]map[string]float64 `json:"pairwise,omitempty"`
	Coords   map[string][2]float64         `json:"coords,omitempty"`
	Table    []PercentileRow               `json:"table,omitempty"`
}

// PercentileRow is one entry of the missing-feature percentile table.
type PercentileRow struct {
	Percentile      int     `json:"percentile"`
	SampleThreshold float64 `json:"sample_threshold"`
	FeatureCount    int     `json:"feature_count"`
}

// SampleFilter selects acquisitions by metadata field values.
type SampleFilter map[string]FieldMatch

// FieldMatch lists accepted and rejected values for one metadata field.
type FieldMatch struct {
	Includes []string `json:"includes,omitempty"`
	Excludes []string `json:"excludes,omitempty"`
}

// Matches reports whether the metadata tags satisfy every field condition.
func (f SampleFilter) Matches(tags map[string]string) bool {
	for field, match := range f {
		value, ok := tags[field]
		if !ok {
			return false
		}
		if len(match.Includes) > 0 && !containsValue(match.Includes, value) {
			return false
		}
		if containsValue(match.Excludes, value) {
			return false
		}
	}
	return true
}

func containsValue(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// FilterAction is what to do with a sample whose analysis value falls
// outside the configured interval.
type FilterAction string

const (
	ActionKeep FilterAction = "Keep"
	ActionDrop FilterAction = "Drop"
)

// Conditions bound the acceptable interval for a QAQC result value. Upper is
// the value keyed ">" in the reference configuration and Lower the value
// keyed "<"; a sample is flagged when its value is not strictly inside
// (Lower, Upper).
type Conditions struct {
	Upper *float64 `json:"upper,omitempty"`
	Lower *float64 `json:"lower,omitempty"`
}

// FieldSpec pairs an interval with the action taken on out-of-interval samples.
type FieldSpec struct {
	Conditions Conditions   `json:"conditions"`
	Action     FilterAction `json:"action"`
}

// FilterSpec maps user-facing QAQC result names to threshold specs.
type FilterSpec map[string]FieldSpec

// FigureParams carries the cosmetic configuration threaded into every
// renderer call.
type FigureParams struct {
	Interactive  bool
	SaveFigs     bool
	Colors       [][]string
	Markers      [][]string
	Text         [][]string
	ColorLegend  map[string]string
	MarkerLegend map[string]string
}

// Acquisition describes one sample as known to the experiment.
type Acquisition struct {
	Name         string
	MetadataTags map[string]string
}
