package ports

import (
	"metaqc/domain/qaqc"
)

// ExperimentPort is the engine's view of the surrounding experiment: the
// sample registry, batch grouping, cosmetic maps, and the persisted table
// and result registries. The engine only consumes this; the implementation
// lives with the embedding application.
type ExperimentPort interface {
	// Name returns the experiment name used to prefix figure files.
	Name() string

	// Root returns the experiment directory under which figures and
	// filtered tables are written.
	Root() string

	// SampleNames returns the set of valid sample identifiers.
	SampleNames() map[string]bool

	// FilterSamples returns the acquisitions whose metadata match the filter.
	FilterSamples(filter qaqc.SampleFilter) []qaqc.Acquisition

	// Acquisitions lists every sample descriptor in acquisition order.
	Acquisitions() []qaqc.Acquisition

	// Batches partitions sample names into named groups by a metadata field.
	Batches(field string) map[string][]string

	// CosmeticMap assigns a color or marker to each distinct value of a
	// metadata field. Kind is "color" or "marker".
	CosmeticMap(field, kind string, seed int64) map[string]string

	// MarkLogTransformed records a moniker in the log-transformed registry.
	MarkLogTransformed(moniker string)

	// IsLogTransformed reports whether a moniker is registered as
	// log-transformed.
	IsLogTransformed(moniker string) bool

	// RegisterResult stores a QAQC result under a moniker, overwriting any
	// previous result of the same type.
	RegisterResult(moniker string, result qaqc.Result)

	// ResultFor fetches a previously registered result by moniker and type.
	ResultFor(moniker, resultType string) (qaqc.Result, bool)

	// TablePath resolves a moniker to its persisted table path.
	TablePath(moniker string) (string, bool)

	// RegisterTable records the persisted path for a moniker.
	RegisterTable(moniker, path string)

	// Save persists the experiment registry itself.
	Save() error
}
