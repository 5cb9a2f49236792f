package experiment

import (
	"math/rand"
	"sort"
	"sync"

	"metaqc/domain/qaqc"
	"metaqc/ports"
)

// colorPalette and markerPalette are the cosmetic pools cycled through when
// assigning figure cosmetics to metadata values.
var colorPalette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

var markerPalette = []string{"o", "s", "^", "v", "D", "P", "X", "*", "<", ">"}

// Memory is an in-process ExperimentPort backed by maps. It keeps the
// acquisition registry, the per-moniker table paths, the log-transform
// registry, and the registered QAQC results. Save is delegated to an
// optional persist hook so tests and embedders can decide what durability
// means.
type Memory struct {
	mu sync.RWMutex

	name         string
	root         string
	acquisitions []qaqc.Acquisition

	tables       map[string]string
	logScaled    map[string]bool
	results      map[string]map[string]qaqc.Result
	persist      func(*Memory) error
}

var _ ports.ExperimentPort = (*Memory)(nil)

// Option configures a Memory experiment.
type Option func(*Memory)

// WithPersist installs the hook invoked by Save.
func WithPersist(fn func(*Memory) error) Option {
	return func(m *Memory) { m.persist = fn }
}

// New builds an experiment registry over the given acquisitions.
func New(name, root string, acquisitions []qaqc.Acquisition, opts ...Option) *Memory {
	m := &Memory{
		name:         name,
		root:         root,
		acquisitions: acquisitions,
		tables:       make(map[string]string),
		logScaled:    make(map[string]bool),
		results:      make(map[string]map[string]qaqc.Result),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Name() string { return m.name }
func (m *Memory) Root() string { return m.root }

func (m *Memory) SampleNames() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make(map[string]bool, len(m.acquisitions))
	for _, acq := range m.acquisitions {
		names[acq.Name] = true
	}
	return names
}

func (m *Memory) Acquisitions() []qaqc.Acquisition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]qaqc.Acquisition, len(m.acquisitions))
	copy(out, m.acquisitions)
	return out
}

func (m *Memory) FilterSamples(filter qaqc.SampleFilter) []qaqc.Acquisition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []qaqc.Acquisition
	for _, acq := range m.acquisitions {
		if filter.Matches(acq.MetadataTags) {
			matched = append(matched, acq)
		}
	}
	return matched
}

func (m *Memory) Batches(field string) map[string][]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	batches := make(map[string][]string)
	for _, acq := range m.acquisitions {
		value, ok := acq.MetadataTags[field]
		if !ok {
			continue
		}
		batches[value] = append(batches[value], acq.Name)
	}
	return batches
}

// CosmeticMap assigns one palette entry to each distinct value of the field.
// Values are sorted before assignment and the palette order is shuffled by
// the seed, so the same seed always yields the same cosmetics.
func (m *Memory) CosmeticMap(field, kind string, seed int64) map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var values []string
	for _, acq := range m.acquisitions {
		value, ok := acq.MetadataTags[field]
		if !ok || seen[value] {
			continue
		}
		seen[value] = true
		values = append(values, value)
	}
	sort.Strings(values)

	palette := markerPalette
	if kind == "color" {
		palette = colorPalette
	}
	shuffled := make([]string, len(palette))
	copy(shuffled, palette)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	assigned := make(map[string]string, len(values))
	for i, value := range values {
		assigned[value] = shuffled[i%len(shuffled)]
	}
	return assigned
}

func (m *Memory) MarkLogTransformed(moniker string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logScaled[moniker] = true
}

func (m *Memory) IsLogTransformed(moniker string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.logScaled[moniker]
}

func (m *Memory) RegisterResult(moniker string, result qaqc.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byType, ok := m.results[moniker]
	if !ok {
		byType = make(map[string]qaqc.Result)
		m.results[moniker] = byType
	}
	byType[result.Type] = result
}

func (m *Memory) ResultFor(moniker, resultType string) (qaqc.Result, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result, ok := m.results[moniker][resultType]
	return result, ok
}

func (m *Memory) TablePath(moniker string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path, ok := m.tables[moniker]
	return path, ok
}

func (m *Memory) RegisterTable(moniker, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[moniker] = path
}

// Save runs the persist hook if one is installed.
func (m *Memory) Save() error {
	if m.persist == nil {
		return nil
	}
	return m.persist(m)
}
