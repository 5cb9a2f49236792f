// Package resultcache stores QAQC analysis results for the lifetime of a
// feature table instance, keyed by table moniker and result type.
package resultcache

import (
	"metaqc/domain/qaqc"
)

type key struct {
	moniker    string
	resultType string
}

// Cache is an explicit memoization table with a compute-if-absent contract.
// Re-running an analysis overwrites the entry for its type; invalidation on
// table mutation is the owner's responsibility via InvalidateMoniker.
type Cache struct {
	entries map[key]qaqc.Result
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[key]qaqc.Result)}
}

// Get fetches a cached result.
func (c *Cache) Get(moniker, resultType string) (qaqc.Result, bool) {
	r, ok := c.entries[key{moniker, resultType}]
	return r, ok
}

// Put stores a result, replacing any previous entry of the same type.
func (c *Cache) Put(moniker string, result qaqc.Result) {
	c.entries[key{moniker, result.Type}] = result
}

// GetOrCompute returns the cached result for (moniker, resultType) or runs
// compute and stores everything it produced. The compute function may return
// several results (multi-metric analyzers); all are cached, and the one whose
// Type matches resultType is returned.
func (c *Cache) GetOrCompute(moniker, resultType string, compute func() ([]qaqc.Result, error)) (qaqc.Result, error) {
	if r, ok := c.Get(moniker, resultType); ok {
		return r, nil
	}
	results, err := compute()
	if err != nil {
		return qaqc.Result{}, err
	}
	for _, r := range results {
		c.Put(moniker, r)
	}
	r, _ := c.Get(moniker, resultType)
	return r, nil
}

// InvalidateMoniker removes every result cached under a moniker.
func (c *Cache) InvalidateMoniker(moniker string) {
	for k := range c.entries {
		if k.moniker == moniker {
			delete(c.entries, k)
		}
	}
}

// Len returns the number of cached results.
func (c *Cache) Len() int { return len(c.entries) }
