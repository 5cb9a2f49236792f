// Package spatial provides the tolerance-keyed interval index used to look
// up features by mass and retention time.
package spatial

import (
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of distinct tolerance values memoized
// per axis. Tolerances beyond this evict least-recently-used entries instead
// of growing without bound.
const DefaultCacheSize = 32

// Snapshot is the table state an index is built from: parallel slices of
// feature ids, masses, and retention times.
type Snapshot struct {
	IDs   []int
	MZ    []float64
	RTime []float64
}

// SnapshotFunc supplies the current table state on demand.
type SnapshotFunc func() Snapshot

// Index memoizes one interval index per distinct tolerance value, with
// independent caches for the mass axis (ppm-relative intervals) and the
// retention-time axis (absolute intervals). An index built for tolerance T
// reflects the table state at construction time; Invalidate discards all
// cached indexes when the table shape changes.
type Index struct {
	snapshot SnapshotFunc
	mzCache  *lru.Cache[float64, *intervalIndex]
	rtCache  *lru.Cache[float64, *intervalIndex]
}

// New creates an index over the given snapshot supplier.
func New(snapshot SnapshotFunc, cacheSize int) (*Index, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	mzCache, err := lru.New[float64, *intervalIndex](cacheSize)
	if err != nil {
		return nil, err
	}
	rtCache, err := lru.New[float64, *intervalIndex](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Index{snapshot: snapshot, mzCache: mzCache, rtCache: rtCache}, nil
}

// QueryMass returns the ids of features whose mass interval
// [mz - mz*tol/1e6, mz + mz*tol/1e6] contains the query point.
func (x *Index) QueryMass(point, tolPPM float64) map[int]bool {
	idx, ok := x.mzCache.Get(tolPPM)
	if !ok {
		idx = x.buildMass(tolPPM)
		x.mzCache.Add(tolPPM, idx)
	}
	return idx.at(point)
}

// QueryRTime returns the ids of features whose retention-time interval
// [rt - tol, rt + tol] contains the query point.
func (x *Index) QueryRTime(point, tol float64) map[int]bool {
	idx, ok := x.rtCache.Get(tol)
	if !ok {
		idx = x.buildRTime(tol)
		x.rtCache.Add(tol, idx)
	}
	return idx.at(point)
}

// Invalidate drops every cached per-tolerance index. The engine calls this
// whenever the table's row or column count changes.
func (x *Index) Invalidate() {
	x.mzCache.Purge()
	x.rtCache.Purge()
}

func (x *Index) buildMass(tolPPM float64) *intervalIndex {
	snap := x.snapshot()
	idx := newIntervalIndex(len(snap.IDs))
	for i, id := range snap.IDs {
		mz := snap.MZ[i]
		half := mz / 1e6 * tolPPM
		idx.add(mz-half, mz+half, id)
	}
	idx.sort()
	return idx
}

func (x *Index) buildRTime(tol float64) *intervalIndex {
	snap := x.snapshot()
	idx := newIntervalIndex(len(snap.IDs))
	for i, id := range snap.IDs {
		rt := snap.RTime[i]
		idx.add(rt-tol, rt+tol, id)
	}
	idx.sort()
	return idx
}

// intervalIndex holds closed intervals sorted by lower bound. A containment
// query scans the prefix of intervals whose lower bound does not exceed the
// point and keeps those whose upper bound reaches it.
type intervalIndex struct {
	intervals []interval
}

type interval struct {
	low, high float64
	id        int
}

func newIntervalIndex(capacity int) *intervalIndex {
	return &intervalIndex{intervals: make([]interval, 0, capacity)}
}

func (x *intervalIndex) add(low, high float64, id int) {
	x.intervals = append(x.intervals, interval{low: low, high: high, id: id})
}

func (x *intervalIndex) sort() {
	sort.Slice(x.intervals, func(i, j int) bool {
		return x.intervals[i].low < x.intervals[j].low
	})
}

func (x *intervalIndex) at(point float64) map[int]bool {
	matches := make(map[int]bool)
	cut := sort.Search(len(x.intervals), func(i int) bool {
		return x.intervals[i].low > point
	})
	for _, iv := range x.intervals[:cut] {
		if iv.high >= point {
			matches[iv.id] = true
		}
	}
	return matches
}

// Intersect returns the ids present in both sets.
func Intersect(a, b map[int]bool) map[int]bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make(map[int]bool)
	for id := range a {
		if b[id] {
			out[id] = true
		}
	}
	return out
}
