// Package feature defines the feature table: a numeric matrix of detected
// chemical features (rows, keyed by id_number with mz and rtime descriptors)
// against biological samples and metadata (columns).
package feature

import (
	"fmt"
	"math"
	"strings"

	"metaqc/domain/core"
)

// Required columns present in every persisted feature table.
const (
	ColID    = "id_number"
	ColMZ    = "mz"
	ColRTime = "rtime"
)

// Reserved monikers name the raw preprocessor outputs. Their persisted form
// is read-only; every derived table must be saved under a new moniker.
const (
	MonikerPreferred = "preferred"
	MonikerFull      = "full"
)

// CleanedSuffix marks a table whose legacy prefixed column names were
// normalized back to plain sample names.
const CleanedSuffix = "_cleaned"

// IsReservedMoniker reports whether a moniker may not be overwritten.
func IsReservedMoniker(moniker string) bool {
	return moniker == MonikerPreferred || moniker == MonikerFull
}

// Table is a column-major feature matrix. Numeric columns (samples, mz,
// rtime, id_number, numeric annotation fields) live in numeric; any column
// that failed to parse as numeric on load is kept verbatim in text.
type Table struct {
	Moniker string

	cols    []string
	numeric map[string][]float64
	text    map[string][]string
	nrows   int
}

// New creates an empty table under a moniker.
func New(moniker string) *Table {
	return &Table{
		Moniker: moniker,
		numeric: make(map[string][]float64),
		text:    make(map[string][]string),
	}
}

// NumRows returns the number of feature rows.
func (t *Table) NumRows() int { return t.nrows }

// Columns returns the ordered column names.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

// HasColumn reports whether a column exists.
func (t *Table) HasColumn(name string) bool {
	_, num := t.numeric[name]
	_, txt := t.text[name]
	return num || txt
}

// Column returns the live numeric slice for a column. Mutating the returned
// slice mutates the table; transforms rely on this.
func (t *Table) Column(name string) ([]float64, bool) {
	vals, ok := t.numeric[name]
	return vals, ok
}

// TextColumn returns the verbatim values of a non-numeric column.
func (t *Table) TextColumn(name string) ([]string, bool) {
	vals, ok := t.text[name]
	return vals, ok
}

// SetColumn stores a numeric column, appending it to the column order when
// new. The length must match the table row count unless the table is empty.
func (t *Table) SetColumn(name string, values []float64) error {
	if len(t.cols) > 0 && len(values) != t.nrows {
		return fmt.Errorf("%w: %s has %d values, table has %d rows",
			core.ErrShapeMismatch, name, len(values), t.nrows)
	}
	if !t.HasColumn(name) {
		t.cols = append(t.cols, name)
	}
	delete(t.text, name)
	t.numeric[name] = values
	t.nrows = len(values)
	return nil
}

// SetTextColumn stores a non-numeric column.
func (t *Table) SetTextColumn(name string, values []string) error {
	if len(t.cols) > 0 && len(values) != t.nrows {
		return fmt.Errorf("%w: %s has %d values, table has %d rows",
			core.ErrShapeMismatch, name, len(values), t.nrows)
	}
	if !t.HasColumn(name) {
		t.cols = append(t.cols, name)
	}
	delete(t.numeric, name)
	t.text[name] = values
	t.nrows = len(values)
	return nil
}

// DropColumns removes columns by name; unknown names are ignored.
func (t *Table) DropColumns(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := t.cols[:0]
	for _, c := range t.cols {
		if drop[c] {
			delete(t.numeric, c)
			delete(t.text, c)
			continue
		}
		kept = append(kept, c)
	}
	t.cols = kept
}

// RenameColumn moves a column to a new name, preserving its order position.
// An existing column under the new name is replaced.
func (t *Table) RenameColumn(old, new string) {
	if old == new || !t.HasColumn(old) {
		return
	}
	if t.HasColumn(new) {
		t.DropColumns(new)
	}
	for i, c := range t.cols {
		if c == old {
			t.cols[i] = new
			break
		}
	}
	if vals, ok := t.numeric[old]; ok {
		t.numeric[new] = vals
		delete(t.numeric, old)
	}
	if vals, ok := t.text[old]; ok {
		t.text[new] = vals
		delete(t.text, old)
	}
}

// KeepRows retains only the rows where keep is true. keep must be one bool
// per row.
func (t *Table) KeepRows(keep []bool) {
	if len(keep) != t.nrows {
		return
	}
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	for name, vals := range t.numeric {
		out := make([]float64, 0, n)
		for i, k := range keep {
			if k {
				out = append(out, vals[i])
			}
		}
		t.numeric[name] = out
	}
	for name, vals := range t.text {
		out := make([]string, 0, n)
		for i, k := range keep {
			if k {
				out = append(out, vals[i])
			}
		}
		t.text[name] = out
	}
	t.nrows = n
}

// IDs returns the id_number column as integers.
func (t *Table) IDs() []int {
	vals, ok := t.numeric[ColID]
	if !ok {
		return nil
	}
	out := make([]int, len(vals))
	for i, v := range vals {
		out[i] = int(v)
	}
	return out
}

// SampleColumns returns the columns that name samples in the registry. A
// column matches when its name, after stripping any "___"-joined prefix,
// is a registered sample name. Membership is derived on every call; it is
// never stored.
func (t *Table) SampleColumns(sampleNames map[string]bool) []string {
	var out []string
	for _, c := range t.cols {
		if sampleNames[stripPrefix(c)] {
			out = append(out, c)
		}
	}
	return out
}

// NonSampleColumns returns the metadata columns: everything that is not a
// sample column.
func (t *Table) NonSampleColumns(sampleNames map[string]bool) []string {
	var out []string
	for _, c := range t.cols {
		if !sampleNames[stripPrefix(c)] {
			out = append(out, c)
		}
	}
	return out
}

func stripPrefix(column string) string {
	parts := strings.Split(column, "___")
	return parts[len(parts)-1]
}

// CleanColumnNames renames every "___"-prefixed column to its plain sample
// name and reports whether any renaming happened.
func (t *Table) CleanColumnNames() bool {
	cleaned := false
	for _, c := range t.Columns() {
		if strings.Contains(c, "___") {
			t.RenameColumn(c, stripPrefix(c))
			cleaned = true
		}
	}
	return cleaned
}

// MakeNonnegative replaces every NaN or non-positive cell in the given
// columns with fill. Used before log transforms, which cannot accept
// non-positive input.
func (t *Table) MakeNonnegative(fill float64, columns []string) {
	for _, name := range columns {
		vals, ok := t.numeric[name]
		if !ok {
			continue
		}
		for i, v := range vals {
			if math.IsNaN(v) || v <= 0 {
				vals[i] = fill
			}
		}
	}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New(t.Moniker)
	out.cols = make([]string, len(t.cols))
	copy(out.cols, t.cols)
	out.nrows = t.nrows
	for name, vals := range t.numeric {
		cp := make([]float64, len(vals))
		copy(cp, vals)
		out.numeric[name] = cp
	}
	for name, vals := range t.text {
		cp := make([]string, len(vals))
		copy(cp, vals)
		out.text[name] = cp
	}
	return out
}

// Validate checks the required columns and id_number uniqueness.
func (t *Table) Validate() error {
	for _, required := range []string{ColID, ColMZ, ColRTime} {
		if _, ok := t.numeric[required]; !ok {
			return core.NewMissingColumnError(required)
		}
	}
	seen := make(map[int]bool, t.nrows)
	for _, id := range t.IDs() {
		if seen[id] {
			return fmt.Errorf("duplicate id_number %d", id)
		}
		seen[id] = true
	}
	return nil
}
