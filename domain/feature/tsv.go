package feature

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ReadTSV loads a persisted feature table: tab-separated, header row first,
// no row index. Columns where every non-empty cell parses as a float become
// numeric columns; anything else is kept as text. Empty cells in numeric
// columns load as zero, matching the reference treatment of missing
// intensities.
func ReadTSV(r io.Reader, moniker string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading feature table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("feature table is empty")
	}

	header := records[0]
	rows := records[1:]

	t := New(moniker)
	for col, name := range header {
		raw := make([]string, len(rows))
		for i, row := range rows {
			if col < len(row) {
				raw[i] = row[col]
			}
		}
		if nums, ok := parseNumericColumn(raw); ok {
			if err := t.SetColumn(name, nums); err != nil {
				return nil, err
			}
		} else {
			if err := t.SetTextColumn(name, raw); err != nil {
				return nil, err
			}
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadTSV reads a feature table from a file path.
func LoadTSV(path, moniker string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTSV(f, moniker)
}

// WriteTSV persists the table as tab-separated values without a row index.
func (t *Table) WriteTSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	writer.Comma = '\t'

	if err := writer.Write(t.cols); err != nil {
		return err
	}
	record := make([]string, len(t.cols))
	for i := 0; i < t.nrows; i++ {
		for j, name := range t.cols {
			if vals, ok := t.numeric[name]; ok {
				record[j] = formatCell(vals[i])
			} else {
				record[j] = t.text[name][i]
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveTSV writes the table to a file path.
func (t *Table) SaveTSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.WriteTSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func parseNumericColumn(raw []string) ([]float64, bool) {
	nums := make([]float64, len(raw))
	seen := false
	for i, s := range raw {
		if s == "" {
			nums[i] = 0
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		nums[i] = v
		seen = true
	}
	return nums, seen || len(raw) == 0
}

func formatCell(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
