package excel

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"metaqc/domain/feature"
	"metaqc/domain/qaqc"
	"metaqc/engine/analysis"
)

// Exporter writes feature tables and QAQC reports to xlsx workbooks.
type Exporter struct{}

// NewExporter creates an xlsx exporter.
func NewExporter() *Exporter { return &Exporter{} }

// ExportTable writes the table to path as a single-sheet workbook, columns
// in table order, one header row.
func (e *Exporter) ExportTable(table *feature.Table, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	cols := table.Columns()
	if err := f.SetSheetRow(sheet, "A1", &cols); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for row := 0; row < table.NumRows(); row++ {
		cells := make([]interface{}, len(cols))
		for i, col := range cols {
			if values, ok := table.Column(col); ok {
				cells[i] = values[row]
			} else if text, ok := table.TextColumn(col); ok {
				cells[i] = text[row]
			}
		}
		ref, err := excelize.CoordinatesToCellName(1, row+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", row+2, err)
		}
		if err := f.SetSheetRow(sheet, ref, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row+2, err)
		}
	}
	return f.SaveAs(path)
}

// ExportReport writes a QAQC report to path: a summary sheet listing every
// analysis outcome, then one sheet per result carrying its payload.
func (e *Exporter) ExportReport(report analysis.Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	summary := f.GetSheetName(0)
	if err := f.SetSheetName(summary, "Summary"); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	summary = "Summary"

	header := []interface{}{"result_type", "status", "detail"}
	if err := f.SetSheetRow(summary, "A1", &header); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	rowNum := 2
	for _, result := range report.Results {
		row := []interface{}{result.Type, "ok", payloadSummary(result)}
		ref, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetSheetRow(summary, ref, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
		rowNum++
	}
	for _, failure := range report.Failures {
		row := []interface{}{failure.Analysis, "failed", failure.Err.Error()}
		ref, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetSheetRow(summary, ref, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
		rowNum++
	}

	for _, result := range report.Results {
		if err := writeResultSheet(f, result); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// writeResultSheet adds one sheet for a result. The layout follows the
// payload shape: scalar results get name/value rows, pairwise results a
// square matrix, coordinate results x/y rows, percentile tables their three
// columns.
func writeResultSheet(f *excelize.File, result qaqc.Result) error {
	name := sheetName(result.Type)
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}

	switch {
	case len(result.Scalars) > 0:
		header := []interface{}{"sample", "value"}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return err
		}
		for i, sample := range sortedKeys(result.Scalars) {
			row := []interface{}{sample, result.Scalars[sample]}
			ref, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := f.SetSheetRow(name, ref, &row); err != nil {
				return err
			}
		}
	case len(result.Pairwise) > 0:
		samples := make([]string, 0, len(result.Pairwise))
		for sample := range result.Pairwise {
			samples = append(samples, sample)
		}
		sort.Strings(samples)
		header := make([]interface{}, len(samples)+1)
		header[0] = ""
		for i, sample := range samples {
			header[i+1] = sample
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return err
		}
		for i, rowSample := range samples {
			row := make([]interface{}, len(samples)+1)
			row[0] = rowSample
			for j, colSample := range samples {
				row[j+1] = result.Pairwise[rowSample][colSample]
			}
			ref, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := f.SetSheetRow(name, ref, &row); err != nil {
				return err
			}
		}
	case result.Coords != nil:
		header := []interface{}{"sample", "x", "y"}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return err
		}
		samples := make([]string, 0, len(result.Coords))
		for sample := range result.Coords {
			samples = append(samples, sample)
		}
		sort.Strings(samples)
		for i, sample := range samples {
			xy := result.Coords[sample]
			row := []interface{}{sample, xy[0], xy[1]}
			ref, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := f.SetSheetRow(name, ref, &row); err != nil {
				return err
			}
		}
	case len(result.Table) > 0:
		header := []interface{}{"percentile", "sample_threshold", "feature_count"}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return err
		}
		for i, entry := range result.Table {
			row := []interface{}{entry.Percentile, entry.SampleThreshold, entry.FeatureCount}
			ref, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := f.SetSheetRow(name, ref, &row); err != nil {
				return err
			}
		}
	}
	return nil
}

func payloadSummary(result qaqc.Result) string {
	switch {
	case len(result.Scalars) > 0:
		return fmt.Sprintf("%d samples", len(result.Scalars))
	case len(result.Pairwise) > 0:
		return fmt.Sprintf("%dx%d matrix", len(result.Pairwise), len(result.Pairwise))
	case result.Coords != nil:
		return fmt.Sprintf("%d embedded samples", len(result.Coords))
	case len(result.Table) > 0:
		return fmt.Sprintf("%d percentile rows", len(result.Table))
	}
	return "empty"
}

// sheetName trims a result type to Excel's 31-character sheet name limit.
func sheetName(resultType string) string {
	if len(resultType) > 31 {
		return resultType[:31]
	}
	return resultType
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
