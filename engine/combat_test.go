package engine

import (
	"errors"
	"math"
	"testing"

	"metaqc/domain/core"
	"metaqc/domain/qaqc"
)

func batchMeans(eng *Engine, members []string, row int) float64 {
	sum := 0.0
	for _, m := range members {
		vals, _ := eng.Table().Column(m)
		sum += vals[row]
	}
	return sum / float64(len(members))
}

func TestBatchCorrectRemovesLocationShift(t *testing.T) {
	// Batch b2 sits a constant offset above b1 on every feature.
	eng, _, _ := newTestEngine(t, map[string][]float64{
		"U1": {10, 20, 30, 40},
		"U2": {12, 22, 28, 42},
		"U3": {50, 60, 70, 80},
		"U4": {52, 62, 68, 82},
	}, []string{"U1", "U2", "U3", "U4"}, unknownAcqs("U1", "U2", "U3", "U4"))

	before := make([]float64, eng.NumFeatures())
	for row := range before {
		before[row] = math.Abs(batchMeans(eng, []string{"U1", "U2"}, row) - batchMeans(eng, []string{"U3", "U4"}, row))
	}

	if err := eng.BatchCorrect("batch"); err != nil {
		t.Fatal(err)
	}

	for row := range before {
		after := math.Abs(batchMeans(eng, []string{"U1", "U2"}, row) - batchMeans(eng, []string{"U3", "U4"}, row))
		if after >= before[row] {
			t.Fatalf("row %d batch gap did not shrink: before=%v after=%v", row, before[row], after)
		}
	}

	// Correction keeps the table strictly positive for downstream log
	// transforms.
	for _, name := range eng.SampleColumns() {
		vals, _ := eng.Table().Column(name)
		for _, v := range vals {
			if v <= 0 {
				t.Fatalf("non-positive value after correction in %s: %v", name, vals)
			}
		}
	}
}

func TestBatchCorrectLeavesConstantRows(t *testing.T) {
	eng, _, _ := newTestEngine(t, map[string][]float64{
		"U1": {7, 1},
		"U2": {7, 2},
		"U3": {7, 9},
		"U4": {7, 10},
	}, []string{"U1", "U2", "U3", "U4"}, unknownAcqs("U1", "U2", "U3", "U4"))

	if err := eng.BatchCorrect("batch"); err != nil {
		t.Fatal(err)
	}
	for _, name := range eng.SampleColumns() {
		vals, _ := eng.Table().Column(name)
		if vals[0] != 7 {
			t.Fatalf("zero-variance row must be untouched: %s=%v", name, vals[0])
		}
	}
}

func TestBatchCorrectRequiresTwoBatches(t *testing.T) {
	eng, _, _ := newTestEngine(t, map[string][]float64{
		"U1": {1, 2}, "U2": {3, 4},
	}, []string{"U1", "U2"}, []qaqc.Acquisition{
		acq("U1", "Unknown", "b1"), acq("U2", "Unknown", "b1"),
	})

	err := eng.BatchCorrect("batch")
	if !errors.Is(err, core.ErrInsufficientBatches) {
		t.Fatalf("expected insufficient batches, got %v", err)
	}
	if !IsConfigurationError(err) {
		t.Fatal("insufficient batches is a configuration error")
	}
}
