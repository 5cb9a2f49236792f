package analysis

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestRanksAveragesTies(t *testing.T) {
	got := ranks([]float64{10, 20, 20, 30})
	want := []float64{1, 2.5, 2.5, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranks = %v, want %v", got, want)
		}
	}
}

func TestRanksAllEqual(t *testing.T) {
	got := ranks([]float64{5, 5, 5})
	for _, r := range got {
		if r != 2 {
			t.Fatalf("all-tied ranks = %v, want all 2", got)
		}
	}
}

func TestZScoresZeroSpread(t *testing.T) {
	got := zScores([]float64{3, 3, 3}, 3, 0)
	for _, z := range got {
		if z != 0 {
			t.Fatalf("zero spread must yield zero scores, got %v", got)
		}
	}
}

func TestZScores(t *testing.T) {
	got := zScores([]float64{1, 2, 3}, 2, 1)
	want := []float64{-1, 0, 1}
	for i := range want {
		if !almostEqual(got[i], want[i], 1e-12) {
			t.Fatalf("zScores = %v, want %v", got, want)
		}
	}
}

func TestNonzeroDropsZerosAndNegatives(t *testing.T) {
	got := nonzero([]float64{0, 1.5, 0, 2, -1})
	if len(got) != 2 || got[0] != 1.5 || got[1] != 2 {
		t.Fatalf("nonzero = %v", got)
	}
}

func TestMedianEmptyInput(t *testing.T) {
	if m := median(nil); m != 0 {
		t.Fatalf("median(nil) = %v, want 0", m)
	}
}

func TestLog2Plus1(t *testing.T) {
	got := log2Plus1([]float64{0, 1, 3})
	want := []float64{0, 1, 2}
	for i := range want {
		if !almostEqual(got[i], want[i], 1e-12) {
			t.Fatalf("log2Plus1 = %v, want %v", got, want)
		}
	}
}
