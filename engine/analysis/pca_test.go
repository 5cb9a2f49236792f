package analysis

import (
	"math"
	"testing"
)

func TestPCATooFewSamples(t *testing.T) {
	ctx := newTestContext(t, map[string][]float64{
		"s1": {1, 2, 3},
		"s2": {4, 5, 6},
	}, []string{"s1", "s2"})

	if _, err := (&pcaAnalyzer{}).Run(ctx); err == nil {
		t.Fatal("pca must reject fewer than 3 samples")
	}
}

func TestPCAResultShape(t *testing.T) {
	ctx := newTestContext(t, map[string][]float64{
		"s1": {1, 10, 3, 7, 2},
		"s2": {2, 9, 4, 6, 3},
		"s3": {9, 1, 8, 2, 9},
		"s4": {8, 2, 7, 1, 8},
	}, []string{"s1", "s2", "s3", "s4"})

	results, err := (&pcaAnalyzer{}).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Type != "pca" {
		t.Fatalf("unexpected results: %+v", results)
	}
	r := results[0]
	if len(r.Coords) != 4 {
		t.Fatalf("expected one coordinate per sample, got %d", len(r.Coords))
	}
	for sample, xy := range r.Coords {
		if math.IsNaN(xy[0]) || math.IsNaN(xy[1]) {
			t.Fatalf("NaN projection for %s", sample)
		}
	}

	ratios, ok := r.Config["explained_variance_ratio"].([]float64)
	if !ok || len(ratios) != 2 {
		t.Fatalf("explained_variance_ratio: %v", r.Config["explained_variance_ratio"])
	}
	if ratios[0] < ratios[1] {
		t.Fatalf("components must come in decreasing variance order: %v", ratios)
	}
	if ratios[0]+ratios[1] > 1+1e-9 {
		t.Fatalf("ratios exceed 1: %v", ratios)
	}

	// The two concordant pairs (s1,s2) and (s3,s4) should sit closer to
	// each other than to the opposite pair on the first component.
	d12 := math.Abs(r.Coords["s1"][0] - r.Coords["s2"][0])
	d13 := math.Abs(r.Coords["s1"][0] - r.Coords["s3"][0])
	if d12 >= d13 {
		t.Fatalf("pc1 did not separate the groups: d12=%v d13=%v", d12, d13)
	}
}
