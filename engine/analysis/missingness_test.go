package analysis

import "testing"

func missingnessContext(t *testing.T) *Context {
	// Feature presence pattern across three samples:
	//   row 0: present everywhere
	//   row 1: present in s1 only
	//   row 2: missing everywhere
	//   row 3: present in s1 and s2
	return newTestContext(t, map[string][]float64{
		"s1": {5, 3, 0, 2},
		"s2": {4, 0, 0, 1},
		"s3": {6, 0, 0, 0},
	}, []string{"s1", "s2", "s3"})
}

func TestMissingPercentilesTable(t *testing.T) {
	ctx := missingnessContext(t)
	results, err := (&missingPercentilesAnalyzer{}).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	table := results[0].Table
	if results[0].Type != "missingfeaturepercentiles" {
		t.Fatalf("result type %s", results[0].Type)
	}
	if len(table) != 101 {
		t.Fatalf("expected 101 percentile rows, got %d", len(table))
	}

	// Percentile 0: threshold 0 samples, only the all-zero feature counts.
	if table[0].FeatureCount != 1 {
		t.Fatalf("p0 count = %d", table[0].FeatureCount)
	}
	// Percentile 100: threshold equals the sample count, every feature counts.
	if table[100].FeatureCount != 4 {
		t.Fatalf("p100 count = %d", table[100].FeatureCount)
	}
	// Counts are monotone in the percentile.
	for i := 1; i < len(table); i++ {
		if table[i].FeatureCount < table[i-1].FeatureCount {
			t.Fatalf("count not monotone at percentile %d", i)
		}
	}
}

func TestMissingAndFeatureDistributions(t *testing.T) {
	ctx := missingnessContext(t)

	missing, err := (&missingDistributionAnalyzer{}).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if missing[0].Type != "MissingFeatureDistribution" {
		t.Fatalf("result type %s", missing[0].Type)
	}
	if got := missing[0].Scalars; got["s1"] != 1 || got["s2"] != 2 || got["s3"] != 3 {
		t.Fatalf("missing counts: %v", got)
	}

	detected, err := (&featureDistributionAnalyzer{}).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if detected[0].Type != "FeatureDistribution" {
		t.Fatalf("result type %s", detected[0].Type)
	}
	// Detected and missing counts partition the feature rows.
	for sample, d := range detected[0].Scalars {
		if d+missing[0].Scalars[sample] != 4 {
			t.Fatalf("counts for %s do not partition 4 rows", sample)
		}
	}
}

func TestMissingZScoresSumToZero(t *testing.T) {
	ctx := missingnessContext(t)
	results, err := (&missingZScoresAnalyzer{}).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Type != "missing_feature_z_scores" {
		t.Fatalf("result type %s", results[0].Type)
	}
	var sum float64
	for _, z := range results[0].Scalars {
		sum += z
	}
	if !almostEqual(sum, 0, 1e-9) {
		t.Fatalf("z-scores should sum to zero, got %v", sum)
	}
	// s3 misses the most features, so it scores highest.
	s := results[0].Scalars
	if s["s3"] <= s["s1"] || s["s3"] <= s["s2"] {
		t.Fatalf("unexpected ordering: %v", s)
	}
}

func TestFeatureOutlierZScores(t *testing.T) {
	ctx := missingnessContext(t)
	results, err := (&featureOutlierAnalyzer{}).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Type != "feature_count_z_scores" {
		t.Fatalf("result type %s", results[0].Type)
	}
	s := results[0].Scalars
	if s["s1"] <= s["s3"] {
		t.Fatalf("sample with most detections should score highest: %v", s)
	}
}
