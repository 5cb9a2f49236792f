package engine

import (
	"strings"
	"testing"

	"metaqc/adapters/render"
)

func qaqcFixture(t *testing.T) (*Engine, *render.Recorder) {
	order := []string{"U1", "U2", "U3", "U4"}
	eng, _, rec := newTestEngine(t, map[string][]float64{
		"U1": {1, 10, 3, 7, 2},
		"U2": {2, 9, 4, 6, 3},
		"U3": {9, 1, 8, 2, 9},
		"U4": {8, 2, 7, 1, 8},
	}, order, unknownAcqs(order...))
	return eng, rec
}

func TestRunQAQCAllRegistersResults(t *testing.T) {
	eng, _ := qaqcFixture(t)
	report := eng.RunQAQC(QAQCParams{All: true})

	if len(report.Failures) != 0 {
		t.Fatalf("unexpected failures: %+v", report.Failures)
	}
	if report.RunID == "" {
		t.Fatal("report must carry a run id")
	}

	// Every produced result is visible in the experiment registry and
	// served from the cache afterwards.
	for _, r := range report.Results {
		if _, ok := eng.experiment.ResultFor("preferred", r.Type); !ok {
			t.Fatalf("result %s not registered with the experiment", r.Type)
		}
		if _, ok := eng.results.Get("preferred", r.Type); !ok {
			t.Fatalf("result %s not cached", r.Type)
		}
	}
}

func TestRunQAQCSelected(t *testing.T) {
	eng, _ := qaqcFixture(t)
	report := eng.RunQAQC(QAQCParams{Analyses: []string{"pca", "tsne"}})

	if len(report.Failures) != 0 {
		t.Fatalf("unexpected failures: %+v", report.Failures)
	}
	if len(report.Results) != 2 {
		t.Fatalf("expected pca and tsne only, got %d results", len(report.Results))
	}
}

func TestMutationInvalidatesCachedResults(t *testing.T) {
	eng, _ := qaqcFixture(t)
	eng.RunQAQC(QAQCParams{Analyses: []string{"intensity_analysis"}})
	if _, ok := eng.results.Get("preferred", "tics"); !ok {
		t.Fatal("tics should be cached after the run")
	}

	eng.DropSampleByName("U4", false)
	if _, ok := eng.results.Get("preferred", "tics"); ok {
		t.Fatal("cached results must be invalidated by a table mutation")
	}
}

func TestBuildFigureParamsCosmetics(t *testing.T) {
	eng, _ := qaqcFixture(t)
	fig := eng.buildFigureParams(QAQCParams{
		ColorBy:  []string{"batch"},
		MarkerBy: []string{"Sample Type"},
		TextBy:   []string{"batch"},
		Seed:     7,
	})

	if len(fig.Colors) != 1 || len(fig.Colors[0]) != 4 {
		t.Fatalf("one color per sample expected: %v", fig.Colors)
	}
	// Samples sharing a batch share a color; different batches differ.
	c := fig.Colors[0]
	if c[0] != c[1] || c[2] != c[3] || c[0] == c[2] {
		t.Fatalf("batch coloring: %v", c)
	}
	if fig.ColorLegend["b1"] != c[0] || fig.ColorLegend["b2"] != c[2] {
		t.Fatalf("color legend: %v", fig.ColorLegend)
	}
	// All four are unknowns: one marker throughout.
	m := fig.Markers[0]
	for _, v := range m {
		if v != m[0] {
			t.Fatalf("marker cosmetics: %v", m)
		}
	}
	if fig.Text[0][0] != "b1" || fig.Text[0][3] != "b2" {
		t.Fatalf("text labels: %v", fig.Text)
	}
}

func TestBuildFigureParamsDeterministicSeed(t *testing.T) {
	eng, _ := qaqcFixture(t)
	a := eng.buildFigureParams(QAQCParams{ColorBy: []string{"batch"}, Seed: 11})
	b := eng.buildFigureParams(QAQCParams{ColorBy: []string{"batch"}, Seed: 11})
	if a.Colors[0][0] != b.Colors[0][0] {
		t.Fatal("same seed must reproduce cosmetics")
	}
}

func TestRunQAQCDrawsFiguresWhenSaving(t *testing.T) {
	eng, rec := qaqcFixture(t)
	report := eng.RunQAQC(QAQCParams{Analyses: []string{"pca"}, SaveFigs: true})
	if len(report.Failures) != 0 {
		t.Fatalf("failures: %+v", report.Failures)
	}

	figs := rec.Figures()
	if len(figs) != 1 {
		t.Fatalf("expected one pca figure, got %d", len(figs))
	}
	fig := figs[0]
	if fig.Title != "pca" || fig.Path == "" {
		t.Fatalf("figure not routed: %+v", fig)
	}
	if !strings.Contains(fig.Path, "QAQC_figs") {
		t.Fatalf("figure path: %s", fig.Path)
	}
	if !fig.Params.SaveFigs {
		t.Fatal("figure params must carry the save flag")
	}
}

func TestRunQAQCSuppressedFigures(t *testing.T) {
	eng, rec := qaqcFixture(t)
	report := eng.RunQAQC(QAQCParams{Analyses: []string{"pca"}})
	if len(report.Failures) != 0 {
		t.Fatalf("failures: %+v", report.Failures)
	}
	if figs := rec.Figures(); len(figs) != 0 {
		t.Fatalf("figures must be suppressed without save or interactive: %d", len(figs))
	}
}
