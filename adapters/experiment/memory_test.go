package experiment

import (
	"errors"
	"testing"

	"metaqc/domain/qaqc"
)

func fixtureAcqs() []qaqc.Acquisition {
	tags := func(sampleType, batch string) map[string]string {
		return map[string]string{"Sample Type": sampleType, "batch": batch}
	}
	return []qaqc.Acquisition{
		{Name: "U1", MetadataTags: tags("Unknown", "b1")},
		{Name: "U2", MetadataTags: tags("Unknown", "b2")},
		{Name: "BL1", MetadataTags: tags("Blank", "b1")},
	}
}

func TestSampleNamesAndBatches(t *testing.T) {
	m := New("exp", "/tmp/exp", fixtureAcqs())

	names := m.SampleNames()
	if len(names) != 3 || !names["U1"] || !names["BL1"] {
		t.Fatalf("sample names: %v", names)
	}

	batches := m.Batches("batch")
	if len(batches["b1"]) != 2 || len(batches["b2"]) != 1 {
		t.Fatalf("batches: %v", batches)
	}
	if batches["b1"][0] != "U1" || batches["b1"][1] != "BL1" {
		t.Fatalf("acquisition order must be preserved: %v", batches["b1"])
	}
}

func TestFilterSamples(t *testing.T) {
	m := New("exp", "/tmp/exp", fixtureAcqs())

	blanks := m.FilterSamples(qaqc.SampleFilter{"Sample Type": {Includes: []string{"Blank"}}})
	if len(blanks) != 1 || blanks[0].Name != "BL1" {
		t.Fatalf("blank filter: %v", blanks)
	}

	notB2 := m.FilterSamples(qaqc.SampleFilter{"batch": {Excludes: []string{"b2"}}})
	if len(notB2) != 2 {
		t.Fatalf("exclude filter: %v", notB2)
	}
}

func TestCosmeticMapStableAndDistinct(t *testing.T) {
	m := New("exp", "/tmp/exp", fixtureAcqs())

	colors := m.CosmeticMap("batch", "color", 3)
	if len(colors) != 2 || colors["b1"] == colors["b2"] {
		t.Fatalf("colors: %v", colors)
	}
	again := m.CosmeticMap("batch", "color", 3)
	if colors["b1"] != again["b1"] {
		t.Fatal("same seed must give identical assignments")
	}
	markers := m.CosmeticMap("Sample Type", "marker", 3)
	if len(markers) != 2 {
		t.Fatalf("markers: %v", markers)
	}
}

func TestResultAndTableRegistries(t *testing.T) {
	m := New("exp", "/tmp/exp", fixtureAcqs())

	m.RegisterResult("preferred", qaqc.Result{Type: "tics", Scalars: map[string]float64{"U1": 5}})
	m.RegisterResult("preferred", qaqc.Result{Type: "tics", Scalars: map[string]float64{"U1": 9}})
	r, ok := m.ResultFor("preferred", "tics")
	if !ok || r.Scalars["U1"] != 9 {
		t.Fatalf("re-registration must overwrite: %v %v", r, ok)
	}
	if _, ok := m.ResultFor("preferred", "pca"); ok {
		t.Fatal("unregistered type must miss")
	}

	m.RegisterTable("masked", "/tmp/exp/masked.tsv")
	if path, ok := m.TablePath("masked"); !ok || path != "/tmp/exp/masked.tsv" {
		t.Fatalf("table path: %v %v", path, ok)
	}

	m.MarkLogTransformed("log_table")
	if !m.IsLogTransformed("log_table") || m.IsLogTransformed("masked") {
		t.Fatal("log-transform registry")
	}
}

func TestSavePersistHook(t *testing.T) {
	m := New("exp", "/tmp/exp", nil)
	if err := m.Save(); err != nil {
		t.Fatalf("save without hook: %v", err)
	}

	boom := errors.New("boom")
	failing := New("exp", "/tmp/exp", nil, WithPersist(func(*Memory) error { return boom }))
	if err := failing.Save(); !errors.Is(err, boom) {
		t.Fatalf("persist hook error not surfaced: %v", err)
	}
}
