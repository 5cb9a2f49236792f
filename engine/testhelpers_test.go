package engine

import (
	"testing"

	"metaqc/adapters/experiment"
	"metaqc/adapters/render"
	"metaqc/domain/feature"
	"metaqc/domain/qaqc"
)

// acq builds one acquisition with Sample Type and batch tags.
func acq(name, sampleType, batch string) qaqc.Acquisition {
	return qaqc.Acquisition{
		Name: name,
		MetadataTags: map[string]string{
			"Sample Type": sampleType,
			"batch":       batch,
		},
	}
}

// newTestEngine wires an engine over an in-memory experiment rooted in a
// temp dir and a recording renderer. Column names are pre-cleaned so
// construction does not trigger the legacy-name save path.
func newTestEngine(t *testing.T, samples map[string][]float64, order []string, acqs []qaqc.Acquisition) (*Engine, *experiment.Memory, *render.Recorder) {
	t.Helper()
	if len(order) == 0 {
		t.Fatal("sample order required")
	}
	nrows := len(samples[order[0]])

	table := feature.New("preferred")
	ids := make([]float64, nrows)
	mz := make([]float64, nrows)
	rt := make([]float64, nrows)
	snr := make([]float64, nrows)
	for i := 0; i < nrows; i++ {
		ids[i] = float64(i)
		mz[i] = 100 + 10*float64(i)
		rt[i] = 10 + float64(i)
		snr[i] = 5
	}
	meta := []struct {
		name string
		vals []float64
	}{
		{feature.ColID, ids}, {feature.ColMZ, mz}, {feature.ColRTime, rt}, {"snr", snr},
	}
	for _, m := range meta {
		if err := table.SetColumn(m.name, m.vals); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range order {
		if err := table.SetColumn(name, samples[name]); err != nil {
			t.Fatal(err)
		}
	}

	exp := experiment.New("exp1", t.TempDir(), acqs)
	rec := render.NewRecorder()
	eng, err := New(table, exp, rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng, exp, rec
}

// failingExperiment returns a registry whose Save always fails, for
// asserting that persistence errors surface.
func failingExperiment(t *testing.T, err error) *experiment.Memory {
	t.Helper()
	return experiment.New("exp1", t.TempDir(), twoBatchAcquisitions(),
		experiment.WithPersist(func(*experiment.Memory) error { return err }))
}

// twoBatchAcquisitions is the standard fixture sample registry: two batches
// of two unknowns, one blank each.
func twoBatchAcquisitions() []qaqc.Acquisition {
	return []qaqc.Acquisition{
		acq("U1", "Unknown", "b1"),
		acq("U2", "Unknown", "b1"),
		acq("BL1", "Blank", "b1"),
		acq("U3", "Unknown", "b2"),
		acq("U4", "Unknown", "b2"),
		acq("BL2", "Blank", "b2"),
	}
}
