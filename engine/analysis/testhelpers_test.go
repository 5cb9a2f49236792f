package analysis

import (
	"testing"

	"metaqc/domain/feature"
)

// newTestContext builds an analyzer context over a small table: metadata
// columns plus the given per-sample intensity vectors. Figures are
// suppressed (neither interactive nor saved).
func newTestContext(t *testing.T, samples map[string][]float64, order []string) *Context {
	t.Helper()
	if len(order) == 0 {
		t.Fatal("sample order required")
	}
	nrows := len(samples[order[0]])

	table := feature.New("preferred")
	ids := make([]float64, nrows)
	mz := make([]float64, nrows)
	rt := make([]float64, nrows)
	for i := 0; i < nrows; i++ {
		ids[i] = float64(i)
		mz[i] = 100 + float64(i)
		rt[i] = 10 + float64(i)
	}
	if err := table.SetColumn(feature.ColID, ids); err != nil {
		t.Fatal(err)
	}
	if err := table.SetColumn(feature.ColMZ, mz); err != nil {
		t.Fatal(err)
	}
	if err := table.SetColumn(feature.ColRTime, rt); err != nil {
		t.Fatal(err)
	}
	for _, name := range order {
		if err := table.SetColumn(name, samples[name]); err != nil {
			t.Fatal(err)
		}
	}

	return &Context{
		Table:            table,
		SampleColumns:    order,
		NonSampleColumns: []string{feature.ColID, feature.ColMZ, feature.ColRTime},
	}
}
