package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"metaqc/domain/qaqc"
	"metaqc/ports"
)

// pcaAnalyzer projects sample vectors to two principal components. Sample
// vectors are log2(x+1)-transformed first unless the table is already
// marked log-transformed, then standardized per feature.
type pcaAnalyzer struct{}

func (a *pcaAnalyzer) Name() string { return "pca" }

func (a *pcaAnalyzer) Run(ctx *Context) ([]qaqc.Result, error) {
	n := ctx.NumSamples()
	if n < 3 {
		return nil, fmt.Errorf("pca requires at least 3 samples, have %d", n)
	}
	vectors := ctx.SampleVectors()
	d := len(vectors[0])

	// samples x features matrix
	data := mat.NewDense(n, d, nil)
	for i, vec := range vectors {
		if ctx.LogTransformed {
			data.SetRow(i, vec)
		} else {
			data.SetRow(i, log2Plus1(vec))
		}
	}
	standardizeColumns(data)

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return nil, fmt.Errorf("pca decomposition failed")
	}
	vars := pc.VarsTo(nil)
	if len(vars) < 2 {
		return nil, fmt.Errorf("pca produced fewer than 2 components")
	}
	var vectorsTo mat.Dense
	pc.VectorsTo(&vectorsTo)

	var projected mat.Dense
	projected.Mul(data, vectorsTo.Slice(0, d, 0, 2))

	total := 0.0
	for _, v := range vars {
		total += v
	}
	ratio1 := vars[0] / total
	ratio2 := vars[1] / total

	coords := make(map[string][2]float64, n)
	xy := make([][2]float64, n)
	for i, name := range ctx.SampleColumns {
		point := [2]float64{projected.At(i, 0), projected.At(i, 1)}
		coords[name] = point
		xy[i] = point
	}

	if err := ctx.Draw(ports.Figure{
		Kind:   ports.FigureScatter,
		Data:   ports.FigureData{XY: xy},
		Title:  "pca",
		XLabel: fmt.Sprintf("PC 1 %.1f%%", ratio1*100),
		YLabel: fmt.Sprintf("PC 2 %.1f%%", ratio2*100),
	}); err != nil {
		return nil, err
	}

	result := qaqc.Result{
		Type: "pca",
		Config: map[string]interface{}{
			"n_components":             2,
			"scaler":                   "standard",
			"explained_variance_ratio": []float64{ratio1, ratio2},
		},
		Coords: coords,
	}
	return []qaqc.Result{result}, nil
}

// standardizeColumns scales each column to zero mean and unit variance.
// Constant columns are left centered only.
func standardizeColumns(m *mat.Dense) {
	rows, cols := m.Dims()
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		mean, std := stat.MeanStdDev(col, nil)
		for i := 0; i < rows; i++ {
			v := col[i] - mean
			if std > 0 && !math.IsNaN(std) {
				v /= std
			}
			m.Set(i, j, v)
		}
	}
}
