package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"metaqc/domain/core"
)

// BatchCorrect removes additive and multiplicative batch effects from the
// sample columns using a ComBat-style location/scale model with empirical
// Bayes shrinkage, batch labels as the only covariate. At least two
// non-empty batches are required. The corrected table is re-floored to
// strictly positive values with fill 1, since downstream log transforms
// cannot accept non-positive cells.
func (e *Engine) BatchCorrect(byBatch string) error {
	batches := e.batches(byBatch)
	var batchNames []string
	for name, members := range batches {
		if len(members) > 0 {
			batchNames = append(batchNames, name)
		}
	}
	if len(batchNames) < 2 {
		return core.ErrInsufficientBatches
	}
	sort.Strings(batchNames)

	// column-major view of the sample data
	var columns []string
	for _, name := range batchNames {
		columns = append(columns, batches[name]...)
	}
	numRows := e.table.NumRows()
	data := make([][]float64, len(columns))
	for j, name := range columns {
		vals, _ := e.table.Column(name)
		data[j] = vals
	}

	batchOf := make([]int, len(columns))
	batchSizes := make([]int, len(batchNames))
	{
		j := 0
		for b, name := range batchNames {
			for range batches[name] {
				batchOf[j] = b
				batchSizes[b]++
				j++
			}
		}
	}

	for g := 0; g < numRows; g++ {
		row := make([]float64, len(columns))
		for j := range columns {
			row[j] = data[j][g]
		}
		adjusted := combatAdjustRow(row, batchOf, batchSizes, len(batchNames))
		for j := range columns {
			data[j][g] = adjusted[j]
		}
	}

	e.table.MakeNonnegative(1, columns)
	e.touch()
	return nil
}

// combatAdjustRow standardizes one feature row, shrinks the per-batch
// location and scale estimates toward their priors, and removes them.
// Features with no variance are returned unchanged.
func combatAdjustRow(row []float64, batchOf []int, batchSizes []int, numBatches int) []float64 {
	grandMean := stat.Mean(row, nil)
	pooledVar := 0.0
	for _, v := range row {
		d := v - grandMean
		pooledVar += d * d
	}
	pooledVar /= float64(len(row))
	if pooledVar == 0 {
		return row
	}
	pooledStd := math.Sqrt(pooledVar)

	z := make([]float64, len(row))
	for j, v := range row {
		z[j] = (v - grandMean) / pooledStd
	}

	gamma := make([]float64, numBatches)
	delta2 := make([]float64, numBatches)
	for b := 0; b < numBatches; b++ {
		var batchZ []float64
		for j, v := range z {
			if batchOf[j] == b {
				batchZ = append(batchZ, v)
			}
		}
		gamma[b] = stat.Mean(batchZ, nil)
		if len(batchZ) > 1 {
			delta2[b] = stat.Variance(batchZ, nil)
		}
		if delta2[b] == 0 {
			delta2[b] = 1e-8
		}
	}

	// empirical Bayes priors across batches
	gammaBar := stat.Mean(gamma, nil)
	tau2 := stat.Variance(gamma, nil)
	deltaMean := stat.Mean(delta2, nil)
	deltaVar := stat.Variance(delta2, nil)
	if deltaVar == 0 {
		deltaVar = 1e-8
	}
	lambda := (2*deltaVar + deltaMean*deltaMean) / deltaVar
	theta := (deltaMean*deltaMean*deltaMean + deltaMean*deltaVar) / deltaVar

	out := make([]float64, len(row))
	for b := 0; b < numBatches; b++ {
		n := float64(batchSizes[b])
		gammaStar := gamma[b]
		if tau2 > 0 {
			gammaStar = (n*tau2*gamma[b] + delta2[b]*gammaBar) / (n*tau2 + delta2[b])
		}
		sumSq := 0.0
		for j, v := range z {
			if batchOf[j] == b {
				d := v - gammaStar
				sumSq += d * d
			}
		}
		deltaStar := (theta + 0.5*sumSq) / (n/2 + lambda - 1)
		if deltaStar <= 0 || math.IsNaN(deltaStar) {
			deltaStar = delta2[b]
		}
		scale := pooledStd / math.Sqrt(deltaStar)
		for j := range z {
			if batchOf[j] == b {
				out[j] = scale*(z[j]-gammaStar) + grandMean
			}
		}
	}
	return out
}
