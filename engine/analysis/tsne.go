package analysis

import (
	"fmt"
	"math"
	"math/rand"

	"metaqc/domain/qaqc"
	"metaqc/ports"
)

// tsneAnalyzer embeds samples into two dimensions with t-SNE. When the
// embedding fails at the configured perplexity (too few samples), the
// perplexity is decremented and retried in a bounded loop; at zero the
// analyzer returns an empty result rather than failing.
type tsneAnalyzer struct {
	Perplexity float64
}

func (a *tsneAnalyzer) Name() string { return "tsne" }

func (a *tsneAnalyzer) Run(ctx *Context) ([]qaqc.Result, error) {
	vectors := ctx.SampleVectors()
	for perplexity := a.Perplexity; perplexity > 0; perplexity-- {
		embedded, err := tsneEmbed(vectors, perplexity, 42)
		if err != nil {
			continue
		}
		if err := ctx.Draw(ports.Figure{
			Kind:   ports.FigureScatter,
			Data:   ports.FigureData{XY: embedded},
			Title:  "tsne",
			XLabel: "Latent 1",
			YLabel: "Latent 2",
		}); err != nil {
			return nil, err
		}
		coords := make(map[string][2]float64, len(embedded))
		for i, name := range ctx.SampleColumns {
			coords[name] = embedded[i]
		}
		result := qaqc.Result{
			Type:   "tsne",
			Config: map[string]interface{}{"n_components": 2, "perplexity": perplexity},
			Coords: coords,
		}
		return []qaqc.Result{result}, nil
	}
	empty := qaqc.Result{
		Type:   "tsne",
		Config: map[string]interface{}{"n_components": 2},
		Coords: map[string][2]float64{},
	}
	return []qaqc.Result{empty}, nil
}

const (
	tsneIterations        = 500
	tsneExaggerationIters = 100
	tsneLearningRate      = 100.0
)

// tsneEmbed runs exact t-SNE on one vector per sample. The sample counts in
// a feature table are small enough that the quadratic pairwise computation
// is not a concern.
func tsneEmbed(vectors [][]float64, perplexity float64, seed int64) ([][2]float64, error) {
	n := len(vectors)
	if n < 3 {
		return nil, fmt.Errorf("tsne requires at least 3 samples, have %d", n)
	}
	if perplexity >= float64(n) {
		return nil, fmt.Errorf("perplexity %.0f too large for %d samples", perplexity, n)
	}

	distances := squaredDistances(vectors)
	p := jointProbabilities(distances, perplexity)

	rng := rand.New(rand.NewSource(seed))
	y := make([][2]float64, n)
	for i := range y {
		y[i] = [2]float64{rng.NormFloat64() * 1e-4, rng.NormFloat64() * 1e-4}
	}

	velocity := make([][2]float64, n)
	gradient := make([][2]float64, n)
	q := make([][]float64, n)
	for i := range q {
		q[i] = make([]float64, n)
	}

	for iter := 0; iter < tsneIterations; iter++ {
		exaggeration := 1.0
		if iter < tsneExaggerationIters {
			exaggeration = 4.0
		}
		momentum := 0.8
		if iter < 250 {
			momentum = 0.5
		}

		// Student-t affinities in the embedding
		qSum := 0.0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dx := y[i][0] - y[j][0]
				dy := y[i][1] - y[j][1]
				w := 1.0 / (1.0 + dx*dx + dy*dy)
				q[i][j] = w
				q[j][i] = w
				qSum += 2 * w
			}
		}

		for i := 0; i < n; i++ {
			gradient[i] = [2]float64{}
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				qij := math.Max(q[i][j]/qSum, 1e-12)
				mult := 4 * (exaggeration*p[i][j] - qij) * q[i][j]
				gradient[i][0] += mult * (y[i][0] - y[j][0])
				gradient[i][1] += mult * (y[i][1] - y[j][1])
			}
		}
		for i := 0; i < n; i++ {
			velocity[i][0] = momentum*velocity[i][0] - tsneLearningRate*gradient[i][0]
			velocity[i][1] = momentum*velocity[i][1] - tsneLearningRate*gradient[i][1]
			y[i][0] += velocity[i][0]
			y[i][1] += velocity[i][1]
		}
	}
	return y, nil
}

func squaredDistances(vectors [][]float64) [][]float64 {
	n := len(vectors)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum := 0.0
			for k := range vectors[i] {
				d := vectors[i][k] - vectors[j][k]
				sum += d * d
			}
			out[i][j] = sum
			out[j][i] = sum
		}
	}
	return out
}

// jointProbabilities converts pairwise distances into symmetric joint
// probabilities, binary-searching a per-point precision to hit the target
// perplexity.
func jointProbabilities(distances [][]float64, perplexity float64) [][]float64 {
	n := len(distances)
	target := math.Log(perplexity)
	conditional := make([][]float64, n)

	for i := 0; i < n; i++ {
		conditional[i] = make([]float64, n)
		beta := 1.0
		betaMin, betaMax := math.Inf(-1), math.Inf(1)

		for attempt := 0; attempt < 50; attempt++ {
			sum := 0.0
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				conditional[i][j] = math.Exp(-distances[i][j] * beta)
				sum += conditional[i][j]
			}
			if sum == 0 {
				sum = 1e-12
			}
			entropy := 0.0
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				conditional[i][j] /= sum
				if conditional[i][j] > 1e-12 {
					entropy -= conditional[i][j] * math.Log(conditional[i][j])
				}
			}
			diff := entropy - target
			if math.Abs(diff) < 1e-5 {
				break
			}
			if diff > 0 {
				betaMin = beta
				if math.IsInf(betaMax, 1) {
					beta *= 2
				} else {
					beta = (beta + betaMax) / 2
				}
			} else {
				betaMax = beta
				if math.IsInf(betaMin, -1) {
					beta /= 2
				} else {
					beta = (beta + betaMin) / 2
				}
			}
		}
	}

	joint := make([][]float64, n)
	for i := range joint {
		joint[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			joint[i][j] = math.Max((conditional[i][j]+conditional[j][i])/(2*float64(n)), 1e-12)
		}
	}
	return joint
}
