package svm

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// blobs draws n points per class around the given centers with isotropic
// noise; class k is labelled labels[k].
func blobs(seed uint64, n int, centers [][]float64, labels []float64, noise float64) *Problem {
	rng := rand.New(rand.NewPCG(seed, seed))
	prob := &Problem{}
	for i := 0; i < n; i++ {
		for k, c := range centers {
			v := make([]float64, len(c))
			for d := range c {
				v[d] = c[d] + noise*rng.NormFloat64()
			}
			prob.X = append(prob.X, Dense(v))
			prob.Y = append(prob.Y, labels[k])
		}
	}
	return prob
}

// linearTargets samples x uniformly in [-1, 1]^2 and sets y = 2x₁ − x₂ + 0.5
// plus noise.
func linearTargets(seed uint64, n int, noise float64) *Problem {
	rng := rand.New(rand.NewPCG(seed, seed))
	prob := &Problem{}
	for i := 0; i < n; i++ {
		x1, x2 := 2*rng.Float64()-1, 2*rng.Float64()-1
		prob.X = append(prob.X, Dense([]float64{x1, x2}))
		prob.Y = append(prob.Y, 2*x1-x2+0.5+noise*rng.NormFloat64())
	}
	return prob
}

func gaussianCloud(seed uint64, n int) *Problem {
	rng := rand.New(rand.NewPCG(seed, seed))
	prob := &Problem{}
	for i := 0; i < n; i++ {
		prob.X = append(prob.X, Dense([]float64{rng.NormFloat64(), rng.NormFloat64()}))
		prob.Y = append(prob.Y, 1)
	}
	return prob
}

func mustTrain(t *testing.T, prob *Problem, param Parameter) *Model {
	t.Helper()
	m, err := Train(prob, param)
	require.NoError(t, err)
	require.NotNil(t, m)
	return m
}

func decisionValues(t *testing.T, m *Model, xs []Vector) [][]float64 {
	t.Helper()
	out := make([][]float64, len(xs))
	for i, x := range xs {
		_, dec, err := PredictValues(m, x)
		require.NoError(t, err)
		out[i] = dec
	}
	return out
}
