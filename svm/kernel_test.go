package svm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKernelValue(t *testing.T) {
	x := Vector{{Index: 1, Value: 1}, {Index: 3, Value: 2}}
	y := Vector{{Index: 1, Value: 2}, {Index: 2, Value: 5}, {Index: 3, Value: -1}}
	// <x,y> = 2 - 2 = 0, ||x-y||^2 = 1 + 25 + 9 = 35

	tests := []struct {
		name  string
		param Parameter
		want  float64
	}{
		{"linear", Parameter{KernelType: Linear}, 0},
		{"poly", Parameter{KernelType: Poly, Gamma: 0.5, Coef0: 1, Degree: 3}, 1},
		{"rbf", Parameter{KernelType: RBF, Gamma: 0.1}, math.Exp(-3.5)},
		{"sigmoid", Parameter{KernelType: Sigmoid, Gamma: 1, Coef0: 0.5}, math.Tanh(0.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, KernelValue(x, y, tt.param), 1e-12)
			assert.InDelta(t, tt.want, KernelValue(y, x, tt.param), 1e-12, "kernel must be symmetric")
		})
	}
}

func TestKernelPrecomputed(t *testing.T) {
	gram := [][]float64{
		{4, 1, 2},
		{1, 9, 3},
		{2, 3, 16},
	}
	x := []Vector{Precomputed(1, gram[0]), Precomputed(2, gram[1]), Precomputed(3, gram[2])}
	k := newKernel(x, Parameter{KernelType: PrecomputedKernel})
	for i := range gram {
		for j := range gram {
			assert.Equal(t, gram[i][j], k.eval(i, j))
		}
	}

	k.swapIndex(0, 2)
	assert.Equal(t, gram[2][0], k.eval(0, 2))
	assert.Equal(t, gram[2][2], k.eval(0, 0))
	assert.Equal(t, Vector(Precomputed(1, gram[0])), x[0], "caller's slice must not be permuted")
}

func TestTrainingKernelMatchesKernelValue(t *testing.T) {
	prob := blobs(3, 10, [][]float64{{0, 0}, {1, 2}}, []float64{1, -1}, 0.7)
	for _, kt := range []KernelType{Linear, Poly, RBF, Sigmoid} {
		param := Parameter{KernelType: kt, Gamma: 0.3, Coef0: 0.2, Degree: 2}
		k := newKernel(prob.X, param)
		for i := 0; i < prob.L(); i += 3 {
			for j := 0; j < prob.L(); j += 5 {
				assert.InDelta(t, KernelValue(prob.X[i], prob.X[j], param), k.eval(i, j), 1e-12, kt.String())
			}
		}
	}
}

func TestPowi(t *testing.T) {
	for _, tc := range []struct {
		base  float64
		times int
	}{{2, 0}, {2, 1}, {2, 10}, {-1.5, 3}, {0.5, 7}} {
		assert.InDelta(t, math.Pow(tc.base, float64(tc.times)), powi(tc.base, tc.times), 1e-12)
	}
}
