package svm

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// blobs draws perClass points around each center with uniform jitter of the
// given radius. Labels are 0, 1, 2, ... in center order.
func blobs(seed uint64, perClass int, radius float64, centers ...[]float64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, 7))
	d := len(centers[0])
	n := perClass * len(centers)
	X := mat.NewDense(n, d, nil)
	y := mat.NewDense(n, 1, nil)
	row := 0
	for c, center := range centers {
		for k := 0; k < perClass; k++ {
			for j := 0; j < d; j++ {
				X.Set(row, j, center[j]+radius*(2*rng.Float64()-1))
			}
			y.Set(row, 0, float64(c))
			row++
		}
	}
	return X, y
}

// line returns n equally spaced points on [0, 1] with targets a·x + b.
func line(n int, a, b float64) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		X.Set(i, 0, x)
		y.Set(i, 0, a*x+b)
	}
	return X, y
}

func gram(A, B mat.Matrix) *mat.Dense {
	var K mat.Dense
	K.Mul(A, B.T())
	return &K
}
