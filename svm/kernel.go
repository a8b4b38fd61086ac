package svm

import (
	"math"
)

// KernelFunc evaluates a kernel between two vectors.
type KernelFunc func(x, y Vector) float64

// NewKernelFunc resolves the kernel named by param once and returns it as a closure.
// For the precomputed kernel, y must be a stored row whose slot 0 holds the
// serial number used to index into x.
func NewKernelFunc(param Parameter) KernelFunc {
	gamma, coef0, degree := param.Gamma, param.Coef0, param.Degree
	switch param.KernelType {
	case Linear:
		return dot
	case Poly:
		return func(x, y Vector) float64 {
			return powi(gamma*dot(x, y)+coef0, degree)
		}
	case RBF:
		return func(x, y Vector) float64 {
			return math.Exp(-gamma * squaredDistance(x, y))
		}
	case Sigmoid:
		return func(x, y Vector) float64 {
			return math.Tanh(gamma*dot(x, y) + coef0)
		}
	case PrecomputedKernel:
		return func(x, y Vector) float64 {
			return x[int(y[0].Value)].Value
		}
	}
	return func(Vector, Vector) float64 { return 0 }
}

// KernelValue computes K(x, y) under param.
func KernelValue(x, y Vector, param Parameter) float64 {
	return NewKernelFunc(param)(x, y)
}

// powi raises base to a non-negative integer power by repeated squaring.
func powi(base float64, times int) float64 {
	tmp, ret := base, 1.0
	for t := times; t > 0; t /= 2 {
		if t%2 == 1 {
			ret *= tmp
		}
		tmp *= tmp
	}
	return ret
}

// kernel evaluates K over the training vectors by index. Solvers permute
// rows through swapIndex, so x is a private copy of the caller's slice.
type kernel struct {
	x       []Vector
	xSquare []float64
	eval    func(i, j int) float64
}

func newKernel(x []Vector, param Parameter) *kernel {
	k := &kernel{x: append([]Vector(nil), x...)}
	gamma, coef0, degree := param.Gamma, param.Coef0, param.Degree

	switch param.KernelType {
	case Linear:
		k.eval = func(i, j int) float64 { return dot(k.x[i], k.x[j]) }
	case Poly:
		k.eval = func(i, j int) float64 { return powi(gamma*dot(k.x[i], k.x[j])+coef0, degree) }
	case RBF:
		k.xSquare = make([]float64, len(x))
		for i := range k.x {
			k.xSquare[i] = dot(k.x[i], k.x[i])
		}
		k.eval = func(i, j int) float64 {
			return math.Exp(-gamma * (k.xSquare[i] + k.xSquare[j] - 2*dot(k.x[i], k.x[j])))
		}
	case Sigmoid:
		k.eval = func(i, j int) float64 { return math.Tanh(gamma*dot(k.x[i], k.x[j]) + coef0) }
	case PrecomputedKernel:
		k.eval = func(i, j int) float64 { return k.x[i][int(k.x[j][0].Value)].Value }
	default:
		k.eval = func(int, int) float64 { return 0 }
	}
	return k
}

func (k *kernel) swapIndex(i, j int) {
	k.x[i], k.x[j] = k.x[j], k.x[i]
	if k.xSquare != nil {
		k.xSquare[i], k.xSquare[j] = k.xSquare[j], k.xSquare[i]
	}
}
