package svm

import (
	"slices"

	"github.com/YuminosukeSato/gosvm/pkg/errors"
	libsvm "github.com/YuminosukeSato/gosvm/svm"
)

// config holds the hyperparameters shared by every estimator in this package.
// Fields are exported so that fitted estimators can be gob encoded.
type config struct {
	Kernel      string
	Degree      int
	Gamma       float64 // 0 means 1/n_features
	Coef0       float64
	C           float64
	Nu          float64
	Epsilon     float64
	Tol         float64
	CacheSize   float64 // MB
	Shrinking   bool
	Probability bool
	ClassWeight map[int]float64
	MaxIter     int // 0 means no cap beyond the solver default
	RandomState uint64
	NumWorkers  int
}

func defaultConfig() config {
	return config{
		Kernel:      "rbf",
		Degree:      3,
		Gamma:       0,
		Coef0:       0,
		C:           1.0,
		Nu:          0.5,
		Epsilon:     0.1,
		Tol:         1e-3,
		CacheSize:   200,
		Shrinking:   true,
		Probability: false,
		RandomState: 1,
	}
}

var kernelNames = map[string]libsvm.KernelType{
	"linear":      libsvm.Linear,
	"poly":        libsvm.Poly,
	"rbf":         libsvm.RBF,
	"sigmoid":     libsvm.Sigmoid,
	"precomputed": libsvm.PrecomputedKernel,
}

// parameter converts the configuration into a solver parameter for a problem
// with nFeatures columns.
func (c config) parameter(t libsvm.SVMType, nFeatures int) (libsvm.Parameter, error) {
	kt, ok := kernelNames[c.Kernel]
	if !ok {
		return libsvm.Parameter{}, errors.NewValidationError("kernel",
			"must be one of linear, poly, rbf, sigmoid, precomputed", c.Kernel)
	}

	p := libsvm.DefaultParameter()
	p.SVMType = t
	p.KernelType = kt
	p.Degree = c.Degree
	p.Gamma = c.Gamma
	if p.Gamma == 0 && kt != libsvm.PrecomputedKernel && nFeatures > 0 {
		p.Gamma = 1 / float64(nFeatures)
	}
	p.Coef0 = c.Coef0
	p.C = c.C
	p.Nu = c.Nu
	p.P = c.Epsilon
	p.Eps = c.Tol
	p.CacheSize = c.CacheSize
	p.Shrinking = c.Shrinking
	p.Probability = c.Probability
	p.MaxIter = c.MaxIter
	p.Seed = c.RandomState
	p.NumWorkers = c.NumWorkers

	if len(c.ClassWeight) > 0 {
		labels := make([]int, 0, len(c.ClassWeight))
		for label := range c.ClassWeight {
			labels = append(labels, label)
		}
		slices.Sort(labels)
		p.WeightLabel = labels
		p.Weight = make([]float64, len(labels))
		for i, label := range labels {
			p.Weight[i] = c.ClassWeight[label]
		}
	}
	return p, nil
}

// Option is a functional option shared by SVC, NuSVC, SVR, NuSVR and
// OneClassSVM. Options an estimator has no use for are ignored by it.
type Option func(*config)

// WithKernel sets the kernel: "linear", "poly", "rbf", "sigmoid" or "precomputed".
func WithKernel(kernel string) Option {
	return func(c *config) {
		c.Kernel = kernel
	}
}

// WithDegree sets the degree of the polynomial kernel.
func WithDegree(degree int) Option {
	return func(c *config) {
		c.Degree = degree
	}
}

// WithGamma sets the kernel coefficient for poly, rbf and sigmoid.
// Zero selects 1/n_features at fit time.
func WithGamma(gamma float64) Option {
	return func(c *config) {
		c.Gamma = gamma
	}
}

// WithCoef0 sets the independent term of the poly and sigmoid kernels.
func WithCoef0(coef0 float64) Option {
	return func(c *config) {
		c.Coef0 = coef0
	}
}

// WithC sets the regularization parameter of SVC, SVR and NuSVR.
func WithC(C float64) Option {
	return func(c *config) {
		c.C = C
	}
}

// WithNu sets nu for NuSVC, NuSVR and OneClassSVM.
func WithNu(nu float64) Option {
	return func(c *config) {
		c.Nu = nu
	}
}

// WithEpsilon sets the width of the SVR insensitive tube.
func WithEpsilon(epsilon float64) Option {
	return func(c *config) {
		c.Epsilon = epsilon
	}
}

// WithTol sets the stopping tolerance on the KKT violation.
func WithTol(tol float64) Option {
	return func(c *config) {
		c.Tol = tol
	}
}

// WithCacheSize sets the kernel cache size in MB.
func WithCacheSize(mb float64) Option {
	return func(c *config) {
		c.CacheSize = mb
	}
}

// WithShrinking toggles the shrinking heuristic.
func WithShrinking(shrinking bool) Option {
	return func(c *config) {
		c.Shrinking = shrinking
	}
}

// WithProbability enables probability calibration during Fit.
func WithProbability(probability bool) Option {
	return func(c *config) {
		c.Probability = probability
	}
}

// WithClassWeight multiplies C by weight[label] for the listed classes.
func WithClassWeight(weight map[int]float64) Option {
	return func(c *config) {
		c.ClassWeight = make(map[int]float64, len(weight))
		for k, v := range weight {
			c.ClassWeight[k] = v
		}
	}
}

// WithMaxIter caps the number of SMO iterations per subproblem.
func WithMaxIter(maxIter int) Option {
	return func(c *config) {
		c.MaxIter = maxIter
	}
}

// WithRandomState seeds the fold shuffling used for probability calibration.
func WithRandomState(seed uint64) Option {
	return func(c *config) {
		c.RandomState = seed
	}
}

// WithNumWorkers bounds concurrent subproblems; 0 uses every CPU.
func WithNumWorkers(n int) Option {
	return func(c *config) {
		c.NumWorkers = n
	}
}
