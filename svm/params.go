package svm

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/gosvm/pkg/errors"
)

// SVMType selects the formulation.
type SVMType int

const (
	CSVC SVMType = iota
	NuSVC
	OneClass
	EpsilonSVR
	NuSVR
)

var svmTypeNames = []string{"c_svc", "nu_svc", "one_class", "epsilon_svr", "nu_svr"}

func (t SVMType) String() string {
	if t < 0 || int(t) >= len(svmTypeNames) {
		return fmt.Sprintf("SVMType(%d)", int(t))
	}
	return svmTypeNames[t]
}

// MarshalText encodes the type by its model-file name.
func (t SVMType) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= len(svmTypeNames) {
		return nil, errors.NewValidationError("svm_type", "unknown svm type", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a model-file name such as "nu_svr".
func (t *SVMType) UnmarshalText(b []byte) error {
	v, err := ParseSVMType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseSVMType maps a model-file name to its SVMType.
func ParseSVMType(s string) (SVMType, error) {
	for i, name := range svmTypeNames {
		if name == s {
			return SVMType(i), nil
		}
	}
	return 0, errors.NewValidationError("svm_type", "unknown svm type", s)
}

// IsClassifier reports whether the type trains one-vs-one class models.
func (t SVMType) IsClassifier() bool {
	return t == CSVC || t == NuSVC
}

// IsRegression reports whether the type predicts real-valued targets.
func (t SVMType) IsRegression() bool {
	return t == EpsilonSVR || t == NuSVR
}

// KernelType selects the kernel function.
type KernelType int

const (
	Linear KernelType = iota
	Poly
	RBF
	Sigmoid
	PrecomputedKernel
)

var kernelTypeNames = []string{"linear", "polynomial", "rbf", "sigmoid", "precomputed"}

func (k KernelType) String() string {
	if k < 0 || int(k) >= len(kernelTypeNames) {
		return fmt.Sprintf("KernelType(%d)", int(k))
	}
	return kernelTypeNames[k]
}

func (k KernelType) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kernelTypeNames) {
		return nil, errors.NewValidationError("kernel_type", "unknown kernel type", int(k))
	}
	return []byte(k.String()), nil
}

func (k *KernelType) UnmarshalText(b []byte) error {
	v, err := ParseKernelType(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseKernelType maps a model-file name to its KernelType.
func ParseKernelType(s string) (KernelType, error) {
	for i, name := range kernelTypeNames {
		if name == s {
			return KernelType(i), nil
		}
	}
	return 0, errors.NewValidationError("kernel_type", "unknown kernel type", s)
}

// usesGamma reports whether gamma enters the kernel.
func (k KernelType) usesGamma() bool {
	return k == Poly || k == RBF || k == Sigmoid
}

// Parameter configures training. Kernel fields are also stored in the model
// and used at prediction time.
type Parameter struct {
	SVMType    SVMType    `json:"svm_type"`
	KernelType KernelType `json:"kernel_type"`
	Degree     int        `json:"degree"` // poly
	Gamma      float64    `json:"gamma"`  // poly/rbf/sigmoid; 0 means 1/num_features
	Coef0      float64    `json:"coef0"`  // poly/sigmoid

	CacheSize   float64   `json:"cache_size"` // MB
	Eps         float64   `json:"eps"`        // stopping tolerance
	C           float64   `json:"c"`          // C_SVC, EPSILON_SVR, NU_SVR
	WeightLabel []int     `json:"weight_label,omitempty"`
	Weight      []float64 `json:"weight,omitempty"`
	Nu          float64   `json:"nu"` // NU_SVC, ONE_CLASS, NU_SVR
	P           float64   `json:"p"`  // EPSILON_SVR tube width
	Shrinking   bool      `json:"shrinking"`
	Probability bool      `json:"probability"`

	// MaxIter caps solver iterations; 0 selects max(1e7, 100·l).
	MaxIter int `json:"max_iter,omitempty"`
	// NumWorkers bounds concurrent pairwise subproblems and folds; 0 means runtime.NumCPU.
	NumWorkers int `json:"num_workers,omitempty"`
	// Seed drives fold shuffling for cross-validation and probability calibration.
	Seed uint64 `json:"seed"`
}

// DefaultParameter returns the LIBSVM defaults.
func DefaultParameter() Parameter {
	return Parameter{
		SVMType:    CSVC,
		KernelType: RBF,
		Degree:     3,
		Gamma:      0,
		Coef0:      0,
		CacheSize:  100,
		Eps:        1e-3,
		C:          1,
		Nu:         0.5,
		P:          0.1,
		Shrinking:  true,
		Seed:       1,
	}
}

// Clone returns a deep copy.
func (p Parameter) Clone() Parameter {
	c := p
	if p.WeightLabel != nil {
		c.WeightLabel = append([]int(nil), p.WeightLabel...)
	}
	if p.Weight != nil {
		c.Weight = append([]float64(nil), p.Weight...)
	}
	return c
}

// resolveGamma replaces a zero gamma by 1/num_features for kernels that use it.
func (p Parameter) resolveGamma(prob *Problem) Parameter {
	if p.Gamma == 0 && p.KernelType.usesGamma() {
		if n := prob.MaxIndex(); n > 0 {
			p.Gamma = 1 / float64(n)
		}
	}
	return p
}

// Validate checks parameter ranges and, when prob is non-nil, the
// problem-dependent constraints (nu-SVC feasibility, integral class labels,
// precomputed kernel rows). Failures are *errors.ValidationError, except
// non-integral class labels, which are a *errors.ValueError. Class weights
// for labels absent from prob are accepted and ignored with a warning at
// training time.
func (p Parameter) Validate(prob *Problem) error {
	if p.SVMType < CSVC || p.SVMType > NuSVR {
		return errors.NewValidationError("svm_type", "unknown svm type", int(p.SVMType))
	}
	if p.KernelType < Linear || p.KernelType > PrecomputedKernel {
		return errors.NewValidationError("kernel_type", "unknown kernel type", int(p.KernelType))
	}
	// comparisons are negated so that NaN fails them
	if !(p.Gamma >= 0) || math.IsInf(p.Gamma, 1) {
		return errors.NewValidationError("gamma", "must be finite and >= 0", p.Gamma)
	}
	if math.IsNaN(p.Coef0) || math.IsInf(p.Coef0, 0) {
		return errors.NewValidationError("coef0", "must be finite", p.Coef0)
	}
	if p.Degree < 0 {
		return errors.NewValidationError("degree", "degree of polynomial kernel must be >= 0", p.Degree)
	}
	if !(p.CacheSize > 0) || math.IsInf(p.CacheSize, 1) {
		return errors.NewValidationError("cache_size", "must be finite and > 0", p.CacheSize)
	}
	if !(p.Eps > 0) || math.IsInf(p.Eps, 1) {
		return errors.NewValidationError("eps", "must be finite and > 0", p.Eps)
	}
	if p.MaxIter < 0 {
		return errors.NewValidationError("max_iter", "must be >= 0", p.MaxIter)
	}
	switch p.SVMType {
	case CSVC, EpsilonSVR, NuSVR:
		if !(p.C > 0) || math.IsInf(p.C, 1) {
			return errors.NewValidationError("C", "must be finite and > 0", p.C)
		}
	}
	switch p.SVMType {
	case NuSVC, OneClass, NuSVR:
		if !(p.Nu > 0 && p.Nu <= 1) {
			return errors.NewValidationError("nu", "must be in (0, 1]", p.Nu)
		}
	}
	if p.SVMType == EpsilonSVR && (!(p.P >= 0) || math.IsInf(p.P, 1)) {
		return errors.NewValidationError("p", "must be finite and >= 0", p.P)
	}
	if len(p.WeightLabel) != len(p.Weight) {
		return errors.NewValidationError("weight", "weight_label and weight must have the same length",
			fmt.Sprintf("%d labels, %d weights", len(p.WeightLabel), len(p.Weight)))
	}
	for i, w := range p.Weight {
		if !(w >= 0) || math.IsInf(w, 1) {
			return errors.NewValidationError("weight", fmt.Sprintf("weight for label %d must be >= 0", p.WeightLabel[i]), w)
		}
	}
	if prob == nil {
		return nil
	}

	if p.SVMType.IsClassifier() {
		// groupClasses converts labels with int()
		for i, y := range prob.Y {
			if y != math.Trunc(y) || math.Abs(y) > math.MaxInt32 {
				return errors.NewValueError("Parameter.Validate",
					fmt.Sprintf("class label %g at row %d is not an integer", y, i+1))
			}
		}
		labels, _, count, _ := groupClasses(prob)
		if p.SVMType == NuSVC {
			for i := range labels {
				for j := i + 1; j < len(labels); j++ {
					n1, n2 := count[i], count[j]
					if p.Nu*float64(n1+n2)/2 > math.Min(float64(n1), float64(n2)) {
						return errors.NewValidationError("nu", "specified nu is infeasible",
							fmt.Sprintf("%g for classes %d (%d) and %d (%d)", p.Nu, labels[i], n1, labels[j], n2))
					}
				}
			}
		}
	}

	if p.KernelType == PrecomputedKernel {
		maxID := 0
		for i, x := range prob.X {
			if len(x) == 0 || x[0].Index != 0 {
				return errors.NewValidationError("kernel_type",
					fmt.Sprintf("precomputed row %d must start with 0:serial_number", i+1), "precomputed")
			}
			id, ok := serialNumber(x)
			if !ok {
				return errors.NewValidationError("kernel_type",
					fmt.Sprintf("precomputed row %d has an invalid serial number", i+1), x[0].Value)
			}
			maxID = max(maxID, id)
		}
		// every row is read positionally at every serial number
		for i, x := range prob.X {
			if len(x) <= maxID || x[maxID].Index != maxID {
				return errors.NewValidationError("kernel_type",
					fmt.Sprintf("precomputed row %d must hold kernel values at indices 1..%d", i+1, maxID), len(x)-1)
			}
		}
	}
	return nil
}
