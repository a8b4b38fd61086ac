package svm

// Model is a trained SVM. It is read-only after Train or LoadModel returns and
// may be shared across goroutines for prediction.
//
// For classification with K classes, SVCoef has K−1 rows and the support
// vectors of class k occupy SV[start_k : start_k+NSV[k]]. The decision function
// of pair (i, j) uses SVCoef[j−1] over the SVs of class i and SVCoef[i] over the
// SVs of class j. Regression and one-class models have NrClass 2 and one row.
type Model struct {
	Param   Parameter
	NrClass int
	SV      []Vector
	SVCoef  [][]float64
	Rho     []float64 // K(K−1)/2 biases

	ProbA            []float64 // pairwise sigmoid slopes, or the SVR Laplace scale
	ProbB            []float64
	ProbDensityMarks []float64 // one-class

	SVIndices []int // 1-based position of each SV in the training problem
	Label     []int
	NSV       []int // support vectors per class

	// Converged is false when any solve stopped at the iteration cap.
	Converged bool
}

func (m *Model) SVMType() SVMType { return m.Param.SVMType }

// NumClasses returns 2 for regression and one-class models.
func (m *Model) NumClasses() int { return m.NrClass }

// Labels returns the class labels in internal order; nil for regression and one-class.
func (m *Model) Labels() []int {
	if m.Label == nil {
		return nil
	}
	return append([]int(nil), m.Label...)
}

func (m *Model) NumSupportVectors() int { return len(m.SV) }

func (m *Model) SupportVectorIndices() []int {
	return append([]int(nil), m.SVIndices...)
}

// HasProbabilityModel reports whether PredictProbability (classification,
// one-class) or SVRProbability (regression) can be used.
func (m *Model) HasProbabilityModel() bool {
	switch m.Param.SVMType {
	case CSVC, NuSVC:
		return m.ProbA != nil && m.ProbB != nil
	case EpsilonSVR, NuSVR:
		return m.ProbA != nil
	case OneClass:
		return m.ProbDensityMarks != nil
	}
	return false
}

// SVRProbability returns the scale σ of the Laplace distribution
// p(z) = e^{−|z|/σ}/(2σ) fitted to the residuals of a regression model, or 0
// when the model has none.
func (m *Model) SVRProbability() float64 {
	if m.Param.SVMType.IsRegression() && m.ProbA != nil {
		return m.ProbA[0]
	}
	return 0
}

// classStarts returns the offset of each class in SV.
func (m *Model) classStarts() []int {
	start := make([]int, m.NrClass)
	for i := 1; i < m.NrClass; i++ {
		start[i] = start[i-1] + m.NSV[i-1]
	}
	return start
}
