package svm

import (
	"fmt"

	"github.com/YuminosukeSato/gosvm/core/parallel"
	"github.com/YuminosukeSato/gosvm/pkg/errors"
)

// parallelKernelThreshold is the number of support vectors above which the
// kernel row of a test vector is evaluated concurrently.
const parallelKernelThreshold = 4096

// Predict returns the predicted class label, regression value, or ±1 for
// one-class models.
func Predict(m *Model, x Vector) (float64, error) {
	label, _, err := PredictValues(m, x)
	return label, err
}

// PredictValues returns the prediction together with the decision values:
// K(K−1)/2 pairwise values in (0,1), (0,2), ..., (K−2,K−1) order for
// classification, a single value otherwise.
func PredictValues(m *Model, x Vector) (float64, []float64, error) {
	if err := checkPredictInput(m, x); err != nil {
		return 0, nil, err
	}

	kernel := NewKernelFunc(m.Param)
	kvalue := make([]float64, len(m.SV))
	parallel.ParallelizeWithThreshold(len(m.SV), parallelKernelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			kvalue[i] = kernel(x, m.SV[i])
		}
	})

	if !m.Param.SVMType.IsClassifier() {
		sum := 0.0
		for i, c := range m.SVCoef[0] {
			sum += c * kvalue[i]
		}
		sum -= m.Rho[0]
		dec := []float64{sum}
		if m.Param.SVMType == OneClass {
			if sum > 0 {
				return 1, dec, nil
			}
			return -1, dec, nil
		}
		return sum, dec, nil
	}

	k := m.NrClass
	start := m.classStarts()
	vote := make([]int, k)
	dec := make([]float64, k*(k-1)/2)
	p := 0
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			sum := 0.0
			si, sj := start[i], start[j]
			coef1, coef2 := m.SVCoef[j-1], m.SVCoef[i]
			for n := 0; n < m.NSV[i]; n++ {
				sum += coef1[si+n] * kvalue[si+n]
			}
			for n := 0; n < m.NSV[j]; n++ {
				sum += coef2[sj+n] * kvalue[sj+n]
			}
			sum -= m.Rho[p]
			dec[p] = sum
			if sum > 0 {
				vote[i]++
			} else {
				vote[j]++
			}
			p++
		}
	}
	return float64(m.Label[argmaxInt(vote)]), dec, nil
}

// PredictProbability returns the predicted label and the probability of each
// class in Labels order. One-class models return {P(inlier), P(outlier)}.
// Models trained without Probability fail with errors.ErrNoProbabilityModel.
func PredictProbability(m *Model, x Vector) (float64, []float64, error) {
	if m == nil {
		return 0, nil, errors.NewValueError("svm.PredictProbability", "nil model")
	}
	switch {
	case m.Param.SVMType.IsClassifier() && m.ProbA != nil && m.ProbB != nil:
		_, dec, err := PredictValues(m, x)
		if err != nil {
			return 0, nil, err
		}
		const minProb = 1e-7
		k := m.NrClass
		pairwise := make([][]float64, k)
		for i := range pairwise {
			pairwise[i] = make([]float64, k)
		}
		p := 0
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				v := sigmoidPredict(dec[p], m.ProbA[p], m.ProbB[p])
				pairwise[i][j] = errors.ClipValue(v, minProb, 1-minProb)
				pairwise[j][i] = 1 - pairwise[i][j]
				p++
			}
		}

		probs := make([]float64, k)
		switch k {
		case 1:
			probs[0] = 1
		case 2:
			probs[0] = pairwise[0][1]
			probs[1] = pairwise[1][0]
		default:
			multiclassProbability(k, pairwise, probs)
		}
		return float64(m.Label[argmaxFloat(probs)]), probs, nil

	case m.Param.SVMType == OneClass && m.ProbDensityMarks != nil:
		label, dec, err := PredictValues(m, x)
		if err != nil {
			return 0, nil, err
		}
		pIn := oneClassPredictProbability(m.ProbDensityMarks, dec[0])
		return label, []float64{pIn, 1 - pIn}, nil
	}
	return 0, nil, errors.Wrapf(errors.ErrNoProbabilityModel, "svm.PredictProbability (%s)", m.Param.SVMType)
}

func checkPredictInput(m *Model, x Vector) error {
	if m == nil {
		return errors.NewValueError("svm.Predict", "nil model")
	}
	if err := x.validate(0); err != nil {
		return err
	}
	if m.Param.KernelType != PrecomputedKernel {
		return nil
	}
	// x[id] must hold K(x, SV_id) for every support vector id
	maxID := 0
	for i, sv := range m.SV {
		id, ok := serialNumber(sv)
		if !ok {
			return errors.NewValueError("svm.Predict",
				fmt.Sprintf("precomputed support vector %d has no valid 0:serial_number", i+1))
		}
		maxID = max(maxID, id)
	}
	if len(x) <= maxID || x[maxID].Index != maxID {
		return errors.NewValueError("svm.Predict",
			fmt.Sprintf("precomputed test vector must hold kernel values at indices 1..%d", maxID))
	}
	return nil
}

// argmaxInt returns the first index of the maximum.
func argmaxInt(v []int) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func argmaxFloat(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
