package svm

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/YuminosukeSato/gosvm/core/parallel"
	"github.com/YuminosukeSato/gosvm/pkg/errors"
	"github.com/YuminosukeSato/gosvm/pkg/log"
)

// Train fits a model of param.SVMType on prob.
//
// The problem and the parameters are validated before any solve starts; a
// zero Gamma is replaced by 1/num_features. Pairwise subproblems of a
// multi-class problem are solved concurrently on up to param.NumWorkers
// goroutines. A solve that reaches the iteration cap is not an error: the
// model is returned with Converged set to false.
func Train(prob *Problem, param Parameter) (*Model, error) {
	if err := prob.Validate(); err != nil {
		return nil, err
	}
	param = param.Clone().resolveGamma(prob)
	if err := param.Validate(prob); err != nil {
		return nil, err
	}
	return train(prob, param)
}

// train assumes prob and param are valid and param.Gamma is resolved.
func train(prob *Problem, param Parameter) (*Model, error) {
	logger := log.GetLoggerWithName("svm.train").With(
		log.SVMTypeKey, param.SVMType.String(),
		log.KernelKey, param.KernelType.String(),
	)
	started := time.Now()
	logger.Info("training started",
		log.SamplesKey, prob.L(),
		log.FeaturesKey, prob.MaxIndex(),
	)

	var (
		m   *Model
		err error
	)
	if param.SVMType.IsClassifier() {
		m, err = trainClassifier(prob, param, logger)
	} else {
		m, err = trainSingle(prob, param, logger)
	}
	if err != nil {
		return nil, errors.Wrap(err, "svm.Train")
	}

	if !m.Converged {
		logger.Warn("training finished without reaching the stopping tolerance",
			log.ConvergedKey, false,
			log.SuggestionKey, "scale the features, loosen eps or raise max_iter")
	}
	logger.Info("training finished",
		log.NSVKey, len(m.SV),
		log.ClassesKey, m.NrClass,
		log.DurationMsKey, time.Since(started).Milliseconds(),
	)
	return m, nil
}

// trainSingle trains one-class and regression models, which have a single
// decision function.
func trainSingle(prob *Problem, param Parameter, logger log.Logger) (*Model, error) {
	m := &Model{Param: param, NrClass: 2}

	if param.Probability && param.SVMType.IsRegression() {
		sigma, err := svrProbability(prob, param, probabilityRNG(param, 0))
		if err != nil {
			return nil, err
		}
		m.ProbA = []float64{sigma}
	}

	f := trainOne(prob, param, 0, 0)
	m.Rho = []float64{f.rho}
	m.Converged = f.converged

	coef := make([]float64, 0, f.nSV)
	for i, a := range f.alpha {
		if math.Abs(a) > 0 {
			m.SV = append(m.SV, prob.X[i])
			coef = append(coef, a)
			m.SVIndices = append(m.SVIndices, i+1)
		}
	}
	m.SVCoef = [][]float64{coef}

	if param.Probability && param.SVMType == OneClass {
		if marks, ok := oneClassProbability(prob, m, logger); ok {
			m.ProbDensityMarks = marks
		}
	}
	return m, nil
}

func trainClassifier(prob *Problem, param Parameter, logger log.Logger) (*Model, error) {
	l := prob.L()
	labels, start, count, perm := groupClasses(prob)
	nrClass := len(labels)
	if nrClass == 1 {
		logger.Warn("training data in only one class; all predictions will return that label",
			log.ClassesKey, 1)
	}

	x := make([]Vector, l)
	for i := range x {
		x[i] = prob.X[perm[i]]
	}

	weightedC := make([]float64, nrClass)
	for i := range weightedC {
		weightedC[i] = param.C
	}
	for i, wl := range param.WeightLabel {
		j := indexOf(labels, wl)
		if j < 0 {
			logger.Warn("class label specified in weight is not found", "label", wl)
			continue
		}
		weightedC[j] *= param.Weight[i]
	}

	type pair struct{ i, j int }
	pairs := make([]pair, 0, nrClass*(nrClass-1)/2)
	for i := 0; i < nrClass; i++ {
		for j := i + 1; j < nrClass; j++ {
			pairs = append(pairs, pair{i, j})
		}
	}

	f := make([]decisionFunction, len(pairs))
	var probA, probB []float64
	if param.Probability {
		probA = make([]float64, len(pairs))
		probB = make([]float64, len(pairs))
	}

	// pairs run concurrently; nested calibration folds then run inline
	inner := param
	if len(pairs) > 1 {
		inner.NumWorkers = 1
	}
	err := parallel.ForEach(len(pairs), param.NumWorkers, func(p int) error {
		i, j := pairs[p].i, pairs[p].j
		si, sj := start[i], start[j]
		ci, cj := count[i], count[j]

		sub := &Problem{Y: make([]float64, ci+cj), X: make([]Vector, ci+cj)}
		for k := 0; k < ci; k++ {
			sub.X[k] = x[si+k]
			sub.Y[k] = +1
		}
		for k := 0; k < cj; k++ {
			sub.X[ci+k] = x[sj+k]
			sub.Y[ci+k] = -1
		}

		if param.Probability {
			a, b, err := binarySVCProbability(sub, inner, weightedC[i], weightedC[j], probabilityRNG(param, uint64(p)))
			if err != nil {
				return err
			}
			probA[p], probB[p] = a, b
		}
		f[p] = trainOne(sub, inner, weightedC[i], weightedC[j])
		logger.Debug("pair solved", log.PairKey, [2]int{labels[i], labels[j]}, log.NSVKey, f[p].nSV)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m := &Model{
		Param:     param,
		NrClass:   nrClass,
		Label:     labels,
		Rho:       make([]float64, len(pairs)),
		ProbA:     probA,
		ProbB:     probB,
		Converged: true,
	}

	nonzero := make([]bool, l)
	for p, pr := range pairs {
		m.Rho[p] = f[p].rho
		m.Converged = m.Converged && f[p].converged
		si, sj := start[pr.i], start[pr.j]
		ci, cj := count[pr.i], count[pr.j]
		for k := 0; k < ci; k++ {
			if math.Abs(f[p].alpha[k]) > 0 {
				nonzero[si+k] = true
			}
		}
		for k := 0; k < cj; k++ {
			if math.Abs(f[p].alpha[ci+k]) > 0 {
				nonzero[sj+k] = true
			}
		}
	}

	m.NSV = make([]int, nrClass)
	for i := 0; i < nrClass; i++ {
		for k := 0; k < count[i]; k++ {
			if nonzero[start[i]+k] {
				m.NSV[i]++
			}
		}
	}
	for i := 0; i < l; i++ {
		if nonzero[i] {
			m.SV = append(m.SV, x[i])
			m.SVIndices = append(m.SVIndices, perm[i]+1)
		}
	}

	nzStart := make([]int, nrClass)
	for i := 1; i < nrClass; i++ {
		nzStart[i] = nzStart[i-1] + m.NSV[i-1]
	}

	m.SVCoef = make([][]float64, nrClass-1)
	for i := range m.SVCoef {
		m.SVCoef[i] = make([]float64, len(m.SV))
	}

	// pair (i, j): coefficients of class i go to row j−1, those of class j to row i
	for p, pr := range pairs {
		i, j := pr.i, pr.j
		si, sj := start[i], start[j]
		ci, cj := count[i], count[j]

		q := nzStart[i]
		for k := 0; k < ci; k++ {
			if nonzero[si+k] {
				m.SVCoef[j-1][q] = f[p].alpha[k]
				q++
			}
		}
		q = nzStart[j]
		for k := 0; k < cj; k++ {
			if nonzero[sj+k] {
				m.SVCoef[i][q] = f[p].alpha[ci+k]
				q++
			}
		}
	}
	return m, nil
}

// groupClasses orders the class labels by first appearance and returns, for
// each class, its label, its offset and size in the grouped order, plus perm
// mapping grouped positions to rows of prob.
//
// A binary problem labelled {−1, +1} that starts with −1 is swapped so that +1
// is class 0 and positive decision values mean label +1.
func groupClasses(prob *Problem) (labels, start, count, perm []int) {
	l := prob.L()
	dataLabel := make([]int, l)
	for i := 0; i < l; i++ {
		lbl := int(prob.Y[i])
		j := indexOf(labels, lbl)
		if j < 0 {
			labels = append(labels, lbl)
			count = append(count, 1)
			j = len(labels) - 1
		} else {
			count[j]++
		}
		dataLabel[i] = j
	}

	if len(labels) == 2 && labels[0] == -1 && labels[1] == +1 {
		labels[0], labels[1] = labels[1], labels[0]
		count[0], count[1] = count[1], count[0]
		for i := range dataLabel {
			dataLabel[i] = 1 - dataLabel[i]
		}
	}

	start = make([]int, len(labels))
	for i := 1; i < len(labels); i++ {
		start[i] = start[i-1] + count[i-1]
	}
	perm = make([]int, l)
	next := append([]int(nil), start...)
	for i := 0; i < l; i++ {
		perm[next[dataLabel[i]]] = i
		next[dataLabel[i]]++
	}
	return labels, start, count, perm
}

func indexOf(xs []int, v int) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}

// probabilityRNG returns the generator for calibration task stream.
func probabilityRNG(param Parameter, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(param.Seed, stream))
}
