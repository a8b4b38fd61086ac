package svm

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/gosvm/core/parallel"
	"github.com/YuminosukeSato/gosvm/pkg/errors"
	"github.com/YuminosukeSato/gosvm/pkg/log"
)

// crossValidationStream keeps fold shuffling independent of the per-pair
// calibration streams.
const crossValidationStream = 1 << 32

// CrossValidate splits prob into nfold folds, trains on all but one fold and
// predicts the held-out fold, returning one prediction per training instance
// in the original order.
//
// Folds are stratified by class for C-SVC and nu-SVC when nfold < L. An nfold
// larger than L is reduced to L, which is leave-one-out. Probability-enabled
// classifiers predict through PredictProbability. Folds run concurrently on
// up to param.NumWorkers goroutines; the result only depends on param.Seed.
func CrossValidate(prob *Problem, param Parameter, nfold int) ([]float64, error) {
	if err := prob.Validate(); err != nil {
		return nil, err
	}
	if nfold < 2 {
		return nil, errors.NewValidationError("nfold", "n-fold cross validation: n must be >= 2", nfold)
	}
	param = param.Clone().resolveGamma(prob)
	if err := param.Validate(prob); err != nil {
		return nil, err
	}
	return crossValidate(prob, param, nfold, rand.New(rand.NewPCG(param.Seed, crossValidationStream)))
}

func crossValidate(prob *Problem, param Parameter, nfold int, rng *rand.Rand) ([]float64, error) {
	logger := log.GetLoggerWithName("svm.crossval").With(log.OperationKey, log.OperationCrossValidate)
	l := prob.L()
	if nfold > l {
		logger.Warn("# folds > # data; using leave-one-out cross validation", log.FoldKey, nfold, log.SamplesKey, l)
		nfold = l
	}

	var perm, foldStart []int
	if param.SVMType.IsClassifier() && nfold < l {
		perm, foldStart = stratifiedFolds(prob, nfold, rng)
	} else {
		perm = shuffledIndices(l, rng)
		foldStart = make([]int, nfold+1)
		for i := 0; i <= nfold; i++ {
			foldStart[i] = i * l / nfold
		}
	}

	fold := param
	fold.NumWorkers = 1
	target := make([]float64, l)
	useProbability := param.Probability && param.SVMType.IsClassifier()

	err := parallel.ForEach(nfold, param.NumWorkers, func(i int) error {
		begin, end := foldStart[i], foldStart[i+1]
		rows := make([]int, 0, l-(end-begin))
		rows = append(rows, perm[:begin]...)
		rows = append(rows, perm[end:]...)

		submodel, err := train(prob.subset(rows), fold)
		if err != nil {
			return errors.Wrapf(err, "fold %d", i)
		}
		for _, j := range perm[begin:end] {
			var v float64
			if useProbability {
				v, _, err = PredictProbability(submodel, prob.X[j])
			} else {
				v, err = Predict(submodel, prob.X[j])
			}
			if err != nil {
				return errors.Wrapf(err, "fold %d", i)
			}
			target[j] = v
		}
		logger.Debug("fold finished", log.FoldKey, i, log.NSVKey, len(submodel.SV))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// stratifiedFolds shuffles each class and deals it evenly across the folds.
// It returns the permutation and the nfold+1 fold boundaries within it.
func stratifiedFolds(prob *Problem, nfold int, rng *rand.Rand) (perm, foldStart []int) {
	l := prob.L()
	_, start, count, grouped := groupClasses(prob)
	nrClass := len(start)

	index := append([]int(nil), grouped...)
	for c := 0; c < nrClass; c++ {
		for i := 0; i < count[c]; i++ {
			j := i + rng.IntN(count[c]-i)
			index[start[c]+j], index[start[c]+i] = index[start[c]+i], index[start[c]+j]
		}
	}

	foldCount := make([]int, nfold)
	for i := 0; i < nfold; i++ {
		for c := 0; c < nrClass; c++ {
			foldCount[i] += (i+1)*count[c]/nfold - i*count[c]/nfold
		}
	}

	foldStart = make([]int, nfold+1)
	for i := 1; i <= nfold; i++ {
		foldStart[i] = foldStart[i-1] + foldCount[i-1]
	}

	perm = make([]int, l)
	next := append([]int(nil), foldStart...)
	for c := 0; c < nrClass; c++ {
		for i := 0; i < nfold; i++ {
			begin := start[c] + i*count[c]/nfold
			end := start[c] + (i+1)*count[c]/nfold
			for j := begin; j < end; j++ {
				perm[next[i]] = index[j]
				next[i]++
			}
		}
	}
	return perm, foldStart
}
