package svm

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gosvm/metrics"
	"github.com/YuminosukeSato/gosvm/pkg/errors"
	"github.com/YuminosukeSato/gosvm/pkg/log"
)

// GridPoint is the cross-validation score of one (C, gamma) pair. Score is
// accuracy for classifiers and one-class models, MSE for regression.
type GridPoint struct {
	C     float64 `json:"c"`
	Gamma float64 `json:"gamma"`
	Score float64 `json:"score"`
}

// GridSearchResult holds the best pair and every evaluated point in search order.
type GridSearchResult struct {
	Best   GridPoint   `json:"best"`
	Points []GridPoint `json:"points"`
}

// DefaultGridC returns 2^-5, 2^-3, ..., 2^15.
func DefaultGridC() []float64 { return powersOfTwo(-5, 15, 2) }

// DefaultGridGamma returns 2^3, 2^1, ..., 2^-15.
func DefaultGridGamma() []float64 { return powersOfTwo(3, -15, -2) }

func powersOfTwo(from, to, step int) []float64 {
	var out []float64
	for e := from; (step > 0 && e <= to) || (step < 0 && e >= to); e += step {
		out = append(out, math.Pow(2, float64(e)))
	}
	return out
}

// GridSearch runs nfold cross-validation for every (C, gamma) pair and returns
// the best one. Nil slices select the default grids. Kernels without gamma
// search over C only. Ties keep the earlier point.
func GridSearch(prob *Problem, base Parameter, nfold int, cs, gammas []float64) (GridSearchResult, error) {
	if err := prob.Validate(); err != nil {
		return GridSearchResult{}, err
	}
	if cs == nil {
		cs = DefaultGridC()
	}
	if gammas == nil {
		gammas = DefaultGridGamma()
	}
	if !base.KernelType.usesGamma() {
		gammas = []float64{base.Gamma}
	}
	if len(cs) == 0 || len(gammas) == 0 {
		return GridSearchResult{}, errors.NewValidationError("grid", "empty search grid",
			[2]int{len(cs), len(gammas)})
	}

	logger := log.GetLoggerWithName("svm.gridsearch")
	yTrue := mat.NewVecDense(prob.L(), append([]float64(nil), prob.Y...))
	regression := base.SVMType.IsRegression()

	var res GridSearchResult
	for _, c := range cs {
		for _, g := range gammas {
			param := base.Clone()
			param.C = c
			param.Gamma = g

			target, err := CrossValidate(prob, param, nfold)
			if err != nil {
				return GridSearchResult{}, errors.Wrapf(err, "grid point C=%g gamma=%g", c, g)
			}
			score, err := gridScore(yTrue, target, regression)
			if err != nil {
				return GridSearchResult{}, err
			}

			pt := GridPoint{C: c, Gamma: g, Score: score}
			res.Points = append(res.Points, pt)
			if len(res.Points) == 1 || better(pt.Score, res.Best.Score, regression) {
				res.Best = pt
			}
			logger.Debug("grid point evaluated", log.CostKey, c, log.GammaKey, g, "score", score)
		}
	}

	logger.Info("grid search finished",
		log.CostKey, res.Best.C,
		log.GammaKey, res.Best.Gamma,
		"score", res.Best.Score,
	)
	return res, nil
}

func gridScore(yTrue *mat.VecDense, target []float64, regression bool) (float64, error) {
	yPred := mat.NewVecDense(len(target), target)
	if regression {
		return metrics.MSE(yTrue, yPred)
	}
	return metrics.Accuracy(yTrue, yPred)
}

func better(score, best float64, regression bool) bool {
	if regression {
		return score < best
	}
	return score > best
}
