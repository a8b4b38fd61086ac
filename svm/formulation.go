package svm

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/gosvm/pkg/log"
)

// decisionFunction is the solution of one binary, one-class or regression QP.
// alpha is signed: y_i α_i for classification, α_i − α*_i for regression.
type decisionFunction struct {
	alpha     []float64
	rho       float64
	obj       float64
	nSV       int
	nBSV      int
	converged bool
}

func solveCSVC(prob *Problem, param Parameter, alpha []float64, Cp, Cn float64,
	logger log.Logger) solutionInfo {
	l := prob.L()
	minusOnes := make([]float64, l)
	y := make([]int8, l)
	for i := 0; i < l; i++ {
		alpha[i] = 0
		minusOnes[i] = -1
		y[i] = labelSign(prob.Y[i])
	}

	si := solve(l, newSVCQ(prob, param, y), minusOnes, y, alpha, Cp, Cn, param.Eps, param.Shrinking, param.MaxIter)

	if Cp == Cn {
		logger.Debug("c-svc solved", log.NuKey, floats.Sum(alpha)/(Cp*float64(l)))
	}
	for i := 0; i < l; i++ {
		alpha[i] *= float64(y[i])
	}
	return si
}

func solveNuSVC(prob *Problem, param Parameter, alpha []float64, logger log.Logger) solutionInfo {
	l := prob.L()
	y := make([]int8, l)
	for i := 0; i < l; i++ {
		y[i] = labelSign(prob.Y[i])
	}

	sumPos := param.Nu * float64(l) / 2
	sumNeg := sumPos
	for i := 0; i < l; i++ {
		if y[i] == +1 {
			alpha[i] = math.Min(1, sumPos)
			sumPos -= alpha[i]
		} else {
			alpha[i] = math.Min(1, sumNeg)
			sumNeg -= alpha[i]
		}
	}

	zeros := make([]float64, l)
	si := solveNu(l, newSVCQ(prob, param, y), zeros, y, alpha, 1, 1, param.Eps, param.Shrinking, param.MaxIter)

	r := si.r
	logger.Debug("nu-svc solved", log.CostKey, 1/r)
	for i := 0; i < l; i++ {
		alpha[i] *= float64(y[i]) / r
	}
	si.rho /= r
	si.obj /= r * r
	si.upperBoundP = 1 / r
	si.upperBoundN = 1 / r
	return si
}

func solveOneClass(prob *Problem, param Parameter, alpha []float64) solutionInfo {
	l := prob.L()
	zeros := make([]float64, l)
	ones := make([]int8, l)

	// feasible start: the first ⌊nu·l⌋ variables at the bound, one fractional
	n := int(param.Nu * float64(l))
	for i := 0; i < l; i++ {
		ones[i] = 1
		alpha[i] = 0
		if i < n {
			alpha[i] = 1
		}
	}
	if n < l {
		alpha[n] = param.Nu*float64(l) - float64(n)
	}

	return solve(l, newOneClassQ(prob, param), zeros, ones, alpha, 1, 1, param.Eps, param.Shrinking, param.MaxIter)
}

func solveEpsilonSVR(prob *Problem, param Parameter, alpha []float64, logger log.Logger) solutionInfo {
	l := prob.L()
	alpha2 := make([]float64, 2*l)
	linearTerm := make([]float64, 2*l)
	y := make([]int8, 2*l)
	for i := 0; i < l; i++ {
		linearTerm[i] = param.P - prob.Y[i]
		y[i] = 1
		linearTerm[i+l] = param.P + prob.Y[i]
		y[i+l] = -1
	}

	si := solve(2*l, newSVRQ(prob, param), linearTerm, y, alpha2, param.C, param.C, param.Eps, param.Shrinking, param.MaxIter)

	sumAlpha := 0.0
	for i := 0; i < l; i++ {
		alpha[i] = alpha2[i] - alpha2[i+l]
		sumAlpha += math.Abs(alpha[i])
	}
	logger.Debug("epsilon-svr solved", log.NuKey, sumAlpha/(param.C*float64(l)))
	return si
}

func solveNuSVR(prob *Problem, param Parameter, alpha []float64, logger log.Logger) solutionInfo {
	l := prob.L()
	C := param.C
	alpha2 := make([]float64, 2*l)
	linearTerm := make([]float64, 2*l)
	y := make([]int8, 2*l)

	sum := C * param.Nu * float64(l) / 2
	for i := 0; i < l; i++ {
		alpha2[i] = math.Min(sum, C)
		alpha2[i+l] = alpha2[i]
		sum -= alpha2[i]

		linearTerm[i] = -prob.Y[i]
		y[i] = 1
		linearTerm[i+l] = prob.Y[i]
		y[i+l] = -1
	}

	si := solveNu(2*l, newSVRQ(prob, param), linearTerm, y, alpha2, C, C, param.Eps, param.Shrinking, param.MaxIter)

	logger.Debug("nu-svr solved", "epsilon", -si.r)
	for i := 0; i < l; i++ {
		alpha[i] = alpha2[i] - alpha2[i+l]
	}
	return si
}

func labelSign(y float64) int8 {
	if y > 0 {
		return +1
	}
	return -1
}

// trainOne solves the QP of param.SVMType on prob. Cp and Cn are the box
// bounds of the positive and negative class for C-SVC.
func trainOne(prob *Problem, param Parameter, Cp, Cn float64) decisionFunction {
	logger := log.GetLoggerWithName("svm.solver").With(log.SVMTypeKey, param.SVMType.String())
	alpha := make([]float64, prob.L())

	var si solutionInfo
	switch param.SVMType {
	case CSVC:
		si = solveCSVC(prob, param, alpha, Cp, Cn, logger)
	case NuSVC:
		si = solveNuSVC(prob, param, alpha, logger)
	case OneClass:
		si = solveOneClass(prob, param, alpha)
	case EpsilonSVR:
		si = solveEpsilonSVR(prob, param, alpha, logger)
	case NuSVR:
		si = solveNuSVR(prob, param, alpha, logger)
	}

	nSV, nBSV := 0, 0
	for i, a := range alpha {
		if math.Abs(a) == 0 {
			continue
		}
		nSV++
		ub := si.upperBoundN
		if prob.Y[i] > 0 {
			ub = si.upperBoundP
		}
		if math.Abs(a) >= ub {
			nBSV++
		}
	}

	logger.Debug("decision function ready",
		log.ObjectiveKey, si.obj,
		log.RhoKey, si.rho,
		log.NSVKey, nSV,
		log.NBSVKey, nBSV,
		log.IterationKey, si.iterations,
	)

	return decisionFunction{
		alpha:     alpha,
		rho:       si.rho,
		obj:       si.obj,
		nSV:       nSV,
		nBSV:      nBSV,
		converged: si.converged,
	}
}
