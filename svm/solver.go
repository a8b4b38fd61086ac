package svm

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/gosvm/pkg/errors"
	"github.com/YuminosukeSato/gosvm/pkg/log"
)

// Solver for
//
//	min  ½ αᵀQα + pᵀα
//	s.t. yᵀα = Δ,  y_i ∈ {+1, −1}
//	     0 ≤ α_i ≤ Cp if y_i = +1,  0 ≤ α_i ≤ Cn if y_i = −1
//
// using SMO with second order working set selection (Fan, Chen and Lin,
// JMLR 6 (2005) 1889–1918) and shrinking. α must be feasible on entry.

type alphaStatus int8

const (
	lowerBound alphaStatus = iota
	upperBound
	free
)

// tau replaces a non-positive curvature in the two-variable subproblem.
const tau = 1e-12

type solutionInfo struct {
	obj         float64
	rho         float64
	upperBoundP float64
	upperBoundN float64
	r           float64 // nu solvers only
	iterations  int
	converged   bool
}

// selectionRules separates the standard solver from the nu solver, which
// keeps positive and negative variables in separate working sets.
type selectionRules interface {
	// selectWorkingSet returns the next pair, or done when the violation is below eps.
	selectWorkingSet(s *solver) (i, j int, done bool)
	doShrinking(s *solver)
	calculateRho(s *solver, si *solutionInfo) float64
}

// solver is the state of one QP solve. It is created by solve and discarded
// when solve returns.
type solver struct {
	activeSize  int
	y           []int8
	G           []float64 // gradient of the objective
	alphaStatus []alphaStatus
	alpha       []float64
	Q           qMatrix
	QD          []float64
	eps         float64
	Cp, Cn      float64
	p           []float64
	activeSet   []int
	Gbar        []float64 // gradient contribution of upper-bounded variables
	l           int
	unshrink    bool

	logger log.Logger
}

// solve runs the standard solver and writes the solution back into alpha.
func solve(l int, Q qMatrix, p []float64, y []int8, alpha []float64,
	Cp, Cn, eps float64, shrinking bool, maxIter int) solutionInfo {
	return run(l, Q, p, y, alpha, Cp, Cn, eps, shrinking, maxIter, standardRules{})
}

func run(l int, Q qMatrix, p []float64, y []int8, alpha []float64,
	Cp, Cn, eps float64, shrinking bool, maxIter int, rules selectionRules) solutionInfo {
	s := &solver{
		l:      l,
		Q:      Q,
		QD:     Q.getQD(),
		p:      append([]float64(nil), p...),
		y:      append([]int8(nil), y...),
		alpha:  append([]float64(nil), alpha...),
		Cp:     Cp,
		Cn:     Cn,
		eps:    eps,
		logger: log.GetLoggerWithName("svm.solver"),
	}

	s.alphaStatus = make([]alphaStatus, l)
	for i := 0; i < l; i++ {
		s.updateAlphaStatus(i)
	}

	s.activeSet = make([]int, l)
	for i := range s.activeSet {
		s.activeSet[i] = i
	}
	s.activeSize = l

	s.initGradient()

	if maxIter <= 0 {
		maxIter = defaultMaxIter(l)
	}

	si := solutionInfo{converged: true}
	iter := 0
	counter := min(l, 1000) + 1

	for iter < maxIter {
		// periodic shrinking
		counter--
		if counter == 0 {
			counter = min(l, 1000)
			if shrinking {
				rules.doShrinking(s)
			}
		}

		i, j, done := rules.selectWorkingSet(s)
		if done {
			// reconstruct the whole gradient and check again on the full set
			s.reconstructGradient()
			s.activeSize = l
			if i, j, done = rules.selectWorkingSet(s); done {
				break
			}
			counter = 1 // shrink on the next iteration
		}

		iter++
		s.update(i, j)
	}

	if iter >= maxIter {
		if s.activeSize < l {
			s.reconstructGradient()
			s.activeSize = l
		}
		si.converged = false
		s.logger.Warn("reached max number of iterations", log.IterationKey, iter, "eps", eps)
		errors.Warn(errors.NewConvergenceWarning("SMO", iter,
			fmt.Sprintf("stopping tolerance eps=%g not reached; returning the current solution", eps)))
	}

	si.rho = rules.calculateRho(s, &si)

	v := 0.0
	for i := 0; i < l; i++ {
		v += s.alpha[i] * (s.G[i] + s.p[i])
	}
	si.obj = v / 2

	for i := 0; i < l; i++ {
		alpha[s.activeSet[i]] = s.alpha[i]
	}

	si.upperBoundP = Cp
	si.upperBoundN = Cn
	si.iterations = iter
	s.logger.Debug("optimization finished", log.IterationKey, iter, log.ConvergedKey, si.converged)
	return si
}

func defaultMaxIter(l int) int {
	if l > math.MaxInt32/100 {
		return math.MaxInt32
	}
	return max(10000000, 100*l)
}

func (s *solver) getC(i int) float64 {
	if s.y[i] > 0 {
		return s.Cp
	}
	return s.Cn
}

func (s *solver) updateAlphaStatus(i int) {
	switch {
	case s.alpha[i] >= s.getC(i):
		s.alphaStatus[i] = upperBound
	case s.alpha[i] <= 0:
		s.alphaStatus[i] = lowerBound
	default:
		s.alphaStatus[i] = free
	}
}

func (s *solver) isUpperBound(i int) bool { return s.alphaStatus[i] == upperBound }
func (s *solver) isLowerBound(i int) bool { return s.alphaStatus[i] == lowerBound }
func (s *solver) isFree(i int) bool       { return s.alphaStatus[i] == free }

func (s *solver) initGradient() {
	l := s.l
	s.G = make([]float64, l)
	s.Gbar = make([]float64, l)
	copy(s.G, s.p)
	for i := 0; i < l; i++ {
		if s.isLowerBound(i) {
			continue
		}
		Qi := s.Q.getQ(i, l)
		ai := s.alpha[i]
		for j := 0; j < l; j++ {
			s.G[j] += ai * float64(Qi[j])
		}
		if s.isUpperBound(i) {
			ci := s.getC(i)
			for j := 0; j < l; j++ {
				s.Gbar[j] += ci * float64(Qi[j])
			}
		}
	}
}

func (s *solver) swapIndex(i, j int) {
	s.Q.swapIndex(i, j)
	s.y[i], s.y[j] = s.y[j], s.y[i]
	s.G[i], s.G[j] = s.G[j], s.G[i]
	s.alphaStatus[i], s.alphaStatus[j] = s.alphaStatus[j], s.alphaStatus[i]
	s.alpha[i], s.alpha[j] = s.alpha[j], s.alpha[i]
	s.p[i], s.p[j] = s.p[j], s.p[i]
	s.activeSet[i], s.activeSet[j] = s.activeSet[j], s.activeSet[i]
	s.Gbar[i], s.Gbar[j] = s.Gbar[j], s.Gbar[i]
}

// reconstructGradient recomputes G for the shrunk variables from Gbar and
// the free variables.
func (s *solver) reconstructGradient() {
	if s.activeSize == s.l {
		return
	}
	l, active := s.l, s.activeSize

	for j := active; j < l; j++ {
		s.G[j] = s.Gbar[j] + s.p[j]
	}
	nrFree := 0
	for j := 0; j < active; j++ {
		if s.isFree(j) {
			nrFree++
		}
	}
	if 2*nrFree < active {
		s.logger.Debug("few free variables at reconstruction; disabling shrinking may be faster",
			"free", nrFree, "active", active)
	}

	if nrFree*l > 2*active*(l-active) {
		for i := active; i < l; i++ {
			Qi := s.Q.getQ(i, active)
			for j := 0; j < active; j++ {
				if s.isFree(j) {
					s.G[i] += s.alpha[j] * float64(Qi[j])
				}
			}
		}
	} else {
		for i := 0; i < active; i++ {
			if !s.isFree(i) {
				continue
			}
			Qi := s.Q.getQ(i, l)
			ai := s.alpha[i]
			for j := active; j < l; j++ {
				s.G[j] += ai * float64(Qi[j])
			}
		}
	}
}

// update solves the two-variable subproblem on (i, j) analytically, clips to
// the box and refreshes G, the status tags and Gbar.
func (s *solver) update(i, j int) {
	Qi := s.Q.getQ(i, s.activeSize)
	Qj := s.Q.getQ(j, s.activeSize)

	Ci, Cj := s.getC(i), s.getC(j)
	oldAi, oldAj := s.alpha[i], s.alpha[j]

	if s.y[i] != s.y[j] {
		quad := s.QD[i] + s.QD[j] + 2*float64(Qi[j])
		if quad <= 0 {
			quad = tau
		}
		delta := (-s.G[i] - s.G[j]) / quad
		diff := s.alpha[i] - s.alpha[j]
		s.alpha[i] += delta
		s.alpha[j] += delta

		if diff > 0 {
			if s.alpha[j] < 0 {
				s.alpha[j] = 0
				s.alpha[i] = diff
			}
		} else if s.alpha[i] < 0 {
			s.alpha[i] = 0
			s.alpha[j] = -diff
		}
		if diff > Ci-Cj {
			if s.alpha[i] > Ci {
				s.alpha[i] = Ci
				s.alpha[j] = Ci - diff
			}
		} else if s.alpha[j] > Cj {
			s.alpha[j] = Cj
			s.alpha[i] = Cj + diff
		}
	} else {
		quad := s.QD[i] + s.QD[j] - 2*float64(Qi[j])
		if quad <= 0 {
			quad = tau
		}
		delta := (s.G[i] - s.G[j]) / quad
		sum := s.alpha[i] + s.alpha[j]
		s.alpha[i] -= delta
		s.alpha[j] += delta

		if sum > Ci {
			if s.alpha[i] > Ci {
				s.alpha[i] = Ci
				s.alpha[j] = sum - Ci
			}
		} else if s.alpha[j] < 0 {
			s.alpha[j] = 0
			s.alpha[i] = sum
		}
		if sum > Cj {
			if s.alpha[j] > Cj {
				s.alpha[j] = Cj
				s.alpha[i] = sum - Cj
			}
		} else if s.alpha[i] < 0 {
			s.alpha[i] = 0
			s.alpha[j] = sum
		}
	}

	dAi := s.alpha[i] - oldAi
	dAj := s.alpha[j] - oldAj
	for k := 0; k < s.activeSize; k++ {
		s.G[k] += float64(Qi[k])*dAi + float64(Qj[k])*dAj
	}

	ui, uj := s.isUpperBound(i), s.isUpperBound(j)
	s.updateAlphaStatus(i)
	s.updateAlphaStatus(j)
	if ui != s.isUpperBound(i) {
		s.shiftGbar(i, Ci, ui)
	}
	if uj != s.isUpperBound(j) {
		s.shiftGbar(j, Cj, uj)
	}
}

// shiftGbar removes (wasUpper) or adds C·Q_i to Gbar after i changed bound state.
func (s *solver) shiftGbar(i int, C float64, wasUpper bool) {
	Qi := s.Q.getQ(i, s.l)
	if wasUpper {
		C = -C
	}
	for k := 0; k < s.l; k++ {
		s.Gbar[k] += C * float64(Qi[k])
	}
}

// standardRules is the working set selection of the C-SVC/one-class/eps-SVR solver.
type standardRules struct{}

// selectWorkingSet picks i maximizing −y_i ∇f_i over I_up and j minimizing the
// second order decrease over I_low with −y_j ∇f_j < −y_i ∇f_i.
func (standardRules) selectWorkingSet(s *solver) (int, int, bool) {
	Gmax := math.Inf(-1)
	Gmax2 := math.Inf(-1)
	GmaxIdx, GminIdx := -1, -1
	objDiffMin := math.Inf(1)

	for t := 0; t < s.activeSize; t++ {
		if s.y[t] == +1 {
			if !s.isUpperBound(t) && -s.G[t] >= Gmax {
				Gmax = -s.G[t]
				GmaxIdx = t
			}
		} else if !s.isLowerBound(t) && s.G[t] >= Gmax {
			Gmax = s.G[t]
			GmaxIdx = t
		}
	}

	i := GmaxIdx
	var Qi []float32
	if i != -1 { // Gmax = −Inf otherwise, so Qi is never read
		Qi = s.Q.getQ(i, s.activeSize)
	}

	for j := 0; j < s.activeSize; j++ {
		if s.y[j] == +1 {
			if s.isLowerBound(j) {
				continue
			}
			gradDiff := Gmax + s.G[j]
			if s.G[j] >= Gmax2 {
				Gmax2 = s.G[j]
			}
			if gradDiff > 0 {
				quad := s.QD[i] + s.QD[j] - 2*float64(s.y[i])*float64(Qi[j])
				objDiff := secondOrderGain(gradDiff, quad)
				if objDiff <= objDiffMin {
					GminIdx = j
					objDiffMin = objDiff
				}
			}
		} else {
			if s.isUpperBound(j) {
				continue
			}
			gradDiff := Gmax - s.G[j]
			if -s.G[j] >= Gmax2 {
				Gmax2 = -s.G[j]
			}
			if gradDiff > 0 {
				quad := s.QD[i] + s.QD[j] + 2*float64(s.y[i])*float64(Qi[j])
				objDiff := secondOrderGain(gradDiff, quad)
				if objDiff <= objDiffMin {
					GminIdx = j
					objDiffMin = objDiff
				}
			}
		}
	}

	if Gmax+Gmax2 < s.eps || GminIdx == -1 {
		return -1, -1, true
	}
	return GmaxIdx, GminIdx, false
}

func secondOrderGain(gradDiff, quad float64) float64 {
	if quad > 0 {
		return -(gradDiff * gradDiff) / quad
	}
	return -(gradDiff * gradDiff) / tau
}

func (standardRules) beShrunk(s *solver, i int, Gmax1, Gmax2 float64) bool {
	switch {
	case s.isUpperBound(i):
		if s.y[i] == +1 {
			return -s.G[i] > Gmax1
		}
		return -s.G[i] > Gmax2
	case s.isLowerBound(i):
		if s.y[i] == +1 {
			return s.G[i] > Gmax2
		}
		return s.G[i] > Gmax1
	}
	return false
}

func (r standardRules) doShrinking(s *solver) {
	Gmax1 := math.Inf(-1) // max { −y_i ∇f_i | i ∈ I_up }
	Gmax2 := math.Inf(-1) // max { y_i ∇f_i | i ∈ I_low }

	for i := 0; i < s.activeSize; i++ {
		if s.y[i] == +1 {
			if !s.isUpperBound(i) && -s.G[i] >= Gmax1 {
				Gmax1 = -s.G[i]
			}
			if !s.isLowerBound(i) && s.G[i] >= Gmax2 {
				Gmax2 = s.G[i]
			}
		} else {
			if !s.isUpperBound(i) && -s.G[i] >= Gmax2 {
				Gmax2 = -s.G[i]
			}
			if !s.isLowerBound(i) && s.G[i] >= Gmax1 {
				Gmax1 = s.G[i]
			}
		}
	}

	if !s.unshrink && Gmax1+Gmax2 <= s.eps*10 {
		s.unshrink = true
		s.reconstructGradient()
		s.activeSize = s.l
	}

	for i := 0; i < s.activeSize; i++ {
		if !r.beShrunk(s, i, Gmax1, Gmax2) {
			continue
		}
		s.activeSize--
		for s.activeSize > i {
			if !r.beShrunk(s, s.activeSize, Gmax1, Gmax2) {
				s.swapIndex(i, s.activeSize)
				break
			}
			s.activeSize--
		}
	}
}

// calculateRho averages y_i ∇f_i over free variables, or takes the midpoint
// of the feasible interval when none is free.
func (standardRules) calculateRho(s *solver, _ *solutionInfo) float64 {
	nrFree := 0
	ub, lb := math.Inf(1), math.Inf(-1)
	sumFree := 0.0
	for i := 0; i < s.activeSize; i++ {
		yG := float64(s.y[i]) * s.G[i]
		switch {
		case s.isUpperBound(i):
			if s.y[i] == -1 {
				ub = math.Min(ub, yG)
			} else {
				lb = math.Max(lb, yG)
			}
		case s.isLowerBound(i):
			if s.y[i] == +1 {
				ub = math.Min(ub, yG)
			} else {
				lb = math.Max(lb, yG)
			}
		default:
			nrFree++
			sumFree += yG
		}
	}
	if nrFree > 0 {
		return sumFree / float64(nrFree)
	}
	return (ub + lb) / 2
}
