package svm

import "math"

// solveNu runs the solver variant for nu-SVC and nu-SVR, whose dual carries
// the additional constraint eᵀα = constant. Positive and negative variables
// are selected separately and si.r receives the offset of the nu form.
func solveNu(l int, Q qMatrix, p []float64, y []int8, alpha []float64,
	Cp, Cn, eps float64, shrinking bool, maxIter int) solutionInfo {
	return run(l, Q, p, y, alpha, Cp, Cn, eps, shrinking, maxIter, nuRules{})
}

type nuRules struct{}

func (nuRules) selectWorkingSet(s *solver) (int, int, bool) {
	Gmaxp, Gmaxp2 := math.Inf(-1), math.Inf(-1)
	Gmaxn, Gmaxn2 := math.Inf(-1), math.Inf(-1)
	GmaxpIdx, GmaxnIdx := -1, -1
	GminIdx := -1
	objDiffMin := math.Inf(1)

	for t := 0; t < s.activeSize; t++ {
		if s.y[t] == +1 {
			if !s.isUpperBound(t) && -s.G[t] >= Gmaxp {
				Gmaxp = -s.G[t]
				GmaxpIdx = t
			}
		} else if !s.isLowerBound(t) && s.G[t] >= Gmaxn {
			Gmaxn = s.G[t]
			GmaxnIdx = t
		}
	}

	ip, in := GmaxpIdx, GmaxnIdx
	var Qip, Qin []float32
	if ip != -1 {
		Qip = s.Q.getQ(ip, s.activeSize)
	}
	if in != -1 {
		Qin = s.Q.getQ(in, s.activeSize)
	}

	for j := 0; j < s.activeSize; j++ {
		if s.y[j] == +1 {
			if s.isLowerBound(j) {
				continue
			}
			gradDiff := Gmaxp + s.G[j]
			if s.G[j] >= Gmaxp2 {
				Gmaxp2 = s.G[j]
			}
			if gradDiff > 0 {
				quad := s.QD[ip] + s.QD[j] - 2*float64(Qip[j])
				if objDiff := secondOrderGain(gradDiff, quad); objDiff <= objDiffMin {
					GminIdx = j
					objDiffMin = objDiff
				}
			}
		} else {
			if s.isUpperBound(j) {
				continue
			}
			gradDiff := Gmaxn - s.G[j]
			if -s.G[j] >= Gmaxn2 {
				Gmaxn2 = -s.G[j]
			}
			if gradDiff > 0 {
				quad := s.QD[in] + s.QD[j] - 2*float64(Qin[j])
				if objDiff := secondOrderGain(gradDiff, quad); objDiff <= objDiffMin {
					GminIdx = j
					objDiffMin = objDiff
				}
			}
		}
	}

	if math.Max(Gmaxp+Gmaxp2, Gmaxn+Gmaxn2) < s.eps || GminIdx == -1 {
		return -1, -1, true
	}
	if s.y[GminIdx] == +1 {
		return GmaxpIdx, GminIdx, false
	}
	return GmaxnIdx, GminIdx, false
}

func (nuRules) beShrunk(s *solver, i int, Gmax1, Gmax2, Gmax3, Gmax4 float64) bool {
	switch {
	case s.isUpperBound(i):
		if s.y[i] == +1 {
			return -s.G[i] > Gmax1
		}
		return -s.G[i] > Gmax4
	case s.isLowerBound(i):
		if s.y[i] == +1 {
			return s.G[i] > Gmax2
		}
		return s.G[i] > Gmax3
	}
	return false
}

func (r nuRules) doShrinking(s *solver) {
	Gmax1 := math.Inf(-1) // max { −y_i ∇f_i | y_i = +1, i ∈ I_up }
	Gmax2 := math.Inf(-1) // max { y_i ∇f_i | y_i = +1, i ∈ I_low }
	Gmax3 := math.Inf(-1) // max { −y_i ∇f_i | y_i = −1, i ∈ I_up }
	Gmax4 := math.Inf(-1) // max { y_i ∇f_i | y_i = −1, i ∈ I_low }

	for i := 0; i < s.activeSize; i++ {
		if !s.isUpperBound(i) {
			if s.y[i] == +1 {
				Gmax1 = math.Max(Gmax1, -s.G[i])
			} else {
				Gmax4 = math.Max(Gmax4, -s.G[i])
			}
		}
		if !s.isLowerBound(i) {
			if s.y[i] == +1 {
				Gmax2 = math.Max(Gmax2, s.G[i])
			} else {
				Gmax3 = math.Max(Gmax3, s.G[i])
			}
		}
	}

	if !s.unshrink && math.Max(Gmax1+Gmax2, Gmax3+Gmax4) <= s.eps*10 {
		s.unshrink = true
		s.reconstructGradient()
		s.activeSize = s.l
	}

	for i := 0; i < s.activeSize; i++ {
		if !r.beShrunk(s, i, Gmax1, Gmax2, Gmax3, Gmax4) {
			continue
		}
		s.activeSize--
		for s.activeSize > i {
			if !r.beShrunk(s, s.activeSize, Gmax1, Gmax2, Gmax3, Gmax4) {
				s.swapIndex(i, s.activeSize)
				break
			}
			s.activeSize--
		}
	}
}

func (nuRules) calculateRho(s *solver, si *solutionInfo) float64 {
	var nrFree1, nrFree2 int
	ub1, ub2 := math.Inf(1), math.Inf(1)
	lb1, lb2 := math.Inf(-1), math.Inf(-1)
	var sumFree1, sumFree2 float64

	for i := 0; i < s.activeSize; i++ {
		g := s.G[i]
		if s.y[i] == +1 {
			switch {
			case s.isUpperBound(i):
				lb1 = math.Max(lb1, g)
			case s.isLowerBound(i):
				ub1 = math.Min(ub1, g)
			default:
				nrFree1++
				sumFree1 += g
			}
		} else {
			switch {
			case s.isUpperBound(i):
				lb2 = math.Max(lb2, g)
			case s.isLowerBound(i):
				ub2 = math.Min(ub2, g)
			default:
				nrFree2++
				sumFree2 += g
			}
		}
	}

	r1 := (ub1 + lb1) / 2
	if nrFree1 > 0 {
		r1 = sumFree1 / float64(nrFree1)
	}
	r2 := (ub2 + lb2) / 2
	if nrFree2 > 0 {
		r2 = sumFree2 / float64(nrFree2)
	}

	si.r = (r1 + r2) / 2
	return (r1 - r2) / 2
}
