package svm

import (
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gosvm/core/parallel"
	"github.com/YuminosukeSato/gosvm/pkg/log"
)

const (
	probabilityFolds = 5
	densityMarks     = 10
)

// sigmoidTrain fits P(y=1|f) = 1/(1+exp(A·f+B)) to decision values by Platt's
// method with the Newton iteration and backtracking line search of Lin, Lin
// and Weng (2007).
func sigmoidTrain(dec, labels []float64) (A, B float64) {
	const (
		maxIter = 100
		minStep = 1e-10
		sigma   = 1e-12 // added to the Hessian diagonal
		eps     = 1e-5
	)
	logger := log.GetLoggerWithName("svm.probability")

	var prior1, prior0 float64
	for _, y := range labels {
		if y > 0 {
			prior1++
		} else {
			prior0++
		}
	}

	hiTarget := (prior1 + 1) / (prior1 + 2)
	loTarget := 1 / (prior0 + 2)
	t := make([]float64, len(labels))
	for i, y := range labels {
		if y > 0 {
			t[i] = hiTarget
		} else {
			t[i] = loTarget
		}
	}

	objective := func(a, b float64) float64 {
		f := 0.0
		for i, d := range dec {
			fApB := d*a + b
			if fApB >= 0 {
				f += t[i]*fApB + math.Log1p(math.Exp(-fApB))
			} else {
				f += (t[i]-1)*fApB + math.Log1p(math.Exp(fApB))
			}
		}
		return f
	}

	A, B = 0, math.Log((prior0+1)/(prior1+1))
	fval := objective(A, B)

	iter := 0
	for ; iter < maxIter; iter++ {
		h11, h22, h21 := sigma, sigma, 0.0
		g1, g2 := 0.0, 0.0
		for i, d := range dec {
			fApB := d*A + B
			var p, q float64
			if fApB >= 0 {
				e := math.Exp(-fApB)
				p = e / (1 + e)
				q = 1 / (1 + e)
			} else {
				e := math.Exp(fApB)
				p = 1 / (1 + e)
				q = e / (1 + e)
			}
			d2 := p * q
			h11 += d * d * d2
			h22 += d2
			h21 += d * d2
			d1 := t[i] - p
			g1 += d * d1
			g2 += d1
		}

		if math.Abs(g1) < eps && math.Abs(g2) < eps {
			break
		}

		det := h11*h22 - h21*h21
		dA := -(h22*g1 - h21*g2) / det
		dB := -(-h21*g1 + h11*g2) / det
		gd := g1*dA + g2*dB

		step := 1.0
		for step >= minStep {
			newA, newB := A+step*dA, B+step*dB
			if newf := objective(newA, newB); newf < fval+0.0001*step*gd {
				A, B, fval = newA, newB, newf
				break
			}
			step /= 2
		}
		if step < minStep {
			logger.Debug("platt scaling line search failed", log.IterationKey, iter)
			break
		}
	}
	if iter >= maxIter {
		logger.Debug("platt scaling reached max iterations", log.IterationKey, iter)
	}
	return A, B
}

func sigmoidPredict(dec, A, B float64) float64 {
	fApB := dec*A + B
	// 1-p is used if fApB >= 0 to avoid overflow in exp
	if fApB >= 0 {
		e := math.Exp(-fApB)
		return e / (1 + e)
	}
	return 1 / (1 + math.Exp(fApB))
}

// multiclassProbability couples the pairwise estimates r[i][j] ≈ P(i | i or j)
// into class probabilities p by method 2 of Wu, Lin and Weng (2004).
func multiclassProbability(k int, r [][]float64, p []float64) {
	maxIter := max(100, k)
	eps := 0.005 / float64(k)

	Q := mat.NewDense(k, k, nil)
	for t := 0; t < k; t++ {
		p[t] = 1 / float64(k)
		qtt := 0.0
		for j := 0; j < t; j++ {
			qtt += r[j][t] * r[j][t]
			Q.Set(t, j, Q.At(j, t))
		}
		for j := t + 1; j < k; j++ {
			qtt += r[j][t] * r[j][t]
			Q.Set(t, j, -r[j][t]*r[t][j])
		}
		Q.Set(t, t, qtt)
	}

	pv := mat.NewVecDense(k, p)
	Qp := mat.NewVecDense(k, nil)
	iter := 0
	for ; iter < maxIter; iter++ {
		// stopping condition, recompute Qp and pQp for numerical accuracy
		Qp.MulVec(Q, pv)
		pQp := mat.Dot(pv, Qp)

		maxError := 0.0
		for t := 0; t < k; t++ {
			maxError = math.Max(maxError, math.Abs(Qp.AtVec(t)-pQp))
		}
		if maxError < eps {
			break
		}

		for t := 0; t < k; t++ {
			qtt := Q.At(t, t)
			diff := (-Qp.AtVec(t) + pQp) / qtt
			p[t] += diff
			pQp = (pQp + diff*(diff*qtt+2*Qp.AtVec(t))) / (1 + diff) / (1 + diff)
			for j := 0; j < k; j++ {
				Qp.SetVec(j, (Qp.AtVec(j)+diff*Q.At(t, j))/(1+diff))
				p[j] /= 1 + diff
			}
		}
	}
	if iter >= maxIter {
		log.GetLoggerWithName("svm.probability").Debug("pairwise coupling reached max iterations",
			log.IterationKey, iter, log.ClassesKey, k)
	}
}

// binarySVCProbability estimates the sigmoid of a binary subproblem (labels
// ±1) from decision values of 5-fold cross-validation.
func binarySVCProbability(prob *Problem, param Parameter, Cp, Cn float64, rng *rand.Rand) (float64, float64, error) {
	l := prob.L()
	perm := shuffledIndices(l, rng)
	dec := make([]float64, l)

	sub := param
	sub.Probability = false
	sub.C = 1
	sub.WeightLabel = []int{+1, -1}
	sub.Weight = []float64{Cp, Cn}

	err := parallel.ForEach(probabilityFolds, param.NumWorkers, func(i int) error {
		begin := i * l / probabilityFolds
		end := (i + 1) * l / probabilityFolds

		rows := make([]int, 0, l-(end-begin))
		rows = append(rows, perm[:begin]...)
		rows = append(rows, perm[end:]...)
		part := prob.subset(rows)

		pCount, nCount := 0, 0
		for _, y := range part.Y {
			if y > 0 {
				pCount++
			} else {
				nCount++
			}
		}

		var fill float64
		switch {
		case pCount == 0 && nCount == 0:
			fill = 0
		case pCount > 0 && nCount == 0:
			fill = 1
		case pCount == 0 && nCount > 0:
			fill = -1
		default:
			submodel, err := trainClassifier(part, sub, log.GetLoggerWithName("svm.probability"))
			if err != nil {
				return err
			}
			for _, j := range perm[begin:end] {
				_, v, err := PredictValues(submodel, prob.X[j])
				if err != nil {
					return err
				}
				// ensure +1 −1 order
				dec[j] = v[0] * float64(submodel.Label[0])
			}
			return nil
		}
		for _, j := range perm[begin:end] {
			dec[j] = fill
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	A, B := sigmoidTrain(dec, prob.Y)
	return A, B, nil
}

// svrProbability returns the scale of a Laplace distribution fitted to 5-fold
// cross-validation residuals, ignoring residuals beyond 5σ.
func svrProbability(prob *Problem, param Parameter, rng *rand.Rand) (float64, error) {
	sub := param
	sub.Probability = false
	target, err := crossValidate(prob, sub, probabilityFolds, rng)
	if err != nil {
		return 0, err
	}

	l := prob.L()
	residual := make([]float64, l)
	mae := 0.0
	for i := range residual {
		residual[i] = prob.Y[i] - target[i]
		mae += math.Abs(residual[i])
	}
	mae /= float64(l)
	std := math.Sqrt(2 * mae * mae)

	count := 0
	mae = 0
	for _, r := range residual {
		if math.Abs(r) > 5*std {
			count++
		} else {
			mae += math.Abs(r)
		}
	}
	mae /= float64(l - count)

	log.GetLoggerWithName("svm.probability").Debug("svr laplace scale fitted",
		"sigma", mae, "outliers", count)
	return mae, nil
}

// oneClassProbability places density marks between the sorted training
// decision values: five quantiles of the negative side, zero, five of the
// positive side. It fails when either side has fewer than five points.
func oneClassProbability(prob *Problem, m *Model, logger log.Logger) ([]float64, bool) {
	l := prob.L()
	dec := make([]float64, l)
	for i, x := range prob.X {
		_, v, err := PredictValues(m, x)
		if err != nil {
			logger.Warn("one-class probability skipped", log.ErrAttrKey, err)
			return nil, false
		}
		dec[i] = v[0]
	}
	slices.Sort(dec)

	negCounter := 0
	for i, v := range dec {
		if v >= 0 {
			negCounter = i
			break
		}
	}
	posCounter := l - negCounter

	mid := densityMarks / 2
	if negCounter < mid || posCounter < mid {
		logger.Warn("too few points for one-class probability; model has no probability information",
			"negative", negCounter, "positive", posCounter)
		return nil, false
	}

	tmp := make([]float64, densityMarks+1)
	for i := 0; i < mid; i++ {
		tmp[i] = dec[i*negCounter/mid]
	}
	tmp[mid] = 0
	for i := mid + 1; i < densityMarks+1; i++ {
		tmp[i] = dec[negCounter-1+(i-mid)*posCounter/mid]
	}

	marks := make([]float64, densityMarks)
	for i := range marks {
		marks[i] = (tmp[i] + tmp[i+1]) / 2
	}
	return marks, true
}

// oneClassPredictProbability maps a decision value to P(inlier) by the
// density mark it falls under.
func oneClassPredictProbability(marks []float64, dec float64) float64 {
	n := len(marks)
	if dec < marks[0] {
		return 0.001
	}
	for i := 1; i < n; i++ {
		if dec < marks[i] {
			return float64(i) / float64(n)
		}
	}
	return 0.999
}

// shuffledIndices returns a Fisher–Yates permutation of [0, n).
func shuffledIndices(n int, rng *rand.Rand) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < n; i++ {
		j := i + rng.IntN(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}
