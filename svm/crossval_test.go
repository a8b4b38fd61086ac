package svm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/gosvm/pkg/errors"
	"github.com/YuminosukeSato/gosvm/pkg/log"
)

func TestCrossValidateLeaveOneOut(t *testing.T) {
	prob := blobs(51, 8, [][]float64{{-3, 0}, {3, 0}}, []float64{1, -1}, 0.5)
	l := prob.L()

	captured := log.CaptureLogs(t, log.LevelWarn)

	// nfold > l falls back to l folds, one held-out instance each
	target, err := CrossValidate(prob, DefaultParameter(), l+5)
	require.NoError(t, err)
	require.Len(t, target, l)
	_, ok := captured.Find(log.LevelWarn, "leave-one-out")
	assert.True(t, ok)

	for i := range target {
		assert.Equal(t, prob.Y[i], target[i], "held-out instance %d", i)
	}

	same, err := CrossValidate(prob, DefaultParameter(), l)
	require.NoError(t, err)
	assert.Equal(t, target, same)
}

func TestCrossValidateStratified(t *testing.T) {
	prob := blobs(52, 30, [][]float64{{0, 0}, {2, 2}, {4, 0}}, []float64{1, 2, 3}, 0.6)
	perm, foldStart := stratifiedFolds(prob, 5, probabilityRNG(DefaultParameter(), crossValidationStream))

	require.Len(t, foldStart, 6)
	assert.Equal(t, prob.L(), foldStart[5])
	seen := make(map[int]bool)
	for f := 0; f < 5; f++ {
		counts := map[float64]int{}
		for _, i := range perm[foldStart[f]:foldStart[f+1]] {
			counts[prob.Y[i]]++
			seen[i] = true
		}
		// 30 per class over 5 folds
		assert.Equal(t, map[float64]int{1: 6, 2: 6, 3: 6}, counts, "fold %d", f)
	}
	assert.Len(t, seen, prob.L(), "every instance is held out exactly once")
}

func TestCrossValidateDeterministic(t *testing.T) {
	prob := blobs(53, 20, [][]float64{{0, 0}, {1, 1}, {2, 0}}, []float64{1, 2, 3}, 0.8)
	param := DefaultParameter()
	param.Probability = true
	param.NumWorkers = 1
	a, err := CrossValidate(prob, param, 4)
	require.NoError(t, err)
	param.NumWorkers = 4
	b, err := CrossValidate(prob, param, 4)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	param.Seed = 99
	_, err = CrossValidate(prob, param, 4)
	require.NoError(t, err)
}

func TestCrossValidateRegression(t *testing.T) {
	prob := linearTargets(54, 40, 0.05)
	param := DefaultParameter()
	param.SVMType = EpsilonSVR
	param.KernelType = Linear
	target, err := CrossValidate(prob, param, 5)
	require.NoError(t, err)
	for i := range target {
		assert.InDelta(t, prob.Y[i], target[i], 0.5)
	}
}

func TestCrossValidateRejectsBadFolds(t *testing.T) {
	_, err := CrossValidate(binaryProblem(), DefaultParameter(), 1)
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "nfold", ve.ParamName)
}
