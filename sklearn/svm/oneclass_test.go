package svm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gosvm/core/model"
)

func TestOneClassSVM_OutlierFraction(t *testing.T) {
	X, _ := blobs(11, 200, 1.0, []float64{0, 0})

	det := NewOneClassSVM(WithNu(0.1), WithGamma(0.5))
	require.NoError(t, det.FitUnsupervised(X))

	pred, err := det.Predict(X)
	require.NoError(t, err)
	outliers := 0
	for i := 0; i < 200; i++ {
		v := pred.At(i, 0)
		require.Contains(t, []float64{1, -1}, v)
		if v < 0 {
			outliers++
		}
	}
	frac := float64(outliers) / 200
	assert.InDelta(t, 0.1, frac, 0.05)

	far := mat.NewDense(1, 2, []float64{8, 8})
	farPred, err := det.Predict(far)
	require.NoError(t, err)
	assert.Equal(t, -1.0, farPred.At(0, 0))

	dec, err := det.DecisionFunction(far)
	require.NoError(t, err)
	assert.Less(t, dec.At(0, 0), 0.0)
}

func TestOneClassSVM_FitIgnoresTargets(t *testing.T) {
	X, y := blobs(12, 30, 1.0, []float64{1, 1})

	a := NewOneClassSVM()
	require.NoError(t, a.Fit(X, y))
	b := NewOneClassSVM()
	require.NoError(t, b.Fit(X, nil))

	da, err := a.DecisionFunction(X)
	require.NoError(t, err)
	db, err := b.DecisionFunction(X)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestOneClassSVM_PredictProba(t *testing.T) {
	X, _ := blobs(13, 100, 1.0, []float64{0, 0})

	det := NewOneClassSVM(WithNu(0.2), WithProbability(true))
	require.NoError(t, det.FitUnsupervised(X))

	proba, err := det.PredictProba(X)
	require.NoError(t, err)
	rows, cols := proba.Dims()
	require.Equal(t, 100, rows)
	require.Equal(t, 2, cols)
	for i := 0; i < rows; i++ {
		assert.InDelta(t, 1.0, proba.At(i, 0)+proba.At(i, 1), 1e-12)
	}

	inlier, err := det.PredictProba(mat.NewDense(1, 2, []float64{0, 0}))
	require.NoError(t, err)
	outlier, err := det.PredictProba(mat.NewDense(1, 2, []float64{10, 10}))
	require.NoError(t, err)
	assert.Greater(t, inlier.At(0, 0), outlier.At(0, 0))
}

func TestOneClassSVM_Persistence(t *testing.T) {
	X, _ := blobs(14, 40, 1.0, []float64{0, 0})
	det := NewOneClassSVM(WithNu(0.3))
	require.NoError(t, det.FitUnsupervised(X))

	path := t.TempDir() + "/ocsvm.gob"
	require.NoError(t, model.SaveModel(det, path))
	loaded := NewOneClassSVM()
	require.NoError(t, model.LoadModel(loaded, path))

	want, err := det.DecisionFunction(X)
	require.NoError(t, err)
	got, err := loaded.DecisionFunction(X)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
