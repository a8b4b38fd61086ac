package preprocessing

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gosvm/pkg/errors"
	"github.com/YuminosukeSato/gosvm/svm"
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})

	s := NewStandardScalerDefault()
	Xs, err := s.FitTransform(X)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, s.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.Scale[0], 1e-12)
	assert.Equal(t, 1.0, s.Scale[1], "constant column keeps unit scale")

	col := mat.Col(nil, 0, Xs)
	sum := 0.0
	for _, v := range col {
		sum += v
	}
	assert.InDelta(t, 0, sum, 1e-12)
	assert.Equal(t, []float64{0, 0, 0, 0}, mat.Col(nil, 1, Xs))

	back, err := s.InverseTransform(Xs)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))

	_, err = s.Transform(mat.NewDense(1, 3, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))

	_, err = NewStandardScalerDefault().Transform(X)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestMinMaxScaler_Problem(t *testing.T) {
	prob, err := svm.ReadProblem(strings.NewReader(
		"1 1:2 2:5\n" +
			"-1 1:4 3:7\n" +
			"1 1:6 2:-5 3:7\n"))
	require.NoError(t, err)

	s := NewMinMaxScalerDefault()
	require.NoError(t, s.FitProblem(prob))

	assert.Equal(t, 3, s.NumFeatures())
	assert.Equal(t, []float64{0, 2, -5, 0}, s.FeatureMin, "feature 3 is missing from one row and counts as 0")
	assert.Equal(t, []float64{0, 6, 5, 7}, s.FeatureMax)

	out, err := s.TransformProblem(prob)
	require.NoError(t, err)
	assert.Equal(t, prob.Y, out.Y)

	// row 0: 1:2 → -1, 2:5 → 1, implicit 3:0 → -1
	assert.Equal(t, svm.Vector{{Index: 1, Value: -1}, {Index: 2, Value: 1}, {Index: 3, Value: -1}}, out.X[0])
	// row 1: 1:4 → 0 (dropped), implicit 2:0 → 0 (dropped), 3:7 → 1
	assert.Equal(t, svm.Vector{{Index: 3, Value: 1}}, out.X[1])
	// input is left untouched
	assert.Equal(t, 2.0, prob.X[0][0].Value)
}

func TestMinMaxScaler_ConstantFeatureDropped(t *testing.T) {
	prob := &svm.Problem{
		Y: []float64{1, 2},
		X: []svm.Vector{
			{{Index: 1, Value: 3}, {Index: 2, Value: 1}},
			{{Index: 1, Value: 3}, {Index: 2, Value: 2}},
		},
	}
	s := NewMinMaxScaler(0, 1)
	require.NoError(t, s.FitProblem(prob))
	out, err := s.TransformProblem(prob)
	require.NoError(t, err)
	assert.Equal(t, svm.Vector{}, out.X[0])
	assert.Equal(t, svm.Vector{{Index: 2, Value: 1}}, out.X[1])
}

func TestMinMaxScaler_Target(t *testing.T) {
	prob := &svm.Problem{
		Y: []float64{10, 20, 15},
		X: []svm.Vector{{{Index: 1, Value: 1}}, {{Index: 1, Value: 2}}, {{Index: 1, Value: 3}}},
	}
	s := NewMinMaxScaler(-1, 1).WithYRange(0, 1)
	require.NoError(t, s.FitProblem(prob))
	out, err := s.TransformProblem(prob)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0.5}, out.Y)
}

func TestMinMaxScaler_UnseenFeature(t *testing.T) {
	train := &svm.Problem{Y: []float64{1, 1}, X: []svm.Vector{{{Index: 1, Value: 0}}, {{Index: 1, Value: 2}}}}
	test := &svm.Problem{Y: []float64{1}, X: []svm.Vector{{{Index: 1, Value: 1}, {Index: 4, Value: 9}}}}

	s := NewMinMaxScaler(0, 1)
	require.NoError(t, s.FitProblem(train))
	out, err := s.TransformProblem(test)
	require.NoError(t, err)
	assert.Equal(t, svm.Vector{{Index: 1, Value: 0.5}}, out.X[0])
}

func TestMinMaxScaler_Dense(t *testing.T) {
	X := mat.NewDense(3, 3, []float64{
		0, 1, 0,
		5, 1, 0,
		10, 1, 0,
	})
	s := NewMinMaxScaler(0, 1)
	Xs, err := s.FitTransform(X)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1}, mat.Col(nil, 0, Xs))
	assert.Equal(t, []float64{0, 0, 0}, mat.Col(nil, 1, Xs))
	assert.Equal(t, []float64{0, 0, 0}, mat.Col(nil, 2, Xs))

	_, err = s.Transform(mat.NewDense(1, 2, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestMinMaxScaler_InvalidRange(t *testing.T) {
	prob := &svm.Problem{Y: []float64{1}, X: []svm.Vector{{{Index: 1, Value: 1}}}}
	err := NewMinMaxScaler(1, -1).FitProblem(prob)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	err = NewMinMaxScaler(0, 1).FitProblem(&svm.Problem{})
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestMinMaxScaler_RangeRoundTrip(t *testing.T) {
	prob, err := svm.ReadProblem(strings.NewReader(
		"3.5 1:0.1 3:-2\n" +
			"7 1:0.7 2:4 3:1e-3\n" +
			"1 2:1\n"))
	require.NoError(t, err)

	s := NewMinMaxScaler(-1, 1).WithYRange(-2, 2)
	require.NoError(t, s.FitProblem(prob))

	var buf bytes.Buffer
	require.NoError(t, s.SaveRange(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "y\n-2 2\n1 7\nx\n-1 1\n1 0 0.7\n"), buf.String())

	restored, err := LoadRange(&buf)
	require.NoError(t, err)
	assert.True(t, restored.IsFitted())

	want, err := s.TransformProblem(prob)
	require.NoError(t, err)
	got, err := restored.TransformProblem(prob)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	path := filepath.Join(t.TempDir(), "range")
	require.NoError(t, s.SaveRangeFile(path))
	fromFile, err := LoadRangeFile(path)
	require.NoError(t, err)
	assert.Equal(t, restored.FeatureMax, fromFile.FeatureMax)
}

func TestLoadRange_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing x", "y\n0 1\n0 1\n"},
		{"bad header", "z\n0 1\n"},
		{"bad bounds", "x\n0\n"},
		{"descending index", "x\n0 1\n2 0 1\n1 0 1\n"},
		{"bad value", "x\n0 1\n1 a 1\n"},
		{"inverted bounds", "x\n1 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRange(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}

	_, err := LoadRange(strings.NewReader(""))
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}
