package svm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gosvm/pkg/errors"
)

func TestReadProblem(t *testing.T) {
	input := "+1 1:0.5 3:-1\n\n-1 2:2\n2.5\n"
	prob, err := ReadProblem(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []float64{1, -1, 2.5}, prob.Y)
	assert.Equal(t, Vector{{1, 0.5}, {3, -1}}, prob.X[0])
	assert.Equal(t, Vector{{2, 2}}, prob.X[1])
	assert.Empty(t, prob.X[2])
	assert.Equal(t, 3, prob.MaxIndex())

	var buf bytes.Buffer
	require.NoError(t, WriteProblem(&buf, prob))
	again, err := ReadProblem(&buf)
	require.NoError(t, err)
	assert.Equal(t, prob, again)
}

func TestReadProblemErrors(t *testing.T) {
	for name, input := range map[string]string{
		"bad label":   "x 1:1\n",
		"bad feature": "1 1:1 2\n",
		"descending":  "1 3:1 2:1\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadProblem(strings.NewReader(input))
			var ve *errors.ValueError
			assert.True(t, errors.As(err, &ve), "got %v", err)
		})
	}

	_, err := ReadProblem(strings.NewReader("\n\n"))
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestProblemFromMatrix(t *testing.T) {
	X := mat.NewDense(2, 3, []float64{
		1, 0, 2,
		0, 0, 3,
	})
	prob, err := ProblemFromMatrix(X, []float64{1, -1})
	require.NoError(t, err)
	assert.Equal(t, Vector{{1, 1}, {3, 2}}, prob.X[0])
	assert.Equal(t, Vector{{3, 3}}, prob.X[1])

	unlabelled, err := ProblemFromMatrix(X, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, unlabelled.Y)

	_, err = ProblemFromMatrix(X, []float64{1})
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestProblemFromGram(t *testing.T) {
	K := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	prob, err := ProblemFromGram(K, []float64{1, -1})
	require.NoError(t, err)
	assert.Equal(t, Vector{{0, 1}, {1, 1}, {2, 0}}, prob.X[0])
	require.NoError(t, paramWithKernel(PrecomputedKernel).Validate(prob))

	_, err = ProblemFromGram(mat.NewDense(2, 3, nil), []float64{1, -1})
	assert.Error(t, err)
}

func paramWithKernel(k KernelType) Parameter {
	p := DefaultParameter()
	p.KernelType = k
	return p
}
