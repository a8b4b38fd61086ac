package svm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gosvm/pkg/errors"
)

// ReadProblem parses the LIBSVM data format, one instance per line:
//
//	<label> <index1>:<value1> <index2>:<value2> ...
//
// Indices start at 1 (0 for the serial number of a precomputed kernel row)
// and must be ascending. Blank lines are skipped.
func ReadProblem(r io.Reader) (*Problem, error) {
	lr := &lineReader{r: bufio.NewReader(r)}
	prob := &Problem{}
	for {
		fields, ok, err := lr.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if len(fields) == 0 {
			continue
		}
		y, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, errors.NewValueError("svm.ReadProblem",
				fmt.Sprintf("line %d: invalid label %q", lr.line, fields[0]))
		}
		x, err := parseNodes(fields[1:])
		if err != nil {
			return nil, errors.NewValueError("svm.ReadProblem", fmt.Sprintf("line %d: %v", lr.line, err))
		}
		prob.Y = append(prob.Y, y)
		prob.X = append(prob.X, x)
	}
	if prob.L() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "svm.ReadProblem")
	}
	return prob, nil
}

// ReadProblemFile reads a LIBSVM data file.
func ReadProblemFile(path string) (*Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "svm.ReadProblemFile %s", path)
	}
	defer f.Close()
	prob, err := ReadProblem(f)
	if err != nil {
		return nil, errors.Wrapf(err, "svm.ReadProblemFile %s", path)
	}
	return prob, nil
}

// WriteProblem writes prob in the format read by ReadProblem.
func WriteProblem(w io.Writer, prob *Problem) error {
	bw := bufio.NewWriter(w)
	for i, y := range prob.Y {
		bw.WriteString(formatFloat(y))
		for _, n := range prob.X[i] {
			fmt.Fprintf(bw, " %d:%s", n.Index, formatFloat(n.Value))
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "svm.WriteProblem")
	}
	return nil
}

// ProblemFromMatrix converts the rows of X to sparse vectors, feature j
// becoming index j+1. y may be nil, in which case every label is +1.
func ProblemFromMatrix(X mat.Matrix, y []float64) (*Problem, error) {
	rows, _ := X.Dims()
	if y != nil && len(y) != rows {
		return nil, errors.NewDimensionError("svm.ProblemFromMatrix", rows, len(y), 0)
	}
	prob := &Problem{Y: make([]float64, rows), X: make([]Vector, rows)}
	for i := 0; i < rows; i++ {
		prob.X[i] = Dense(mat.Row(nil, i, X))
		if y != nil {
			prob.Y[i] = y[i]
		} else {
			prob.Y[i] = 1
		}
	}
	return prob, nil
}

// ProblemFromGram builds a precomputed-kernel problem from the square Gram
// matrix K of the training set; row i gets serial number i+1.
func ProblemFromGram(K mat.Matrix, y []float64) (*Problem, error) {
	rows, cols := K.Dims()
	if rows != cols {
		return nil, errors.NewDimensionError("svm.ProblemFromGram", rows, cols, 1)
	}
	if len(y) != rows {
		return nil, errors.NewDimensionError("svm.ProblemFromGram", rows, len(y), 0)
	}
	prob := &Problem{Y: append([]float64(nil), y...), X: make([]Vector, rows)}
	for i := 0; i < rows; i++ {
		prob.X[i] = Precomputed(i+1, mat.Row(nil, i, K))
	}
	return prob, nil
}
