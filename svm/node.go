package svm

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/gosvm/pkg/errors"
)

// Node is one (index, value) feature of a sparse vector.
type Node struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// maxSerialNumber bounds the row ids a precomputed-kernel vector may carry.
const maxSerialNumber = math.MaxInt32

// serialNumber returns the 1-based row id held in slot 0 of a
// precomputed-kernel vector.
func serialNumber(x Vector) (int, bool) {
	if len(x) == 0 || x[0].Index != 0 {
		return 0, false
	}
	id := x[0].Value
	if id != math.Trunc(id) || id < 1 || id > maxSerialNumber {
		return 0, false
	}
	return int(id), true
}

// Vector is a sparse feature vector ordered by strictly ascending Index.
// Vectors are treated as immutable once handed to Train or Predict.
type Vector []Node

// Dense builds a Vector from dense feature values. Feature j gets index j+1
// and zero entries are omitted.
func Dense(values []float64) Vector {
	v := make(Vector, 0, len(values))
	for j, x := range values {
		if x != 0 {
			v = append(v, Node{Index: j + 1, Value: x})
		}
	}
	return v
}

// Precomputed builds a row of a precomputed kernel matrix: slot 0 holds the
// 1-based row id and slots 1..len(row) hold K(x_id, x_j). Zeros are kept since
// the kernel value is looked up by position.
func Precomputed(id int, row []float64) Vector {
	v := make(Vector, len(row)+1)
	v[0] = Node{Index: 0, Value: float64(id)}
	for j, x := range row {
		v[j+1] = Node{Index: j + 1, Value: x}
	}
	return v
}

// MaxIndex returns the largest feature index in v, or 0 when v is empty.
func (v Vector) MaxIndex() int {
	if len(v) == 0 {
		return 0
	}
	return v[len(v)-1].Index
}

// Problem is a training set. Y holds class labels or regression targets,
// X the matching feature vectors.
type Problem struct {
	Y []float64
	X []Vector
}

// L returns the number of training instances.
func (p *Problem) L() int {
	return len(p.Y)
}

// MaxIndex returns the largest feature index over all vectors.
func (p *Problem) MaxIndex() int {
	m := 0
	for _, x := range p.X {
		if idx := x.MaxIndex(); idx > m {
			m = idx
		}
	}
	return m
}

// subset returns the problem restricted to the given rows. Vectors are shared.
func (p *Problem) subset(rows []int) *Problem {
	sub := &Problem{Y: make([]float64, len(rows)), X: make([]Vector, len(rows))}
	for k, r := range rows {
		sub.Y[k] = p.Y[r]
		sub.X[k] = p.X[r]
	}
	return sub
}

// Validate rejects empty problems, label/vector count mismatches, non-finite
// values and vectors whose indices are not strictly ascending.
func (p *Problem) Validate() error {
	if p == nil || len(p.Y) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "Problem.Validate")
	}
	if len(p.X) != len(p.Y) {
		return errors.NewDimensionError("Problem.Validate", len(p.Y), len(p.X), 0)
	}
	if err := errors.CheckNumericalStability("Problem.Validate label", p.Y); err != nil {
		return err
	}
	for i, x := range p.X {
		if err := x.validate(i); err != nil {
			return err
		}
	}
	return nil
}

func (v Vector) validate(row int) error {
	prev := -1
	for _, n := range v {
		if n.Index <= prev {
			return errors.NewValueError("Problem.Validate",
				fmt.Sprintf("row %d: feature indices must be strictly ascending (got %d after %d)", row, n.Index, prev))
		}
		if err := errors.CheckScalar("Problem.Validate feature", n.Value, row); err != nil {
			return err
		}
		prev = n.Index
	}
	return nil
}

func dot(x, y Vector) float64 {
	sum := 0.0
	i, j := 0, 0
	for i < len(x) && j < len(y) {
		switch {
		case x[i].Index == y[j].Index:
			sum += x[i].Value * y[j].Value
			i++
			j++
		case x[i].Index > y[j].Index:
			j++
		default:
			i++
		}
	}
	return sum
}

// squaredDistance computes ‖x−y‖² by merging the two index lists.
func squaredDistance(x, y Vector) float64 {
	sum := 0.0
	i, j := 0, 0
	for i < len(x) && j < len(y) {
		switch {
		case x[i].Index == y[j].Index:
			d := x[i].Value - y[j].Value
			sum += d * d
			i++
			j++
		case x[i].Index > y[j].Index:
			sum += y[j].Value * y[j].Value
			j++
		default:
			sum += x[i].Value * x[i].Value
			i++
		}
	}
	for ; i < len(x); i++ {
		sum += x[i].Value * x[i].Value
	}
	for ; j < len(y); j++ {
		sum += y[j].Value * y[j].Value
	}
	return sum
}
