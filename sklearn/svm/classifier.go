package svm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gosvm/core/model"
	"github.com/YuminosukeSato/gosvm/metrics"
	"github.com/YuminosukeSato/gosvm/pkg/errors"
	libsvm "github.com/YuminosukeSato/gosvm/svm"
)

var (
	_ model.Classifier      = (*SVC)(nil)
	_ model.Classifier      = (*NuSVC)(nil)
	_ model.ParameterSetter = (*SVC)(nil)
)

// classifier implements the shared surface of SVC and NuSVC.
type classifier struct {
	baseSVM
}

// Fit trains one-vs-one classifiers on X (n_samples × n_features) and the
// integer class labels y (n_samples × 1). With the precomputed kernel X is the
// n_samples × n_samples Gram matrix of the training set.
func (c *classifier) Fit(X, y mat.Matrix) error {
	rows, _ := X.Dims()
	labels, err := column(c.name+".Fit", y, rows)
	if err != nil {
		return err
	}
	for i, v := range labels {
		if v != math.Trunc(v) {
			return errors.NewValueError(c.name+".Fit",
				fmt.Sprintf("class labels must be integers, got %g at row %d", v, i))
		}
	}
	return c.fit(X, labels)
}

// Predict returns the predicted class of each row as an n_samples × 1 matrix.
// Rows hold test features, or with the precomputed kernel the kernel values
// against every training sample. Models fitted with probability calibration
// predict the class of highest probability.
func (c *classifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if c.model != nil && c.model.HasProbabilityModel() {
		proba, err := c.predictProba(X)
		if err != nil {
			return nil, err
		}
		rows, _ := proba.Dims()
		out := mat.NewDense(rows, 1, nil)
		for i := 0; i < rows; i++ {
			out.Set(i, 0, float64(c.model.Label[argmax(proba.RawRowView(i))]))
		}
		return out, nil
	}
	return c.predict(X)
}

// DecisionFunction returns the K(K−1)/2 pairwise decision values of each row
// in (0,1), (0,2), …, (K−2,K−1) order of Classes. A positive value votes for
// the first class of the pair.
func (c *classifier) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	return c.decisionFunction(X)
}

// PredictProba returns n_samples × K class probabilities with columns in
// Classes order. The estimator must be fitted with WithProbability(true).
func (c *classifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	return c.predictProba(X)
}

// Score returns the mean accuracy on (X, y).
func (c *classifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := c.Predict(X)
	if err != nil {
		return 0, err
	}
	rows, _ := pred.Dims()
	yTrue, err := column(c.name+".Score", y, rows)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(mat.NewVecDense(rows, yTrue), mat.NewVecDense(rows, mat.Col(nil, 0, pred)))
}

// Classes returns the class labels in the order used by DecisionFunction,
// PredictProba and NSupport: order of first appearance in y, except that a
// binary problem labelled {−1, +1} whose first sample is −1 is reordered to
// put +1 first.
func (c *classifier) Classes() []int {
	if c.model == nil {
		return nil
	}
	return c.model.Labels()
}

// SVC is C-support vector classification.
//
// 使用例:
//
//	clf := svm.NewSVC(svm.WithKernel("rbf"), svm.WithC(10), svm.WithGamma(0.5))
//	if err := clf.Fit(X, y); err != nil {
//	    return err
//	}
//	pred, err := clf.Predict(Xtest)
type SVC struct {
	classifier
}

// NewSVC creates a C-SVC with RBF kernel, C=1 and gamma=1/n_features by default.
func NewSVC(opts ...Option) *SVC {
	return &SVC{classifier{newBase("SVC", libsvm.CSVC, opts)}}
}

// NuSVC is nu-support vector classification. Nu upper-bounds the fraction of
// margin errors and lower-bounds the fraction of support vectors.
type NuSVC struct {
	classifier
}

// NewNuSVC creates a nu-SVC with nu=0.5 by default.
func NewNuSVC(opts ...Option) *NuSVC {
	return &NuSVC{classifier{newBase("NuSVC", libsvm.NuSVC, opts)}}
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
