package svm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gosvm/core/model"
	libsvm "github.com/YuminosukeSato/gosvm/svm"
)

var _ model.OutlierDetector = (*OneClassSVM)(nil)

// OneClassSVM estimates the support of a distribution. Predict returns +1 for
// inliers and −1 for outliers; Nu bounds the fraction of training outliers.
type OneClassSVM struct {
	baseSVM
}

// NewOneClassSVM creates a one-class SVM with RBF kernel and nu=0.5 by default.
func NewOneClassSVM(opts ...Option) *OneClassSVM {
	return &OneClassSVM{newBase("OneClassSVM", libsvm.OneClass, opts)}
}

// FitUnsupervised trains on the rows of X.
func (o *OneClassSVM) FitUnsupervised(X mat.Matrix) error {
	return o.fit(X, nil)
}

// Fit ignores y and trains on X.
func (o *OneClassSVM) Fit(X, _ mat.Matrix) error {
	return o.fit(X, nil)
}

// Predict returns +1 or −1 for each row as an n_samples × 1 matrix.
func (o *OneClassSVM) Predict(X mat.Matrix) (mat.Matrix, error) {
	return o.predict(X)
}

// DecisionFunction returns the signed distance to the separating surface;
// positive values are inliers.
func (o *OneClassSVM) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	return o.decisionFunction(X)
}

// PredictProba returns n_samples × 2 matrix of {P(inlier), P(outlier)}
// estimated from the decision value density of the training set. The
// estimator must be fitted with WithProbability(true).
func (o *OneClassSVM) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	return o.predictProba(X)
}
