package svm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gosvm/core/model"
	"github.com/YuminosukeSato/gosvm/metrics"
	"github.com/YuminosukeSato/gosvm/pkg/errors"
	libsvm "github.com/YuminosukeSato/gosvm/svm"
)

var (
	_ model.Regressor = (*SVR)(nil)
	_ model.Regressor = (*NuSVR)(nil)
)

type regressor struct {
	baseSVM
}

// Fit trains on X (n_samples × n_features) and real-valued targets y.
func (r *regressor) Fit(X, y mat.Matrix) error {
	rows, _ := X.Dims()
	target, err := column(r.name+".Fit", y, rows)
	if err != nil {
		return err
	}
	return r.fit(X, target)
}

// Predict returns the regression value of each row as an n_samples × 1 matrix.
func (r *regressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	return r.predict(X)
}

// Score returns the coefficient of determination R² on (X, y).
func (r *regressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := r.predict(X)
	if err != nil {
		return 0, err
	}
	rows, _ := pred.Dims()
	yTrue, err := column(r.name+".Score", y, rows)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(mat.NewVecDense(rows, yTrue), mat.NewVecDense(rows, pred.RawMatrix().Data))
}

// Sigma returns the scale of the Laplace distribution fitted to the
// cross-validated residuals. The estimator must be fitted with
// WithProbability(true).
func (r *regressor) Sigma() (float64, error) {
	if err := r.state.RequireFitted(r.name, "Sigma"); err != nil {
		return 0, err
	}
	if !r.model.HasProbabilityModel() {
		return 0, errors.Wrapf(errors.ErrNoProbabilityModel, "%s.Sigma", r.name)
	}
	return r.model.SVRProbability(), nil
}

// SVR is epsilon-support vector regression. Errors within Epsilon of the
// target are not penalized.
type SVR struct {
	regressor
}

// NewSVR creates an epsilon-SVR with C=1 and epsilon=0.1 by default.
func NewSVR(opts ...Option) *SVR {
	return &SVR{regressor{newBase("SVR", libsvm.EpsilonSVR, opts)}}
}

// NuSVR is nu-support vector regression: nu replaces epsilon and bounds the
// fraction of support vectors.
type NuSVR struct {
	regressor
}

// NewNuSVR creates a nu-SVR with C=1 and nu=0.5 by default.
func NewNuSVR(opts ...Option) *NuSVR {
	return &NuSVR{regressor{newBase("NuSVR", libsvm.NuSVR, opts)}}
}
