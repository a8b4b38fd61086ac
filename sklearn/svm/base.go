package svm

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gosvm/core/model"
	"github.com/YuminosukeSato/gosvm/pkg/errors"
	"github.com/YuminosukeSato/gosvm/pkg/log"
	libsvm "github.com/YuminosukeSato/gosvm/svm"
)

// baseSVM carries the state common to every estimator: hyperparameters, the
// fitted flag and the trained model.
type baseSVM struct {
	name    string
	svmType libsvm.SVMType
	cfg     config
	state   *model.StateManager
	model   *libsvm.Model
}

func newBase(name string, t libsvm.SVMType, opts []Option) baseSVM {
	b := baseSVM{
		name:    name,
		svmType: t,
		cfg:     defaultConfig(),
		state:   model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(&b.cfg)
	}
	return b
}

// fit trains on the rows of X. y may be nil for one-class models.
func (b *baseSVM) fit(X mat.Matrix, y []float64) error {
	b.state.Reset()
	b.model = nil

	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.Wrapf(errors.ErrEmptyData, "%s.Fit", b.name)
	}
	param, err := b.cfg.parameter(b.svmType, cols)
	if err != nil {
		return err
	}

	var prob *libsvm.Problem
	if param.KernelType == libsvm.PrecomputedKernel {
		if y == nil {
			y = make([]float64, rows)
			for i := range y {
				y[i] = 1
			}
		}
		prob, err = libsvm.ProblemFromGram(X, y)
	} else {
		prob, err = libsvm.ProblemFromMatrix(X, y)
	}
	if err != nil {
		return err
	}

	m, err := libsvm.Train(prob, param)
	if err != nil {
		return errors.Wrapf(err, "%s.Fit", b.name)
	}
	b.model = m
	b.state.SetDimensions(cols, rows)
	b.state.SetFitted()

	log.GetLoggerWithName("sklearn.svm").Debug("estimator fitted",
		log.ModelNameKey, b.name,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.NSVKey, m.NumSupportVectors(),
		log.ConvergedKey, m.Converged,
	)
	return nil
}

// vectors converts prediction rows after checking the fitted state and width.
func (b *baseSVM) vectors(method string, X mat.Matrix) ([]libsvm.Vector, error) {
	if err := b.state.RequireFitted(b.name, method); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if err := b.state.RequireFeatures(b.name+"."+method, cols); err != nil {
		return nil, err
	}
	xs := make([]libsvm.Vector, rows)
	for i := 0; i < rows; i++ {
		row := mat.Row(nil, i, X)
		if b.model.Param.KernelType == libsvm.PrecomputedKernel {
			xs[i] = libsvm.Precomputed(i+1, row)
		} else {
			xs[i] = libsvm.Dense(row)
		}
	}
	return xs, nil
}

func (b *baseSVM) predict(X mat.Matrix) (*mat.Dense, error) {
	xs, err := b.vectors("Predict", X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(xs), 1, nil)
	for i, x := range xs {
		v, err := libsvm.Predict(b.model, x)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.Predict: row %d", b.name, i)
		}
		out.Set(i, 0, v)
	}
	return out, nil
}

func (b *baseSVM) decisionFunction(X mat.Matrix) (*mat.Dense, error) {
	xs, err := b.vectors("DecisionFunction", X)
	if err != nil {
		return nil, err
	}
	width := 1
	if b.svmType.IsClassifier() {
		k := b.model.NumClasses()
		if k < 2 {
			return nil, errors.NewValueError(b.name+".DecisionFunction",
				"model was fitted on a single class")
		}
		width = k * (k - 1) / 2
	}
	out := mat.NewDense(len(xs), width, nil)
	for i, x := range xs {
		_, dec, err := libsvm.PredictValues(b.model, x)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.DecisionFunction: row %d", b.name, i)
		}
		out.SetRow(i, dec)
	}
	return out, nil
}

func (b *baseSVM) predictProba(X mat.Matrix) (*mat.Dense, error) {
	xs, err := b.vectors("PredictProba", X)
	if err != nil {
		return nil, err
	}
	if !b.model.HasProbabilityModel() {
		return nil, errors.Wrapf(errors.ErrNoProbabilityModel,
			"%s.PredictProba: fit with WithProbability(true)", b.name)
	}
	var out *mat.Dense
	for i, x := range xs {
		_, probs, err := libsvm.PredictProbability(b.model, x)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.PredictProba: row %d", b.name, i)
		}
		if out == nil {
			out = mat.NewDense(len(xs), len(probs), nil)
		}
		out.SetRow(i, probs)
	}
	return out, nil
}

// IsFitted reports whether Fit has completed successfully.
func (b *baseSVM) IsFitted() bool {
	return b.state.IsFitted()
}

// Model returns the underlying trained model, or nil before Fit.
func (b *baseSVM) Model() *libsvm.Model {
	return b.model
}

// Converged reports whether every subproblem met the stopping tolerance.
func (b *baseSVM) Converged() bool {
	return b.model != nil && b.model.Converged
}

// Support returns the 0-based training row of each support vector.
func (b *baseSVM) Support() []int {
	if b.model == nil {
		return nil
	}
	idx := b.model.SupportVectorIndices()
	for i := range idx {
		idx[i]--
	}
	return idx
}

// SupportVectors returns the support vectors as dense rows. Models with a
// precomputed kernel hold no feature vectors and return nil.
func (b *baseSVM) SupportVectors() *mat.Dense {
	if b.model == nil || b.model.NumSupportVectors() == 0 ||
		b.model.Param.KernelType == libsvm.PrecomputedKernel {
		return nil
	}
	nFeatures, _ := b.state.GetDimensions()
	out := mat.NewDense(b.model.NumSupportVectors(), nFeatures, nil)
	for i, sv := range b.model.SV {
		for _, n := range sv {
			if n.Index >= 1 && n.Index <= nFeatures {
				out.Set(i, n.Index-1, n.Value)
			}
		}
	}
	return out
}

// NSupport returns the number of support vectors per class, in Classes order.
func (b *baseSVM) NSupport() []int {
	if b.model == nil || b.model.NSV == nil {
		return nil
	}
	return append([]int(nil), b.model.NSV...)
}

// DualCoef returns the signed coefficients y·α of the support vectors, one
// row per decision function (K−1 rows for K classes).
func (b *baseSVM) DualCoef() *mat.Dense {
	if b.model == nil || b.model.NumSupportVectors() == 0 {
		return nil
	}
	rows := len(b.model.SVCoef)
	out := mat.NewDense(rows, b.model.NumSupportVectors(), nil)
	for i, coef := range b.model.SVCoef {
		out.SetRow(i, coef)
	}
	return out
}

// Intercept returns the constant term of each decision function (−ρ).
func (b *baseSVM) Intercept() []float64 {
	if b.model == nil {
		return nil
	}
	out := make([]float64, len(b.model.Rho))
	for i, r := range b.model.Rho {
		out[i] = -r
	}
	return out
}

// GetParams returns the hyperparameters.
func (b *baseSVM) GetParams() map[string]interface{} {
	weights := make(map[int]float64, len(b.cfg.ClassWeight))
	for k, v := range b.cfg.ClassWeight {
		weights[k] = v
	}
	return map[string]interface{}{
		"kernel":       b.cfg.Kernel,
		"degree":       b.cfg.Degree,
		"gamma":        b.cfg.Gamma,
		"coef0":        b.cfg.Coef0,
		"C":            b.cfg.C,
		"nu":           b.cfg.Nu,
		"epsilon":      b.cfg.Epsilon,
		"tol":          b.cfg.Tol,
		"cache_size":   b.cfg.CacheSize,
		"shrinking":    b.cfg.Shrinking,
		"probability":  b.cfg.Probability,
		"class_weight": weights,
		"max_iter":     b.cfg.MaxIter,
		"random_state": b.cfg.RandomState,
		"n_jobs":       b.cfg.NumWorkers,
	}
}

// SetParams updates hyperparameters by name. The fitted model is kept until
// the next Fit.
func (b *baseSVM) SetParams(params map[string]interface{}) error {
	cfg := b.cfg
	for key, value := range params {
		var ok bool
		switch key {
		case "kernel":
			cfg.Kernel, ok = value.(string)
		case "degree":
			cfg.Degree, ok = value.(int)
		case "gamma":
			cfg.Gamma, ok = toFloat(value)
		case "coef0":
			cfg.Coef0, ok = toFloat(value)
		case "C":
			cfg.C, ok = toFloat(value)
		case "nu":
			cfg.Nu, ok = toFloat(value)
		case "epsilon":
			cfg.Epsilon, ok = toFloat(value)
		case "tol":
			cfg.Tol, ok = toFloat(value)
		case "cache_size":
			cfg.CacheSize, ok = toFloat(value)
		case "shrinking":
			cfg.Shrinking, ok = value.(bool)
		case "probability":
			cfg.Probability, ok = value.(bool)
		case "class_weight":
			var w map[int]float64
			if w, ok = value.(map[int]float64); ok {
				WithClassWeight(w)(&cfg)
			}
		case "max_iter":
			cfg.MaxIter, ok = value.(int)
		case "random_state":
			cfg.RandomState, ok = value.(uint64)
		case "n_jobs":
			cfg.NumWorkers, ok = value.(int)
		default:
			return errors.NewValidationError(key, "unknown parameter for "+b.name, value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	b.cfg = cfg
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	}
	return 0, false
}

// snapshot is the gob payload of an estimator. The trained model travels in
// the text model format so that both persistence paths share one codec.
type snapshot struct {
	Name    string
	SVMType int
	Config  config
	State   model.ModelState
	Model   []byte
}

// GobEncode lets model.SaveModel persist a fitted estimator.
func (b *baseSVM) GobEncode() ([]byte, error) {
	snap := snapshot{
		Name:    b.name,
		SVMType: int(b.svmType),
		Config:  b.cfg,
	}
	if b.state != nil {
		snap.State = b.state.GetState()
	}
	if b.model != nil {
		var buf bytes.Buffer
		if err := libsvm.SaveModel(&buf, b.model); err != nil {
			return nil, err
		}
		snap.Model = buf.Bytes()
	}

	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(snap); err != nil {
		return nil, errors.Wrap(err, "failed to encode estimator")
	}
	return out.Bytes(), nil
}

// GobDecode restores an estimator written by GobEncode. Decoding into an
// estimator of a different kind fails.
func (b *baseSVM) GobDecode(data []byte) error {
	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return errors.Wrap(err, "failed to decode estimator")
	}
	if b.name != "" && snap.Name != b.name {
		return errors.NewModelError(b.name+".GobDecode", "estimator kind mismatch",
			errors.Newf("payload holds %s", snap.Name))
	}

	var m *libsvm.Model
	if snap.Model != nil {
		var err error
		if m, err = libsvm.LoadModel(bytes.NewReader(snap.Model)); err != nil {
			return err
		}
	}

	b.name = snap.Name
	b.svmType = libsvm.SVMType(snap.SVMType)
	b.cfg = snap.Config
	b.model = m
	if b.state == nil {
		b.state = model.NewStateManager()
	}
	snap.State.Fitted = snap.State.Fitted && m != nil
	b.state.SetState(snap.State)
	return nil
}

// column extracts y as a slice; y must be a column or row vector of n values.
func column(op string, y mat.Matrix, n int) ([]float64, error) {
	if n == 0 {
		return nil, nil
	}
	rows, cols := y.Dims()
	switch {
	case cols == 1 && rows == n:
		return mat.Col(nil, 0, y), nil
	case rows == 1 && cols == n:
		return mat.Row(nil, 0, y), nil
	}
	if cols != 1 && rows != 1 {
		return nil, errors.NewValueError(op, fmt.Sprintf("y must be a vector, got shape (%d, %d)", rows, cols))
	}
	return nil, errors.NewDimensionError(op, n, max(rows, cols), 0)
}
