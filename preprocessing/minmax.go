package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gosvm/core/model"
	"github.com/YuminosukeSato/gosvm/pkg/errors"
	"github.com/YuminosukeSato/gosvm/pkg/log"
	"github.com/YuminosukeSato/gosvm/svm"
)

var _ model.Transformer = (*MinMaxScaler)(nil)

// MinMaxScaler は各特徴量を [Lower, Upper] に線形変換する。
//
// svm-scale と同じ規則に従う:
//   - 疎データでは出現しない特徴量を 0 とみなして最小値・最大値を求める
//   - 最小値と最大値が等しい特徴量は出力から除外される（密行列では 0 になる）
//   - 変換後に 0 となった要素は疎ベクトルに含めない
//
// ScaleY が true のときはラベル y も [YLower, YUpper] に変換する。
type MinMaxScaler struct {
	state *model.StateManager

	Lower, Upper float64

	ScaleY         bool
	YLower, YUpper float64
	YMin, YMax     float64

	// FeatureMin, FeatureMax は特徴量インデックス（1始まり）で引く。
	// 添字 0 は使わない。
	FeatureMin []float64
	FeatureMax []float64
}

// NewMinMaxScaler は [lower, upper] に変換するスケーラーを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewMinMaxScaler(-1, 1)
//	if err := scaler.FitProblem(train); err != nil {
//	    return err
//	}
//	scaled, err := scaler.TransformProblem(test)
func NewMinMaxScaler(lower, upper float64) *MinMaxScaler {
	return &MinMaxScaler{
		state: model.NewStateManager(),
		Lower: lower,
		Upper: upper,
	}
}

// NewMinMaxScalerDefault は svm-scale の既定範囲 [-1, 1] で作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler(-1, 1)
}

// WithYRange はラベルのスケーリングを有効にする
func (m *MinMaxScaler) WithYRange(lower, upper float64) *MinMaxScaler {
	m.ScaleY = true
	m.YLower = lower
	m.YUpper = upper
	return m
}

// IsFitted は Fit 済みかどうかを返す
func (m *MinMaxScaler) IsFitted() bool {
	return m.state.IsFitted()
}

// NumFeatures は範囲を持つ最大の特徴量インデックスを返す
func (m *MinMaxScaler) NumFeatures() int {
	return max(len(m.FeatureMax)-1, 0)
}

func (m *MinMaxScaler) checkRanges() error {
	if !(m.Lower < m.Upper) {
		return errors.NewValidationError("lower", "must be smaller than upper", m.Lower)
	}
	if m.ScaleY && !(m.YLower < m.YUpper) {
		return errors.NewValidationError("y_lower", "must be smaller than y_upper", m.YLower)
	}
	return nil
}

// FitProblem は疎な訓練データから各特徴量とラベルの範囲を求める
func (m *MinMaxScaler) FitProblem(prob *svm.Problem) error {
	if err := m.checkRanges(); err != nil {
		return err
	}
	if prob == nil || prob.L() == 0 {
		return errors.NewModelError("MinMaxScaler.FitProblem", "empty data", errors.ErrEmptyData)
	}

	n := prob.MaxIndex()
	fmin := make([]float64, n+1)
	fmax := make([]float64, n+1)
	nonzero := make([]int, n+1)
	for i := 1; i <= n; i++ {
		fmin[i] = math.Inf(1)
		fmax[i] = math.Inf(-1)
	}
	for _, x := range prob.X {
		for _, node := range x {
			j := node.Index
			if j < 1 {
				continue
			}
			fmin[j] = math.Min(fmin[j], node.Value)
			fmax[j] = math.Max(fmax[j], node.Value)
			nonzero[j]++
		}
	}
	l := prob.L()
	for j := 1; j <= n; j++ {
		switch {
		case nonzero[j] == 0:
			fmin[j], fmax[j] = 0, 0
		case nonzero[j] < l:
			// 省略された要素は 0
			fmin[j] = math.Min(fmin[j], 0)
			fmax[j] = math.Max(fmax[j], 0)
		}
	}
	m.FeatureMin, m.FeatureMax = fmin, fmax

	m.YMin, m.YMax = prob.Y[0], prob.Y[0]
	for _, y := range prob.Y[1:] {
		m.YMin = math.Min(m.YMin, y)
		m.YMax = math.Max(m.YMax, y)
	}

	m.state.SetDimensions(n, l)
	m.state.SetFitted()
	return nil
}

// TransformProblem は prob を変換した新しい Problem を返す。prob は変更しない。
// 範囲を持たない特徴量インデックスは除外され、警告ログが一度だけ出る。
func (m *MinMaxScaler) TransformProblem(prob *svm.Problem) (*svm.Problem, error) {
	if err := m.state.RequireFitted("MinMaxScaler", "TransformProblem"); err != nil {
		return nil, err
	}
	if prob == nil {
		return nil, errors.NewValueError("MinMaxScaler.TransformProblem", "nil problem")
	}
	out := &svm.Problem{Y: make([]float64, prob.L()), X: make([]svm.Vector, prob.L())}
	unseen := 0
	for i, x := range prob.X {
		out.Y[i] = m.scaleTarget(prob.Y[i])
		v := make(svm.Vector, 0, len(x))
		next := 1
		emit := func(j int, value float64) {
			if s, ok := m.scaleFeature(j, value); ok && s != 0 {
				v = append(v, svm.Node{Index: j, Value: s})
			}
		}
		for _, node := range x {
			// 省略された 0 も変換後は 0 でなくなりうる
			for ; next < node.Index && next <= m.NumFeatures(); next++ {
				emit(next, 0)
			}
			if node.Index > m.NumFeatures() {
				unseen = max(unseen, node.Index)
			} else {
				emit(node.Index, node.Value)
			}
			next = max(next, node.Index+1)
		}
		for ; next <= m.NumFeatures(); next++ {
			emit(next, 0)
		}
		out.X[i] = v
	}
	if unseen > 0 {
		log.GetLoggerWithName("preprocessing").Warn(
			"feature index beyond the scaling range; the feature is dropped",
			"feature.index", unseen, log.FeaturesKey, m.NumFeatures())
	}
	return out, nil
}

// scaleFeature は特徴量 j の値を変換する。範囲が退化している場合は ok=false。
func (m *MinMaxScaler) scaleFeature(j int, value float64) (float64, bool) {
	if j >= len(m.FeatureMax) {
		return 0, false
	}
	lo, hi := m.FeatureMin[j], m.FeatureMax[j]
	if lo == hi {
		return 0, false
	}
	switch value {
	case lo:
		return m.Lower, true
	case hi:
		return m.Upper, true
	}
	return m.Lower + (m.Upper-m.Lower)*(value-lo)/(hi-lo), true
}

func (m *MinMaxScaler) scaleTarget(y float64) float64 {
	if !m.ScaleY {
		return y
	}
	switch y {
	case m.YMin:
		return m.YLower
	case m.YMax:
		return m.YUpper
	}
	return m.YLower + (m.YUpper-m.YLower)*(y-m.YMin)/(m.YMax-m.YMin)
}

// Fit は密行列の各列の範囲を求める。列 j は特徴量インデックス j+1 に対応する。
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	prob, err := svm.ProblemFromMatrix(X, nil)
	if err != nil {
		return err
	}
	if err := m.FitProblem(prob); err != nil {
		return err
	}
	// 末尾の全ゼロ列も範囲を持つ
	for len(m.FeatureMax) <= c {
		m.FeatureMin = append(m.FeatureMin, 0)
		m.FeatureMax = append(m.FeatureMax, 0)
	}
	m.state.SetDimensions(c, r)
	return nil
}

// Transform は密行列を変換する。範囲が退化した列は 0 になる。
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MinMaxScaler", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != m.NumFeatures() {
		return nil, errors.NewDimensionError("MinMaxScaler.Transform", m.NumFeatures(), c, 1)
	}
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		s, _ := m.scaleFeature(j+1, v)
		return s
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}
