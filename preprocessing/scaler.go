// Package preprocessing は学習前の特徴量スケーリングを提供する。
//
// SVMはRBFカーネルなど距離に依存するカーネルを使うため、特徴量のスケールを
// 揃えることが精度と収束速度の両方に効く。MinMaxScaler は svm-scale と同じ
// 規則で疎な svm.Problem と密行列の両方を変換する。
package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/gosvm/core/model"
	"github.com/YuminosukeSato/gosvm/pkg/errors"
)

var _ model.Transformer = (*StandardScaler)(nil)

// StandardScaler はscikit-learn互換の標準化スケーラー
// データを平均0、標準偏差1に変換する
type StandardScaler struct {
	state *model.StateManager

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(X)
//	XScaled, err := scaler.Transform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// IsFitted は Fit 済みかどうかを返す
func (s *StandardScaler) IsFitted() bool {
	return s.state.IsFitted()
}

// Fit は訓練データから統計情報（平均、標準偏差）を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, std := stat.PopMeanStdDev(col, nil)
		if s.WithMean {
			s.Mean[j] = mean
		}
		s.Scale[j] = 1.0
		// 標準偏差が0に近い場合は1のまま（ゼロ除算を避ける）
		if s.WithStd && std >= 1e-8 {
			s.Scale[j] = std
		}
	}

	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("StandardScaler", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("StandardScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return result, nil
}

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}
