package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer はスコアを計算できるモデルのインターフェース
type Scorer interface {
	// Score は分類なら正解率、回帰なら決定係数 R² を返す
	Score(X, y mat.Matrix) (float64, error)
}

// Estimator は学習・予測・学習状態の確認ができるモデル
type Estimator interface {
	Fitter
	Predictor
	IsFitted() bool
}

// Classifier は分類モデルのインターフェース
type Classifier interface {
	Estimator
	Scorer

	// DecisionFunction は一対一の各判別関数の値を返す (n_samples × K(K-1)/2)
	DecisionFunction(X mat.Matrix) (mat.Matrix, error)

	// PredictProba は各クラスの確率を返す
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes は学習時に見たクラスラベルを内部順序で返す
	Classes() []int
}

// Regressor は回帰モデルのインターフェース
type Regressor interface {
	Estimator
	Scorer
}

// OutlierDetector は教師なし外れ値検出モデルのインターフェース
type OutlierDetector interface {
	// FitUnsupervised はラベルなしデータで学習する
	FitUnsupervised(X mat.Matrix) error
	Predictor
	DecisionFunction(X mat.Matrix) (mat.Matrix, error)
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// ParameterGetter はハイパーパラメータを公開するモデル
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter はハイパーパラメータの変更を許すモデル
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}

// Persistable はファイルへの保存と読み込みができるモデル
type Persistable interface {
	Save(path string) error
	Load(path string) error
}
