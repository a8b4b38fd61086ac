// Package metrics は交差検証と推定器の Score で使う評価指標を提供する。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gosvm/pkg/errors"
)

// checkPair は2つのベクトルが空でなく同じ長さであることを確認する
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yTrue.IsEmpty() || yTrue.Len() == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred == nil || yPred.IsEmpty() {
		return 0, errors.NewDimensionError(op, yTrue.Len(), 0, 0)
	}
	if yPred.Len() != yTrue.Len() {
		return 0, errors.NewDimensionError(op, yTrue.Len(), yPred.Len(), 0)
	}
	return yTrue.Len(), nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	yMean := mat.Sum(yTrue) / float64(n)

	// 全変動（TSS）と残差変動（RSS）
	var tss, rss float64
	for i := 0; i < n; i++ {
		t, p := yTrue.AtVec(i), yPred.AtVec(i)
		tss += (t - yMean) * (t - yMean)
		rss += (t - p) * (t - p)
	}

	// すべてのyTrueが同じ値
	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}

// SquaredCorrelation は yTrue と yPred の二乗相関係数を計算する。
// svm-train -v が回帰の交差検証で報告する値と同じ式を使う。
func SquaredCorrelation(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("SquaredCorrelation", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sumv, sumy, sumvv, sumyy, sumvy float64
	for i := 0; i < n; i++ {
		y, v := yTrue.AtVec(i), yPred.AtVec(i)
		sumv += v
		sumy += y
		sumvv += v * v
		sumyy += y * y
		sumvy += v * y
	}
	fn := float64(n)
	num := fn*sumvy - sumv*sumy
	den := (fn*sumvv - sumv*sumv) * (fn*sumyy - sumy*sumy)
	if den == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("SquaredCorrelation", "zero variance in yTrue or yPred", 0))
		return 0, nil
	}
	return num * num / den, nil
}
