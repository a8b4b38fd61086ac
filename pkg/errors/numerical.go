package errors

import (
	"math"
)

// finite は NaN でも ±Inf でもない値かどうかを返します。
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CheckNumericalStability は values の中で最初に見つかった NaN / Inf を
// NumericalInstabilityError として返します。Iteration にはその位置が入ります。
func CheckNumericalStability(operation string, values []float64) error {
	for i, v := range values {
		if !finite(v) {
			return NewNumericalInstabilityError(operation, []float64{v}, i)
		}
	}
	return nil
}

// CheckScalar checks a single value; index is reported as the position.
func CheckScalar(operation string, value float64, index int) error {
	if !finite(value) {
		return NewNumericalInstabilityError(operation, []float64{value}, index)
	}
	return nil
}

// ClipValue clamps value to [lo, hi]. NaN is returned unchanged.
func ClipValue(value, lo, hi float64) float64 {
	return math.Min(math.Max(value, lo), hi)
}
