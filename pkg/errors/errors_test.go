package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Train",
			kind:    "pairwise subproblem failed",
			err:     fmt.Errorf("test error"),
			wantMsg: "gosvm: Train: pairwise subproblem failed: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "empty model",
			err:     nil,
			wantMsg: "gosvm: Predict: empty model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Problem.Validate", 10, 9, 0)

	want := "gosvm: Problem.Validate: dimension mismatch on axis 0 (rows). Expected 10, got 9"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Fatal("Error should be castable to *DimensionError")
	}
	if dimErr.Got != 9 {
		t.Errorf("Got = %d, want 9", dimErr.Got)
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("SVC", "Predict")

	want := "gosvm: SVC: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("nu", "must be in (0, 1]", 1.5)

	want := "gosvm: validation failed for parameter 'nu': must be in (0, 1] (got: 1.5)"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var valErr *ValidationError
	if !As(err, &valErr) {
		t.Fatal("Error should be castable to *ValidationError")
	}
	if valErr.ParamName != "nu" {
		t.Errorf("ParamName = %q, want nu", valErr.ParamName)
	}
}

func TestNewModelFormatError(t *testing.T) {
	tests := []struct {
		name    string
		line    int
		field   string
		reason  string
		wantMsg string
	}{
		{
			name:    "with line",
			line:    7,
			field:   "rho",
			reason:  "expected 3 values, got 2",
			wantMsg: "gosvm: corrupt model at line 7 (rho): expected 3 values, got 2",
		},
		{
			name:    "structural",
			line:    0,
			field:   "SV",
			reason:  "truncated support vector section",
			wantMsg: "gosvm: corrupt model (SV): truncated support vector section",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelFormatError(tt.line, tt.field, tt.reason)
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}
			var mfErr *ModelFormatError
			if !As(err, &mfErr) {
				t.Error("Error should be castable to *ModelFormatError")
			}
		})
	}
}

func TestNewConvergenceWarning(t *testing.T) {
	warn := NewConvergenceWarning("SMO", 10000000, "")

	if !strings.Contains(warn.Error(), "SMO failed to converge after 10000000 iterations") {
		t.Errorf("unexpected message: %s", warn.Error())
	}

	withMsg := NewConvergenceWarning("SMO", 5, "max violation 0.5")
	want := "SMO failed to converge after 5 iterations: max violation 0.5"
	if withMsg.Error() != want {
		t.Errorf("Error() = %v, want %v", withMsg.Error(), want)
	}
}

func TestWarnHandlers(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(func(w error) {})

	Warn(NewConvergenceWarning("SMO", 1, ""))
	if len(got) != 1 {
		t.Fatalf("handler called %d times, want 1", len(got))
	}

	// zerolog 関数が設定されている場合はそちらが優先される
	var viaZerolog int
	SetZerologWarnFunc(func(error) { viaZerolog++ })
	defer SetZerologWarnFunc(nil)

	Warn(NewUndefinedMetricWarning("SquaredCorrelation", "zero variance", 0))
	if viaZerolog != 1 {
		t.Errorf("zerolog warn func called %d times, want 1", viaZerolog)
	}
	if len(got) != 1 {
		t.Errorf("legacy handler should not be called when zerolog func is set")
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("op", []float64{1, 2, 3}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := CheckNumericalStability("Problem.Validate", []float64{1, 2, 3, 4, math.NaN(), math.Inf(1)})
	if err == nil {
		t.Fatal("expected error for NaN")
	}
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatal("Error should be castable to *NumericalInstabilityError")
	}
	if numErr.Iteration != 4 {
		t.Errorf("Iteration = %d, want 4", numErr.Iteration)
	}
	if len(numErr.Values) != 1 || !math.IsNaN(numErr.Values[0]) {
		t.Errorf("Values = %v, want only the offending NaN", numErr.Values)
	}

	if err := CheckScalar("op", math.Inf(1), 0); err == nil {
		t.Error("expected error for +Inf")
	}
}

func TestClipValue(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-1, 0, 1, 0},
		{2, 0, 1, 1},
		{1e-9, 1e-7, 1 - 1e-7, 1e-7},
	}
	for _, tt := range tests {
		if got := ClipValue(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("ClipValue(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestSentinelErrors(t *testing.T) {
	wrapped := Wrap(ErrEmptyData, "Train")
	if !Is(wrapped, ErrEmptyData) {
		t.Error("wrapped error should match ErrEmptyData")
	}
	if !strings.HasPrefix(wrapped.Error(), "Train: ") {
		t.Errorf("unexpected wrap message: %s", wrapped.Error())
	}
}
