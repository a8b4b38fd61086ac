// Package errors provides error handling utilities for gosvm.
//
// This file contains panic recovery utilities used by the worker pool so that a
// panic inside one pairwise subproblem or cross-validation fold surfaces as an
// error from Train instead of terminating the process.

package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicError represents an error that was created from a recovered panic.
// It includes the original panic value and stack trace information.
type PanicError struct {
	// PanicValue is the original value passed to panic()
	PanicValue interface{}

	// StackTrace contains the stack trace at the time of panic
	StackTrace string

	// Operation identifies where the panic was recovered
	Operation string
}

// Error implements the error interface for PanicError.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// String provides detailed information including stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s",
		e.Operation, e.PanicValue, e.StackTrace)
}

// NewPanicError creates a new PanicError with the given operation context and panic value.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover is used with defer to convert a panic into an error assigned to *err.
//
// Usage:
//
//	func SomeMethod() (err error) {
//	    defer Recover(&err, "SomeMethod")
//	    // ... method implementation ...
//	    return nil
//	}
//
// If the function already has an error, the panic information wraps it.
func Recover(err *error, operation string) {
	if r := recover(); r != nil {
		panicErr := NewPanicError(operation, r)

		if *err != nil {
			*err = fmt.Errorf("panic in %s: %v (original error: %w)",
				operation, r, *err)
		} else {
			*err = panicErr
		}
	}
}

// SafeExecute executes fn and converts any panic into a *PanicError.
//
// Example:
//
//	err := SafeExecute("pairwise subproblem 0-1", func() error {
//	    return trainPair(0, 1)
//	})
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
