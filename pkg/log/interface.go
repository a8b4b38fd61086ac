// Package log provides the structured logging interface used across gosvm.
//
// The interface is slog-shaped so callers can plug any backend in, while the
// default provider is backed by zerolog (see zerolog.go). Training code logs
// solver progress at debug level and convergence problems at warn level.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("svm.train").With(
//	    log.SVMTypeKey, "c_svc",
//	    log.KernelKey, "rbf",
//	)
//	logger.Info("Training started",
//	    log.SamplesKey, 1000,
//	    log.FeaturesKey, 5,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are passed as alternating key/value pairs. If the first field given
// to Error is an error value, implementations attach it under the "error" key
// together with its stack trace when one is available.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	//
	// Example:
	//   logger.Error("Model load failed",
	//       err,
	//       log.OperationKey, "load",
	//   )
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	// Use it to skip building expensive fields:
	//
	//   if logger.Enabled(ctx, LevelDebug) {
	//       logger.Debug("Gradient", "g", snapshot())
	//   }
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider defines an interface for creating and configuring loggers.
// SetProvider swaps the process-wide provider, which is how tests capture
// logs emitted deep inside the solver.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger with a specific name/component identifier.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}
