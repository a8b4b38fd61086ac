package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/gosvm/pkg/errors"
)

var (
	providerMu sync.RWMutex
	provider   LoggerProvider = &zerologProvider{root: NewZerologLogger(os.Stderr, LevelWarn)}
)

// GetLogger returns the process-wide default logger.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLogger()
}

// GetLoggerWithName returns a logger tagged with the given component name.
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLoggerWithName(name)
}

// SetProvider replaces the global provider and returns the previous one.
func SetProvider(p LoggerProvider) LoggerProvider {
	providerMu.Lock()
	defer providerMu.Unlock()
	prev := provider
	provider = p
	return prev
}

// SetLogger installs l as the root of a zerolog provider.
func SetLogger(l *ZerologLogger) {
	SetProvider(&zerologProvider{root: l})
}

// SetupLogger configures JSON logging to stderr at the given level and routes
// library warnings (errors.Warn) to the same sink.
func SetupLogger(loglevel string) error {
	return setup(os.Stderr, loglevel, false)
}

// SetupConsoleLogger is SetupLogger with human friendly console output, used by the CLI tools.
func SetupConsoleLogger(loglevel string) error {
	return setup(os.Stderr, loglevel, true)
}

func setup(w io.Writer, loglevel string, console bool) error {
	level, err := ToLogLevel(loglevel)
	if err != nil {
		return err
	}
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	root := NewZerologLogger(w, level)
	SetLogger(root)
	RouteWarnings(root)
	return nil
}

// RouteWarnings sends errors.Warn output through l at warn level.
// Warnings that implement zerolog.LogObjectMarshaler keep their structured fields.
func RouteWarnings(l *ZerologLogger) {
	zl := l.Zerolog()
	errors.SetZerologWarnFunc(func(w error) {
		e := zl.Warn()
		if obj, ok := w.(zerolog.LogObjectMarshaler); ok {
			e = e.EmbedObject(obj)
		}
		e.Msg(w.Error())
	})
}

// ToLogLevel parses "debug", "info", "warn" or "error".
func ToLogLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewValueError("log.ToLogLevel", fmt.Sprintf("invalid log level: %s", level))
	}
}
