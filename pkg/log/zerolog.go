package log

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

func init() {
	zerolog.ErrorStackFieldName = StacktraceAttrKey
	zerolog.ErrorStackMarshaler = extractStacktrace
}

// extractStacktrace returns the first safe detail recorded by cockroachdb/errors,
// which holds the formatted stack of the innermost WithStack call.
func extractStacktrace(err error) interface{} {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return nil
}

// ZerologLogger implements Logger on top of a zerolog.Logger.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger creates a JSON logger writing to w at the given minimum level.
func NewZerologLogger(w io.Writer, level Level) *ZerologLogger {
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &ZerologLogger{zl: zl}
}

// NewZerologLoggerFrom wraps an existing zerolog.Logger.
func NewZerologLoggerFrom(zl zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{zl: zl}
}

func (l *ZerologLogger) Debug(msg string, fields ...any) {
	l.emit(l.zl.Debug(), msg, fields)
}

func (l *ZerologLogger) Info(msg string, fields ...any) {
	l.emit(l.zl.Info(), msg, fields)
}

func (l *ZerologLogger) Warn(msg string, fields ...any) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *ZerologLogger) Error(msg string, fields ...any) {
	l.emit(l.zl.Error(), msg, fields)
}

// With returns a child logger carrying fields on every record.
func (l *ZerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	if len(fields) > 0 {
		ctx = ctx.Fields(pairs(fields))
	}
	return &ZerologLogger{zl: ctx.Logger()}
}

// Enabled reports whether level passes both the logger and the global zerolog level.
func (l *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	zlevel := toZerologLevel(level)
	return zlevel >= l.zl.GetLevel() && zlevel >= zerolog.GlobalLevel()
}

// Zerolog exposes the underlying logger for callers that need zerolog specific APIs.
func (l *ZerologLogger) Zerolog() zerolog.Logger {
	return l.zl
}

func (l *ZerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			e = e.Stack().Err(err)
			fields = fields[1:]
		}
	}
	if len(fields) > 0 {
		e = e.Fields(pairs(fields))
	}
	e.Msg(msg)
}

// pairs drops a trailing key that has no value.
func pairs(fields []any) []interface{} {
	out := make([]interface{}, 0, len(fields))
	for i := 0; i+1 < len(fields); i += 2 {
		out = append(out, fields[i], fields[i+1])
	}
	return out
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// zerologProvider hands out named children of one root logger.
type zerologProvider struct {
	root *ZerologLogger
}

func (p *zerologProvider) GetLogger() Logger {
	return p.root
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	return p.root.With(ComponentKey, name)
}

func (p *zerologProvider) SetLevel(level Level) {
	p.root = &ZerologLogger{zl: p.root.zl.Level(toZerologLevel(level))}
}
