package log

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// Record is one log call captured by a TestLogger.
type Record struct {
	Level   Level
	Message string
	Fields  map[string]any
}

// recorder is the state shared by a TestLogger and the children derived from it.
type recorder struct {
	mu      sync.Mutex
	level   Level
	records []Record
}

// TestLogger keeps log calls in memory so tests can assert on them.
// It implements both Logger and LoggerProvider, and is safe for concurrent use.
type TestLogger struct {
	rec    *recorder
	fields map[string]any
}

// NewTestLogger returns a TestLogger that keeps records at level and above.
func NewTestLogger(level Level) *TestLogger {
	return &TestLogger{rec: &recorder{level: level}, fields: map[string]any{}}
}

// CaptureLogs installs a TestLogger as the global provider until the test ends.
// Tests that call it must not run in parallel with other tests of the package.
func CaptureLogs(tb testing.TB, level Level) *TestLogger {
	tb.Helper()
	tl := NewTestLogger(level)
	prev := SetProvider(tl)
	tb.Cleanup(func() { SetProvider(prev) })
	return tl
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.record(LevelDebug, msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.record(LevelInfo, msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.record(LevelWarn, msg, fields) }
func (t *TestLogger) Error(msg string, fields ...any) { t.record(LevelError, msg, fields) }

// With returns a child whose records carry fields and land in the same store.
func (t *TestLogger) With(fields ...any) Logger {
	child := &TestLogger{rec: t.rec, fields: make(map[string]any, len(t.fields)+len(fields)/2)}
	for k, v := range t.fields {
		child.fields[k] = v
	}
	mergeFields(child.fields, fields)
	return child
}

// Enabled reports whether records at level are kept.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	return level >= t.rec.level
}

// GetLogger returns the logger itself.
func (t *TestLogger) GetLogger() Logger { return t }

// GetLoggerWithName returns a child tagged with ComponentKey.
func (t *TestLogger) GetLoggerWithName(name string) Logger {
	return t.With(ComponentKey, name)
}

// SetLevel changes the minimum level for the logger and all of its children.
func (t *TestLogger) SetLevel(level Level) {
	t.rec.mu.Lock()
	t.rec.level = level
	t.rec.mu.Unlock()
}

// Records returns a copy of the captured records in call order.
func (t *TestLogger) Records() []Record {
	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	out := make([]Record, len(t.rec.records))
	copy(out, t.rec.records)
	return out
}

// Find returns the first record at level whose message contains substr.
func (t *TestLogger) Find(level Level, substr string) (Record, bool) {
	for _, r := range t.Records() {
		if r.Level == level && strings.Contains(r.Message, substr) {
			return r, true
		}
	}
	return Record{}, false
}

// Reset drops every captured record.
func (t *TestLogger) Reset() {
	t.rec.mu.Lock()
	t.rec.records = nil
	t.rec.mu.Unlock()
}

func (t *TestLogger) record(level Level, msg string, fields []any) {
	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	if level < t.rec.level {
		return
	}
	r := Record{Level: level, Message: msg, Fields: make(map[string]any, len(t.fields)+len(fields)/2)}
	for k, v := range t.fields {
		r.Fields[k] = v
	}
	mergeFields(r.Fields, fields)
	t.rec.records = append(t.rec.records, r)
}

// mergeFields applies the key/value convention of Logger: a leading error is
// stored under ErrAttrKey, errors in value position become their message, and
// a dangling key is dropped.
func mergeFields(dst map[string]any, fields []any) {
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			dst[ErrAttrKey] = err.Error()
			fields = fields[1:]
		}
	}
	for i := 0; i+1 < len(fields); i += 2 {
		v := fields[i+1]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		dst[fmt.Sprint(fields[i])] = v
	}
}
