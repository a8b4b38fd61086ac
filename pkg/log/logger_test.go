package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/gosvm/pkg/errors"
)

func TestTestLogger(t *testing.T) {
	testLogger := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationFit)
	testLogger.Warn("warning message", "dangling")
	testLogger.Error("error message", fmt.Errorf("test error"), ErrorTypeKey, "ValidationError")

	records := testLogger.Records()
	require.Len(t, records, 4)
	assert.Equal(t, LevelDebug, records[0].Level)
	assert.Equal(t, "value1", records[0].Fields["key1"])
	assert.Equal(t, 42, records[0].Fields["number"])
	assert.Empty(t, records[2].Fields)

	r, ok := testLogger.Find(LevelError, "error")
	require.True(t, ok)
	assert.Equal(t, "test error", r.Fields[ErrAttrKey])
	assert.Equal(t, "ValidationError", r.Fields[ErrorTypeKey])

	_, ok = testLogger.Find(LevelInfo, "warning")
	assert.False(t, ok)

	testLogger.Reset()
	assert.Empty(t, testLogger.Records())
}

func TestTestLoggerLevelFilter(t *testing.T) {
	testLogger := NewTestLogger(LevelWarn)
	testLogger.Debug("hidden")
	testLogger.Info("hidden too")
	testLogger.Warn("shown")

	require.Len(t, testLogger.Records(), 1)
	assert.Equal(t, "shown", testLogger.Records()[0].Message)
	assert.False(t, testLogger.Enabled(context.Background(), LevelInfo))
	assert.True(t, testLogger.Enabled(context.Background(), LevelError))

	testLogger.SetLevel(LevelDebug)
	testLogger.GetLogger().Debug("now shown")
	_, ok := testLogger.Find(LevelDebug, "now shown")
	assert.True(t, ok)
}

func TestTestLoggerWithConcurrent(t *testing.T) {
	testLogger := NewTestLogger(LevelDebug)
	child := testLogger.With(ModelNameKey, "SVC")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			child.Info("fold done", FoldKey, i)
		}(i)
	}
	wg.Wait()

	records := testLogger.Records()
	assert.Len(t, records, 8)
	for _, r := range records {
		assert.Equal(t, "SVC", r.Fields[ModelNameKey])
	}
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelInfo)

	logger.Debug("not emitted")
	logger.With(SVMTypeKey, "c_svc").Info("optimization finished", NSVKey, 12, "dangling")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "optimization finished", entry["message"])
	assert.Equal(t, "c_svc", entry[SVMTypeKey])
	assert.Equal(t, 12.0, entry[NSVKey])
	_, hasDangling := entry["dangling"]
	assert.False(t, hasDangling)

	assert.False(t, logger.Enabled(context.Background(), LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), LevelWarn))
}

func TestZerologLoggerErrorStack(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug)

	err := errors.NewValidationError("C", "must be positive", -1.0)
	logger.Error("parameter check failed", err, OperationKey, OperationFit)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Contains(t, entry[ErrAttrKey], "must be positive")
	assert.Equal(t, OperationFit, entry[OperationKey])
	stack, ok := entry[StacktraceAttrKey].(string)
	require.True(t, ok, "stack trace should be attached for cockroachdb errors")
	assert.Contains(t, stack, "logger_test.go")
}

func TestProviderAndRouting(t *testing.T) {
	captured := CaptureLogs(t, LevelDebug)

	GetLoggerWithName("svm.solver").Debug("iteration", IterationKey, 10)
	r, ok := captured.Find(LevelDebug, "iteration")
	require.True(t, ok)
	assert.Equal(t, "svm.solver", r.Fields[ComponentKey])
	assert.Equal(t, 10, r.Fields[IterationKey])

	var buf bytes.Buffer
	RouteWarnings(NewZerologLogger(&buf, LevelDebug))
	defer errors.SetZerologWarnFunc(nil)

	errors.Warn(errors.NewConvergenceWarning("SMO", 100, ""))
	assert.Contains(t, buf.String(), `"type":"ConvergenceWarning"`)
	assert.Contains(t, buf.String(), `"iterations":100`)
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ToLogLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
