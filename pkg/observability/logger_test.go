package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger_Formats(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		NewLogger(LogConfig{Format: LogFormatText, Output: &buf}).Info("cache miss", "namespace", "rank")

		assert.Contains(t, buf.String(), "cache miss")
		assert.Contains(t, buf.String(), "namespace=rank")
	})

	t.Run("json carries service attributes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{
			Format:         LogFormatJSON,
			Output:         &buf,
			ServiceName:    "pulse-mcp",
			ServiceVersion: "1.2.0",
		})
		logger.Info("ranked", "candidates", 4)

		entry := decodeEntry(t, &buf)
		assert.Equal(t, "ranked", entry["msg"])
		assert.Equal(t, float64(4), entry["candidates"])
		assert.Equal(t, "pulse-mcp", entry["service"])
		assert.Equal(t, "1.2.0", entry["version"])
	})
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelWarn, Output: &buf})

	logger.Debug("debug line")
	logger.Info("info line")
	logger.Warn("warn line")
	logger.Error("error line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "warn line")
	assert.Contains(t, out, "error line")
}

func TestNewLogger_ContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Format: LogFormatJSON, Output: &buf})

	ctx := WithCorrelationID(context.Background(), "corr-123")
	ctx = WithRequestID(ctx, "req-456")
	ctx = WithOperation(ctx, "scoring.composite")
	logger.With("scorer", "execution").InfoContext(ctx, "computed")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "corr-123", entry[CorrelationIDKey])
	assert.Equal(t, "req-456", entry[RequestIDKey])
	assert.Equal(t, "scoring.composite", entry[OperationKey])
	assert.Equal(t, "execution", entry["scorer"])
}

func TestNewLogger_GroupKeepsContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Format: LogFormatJSON, Output: &buf}).WithGroup("cache")

	logger.InfoContext(WithOperation(context.Background(), "scoring.table"), "hit", "key", "scores:all")

	entry := decodeEntry(t, &buf)
	group, ok := entry["cache"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "scores:all", group["key"])
	assert.Equal(t, "scoring.table", group[OperationKey])
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected slog.Level
	}{
		{LogLevelDebug, slog.LevelDebug},
		{LogLevelInfo, slog.LevelInfo},
		{LogLevelWarn, slog.LevelWarn},
		{LogLevelError, slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			assert.Equal(t, tt.expected, slogLevel(tt.input))
		})
	}
}

func TestLogConfigFor(t *testing.T) {
	t.Run("development defaults", func(t *testing.T) {
		cfg := LogConfigFor("development", "", "")
		assert.Equal(t, LogLevelInfo, cfg.Level)
		assert.Equal(t, LogFormatText, cfg.Format)
		assert.Equal(t, ServiceName, cfg.ServiceName)
		assert.False(t, cfg.AddSource)
	})

	t.Run("production selects json", func(t *testing.T) {
		cfg := LogConfigFor("production", "", "")
		assert.Equal(t, LogFormatJSON, cfg.Format)
		assert.True(t, cfg.AddSource)
	})

	t.Run("explicit level and format win", func(t *testing.T) {
		cfg := LogConfigFor("production", "DEBUG", "Text")
		assert.Equal(t, LogLevelDebug, cfg.Level)
		assert.Equal(t, LogFormatText, cfg.Format)
	})
}

func TestContextValues_GenerateWhenEmpty(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "")
	ctx = WithRequestID(ctx, "")

	assert.Len(t, CorrelationIDFromContext(ctx), 36)
	assert.Len(t, RequestIDFromContext(ctx), 36)
	assert.Empty(t, OperationFromContext(ctx))
}
