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

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger(t *testing.T) {
	t.Run("text output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: "info", Format: LogFormatText, Output: &buf})

		logger.Info("meeting requested", "meeting_id", "m-1")

		assert.Contains(t, buf.String(), "meeting requested")
		assert.Contains(t, buf.String(), "meeting_id=m-1")
	})

	t.Run("json output with service attributes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{
			Level:          "info",
			Format:         LogFormatJSON,
			Output:         &buf,
			ServiceName:    "mentora-test",
			ServiceVersion: "1.2.3",
		})

		logger.Info("hello")

		entry := decodeLine(t, &buf)
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "mentora-test", entry["service"])
		assert.Equal(t, "1.2.3", entry["version"])
	})

	t.Run("filters below level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: "warn", Output: &buf})

		logger.Info("quiet")
		logger.Warn("loud")

		assert.NotContains(t, buf.String(), "quiet")
		assert.Contains(t, buf.String(), "loud")
	})

	t.Run("adds ids from context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Format: LogFormatJSON, Output: &buf})
		ctx := WithRequestID(WithCorrelationID(context.Background(), "corr-1"), "req-1")

		logger.With("component", "api").InfoContext(ctx, "handled")

		entry := decodeLine(t, &buf)
		assert.Equal(t, "corr-1", entry[CorrelationIDKey])
		assert.Equal(t, "req-1", entry[RequestIDKey])
		assert.Equal(t, "api", entry["component"])
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLoggerFromEnv(t *testing.T) {
	t.Setenv("MENTORA_ENV", "production")
	t.Setenv("MENTORA_LOG_LEVEL", "debug")

	logger := LoggerFromEnv()

	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestLogConfigFor(t *testing.T) {
	prod := LogConfigFor("production", "")
	assert.Equal(t, LogFormatJSON, prod.Format)
	assert.Equal(t, "info", prod.Level)

	dev := LogConfigFor("development", "debug")
	assert.Equal(t, LogFormatText, dev.Format)
	assert.Equal(t, "debug", dev.Level)
}

func TestRequestContext(t *testing.T) {
	t.Run("keeps parent correlation id", func(t *testing.T) {
		ctx := NewRequestContext(context.Background(), "parent")

		assert.Equal(t, "parent", CorrelationIDFromContext(ctx))
		assert.NotEmpty(t, RequestIDFromContext(ctx))
	})

	t.Run("generates missing ids", func(t *testing.T) {
		ctx := NewRequestContext(context.Background(), "")

		assert.NotEmpty(t, CorrelationIDFromContext(ctx))
		assert.NotEqual(t, CorrelationIDFromContext(ctx), RequestIDFromContext(ctx))
	})

	t.Run("user id round trip", func(t *testing.T) {
		ctx := WithUserID(context.Background(), "u-1")
		assert.Equal(t, "u-1", UserIDFromContext(ctx))
		assert.Empty(t, UserIDFromContext(context.Background()))
	})
}
