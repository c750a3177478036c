package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{name: "debug level", input: "debug", expected: slog.LevelDebug},
		{name: "info level", input: "info", expected: slog.LevelInfo},
		{name: "warn level", input: "warn", expected: slog.LevelWarn},
		{name: "warning level", input: "warning", expected: slog.LevelWarn},
		{name: "error level", input: "error", expected: slog.LevelError},
		{name: "uppercase DEBUG", input: "DEBUG", expected: slog.LevelDebug},
		{name: "mixed case Info", input: "Info", expected: slog.LevelInfo},
		{name: "empty string defaults to info", input: "", expected: slog.LevelInfo},
		{name: "unknown level defaults to info", input: "xyzzy", expected: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestInitLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := InitLogger(LogConfig{Output: &buf, Level: "debug", Format: "json", Service: "riskd"})
	require.NotNil(t, logger)

	logger.Debug("evaluation computed", slog.String("candidate_id", "c-1"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "evaluation computed", record["msg"])
	assert.Equal(t, "riskd", record["service"])
	assert.Equal(t, "c-1", record["candidate_id"])
}

func TestInitLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := InitLogger(LogConfig{Output: &buf, Level: "warn", Format: "text"})

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestInitLoggerSetsDefault(t *testing.T) {
	logger := InitLogger(LogConfig{Output: &bytes.Buffer{}, Level: "info", Format: "json"})
	assert.Equal(t, logger.Handler(), slog.Default().Handler())
}

func TestInitLoggerAddsTraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := InitLogger(LogConfig{Output: &buf, Level: "info", Format: "json"})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.With("candidate_id", "c-2").InfoContext(ctx, "snapshot stored")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", record["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", record["span_id"])
	assert.Equal(t, "c-2", record["candidate_id"])

	buf.Reset()
	logger.Info("no span")
	assert.NotContains(t, buf.String(), "trace_id")
}
