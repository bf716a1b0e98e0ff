package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func TestLoggerJSONShape(t *testing.T) {
	var buf bytes.Buffer
	l := NewFromConfig(Config{Service: "rangekit", Module: "segtree", Level: "info", Writer: &buf})

	l.Info("tree built", "size", 4)
	l.Debug("hidden")

	lines := decodeLines(t, buf.Bytes())
	require.Len(t, lines, 1)
	assert.Equal(t, "tree built", lines[0]["msg"])
	assert.Equal(t, "rangekit", lines[0]["service"])
	assert.Equal(t, "segtree", lines[0]["module"])
	assert.EqualValues(t, 4, lines[0]["size"])
	assert.Contains(t, lines[0], "timestamp")
	assert.NotContains(t, lines[0], "time")
}

func TestTraceHandlerInjectsSpan(t *testing.T) {
	var buf bytes.Buffer
	l := NewFromConfig(Config{Service: "svc", Module: "m", Writer: &buf})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	l.InfoContext(ctx, "with span")
	l.InfoContext(context.Background(), "without span")

	lines := decodeLines(t, buf.Bytes())
	require.Len(t, lines, 2)
	assert.Equal(t, traceID.String(), lines[0]["trace_id"])
	assert.Equal(t, spanID.String(), lines[0]["span_id"])
	assert.NotContains(t, lines[1], "trace_id")
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewFromConfig(Config{Service: "svc", Module: "m", Level: "warn", Writer: &buf})
	t.Cleanup(func() { SetLevel("info") })

	l.Info("dropped")
	SetLevel("debug")
	l.Debug("kept")

	lines := decodeLines(t, buf.Bytes())
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
}

func TestFileAndConsole(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "rangekit.log")
	l := NewFromConfig(Config{
		Service: "svc",
		Module:  "m",
		File:    path,
		Console: true,
		Writer:  &buf,
		MaxSize: 1,
	})

	l.Warn("both sinks")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, decodeLines(t, data), 1)
	assert.Len(t, decodeLines(t, buf.Bytes()), 1)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", ParseLevel("DEBUG").String())
	assert.Equal(t, "WARN", ParseLevel("warn").String())
	assert.Equal(t, "ERROR", ParseLevel("error").String())
	assert.Equal(t, "INFO", ParseLevel("bogus").String())
}

func TestSetDefaultRoutesPackageHelpers(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewFromConfig(Config{Service: "svc", Module: "helpers", Writer: &buf}))

	Info(context.Background(), "via helper")
	LogDuration(context.Background(), "build", "size", 3)()

	lines := decodeLines(t, buf.Bytes())
	require.Len(t, lines, 2)
	assert.Equal(t, "via helper", lines[0]["msg"])
	assert.Equal(t, "build finished", lines[1]["msg"])
	assert.Contains(t, lines[1], "duration")
	assert.Same(t, Default(), InitLogger(Config{Service: "ignored"}))
}
