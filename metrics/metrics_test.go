package metrics

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/rangekit/algorithm/segtree"
)

func newInstrumented(t *testing.T, buf *bytes.Buffer) (*Metrics, *InstrumentedTree[int64]) {
	t.Helper()
	m := NewMetrics("rangekit_test")
	tree, err := segtree.NewSum([]int64{1, 2, 3, 4})
	require.NoError(t, err)
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return m, Instrument(m, "sum", tree, logger)
}

func TestInstrumentedTreeCountsResults(t *testing.T) {
	var buf bytes.Buffer
	m, it := newInstrumented(t, &buf)

	got, err := it.Query(0, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got)

	require.NoError(t, it.Update(5, 1, 2))
	got, err = it.Get(2)
	require.NoError(t, err)
	assert.Equal(t, int64(8), got)

	_, err = it.Query(2, 9)
	require.Error(t, err)
	require.Error(t, it.Update(1, 3, 1))

	ops := m.TreeOperationsTotal
	assert.InDelta(t, 1, testutil.ToFloat64(ops.WithLabelValues("sum", "query", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(ops.WithLabelValues("sum", "query", "invalid_range")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(ops.WithLabelValues("sum", "update", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(ops.WithLabelValues("sum", "update", "invalid_range")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(ops.WithLabelValues("sum", "get", "ok")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.TreeSize.WithLabelValues("sum")), 0)

	assert.Equal(t, 2, strings.Count(buf.String(), "range rejected"))
	assert.Equal(t, 3, testutil.CollectAndCount(m.TreeOperationDuration))
}

func TestInstrumentedTreeCountsOperatorPanic(t *testing.T) {
	var buf bytes.Buffer
	m := NewMetrics("")
	boom := func(a, b int64) int64 {
		if b < 0 {
			panic("negative delta")
		}
		return a + b
	}
	tree, err := segtree.New([]int64{1, 2, 3}, segtree.Sum[int64], boom, 0)
	require.NoError(t, err)
	it := Instrument(m, "guarded", tree, slog.New(slog.NewJSONHandler(&buf, nil)))

	assert.PanicsWithValue(t, "negative delta", func() { _ = it.Update(-1, 0, 2) })
	assert.PanicsWithValue(t, "negative delta", func() { _ = it.Set(1, -5) })
	require.NoError(t, it.Update(1, 0, 0))

	ops := m.TreeOperationsTotal
	assert.InDelta(t, 1, testutil.ToFloat64(ops.WithLabelValues("guarded", "update", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(ops.WithLabelValues("guarded", "set", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(ops.WithLabelValues("guarded", "update", "ok")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.TreeOperationDuration))
	assert.Equal(t, 2, strings.Count(buf.String(), "tree operator panicked"))
}

func TestHandlerExposesTreeMetrics(t *testing.T) {
	var buf bytes.Buffer
	m, it := newInstrumented(t, &buf)
	require.NoError(t, it.Set(0, 7))
	m.RegisterBuildInfo("rangeq", "v0.1.0")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `rangekit_test_tree_operations_total{op="set",result="ok",tree="sum"} 1`)
	assert.Contains(t, body, "rangekit_test_tree_operation_duration_seconds_bucket")
	assert.Contains(t, body, `build_info{service="rangeq",version="v0.1.0"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestServeStopsWithContext(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	require.NoError(t, l.Close())

	m := NewMetrics("")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Serve(ctx, port) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:" + port + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
