package metrics

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wyfcoding/rangekit/algorithm/segtree"
	"github.com/wyfcoding/rangekit/xerrors"
)

const (
	resultOK           = "ok"
	resultInvalidRange = "invalid_range"
	resultError        = "error"
)

// InstrumentedTree 为区间树的每次操作记录次数、结果与耗时。
// 与 segtree.Tree 一样不是并发安全的。
type InstrumentedTree[A any] struct {
	tree   *segtree.Tree[A]
	name   string
	logger *slog.Logger

	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Instrument 用 m 中预定义的区间树指标包装 tree，name 作为 tree 标签值。
// logger 为 nil 时使用 slog.Default()。
func Instrument[A any](m *Metrics, name string, tree *segtree.Tree[A], logger *slog.Logger) *InstrumentedTree[A] {
	if logger == nil {
		logger = slog.Default()
	}
	m.TreeSize.WithLabelValues(name).Set(float64(tree.Len()))
	return &InstrumentedTree[A]{
		tree:     tree,
		name:     name,
		logger:   logger.With("tree", name),
		ops:      m.TreeOperationsTotal,
		duration: m.TreeOperationDuration,
	}
}

// Unwrap 返回被包装的区间树。
func (t *InstrumentedTree[A]) Unwrap() *segtree.Tree[A] {
	return t.tree
}

// Len 返回叶子数量。
func (t *InstrumentedTree[A]) Len() int {
	return t.tree.Len()
}

// Query 见 segtree.Tree.Query。
func (t *InstrumentedTree[A]) Query(left, right int) (v A, err error) {
	start := time.Now()
	defer func() { t.observe("query", start, err, recover()) }()

	return t.tree.Query(left, right)
}

// Get 见 segtree.Tree.Get。
func (t *InstrumentedTree[A]) Get(i int) (v A, err error) {
	start := time.Now()
	defer func() { t.observe("get", start, err, recover()) }()

	return t.tree.Get(i)
}

// Update 见 segtree.Tree.Update。
func (t *InstrumentedTree[A]) Update(value A, left, right int) (err error) {
	start := time.Now()
	defer func() { t.observe("update", start, err, recover()) }()

	return t.tree.Update(value, left, right)
}

// Set 见 segtree.Tree.Set。
func (t *InstrumentedTree[A]) Set(i int, value A) (err error) {
	start := time.Now()
	defer func() { t.observe("set", start, err, recover()) }()

	return t.tree.Set(i, value)
}

// observe 记录一次操作的耗时与结果。
// rec 是算子 panic 时恢复出的值：按 error 计数后原样重新 panic，由调用方处理。
func (t *InstrumentedTree[A]) observe(op string, start time.Time, err error, rec any) {
	t.duration.WithLabelValues(t.name, op).Observe(time.Since(start).Seconds())

	result := resultOK
	switch {
	case rec != nil:
		result = resultError
		t.logger.Warn("tree operator panicked", "op", op, "panic", rec)
	case err == nil:
	case errors.Is(err, xerrors.ErrInvalidRange):
		result = resultInvalidRange
		t.logger.Debug("range rejected", "op", op, "error", err)
	default:
		result = resultError
		t.logger.Warn("tree operation failed", "op", op, "error", err)
	}
	t.ops.WithLabelValues(t.name, op, result).Inc()

	if rec != nil {
		panic(rec)
	}
}
