package segtree

import (
	"context"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// Synced 为 Tree 提供单写多读的并发访问。
// 写操作互斥，读操作之间可以并发。
type Synced[A any] struct {
	t  *Tree[A]
	mu sync.RWMutex
}

// NewSynced 包装一棵已构建的树。包装后调用方不应再直接访问 t。
func NewSynced[A any](t *Tree[A]) *Synced[A] {
	return &Synced[A]{t: t}
}

// Len 返回原始序列长度。
func (s *Synced[A]) Len() int {
	return s.t.Len()
}

// Query 加读锁执行区间查询。
func (s *Synced[A]) Query(left, right int) (A, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.t.Query(left, right)
}

// Get 加读锁读取单点。
func (s *Synced[A]) Get(i int) (A, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.t.Get(i)
}

// Update 加写锁执行区间更新。
func (s *Synced[A]) Update(value A, left, right int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.t.Update(value, left, right)
}

// QueryBatch 在同一个读快照上并发执行多个区间查询，结果顺序与 ranges 一致。
// 适用于报表类场景：一次请求需要多个时间窗口的聚合值，且这些值必须来自同一版本的数据。
// ranges: 待查询的闭区间列表。
// workers: 最大并发数，<= 0 时使用 GOMAXPROCS。
// 任一查询失败或 ctx 取消时返回第一个错误。
func (s *Synced[A]) QueryBatch(ctx context.Context, ranges []Range, workers int) ([]A, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]A, len(ranges))
	p := pool.New().
		WithContext(ctx).
		WithMaxGoroutines(workers).
		WithCancelOnError().
		WithFirstError()
	for i, rg := range ranges {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := s.t.Query(rg.Left, rg.Right)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
