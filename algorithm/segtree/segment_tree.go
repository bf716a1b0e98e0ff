// Package segtree 实现了泛型的区间聚合树（线段树）。
//
// 树由调用方提供的两个二元算子参数化：merge 将左右子树的聚合值合并为父节点的值，
// apply 将叶子当前值与更新值合并为新的叶子值。fallback 是查询区间与节点覆盖范围
// 不相交时返回的单位元，必须是 merge 的单位元（例如 max 对应最小值，sum 对应 0），
// 这是调用方契约，树内部不做校验。
//
// 节点以隐式完全二叉树形式存放在长度为 4n 的切片中：根节点下标为 0，
// 节点 i 的左右子节点分别为 2i+1 与 2i+2。节点覆盖的区间不存储，每次下降时由根区间
// [0, n-1] 按 mid = lo + (hi-lo)/2 切分得到。
//
// Tree 不是并发安全的：多个 Query 可以并发执行，但 Update 需要调用方独占访问。
// 需要并发读写时使用 Synced。
package segtree

import (
	"github.com/wyfcoding/rangekit/xerrors"
)

// Func 是作用在两个元素上的二元算子。
type Func[A any] func(a, b A) A

// Range 表示闭区间 [Left, Right]。
type Range struct {
	Left  int
	Right int
}

// Tree 区间聚合树。
// 构建 O(n)，查询 O(log n)，单点更新 O(log n)。
// 适用于序列长度固定、读多写少的区间统计，例如按时间片查询最高价、累计成交量等。
type Tree[A any] struct {
	tree     []A // 隐式二叉树节点值，长度 4n。
	n        int // 原始序列长度。
	merge    Func[A]
	apply    Func[A]
	fallback A
}

// New 基于 elems 构建区间聚合树。
// elems: 初始序列，不能为空；会被复制，调用方后续修改不影响树。
// merge: 合并左右子树聚合值的算子，需满足结合律，不要求交换律。
// apply: 更新叶子时的算子，参数依次为叶子当前值与更新值。
// fallback: merge 的单位元，查询与节点不相交时返回。
func New[A any](elems []A, merge, apply Func[A], fallback A) (*Tree[A], error) {
	if len(elems) == 0 {
		return nil, xerrors.ErrEmptyInput.Clone()
	}
	if merge == nil || apply == nil {
		return nil, xerrors.ErrNilOperator.Clone()
	}

	n := len(elems)
	t := &Tree[A]{
		tree:     make([]A, 4*n),
		n:        n,
		merge:    merge,
		apply:    apply,
		fallback: fallback,
	}
	t.build(elems, 0, 0, n-1)
	return t, nil
}

// build 自底向上填充节点：叶子取输入元素，内部节点取左右子节点的 merge。
// node: 当前节点在 tree 中的下标。
// lo, hi: 当前节点覆盖的原始序列闭区间。
func (t *Tree[A]) build(elems []A, node, lo, hi int) {
	if lo == hi {
		t.tree[node] = elems[lo]
		return
	}

	mid := lo + (hi-lo)/2
	left, right := 2*node+1, 2*node+2
	t.build(elems, left, lo, mid)
	t.build(elems, right, mid+1, hi)
	t.tree[node] = t.merge(t.tree[left], t.tree[right])
}

// Len 返回原始序列长度。
func (t *Tree[A]) Len() int {
	return t.n
}

// Query 返回闭区间 [left, right] 内元素按下标顺序 merge 的结果。
// left, right: 查询区间的起止下标（从 0 开始，均包含）。
// 区间越界或 left > right 时返回 xerrors.ErrInvalidRange，错误上下文带有 left、right 与 n。
// 只读，不修改任何节点，没有写入时可以并发调用。
func (t *Tree[A]) Query(left, right int) (A, error) {
	if err := t.checkRange(left, right); err != nil {
		var zero A
		return zero, err
	}
	return t.query(0, 0, t.n-1, left, right), nil
}

// query 是 Query 的递归实现。
// node: 当前节点下标。
// lo, hi: 当前节点覆盖的区间。
// left, right: 目标查询区间。
func (t *Tree[A]) query(node, lo, hi, left, right int) A {
	// 节点覆盖范围完全落在查询区间内，直接返回聚合值。
	if left <= lo && hi <= right {
		return t.tree[node]
	}
	// 完全不相交。
	if hi < left || right < lo {
		return t.fallback
	}

	// 部分重叠，先左后右，保证非交换 merge 的结果与下标顺序一致。
	mid := lo + (hi-lo)/2
	l := t.query(2*node+1, lo, mid, left, right)
	r := t.query(2*node+2, mid+1, hi, left, right)
	return t.merge(l, r)
}

// Get 返回下标 i 处的当前值，等价于 Query(i, i)。
func (t *Tree[A]) Get(i int) (A, error) {
	return t.Query(i, i)
}

// Update 对闭区间 [left, right] 内的每个叶子独立执行 leaf = apply(leaf, value)，
// 并在返回前重算所有受影响祖先节点的聚合值。
// value: 更新值，作为 apply 的第二个参数。
// left, right: 更新区间的起止下标（均包含），校验规则同 Query。
//
// 没有懒标记：区间越大，访问的叶子越多，最坏 O(k log n)，k 为区间长度。
// apply 或 merge 发生 panic 时树可能处于部分更新状态，panic 原样抛给调用方。
func (t *Tree[A]) Update(value A, left, right int) error {
	if err := t.checkRange(left, right); err != nil {
		return err
	}
	t.update(0, 0, t.n-1, left, right, value)
	return nil
}

// update 是 Update 的递归实现，参数含义同 query。
// 只有落在区间内的叶子执行 apply，回溯时重算沿途节点。
func (t *Tree[A]) update(node, lo, hi, left, right int, value A) {
	if hi < left || right < lo {
		return
	}
	if lo == hi {
		t.tree[node] = t.apply(t.tree[node], value)
		return
	}

	mid := lo + (hi-lo)/2
	l, r := 2*node+1, 2*node+2
	t.update(l, lo, mid, left, right, value)
	t.update(r, mid+1, hi, left, right, value)
	t.tree[node] = t.merge(t.tree[l], t.tree[r])
}

// Set 对单个下标执行 apply，等价于 Update(value, i, i)。
func (t *Tree[A]) Set(i int, value A) error {
	return t.Update(value, i, i)
}

// Values 按下标顺序返回当前所有叶子的值。
func (t *Tree[A]) Values() []A {
	out := make([]A, 0, t.n)
	return t.leaves(out, 0, 0, t.n-1)
}

func (t *Tree[A]) leaves(out []A, node, lo, hi int) []A {
	if lo == hi {
		return append(out, t.tree[node])
	}
	mid := lo + (hi-lo)/2
	out = t.leaves(out, 2*node+1, lo, mid)
	return t.leaves(out, 2*node+2, mid+1, hi)
}

func (t *Tree[A]) checkRange(left, right int) error {
	if left < 0 || right >= t.n || left > right {
		return xerrors.InvalidRange(left, right, t.n)
	}
	return nil
}
