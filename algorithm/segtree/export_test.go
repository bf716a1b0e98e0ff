package segtree

import "fmt"

// CheckInvariant 遍历整棵树，校验每个内部节点等于其左右子节点的 merge，
// 每个叶子等于 want 中对应下标的元素（want 为 nil 时跳过叶子比较）。
func CheckInvariant[A any](t *Tree[A], eq func(a, b A) bool, want []A) error {
	return t.check(0, 0, t.n-1, eq, want)
}

func (t *Tree[A]) check(node, lo, hi int, eq func(a, b A) bool, want []A) error {
	if lo == hi {
		if want != nil && !eq(t.tree[node], want[lo]) {
			return fmt.Errorf("leaf %d: got %v, want %v", lo, t.tree[node], want[lo])
		}
		return nil
	}
	mid := lo + (hi-lo)/2
	l, r := 2*node+1, 2*node+2
	if err := t.check(l, lo, mid, eq, want); err != nil {
		return err
	}
	if err := t.check(r, mid+1, hi, eq, want); err != nil {
		return err
	}
	if merged := t.merge(t.tree[l], t.tree[r]); !eq(t.tree[node], merged) {
		return fmt.Errorf("node %d [%d, %d]: got %v, want merge %v", node, lo, hi, t.tree[node], merged)
	}
	return nil
}
