// Package bsearch 提供了有序切片上的单调二分查找，常用于在调用区间树之前
// 把值域条件换算为下标区间。
package bsearch

import "cmp"

// LowerBound 返回第一个满足 s[i] >= x 的下标 i。
// found 表示 s[i] == x，此时 i 是 x 的第一次出现；否则 i 是保持有序的插入位置。
// s 必须按升序排列。
func LowerBound[T cmp.Ordered](s []T, x T) (int, bool) {
	return LowerBoundFunc(s, x, cmp.Compare[T])
}

// UpperBound 返回第一个满足 s[i] > x 的下标 i。
// found 表示 x 出现在 s 中，此时 i-1 是 x 的最后一次出现；否则 i 是插入位置。
func UpperBound[T cmp.Ordered](s []T, x T) (int, bool) {
	return UpperBoundFunc(s, x, cmp.Compare[T])
}

// LowerBoundFunc 同 LowerBound，使用 compare 比较元素，compare(a, b) < 0 表示 a 在 b 之前。
func LowerBoundFunc[T any](s []T, x T, compare func(a, b T) int) (int, bool) {
	lo, hi := 0, len(s)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if compare(s[mid], x) >= 0 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo, lo < len(s) && compare(s[lo], x) == 0
}

// UpperBoundFunc 同 UpperBound，使用 compare 比较元素。
func UpperBoundFunc[T any](s []T, x T, compare func(a, b T) int) (int, bool) {
	lo, hi := 0, len(s)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if compare(s[mid], x) > 0 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo, lo > 0 && compare(s[lo-1], x) == 0
}

// EqualRange 返回 x 在 s 中出现的闭区间 [lo, hi]，可直接作为区间树的查询范围。
// x 不存在时 lo > hi。
func EqualRange[T cmp.Ordered](s []T, x T) (lo, hi int) {
	lo, _ = LowerBound(s, x)
	upper, _ := UpperBound(s, x)
	return lo, upper - 1
}

// Between 返回落在闭值域 [from, to] 内的元素下标闭区间 [lo, hi]，没有元素时 lo > hi。
func Between[T cmp.Ordered](s []T, from, to T) (lo, hi int) {
	lo, _ = LowerBound(s, from)
	upper, _ := UpperBound(s, to)
	return lo, upper - 1
}
