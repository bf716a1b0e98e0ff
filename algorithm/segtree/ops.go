package segtree

import (
	"cmp"

	"github.com/shopspring/decimal"
)

// Number 支持加法的数值类型。
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Sum 求和。
func Sum[T Number](a, b T) T { return a + b }

// Max 取较大值。
func Max[T cmp.Ordered](a, b T) T { return max(a, b) }

// Min 取较小值。
func Min[T cmp.Ordered](a, b T) T { return min(a, b) }

// Overwrite 用新值覆盖旧值。
func Overwrite[T any](_, b T) T { return b }

// NewSum 区间求和，更新时累加。
func NewSum[T Number](elems []T) (*Tree[T], error) {
	return New(elems, Sum[T], Sum[T], 0)
}

// NewSumSet 区间求和，更新时覆盖。
// 典型用法：库存快照按单点覆盖后查询某一分类区间的总库存。
func NewSumSet[T Number](elems []T) (*Tree[T], error) {
	return New(elems, Sum[T], Overwrite[T], 0)
}

// NewMax 区间最大值，更新时覆盖。floor 须不大于任何可能出现的元素。
func NewMax[T cmp.Ordered](elems []T, floor T) (*Tree[T], error) {
	return New(elems, Max[T], Overwrite[T], floor)
}

// NewMaxAdd 区间最大值，更新时累加（单点加、区间求最大）。
// 典型用法：按价位累加挂单量后查询某一价格区间内的最大挂单量。
// floor: 不大于任何可能元素的值，通常为对应类型的最小值。
func NewMaxAdd[T Number](elems []T, floor T) (*Tree[T], error) {
	return New(elems, Max[T], Sum[T], floor)
}

// NewMin 区间最小值，更新时覆盖。ceil 须不小于任何可能出现的元素。
func NewMin[T cmp.Ordered](elems []T, ceil T) (*Tree[T], error) {
	return New(elems, Min[T], Overwrite[T], ceil)
}

// NewMinAdd 区间最小值，更新时累加。
// ceil: 不小于任何可能元素的值，通常为对应类型的最大值。
func NewMinAdd[T Number](elems []T, ceil T) (*Tree[T], error) {
	return New(elems, Min[T], Sum[T], ceil)
}

// DecimalSum 定点数求和，适用于金额类区间统计。
func DecimalSum(a, b decimal.Decimal) decimal.Decimal { return a.Add(b) }

// DecimalMax 定点数较大值。
func DecimalMax(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThanOrEqual(b) {
		return a
	}
	return b
}

// DecimalMin 定点数较小值。
func DecimalMin(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThanOrEqual(b) {
		return a
	}
	return b
}

// NewDecimalSum 定点数区间求和，更新时累加。
func NewDecimalSum(elems []decimal.Decimal) (*Tree[decimal.Decimal], error) {
	return New(elems, DecimalSum, DecimalSum, decimal.Zero)
}

// NewDecimalMax 定点数区间最大值，更新时覆盖。
func NewDecimalMax(elems []decimal.Decimal, floor decimal.Decimal) (*Tree[decimal.Decimal], error) {
	return New(elems, DecimalMax, Overwrite[decimal.Decimal], floor)
}

// NewDecimalMin 定点数区间最小值，更新时覆盖。
func NewDecimalMin(elems []decimal.Decimal, ceil decimal.Decimal) (*Tree[decimal.Decimal], error) {
	return New(elems, DecimalMin, Overwrite[decimal.Decimal], ceil)
}
