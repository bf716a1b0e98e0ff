package main

import (
	"math"

	"github.com/wyfcoding/rangekit/algorithm/segtree"
	"github.com/wyfcoding/rangekit/config"
	"github.com/wyfcoding/rangekit/operator"
	"github.com/wyfcoding/rangekit/xerrors"
)

// buildTree 按配置的预设构建 int64 区间树。
func buildTree(cfg config.TreeConfig, elems []int64) (*segtree.Tree[int64], error) {
	switch cfg.Preset {
	case "sum":
		return segtree.NewSum(elems)
	case "sum-set":
		return segtree.NewSumSet(elems)
	case "max":
		return segtree.NewMax(elems, math.MinInt64)
	case "max-add":
		return segtree.NewMaxAdd(elems, math.MinInt64)
	case "min":
		return segtree.NewMin(elems, math.MaxInt64)
	case "min-add":
		return segtree.NewMinAdd(elems, math.MaxInt64)
	case "expr":
		merge, err := operator.Compile(cfg.Merge)
		if err != nil {
			return nil, err
		}
		apply, err := operator.Compile(cfg.Apply)
		if err != nil {
			return nil, err
		}
		return segtree.New(elems, merge, apply, cfg.Fallback)
	default:
		return nil, xerrors.ErrUnknownPreset.Clone().WithContext("preset", cfg.Preset)
	}
}
