package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"text/tabwriter"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/spf13/cobra"

	"github.com/wyfcoding/rangekit/config"
	"github.com/wyfcoding/rangekit/logging"
)

// benchReport 保存一次压测的统计结果，延迟单位为纳秒。
type benchReport struct {
	Size    int
	Queries int64
	Updates int64
	Elapsed time.Duration

	QueryHist  *hdrhistogram.Histogram
	UpdateHist *hdrhistogram.Histogram
}

func newBenchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Replay random queries and updates and report latency percentiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			defer logging.LogDuration(ctx, "bench", "size", a.cfg.Bench.Size, "ops", a.cfg.Bench.Ops)()

			report, err := runBench(a.cfg.Tree, a.cfg.Bench)
			if err != nil {
				return err
			}
			report.write(cmd.OutOrStdout())
			return nil
		},
	}

	f := cmd.Flags()
	addTreeFlags(cmd)
	f.Int("size", 0, "number of elements")
	f.Int("ops", 0, "number of operations")
	f.Float64("update-ratio", 0, "fraction of operations that are updates")
	f.Int("max-span", 0, "maximum number of elements touched by one update")
	f.Uint64("seed", 0, "random seed")
	return cmd
}

// runBench 构建随机序列的区间树并重放随机操作。
// 查询区间在整个序列上均匀选取；更新区间长度不超过 MaxSpan，因为更新逐点进行。
func runBench(treeCfg config.TreeConfig, cfg config.BenchConfig) (*benchReport, error) {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	elems := make([]int64, cfg.Size)
	for i := range elems {
		elems[i] = rng.Int64N(1_000_000)
	}
	tree, err := buildTree(treeCfg, elems)
	if err != nil {
		return nil, err
	}

	report := &benchReport{
		Size:       cfg.Size,
		QueryHist:  hdrhistogram.New(1, int64(10*time.Second), 3),
		UpdateHist: hdrhistogram.New(1, int64(10*time.Second), 3),
	}

	begin := time.Now()
	for range cfg.Ops {
		if rng.Float64() < cfg.UpdateRatio {
			span := 1 + rng.IntN(min(cfg.MaxSpan, cfg.Size))
			left := rng.IntN(cfg.Size - span + 1)
			value := rng.Int64N(1000)

			start := time.Now()
			err = tree.Update(value, left, left+span-1)
			_ = report.UpdateHist.RecordValue(max(int64(time.Since(start)), 1))
			report.Updates++
		} else {
			l, r := rng.IntN(cfg.Size), rng.IntN(cfg.Size)
			if l > r {
				l, r = r, l
			}

			start := time.Now()
			_, err = tree.Query(l, r)
			_ = report.QueryHist.RecordValue(max(int64(time.Since(start)), 1))
			report.Queries++
		}
		if err != nil {
			return nil, err
		}
	}
	report.Elapsed = time.Since(begin)
	return report, nil
}

func (r *benchReport) write(w io.Writer) {
	tw := tabwriter.NewWriter(w, 2, 2, 2, ' ', 0)
	fmt.Fprintf(tw, "size=%d queries=%d updates=%d elapsed=%s ops/s=%.0f\n\n",
		r.Size, r.Queries, r.Updates, r.Elapsed.Round(time.Millisecond), r.throughput())
	fmt.Fprintln(tw, "op\tcount\tmin\tmean\tp50\tp90\tp99\tp99.9\tmax\t")
	writeHistRow(tw, "query", r.QueryHist)
	writeHistRow(tw, "update", r.UpdateHist)
	_ = tw.Flush()
}

func (r *benchReport) throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Queries+r.Updates) / r.Elapsed.Seconds()
}

func writeHistRow(w io.Writer, name string, h *hdrhistogram.Histogram) {
	if h.TotalCount() == 0 {
		fmt.Fprintf(w, "%s\t0\t-\t-\t-\t-\t-\t-\t-\t\n", name)
		return
	}
	ns := func(v int64) string { return time.Duration(v).String() }
	fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
		name, h.TotalCount(),
		ns(h.Min()), ns(int64(h.Mean())),
		ns(h.ValueAtPercentile(50)), ns(h.ValueAtPercentile(90)),
		ns(h.ValueAtPercentile(99)), ns(h.ValueAtPercentile(99.9)),
		ns(h.Max()))
}
