package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/wyfcoding/rangekit/algorithm/segtree"
	"github.com/wyfcoding/rangekit/metrics"
	"github.com/wyfcoding/rangekit/xerrors"
)

// treeFactory 由初始序列构建区间树。
type treeFactory func(elems []int64) (*segtree.Tree[int64], error)

// scriptStats 汇总一次脚本执行的结果。
type scriptStats struct {
	Lines    int // 执行的命令行数，不含空行、注释与初始序列
	Failures int
}

// processor 逐行执行脚本：第一行有效内容为初始序列，其后每行一条命令。
//
//	query l r    输出 [l, r] 的聚合值
//	get i        输出第 i 个元素
//	update v l r 对 [l, r] 中每个元素应用 v
//	set i v      对第 i 个元素应用 v
//
// 出错的行写入 errOut 并继续执行后续行。
type processor struct {
	build   treeFactory
	metrics *metrics.Metrics
	out     io.Writer
	errOut  io.Writer
	logger  *slog.Logger

	tree *metrics.InstrumentedTree[int64]
}

func newProcessor(build treeFactory, m *metrics.Metrics, out, errOut io.Writer, logger *slog.Logger) *processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &processor{
		build:   build,
		metrics: m,
		out:     out,
		errOut:  errOut,
		logger:  logger,
	}
}

// Run 读取 r 直到 EOF 或 ctx 结束。
// 读取在独立的 goroutine 中进行，ctx 结束时即使 r 仍阻塞也会立即返回；
// r 实现 io.Closer 时同时关闭 r，使阻塞的读取随之结束。
func (p *processor) Run(ctx context.Context, r io.Reader) (scriptStats, error) {
	var stats scriptStats

	if c, ok := r.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { _ = c.Close() })
		defer stop()
	}
	lines, scanErr := scanLines(ctx, r)

	lineNo := 0
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		var (
			raw string
			ok  bool
		)
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case raw, ok = <-lines:
		}
		if !ok {
			break
		}

		lineNo++
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if p.tree == nil {
			if err := p.init(line); err != nil {
				// 没有初始序列后续命令都无法执行。
				return stats, fmt.Errorf("line %d: %w", lineNo, err)
			}
			continue
		}

		stats.Lines++
		if err := p.exec(line); err != nil {
			stats.Failures++
			fmt.Fprintf(p.errOut, "line %d: %v\n", lineNo, err)
			p.logger.Debug("script line failed", "line", lineNo, "error", err)
		}
	}
	if err := <-scanErr; err != nil {
		return stats, fmt.Errorf("read script: %w", err)
	}
	if p.tree == nil {
		return stats, xerrors.ErrEmptyInput.Clone().WithDetail("script has no initial sequence")
	}

	p.logger.Info("script finished", "lines", stats.Lines, "failures", stats.Failures, "size", p.tree.Len())
	return stats, nil
}

// scanLines 逐行读取 r 并发送到返回的通道，读完后关闭通道并在 errc 上给出扫描错误。
// ctx 结束后停止发送。
func scanLines(ctx context.Context, r io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)

		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		errc <- sc.Err()
	}()
	return lines, errc
}

func (p *processor) init(line string) error {
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ' ' || r == '\t' || r == ',' })
	elems := make([]int64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return fmt.Errorf("initial sequence: %w", err)
		}
		elems = append(elems, v)
	}

	tree, err := p.build(elems)
	if err != nil {
		return err
	}
	p.tree = metrics.Instrument(p.metrics, "script", tree, p.logger)
	p.logger.Info("tree built", "size", tree.Len())
	return nil
}

// exec 执行一条命令，算子 panic 被转换为错误。
func (p *processor) exec(line string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = xerrors.Internal(fmt.Sprintf("operator panic: %v", r), nil)
		}
	}()

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "query":
		n, err := parseArgs(cmd, args, 2)
		if err != nil {
			return err
		}
		v, err := p.tree.Query(int(n[0]), int(n[1]))
		if err != nil {
			return err
		}
		fmt.Fprintln(p.out, v)
	case "get":
		n, err := parseArgs(cmd, args, 1)
		if err != nil {
			return err
		}
		v, err := p.tree.Get(int(n[0]))
		if err != nil {
			return err
		}
		fmt.Fprintln(p.out, v)
	case "update":
		n, err := parseArgs(cmd, args, 3)
		if err != nil {
			return err
		}
		return p.tree.Update(n[0], int(n[1]), int(n[2]))
	case "set":
		n, err := parseArgs(cmd, args, 2)
		if err != nil {
			return err
		}
		return p.tree.Set(int(n[0]), n[1])
	default:
		return xerrors.InvalidArg(fmt.Sprintf("unknown command %q", cmd))
	}
	return nil
}

func parseArgs(cmd string, args []string, want int) ([]int64, error) {
	if len(args) != want {
		return nil, xerrors.InvalidArg(fmt.Sprintf("%s expects %d arguments, got %d", cmd, want, len(args)))
	}
	out := make([]int64, want)
	for i, a := range args {
		v, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, xerrors.InvalidArg(fmt.Sprintf("%s argument %d: %v", cmd, i+1, err))
		}
		out[i] = v
	}
	return out, nil
}
