package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/rangekit/algorithm/segtree"
	"github.com/wyfcoding/rangekit/config"
	"github.com/wyfcoding/rangekit/metrics"
)

type runOptions struct {
	script string
	watch  bool
	hold   bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a query/update script against a range tree",
		Long: `Reads a script from --script or stdin. The first non-empty line is the
initial sequence; every following line is one of:

  query l r      print the aggregate over [l, r]
  get i          print element i
  update v l r   apply v to every element in [l, r]
  set i v        apply v to element i

Lines starting with # are comments. Failing lines are reported on stderr
and execution continues.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := cmd.InOrStdin()
			if opts.script != "" && opts.script != "-" {
				f, err := os.Open(opts.script)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return a.run(cmd.Context(), opts, in, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.script, "script", "s", "", "script file, stdin when empty or -")
	f.BoolVar(&opts.watch, "watch", false, "reload --config on change")
	f.BoolVar(&opts.hold, "hold", false, "keep the metrics endpoint up after the script ends until interrupted")
	addTreeFlags(cmd)
	f.Bool("metrics", false, "expose Prometheus metrics while running")
	f.String("metrics-port", "", "metrics listen port")
	return cmd
}

func addTreeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("preset", "", "operator preset: sum, max, min, max-add, min-add, sum-set, expr")
	f.String("merge", "", "merge expression over a and b, for --preset expr")
	f.String("apply", "", "apply expression over a and b, for --preset expr")
	f.Int64("fallback", 0, "merge identity returned for disjoint ranges, for --preset expr")
}

func (a *app) run(ctx context.Context, opts *runOptions, in io.Reader, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewMetrics(a.cfg.Metrics.Namespace)
	m.RegisterBuildInfo(serviceName, version)

	// 热更新只影响日志级别，树在读到初始序列时已按当时的配置构建。
	treeCfg := a.cfg.Tree
	if opts.watch && a.configPath != "" {
		a.loader.OnReload(func(c *config.Config) {
			a.logger.Info("config reloaded", "level", c.Log.Level, "preset", c.Tree.Preset)
		})
		a.loader.Watch()
	}

	build := func(elems []int64) (*segtree.Tree[int64], error) {
		return buildTree(treeCfg, elems)
	}
	p := newProcessor(build, m, out, errOut, a.logger.Logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if a.cfg.Metrics.Enabled {
		g.Go(func() error {
			a.logger.Info("metrics endpoint listening", "port", a.cfg.Metrics.Port)
			return m.Serve(gctx, a.cfg.Metrics.Port)
		})
	}

	g.Go(func() error {
		stats, err := p.Run(gctx, in)
		if err != nil {
			return err
		}
		a.logger.Debug("script stats", "lines", stats.Lines, "failures", stats.Failures)
		if a.cfg.Metrics.Enabled && opts.hold {
			<-gctx.Done()
			return nil
		}
		cancel()
		return nil
	})

	return g.Wait()
}
