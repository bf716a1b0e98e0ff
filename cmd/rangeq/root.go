package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wyfcoding/rangekit/config"
	"github.com/wyfcoding/rangekit/logging"
)

const serviceName = "rangeq"

// version 在构建时通过 -ldflags "-X main.version=..." 注入。
var version = "dev"

// app 保存命令之间共享的运行时状态，由根命令的 PersistentPreRunE 填充。
type app struct {
	configPath string

	loader *config.Loader
	cfg    *config.Config
	logger *logging.Logger
}

// flagBindings 把命令行参数映射到配置键，命令行优先于文件与环境变量。
var flagBindings = map[string]string{
	"preset":       "tree.preset",
	"merge":        "tree.merge",
	"apply":        "tree.apply",
	"fallback":     "tree.fallback",
	"metrics":      "metrics.enabled",
	"metrics-port": "metrics.port",
	"log-level":    "log.level",
	"size":         "bench.size",
	"ops":          "bench.ops",
	"update-ratio": "bench.update_ratio",
	"max-span":     "bench.max_span",
	"seed":         "bench.seed",
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Range aggregation queries over integer sequences",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Close()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (toml, yaml or json)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newRunCmd(a),
		newBenchCmd(a),
		newPrimesCmd(),
		newBoundCmd(),
		newModCmd(),
		newCompleteCmd(),
	)
	return root
}

// setup 加载配置并初始化日志，日志写入 stderr，stdout 只输出结果。
func (a *app) setup(cmd *cobra.Command) error {
	a.loader = config.NewLoader()

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagBindings[f.Name]
		if !ok || bindErr != nil {
			return
		}
		bindErr = a.loader.Viper().BindPFlag(key, f)
	})
	if bindErr != nil {
		return bindErr
	}

	cfg, err := a.loader.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	lc := cfg.LoggingConfig(serviceName, cmd.Name())
	lc.Writer = cmd.ErrOrStderr()
	a.logger = logging.NewFromConfig(lc)
	logging.SetDefault(a.logger)

	a.logger.Debug("config loaded", "path", a.configPath, "preset", cfg.Tree.Preset)
	if cfg.Log.Level == "debug" {
		config.PrintWithMask(cfg)
	}
	return nil
}
