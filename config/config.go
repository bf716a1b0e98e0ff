// Package config 提供了统一的配置加载、校验与热更新能力.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wyfcoding/rangekit/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 RANGEKIT_TREE_PRESET 覆盖 tree.preset。
const EnvPrefix = "RANGEKIT"

// Config 全局顶级配置结构.
type Config struct {
	Log     LogConfig     `mapstructure:"log"     toml:"log"     json:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" toml:"metrics" json:"metrics"`
	Tree    TreeConfig    `mapstructure:"tree"    toml:"tree"    json:"tree"`
	Bench   BenchConfig   `mapstructure:"bench"   toml:"bench"   json:"bench"`
}

// LogConfig 定义日志输出、级别与切割策略.
type LogConfig struct {
	Level      string `mapstructure:"level"       toml:"level"       json:"level"       validate:"oneof=debug info warn error"`
	File       string `mapstructure:"file"        toml:"file"        json:"file"`
	Console    bool   `mapstructure:"console"     toml:"console"     json:"console"`
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"    json:"max_size"    validate:"min=0"`
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups" json:"max_backups" validate:"min=0"`
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"     json:"max_age"     validate:"min=0"`
	Compress   bool   `mapstructure:"compress"    toml:"compress"    json:"compress"`
}

// MetricsConfig 定义 Prometheus 指标暴露参数.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"   toml:"enabled"   json:"enabled"`
	Port      string `mapstructure:"port"      toml:"port"      json:"port"      validate:"required_if=Enabled true"`
	Namespace string `mapstructure:"namespace" toml:"namespace" json:"namespace"`
}

// TreeConfig 定义区间树的算子.
// Preset 为 expr 时由 Merge 与 Apply 表达式定义算子，Fallback 为不相交区间的返回值。
type TreeConfig struct {
	Preset   string `mapstructure:"preset"   toml:"preset"   json:"preset"   validate:"oneof=sum max min max-add min-add sum-set expr"`
	Merge    string `mapstructure:"merge"    toml:"merge"    json:"merge"    validate:"required_if=Preset expr"`
	Apply    string `mapstructure:"apply"    toml:"apply"    json:"apply"    validate:"required_if=Preset expr"`
	Fallback int64  `mapstructure:"fallback" toml:"fallback" json:"fallback"`
}

// BenchConfig 定义压测参数.
type BenchConfig struct {
	Size        int     `mapstructure:"size"         toml:"size"         json:"size"         validate:"min=1"`
	Ops         int     `mapstructure:"ops"          toml:"ops"          json:"ops"          validate:"min=1"`
	UpdateRatio float64 `mapstructure:"update_ratio" toml:"update_ratio" json:"update_ratio" validate:"min=0,max=1"`
	MaxSpan     int     `mapstructure:"max_span"     toml:"max_span"     json:"max_span"     validate:"min=1"`
	Seed        uint64  `mapstructure:"seed"         toml:"seed"         json:"seed"`
}

// Default 返回可直接使用的默认配置.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
		},
		Metrics: MetricsConfig{
			Port:      "9090",
			Namespace: "rangekit",
		},
		Tree: TreeConfig{
			Preset: "sum",
		},
		Bench: BenchConfig{
			Size:        100_000,
			Ops:         1_000_000,
			UpdateRatio: 0.3,
			MaxSpan:     1,
			Seed:        1,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.console", d.Log.Console)
	v.SetDefault("log.max_size", d.Log.MaxSize)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age", d.Log.MaxAge)
	v.SetDefault("log.compress", d.Log.Compress)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.port", d.Metrics.Port)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("tree.preset", d.Tree.Preset)
	v.SetDefault("tree.merge", d.Tree.Merge)
	v.SetDefault("tree.apply", d.Tree.Apply)
	v.SetDefault("tree.fallback", d.Tree.Fallback)
	v.SetDefault("bench.size", d.Bench.Size)
	v.SetDefault("bench.ops", d.Bench.Ops)
	v.SetDefault("bench.update_ratio", d.Bench.UpdateRatio)
	v.SetDefault("bench.max_span", d.Bench.MaxSpan)
	v.SetDefault("bench.seed", d.Bench.Seed)
}

// Loader 持有一个 viper 实例，负责加载、校验与热更新.
type Loader struct {
	v        *viper.Viper
	validate *validator.Validate
	mu       sync.Mutex
	hooks    []func(*Config)
}

// NewLoader 创建配置加载器.
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{
		v:        v,
		validate: validator.New(),
	}
}

// Load 读取配置文件（path 为空时仅使用默认值与环境变量），反序列化并校验.
// 文件类型由扩展名推断，无扩展名时按 toml 解析。
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			l.v.SetConfigType("toml")
		}
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config error: %w", err)
		}
	}
	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	conf := &Config{}
	if err := l.v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("unmarshal config error: %w", err)
	}
	if err := l.validate.Struct(conf); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return conf, nil
}

// OnReload 注册配置热更新回调，回调收到的是校验通过的新配置.
func (l *Loader) OnReload(hook func(*Config)) {
	if hook == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.hooks = append(l.hooks, hook)
}

// Watch 监听配置文件变化. 只有通过校验的新配置才会生效.
func (l *Loader) Watch() {
	l.v.OnConfigChange(func(event fsnotify.Event) {
		if err := l.reload(event); err != nil {
			slog.Error("config reload rejected", "file", event.Name, "error", err)
		}
	})
	l.v.WatchConfig()
}

// reload 处理一次文件变更事件：重新读取、校验，更新全局日志级别并依次执行回调.
func (l *Loader) reload(event fsnotify.Event) error {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return nil
	}
	slog.Info("detecting config change", "file", event.Name, "op", event.Op.String())

	if err := l.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config error: %w", err)
	}
	conf, err := l.decode()
	if err != nil {
		return err
	}

	logging.SetLevel(conf.Log.Level)

	l.mu.Lock()
	hooks := append([]func(*Config){}, l.hooks...)
	l.mu.Unlock()
	for _, hook := range hooks {
		hook(conf)
	}

	slog.Info("config hot-reloaded and validated successfully")
	return nil
}

// Viper 返回底层的 Viper 实例.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load 使用新的 Loader 加载配置.
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// LoggingConfig 把日志配置转换为 logging.Config.
func (c *Config) LoggingConfig(service, module string) logging.Config {
	return logging.Config{
		Service:    service,
		Module:     module,
		Level:      c.Log.Level,
		File:       c.Log.File,
		Console:    c.Log.Console,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
	}
}

// PrintWithMask 脱敏打印当前配置.
func PrintWithMask(conf any) {
	data, err := json.Marshal(conf)
	if err != nil {
		slog.Error("failed to marshal config for printing", "error", err)
		return
	}

	var configMap map[string]any
	if err := json.Unmarshal(data, &configMap); err != nil {
		slog.Error("failed to unmarshal config for masking", "error", err)
		return
	}

	mask(configMap)

	maskedJSON, err := json.MarshalIndent(configMap, "  ", "  ")
	if err != nil {
		slog.Error("failed to marshal masked config", "error", err)
		return
	}

	slog.Info("Current effective configuration", "config", string(maskedJSON))
}

func mask(configMap map[string]any) {
	sensitiveKeys := []string{"password", "secret", "dsn", "key", "token"}

	for key, val := range configMap {
		if subMap, ok := val.(map[string]any); ok {
			mask(subMap)
			continue
		}
		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(strings.ToLower(key), sensitiveKey) {
				configMap[key] = "******"
				break
			}
		}
	}
}
