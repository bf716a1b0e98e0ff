package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/rangekit/logging"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rangekit.toml", `
[log]
level = "debug"

[tree]
preset = "expr"
merge = "max(a, b)"
apply = "a + b"
fallback = -1000

[bench]
size = 64
ops = 500
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "expr", cfg.Tree.Preset)
	assert.Equal(t, "max(a, b)", cfg.Tree.Merge)
	assert.Equal(t, int64(-1000), cfg.Tree.Fallback)
	assert.Equal(t, 64, cfg.Bench.Size)
	assert.Equal(t, 500, cfg.Bench.Ops)
	assert.InDelta(t, 0.3, cfg.Bench.UpdateRatio, 1e-9, "unset keys keep defaults")
}

func TestLoadYAMLByExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rangekit.yaml", "tree:\n  preset: max-add\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "max-add", cfg.Tree.Preset)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("RANGEKIT_TREE_PRESET", "min")
	t.Setenv("RANGEKIT_BENCH_SIZE", "12")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "min", cfg.Tree.Preset)
	assert.Equal(t, 12, cfg.Bench.Size)
}

func TestValidation(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"unknown preset":   "[tree]\npreset = \"median\"\n",
		"expr needs merge": "[tree]\npreset = \"expr\"\napply = \"a + b\"\n",
		"bad level":        "[log]\nlevel = \"verbose\"\n",
		"ratio above one":  "[bench]\nupdate_ratio = 1.5\n",
		"metrics no port":  "[metrics]\nenabled = true\nport = \"\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, dir, "c.toml", body))
			assert.ErrorContains(t, err, "validation failed")
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorContains(t, err, "read config error")
}

func TestReloadRunsHooksOnlyForValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rangekit.toml", "[log]\nlevel = \"info\"\n")

	l := NewLoader()
	_, err := l.Load(path)
	require.NoError(t, err)
	t.Cleanup(func() { logging.SetLevel("info") })

	var got []*Config
	l.OnReload(func(c *Config) { got = append(got, c) })

	writeFile(t, dir, "rangekit.toml", "[log]\nlevel = \"warn\"\n[tree]\npreset = \"max\"\n")
	require.NoError(t, l.reload(fsnotify.Event{Name: path, Op: fsnotify.Write}))
	require.Len(t, got, 1)
	assert.Equal(t, "warn", got[0].Log.Level)
	assert.Equal(t, "max", got[0].Tree.Preset)

	writeFile(t, dir, "rangekit.toml", "[tree]\npreset = \"nope\"\n")
	assert.Error(t, l.reload(fsnotify.Event{Name: path, Op: fsnotify.Write}))
	assert.Len(t, got, 1, "invalid config must not reach hooks")

	// Chmod 之类的事件被忽略。
	assert.NoError(t, l.reload(fsnotify.Event{Name: path, Op: fsnotify.Chmod}))
	assert.Len(t, got, 1)
}

func TestLoggingConfig(t *testing.T) {
	cfg := Default()
	cfg.Log.File = "/tmp/rangekit.log"
	lc := cfg.LoggingConfig("rangeq", "cli")
	assert.Equal(t, "rangeq", lc.Service)
	assert.Equal(t, "cli", lc.Module)
	assert.Equal(t, "/tmp/rangekit.log", lc.File)
	assert.Equal(t, 100, lc.MaxSize)
}
