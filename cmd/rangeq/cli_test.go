package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/rangekit/xerrors"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestRunMaxAddScenario(t *testing.T) {
	script := "0 0 0 0\nupdate 3 0 0\nquery 0 3\nupdate 5 2 2\nquery 0 3\nquery 0 1\n"
	out, _, err := execute(t, script, "run", "--preset", "max-add")
	require.NoError(t, err)
	assert.Equal(t, "3\n5\n3\n", out)
}

func TestRunSumSetFromConfigAndScriptFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "rangeq.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[tree]\npreset = \"sum-set\"\n[log]\nlevel = \"error\"\n"), 0o600))
	scriptPath := filepath.Join(dir, "ops.txt")
	require.NoError(t, os.WriteFile(scriptPath, []byte("1 2 3\nquery 0 2\nupdate 10 1 1\nquery 0 2\nget 1\n"), 0o600))

	out, errOut, err := execute(t, "", "run", "--config", cfgPath, "--script", scriptPath)
	require.NoError(t, err)
	assert.Equal(t, "6\n14\n10\n", out)
	assert.Empty(t, errOut, "error level hides info logs")
}

func TestRunExprPresetFromFlags(t *testing.T) {
	script := "3 9 4\nquery 0 2\nupdate 20 1 1\nquery 1 2\n"
	out, _, err := execute(t, script, "run",
		"--preset", "expr", "--merge", "max(a, b)", "--apply", "min(a, b)", "--fallback", "-1000",
		"--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "9\n9\n", out)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	_, _, err := execute(t, "1\n", "run", "--preset", "median")
	assert.ErrorContains(t, err, "validation failed")

	_, _, err = execute(t, "1\n", "run", "--preset", "expr", "--merge", "a +", "--apply", "b")
	assert.ErrorIs(t, err, xerrors.ErrInvalidExpression)
}

func TestRunWithMetricsEndpoint(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	require.NoError(t, l.Close())

	out, _, err := execute(t, "1 2 3\nquery 0 2\n", "run", "--metrics", "--metrics-port", port, "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "6\n", out)
}

func TestPrimes(t *testing.T) {
	out, _, err := execute(t, "", "primes", "30")
	require.NoError(t, err)
	assert.Equal(t, "2 3 5 7 11 13 17 19 23 29\n", out)

	out, _, err = execute(t, "", "primes", "--count", "100")
	require.NoError(t, err)
	assert.Equal(t, "25\n", out)

	out, _, err = execute(t, "", "primes", "1")
	require.NoError(t, err)
	assert.Equal(t, "\n", out)
}

func TestBound(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"lower", "3", "1", "3", "3", "5"}, "1 true\n"},
		{[]string{"upper", "3", "1", "3", "3", "5"}, "3 true\n"},
		{[]string{"lower", "4", "1", "3", "3", "5"}, "3 false\n"},
		{[]string{"upper", "9", "1", "3", "3", "5"}, "4 false\n"},
		{[]string{"lower", "0"}, "0 false\n"},
		{[]string{"lower", "-2", "-5", "-2", "0"}, "1 true\n"},
		{[]string{"upper", "-3", "-5", "-2", "0"}, "1 false\n"},
	}
	for _, tc := range cases {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			out, _, err := execute(t, "", append([]string{"bound"}, tc.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}

	_, _, err := execute(t, "", "bound", "lower", "3", "5", "1")
	assert.ErrorContains(t, err, "sorted")
	_, _, err = execute(t, "", "bound", "middle", "3", "1")
	assert.ErrorContains(t, err, "unknown bound")
}

func TestMod(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"pow", "2", "10"}, "1024\n"},
		{[]string{"-m", "7", "div", "1", "3"}, "5\n"},
		{[]string{"fact", "20"}, "146326063\n"},
		{[]string{"binom", "5", "2"}, "10\n"},
		{[]string{"--modulus", "7", "sub", "2", "5"}, "4\n"},
		{[]string{"sub", "-5", "3"}, "999999999\n"},
		{[]string{"-m", "7", "mul", "-3", "3"}, "5\n"},
	}
	for _, tc := range cases {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			out, _, err := execute(t, "", append([]string{"mod"}, tc.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}

	_, _, err := execute(t, "", "mod", "-m", "4", "inv", "2")
	assert.ErrorIs(t, err, xerrors.ErrNotInvertible)
	_, _, err = execute(t, "", "mod", "-m", "1", "add", "1")
	assert.ErrorIs(t, err, xerrors.ErrInvalidModulus)
	_, _, err = execute(t, "", "mod", "add", "1")
	assert.ErrorContains(t, err, "add expects 2 arguments")
}

func TestComplete(t *testing.T) {
	out, _, err := execute(t, "apple app banana\napply app\n", "complete", "app")
	require.NoError(t, err)
	assert.Equal(t, "app\napple\napply\n", out)
}

func TestBenchCommand(t *testing.T) {
	out, _, err := execute(t, "", "bench", "--size", "64", "--ops", "500", "--max-span", "4", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "size=64")
	assert.Contains(t, out, "p99.9")
	assert.Contains(t, out, "query")
	assert.Contains(t, out, "update")
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"plain", errors.New("disk full"), exitFailure},
		{"canceled", fmt.Errorf("line 3: %w", context.Canceled), exitInterrupted},
		{"empty input", xerrors.ErrEmptyInput.Clone(), exitUsage},
		{"wrapped range", fmt.Errorf("line 2: %w", xerrors.InvalidRange(4, 1, 3)), exitUsage},
		{"missing operator", xerrors.ErrOperatorNotFound.Clone(), exitPrecondition},
		{"operator panic", xerrors.Internal("operator panic: boom", nil), exitFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exitCode(tc.err))
		})
	}

	_, _, err := execute(t, "", "mod", "-m", "4", "inv", "2")
	assert.Equal(t, exitUsage, exitCode(err))
}
