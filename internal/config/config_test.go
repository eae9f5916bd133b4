package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(body), 0o644))
	return root
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, runtime.NumCPU(), cfg.Threads)
	assert.Equal(t, 100, cfg.Iterations)
	assert.Equal(t, 0, cfg.TolerableFailures)
	assert.Equal(t, "cargo", cfg.Cargo)
	assert.Equal(t, FormatPretty, cfg.Format)
	assert.True(t, cfg.Progress)
	assert.NoError(t, Validate(cfg))
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	root := writeConfig(t, `threads: 3
features: "tls serde"
prefix: net::
iterations: 0
tolerable_failures: 2
skip:
  - slow
shard_size: 25
timeout: 30s
cargo: /opt/bin/cargo
exact: true
env:
  RUST_BACKTRACE: "1"
format: json
fail_on_flaky: true
progress: false
warn:
  toolchain_mismatch: false
`)

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Threads)
	assert.Equal(t, "tls serde", cfg.Features)
	assert.Equal(t, "net::", cfg.Prefix)
	assert.Equal(t, 0, cfg.Iterations, "explicit zero must be honoured")
	assert.Equal(t, 2, cfg.TolerableFailures)
	assert.Equal(t, []string{"slow"}, cfg.Skip)
	assert.Equal(t, 25, cfg.ShardSize)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "/opt/bin/cargo", cfg.Cargo)
	assert.True(t, cfg.Exact)
	assert.Equal(t, map[string]string{"RUST_BACKTRACE": "1"}, cfg.Env)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.True(t, cfg.FailOnFlaky)
	assert.False(t, cfg.Progress)
	assert.False(t, cfg.Warn.ToolchainMismatch)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "iteration: 5\n"))
	require.Error(t, err)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	_, err := Load(writeConfig(t, "timeout: soon\n"))
	require.Error(t, err)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "timeout", vErr.Field)
}

func TestApplyFlagsOverridesOnlySetValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, "threads: 3\nprefix: net::\n"))
	require.NoError(t, err)

	ApplyFlags(&cfg, FlagValues{
		Iterations: IntFlag{Value: 10, Set: true},
		Prefix:     StringFlag{Value: "", Set: false},
		Skip:       SliceFlag{Values: []string{"/slow$/"}},
		Timeout:    DurationFlag{Value: time.Minute, Set: true},
	})

	assert.Equal(t, 3, cfg.Threads)
	assert.Equal(t, "net::", cfg.Prefix)
	assert.Equal(t, 10, cfg.Iterations)
	assert.Equal(t, []string{"/slow$/"}, cfg.Skip)
	assert.Equal(t, time.Minute, cfg.Timeout)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		field  string
		mutate func(*Config)
	}{
		{"threads", func(c *Config) { c.Threads = 0 }},
		{"iterations", func(c *Config) { c.Iterations = -1 }},
		{"tolerable_failures", func(c *Config) { c.TolerableFailures = -1 }},
		{"shard_size", func(c *Config) { c.ShardSize = -5 }},
		{"timeout", func(c *Config) { c.Timeout = -time.Second }},
		{"cargo", func(c *Config) { c.Cargo = " " }},
		{"format", func(c *Config) { c.Format = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			err := Validate(cfg)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "expected ValidationError, got %v", err)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}
