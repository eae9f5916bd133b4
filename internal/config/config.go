package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the optional config file read from the working directory.
const FileName = ".flakehound.yml"

const (
	// DefaultIterations is the number of runs per test when none is configured.
	DefaultIterations = 100
	// DefaultTolerableFailures reports any test that failed at least once.
	DefaultTolerableFailures = 0
	// DefaultCargo is the cargo executable looked up on PATH.
	DefaultCargo = "cargo"

	// FormatPretty renders human readable output.
	FormatPretty = "pretty"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"
)

// Config captures CLI options sourced from the config file or flags. It is
// not mutated once a run starts.
type Config struct {
	Threads           int
	Features          string
	Prefix            string
	Iterations        int
	TolerableFailures int
	Skip              []string
	ShardSize         int
	Timeout           time.Duration
	Cargo             string
	Exact             bool
	Env               map[string]string

	Format      string
	Verbose     bool
	DryRun      bool
	Progress    bool
	FailOnFlaky bool

	Warn WarnConfig
}

// WarnConfig controls additional warning behaviour.
type WarnConfig struct {
	ToolchainMismatch bool
}

// Default returns the baseline configuration used when no flags or config file specify values.
func Default() Config {
	return Config{
		Threads:           runtime.NumCPU(),
		Iterations:        DefaultIterations,
		TolerableFailures: DefaultTolerableFailures,
		Cargo:             DefaultCargo,
		Format:            FormatPretty,
		Progress:          true,
		Warn: WarnConfig{
			ToolchainMismatch: true,
		},
	}
}

// fileConfig mirrors the YAML schema. Pointers distinguish an explicit zero
// from an absent key.
type fileConfig struct {
	Threads           *int              `yaml:"threads"`
	Features          *string           `yaml:"features"`
	Prefix            *string           `yaml:"prefix"`
	Iterations        *int              `yaml:"iterations"`
	TolerableFailures *int              `yaml:"tolerable_failures"`
	Skip              []string          `yaml:"skip"`
	ShardSize         *int              `yaml:"shard_size"`
	Timeout           *string           `yaml:"timeout"`
	Cargo             *string           `yaml:"cargo"`
	Exact             *bool             `yaml:"exact"`
	Env               map[string]string `yaml:"env"`

	Format      *string `yaml:"format"`
	Verbose     *bool   `yaml:"verbose"`
	DryRun      *bool   `yaml:"dry_run"`
	Progress    *bool   `yaml:"progress"`
	FailOnFlaky *bool   `yaml:"fail_on_flaky"`

	Warn struct {
		ToolchainMismatch *bool `yaml:"toolchain_mismatch"`
	} `yaml:"warn"`
}

// Load reads .flakehound.yml from root when present. Missing files are ignored.
func Load(root string) (Config, error) {
	cfg := Default()
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	fileCfg, err := decode(data)
	if err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	return merge(cfg, fileCfg)
}

func decode(data []byte) (fileConfig, error) {
	var fileCfg fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fileCfg); err != nil && !errors.Is(err, io.EOF) {
		return fileConfig{}, err
	}
	return fileCfg, nil
}

func merge(base Config, override fileConfig) (Config, error) {
	out := base

	if override.Threads != nil {
		out.Threads = *override.Threads
	}
	if override.Features != nil {
		out.Features = *override.Features
	}
	if override.Prefix != nil {
		out.Prefix = *override.Prefix
	}
	if override.Iterations != nil {
		out.Iterations = *override.Iterations
	}
	if override.TolerableFailures != nil {
		out.TolerableFailures = *override.TolerableFailures
	}
	if len(override.Skip) > 0 {
		out.Skip = append([]string{}, override.Skip...)
	}
	if override.ShardSize != nil {
		out.ShardSize = *override.ShardSize
	}
	if override.Timeout != nil {
		d, err := parseTimeout(*override.Timeout)
		if err != nil {
			return base, err
		}
		out.Timeout = d
	}
	if override.Cargo != nil {
		out.Cargo = *override.Cargo
	}
	if override.Exact != nil {
		out.Exact = *override.Exact
	}
	if len(override.Env) > 0 {
		out.Env = make(map[string]string, len(override.Env))
		for k, v := range override.Env {
			out.Env[k] = v
		}
	}
	if override.Format != nil {
		out.Format = *override.Format
	}
	if override.Verbose != nil {
		out.Verbose = *override.Verbose
	}
	if override.DryRun != nil {
		out.DryRun = *override.DryRun
	}
	if override.Progress != nil {
		out.Progress = *override.Progress
	}
	if override.FailOnFlaky != nil {
		out.FailOnFlaky = *override.FailOnFlaky
	}
	if override.Warn.ToolchainMismatch != nil {
		out.Warn.ToolchainMismatch = *override.Warn.ToolchainMismatch
	}

	return out, nil
}

func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, &ValidationError{Field: "timeout", Reason: fmt.Sprintf("invalid duration %q", raw)}
	}
	return d, nil
}

// ApplyFlags mutates cfg by applying values from CLI flags when they are present.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.Threads.Set {
		cfg.Threads = flags.Threads.Value
	}
	if flags.Features.Set {
		cfg.Features = flags.Features.Value
	}
	if flags.Prefix.Set {
		cfg.Prefix = flags.Prefix.Value
	}
	if flags.Iterations.Set {
		cfg.Iterations = flags.Iterations.Value
	}
	if flags.TolerableFailures.Set {
		cfg.TolerableFailures = flags.TolerableFailures.Value
	}
	if len(flags.Skip.Values) > 0 {
		cfg.Skip = append([]string{}, flags.Skip.Values...)
	}
	if flags.ShardSize.Set {
		cfg.ShardSize = flags.ShardSize.Value
	}
	if flags.Timeout.Set {
		cfg.Timeout = flags.Timeout.Value
	}
	if flags.Cargo.Set {
		cfg.Cargo = flags.Cargo.Value
	}
	if flags.Exact.Set {
		cfg.Exact = flags.Exact.Value
	}
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
	}
	if flags.DryRun.Set {
		cfg.DryRun = flags.DryRun.Value
	}
	if flags.Progress.Set {
		cfg.Progress = flags.Progress.Value
	}
	if flags.FailOnFlaky.Set {
		cfg.FailOnFlaky = flags.FailOnFlaky.Value
	}
}

// FlagValues captures CLI flag state with knowledge of whether each flag was set explicitly.
type FlagValues struct {
	Threads           IntFlag
	Features          StringFlag
	Prefix            StringFlag
	Iterations        IntFlag
	TolerableFailures IntFlag
	Skip              SliceFlag
	ShardSize         IntFlag
	Timeout           DurationFlag
	Cargo             StringFlag
	Exact             BoolFlag
	Format            StringFlag
	Verbose           BoolFlag
	DryRun            BoolFlag
	Progress          BoolFlag
	FailOnFlaky       BoolFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// IntFlag represents an int flag and whether it was set.
type IntFlag struct {
	Value int
	Set   bool
}

// DurationFlag represents a duration flag and whether it was set.
type DurationFlag struct {
	Value time.Duration
	Set   bool
}

// SliceFlag represents a slice flag and whether it captured values via CLI.
type SliceFlag struct {
	Values []string
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}
