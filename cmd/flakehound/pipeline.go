package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bgricker/flakehound/internal/config"
	"github.com/bgricker/flakehound/internal/discovery"
	"github.com/bgricker/flakehound/internal/flake"
	"github.com/bgricker/flakehound/internal/logging"
	"github.com/bgricker/flakehound/internal/provider/cargo"
	"github.com/bgricker/flakehound/internal/provider/filter"
	"github.com/bgricker/flakehound/internal/runner"
	"github.com/bgricker/flakehound/internal/version"
)

// pipeline bundles everything one command invocation needs.
type pipeline struct {
	cfg          config.Config
	root         string
	log          *zap.Logger
	provider     *cargo.Cargo
	orchestrator *flake.Orchestrator
	warnings     []string
}

func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	root, err := os.Getwd()
	if err != nil {
		return config.Config{}, "", fmt.Errorf("determine working directory: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return config.Config{}, "", err
	}

	flags, err := gatherFlags(cmd)
	if err != nil {
		return config.Config{}, "", err
	}
	config.ApplyFlags(&cfg, flags)
	cfg.Format = strings.ToLower(cfg.Format)

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, "", err
	}
	return cfg, root, nil
}

func newPipeline(cmd *cobra.Command, progress flake.Progress, fields ...zap.Field) (*pipeline, error) {
	cfg, root, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.LoggerConfig{
		IsDebug:       cfg.Verbose,
		Output:        cmd.ErrOrStderr(),
		InitialFields: fields,
	})

	warnings, err := preflight(cmd.Context(), cfg, root, logger)
	if err != nil {
		return nil, err
	}

	skip, err := filter.Compile(cfg.Skip)
	if err != nil {
		return nil, &config.ValidationError{Field: "skip", Reason: err.Error()}
	}

	prov := cargo.New(cfg.Cargo, cfg.Features)
	prov.Exact = cfg.Exact
	prov.Env = cfg.Env

	exec := runner.New(runner.Options{
		Root:    root,
		Timeout: cfg.Timeout,
		Logger:  logger.Named("runner"),
	})

	if progress == nil || !cfg.Progress || cfg.DryRun || cfg.Format != config.FormatPretty {
		progress = nil
	}

	orch, err := flake.New(flake.Options{
		Provider:          prov,
		Lister:            exec,
		Executor:          exec,
		Threads:           cfg.Threads,
		Prefix:            cfg.Prefix,
		Skip:              skip,
		Iterations:        cfg.Iterations,
		TolerableFailures: cfg.TolerableFailures,
		ShardSize:         cfg.ShardSize,
		Progress:          progress,
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}

	return &pipeline{
		cfg:          cfg,
		root:         root,
		log:          logger,
		provider:     prov,
		orchestrator: orch,
		warnings:     warnings,
	}, nil
}

// preflight makes sure cargo can be started before discovery and collects
// toolchain warnings.
func preflight(ctx context.Context, cfg config.Config, root string, logger *zap.Logger) ([]string, error) {
	info, err := version.DetectCargo(ctx, cfg.Cargo)
	if err != nil {
		if version.Missing(err) {
			return nil, &discovery.Error{Op: "locate cargo", Err: fmt.Errorf("%s executable not found: %w", cfg.Cargo, err)}
		}
		logger.Debug("unable to detect cargo version", zap.Error(err))
		return nil, nil
	}
	logger.Debug("detected toolchain", zap.String("cargo", info.Version))

	if !cfg.Warn.ToolchainMismatch {
		return nil, nil
	}
	pinned, err := version.PinnedToolchain(root)
	if err != nil {
		return []string{fmt.Sprintf("unable to read pinned toolchain: %v", err)}, nil
	}
	if pinned != "" && !version.CompareMajorMinor(pinned, info.Version) {
		return []string{fmt.Sprintf("cargo version mismatch: rust-toolchain pins %s but found %s", pinned, info.Version)}, nil
	}
	return nil, nil
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", msg)
	}
}
