package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bgricker/flakehound/internal/config"
	"github.com/bgricker/flakehound/internal/flake"
	"github.com/bgricker/flakehound/internal/output"
	"github.com/bgricker/flakehound/internal/progress"
)

var _ flake.Progress = (*progress.Bar)(nil)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run every selected test repeatedly and report the flaky ones",
		Args:  cobra.NoArgs,
		RunE:  runExecute,
	}
}

func runExecute(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()
	bar := progress.New(cmd.ErrOrStderr(), "running tests")

	p, err := newPipeline(cmd, bar, zap.String("run_id", runID))
	if err != nil {
		return err
	}
	defer func() { _ = p.log.Sync() }()
	printWarnings(cmd, p.warnings)

	if p.cfg.DryRun {
		return renderDryRun(cmd, p, runID)
	}

	result, err := p.orchestrator.Run(cmd.Context())
	if err != nil {
		return err
	}

	switch p.cfg.Format {
	case config.FormatPretty:
		renderer := output.NewPretty(cmd.OutOrStdout())
		if err := renderer.RenderResults(result.Flaky, result.Errors, result.Summary); err != nil {
			return err
		}
	case config.FormatJSON:
		renderer := output.NewJSON(cmd.OutOrStdout())
		if err := renderer.Render(p.report(runID, result)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q", p.cfg.Format)
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("%d test(s) could not be executed", len(result.Errors))
	}
	if p.cfg.FailOnFlaky && len(result.Flaky) > 0 {
		return fmt.Errorf("%d flaky test(s) detected", len(result.Flaky))
	}
	return nil
}

func renderDryRun(cmd *cobra.Command, p *pipeline, runID string) error {
	plans, err := p.orchestrator.Plans(cmd.Context())
	if err != nil {
		return err
	}

	switch p.cfg.Format {
	case config.FormatPretty:
		return output.NewPretty(cmd.OutOrStdout()).RenderPlans(plans)
	case config.FormatJSON:
		rep := p.report(runID, flake.Result{})
		rep.Plans = plans
		rep.Summary.Selected = len(plans)
		return output.NewJSON(cmd.OutOrStdout()).Render(rep)
	default:
		return fmt.Errorf("unsupported format %q", p.cfg.Format)
	}
}

func (p *pipeline) report(runID string, result flake.Result) output.Report {
	return output.Report{
		RunID:             runID,
		Provider:          p.provider.Name(),
		Iterations:        p.cfg.Iterations,
		TolerableFailures: p.cfg.TolerableFailures,
		Threads:           p.cfg.Threads,
		Flaky:             result.Flaky,
		Errors:            result.Errors,
		Summary:           result.Summary,
		Warnings:          p.warnings,
	}
}
