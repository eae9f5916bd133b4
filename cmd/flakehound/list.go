package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bgricker/flakehound/internal/config"
	"github.com/bgricker/flakehound/internal/flake"
	"github.com/bgricker/flakehound/internal/output"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tests a run would select",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(cmd, nil)
	if err != nil {
		return err
	}
	defer func() { _ = p.log.Sync() }()
	printWarnings(cmd, p.warnings)

	plans, err := p.orchestrator.Plans(cmd.Context())
	if err != nil {
		return err
	}

	names := make([]string, 0, len(plans))
	for _, plan := range plans {
		names = append(names, plan.Name)
	}

	switch p.cfg.Format {
	case config.FormatPretty:
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No matching tests")
			return nil
		}
		return output.NewPretty(cmd.OutOrStdout()).RenderList(names)
	case config.FormatJSON:
		rep := p.report("", flake.Result{})
		rep.Tests = names
		rep.Summary.Selected = len(names)
		return output.NewJSON(cmd.OutOrStdout()).Render(rep)
	default:
		return fmt.Errorf("unsupported format %q", p.cfg.Format)
	}
}
