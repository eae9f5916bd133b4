package main

import (
	"fmt"

	"github.com/bgricker/flakehound/internal/config"
	"github.com/spf13/cobra"
)

func gatherFlags(cmd *cobra.Command) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	ints := []struct {
		name string
		dst  *config.IntFlag
	}{
		{"threads", &values.Threads},
		{"iterations", &values.Iterations},
		{"tolerable-failures", &values.TolerableFailures},
		{"shard-size", &values.ShardSize},
	}
	for _, f := range ints {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetInt(f.name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", f.name, err)
		}
		*f.dst = config.IntFlag{Value: v, Set: true}
	}

	strs := []struct {
		name string
		dst  *config.StringFlag
	}{
		{"features", &values.Features},
		{"prefix", &values.Prefix},
		{"cargo", &values.Cargo},
		{"format", &values.Format},
	}
	for _, f := range strs {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetString(f.name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", f.name, err)
		}
		*f.dst = config.StringFlag{Value: v, Set: true}
	}

	bools := []struct {
		name string
		dst  *config.BoolFlag
	}{
		{"exact", &values.Exact},
		{"dry-run", &values.DryRun},
		{"progress", &values.Progress},
		{"fail-on-flaky", &values.FailOnFlaky},
		{"verbose", &values.Verbose},
	}
	for _, f := range bools {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetBool(f.name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", f.name, err)
		}
		*f.dst = config.BoolFlag{Value: v, Set: true}
	}

	if flags.Changed("skip") {
		v, err := flags.GetStringArray("skip")
		if err != nil {
			return values, fmt.Errorf("parse --skip: %w", err)
		}
		values.Skip = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("timeout") {
		v, err := flags.GetDuration("timeout")
		if err != nil {
			return values, fmt.Errorf("parse --timeout: %w", err)
		}
		values.Timeout = config.DurationFlag{Value: v, Set: true}
	}

	return values, nil
}
