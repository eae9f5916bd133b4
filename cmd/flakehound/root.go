package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "flakehound",
		Short:         "Flakehound runs cargo tests repeatedly to find flaky ones",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	persistent := cmd.PersistentFlags()
	persistent.Int("threads", 0, "number of tests run in parallel (default: number of CPUs)")
	persistent.String("features", "", "space separated cargo feature list")
	persistent.String("prefix", "", "only run tests whose name starts with this prefix")
	persistent.Int("iterations", 0, "how many times to run each test (default 100)")
	persistent.Int("tolerable-failures", 0, "failures per test that are still not reported")
	persistent.StringArray("skip", nil, "exclude tests matching a substring or /regex/ (repeatable)")
	persistent.Int("shard-size", 0, "split each test into units of at most this many iterations")
	persistent.Duration("timeout", 0, "kill and count as failed any single run exceeding this duration")
	persistent.String("cargo", "", "cargo executable to invoke")
	persistent.Bool("exact", false, "match test names exactly")
	persistent.String("format", "pretty", "output format (pretty|json)")
	persistent.Bool("dry-run", false, "print planned commands without executing them")
	persistent.Bool("progress", true, "show a progress bar on stderr")
	persistent.Bool("fail-on-flaky", false, "exit non-zero when flaky tests are found")
	persistent.BoolP("verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newRunCmd())

	return cmd
}
