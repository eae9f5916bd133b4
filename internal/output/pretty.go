package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/bgricker/flakehound/internal/flake"
	"github.com/bgricker/flakehound/internal/report"
)

// NoFlakyMessage is printed instead of an empty table.
const NoFlakyMessage = "no flaky tests detected"

// PrettyRenderer renders run results in a human-friendly format.
type PrettyRenderer struct {
	out io.Writer
}

// NewPretty creates a PrettyRenderer writing to the provided writer.
func NewPretty(out io.Writer) *PrettyRenderer {
	return &PrettyRenderer{out: out}
}

// RenderList prints one selected test name per line.
func (p *PrettyRenderer) RenderList(names []string) error {
	for _, name := range names {
		if _, err := fmt.Fprintln(p.out, name); err != nil {
			return err
		}
	}
	return nil
}

// RenderPlans prints the invocation each test would run and how often.
func (p *PrettyRenderer) RenderPlans(plans []flake.Plan) error {
	for _, plan := range plans {
		if _, err := fmt.Fprintf(p.out, "%s (x%d)\n  command: %s\n", plan.Name, plan.Iterations, plan.Invocation.String()); err != nil {
			return err
		}
	}
	return nil
}

// RenderResults prints the flaky tests as a table, followed by tests that
// could not be executed and a summary line.
func (p *PrettyRenderer) RenderResults(flaky []report.TestResult, execErrors []report.ExecutionError, summary report.Summary) error {
	if len(flaky) == 0 {
		if _, err := fmt.Fprintln(p.out, NoFlakyMessage); err != nil {
			return err
		}
	} else {
		t := table.NewWriter()
		t.SetOutputMirror(p.out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"FAILURES", "SUCCESSES", "TEST"})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Name: "FAILURES", Align: text.AlignRight},
			{Name: "SUCCESSES", Align: text.AlignRight},
		})
		for _, res := range flaky {
			t.AppendRow(table.Row{res.Failures, res.Successes, res.Name})
		}
		t.Render()
	}

	for _, e := range execErrors {
		if _, err := fmt.Fprintf(p.out, "error: %s: %s\n", e.Name, indent(e.Message, "  ")); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(p.out, "SUMMARY: %d flaky, %d errored, %d of %d tests run (%s)\n",
		summary.Flaky, summary.Errored, summary.Selected-summary.Errored, summary.Selected, formatDuration(summary.Duration))
	return err
}

func indent(s, pad string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Truncate(time.Millisecond).String()
}
