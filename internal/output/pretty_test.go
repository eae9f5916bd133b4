package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/bgricker/flakehound/internal/flake"
	"github.com/bgricker/flakehound/internal/report"
	"github.com/bgricker/flakehound/internal/runner"
)

func TestPrettyRenderResultsTable(t *testing.T) {
	flaky := []report.TestResult{
		{Name: "net::resolve", Iterations: 10, Successes: 5, Failures: 5},
		{Name: "db::migrate", Iterations: 10, Successes: 9, Failures: 1},
	}
	summary := report.Summary{Selected: 3, Flaky: 2, Duration: 1500 * time.Millisecond}

	buf := &bytes.Buffer{}
	if err := NewPretty(buf).RenderResults(flaky, nil, summary); err != nil {
		t.Fatalf("render results: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"FAILURES", "SUCCESSES", "TEST", "net::resolve", "db::migrate"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got %q", want, out)
		}
	}
	if strings.Contains(out, NoFlakyMessage) {
		t.Fatalf("did not expect empty message with flaky tests, got %q", out)
	}
	if strings.Index(out, "net::resolve") > strings.Index(out, "db::migrate") {
		t.Fatalf("expected rows in result order, got %q", out)
	}
	if !strings.Contains(out, "SUMMARY: 2 flaky, 0 errored, 3 of 3 tests run (1.5s)") {
		t.Fatalf("expected summary line, got %q", out)
	}
}

func TestPrettyRenderResultsEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewPretty(buf).RenderResults(nil, nil, report.Summary{Selected: 4}); err != nil {
		t.Fatalf("render results: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, NoFlakyMessage+"\n") {
		t.Fatalf("expected no flaky message, got %q", out)
	}
	if strings.Contains(out, "FAILURES") {
		t.Fatalf("expected no table, got %q", out)
	}
}

func TestPrettyRenderResultsErrors(t *testing.T) {
	errs := []report.ExecutionError{{Name: "net::connect", Message: "spawn cargo: permission denied"}}

	buf := &bytes.Buffer{}
	if err := NewPretty(buf).RenderResults(nil, errs, report.Summary{Selected: 2, Errored: 1}); err != nil {
		t.Fatalf("render results: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "error: net::connect: spawn cargo: permission denied") {
		t.Fatalf("expected error line, got %q", out)
	}
	if !strings.Contains(out, "SUMMARY: 0 flaky, 1 errored, 1 of 2 tests run") {
		t.Fatalf("expected summary line, got %q", out)
	}
}

func TestPrettyRenderListAndPlans(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPretty(buf)
	if err := r.RenderList([]string{"a", "b::c"}); err != nil {
		t.Fatalf("render list: %v", err)
	}
	if buf.String() != "a\nb::c\n" {
		t.Fatalf("unexpected list output %q", buf.String())
	}

	buf.Reset()
	plans := []flake.Plan{{
		Name:       "b::c",
		Invocation: runner.Invocation{Program: "cargo", Args: []string{"test", "b::c"}},
		Iterations: 10,
	}}
	if err := r.RenderPlans(plans); err != nil {
		t.Fatalf("render plans: %v", err)
	}
	if want := "b::c (x10)\n  command: cargo test b::c\n"; buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}
