package output

import (
	"encoding/json"
	"io"

	"github.com/bgricker/flakehound/internal/flake"
	"github.com/bgricker/flakehound/internal/report"
)

// JSONRenderer emits structured run data.
type JSONRenderer struct {
	out io.Writer
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Report captures JSON output schema.
type Report struct {
	RunID             string                  `json:"run_id"`
	Provider          string                  `json:"provider"`
	Iterations        int                     `json:"iterations"`
	TolerableFailures int                     `json:"tolerable_failures"`
	Threads           int                     `json:"threads"`
	Tests             []string                `json:"tests,omitempty"`
	Plans             []flake.Plan            `json:"plans,omitempty"`
	Flaky             []report.TestResult     `json:"flaky"`
	Errors            []report.ExecutionError `json:"errors"`
	Summary           report.Summary          `json:"summary"`
	Warnings          []string                `json:"warnings,omitempty"`
}

// Render encodes the report as JSON.
func (j *JSONRenderer) Render(rep Report) error {
	if rep.Flaky == nil {
		rep.Flaky = []report.TestResult{}
	}
	if rep.Errors == nil {
		rep.Errors = []report.ExecutionError{}
	}
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
