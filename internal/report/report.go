package report

import (
	"errors"
	"fmt"
	"time"
)

// ErrMismatchedName is matched by errors.Is for every MismatchedNameError.
var ErrMismatchedName = errors.New("mismatched test names")

// MismatchedNameError reports an attempt to merge results of two different tests.
type MismatchedNameError struct {
	Want string
	Got  string
}

func (e *MismatchedNameError) Error() string {
	return fmt.Sprintf("merge results: %q and %q are different tests", e.Want, e.Got)
}

// Is lets errors.Is match ErrMismatchedName.
func (e *MismatchedNameError) Is(target error) bool {
	return target == ErrMismatchedName
}

// TestResult captures the pass/fail tally of one test over its iterations.
type TestResult struct {
	Name       string `json:"name"`
	Iterations int    `json:"iterations"`
	Successes  int    `json:"successes"`
	Failures   int    `json:"failures"`
}

// NewTestResult returns the zero tally for name. It is the identity of Merge.
func NewTestResult(name string) TestResult {
	return TestResult{Name: name}
}

// Record counts one finished trial.
func (r *TestResult) Record(passed bool) {
	r.Iterations++
	if passed {
		r.Successes++
	} else {
		r.Failures++
	}
}

// Flaky reports whether the failure count exceeds the tolerated number.
func (r TestResult) Flaky(tolerable int) bool {
	return r.Failures > tolerable
}

// Merge sums the counters of two tallies for the same test.
func Merge(a, b TestResult) (TestResult, error) {
	if a.Name != b.Name {
		return TestResult{}, &MismatchedNameError{Want: a.Name, Got: b.Name}
	}
	return TestResult{
		Name:       a.Name,
		Iterations: a.Iterations + b.Iterations,
		Successes:  a.Successes + b.Successes,
		Failures:   a.Failures + b.Failures,
	}, nil
}

// FilterFlaky returns the results whose failures exceed tolerable, preserving order.
func FilterFlaky(results []TestResult, tolerable int) []TestResult {
	out := make([]TestResult, 0, len(results))
	for _, res := range results {
		if res.Flaky(tolerable) {
			out = append(out, res)
		}
	}
	return out
}

// ExecutionError records a test whose invocation could not be started.
type ExecutionError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Summary aggregates run counters.
type Summary struct {
	Discovered int           `json:"discovered"`
	Selected   int           `json:"selected"`
	Units      int           `json:"units"`
	Flaky      int           `json:"flaky"`
	Errored    int           `json:"errored"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
}
