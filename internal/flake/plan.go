package flake

import (
	"context"
	"fmt"

	"github.com/bgricker/flakehound/internal/report"
	"github.com/bgricker/flakehound/internal/runner"
)

// Plan is the run plan for one test: the invocation and how many times to run it.
type Plan struct {
	Name       string            `json:"name"`
	Invocation runner.Invocation `json:"invocation"`
	Iterations int               `json:"iterations"`
}

// Executor runs one trial and reports whether it passed. An error means the
// trial could not be run at all and must not be counted.
type Executor interface {
	Status(ctx context.Context, inv runner.Invocation) (bool, error)
}

// Execute runs plan.Iterations sequential trials and tallies their outcomes.
// On error the returned tally holds the trials completed so far.
func Execute(ctx context.Context, exec Executor, plan Plan) (report.TestResult, error) {
	result := report.NewTestResult(plan.Name)
	for i := 0; i < plan.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		passed, err := exec.Status(ctx, plan.Invocation)
		if err != nil {
			return result, fmt.Errorf("run %s: %w", plan.Name, err)
		}
		result.Record(passed)
	}
	return result, nil
}

// Shard splits plan into plans of at most size iterations each. A size of
// zero, or one that covers the whole plan, returns the plan unchanged. The
// shard iterations always sum to plan.Iterations.
func Shard(plan Plan, size int) []Plan {
	if size <= 0 || plan.Iterations <= size {
		return []Plan{plan}
	}
	shards := make([]Plan, 0, (plan.Iterations+size-1)/size)
	for remaining := plan.Iterations; remaining > 0; remaining -= size {
		shard := plan
		shard.Iterations = min(size, remaining)
		shards = append(shards, shard)
	}
	return shards
}
