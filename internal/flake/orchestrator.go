package flake

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bgricker/flakehound/internal/config"
	"github.com/bgricker/flakehound/internal/discovery"
	"github.com/bgricker/flakehound/internal/provider"
	"github.com/bgricker/flakehound/internal/provider/filter"
	"github.com/bgricker/flakehound/internal/report"
	"github.com/bgricker/flakehound/internal/runner"
)

// Progress receives the number of finished execution units.
type Progress interface {
	Start(total int)
	Increment()
	Done()
}

type nopProgress struct{}

func (nopProgress) Start(int)  {}
func (nopProgress) Increment() {}
func (nopProgress) Done()      {}

// Options configure an Orchestrator.
type Options struct {
	Provider provider.Provider
	Lister   discovery.Lister
	Executor Executor

	Threads           int
	Prefix            string
	Skip              []filter.Pattern
	Iterations        int
	TolerableFailures int
	// ShardSize splits each test into units of at most ShardSize
	// iterations. Zero runs every test as a single unit.
	ShardSize int

	Progress Progress
	Logger   *zap.Logger
	Now      func() time.Time
}

// Result is the outcome of one run.
type Result struct {
	// Results holds one tally per selected test that ran, in discovery order.
	Results []report.TestResult
	// Flaky holds the results whose failures exceed the tolerance.
	Flaky []report.TestResult
	// Errors lists tests whose invocation could not be started.
	Errors  []report.ExecutionError
	Summary report.Summary
}

// Orchestrator discovers tests, runs each one repeatedly on a bounded
// worker pool and filters the tallies by the failure tolerance. It holds no
// state across runs.
type Orchestrator struct {
	opts Options
	log  *zap.Logger
}

// New validates opts and returns an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Provider == nil || opts.Lister == nil || opts.Executor == nil {
		return nil, errors.New("orchestrator requires a provider, a lister and an executor")
	}
	switch {
	case opts.Threads < 1:
		return nil, &config.ValidationError{Field: "threads", Reason: fmt.Sprintf("must be positive, got %d", opts.Threads)}
	case opts.Iterations < 0:
		return nil, &config.ValidationError{Field: "iterations", Reason: fmt.Sprintf("must not be negative, got %d", opts.Iterations)}
	case opts.TolerableFailures < 0:
		return nil, &config.ValidationError{Field: "tolerable_failures", Reason: fmt.Sprintf("must not be negative, got %d", opts.TolerableFailures)}
	case opts.ShardSize < 0:
		return nil, &config.ValidationError{Field: "shard_size", Reason: fmt.Sprintf("must not be negative, got %d", opts.ShardSize)}
	}
	if opts.Progress == nil {
		opts.Progress = nopProgress{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{opts: opts, log: opts.Logger.Named("orchestrator")}, nil
}

// Plans discovers and filters tests and returns one plan per selected test
// without running anything.
func (o *Orchestrator) Plans(ctx context.Context) ([]Plan, error) {
	_, plans, err := o.plan(ctx)
	return plans, err
}

func (o *Orchestrator) plan(ctx context.Context) (int, []Plan, error) {
	listInv := o.opts.Provider.ListInvocation()
	o.log.Debug("discovering tests", zap.String("invocation", listInv.String()))

	names, err := discovery.Discover(ctx, o.opts.Lister, listInv)
	if err != nil {
		return 0, nil, err
	}

	unnamed := 0
	for _, name := range names {
		if name == "" {
			unnamed++
		}
	}
	if unnamed > 0 {
		o.log.Debug("dropping unnamed test entries", zap.Int("count", unnamed))
	}
	selected, duplicates := unique(filter.Names(names, o.opts.Prefix, o.opts.Skip))
	if duplicates > 0 {
		o.log.Debug("dropping repeated test names", zap.Int("count", duplicates))
	}
	o.log.Debug("discovered tests",
		zap.Int("discovered", len(names)),
		zap.Int("selected", len(selected)),
		zap.String("prefix", o.opts.Prefix),
	)

	plans := make([]Plan, 0, len(selected))
	for _, name := range selected {
		plans = append(plans, Plan{
			Name:       name,
			Invocation: o.opts.Provider.TestInvocation(name),
			Iterations: o.opts.Iterations,
		})
	}
	return len(names), plans, nil
}

// Run executes the full pipeline. Discovery failures, cancellation and
// merge invariant violations abort the run without a result. A test whose
// invocation cannot be spawned is reported in Result.Errors and its partial
// tallies are left out of Results and Flaky.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	start := o.opts.Now()

	discovered, plans, err := o.plan(ctx)
	if err != nil {
		return Result{}, err
	}

	units := make([]Plan, 0, len(plans))
	for _, plan := range plans {
		units = append(units, Shard(plan, o.opts.ShardSize)...)
	}

	o.log.Debug("dispatching tests",
		zap.Int("tests", len(plans)),
		zap.Int("units", len(units)),
		zap.Int("threads", o.opts.Threads),
		zap.Int("iterations", o.opts.Iterations),
	)

	coll := newCollector()
	o.opts.Progress.Start(len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Threads)
	for _, unit := range units {
		unit := unit
		g.Go(func() error {
			res, err := Execute(gctx, o.opts.Executor, unit)
			if err != nil {
				var spawnErr *runner.SpawnError
				if !errors.As(err, &spawnErr) {
					return err
				}
				o.log.Warn("test could not be executed", zap.String("test", unit.Name), zap.Error(err))
				coll.fail(unit.Name, err)
				o.opts.Progress.Increment()
				return nil
			}
			if err := coll.add(unit.Name, res); err != nil {
				return err
			}
			o.opts.Progress.Increment()
			return nil
		})
	}
	err = g.Wait()
	o.opts.Progress.Done()
	if err != nil {
		return Result{}, err
	}

	result := Result{Errors: make([]report.ExecutionError, 0)}
	for _, plan := range plans {
		if msg, failed := coll.errors[plan.Name]; failed {
			result.Errors = append(result.Errors, report.ExecutionError{Name: plan.Name, Message: msg})
			continue
		}
		result.Results = append(result.Results, coll.results[plan.Name])
	}
	result.Flaky = report.FilterFlaky(result.Results, o.opts.TolerableFailures)

	duration := o.opts.Now().Sub(start)
	result.Summary = report.Summary{
		Discovered: discovered,
		Selected:   len(plans),
		Units:      len(units),
		Flaky:      len(result.Flaky),
		Errored:    len(result.Errors),
		Duration:   duration,
		DurationMS: duration.Milliseconds(),
	}

	o.log.Debug("run complete",
		zap.Int("flaky", result.Summary.Flaky),
		zap.Int("errored", result.Summary.Errored),
		zap.Duration("duration", duration),
	)
	return result, nil
}

// unique keeps the first occurrence of every name. cargo lists a test once
// per target, so the same path can appear more than once.
func unique(names []string) ([]string, int) {
	seen := make(map[string]struct{}, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		result = append(result, name)
	}
	return result, len(names) - len(result)
}

// collector is the only state shared between workers. Every mutation of a
// tally goes through report.Merge.
type collector struct {
	mu      sync.Mutex
	results map[string]report.TestResult
	errors  map[string]string
}

func newCollector() *collector {
	return &collector{
		results: make(map[string]report.TestResult),
		errors:  make(map[string]string),
	}
}

func (c *collector) add(name string, res report.TestResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	acc, ok := c.results[name]
	if !ok {
		acc = report.NewTestResult(name)
	}
	merged, err := report.Merge(acc, res)
	if err != nil {
		return err
	}
	c.results[name] = merged
	return nil
}

func (c *collector) fail(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.errors[name]; !ok {
		c.errors[name] = err.Error()
	}
}
