package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const waitDelay = 2 * time.Second

// Invocation describes one external program call. Arguments are passed to
// the program verbatim; no shell is involved.
type Invocation struct {
	Program string            `json:"program"`
	Args    []string          `json:"args,omitempty"`
	Dir     string            `json:"dir,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// String renders the invocation for logs and dry runs.
func (i Invocation) String() string {
	parts := make([]string, 0, len(i.Args)+1)
	parts = append(parts, quoteArg(i.Program))
	for _, arg := range i.Args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg == "" || strings.ContainsAny(arg, " \t\n\"'") {
		return fmt.Sprintf("%q", arg)
	}
	return arg
}

// SpawnError reports an invocation that could not be started at all. It is
// distinct from a program that ran and exited non-zero.
type SpawnError struct {
	Invocation Invocation
	Err        error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Invocation.Program, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Options configure how the runner executes invocations.
type Options struct {
	Root      string
	Env       []string
	Timeout   time.Duration
	TailLines int
	Logger    *zap.Logger
}

// Runner executes invocations as child processes.
type Runner struct {
	opts Options
}

// New creates a runner with the supplied options.
func New(opts Options) *Runner {
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.TailLines <= 0 {
		opts.TailLines = 20
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Runner{opts: opts}
}

// Status runs inv once with its standard streams discarded and reports
// whether it exited with status zero. A trial killed by the per-trial
// timeout counts as a failure. Only a failure to start the process or a
// cancelled ctx produce an error.
func (r *Runner) Status(ctx context.Context, inv Invocation) (bool, error) {
	trialCtx := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		trialCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	cmd, err := r.command(trialCtx, inv)
	if err != nil {
		return false, err
	}
	// nil streams are connected to the null device
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		return false, &SpawnError{Invocation: inv, Err: err}
	}
	err = cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err == nil {
		return true, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		r.opts.Logger.Debug("trial failed",
			zap.String("invocation", inv.String()),
			zap.Int("exit_code", exitCode(err)),
			zap.Bool("timed_out", errors.Is(trialCtx.Err(), context.DeadlineExceeded)),
		)
		return false, nil
	}
	if errors.Is(trialCtx.Err(), context.DeadlineExceeded) {
		return false, nil
	}
	return false, &SpawnError{Invocation: inv, Err: err}
}

// Output runs inv and returns its standard output as text. A non-zero exit
// or non-UTF-8 output is an error; the tail of stderr is included in it.
func (r *Runner) Output(ctx context.Context, inv Invocation) (string, error) {
	cmd, err := r.command(ctx, inv)
	if err != nil {
		return "", err
	}

	var stdoutBuf, stderrBuf strings.Builder
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &SpawnError{Invocation: inv, Err: err}
	}
	if err := cmd.Wait(); err != nil {
		tail := tailLines(stderrBuf.String(), r.opts.TailLines)
		if tail != "" {
			return "", fmt.Errorf("%s exited with status %d: %w\n%s", inv.Program, exitCode(err), err, tail)
		}
		return "", fmt.Errorf("%s exited with status %d: %w", inv.Program, exitCode(err), err)
	}

	out := stdoutBuf.String()
	if !utf8.ValidString(out) {
		return "", fmt.Errorf("output of %s is not valid UTF-8", inv.Program)
	}
	return out, nil
}

func (r *Runner) command(ctx context.Context, inv Invocation) (*exec.Cmd, error) {
	if strings.TrimSpace(inv.Program) == "" {
		return nil, &SpawnError{Invocation: inv, Err: errors.New("empty program")}
	}
	dir, err := resolveWorkingDirectory(r.opts.Root, inv.Dir)
	if err != nil {
		return nil, &SpawnError{Invocation: inv, Err: err}
	}

	cmd := exec.CommandContext(ctx, inv.Program, inv.Args...)
	cmd.Dir = dir
	cmd.Env = mergeEnv(r.opts.Env, inv.Env)
	configureProcessGroup(cmd)
	// output pipes held open by stray descendants must not block Wait
	cmd.WaitDelay = waitDelay
	return cmd, nil
}

func resolveWorkingDirectory(root, dir string) (string, error) {
	candidate := strings.TrimSpace(dir)
	if candidate == "" {
		if root != "" {
			return root, nil
		}
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		return wd, nil
	}

	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(root, candidate)
	}
	info, err := os.Stat(candidate)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("working directory %q not found", candidate)
		}
		return "", fmt.Errorf("stat working directory %q: %w", candidate, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("working directory %q is not a directory", candidate)
	}
	return candidate, nil
}

func mergeEnv(base []string, overlays ...map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(overlays)*4)
	for _, kv := range base {
		if idx := strings.Index(kv, "="); idx != -1 {
			envMap[kv[:idx]] = kv[idx+1:]
		}
	}
	for _, overlay := range overlays {
		for k, v := range overlay {
			envMap[k] = v
		}
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, envMap[k]))
	}
	return out
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(interface{ ExitStatus() int }); ok {
			return status.ExitStatus()
		}
		return exitErr.ExitCode()
	}
	return 1
}

func tailLines(input string, maxLines int) string {
	if input == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(input, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}
