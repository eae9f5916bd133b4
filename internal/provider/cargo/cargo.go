package cargo

import (
	"strings"

	"github.com/bgricker/flakehound/internal/runner"
)

const (
	// ProviderName identifies the cargo provider.
	ProviderName = "cargo"
	// DefaultProgram is used when no cargo executable is configured.
	DefaultProgram = "cargo"
)

// Cargo builds `cargo test` invocations.
type Cargo struct {
	Program  string
	Features string
	Exact    bool
	Dir      string
	Env      map[string]string
}

// New returns a Cargo provider for program, falling back to DefaultProgram.
func New(program, features string) *Cargo {
	if strings.TrimSpace(program) == "" {
		program = DefaultProgram
	}
	return &Cargo{Program: program, Features: strings.TrimSpace(features)}
}

// Name implements provider.Provider.
func (c *Cargo) Name() string { return ProviderName }

// ListInvocation returns `cargo test [--features F] -- --list`.
func (c *Cargo) ListInvocation() runner.Invocation {
	args := c.baseArgs()
	args = append(args, "--", "--list")
	return c.invocation(args)
}

// TestInvocation returns `cargo test [--features F] <name> [-- --exact]`.
func (c *Cargo) TestInvocation(name string) runner.Invocation {
	args := c.baseArgs()
	args = append(args, name)
	if c.Exact {
		args = append(args, "--", "--exact")
	}
	return c.invocation(args)
}

func (c *Cargo) baseArgs() []string {
	args := []string{"test"}
	if c.Features != "" {
		args = append(args, "--features", c.Features)
	}
	return args
}

func (c *Cargo) invocation(args []string) runner.Invocation {
	inv := runner.Invocation{Program: c.Program, Args: args, Dir: c.Dir}
	if len(c.Env) > 0 {
		inv.Env = make(map[string]string, len(c.Env))
		for k, v := range c.Env {
			inv.Env[k] = v
		}
	}
	return inv
}
