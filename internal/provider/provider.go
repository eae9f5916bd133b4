package provider

import "github.com/bgricker/flakehound/internal/runner"

// Provider builds the invocations used to list and run tests of one toolchain.
type Provider interface {
	// Name identifies the toolchain, e.g. "cargo".
	Name() string
	// ListInvocation prints the discovery listing on stdout.
	ListInvocation() runner.Invocation
	// TestInvocation runs the single named test.
	TestInvocation(name string) runner.Invocation
}
