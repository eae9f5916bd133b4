package discovery

import (
	"context"
	"fmt"

	"github.com/bgricker/flakehound/internal/runner"
)

// Error reports a failed discovery. It aborts the whole run.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("discover tests: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Lister produces the raw discovery listing for an invocation.
type Lister interface {
	Output(ctx context.Context, inv runner.Invocation) (string, error)
}

// Discover runs the listing invocation and extracts test names from its output.
func Discover(ctx context.Context, lister Lister, inv runner.Invocation) ([]string, error) {
	listing, err := lister.Output(ctx, inv)
	if err != nil {
		return nil, &Error{Op: inv.String(), Err: err}
	}
	return Names(listing), nil
}
