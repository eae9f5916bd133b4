package config

import (
	"fmt"
	"strings"
)

// ValidationError reports an invalid configuration value. It is raised
// before any discovery or execution starts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Validate checks cfg for values the engine cannot run with.
func Validate(cfg Config) error {
	if cfg.Threads < 1 {
		return &ValidationError{Field: "threads", Reason: fmt.Sprintf("must be positive, got %d", cfg.Threads)}
	}
	if cfg.Iterations < 0 {
		return &ValidationError{Field: "iterations", Reason: fmt.Sprintf("must not be negative, got %d", cfg.Iterations)}
	}
	if cfg.TolerableFailures < 0 {
		return &ValidationError{Field: "tolerable_failures", Reason: fmt.Sprintf("must not be negative, got %d", cfg.TolerableFailures)}
	}
	if cfg.ShardSize < 0 {
		return &ValidationError{Field: "shard_size", Reason: fmt.Sprintf("must not be negative, got %d", cfg.ShardSize)}
	}
	if cfg.Timeout < 0 {
		return &ValidationError{Field: "timeout", Reason: fmt.Sprintf("must not be negative, got %s", cfg.Timeout)}
	}
	if strings.TrimSpace(cfg.Cargo) == "" {
		return &ValidationError{Field: "cargo", Reason: "must name an executable"}
	}
	switch strings.ToLower(cfg.Format) {
	case FormatPretty, FormatJSON:
	default:
		return &ValidationError{Field: "format", Reason: fmt.Sprintf("unsupported format %q", cfg.Format)}
	}
	return nil
}
