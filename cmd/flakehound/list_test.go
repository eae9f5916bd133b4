package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const fakeCargoScript = `#!/bin/sh
for last; do :; done
if [ "$1" = "--version" ]; then
  echo "cargo 1.79.0 (fake)"
  exit 0
fi
if [ "$last" = "--list" ]; then
  echo "suite::stable: test"
  echo "suite::flaky: test"
  echo "other::skipped: test"
  echo "bench_sort: bench"
  echo ""
  echo "3 tests, 1 benchmarks"
  exit 0
fi
if [ "$last" = "suite::flaky" ]; then
  n=$(cat %[1]q 2>/dev/null || echo 0)
  n=$((n + 1))
  echo "$n" > %[1]q
  if [ $((n %% 2)) -eq 1 ]; then
    exit 101
  fi
fi
exit 0
`

// fakeCargo writes a cargo stand-in into a fresh directory, switches into
// that directory and returns the script path. suite::flaky fails on every
// odd trial.
func fakeCargo(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake cargo script requires a POSIX shell")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "cargo")
	state := filepath.Join(dir, "flaky.count")
	body := fmt.Sprintf(fakeCargoScript, state)
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write fake cargo: %v", err)
	}
	chdir(t, dir)
	return script
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestListCommandBasic(t *testing.T) {
	cargo := fakeCargo(t)

	stdout, _, err := execute(t, "list", "--cargo", cargo)
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}

	want := "suite::stable\nsuite::flaky\nother::skipped\n"
	if diff := diffStrings(want, stdout); diff != "" {
		t.Fatalf("unexpected output:\n%s", diff)
	}
}

func TestListCommandFilters(t *testing.T) {
	cargo := fakeCargo(t)

	stdout, _, err := execute(t, "list", "--cargo", cargo, "--skip", "/stable$/", "--skip", "OTHER::")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	if diff := diffStrings("suite::flaky\n", stdout); diff != "" {
		t.Fatalf("unexpected output:\n%s", diff)
	}
}

func TestListCommandNoMatches(t *testing.T) {
	cargo := fakeCargo(t)

	stdout, _, err := execute(t, "list", "--cargo", cargo, "--prefix", "missing::")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	if strings.TrimSpace(stdout) != "No matching tests" {
		t.Fatalf("unexpected output: %q", stdout)
	}
}

func TestListCommandJSON(t *testing.T) {
	cargo := fakeCargo(t)

	stdout, _, err := execute(t, "list", "--cargo", cargo, "--prefix", "suite::", "--format", "json")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	rep := decodeReport(t, stdout)
	if len(rep.Tests) != 2 || rep.Tests[0] != "suite::stable" || rep.Tests[1] != "suite::flaky" {
		t.Fatalf("unexpected tests: %v", rep.Tests)
	}
	if rep.Provider != "cargo" {
		t.Fatalf("expected cargo provider, got %q", rep.Provider)
	}
	if rep.Summary.Selected != 2 {
		t.Fatalf("expected 2 selected, got %d", rep.Summary.Selected)
	}
}

func TestListCommandConfig(t *testing.T) {
	cargo := fakeCargo(t)

	configYAML := fmt.Sprintf("cargo: %q\nprefix: \"suite::\"\nskip:\n  - stable\n", cargo)
	if err := os.WriteFile(".flakehound.yml", []byte(configYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	stdout, _, err := execute(t, "list")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	if diff := diffStrings("suite::flaky\n", stdout); diff != "" {
		t.Fatalf("unexpected output:\n%s", diff)
	}
}

func TestListCommandMissingCargo(t *testing.T) {
	fakeCargo(t)

	missing := filepath.Join(t.TempDir(), "cargo")
	_, _, err := execute(t, "list", "--cargo", missing)
	if err == nil {
		t.Fatalf("expected error for missing cargo")
	}
	if !strings.Contains(err.Error(), "discover tests: locate cargo") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListCommandInvalidConfig(t *testing.T) {
	cargo := fakeCargo(t)

	_, _, err := execute(t, "list", "--cargo", cargo, "--threads", "0")
	if err == nil || !strings.Contains(err.Error(), "invalid configuration: threads") {
		t.Fatalf("expected threads validation error, got %v", err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %q: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore dir: %v", err)
		}
	})
}

func diffStrings(want, got string) string {
	if want == got {
		return ""
	}
	return fmt.Sprintf("--- want\n%s\n--- got\n%s", want, got)
}
