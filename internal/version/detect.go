package version

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

// Info captures a toolchain version installed on the system.
type Info struct {
	Name    string
	Version string
}

var (
	cargoRegex   = regexp.MustCompile(`(?i)cargo\s+(\d+\.\d+(?:\.\d+)?)`)
	channelRegex = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?$`)
)

// DetectCargo returns the cargo version by calling `<program> --version`.
func DetectCargo(ctx context.Context, program string) (Info, error) {
	out, err := runCommand(ctx, program, "--version")
	if err != nil {
		return Info{}, err
	}
	match := cargoRegex.FindStringSubmatch(out)
	if len(match) < 2 {
		return Info{}, fmt.Errorf("unable to parse cargo version from %q", out)
	}
	return Info{Name: "cargo", Version: match[1]}, nil
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = nil
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

type toolchainFile struct {
	Toolchain struct {
		Channel string `toml:"channel"`
	} `toml:"toolchain"`
}

// PinnedToolchain reads the toolchain channel pinned in root, preferring
// rust-toolchain.toml over the legacy rust-toolchain file. It returns an
// empty string when nothing is pinned or the channel is not a version
// number (stable, nightly, ...).
func PinnedToolchain(root string) (string, error) {
	tomlPath := filepath.Join(root, "rust-toolchain.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		var file toolchainFile
		if _, err := toml.DecodeFile(tomlPath, &file); err != nil {
			return "", fmt.Errorf("parse %q: %w", tomlPath, err)
		}
		return numericChannel(file.Toolchain.Channel), nil
	}

	legacyPath := filepath.Join(root, "rust-toolchain")
	data, err := os.ReadFile(legacyPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read %q: %w", legacyPath, err)
	}
	content := strings.TrimSpace(string(data))
	if strings.HasPrefix(content, "[") {
		var file toolchainFile
		if _, err := toml.Decode(content, &file); err != nil {
			return "", fmt.Errorf("parse %q: %w", legacyPath, err)
		}
		return numericChannel(file.Toolchain.Channel), nil
	}
	return numericChannel(content), nil
}

func numericChannel(channel string) string {
	channel = strings.TrimSpace(channel)
	if channelRegex.MatchString(channel) {
		return channel
	}
	return ""
}

// CompareMajorMinor compares major.minor portions of two semver-like versions.
func CompareMajorMinor(desired, actual string) bool {
	d := semverPrefix(desired)
	a := semverPrefix(actual)
	if d == "" || a == "" {
		return false
	}
	return strings.EqualFold(d, a)
}

func semverPrefix(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return ""
	}
	return fmt.Sprintf("%s.%s", parts[0], parts[1])
}

// Missing reports whether executing the command returns a not-found error.
func Missing(cmdErr error) bool {
	return errors.Is(cmdErr, exec.ErrNotFound) || errors.Is(cmdErr, os.ErrNotExist)
}
