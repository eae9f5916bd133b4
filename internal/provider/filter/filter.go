package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern represents a compiled filter condition supporting substring and regex matching.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
	lower string
}

// Compile transforms raw pattern strings into Pattern values. A pattern
// wrapped in slashes is a regular expression; anything else is a
// case-insensitive substring.
func Compile(patterns []string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
			expr := raw[1 : len(raw)-1]
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compile regexp %q: %w", raw, err)
			}
			result = append(result, Pattern{raw: raw, regex: re})
			continue
		}
		result = append(result, Pattern{raw: raw, lower: strings.ToLower(raw)})
	}
	return result, nil
}

// String returns the pattern as written.
func (p Pattern) String() string { return p.raw }

// Match reports whether the pattern matches the supplied string.
func (p Pattern) Match(s string) bool {
	if s == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), p.lower)
}

// Names keeps, in order, the non-empty names that start with prefix and
// match none of the skip patterns. The prefix comparison is exact; an empty
// prefix keeps every name.
func Names(names []string, prefix string, skip []Pattern) []string {
	result := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if matchesAny(name, skip) {
			continue
		}
		result = append(result, name)
	}
	return result
}

func matchesAny(name string, patterns []Pattern) bool {
	for _, pattern := range patterns {
		if pattern.Match(name) {
			return true
		}
	}
	return false
}
