package discovery

import "regexp"

// A test path is `ident(::ident)*` followed by the `: test` marker and may
// start anywhere, so `x:a: test` yields `a`. The empty path of a bare
// `: test` only counts at the start of the text or after a character that
// cannot belong to a path, so the tail of a dangling `foo::` never yields a
// match of its own.
var testNameRegex = regexp.MustCompile(`((?:[A-Za-z0-9_]+::)*[A-Za-z0-9_]+): test|(?:^|[^A-Za-z0-9_:]): test`)

// Names extracts test names from a discovery listing in order of
// appearance. Lines without the marker are ignored. A bare `: test` yields
// an empty name; callers decide whether to keep it.
func Names(listing string) []string {
	matches := testNameRegex.FindAllStringSubmatch(listing, -1)
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, match[1])
	}
	return names
}
