// Package shader inspects WGSL source before it reaches the GPU. Catching a
// missing or misspelled entry point at registration produces a clear Go error
// instead of a device-level validation failure mid-frame.
package shader

import (
	"fmt"
	"regexp"
	"strings"
)

// Stage identifies a WGSL entry point stage.
type Stage string

const (
	StageVertex   Stage = "vertex"
	StageFragment Stage = "fragment"
)

// fnPattern matches a WGSL function declaration and captures its name. Not
// anchored, so "@vertex fn main(" on one line still matches.
var fnPattern = regexp.MustCompile(`\bfn\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// EntryPoints scans WGSL source and returns the entry point function names
// per stage. A stage attribute applies to the next function declaration, as
// in WGSL: attributes and the fn they annotate may be separated by newlines
// or other attributes.
//
// Parameters:
//   - source: the WGSL source text
//
// Returns:
//   - map[Stage][]string: entry point names keyed by stage
func EntryPoints(source string) map[Stage][]string {
	entries := make(map[Stage][]string)

	var pending []Stage
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.Contains(trimmed, "@vertex") {
			pending = append(pending, StageVertex)
		}
		if strings.Contains(trimmed, "@fragment") {
			pending = append(pending, StageFragment)
		}

		m := fnPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		for _, stage := range pending {
			entries[stage] = append(entries[stage], m[1])
		}
		pending = nil
	}
	return entries
}

// ValidateEntryPoints checks that the source declares the named vertex and
// fragment entry points.
//
// Parameters:
//   - source: the WGSL source text
//   - vertexEntry: required @vertex function name
//   - fragmentEntry: required @fragment function name
//
// Returns:
//   - error: description of the first missing entry point
func ValidateEntryPoints(source, vertexEntry, fragmentEntry string) error {
	entries := EntryPoints(source)
	if !contains(entries[StageVertex], vertexEntry) {
		return fmt.Errorf("shader has no @vertex entry point %q (found %v)", vertexEntry, entries[StageVertex])
	}
	if !contains(entries[StageFragment], fragmentEntry) {
		return fmt.Errorf("shader has no @fragment entry point %q (found %v)", fragmentEntry, entries[StageFragment])
	}
	return nil
}

func contains(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
