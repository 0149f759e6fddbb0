// Package semver parses toolset references and checks requested version
// ranges against the version this server implements.
package semver

import (
	"fmt"
	"regexp"
	"strings"
)

const logPrefix = "semver:parser"

// ToolsetRef is a parsed toolset reference, e.g. "statsig.console@^1.2".
type ToolsetRef struct {
	// Full is the reference without its version (e.g. "statsig.console").
	Full string
	// App is the namespace before the first dot (e.g. "statsig").
	App string
	// Name is everything after the first dot (e.g. "console").
	Name string
	// Range is the requested version range; empty accepts any version.
	Range string
	Raw   string
}

var (
	refNameRegex      = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._-]*$`)
	majorOnlyRegex    = regexp.MustCompile(`^\d+$`)
	exactVersionRegex = regexp.MustCompile(`^\d+\.\d+\.\d+(-[\w.]+)?(\+[\w.]+)?$`)
)

// ParseToolsetRef parses "app.name" with an optional "@range" suffix.
// Accepted ranges are major-only ("1"), exact ("1.2.0") or any constraint
// understood by Masterminds semver ("^1.2", "~1.2.0", ">=1.0.0 <2.0.0").
func ParseToolsetRef(input string) (*ToolsetRef, error) {
	raw := strings.TrimSpace(input)
	ref, rangeStr, _ := strings.Cut(raw, "@")

	app, name, ok := strings.Cut(ref, ".")
	if !ok || app == "" || name == "" {
		return nil, fmt.Errorf("%s - invalid toolset reference, want app.name[@range]: %q", logPrefix, raw)
	}
	if !refNameRegex.MatchString(app) || !refNameRegex.MatchString(name) {
		return nil, fmt.Errorf("%s - invalid characters in toolset reference: %q", logPrefix, raw)
	}

	return &ToolsetRef{
		Full:  ref,
		App:   app,
		Name:  name,
		Range: strings.TrimSpace(rangeStr),
		Raw:   raw,
	}, nil
}

// String renders the reference back in app.name[@range] form.
func (r *ToolsetRef) String() string {
	if r.Range == "" {
		return r.Full
	}
	return r.Full + "@" + r.Range
}

// IsMajorOnly checks if a range is a major-only specifier (e.g., "3").
func IsMajorOnly(rangeStr string) bool {
	return majorOnlyRegex.MatchString(rangeStr)
}

// IsExactVersion checks if a range is an exact version (e.g., "3.2.1").
func IsExactVersion(rangeStr string) bool {
	return exactVersionRegex.MatchString(rangeStr)
}
