package semver

import (
	"fmt"

	masterminds "github.com/Masterminds/semver/v3"
)

const resolverLogPrefix = "semver:resolver"

// VersionMismatchError reports a requested range the served version does not satisfy.
type VersionMismatchError struct {
	Version string
	Range   string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("requested version %q is not satisfied by toolset version %s", e.Range, e.Version)
}

// Check returns nil when version satisfies rangeStr. An empty range accepts
// any version. A malformed range or version is an error, not a mismatch.
func Check(version, rangeStr string) error {
	if rangeStr == "" {
		return nil
	}
	sv, err := masterminds.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%s - invalid toolset version %q: %w", resolverLogPrefix, version, err)
	}

	if IsMajorOnly(rangeStr) {
		var major uint64
		fmt.Sscanf(rangeStr, "%d", &major)
		if sv.Major() != major {
			return &VersionMismatchError{Version: version, Range: rangeStr}
		}
		return nil
	}

	constraint, err := masterminds.NewConstraint(rangeStr)
	if err != nil {
		return fmt.Errorf("%s - invalid version range %q: %w", resolverLogPrefix, rangeStr, err)
	}
	if !constraint.Check(sv) {
		return &VersionMismatchError{Version: version, Range: rangeStr}
	}
	return nil
}

// SatisfiesRange reports whether version satisfies rangeStr; malformed input never does.
func SatisfiesRange(version, rangeStr string) bool {
	return Check(version, rangeStr) == nil
}
