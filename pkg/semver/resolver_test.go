package semver

import (
	"errors"
	"testing"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		rng      string
		mismatch bool
		invalid  bool
	}{
		{"empty range", "1.2.0", "", false, false},
		{"major match", "1.2.0", "1", false, false},
		{"major mismatch", "1.2.0", "2", true, false},
		{"caret match", "1.2.0", "^1.1.0", false, false},
		{"caret mismatch", "1.2.0", "^1.3.0", true, false},
		{"exact", "1.2.0", "1.2.0", false, false},
		{"compound", "1.2.0", ">=1.0.0 <2.0.0", false, false},
		{"bad range", "1.2.0", "not-a-range", false, true},
		{"bad version", "x", "^1.0.0", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.version, tt.rng)
			var mm *VersionMismatchError
			switch {
			case tt.mismatch:
				if !errors.As(err, &mm) {
					t.Fatalf("semver:resolver_test - expected VersionMismatchError, got %v", err)
				}
			case tt.invalid:
				if err == nil || errors.As(err, &mm) {
					t.Fatalf("semver:resolver_test - expected invalid-input error, got %v", err)
				}
			default:
				if err != nil {
					t.Fatalf("semver:resolver_test - unexpected error: %v", err)
				}
			}
			if SatisfiesRange(tt.version, tt.rng) != (err == nil) {
				t.Errorf("semver:resolver_test - SatisfiesRange disagrees with Check")
			}
		})
	}
}
