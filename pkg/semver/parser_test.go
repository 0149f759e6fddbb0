package semver

import "testing"

func TestParseToolsetRef(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantApp   string
		wantName  string
		wantRange string
		wantErr   bool
	}{
		{name: "no version", input: "statsig.console", wantApp: "statsig", wantName: "console"},
		{name: "major only", input: "statsig.console@1", wantApp: "statsig", wantName: "console", wantRange: "1"},
		{name: "caret", input: "statsig.console@^1.2.0", wantApp: "statsig", wantName: "console", wantRange: "^1.2.0"},
		{name: "dotted name", input: " statsig.console.v1@~1.0 ", wantApp: "statsig", wantName: "console.v1", wantRange: "~1.0"},
		{name: "missing app", input: "console", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "empty name", input: "statsig.@1", wantErr: true},
		{name: "bad chars", input: "stat sig.console", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseToolsetRef(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("semver:parser_test - expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("semver:parser_test - unexpected error: %v", err)
			}
			if ref.App != tt.wantApp || ref.Name != tt.wantName || ref.Range != tt.wantRange {
				t.Errorf("semver:parser_test - got %+v", ref)
			}
		})
	}
}

func TestToolsetRefString(t *testing.T) {
	for _, in := range []string{"statsig.console", "statsig.console@^1.0.0"} {
		ref, err := ParseToolsetRef(in)
		if err != nil {
			t.Fatal(err)
		}
		if ref.String() != in {
			t.Errorf("semver:parser_test - String() = %q, want %q", ref.String(), in)
		}
	}
}

func TestRangeShapes(t *testing.T) {
	if !IsMajorOnly("1") || IsMajorOnly("1.0") {
		t.Error("semver:parser_test - IsMajorOnly misclassified")
	}
	if !IsExactVersion("1.2.3") || !IsExactVersion("1.2.3-rc.1") || IsExactVersion("^1.2.3") {
		t.Error("semver:parser_test - IsExactVersion misclassified")
	}
}
