package commsutil

import "testing"

func TestBuildChangeSubject(t *testing.T) {
	tests := []struct {
		name     string
		global   string
		resource string
		want     string
	}{
		{"gates", SubjectChangeEvent, "gates", "statsig.changed.gates"},
		{"underscore kept", SubjectChangeEvent, "dynamic_configs", "statsig.changed.dynamic_configs"},
		{"dots replaced", "custom.changed", "a.b", "custom.changed.a_b"},
		{"wildcards replaced", SubjectChangeEvent, "x*>", "statsig.changed.x__"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildChangeSubject(tt.global, tt.resource); got != tt.want {
				t.Errorf("commsutil:subjects_test - BuildChangeSubject(%q, %q) = %q, want %q", tt.global, tt.resource, got, tt.want)
			}
		})
	}
}

func TestDescribeSubject(t *testing.T) {
	if got := DescribeSubject(SubjectTools); got != "cap.statsig.console.v1.describe" {
		t.Errorf("commsutil:subjects_test - DescribeSubject = %q", got)
	}
}
