package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

const mainTestPrefix = "cmd/statsig-mcp:main_test"

func TestUsage_ContainsCommands(t *testing.T) {
	required := []string{"serve", "tools", "migrate up", "migrate status", "cache sweep", "ensure-db", "STATSIG_CONSOLE_API_KEY", "DATABASE_URL"}
	for _, word := range required {
		if !strings.Contains(usage, word) {
			t.Errorf("%s - usage should contain %q", mainTestPrefix, word)
		}
	}
}

func TestRunTools(t *testing.T) {
	tests := []struct {
		name        string
		secret      string
		wantEval    bool
		wantAtLeast int
	}{
		{name: "console only", secret: "", wantEval: false, wantAtLeast: 10},
		{name: "with evaluation", secret: "secret-key", wantEval: true, wantAtLeast: 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STATSIG_CONSOLE_API_KEY", "")
			t.Setenv("STATSIG_SERVER_SECRET_KEY", tt.secret)

			var buf bytes.Buffer
			if err := runTools(&buf); err != nil {
				t.Fatalf("%s - runTools: %v", mainTestPrefix, err)
			}
			var out struct {
				Version string `json:"version"`
				Tools   []struct {
					Name string `json:"name"`
				} `json:"tools"`
			}
			if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
				t.Fatalf("%s - decode: %v", mainTestPrefix, err)
			}
			if out.Version == "" || len(out.Tools) < tt.wantAtLeast {
				t.Fatalf("%s - version %q, %d tools", mainTestPrefix, out.Version, len(out.Tools))
			}
			hasEval := false
			for _, tool := range out.Tools {
				if tool.Name == "check_feature_gate" {
					hasEval = true
				}
			}
			if hasEval != tt.wantEval {
				t.Errorf("%s - check_feature_gate listed = %t, want %t", mainTestPrefix, hasEval, tt.wantEval)
			}
			if strings.Contains(buf.String(), "secret-key") {
				t.Errorf("%s - secret leaked into catalog output", mainTestPrefix)
			}
		})
	}
}
