package db

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadMigrations_SortsAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_second.sql":  {Data: []byte("SECOND")},
		"m/0001_first.sql":   {Data: []byte("FIRST")},
		"m/README.md":        {Data: []byte("# Migrations")},
		"m/0003_third.sql":   {Data: []byte("THIRD")},
		"m/nested.sql/x.sql": {Data: []byte("IGNORED")},
	}

	got, err := LoadMigrations(fsys, "m")
	if err != nil {
		t.Fatalf("db:migrations_test - unexpected error: %v", err)
	}
	want := []string{"0001_first", "0002_second", "0003_third"}
	if len(got) != len(want) {
		t.Fatalf("db:migrations_test - expected %d migrations, got %d", len(want), len(got))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("db:migrations_test - migration %d = %q, want %q", i, got[i].Name, name)
		}
	}
	if got[0].SQL != "FIRST" {
		t.Errorf("db:migrations_test - first migration content = %q", got[0].SQL)
	}
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	if _, err := LoadMigrations(fstest.MapFS{}, "nope"); err == nil {
		t.Error("db:migrations_test - expected error for missing directory")
	}
}

func TestMigrations_Embedded(t *testing.T) {
	ms, err := Migrations()
	if err != nil {
		t.Fatalf("db:migrations_test - Migrations: %v", err)
	}
	if len(ms) == 0 || !strings.Contains(ms[0].SQL, "mcp_result_cache") {
		t.Fatalf("db:migrations_test - embedded migrations missing result cache table: %+v", ms)
	}
}

func TestWriteStatus(t *testing.T) {
	ms := []Migration{{Name: "0001_a"}, {Name: "0002_b"}}
	var buf bytes.Buffer
	if err := writeStatus(&buf, ms, map[string]bool{"0001_a": true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"applied  0001_a", "pending  0002_b", "2 migrations, 1 pending"} {
		if !strings.Contains(out, want) {
			t.Errorf("db:migrations_test - status output missing %q:\n%s", want, out)
		}
	}
}
