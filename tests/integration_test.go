//go:build integration

package tests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/morezero/statsig-mcp/internal/config"
	"github.com/morezero/statsig-mcp/internal/server"
	"github.com/morezero/statsig-mcp/pkg/db"
)

const integrationTestPrefix = "tests:integration_test"

// Integration tests use TEST_DATABASE_URL (e.g. .../statsig_mcp_test). Create the
// database once with: statsig-mcp ensure-db statsig_mcp_test

func TestIntegration_PostgresCacheThroughServer(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skipf("%s - TEST_DATABASE_URL not set, skipping", integrationTestPrefix)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.EnsureDatabase(ctx, url, ""); err != nil {
		t.Fatalf("%s - EnsureDatabase: %v", integrationTestPrefix, err)
	}

	var calls int32
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"seg_1","name":"beta_users"}]}`))
	}))
	defer up.Close()

	cfg := &config.Config{
		APIKey:             "console-key",
		BaseURL:            up.URL,
		APITimeoutMs:       2000,
		DisableLogging:     true,
		CacheEnabled:       true,
		CacheTTL:           time.Minute,
		CacheBackend:       config.BackendPostgres,
		DatabaseURL:        url,
		RunMigrations:      true,
		MCPTransport:       config.TransportStdio,
		HealthCheckTimeout: 5 * time.Second,
		COMMSName:          "statsig-mcp",
		RequestTimeout:     5 * time.Second,
	}

	// Two servers share one database: the second sees the first one's cached result.
	first, err := server.New(ctx, cfg, server.Options{})
	if err != nil {
		t.Fatalf("%s - server.New: %v", integrationTestPrefix, err)
	}
	defer first.Close()
	second, err := server.New(ctx, cfg, server.Options{})
	if err != nil {
		t.Fatalf("%s - server.New (second): %v", integrationTestPrefix, err)
	}
	defer second.Close()

	args := map[string]any{"limit": 7}
	a := first.Dispatcher().Dispatch(ctx, "list_segments", args)
	if a.IsError {
		t.Fatalf("%s - first call failed: %s", integrationTestPrefix, a.Text)
	}
	b := second.Dispatcher().Dispatch(ctx, "list_segments", args)
	if !b.Cached || b.Text != a.Text {
		t.Errorf("%s - second server cached=%t text=%q", integrationTestPrefix, b.Cached, b.Text)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("%s - upstream calls = %d, want 1", integrationTestPrefix, got)
	}

	h := first.Health(ctx)
	if h.Checks["cache"] != "ok" {
		t.Errorf("%s - cache check = %q (%v)", integrationTestPrefix, h.Checks["cache"], h.Errors)
	}
}
