package mcpbridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/morezero/statsig-mcp/pkg/console"
	"github.com/morezero/statsig-mcp/pkg/dispatcher"
	"github.com/morezero/statsig-mcp/pkg/registry"
)

func newTestServer(t *testing.T, h http.HandlerFunc) (*mcpserver.MCPServer, *int32) {
	t.Helper()
	var calls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		h(w, r)
	}))
	t.Cleanup(upstream.Close)

	client, err := console.NewClient(console.Config{
		APIKey: "k", BaseURL: upstream.URL, Timeout: 2 * time.Second, DisableLogging: true,
	})
	if err != nil {
		t.Fatalf("mcpbridge:bridge_test - NewClient: %v", err)
	}
	reg, err := registry.NewCatalog(client)
	if err != nil {
		t.Fatalf("mcpbridge:bridge_test - NewCatalog: %v", err)
	}
	return NewServer("statsig-mcp", "test", dispatcher.New(reg, dispatcher.Options{})), &calls
}

// rpc sends one JSON-RPC message and returns the decoded response object.
func rpc(t *testing.T, srv *mcpserver.MCPServer, method string, id int, params any) map[string]any {
	t.Helper()
	msg := map[string]any{"jsonrpc": "2.0", "id": id, "method": method}
	if params != nil {
		msg["params"] = params
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	resp := srv.HandleMessage(context.Background(), raw)
	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("mcpbridge:bridge_test - marshal response: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("mcpbridge:bridge_test - decode response: %v", err)
	}
	return decoded
}

func initialize(t *testing.T, srv *mcpserver.MCPServer) {
	t.Helper()
	resp := rpc(t, srv, "initialize", 1, map[string]any{
		"protocolVersion": "2025-03-26",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "1.0"},
	})
	if resp["error"] != nil {
		t.Fatalf("mcpbridge:bridge_test - initialize failed: %v", resp["error"])
	}
}

func callTool(t *testing.T, srv *mcpserver.MCPServer, name string, args map[string]any) (string, bool) {
	t.Helper()
	resp := rpc(t, srv, "tools/call", 3, map[string]any{"name": name, "arguments": args})
	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("mcpbridge:bridge_test - tools/call %s returned %v", name, resp)
	}
	content := result["content"].([]any)
	if len(content) != 1 {
		t.Fatalf("mcpbridge:bridge_test - content = %v", content)
	}
	text := content[0].(map[string]any)["text"].(string)
	isError, _ := result["isError"].(bool)
	return text, isError
}

func TestToolsList(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {})
	initialize(t, srv)

	resp := rpc(t, srv, "tools/list", 2, nil)
	result := resp["result"].(map[string]any)
	tools := result["tools"].([]any)

	byName := map[string]map[string]any{}
	for _, raw := range tools {
		tool := raw.(map[string]any)
		byName[tool["name"].(string)] = tool
	}
	for _, name := range []string{"list_gates", "create_gate", "get_experiment_results", "export_pulse_report", "list_audit_logs"} {
		if byName[name] == nil {
			t.Errorf("mcpbridge:bridge_test - tool %s missing", name)
		}
	}
	if byName["check_feature_gate"] != nil {
		t.Error("mcpbridge:bridge_test - evaluation tools listed without a server secret")
	}

	schema := byName["create_gate"]["inputSchema"].(map[string]any)
	required := schema["required"].([]any)
	if len(required) != 1 || required[0] != "name" {
		t.Errorf("mcpbridge:bridge_test - create_gate required = %v", required)
	}

	annotations := byName["delete_gate"]["annotations"].(map[string]any)
	if annotations["destructiveHint"] != true || annotations["readOnlyHint"] != false {
		t.Errorf("mcpbridge:bridge_test - delete_gate annotations = %v", annotations)
	}
}

func TestToolsCall_Success(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/console/v1/gates" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"g1","name":"new_checkout"}]}`))
	})
	initialize(t, srv)

	text, isError := callTool(t, srv, "list_gates", map[string]any{})
	if isError {
		t.Fatalf("mcpbridge:bridge_test - unexpected error: %s", text)
	}
	if !strings.Contains(text, "new_checkout (id: g1)") {
		t.Errorf("mcpbridge:bridge_test - text = %q", text)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Errorf("mcpbridge:bridge_test - upstream calls = %d", atomic.LoadInt32(calls))
	}
}

func TestToolsCall_InvalidArgument(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {})
	initialize(t, srv)

	text, isError := callTool(t, srv, "create_gate", map[string]any{"description": "x"})
	if !isError || !strings.HasPrefix(text, "Error: ") || !strings.Contains(text, "name") {
		t.Errorf("mcpbridge:bridge_test - result = %q (isError=%t)", text, isError)
	}
	if atomic.LoadInt32(calls) != 0 {
		t.Errorf("mcpbridge:bridge_test - upstream reached on invalid input")
	}
}

func TestToolsCall_UpstreamError(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	initialize(t, srv)

	text, isError := callTool(t, srv, "get_experiment_results", map[string]any{"experiment_id": "exp_123"})
	if !isError || !strings.Contains(text, "exp_123") {
		t.Errorf("mcpbridge:bridge_test - result = %q (isError=%t)", text, isError)
	}
}

func TestSchema(t *testing.T) {
	tests := []struct {
		name  string
		param registry.Param
		check func(map[string]any) bool
	}{
		{"integer", registry.Param{Name: "limit", Type: registry.TypeInteger, Default: 20},
			func(s map[string]any) bool { return s["type"] == "integer" && s["default"] == 20 }},
		{"enum", registry.Param{Name: "format", Type: registry.TypeString, Enum: []string{"json", "csv"}},
			func(s map[string]any) bool { return len(s["enum"].([]string)) == 2 }},
		{"scalar", registry.Param{Name: "value", Type: registry.TypeScalar},
			func(s map[string]any) bool { _, hasType := s["type"]; return !hasType && len(s["oneOf"].([]any)) == 2 }},
		{"untyped", registry.Param{Name: "x", Description: "d"},
			func(s map[string]any) bool { return s["type"] == "string" && s["description"] == "d" }},
	}
	for _, tt := range tests {
		if got := Schema(tt.param); !tt.check(got) {
			t.Errorf("mcpbridge:bridge_test - %s schema = %v", tt.name, got)
		}
	}
}
