package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	c, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("transport:transport_test - New: %v", err)
	}
	return c
}

func TestNew_RejectsRelativeBaseURL(t *testing.T) {
	for _, raw := range []string{"", "statsigapi.net", "/console"} {
		if _, err := New(raw); err == nil {
			t.Errorf("transport:transport_test - New(%q) expected error", raw)
		}
	}
}

func TestSend_SetsHeadersAndQuery(t *testing.T) {
	var gotKey, gotVersion, gotCT, gotUA, gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(HeaderAPIKey)
		gotVersion = r.Header.Get(HeaderAPIVersion)
		gotCT = r.Header.Get("Content-Type")
		gotUA = r.Header.Get("User-Agent")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"id":"g1"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv,
		WithHeader(HeaderAPIKey, "console-secret"),
		WithHeader(HeaderAPIVersion, "20240601"),
	)
	resp, err := c.Send(context.Background(), http.MethodGet, "/console/v1/gates", url.Values{"limit": {"5"}}, nil)
	if err != nil {
		t.Fatalf("transport:transport_test - Send: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("transport:transport_test - Status = %d, want 200", resp.Status)
	}
	if gotKey != "console-secret" || gotVersion != "20240601" {
		t.Errorf("transport:transport_test - headers key=%q version=%q", gotKey, gotVersion)
	}
	if gotCT != "application/json" {
		t.Errorf("transport:transport_test - Content-Type = %q", gotCT)
	}
	if gotUA != "statsig-mcp" {
		t.Errorf("transport:transport_test - User-Agent = %q", gotUA)
	}
	if gotPath != "/console/v1/gates" || gotQuery != "limit=5" {
		t.Errorf("transport:transport_test - path=%q query=%q", gotPath, gotQuery)
	}
}

func TestSend_EmptyPathRejectedWithoutNetworkCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Send(context.Background(), http.MethodGet, "  ", nil, nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("transport:transport_test - expected *TransportError, got %T (%v)", err, err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("transport:transport_test - expected zero upstream calls, got %d", calls)
	}
}

func TestSend_EncodesJSONBody(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &got)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"new_gate"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	resp, err := c.Send(context.Background(), http.MethodPost, "console/v1/gates", nil, map[string]any{"name": "new_gate", "isEnabled": true})
	if err != nil {
		t.Fatalf("transport:transport_test - Send: %v", err)
	}
	if resp.Status != http.StatusCreated {
		t.Errorf("transport:transport_test - Status = %d, want 201", resp.Status)
	}
	if got["name"] != "new_gate" || got["isEnabled"] != true {
		t.Errorf("transport:transport_test - upstream received %v", got)
	}
}

func TestSend_BodyShapes(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		check       func(t *testing.T, body map[string]any)
	}{
		{
			name:        "object",
			contentType: "application/json",
			body:        `{"data":{"id":"g1"}}`,
			check: func(t *testing.T, body map[string]any) {
				if _, ok := body["data"].(map[string]any); !ok {
					t.Errorf("transport:transport_test - data = %T", body["data"])
				}
			},
		},
		{
			name:        "top-level array is wrapped",
			contentType: "application/json",
			body:        `[{"id":"a"},{"id":"b"}]`,
			check: func(t *testing.T, body map[string]any) {
				items, ok := body["data"].([]any)
				if !ok || len(items) != 2 {
					t.Errorf("transport:transport_test - data = %#v", body["data"])
				}
			},
		},
		{
			name:        "numbers keep upstream precision",
			contentType: "application/json",
			body:        `{"lift":0.123456789012345678}`,
			check: func(t *testing.T, body map[string]any) {
				n, ok := body["lift"].(json.Number)
				if !ok || n.String() != "0.123456789012345678" {
					t.Errorf("transport:transport_test - lift = %#v", body["lift"])
				}
			},
		},
		{
			name:        "csv stays raw",
			contentType: "text/csv; charset=utf-8",
			body:        "metric,variant\nrevenue,test\n",
			check: func(t *testing.T, body map[string]any) {
				if body["content"] != "metric,variant\nrevenue,test\n" {
					t.Errorf("transport:transport_test - content = %#v", body["content"])
				}
				if body["content_type"] != "text/csv" {
					t.Errorf("transport:transport_test - content_type = %#v", body["content_type"])
				}
			},
		},
		{
			name:        "empty body",
			contentType: "application/json",
			body:        "",
			check: func(t *testing.T, body map[string]any) {
				if len(body) != 0 {
					t.Errorf("transport:transport_test - expected empty map, got %v", body)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			resp, err := newTestClient(t, srv).Send(context.Background(), http.MethodGet, "/x", nil, nil)
			if err != nil {
				t.Fatalf("transport:transport_test - Send: %v", err)
			}
			tt.check(t, resp.Body)
		})
	}
}

func TestSend_UpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":400,"message":"name is required"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Send(context.Background(), http.MethodPost, "/console/v1/gates", nil, map[string]any{})
	var se *UpstreamStatusError
	if !errors.As(err, &se) {
		t.Fatalf("transport:transport_test - expected *UpstreamStatusError, got %T", err)
	}
	if se.Status != http.StatusBadRequest {
		t.Errorf("transport:transport_test - Status = %d", se.Status)
	}
	if se.Message != "name is required" {
		t.Errorf("transport:transport_test - Message = %q", se.Message)
	}
	if se.Error() != "upstream returned 400: name is required" {
		t.Errorf("transport:transport_test - Error() = %q", se.Error())
	}
	if IsRetryable(err) {
		t.Error("transport:transport_test - 400 must not be retryable")
	}
}

func TestSend_NotFoundWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Send(context.Background(), http.MethodGet, "/console/v1/gates/missing", nil, nil)
	var se *UpstreamStatusError
	if !errors.As(err, &se) || !se.NotFound() {
		t.Fatalf("transport:transport_test - expected 404 UpstreamStatusError, got %v", err)
	}
	if se.Error() != "upstream returned 404: Not Found" {
		t.Errorf("transport:transport_test - Error() = %q", se.Error())
	}
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t, srv, WithTimeout(50*time.Millisecond))
	_, err := c.Send(context.Background(), http.MethodGet, "/slow", nil, nil)
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("transport:transport_test - expected *TimeoutError, got %T (%v)", err, err)
	}
	if !IsRetryable(err) {
		t.Error("transport:transport_test - timeout should be retryable")
	}
}

func TestSend_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := New(base)
	if err != nil {
		t.Fatalf("transport:transport_test - New: %v", err)
	}
	_, err = c.Send(context.Background(), http.MethodGet, "/console/v1/gates", nil, nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("transport:transport_test - expected *TransportError, got %T (%v)", err, err)
	}
}

func TestSend_RequestHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	var gotStatus int
	var gotPath string
	c := newTestClient(t, srv, WithRequestHook(func(_ context.Context, _, path string, status int, _ time.Duration) {
		gotPath = path
		gotStatus = status
	}))
	c.Send(context.Background(), http.MethodGet, "/console/v1/keys", nil, nil)
	if gotStatus != http.StatusTeapot || gotPath != "/console/v1/keys" {
		t.Errorf("transport:transport_test - hook saw status=%d path=%q", gotStatus, gotPath)
	}
}

func TestIsDialError(t *testing.T) {
	if isDialError(errors.New("boom")) {
		t.Error("transport:transport_test - plain error is not a dial error")
	}
}
