package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/morezero/statsig-mcp/internal/config"
	"github.com/morezero/statsig-mcp/internal/mcpbridge"
	"github.com/morezero/statsig-mcp/internal/observe"
	"github.com/morezero/statsig-mcp/pkg/dispatcher"
	"github.com/morezero/statsig-mcp/pkg/registry"
)

const httpLogPrefix = "server:http"

// maxCallBody caps the JSON arguments accepted by the HTTP call endpoint.
const maxCallBody = 1 << 20

// Check states reported by /health.
const (
	checkOK       = "ok"
	checkFailed   = "failed"
	checkDisabled = "disabled"
)

// HealthOutput is the /health payload.
type HealthOutput struct {
	Status      string            `json:"status"`
	Version     string            `json:"version"`
	Environment string            `json:"environment"`
	Tools       int               `json:"tools"`
	Checks      map[string]string `json:"checks"`
	Errors      map[string]string `json:"errors,omitempty"`
	Timestamp   string            `json:"timestamp"`
}

// Handler returns the HTTP surface: health, readiness, catalog pages and
// JSON, the HTTP call endpoint, OpenAPI docs, metrics, and /mcp when the MCP
// transport is http.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome())
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.HandleFunc("GET /tools", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.disp.Describe())
	})
	mux.HandleFunc("GET /tools/{name}", s.handleToolDetail())
	mux.HandleFunc("POST /tools/{name}/call", s.handleCall)
	mux.HandleFunc("GET /openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=60")
		writeJSON(w, http.StatusOK, buildOpenAPISpec(s.cfg.COMMSName, s.disp.Registry().DescribeAll()))
	})
	mux.HandleFunc("GET /docs", s.handleDocs())
	mux.Handle("GET /metrics", observe.Handler())
	if s.cfg.MCPTransport == config.TransportHTTP {
		mux.Handle("/mcp", mcpbridge.HTTPHandler(s.mcp))
	}
	return observe.Middleware(s.metrics)(mux)
}

// Health probes the upstream and every configured backing service.
func (s *Server) Health(ctx context.Context) *HealthOutput {
	h := &HealthOutput{
		Status:      "healthy",
		Version:     dispatcher.ToolsetVersion,
		Environment: s.client.Environment(),
		Tools:       s.disp.Registry().Len(),
		Checks:      map[string]string{},
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	fail := func(check string, err error) {
		h.Status = "unhealthy"
		h.Checks[check] = checkFailed
		if h.Errors == nil {
			h.Errors = map[string]string{}
		}
		h.Errors[check] = err.Error()
	}

	if err := s.client.Probe(ctx); err != nil {
		fail("upstream", err)
	} else {
		h.Checks["upstream"] = checkOK
	}

	switch {
	case s.cache == nil:
		h.Checks["cache"] = checkDisabled
	case s.pool != nil:
		if err := s.pool.Ping(ctx); err != nil {
			fail("cache", err)
		} else {
			h.Checks["cache"] = checkOK
		}
	default:
		h.Checks["cache"] = checkOK
	}

	switch {
	case s.nc == nil:
		h.Checks["comms"] = checkDisabled
	case !s.nc.IsConnected():
		fail("comms", fmt.Errorf("NATS connection status %s", s.nc.Status()))
	default:
		h.Checks["comms"] = checkOK
	}
	return h
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
	defer cancel()
	h := s.Health(ctx)
	status := http.StatusOK
	if h.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

// CallOutput is the JSON body returned by POST /tools/{name}/call.
type CallOutput struct {
	Name     string `json:"name"`
	Text     string `json:"text"`
	IsError  bool   `json:"isError"`
	Cached   bool   `json:"cached"`
	Envelope any    `json:"envelope"`
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	args := map[string]any{}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) > 0 {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&args); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "arguments must be a JSON object"})
			return
		}
	}

	res := s.disp.Dispatch(r.Context(), name, args)
	status := http.StatusOK
	switch {
	case dispatcher.IsUnknownOperation(res.Err):
		status = http.StatusNotFound
	case dispatcher.IsInvalidArgument(res.Err):
		status = http.StatusBadRequest
	case res.IsError:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, CallOutput{
		Name: res.Operation, Text: res.Text, IsError: res.IsError, Cached: res.Cached, Envelope: res.Envelope,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(fmt.Sprintf("%s - json encode: %v", httpLogPrefix, err))
	}
}

// homePageTemplate is the HTML for the home page (white bg, black/blue text).
const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Name}}</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    a { color: #0066cc; }
    h1, h2, h3 { color: #0066cc; }
    .status-healthy { color: #0066cc; font-weight: bold; }
    .status-unhealthy { color: #cc0000; font-weight: bold; }
    table { border-collapse: collapse; width: 100%; max-width: 1100px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; vertical-align: top; }
    th { background: #f0f4f8; color: #0066cc; }
    .stat { font-weight: bold; color: #0066cc; }
    .meta { color: #333; font-size: 0.9rem; margin-top: 1rem; }
    section { margin-bottom: 2rem; }
    .error { color: #cc0000; }
  </style>
</head>
<body>
  <h1>{{.Name}}</h1>
  <p class="meta">Statsig tools over MCP. Toolset version {{.Health.Version}}, environment {{.Health.Environment}}. <a href="/docs">API docs</a></p>

  <section>
    <h2>Health</h2>
    <p>Status: <span class="status-{{.Health.Status}}">{{.Health.Status}}</span></p>
    {{range $check, $state := .Health.Checks}}
    <p>{{$check}}: {{if eq $state "failed"}}<span class="error">{{$state}}</span>{{else}}<span class="stat">{{$state}}</span>{{end}}</p>
    {{end}}
    <p>Timestamp: {{.Health.Timestamp}}</p>
  </section>

  <section>
    <h2>Tools</h2>
    <p>Total tools: <span class="stat">{{len .Tools}}</span></p>
    <table>
      <thead>
        <tr><th>Tool</th><th>Resource</th><th>Kind</th><th>Cached</th><th>Description</th></tr>
      </thead>
      <tbody>
        {{range .Tools}}
        <tr>
          <td><a href="/tools/{{.Name}}">{{.Name}}</a></td>
          <td>{{.Resource}}</td>
          <td>{{.Kind}}</td>
          <td>{{if .Cacheable}}yes{{else}}no{{end}}</td>
          <td>{{.Description}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
  </section>
</body>
</html>
`

// toolDetailPageTemplate is the HTML for a single tool.
const toolDetailPageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Tool.Name}} – {{.Name}}</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    a { color: #0066cc; }
    h1, h2, h3 { color: #0066cc; }
    table { border-collapse: collapse; width: 100%; max-width: 900px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; vertical-align: top; }
    th { background: #f0f4f8; color: #0066cc; }
    .meta { color: #333; font-size: 0.9rem; margin-top: 0.5rem; }
    section { margin-bottom: 2rem; }
    pre { background: #f5f5f5; padding: 0.75rem; overflow-x: auto; font-size: 0.85rem; margin: 0.25rem 0; border: 1px solid #eee; }
    .back { margin-bottom: 1rem; }
  </style>
</head>
<body>
  <p class="back"><a href="/">← Back to tools</a></p>
  <h1>{{.Tool.Name}}</h1>
  {{if .Tool.Title}}<p class="meta">{{.Tool.Title}}</p>{{end}}
  <p>{{.Tool.Description}}</p>

  <section>
    <h2>Details</h2>
    <table>
      <tr><th>Resource</th><td>{{.Tool.Resource}}</td></tr>
      <tr><th>Kind</th><td>{{.Tool.Kind}}</td></tr>
      <tr><th>Read only</th><td>{{.Tool.ReadOnly}}</td></tr>
      <tr><th>Destructive</th><td>{{.Tool.Destructive}}</td></tr>
      <tr><th>Cached</th><td>{{.Tool.Cacheable}}</td></tr>
    </table>
  </section>

  <section>
    <h2>Parameters</h2>
    {{if not .Tool.Params}}
    <p>No parameters.</p>
    {{else}}
    <table>
      <thead><tr><th>Name</th><th>Type</th><th>Required</th><th>Default</th><th>Description</th></tr></thead>
      <tbody>
        {{range .Tool.Params}}
        <tr>
          <td>{{.Name}}</td>
          <td>{{.Type}}{{if .Enum}} ({{range $i, $e := .Enum}}{{if $i}}, {{end}}{{$e}}{{end}}){{end}}</td>
          <td>{{.Required}}</td>
          <td>{{if .Default}}{{.Default}}{{end}}</td>
          <td>{{.Description}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    {{end}}
    <details>
      <summary>Input schema</summary>
      <pre>{{json .Schema}}</pre>
    </details>
  </section>
</body>
</html>
`

type homeData struct {
	Name   string
	Health *HealthOutput
	Tools  []registry.Descriptor
}

func (s *Server) handleHome() http.HandlerFunc {
	tmpl := template.Must(template.New("home").Parse(homePageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()

		data := homeData{
			Name:   s.cfg.COMMSName,
			Health: s.Health(ctx),
			Tools:  s.disp.Registry().DescribeAll(),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			slog.Error(fmt.Sprintf("%s - home template execute: %v", httpLogPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

type toolDetailData struct {
	Name   string
	Tool   registry.Descriptor
	Schema map[string]any
}

func (s *Server) handleToolDetail() http.HandlerFunc {
	tmpl := template.Must(template.New("toolDetail").Funcs(template.FuncMap{
		"json": func(v any) string {
			b, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return fmt.Sprintf("%v", v)
			}
			return string(b)
		},
	}).Parse(toolDetailPageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		desc, err := s.disp.Registry().Resolve(r.PathValue("name"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		data := toolDetailData{Name: s.cfg.COMMSName, Tool: desc, Schema: inputSchema(desc)}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			slog.Error(fmt.Sprintf("%s - tool detail template execute: %v", httpLogPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// swaggerUIPage embeds Swagger UI from CDN and loads /openapi.json.
const swaggerUIPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>API – {{.Name}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      SwaggerUIBundle({
        url: "{{.SpecURL}}",
        dom_id: "#swagger-ui",
        presets: [
          SwaggerUIBundle.presets.apis,
          SwaggerUIBundle.SwaggerUIStandalonePreset
        ]
      });
    };
  </script>
</body>
</html>
`

func (s *Server) handleDocs() http.HandlerFunc {
	tmpl := template.Must(template.New("swagger").Parse(swaggerUIPage))
	return func(w http.ResponseWriter, r *http.Request) {
		scheme := "https"
		if r.TLS == nil {
			scheme = "http"
		}
		specURL := (&url.URL{Scheme: scheme, Host: r.Host, Path: "/openapi.json"}).String()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		tmpl.Execute(w, map[string]string{"Name": s.cfg.COMMSName, "SpecURL": specURL})
	}
}
