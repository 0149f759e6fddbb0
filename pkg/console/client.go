// Package console is the upstream resource client for the experimentation
// platform. Every method issues at most one upstream call and converts every
// outcome, including transport failures, into an Envelope. Nothing in this
// package returns an error to its caller after construction.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/morezero/statsig-mcp/pkg/transport"
)

const logPrefix = "console:client"

// Default upstream locations.
const (
	DefaultBaseURL      = "https://statsigapi.net"
	DefaultAPIVersion   = "20240601"
	DefaultHTTPAPIURL   = "https://api.statsig.com"
	DefaultEventsAPIURL = "https://events.statsigapi.net"
	DefaultEnvironment  = "development"
	consolePrefix       = "/console/v1"
)

// Envelope is the uniform result of every upstream-calling method.
// Data is only meaningful when Success is true; Error only when it is false.
type Envelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// OK wraps data as a success envelope. A nil map becomes an empty one.
func OK(data map[string]any) Envelope {
	if data == nil {
		data = map[string]any{}
	}
	return Envelope{Success: true, Data: data}
}

// Fail builds a failure envelope.
func Fail(format string, args ...any) Envelope {
	return Envelope{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Config is the immutable client configuration created once at start-up.
type Config struct {
	APIKey         string
	BaseURL        string
	APIVersion     string
	Environment    string
	Timeout        time.Duration
	RetryCount     int
	DisableLogging bool
	Debug          bool

	// ServerSecret enables the evaluation family. Empty disables it.
	ServerSecret string
	HTTPAPIURL   string
	EventsAPIURL string
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.Environment == "" {
		c.Environment = DefaultEnvironment
	}
	if c.Timeout <= 0 {
		c.Timeout = transport.DefaultTimeout
	}
	if c.HTTPAPIURL == "" {
		c.HTTPAPIURL = DefaultHTTPAPIURL
	}
	if c.EventsAPIURL == "" {
		c.EventsAPIURL = DefaultEventsAPIURL
	}
}

// Sender is the transport surface the client needs; *transport.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, method, path string, query url.Values, body any) (*transport.Response, error)
}

// Client owns the transport(s) and the configuration.
type Client struct {
	cfg     Config
	console Sender
	eval    Sender
	events  Sender
}

// NewClient builds a Client and its transports. The API key must be non-empty.
// extra options are applied to every transport (e.g. a request hook for metrics).
func NewClient(cfg Config, extra ...transport.Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s - console API key is required", logPrefix)
	}
	cfg.applyDefaults()

	common := []transport.Option{
		transport.WithTimeout(cfg.Timeout),
		transport.WithHeader(transport.HeaderAPIVersion, cfg.APIVersion),
	}
	if cfg.RetryCount > 0 {
		common = append(common, transport.WithRetry(cfg.RetryCount, 250*time.Millisecond))
	}
	common = slices.Clip(append(common, extra...))

	consoleTr, err := transport.New(cfg.BaseURL, append(common, transport.WithHeader(transport.HeaderAPIKey, cfg.APIKey))...)
	if err != nil {
		return nil, err
	}
	c := &Client{cfg: cfg, console: consoleTr}

	if cfg.ServerSecret != "" {
		secret := transport.WithHeader(transport.HeaderAPIKey, cfg.ServerSecret)
		if c.eval, err = transport.New(cfg.HTTPAPIURL, append(common, secret)...); err != nil {
			return nil, err
		}
		if c.events, err = transport.New(cfg.EventsAPIURL, append(common, secret)...); err != nil {
			return nil, err
		}
	}

	if !cfg.DisableLogging {
		slog.Info(fmt.Sprintf("%s - Console client ready (base=%s, env=%s, timeout=%s, evaluation=%t)",
			logPrefix, cfg.BaseURL, cfg.Environment, cfg.Timeout, c.EvaluationEnabled()))
	}
	return c, nil
}

// NewClientWithSenders builds a Client over pre-built senders. eval and events may be nil.
func NewClientWithSenders(cfg Config, console, eval, events Sender) *Client {
	cfg.applyDefaults()
	return &Client{cfg: cfg, console: console, eval: eval, events: events}
}

// EvaluationEnabled reports whether the evaluation family is configured.
func (c *Client) EvaluationEnabled() bool { return c.eval != nil && c.events != nil }

// Environment returns the configured environment tier.
func (c *Client) Environment() string { return c.cfg.Environment }

// call describes one upstream request and how to name it in error text.
type call struct {
	method string
	path   string
	query  url.Values
	body   any

	// action and noun build messages like "failed to get gate 'g1'".
	action string
	noun   string
	id     string
}

func (r call) subject() string {
	if r.id == "" {
		return r.noun
	}
	return fmt.Sprintf("%s '%s'", r.noun, r.id)
}

// do is the single error-translation boundary: transport, upstream status and
// application-level errors all become failure envelopes here.
func (c *Client) do(ctx context.Context, s Sender, r call) Envelope {
	if s == nil {
		return Fail("%s is unavailable: evaluation API is not configured", r.noun)
	}

	resp, err := s.Send(ctx, r.method, r.path, r.query, r.body)
	if err != nil {
		var se *transport.UpstreamStatusError
		if errors.As(err, &se) && se.NotFound() && r.id != "" {
			return Fail("%s not found", capitalize(r.subject()))
		}
		if !c.cfg.DisableLogging {
			slog.Warn(fmt.Sprintf("%s - %s %s failed: %v", logPrefix, r.action, r.subject(), err))
		}
		return Fail("failed to %s %s: %v", r.action, r.subject(), err)
	}

	if msg := applicationError(resp.Body); msg != "" {
		return Fail("failed to %s %s: %s", r.action, r.subject(), msg)
	}
	return OK(resp.Body)
}

// applicationError returns the error text a 2xx body carries, if any.
func applicationError(body map[string]any) string {
	if _, hasData := body["data"]; hasData {
		return ""
	}
	if msg, ok := body["error"].(string); ok && msg != "" {
		return msg
	}
	if ok, present := body["success"].(bool); present && !ok {
		if msg, _ := body["message"].(string); msg != "" {
			return msg
		}
		return "upstream reported failure"
	}
	return ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func path(parts ...string) string {
	escaped := make([]string, 0, len(parts)+1)
	escaped = append(escaped, consolePrefix)
	for i, p := range parts {
		if i == 0 {
			escaped = append(escaped, p)
			continue
		}
		escaped = append(escaped, url.PathEscape(p))
	}
	return strings.Join(escaped, "/")
}

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		return nil
	}
	return url.Values{"limit": {strconv.Itoa(limit)}}
}

func requireID(field, value string) (Envelope, bool) {
	if strings.TrimSpace(value) == "" {
		return Fail("%s is required", field), false
	}
	return Envelope{}, true
}

// Probe performs a minimal read used by health checks.
func (c *Client) Probe(ctx context.Context) error {
	_, err := c.console.Send(ctx, http.MethodGet, path("gates"), limitQuery(1), nil)
	return err
}
