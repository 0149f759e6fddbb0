// Package transport owns the single outbound HTTP configuration used to reach the
// experimentation platform's APIs: base URL, default headers, and timeout.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const logPrefix = "transport:transport"

// Header names used by the upstream APIs.
const (
	HeaderAPIKey     = "STATSIG-API-KEY"
	HeaderAPIVersion = "STATSIG-API-VERSION"
)

// numberJSON decodes numbers as json.Number so upstream values are relayed without float rounding.
var numberJSON = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// Response is a parsed 2xx upstream reply.
type Response struct {
	Status      int
	ContentType string
	// Body is the decoded JSON object. Top-level arrays are wrapped as {"data": [...]};
	// non-JSON payloads are carried as {"content": "<raw>", "content_type": "<type>"}.
	Body map[string]any
	Raw  []byte
}

// Option configures a Client built by New.
type Option func(*Client)

// WithTimeout bounds each call. Zero or negative keeps DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHeader adds a default header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithUserAgent overrides the default User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithRetry retries dial-level failures count times with delay between attempts.
// Zero disables retry, which is the default.
func WithRetry(count int, delay time.Duration) Option {
	return func(c *Client) {
		c.retryCount = count
		c.retryDelay = delay
	}
}

// WithHTTPClient replaces the pooled client entirely; used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRequestHook registers a callback invoked after every call with the
// request path, upstream status (0 when none was received), and elapsed time.
func WithRequestHook(fn func(ctx context.Context, method, path string, status int, elapsed time.Duration)) Option {
	return func(c *Client) { c.hook = fn }
}

// Client performs one HTTP call per Send. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	headers    http.Header
	timeout    time.Duration
	userAgent  string
	retryCount int
	retryDelay time.Duration
	httpClient *http.Client
	hook       func(ctx context.Context, method, path string, status int, elapsed time.Duration)
}

// New builds a Client for baseURL. The base URL must be absolute.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s - invalid base URL %q: %w", logPrefix, baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s - base URL %q must include scheme and host", logPrefix, baseURL)
	}

	c := &Client{
		baseURL:   u,
		headers:   make(http.Header),
		timeout:   DefaultTimeout,
		userAgent: "statsig-mcp",
	}
	c.headers.Set("Content-Type", "application/json")
	c.headers.Set("Accept", "application/json")
	for _, o := range opts {
		o(c)
	}

	if c.httpClient == nil {
		var rt http.RoundTripper = &userAgentTransport{base: newHTTPTransport(), ua: c.userAgent}
		if c.retryCount > 0 {
			rt = &dialRetryTransport{base: rt, count: c.retryCount, delay: c.retryDelay}
		}
		c.httpClient = &http.Client{Timeout: c.timeout, Transport: rt}
	}
	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Timeout returns the per-call timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Send performs exactly one HTTP call. path is relative to the base URL and must be non-empty.
// body, when non-nil, is JSON-encoded.
func (c *Client) Send(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &TransportError{Method: method, Path: path, Err: errors.New("empty request path")}
	}

	target, err := url.Parse(c.baseURL.String() + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := numberJSON.Marshal(body)
		if err != nil {
			return nil, &TransportError{Method: method, Path: path, Err: fmt.Errorf("encode body: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, target.String(), reader)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	slog.Debug(fmt.Sprintf("%s - %s %s", logPrefix, method, target.EscapedPath()))
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(ctx, method, path, 0, start)
		if isTimeout(err) {
			return nil, &TimeoutError{Method: method, Path: path, Timeout: c.timeout.String(), Err: err}
		}
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	c.observe(ctx, method, path, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw := readErrorBody(resp.Body, maxErrorBody)
		return nil, &UpstreamStatusError{
			Status:  resp.StatusCode,
			Body:    raw,
			Message: upstreamMessage([]byte(raw)),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	drainAndClose(resp.Body, 1024)
	if err != nil {
		if isTimeout(err) {
			return nil, &TimeoutError{Method: method, Path: path, Timeout: c.timeout.String(), Err: err}
		}
		return nil, &TransportError{Method: method, Path: path, Err: fmt.Errorf("read body: %w", err)}
	}

	ct := resp.Header.Get("Content-Type")
	return &Response{
		Status:      resp.StatusCode,
		ContentType: ct,
		Body:        decodeBody(raw, ct),
		Raw:         raw,
	}, nil
}

func (c *Client) observe(ctx context.Context, method, path string, status int, start time.Time) {
	if c.hook != nil {
		c.hook(ctx, method, path, status, time.Since(start))
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// decodeBody turns a successful payload into a mapping.
func decodeBody(raw []byte, contentType string) map[string]any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return map[string]any{}
	}

	if isJSON(contentType, trimmed) {
		var v any
		if err := numberJSON.Unmarshal(trimmed, &v); err == nil {
			switch t := v.(type) {
			case map[string]any:
				return t
			case []any:
				return map[string]any{"data": t}
			default:
				return map[string]any{"value": t}
			}
		}
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "" {
		mediaType = "text/plain"
	}
	return map[string]any{"content": string(raw), "content_type": mediaType}
}

func isJSON(contentType string, body []byte) bool {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if strings.HasSuffix(mediaType, "json") {
		return true
	}
	if mediaType == "" || mediaType == "text/plain" {
		return body[0] == '{' || body[0] == '['
	}
	return false
}

// upstreamMessage extracts the upstream-provided error text from a JSON error body.
func upstreamMessage(raw []byte) string {
	var body map[string]any
	if err := numberJSON.Unmarshal(raw, &body); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error", "errors"} {
		switch v := body[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if m, ok := v["message"].(string); ok && m != "" {
				return m
			}
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				switch e := item.(type) {
				case string:
					parts = append(parts, e)
				case map[string]any:
					if m, ok := e["message"].(string); ok {
						parts = append(parts, m)
					}
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
	}
	return ""
}
