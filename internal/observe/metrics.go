// Package observe provides the server's OpenTelemetry metrics: tool call
// counts and latency, cache hit/miss counts, upstream request counts, and
// HTTP request latency. A Prometheus exporter bridge is installed by
// [InitProvider] so metrics are scraped from /metrics. Tests should use
// [NewMetrics] with their own [metric.MeterProvider].
package observe

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all statsig-mcp metrics.
const meterName = "github.com/morezero/statsig-mcp"

// Metrics holds the metric instruments. All fields are safe for concurrent use.
type Metrics struct {
	// ToolCalls counts tool invocations by operation and outcome.
	ToolCalls metric.Int64Counter

	// ToolDuration tracks tool invocation latency by operation.
	ToolDuration metric.Float64Histogram

	// CacheLookups counts result cache lookups by operation and result (hit/miss).
	CacheLookups metric.Int64Counter

	// UpstreamRequests counts outbound calls by method, route, and status.
	UpstreamRequests metric.Int64Counter

	// UpstreamDuration tracks outbound call latency by route.
	UpstreamDuration metric.Float64Histogram

	// HTTPRequestDuration tracks inbound HTTP latency by method and path.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets are histogram boundaries in seconds, sized for upstream API calls.
var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ToolCalls, err = m.Int64Counter("statsig_mcp.tool.calls",
		metric.WithDescription("Total tool invocations by operation and outcome."),
	); err != nil {
		return nil, err
	}
	if met.ToolDuration, err = m.Float64Histogram("statsig_mcp.tool.duration",
		metric.WithDescription("Latency of tool invocations."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CacheLookups, err = m.Int64Counter("statsig_mcp.cache.lookups",
		metric.WithDescription("Result cache lookups by operation and result."),
	); err != nil {
		return nil, err
	}
	if met.UpstreamRequests, err = m.Int64Counter("statsig_mcp.upstream.requests",
		metric.WithDescription("Outbound API requests by method, route, and status."),
	); err != nil {
		return nil, err
	}
	if met.UpstreamDuration, err = m.Float64Histogram("statsig_mcp.upstream.duration",
		metric.WithDescription("Latency of outbound API requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("statsig_mcp.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// RecordToolCall counts one invocation and records its latency.
func (m *Metrics) RecordToolCall(ctx context.Context, operation, outcome string, elapsed time.Duration) {
	m.ToolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
	m.ToolDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordCacheLookup counts one cache lookup.
func (m *Metrics) RecordCacheLookup(ctx context.Context, operation string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("result", result),
	))
}

// RecordUpstream matches the transport request hook signature. A zero status
// means the request never got a response.
func (m *Metrics) RecordUpstream(ctx context.Context, method, path string, status int, elapsed time.Duration) {
	route := Route(path)
	m.UpstreamRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", statusLabel(status)),
	))
	m.UpstreamDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("route", route),
	))
}

// Route collapses an upstream path to its collection so entity IDs do not
// become label values: "/console/v1/gates/g1" is "/console/v1/gates".
func Route(path string) string {
	path, _, _ = strings.Cut(path, "?")
	if rest, ok := strings.CutPrefix(path, "/console/v1/"); ok {
		collection, _, _ := strings.Cut(rest, "/")
		return "/console/v1/" + collection
	}
	return path
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}
