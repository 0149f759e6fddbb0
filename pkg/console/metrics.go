package console

import (
	"context"
	"net/http"
)

// ListMetrics lists metric definitions.
func (c *Client) ListMetrics(ctx context.Context, limit int) Envelope {
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("metrics"), query: limitQuery(limit),
		action: "list", noun: "metrics",
	})
}

// GetMetric fetches one metric definition.
func (c *Client) GetMetric(ctx context.Context, metricID string) Envelope {
	if env, ok := requireID("metric_id", metricID); !ok {
		return env
	}
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("metrics", metricID),
		action: "get", noun: "metric", id: metricID,
	})
}
