package console

import (
	"context"
	"net/http"
)

// ListSegments lists segments.
func (c *Client) ListSegments(ctx context.Context, limit int) Envelope {
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("segments"), query: limitQuery(limit),
		action: "list", noun: "segments",
	})
}

// GetSegment fetches one segment.
func (c *Client) GetSegment(ctx context.Context, segmentID string) Envelope {
	if env, ok := requireID("segment_id", segmentID); !ok {
		return env
	}
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("segments", segmentID),
		action: "get", noun: "segment", id: segmentID,
	})
}

// CreateSegment creates a segment.
func (c *Client) CreateSegment(ctx context.Context, name, description string) Envelope {
	if env, ok := requireID("name", name); !ok {
		return env
	}
	return c.do(ctx, c.console, call{
		method: http.MethodPost, path: path("segments"),
		body:   map[string]any{"name": name, "description": description},
		action: "create", noun: "segment", id: name,
	})
}
