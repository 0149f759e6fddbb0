package console

import (
	"context"
	"net/http"
)

// DefaultEventLimit is the number of event types returned when the caller gives none.
const DefaultEventLimit = 10

// QueryEvents returns one event type's details when eventName is set, otherwise
// the list of event types. These are event definitions, not per-user history.
func (c *Client) QueryEvents(ctx context.Context, eventName string, limit int) Envelope {
	if eventName != "" {
		return c.do(ctx, c.console, call{
			method: http.MethodGet, path: path("events", eventName),
			action: "get", noun: "event", id: eventName,
		})
	}
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	env := c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("events"), query: limitQuery(limit),
		action: "list", noun: "event types",
	})
	// The events endpoint may ignore the limit query parameter.
	if items, ok := env.Data["data"].([]any); ok && len(items) > limit {
		env.Data["data"] = items[:limit]
	}
	return env
}
