package console

import (
	"context"
	"net/http"
)

// ListTargetApps lists target apps.
func (c *Client) ListTargetApps(ctx context.Context) Envelope {
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("target_apps"),
		action: "list", noun: "target apps",
	})
}

// GetTargetApp fetches one target app.
func (c *Client) GetTargetApp(ctx context.Context, appID string) Envelope {
	if env, ok := requireID("app_id", appID); !ok {
		return env
	}
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("target_apps", appID),
		action: "get", noun: "target app", id: appID,
	})
}

// ListAPIKeys lists project API keys.
func (c *Client) ListAPIKeys(ctx context.Context) Envelope {
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("keys"),
		action: "list", noun: "API keys",
	})
}
