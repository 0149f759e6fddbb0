package console

import (
	"context"
	"net/http"
)

// ListDynamicConfigs lists dynamic configs.
func (c *Client) ListDynamicConfigs(ctx context.Context, limit int) Envelope {
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("dynamic_configs"), query: limitQuery(limit),
		action: "list", noun: "dynamic configs",
	})
}

// GetDynamicConfig fetches one dynamic config.
func (c *Client) GetDynamicConfig(ctx context.Context, configID string) Envelope {
	if env, ok := requireID("config_id", configID); !ok {
		return env
	}
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("dynamic_configs", configID),
		action: "get", noun: "dynamic config", id: configID,
	})
}

// CreateDynamicConfig creates a dynamic config.
func (c *Client) CreateDynamicConfig(ctx context.Context, name, description string) Envelope {
	if env, ok := requireID("name", name); !ok {
		return env
	}
	return c.do(ctx, c.console, call{
		method: http.MethodPost, path: path("dynamic_configs"),
		body:   map[string]any{"name": name, "description": description},
		action: "create", noun: "dynamic config", id: name,
	})
}

// UpdateDynamicConfig partially updates a dynamic config. Hypothesis is ignored.
func (c *Client) UpdateDynamicConfig(ctx context.Context, configID string, update Update) Envelope {
	if env, ok := requireID("config_id", configID); !ok {
		return env
	}
	update.Hypothesis = nil
	return c.do(ctx, c.console, call{
		method: http.MethodPatch, path: path("dynamic_configs", configID), body: update.body(),
		action: "update", noun: "dynamic config", id: configID,
	})
}

// DeleteDynamicConfig deletes a dynamic config.
func (c *Client) DeleteDynamicConfig(ctx context.Context, configID string) Envelope {
	if env, ok := requireID("config_id", configID); !ok {
		return env
	}
	return c.do(ctx, c.console, call{
		method: http.MethodDelete, path: path("dynamic_configs", configID),
		action: "delete", noun: "dynamic config", id: configID,
	})
}
