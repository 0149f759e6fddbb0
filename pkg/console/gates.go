package console

import (
	"context"
	"net/http"
)

// GateUpdate holds the optional fields of a gate update. Nil fields are not sent.
type GateUpdate struct {
	Name        *string
	Description *string
	IsEnabled   *bool
}

func (u GateUpdate) body() map[string]any {
	out := map[string]any{}
	if u.Name != nil {
		out["name"] = *u.Name
	}
	if u.Description != nil {
		out["description"] = *u.Description
	}
	if u.IsEnabled != nil {
		out["isEnabled"] = *u.IsEnabled
	}
	return out
}

// ListGates lists feature gates. limit <= 0 leaves the upstream default.
func (c *Client) ListGates(ctx context.Context, limit int) Envelope {
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("gates"), query: limitQuery(limit),
		action: "list", noun: "gates",
	})
}

// GetGate fetches one feature gate.
func (c *Client) GetGate(ctx context.Context, gateID string) Envelope {
	if env, ok := requireID("gate_id", gateID); !ok {
		return env
	}
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("gates", gateID),
		action: "get", noun: "gate", id: gateID,
	})
}

// CreateGate creates a feature gate.
func (c *Client) CreateGate(ctx context.Context, name, description string, isEnabled bool) Envelope {
	if env, ok := requireID("name", name); !ok {
		return env
	}
	return c.do(ctx, c.console, call{
		method: http.MethodPost, path: path("gates"),
		body: map[string]any{
			"name":        name,
			"description": description,
			"isEnabled":   isEnabled,
		},
		action: "create", noun: "gate", id: name,
	})
}

// UpdateGate partially updates a feature gate.
func (c *Client) UpdateGate(ctx context.Context, gateID string, update GateUpdate) Envelope {
	if env, ok := requireID("gate_id", gateID); !ok {
		return env
	}
	return c.do(ctx, c.console, call{
		method: http.MethodPatch, path: path("gates", gateID), body: update.body(),
		action: "update", noun: "gate", id: gateID,
	})
}

// DeleteGate deletes a feature gate.
func (c *Client) DeleteGate(ctx context.Context, gateID string) Envelope {
	if env, ok := requireID("gate_id", gateID); !ok {
		return env
	}
	return c.do(ctx, c.console, call{
		method: http.MethodDelete, path: path("gates", gateID),
		action: "delete", noun: "gate", id: gateID,
	})
}
