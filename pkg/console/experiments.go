package console

import (
	"context"
	"net/http"
)

// Update is a partial update for experiments and dynamic configs. Fields holds
// raw upstream fields sent as-is; the named fields take precedence over it.
type Update struct {
	Name        *string
	Description *string
	Hypothesis  *string
	Fields      map[string]any
}

func (u Update) body() map[string]any {
	out := make(map[string]any, len(u.Fields)+3)
	for k, v := range u.Fields {
		out[k] = v
	}
	if u.Name != nil {
		out["name"] = *u.Name
	}
	if u.Description != nil {
		out["description"] = *u.Description
	}
	if u.Hypothesis != nil {
		out["hypothesis"] = *u.Hypothesis
	}
	return out
}

// ListExperiments lists experiments.
func (c *Client) ListExperiments(ctx context.Context, limit int) Envelope {
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("experiments"), query: limitQuery(limit),
		action: "list", noun: "experiments",
	})
}

// GetExperiment fetches one experiment definition.
func (c *Client) GetExperiment(ctx context.Context, experimentID string) Envelope {
	if env, ok := requireID("experiment_id", experimentID); !ok {
		return env
	}
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("experiments", experimentID),
		action: "get", noun: "experiment", id: experimentID,
	})
}

// CreateExperiment creates an experiment. An empty hypothesis is omitted.
func (c *Client) CreateExperiment(ctx context.Context, name, description, hypothesis string) Envelope {
	if env, ok := requireID("name", name); !ok {
		return env
	}
	body := map[string]any{"name": name, "description": description}
	if hypothesis != "" {
		body["hypothesis"] = hypothesis
	}
	return c.do(ctx, c.console, call{
		method: http.MethodPost, path: path("experiments"), body: body,
		action: "create", noun: "experiment", id: name,
	})
}

// UpdateExperiment partially updates an experiment.
func (c *Client) UpdateExperiment(ctx context.Context, experimentID string, update Update) Envelope {
	if env, ok := requireID("experiment_id", experimentID); !ok {
		return env
	}
	return c.do(ctx, c.console, call{
		method: http.MethodPatch, path: path("experiments", experimentID), body: update.body(),
		action: "update", noun: "experiment", id: experimentID,
	})
}

// DeleteExperiment deletes an experiment.
func (c *Client) DeleteExperiment(ctx context.Context, experimentID string) Envelope {
	if env, ok := requireID("experiment_id", experimentID); !ok {
		return env
	}
	return c.do(ctx, c.console, call{
		method: http.MethodDelete, path: path("experiments", experimentID),
		action: "delete", noun: "experiment", id: experimentID,
	})
}
