package console

import (
	"context"
	"net/http"
	"time"
)

// Evaluation endpoints, relative to the HTTP and events API bases.
const (
	pathCheckGate = "/v1/check_gate"
	pathGetConfig = "/v1/get_config"
	pathGetLayer  = "/v1/get_layer"
	pathLogEvent  = "/v1/log_event"
)

// User is the end user an evaluation is performed for. UserID is required.
type User struct {
	UserID            string
	Email             string
	Country           string
	IP                string
	UserAgent         string
	AppVersion        string
	Locale            string
	Custom            map[string]any
	PrivateAttributes map[string]any
}

// payload renders the upstream user object, tagging it with the environment tier.
func (u User) payload(tier string) map[string]any {
	out := map[string]any{"userID": u.UserID}
	for key, v := range map[string]string{
		"email":      u.Email,
		"country":    u.Country,
		"ip":         u.IP,
		"userAgent":  u.UserAgent,
		"appVersion": u.AppVersion,
		"locale":     u.Locale,
	} {
		if v != "" {
			out[key] = v
		}
	}
	if len(u.Custom) > 0 {
		out["custom"] = u.Custom
	}
	if len(u.PrivateAttributes) > 0 {
		out["privateAttributes"] = u.PrivateAttributes
	}
	if tier != "" {
		out["statsigEnvironment"] = map[string]any{"tier": tier}
	}
	return out
}

// CheckFeatureGate evaluates a gate for a user.
func (c *Client) CheckFeatureGate(ctx context.Context, user User, gateName string) Envelope {
	if env, ok := requireID("user_id", user.UserID); !ok {
		return env
	}
	if env, ok := requireID("gate_name", gateName); !ok {
		return env
	}
	return c.do(ctx, c.eval, call{
		method: http.MethodPost, path: pathCheckGate,
		body:   map[string]any{"user": user.payload(c.cfg.Environment), "gateName": gateName},
		action: "check", noun: "gate", id: gateName,
	})
}

// GetConfigForUser evaluates a dynamic config for a user.
func (c *Client) GetConfigForUser(ctx context.Context, user User, configName string) Envelope {
	if env, ok := requireID("user_id", user.UserID); !ok {
		return env
	}
	if env, ok := requireID("config_name", configName); !ok {
		return env
	}
	return c.do(ctx, c.eval, call{
		method: http.MethodPost, path: pathGetConfig,
		body:   map[string]any{"user": user.payload(c.cfg.Environment), "configName": configName},
		action: "evaluate", noun: "dynamic config", id: configName,
	})
}

// GetExperimentAssignment returns the group a user is assigned to. Experiments
// are evaluated through the config endpoint upstream.
func (c *Client) GetExperimentAssignment(ctx context.Context, user User, experimentName string) Envelope {
	if env, ok := requireID("user_id", user.UserID); !ok {
		return env
	}
	if env, ok := requireID("experiment_name", experimentName); !ok {
		return env
	}
	return c.do(ctx, c.eval, call{
		method: http.MethodPost, path: pathGetConfig,
		body:   map[string]any{"user": user.payload(c.cfg.Environment), "configName": experimentName},
		action: "get assignment for", noun: "experiment", id: experimentName,
	})
}

// GetLayerForUser returns the layer parameters a user receives.
func (c *Client) GetLayerForUser(ctx context.Context, user User, layerName string) Envelope {
	if env, ok := requireID("user_id", user.UserID); !ok {
		return env
	}
	if env, ok := requireID("layer_name", layerName); !ok {
		return env
	}
	return c.do(ctx, c.eval, call{
		method: http.MethodPost, path: pathGetLayer,
		body:   map[string]any{"user": user.payload(c.cfg.Environment), "layerName": layerName},
		action: "evaluate", noun: "layer", id: layerName,
	})
}

// LogEvent records a custom event. value may be nil, a string, or a number.
func (c *Client) LogEvent(ctx context.Context, user User, eventName string, value any, metadata map[string]any) Envelope {
	if env, ok := requireID("user_id", user.UserID); !ok {
		return env
	}
	if env, ok := requireID("event_name", eventName); !ok {
		return env
	}
	event := map[string]any{
		"eventName": eventName,
		"user":      user.payload(c.cfg.Environment),
		"time":      time.Now().UnixMilli(),
	}
	if value != nil {
		event["value"] = value
	}
	if len(metadata) > 0 {
		event["metadata"] = metadata
	}
	env := c.do(ctx, c.events, call{
		method: http.MethodPost, path: pathLogEvent,
		body:   map[string]any{"events": []any{event}},
		action: "log", noun: "event", id: eventName,
	})
	if env.Success {
		env.Data["event_name"] = eventName
		env.Data["logged"] = true
	}
	return env
}
