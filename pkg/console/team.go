package console

import (
	"context"
	"net/http"
)

// ListTeamUsers lists members of the project team (not end users).
func (c *Client) ListTeamUsers(ctx context.Context) Envelope {
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("users"),
		action: "list", noun: "team users",
	})
}

// GetUserByEmail fetches a team member by email.
func (c *Client) GetUserByEmail(ctx context.Context, email string) Envelope {
	if env, ok := requireID("email", email); !ok {
		return env
	}
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("users", email),
		action: "get", noun: "user", id: email,
	})
}
