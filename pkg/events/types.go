// Package events defines the change events emitted when a tool mutates
// upstream state, and the publishers that deliver them.
package events

import "time"

// Change actions, one per mutation kind.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionLogged  = "logged"
)

// ResourceChangedEvent is emitted after a successful mutating tool call.
type ResourceChangedEvent struct {
	ID          string `json:"id"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Operation   string `json:"operation"`
	EntityID    string `json:"entityId,omitempty"`
	Environment string `json:"environment,omitempty"`
	// Invalidated counts the cached reads dropped by this change.
	Invalidated int    `json:"invalidated"`
	Timestamp   string `json:"timestamp"`
}

// Stamp fills Timestamp from t in RFC 3339 UTC.
func (e *ResourceChangedEvent) Stamp(t time.Time) {
	e.Timestamp = t.UTC().Format(time.RFC3339)
}
