package events

import (
	"context"
	"sync"
)

// EventPublisher delivers resource change events.
type EventPublisher interface {
	PublishChanged(ctx context.Context, event *ResourceChangedEvent) error
}

// NoOpPublisher is an EventPublisher that does nothing (for stdio-only deployments).
type NoOpPublisher struct{}

// PublishChanged is a no-op.
func (p *NoOpPublisher) PublishChanged(_ context.Context, _ *ResourceChangedEvent) error {
	return nil
}

// CallbackPublisher is an EventPublisher that calls a callback function (for testing).
type CallbackPublisher struct {
	callback func(ctx context.Context, event *ResourceChangedEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *ResourceChangedEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishChanged calls the callback.
func (p *CallbackPublisher) PublishChanged(ctx context.Context, event *ResourceChangedEvent) error {
	return p.callback(ctx, event)
}

// Recorder keeps every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []ResourceChangedEvent
}

// PublishChanged records a copy of event.
func (r *Recorder) PublishChanged(_ context.Context, event *ResourceChangedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

// Events returns the events recorded so far.
func (r *Recorder) Events() []ResourceChangedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ResourceChangedEvent(nil), r.events...)
}
