package cache

import (
	"context"
	"sync"
	"time"

	"github.com/morezero/statsig-mcp/pkg/console"
)

type entry struct {
	env      console.Envelope
	resource string
	storedAt time.Time
}

// Memory is an in-process TTL cache guarded by a single mutex.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
	gens    map[string]uint64
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates an empty in-memory cache.
func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		ttl:     ttlOrDefault(ttl),
		now:     time.Now,
		entries: make(map[string]entry),
		gens:    make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the configured entry lifetime.
func (m *Memory) TTL() time.Duration { return m.ttl }

func (m *Memory) expired(e entry, now time.Time) bool {
	return now.Sub(e.storedAt) > m.ttl
}

// Get returns the entry for key. An expired entry is removed and reported absent.
func (m *Memory) Get(_ context.Context, key string) (console.Envelope, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return console.Envelope{}, false
	}
	if m.expired(e, m.now()) {
		delete(m.entries, key)
		return console.Envelope{}, false
	}
	return e.env, true
}

// Set stores env under key, replacing any previous entry.
func (m *Memory) Set(_ context.Context, key, resource string, env console.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{env: env, resource: resource, storedAt: m.now()}
}

// Generation returns the invalidation count of resource.
func (m *Memory) Generation(_ context.Context, resource string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[resource]
}

// SetIfCurrent stores env unless resource was invalidated after gen was read.
func (m *Memory) SetIfCurrent(_ context.Context, key, resource string, gen uint64, env console.Envelope) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gens[resource] != gen {
		return false
	}
	m.entries[key] = entry{env: env, resource: resource, storedAt: m.now()}
	return true
}

// InvalidateResource removes every entry tagged with resource.
func (m *Memory) InvalidateResource(_ context.Context, resource string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gens[resource]++
	n := 0
	for key, e := range m.entries {
		if e.resource == resource {
			delete(m.entries, key)
			n++
		}
	}
	return n
}

// Sweep removes expired entries.
func (m *Memory) Sweep(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for key, e := range m.entries {
		if m.expired(e, now) {
			delete(m.entries, key)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
