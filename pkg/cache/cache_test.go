package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/morezero/statsig-mcp/pkg/console"
)

const cacheTestPrefix = "cache:cache_test"

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestKey_Canonical(t *testing.T) {
	a := Key("get_gate", map[string]any{"gate_id": "g1", "limit": 5, "nested": map[string]any{"b": 1, "a": 2}})
	b := Key("get_gate", map[string]any{"nested": map[string]any{"a": 2, "b": 1}, "limit": 5, "gate_id": "g1"})
	if a != b {
		t.Errorf("%s - key depends on argument order: %q vs %q", cacheTestPrefix, a, b)
	}
	if Key("get_gate", nil) != Key("get_gate", map[string]any{}) {
		t.Errorf("%s - nil and empty args should share a key", cacheTestPrefix)
	}
	if Key("get_gate", map[string]any{"gate_id": "g1"}) == Key("get_experiment", map[string]any{"gate_id": "g1"}) {
		t.Errorf("%s - different operations must not share a key", cacheTestPrefix)
	}
	if Key("get_gate", map[string]any{"gate_id": "g1"}) == Key("get_gate", map[string]any{"gate_id": "g2"}) {
		t.Errorf("%s - different arguments must not share a key", cacheTestPrefix)
	}
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	m := NewMemory(60*time.Second, WithClock(clock.Now))
	env := console.OK(map[string]any{"id": "g1"})

	m.Set(ctx, "k", "gates", env)

	clock.Advance(59 * time.Second)
	got, ok := m.Get(ctx, "k")
	if !ok || got.Data["id"] != "g1" {
		t.Fatalf("%s - expected hit inside TTL, got ok=%t %+v", cacheTestPrefix, ok, got)
	}

	clock.Advance(1 * time.Second)
	if _, ok := m.Get(ctx, "k"); !ok {
		t.Fatalf("%s - entry exactly at TTL should still be served", cacheTestPrefix)
	}

	clock.Advance(1 * time.Millisecond)
	if _, ok := m.Get(ctx, "k"); ok {
		t.Fatalf("%s - expired entry must be absent", cacheTestPrefix)
	}
	if m.Len() != 0 {
		t.Errorf("%s - expired entry should be removed on Get, Len = %d", cacheTestPrefix, m.Len())
	}
}

func TestMemory_SetRefreshes(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	m := NewMemory(10*time.Second, WithClock(clock.Now))

	m.Set(ctx, "k", "gates", console.OK(map[string]any{"v": 1}))
	clock.Advance(8 * time.Second)
	m.Set(ctx, "k", "gates", console.OK(map[string]any{"v": 2}))
	clock.Advance(8 * time.Second)

	got, ok := m.Get(ctx, "k")
	if !ok || got.Data["v"] != 2 {
		t.Fatalf("%s - expected refreshed entry, got ok=%t %+v", cacheTestPrefix, ok, got)
	}
}

func TestMemory_InvalidateResource(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	m.Set(ctx, "list_gates|{}", "gates", console.OK(nil))
	m.Set(ctx, "get_gate|{\"gate_id\":\"g1\"}", "gates", console.OK(nil))
	m.Set(ctx, "list_experiments|{}", "experiments", console.OK(nil))

	if n := m.InvalidateResource(ctx, "gates"); n != 2 {
		t.Errorf("%s - invalidated %d entries, want 2", cacheTestPrefix, n)
	}
	if _, ok := m.Get(ctx, "list_gates|{}"); ok {
		t.Errorf("%s - gates entry survived invalidation", cacheTestPrefix)
	}
	if _, ok := m.Get(ctx, "list_experiments|{}"); !ok {
		t.Errorf("%s - unrelated resource was invalidated", cacheTestPrefix)
	}
}

func TestMemory_SetIfCurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	gen := m.Generation(ctx, "gates")
	m.InvalidateResource(ctx, "gates")
	if m.SetIfCurrent(ctx, "get_gate|{}", "gates", gen, console.OK(nil)) {
		t.Errorf("%s - stored a result read before the invalidation", cacheTestPrefix)
	}
	if _, ok := m.Get(ctx, "get_gate|{}"); ok {
		t.Errorf("%s - stale entry present", cacheTestPrefix)
	}

	if !m.SetIfCurrent(ctx, "list_segments|{}", "segments", m.Generation(ctx, "segments"), console.OK(nil)) {
		t.Errorf("%s - other resources must not be affected", cacheTestPrefix)
	}
	if !m.SetIfCurrent(ctx, "get_gate|{}", "gates", m.Generation(ctx, "gates"), console.OK(nil)) {
		t.Errorf("%s - current generation rejected", cacheTestPrefix)
	}
}

func TestMemory_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	m := NewMemory(time.Second, WithClock(clock.Now))
	m.Set(ctx, "old", "gates", console.OK(nil))
	clock.Advance(2 * time.Second)
	m.Set(ctx, "new", "gates", console.OK(nil))

	n, err := m.Sweep(ctx)
	if err != nil || n != 1 {
		t.Fatalf("%s - Sweep = %d, %v; want 1, nil", cacheTestPrefix, n, err)
	}
	if m.Len() != 1 {
		t.Errorf("%s - Len after sweep = %d, want 1", cacheTestPrefix, m.Len())
	}
}

func TestNewMemory_DefaultTTL(t *testing.T) {
	if got := NewMemory(0).TTL(); got != DefaultTTL {
		t.Errorf("%s - TTL = %s, want %s", cacheTestPrefix, got, DefaultTTL)
	}
}

func TestMemory_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := Key("list_gates", map[string]any{"limit": i % 5})
			m.Set(ctx, key, "gates", console.OK(nil))
			m.Get(ctx, key)
			if i%10 == 0 {
				m.InvalidateResource(ctx, "gates")
			}
		}(i)
	}
	wg.Wait()
	if m.Len() > 5 {
		t.Errorf("%s - Len = %d, want at most 5 distinct keys", cacheTestPrefix, m.Len())
	}
}

func TestDeduper_CollapsesConcurrentCalls(t *testing.T) {
	d := NewDeduper()
	var calls int32
	release := make(chan struct{})
	started := make(chan struct{})

	const followers = 5
	results := make(chan console.Envelope, followers+1)

	go func() {
		env, _ := d.Do("k", func() console.Envelope {
			atomic.AddInt32(&calls, 1)
			close(started)
			<-release
			return console.OK(map[string]any{"id": "g1"})
		})
		results <- env
	}()
	<-started

	var wg sync.WaitGroup
	for i := 0; i < followers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env, _ := d.Do("k", func() console.Envelope {
				atomic.AddInt32(&calls, 1)
				return console.OK(nil)
			})
			results <- env
		}()
	}
	// Followers block inside Do until the leader is released.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("%s - fn ran %d times, want 1", cacheTestPrefix, n)
	}
	for i := 0; i < followers+1; i++ {
		if env := <-results; env.Data["id"] != "g1" {
			t.Errorf("%s - caller %d got %+v", cacheTestPrefix, i, env)
		}
	}
}
