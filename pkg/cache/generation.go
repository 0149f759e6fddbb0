package cache

import "sync"

// generations counts invalidations per resource. A read captures the
// generation before calling upstream and stores its result only when no
// invalidation happened in between.
type generations struct {
	mu     sync.Mutex
	counts map[string]uint64
}

func (g *generations) current(resource string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counts[resource]
}

func (g *generations) bump(resource string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.counts == nil {
		g.counts = make(map[string]uint64)
	}
	g.counts[resource]++
}
