// Package cache holds results of read-only tool calls for a bounded time.
// Entries older than the TTL are absent, never served stale.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/morezero/statsig-mcp/pkg/console"
)

const logPrefix = "cache:cache"

// DefaultTTL applies when a backend is built with a non-positive TTL.
const DefaultTTL = 60 * time.Second

// Cache stores successful envelopes by key, tagged with the resource they
// were read from so mutations can drop them. Implementations are safe for
// concurrent use. Cached envelopes must be treated as read-only.
type Cache interface {
	Get(ctx context.Context, key string) (console.Envelope, bool)
	Set(ctx context.Context, key, resource string, env console.Envelope)
	// Generation returns the invalidation count of resource.
	Generation(ctx context.Context, resource string) uint64
	// SetIfCurrent stores env only while resource is still at generation gen,
	// so a read that overlapped an invalidation never repopulates the cache.
	SetIfCurrent(ctx context.Context, key, resource string, gen uint64, env console.Envelope) bool
	// InvalidateResource drops every entry of resource and advances its generation.
	InvalidateResource(ctx context.Context, resource string) int
	// Sweep removes expired entries and returns how many were removed.
	Sweep(ctx context.Context) (int, error)
}

// canonicalJSON sorts map keys at every depth so equal argument sets encode identically.
var canonicalJSON = jsoniter.Config{
	SortMapKeys: true,
	UseNumber:   true,
}.Froze()

// Key derives the cache key for operation with args. Argument order never
// affects the key; nil and empty argument sets are equal.
func Key(operation string, args map[string]any) string {
	if len(args) == 0 {
		return operation + "|{}"
	}
	b, err := canonicalJSON.Marshal(args)
	if err != nil {
		// Unencodable arguments fall back to Go formatting, which also sorts map keys.
		return fmt.Sprintf("%s|%v", operation, args)
	}
	return operation + "|" + string(b)
}

// Janitor sweeps c every interval until ctx is done.
func Janitor(ctx context.Context, c Cache, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.Sweep(ctx)
			if err != nil {
				slog.Warn(fmt.Sprintf("%s - Sweep failed: %v", logPrefix, err))
				continue
			}
			if n > 0 {
				slog.Debug(fmt.Sprintf("%s - Swept %d expired entries", logPrefix, n))
			}
		}
	}
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
