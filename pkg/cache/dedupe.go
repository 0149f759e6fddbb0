package cache

import (
	"golang.org/x/sync/singleflight"

	"github.com/morezero/statsig-mcp/pkg/console"
)

// Deduper collapses concurrent calls that share a key into one. Followers
// receive the leader's envelope, including its failure, and are bound by the
// leader's context.
type Deduper struct {
	group singleflight.Group
}

// NewDeduper creates a Deduper.
func NewDeduper() *Deduper { return &Deduper{} }

// Do runs fn once per in-flight key. shared reports whether the result was
// handed to more than one caller.
func (d *Deduper) Do(key string, fn func() console.Envelope) (env console.Envelope, shared bool) {
	v, _, shared := d.group.Do(key, func() (any, error) {
		return fn(), nil
	})
	return v.(console.Envelope), shared
}
