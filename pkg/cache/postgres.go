package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/statsig-mcp/pkg/console"
)

const pgLogPrefix = "cache:postgres"

// Postgres shares cached results between replicas through the
// mcp_result_cache table. Backend failures are logged and behave as misses,
// so a database outage degrades to uncached upstream calls.
type Postgres struct {
	pool *pgxpool.Pool
	ttl  time.Duration
	now  func() time.Time
	gens generations
}

// NewPostgres creates a cache over pool. The schema must already be migrated.
func NewPostgres(pool *pgxpool.Pool, ttl time.Duration, opts ...PostgresOption) *Postgres {
	p := &Postgres{pool: pool, ttl: ttlOrDefault(ttl), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PostgresOption configures a Postgres cache.
type PostgresOption func(*Postgres)

// WithPostgresClock replaces time.Now, for tests.
func WithPostgresClock(now func() time.Time) PostgresOption {
	return func(p *Postgres) { p.now = now }
}

// Get returns the entry for key when it has not expired.
func (p *Postgres) Get(ctx context.Context, key string) (console.Envelope, bool) {
	var raw string
	err := p.pool.QueryRow(ctx,
		`SELECT envelope::text FROM mcp_result_cache WHERE cache_key = $1 AND expires_at >= $2`,
		key, p.now()).Scan(&raw)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			slog.Warn(fmt.Sprintf("%s - Get failed: %v", pgLogPrefix, err))
		}
		return console.Envelope{}, false
	}

	var env console.Envelope
	if err := canonicalJSON.UnmarshalFromString(raw, &env); err != nil {
		slog.Warn(fmt.Sprintf("%s - Discarding undecodable entry: %v", pgLogPrefix, err))
		return console.Envelope{}, false
	}
	return env, true
}

// Set upserts env under key with a fresh expiry.
func (p *Postgres) Set(ctx context.Context, key, resource string, env console.Envelope) {
	raw, err := canonicalJSON.MarshalToString(env)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - Cannot encode envelope for %s: %v", pgLogPrefix, key, err))
		return
	}
	now := p.now()
	_, err = p.pool.Exec(ctx, `
		INSERT INTO mcp_result_cache (cache_key, operation, resource, envelope, stored_at, expires_at)
		VALUES ($1, $2, $3, $4::text::jsonb, $5, $6)
		ON CONFLICT (cache_key) DO UPDATE SET
			envelope = EXCLUDED.envelope,
			resource = EXCLUDED.resource,
			stored_at = EXCLUDED.stored_at,
			expires_at = EXCLUDED.expires_at`,
		key, operationOf(key), resource, raw, now, now.Add(p.ttl))
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - Set failed: %v", pgLogPrefix, err))
	}
}

// Generation returns the invalidation count of resource in this process.
func (p *Postgres) Generation(_ context.Context, resource string) uint64 {
	return p.gens.current(resource)
}

// SetIfCurrent upserts env unless resource was invalidated after gen was
// read. An invalidation that lands during the upsert deletes the row again.
func (p *Postgres) SetIfCurrent(ctx context.Context, key, resource string, gen uint64, env console.Envelope) bool {
	if p.gens.current(resource) != gen {
		return false
	}
	p.Set(ctx, key, resource, env)
	if p.gens.current(resource) != gen {
		if _, err := p.pool.Exec(ctx, `DELETE FROM mcp_result_cache WHERE cache_key = $1`, key); err != nil {
			slog.Warn(fmt.Sprintf("%s - Dropping stale %s failed: %v", pgLogPrefix, key, err))
		}
		return false
	}
	return true
}

// InvalidateResource deletes every row tagged with resource.
func (p *Postgres) InvalidateResource(ctx context.Context, resource string) int {
	p.gens.bump(resource)
	tag, err := p.pool.Exec(ctx, `DELETE FROM mcp_result_cache WHERE resource = $1`, resource)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - Invalidate %s failed: %v", pgLogPrefix, resource, err))
		return 0
	}
	return int(tag.RowsAffected())
}

// Sweep deletes expired rows.
func (p *Postgres) Sweep(ctx context.Context) (int, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM mcp_result_cache WHERE expires_at < $1`, p.now())
	if err != nil {
		return 0, fmt.Errorf("%s - sweep: %w", pgLogPrefix, err)
	}
	return int(tag.RowsAffected()), nil
}

// operationOf recovers the operation name from a key built by Key.
func operationOf(key string) string {
	op, _, _ := strings.Cut(key, "|")
	return op
}
