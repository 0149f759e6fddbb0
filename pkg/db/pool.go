// Package db provides the Postgres connection pool and schema migrations
// backing the shared result cache.
package db

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

const logPrefix = "db:pool"

// Pool sizes for the result cache. The cache issues short single-row
// statements, so a small pool suffices.
const (
	defaultMaxConns = 10
	defaultMinConns = 1
)

// NewPool creates a pgx connection pool from databaseURL and verifies connectivity.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	slog.Info(fmt.Sprintf("%s - Connecting to database", logPrefix))

	config, err := poolConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create pool: %w", logPrefix, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s - failed to ping database: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Database connection established (max_conns=%d)", logPrefix, config.MaxConns))
	return pool, nil
}

// poolConfig parses databaseURL and applies the cache pool sizes unless the
// URL sets pool_max_conns or pool_min_conns itself.
func poolConfig(databaseURL string) (*pgxpool.Config, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("%s - database URL is empty", logPrefix)
	}
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to parse database URL: %w", logPrefix, err)
	}
	if !strings.Contains(databaseURL, "pool_max_conns") {
		config.MaxConns = defaultMaxConns
	}
	if !strings.Contains(databaseURL, "pool_min_conns") {
		config.MinConns = defaultMinConns
	}
	return config, nil
}

const createMigrationTable = `CREATE TABLE IF NOT EXISTS mcp_schema_migrations (
    name       TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// RunMigrations applies every migration not yet recorded in
// mcp_schema_migrations, each in its own transaction. It returns the names applied.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, migrations []Migration) ([]string, error) {
	if _, err := pool.Exec(ctx, createMigrationTable); err != nil {
		return nil, fmt.Errorf("%s - failed to create migration table: %w", logPrefix, err)
	}
	applied, err := appliedMigrations(ctx, pool)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, m := range migrations {
		if applied[m.Name] {
			continue
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return ran, fmt.Errorf("%s - begin %s: %w", logPrefix, m.Name, err)
		}
		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			tx.Rollback(ctx)
			return ran, fmt.Errorf("%s - migration %s failed: %w", logPrefix, m.Name, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO mcp_schema_migrations (name) VALUES ($1)`, m.Name); err != nil {
			tx.Rollback(ctx)
			return ran, fmt.Errorf("%s - record %s: %w", logPrefix, m.Name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return ran, fmt.Errorf("%s - commit %s: %w", logPrefix, m.Name, err)
		}
		slog.Info(fmt.Sprintf("%s - Applied migration %s", logPrefix, m.Name))
		ran = append(ran, m.Name)
	}

	slog.Info(fmt.Sprintf("%s - Migrations complete (%d applied, %d total)", logPrefix, len(ran), len(migrations)))
	return ran, nil
}

func appliedMigrations(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, `SELECT name FROM mcp_schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to list applied migrations: %w", logPrefix, err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%s - scan migration name: %w", logPrefix, err)
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

// MigrationStatus writes one line per migration to w, marking which are applied.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool, migrations []Migration, w io.Writer) error {
	const statusLogPrefix = "db:MigrationStatus"

	if _, err := pool.Exec(ctx, createMigrationTable); err != nil {
		return fmt.Errorf("%s - failed to create migration table: %w", statusLogPrefix, err)
	}
	applied, err := appliedMigrations(ctx, pool)
	if err != nil {
		return fmt.Errorf("%s - %w", statusLogPrefix, err)
	}
	return writeStatus(w, migrations, applied)
}

func writeStatus(w io.Writer, migrations []Migration, applied map[string]bool) error {
	pending := 0
	for _, m := range migrations {
		state := "applied"
		if !applied[m.Name] {
			state = "pending"
			pending++
		}
		if _, err := fmt.Fprintf(w, "%-8s %s\n", state, m.Name); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d migrations, %d pending\n", len(migrations), pending)
	return err
}
