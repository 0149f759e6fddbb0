// Package main is the entrypoint for statsig-mcp.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/statsig-mcp/internal/config"
	"github.com/morezero/statsig-mcp/internal/server"
	"github.com/morezero/statsig-mcp/pkg/cache"
	"github.com/morezero/statsig-mcp/pkg/console"
	"github.com/morezero/statsig-mcp/pkg/db"
	"github.com/morezero/statsig-mcp/pkg/dispatcher"
	"github.com/morezero/statsig-mcp/pkg/registry"
)

const usage = `Usage: statsig-mcp [command]
       statsig-mcp serve              Start the MCP server (stdio or http), the HTTP surface and NATS tools.
       statsig-mcp tools              Print the tool catalog as JSON.
       statsig-mcp migrate up         Create the postgres result cache table.
       statsig-mcp migrate status     Show migration status.
       statsig-mcp cache sweep        Delete expired entries from the postgres result cache.
       statsig-mcp ensure-db [name]   Create the database if missing (default: name in DATABASE_URL).

Commands:
  serve           (default) Start statsig-mcp.
  tools           Print every tool, its parameters and annotations.
  migrate up      Run database migrations only.
  migrate status  Show current migration status.
  cache sweep     Remove expired cached results.
  ensure-db       Create the database on the same host as DATABASE_URL.

Environment: STATSIG_CONSOLE_API_KEY (required for serve), STATSIG_SERVER_SECRET_KEY,
MCP_TRANSPORT (stdio|http), HTTP_PORT, CACHE_BACKEND (memory|postgres), DATABASE_URL,
COMMS_URL, STATSIG_ENV_FILE.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "tools":
		if err := runTools(os.Stdout); err != nil {
			log.Fatalf("statsig-mcp tools: %v", err)
		}
		return
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("statsig-mcp migrate: require subcommand (up, status)")
		}
		switch sub := args[1]; sub {
		case "up":
			if err := runMigrateUp(); err != nil {
				log.Fatalf("statsig-mcp migrate up: %v", err)
			}
		case "status":
			if err := runMigrateStatus(); err != nil {
				log.Fatalf("statsig-mcp migrate status: %v", err)
			}
		default:
			log.Fatalf("statsig-mcp migrate: unknown subcommand %q (use up, status)", sub)
		}
		return
	case "cache":
		if len(args) < 2 || args[1] != "sweep" {
			log.Fatalf("statsig-mcp cache: require subcommand sweep")
		}
		if err := runCacheSweep(); err != nil {
			log.Fatalf("statsig-mcp cache sweep: %v", err)
		}
		return
	case "ensure-db":
		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		if err := runEnsureDB(name); err != nil {
			log.Fatalf("statsig-mcp ensure-db: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("statsig-mcp: %v", err)
	}
}

// catalogAPIKey stands in for a missing key: listing tools sends no requests.
const catalogAPIKey = "catalog-only"

func runTools(w io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	clientCfg := cfg.Client()
	if clientCfg.APIKey == "" {
		clientCfg.APIKey = catalogAPIKey
	}
	client, err := console.NewClient(clientCfg)
	if err != nil {
		return err
	}
	reg, err := registry.NewCatalog(client)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"version": dispatcher.ToolsetVersion,
		"tools":   reg.DescribeAll(),
	})
}

func runMigrateUp() error {
	return withDB(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		migrations, err := db.Migrations()
		if err != nil {
			return fmt.Errorf("load migrations: %w", err)
		}
		applied, err := db.RunMigrations(ctx, pool, migrations)
		if err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		fmt.Printf("Applied %d migrations.\n", len(applied))
		return nil
	})
}

func runMigrateStatus() error {
	return withDB(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		migrations, err := db.Migrations()
		if err != nil {
			return fmt.Errorf("load migrations: %w", err)
		}
		return db.MigrationStatus(ctx, pool, migrations, os.Stdout)
	})
}

func runCacheSweep() error {
	return withDB(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		n, err := cache.NewPostgres(pool, cfg.CacheTTL).Sweep(ctx)
		if err != nil {
			return fmt.Errorf("sweep cache: %w", err)
		}
		fmt.Printf("Removed %d expired entries.\n", n)
		return nil
	})
}

// withDB loads and validates the database config, connects, and runs fn.
func withDB(fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	return fn(ctx, cfg, pool)
}

func runEnsureDB(name string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	created, err := db.EnsureDatabase(context.Background(), cfg.DatabaseURL, name)
	if err != nil {
		return err
	}
	fmt.Printf("Database %q is ready.\n", created)
	return nil
}
