// Package server orchestrates all components: upstream client, tool catalog,
// result cache, dispatcher, MCP transport, NATS transport, and HTTP surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	mcpserver "github.com/mark3labs/mcp-go/server"
	comms "github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"

	"github.com/morezero/statsig-mcp/internal/config"
	"github.com/morezero/statsig-mcp/internal/mcpbridge"
	"github.com/morezero/statsig-mcp/internal/observe"
	"github.com/morezero/statsig-mcp/pkg/cache"
	"github.com/morezero/statsig-mcp/pkg/commsutil"
	"github.com/morezero/statsig-mcp/pkg/console"
	"github.com/morezero/statsig-mcp/pkg/db"
	"github.com/morezero/statsig-mcp/pkg/dispatcher"
	"github.com/morezero/statsig-mcp/pkg/events"
	"github.com/morezero/statsig-mcp/pkg/registry"
	"github.com/morezero/statsig-mcp/pkg/transport"
)

const logPrefix = "server:server"

// drainTimeout bounds how long shutdown waits for in-flight NATS requests.
const drainTimeout = 10 * time.Second

// Server is the statsig-mcp orchestrator.
type Server struct {
	cfg        *config.Config
	client     *console.Client
	disp       *dispatcher.Dispatcher
	cache      cache.Cache
	pool       *pgxpool.Pool
	nc         *comms.Conn
	subs       []*comms.Subscription
	inflight   sync.WaitGroup
	mcp        *mcpserver.MCPServer
	metrics    *observe.Metrics
	httpServer *http.Server
	listener   net.Listener
}

// Options carries dependencies New would otherwise create itself.
type Options struct {
	// Metrics receives tool, cache, upstream and HTTP measurements. Nil disables them.
	Metrics *observe.Metrics
}

// Run loads configuration, starts the server, blocks until a shutdown signal
// or the end of the stdio session, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}
	setupLogging(cfg, os.Stderr)

	slog.Info(fmt.Sprintf("%s - Starting statsig-mcp (transport=%s, environment=%s)", logPrefix, cfg.MCPTransport, cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, shutdownMetrics, err := observe.InitProvider(ctx)
	if err != nil {
		return fmt.Errorf("%s - failed to init metrics: %w", logPrefix, err)
	}
	defer shutdownMetrics(context.Background())
	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("%s - failed to create metrics: %w", logPrefix, err)
	}

	s, err := New(ctx, cfg, Options{Metrics: metrics})
	if err != nil {
		return err
	}
	defer s.Close()

	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// LogLevel maps the configured level and flags to a slog level. Disabled
// logging returns a level above error.
func LogLevel(cfg *config.Config) slog.Level {
	if cfg.DisableLogging {
		return slog.LevelError + 4
	}
	if cfg.Debug {
		return slog.LevelDebug
	}
	switch cfg.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogging installs the default text logger on w. Stdout is never used:
// it carries the stdio MCP stream.
func setupLogging(cfg *config.Config, w io.Writer) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: LogLevel(cfg)})))
}

// New builds every component from cfg. It connects to Postgres and NATS when
// configured; Close releases them.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Server, error) {
	s := &Server{cfg: cfg, metrics: opts.Metrics}

	// Step 1: Upstream client
	var extra []transport.Option
	if s.metrics != nil {
		extra = append(extra, transport.WithRequestHook(s.metrics.RecordUpstream))
	}
	client, err := console.NewClient(cfg.Client(), extra...)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create upstream client: %w", logPrefix, err)
	}
	s.client = client

	// Step 2: Tool catalog
	reg, err := registry.NewCatalog(client)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to build tool catalog: %w", logPrefix, err)
	}

	// Step 3: Result cache
	if err := s.setupCache(ctx); err != nil {
		return nil, err
	}

	// Step 4: NATS connection and change publisher
	var publisher events.EventPublisher = &events.NoOpPublisher{}
	if cfg.COMMSURL != "" {
		nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
		}
		s.nc = nc
		publisher = events.NewCommsPublisher(nc, &events.CommsPublisherOpts{GlobalChangeSubject: cfg.ChangeEventSubject})
	}

	// Step 5: Dispatcher
	dopts := dispatcher.Options{
		Cache:       s.cache,
		Dedupe:      cfg.CacheDedupe,
		Publisher:   publisher,
		Environment: client.Environment(),
	}
	if s.metrics != nil {
		dopts.Metrics = s.metrics
	}
	s.disp = dispatcher.New(reg, dopts)

	// Step 6: MCP server and NATS subscriptions
	s.mcp = mcpbridge.NewServer(cfg.COMMSName, dispatcher.ToolsetVersion, s.disp)
	if s.nc != nil {
		if err := s.subscribe(ctx); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Server) setupCache(ctx context.Context) error {
	if !s.cfg.CacheEnabled {
		slog.Info(fmt.Sprintf("%s - Result cache disabled", logPrefix))
		return nil
	}
	if !s.cfg.UsesPostgres() {
		s.cache = cache.NewMemory(s.cfg.CacheTTL)
		slog.Info(fmt.Sprintf("%s - Result cache: memory (ttl=%s)", logPrefix, s.cfg.CacheTTL))
		return nil
	}

	pool, err := db.NewPool(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
	}
	s.pool = pool

	if s.cfg.RunMigrations {
		migrations, err := db.Migrations()
		if err != nil {
			pool.Close()
			return fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
		}
		applied, err := db.RunMigrations(ctx, pool, migrations)
		if err != nil {
			pool.Close()
			return fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
		}
		slog.Info(fmt.Sprintf("%s - Applied %d migrations", logPrefix, len(applied)))
	}
	s.cache = cache.NewPostgres(pool, s.cfg.CacheTTL)
	slog.Info(fmt.Sprintf("%s - Result cache: postgres (ttl=%s)", logPrefix, s.cfg.CacheTTL))
	return nil
}

// Dispatcher returns the dispatcher serving every transport.
func (s *Server) Dispatcher() *dispatcher.Dispatcher { return s.disp }

// Serve starts the HTTP surface and the cache janitor, then runs the MCP
// transport: the stdio session over in/out until it ends, or the HTTP
// endpoint until ctx is done.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	if s.cache != nil {
		go cache.Janitor(ctx, s.cache, s.cfg.CacheTTL)
	}

	if err := s.startHTTP(); err != nil {
		if s.cfg.MCPTransport == config.TransportHTTP {
			return err
		}
		// The stdio session does not need the listener.
		slog.Error(fmt.Sprintf("%s - HTTP surface unavailable: %v", logPrefix, err))
	}

	slog.Info(fmt.Sprintf("%s - statsig-mcp is ready (%d tools)", logPrefix, s.disp.Registry().Len()))

	if s.cfg.MCPTransport == config.TransportStdio {
		err := mcpbridge.ServeStdio(ctx, s.mcp, in, out)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%s - stdio session failed: %w", logPrefix, err)
		}
		slog.Info(fmt.Sprintf("%s - stdio session ended, shutting down", logPrefix))
		return nil
	}

	<-ctx.Done()
	slog.Info(fmt.Sprintf("%s - Shutdown requested", logPrefix))
	return nil
}

func (s *Server) startHTTP() error {
	addr := fmt.Sprintf(":%d", s.cfg.HTTPPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%s - failed to listen on %s: %w", logPrefix, addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP server listening on %s", logPrefix, ln.Addr()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()
	return nil
}

// Close stops accepting work and releases every connection. Safe to call more than once.
func (s *Server) Close() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
	s.inflight.Wait()

	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		s.httpServer.Shutdown(shutdownCtx)
		cancel()
		s.httpServer = nil
	}
	if s.nc != nil {
		commsutil.Drain(s.nc, drainTimeout)
		s.nc = nil
	}
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
}
