// Package config provides server configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/morezero/statsig-mcp/pkg/console"
)

const logPrefix = "config:LoadConfig"

// Cache backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// MCP transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds statsig-mcp configuration.
type Config struct {
	// Upstream
	APIKey          string `envconfig:"STATSIG_CONSOLE_API_KEY"`
	BaseURL         string `envconfig:"STATSIG_API_BASE_URL" default:"https://statsigapi.net"`
	APIVersion      string `envconfig:"STATSIG_API_VERSION" default:"20240601"`
	Environment     string `envconfig:"STATSIG_ENVIRONMENT" default:"development"`
	APITimeoutMs    int    `envconfig:"STATSIG_API_TIMEOUT" default:"3000"`
	RetryCount      int    `envconfig:"STATSIG_RETRY_COUNT" default:"0"`
	DisableLogging  bool   `envconfig:"STATSIG_DISABLE_LOGGING" default:"false"`
	Debug           bool   `envconfig:"STATSIG_DEBUG" default:"false"`
	ServerSecretKey string `envconfig:"STATSIG_SERVER_SECRET_KEY"`
	HTTPAPIURL      string `envconfig:"STATSIG_HTTP_API_URL" default:"https://api.statsig.com"`
	EventsAPIURL    string `envconfig:"STATSIG_EVENTS_API_URL" default:"https://events.statsigapi.net"`

	// Result cache
	CacheEnabled bool          `envconfig:"CACHE_ENABLED" default:"true"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"60s"`
	CacheBackend string        `envconfig:"CACHE_BACKEND" default:"memory"`
	CacheDedupe  bool          `envconfig:"CACHE_DEDUPE" default:"false"`

	// Database (postgres cache backend only)
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`

	// MCP transport and HTTP surface
	MCPTransport       string        `envconfig:"MCP_TRANSPORT" default:"stdio"`
	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8080"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// COMMS: NATS tool transport, disabled when COMMSURL is empty.
	COMMSURL           string        `envconfig:"COMMS_URL"`
	COMMSName          string        `envconfig:"SERVICE_NAME" default:"statsig-mcp"`
	ToolsSubject       string        `envconfig:"TOOLS_SUBJECT"`
	ChangeEventSubject string        `envconfig:"CHANGE_EVENT_SUBJECT"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"25s"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// ConfigurationError is a fatal start-up error naming the offending variable.
type ConfigurationError struct {
	Var    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s - %s %s", logPrefix, e.Var, e.Reason)
}

// EnvFileVar names the variable selecting the dotenv file.
const EnvFileVar = "STATSIG_ENV_FILE"

// LoadConfig loads an optional dotenv file, then configuration from environment
// variables. Variables already set in the environment win over the file.
func LoadConfig() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadEnvFile() error {
	path := os.Getenv(EnvFileVar)
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("%s - failed to load %s: %w", logPrefix, path, err)
}

// ValidateForServe checks required config when running the server.
func (c *Config) ValidateForServe() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return &ConfigurationError{Var: "STATSIG_CONSOLE_API_KEY", Reason: "is required"}
	}
	if c.APITimeoutMs <= 0 {
		return &ConfigurationError{Var: "STATSIG_API_TIMEOUT", Reason: "must be positive"}
	}
	if c.RetryCount < 0 {
		return &ConfigurationError{Var: "STATSIG_RETRY_COUNT", Reason: "must not be negative"}
	}
	switch c.CacheBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.CacheEnabled && c.DatabaseURL == "" {
			return &ConfigurationError{Var: "DATABASE_URL", Reason: "is required for the postgres cache backend"}
		}
	default:
		return &ConfigurationError{Var: "CACHE_BACKEND", Reason: fmt.Sprintf("must be %s or %s (got %q)", BackendMemory, BackendPostgres, c.CacheBackend)}
	}
	if c.CacheEnabled && c.CacheTTL <= 0 {
		return &ConfigurationError{Var: "CACHE_TTL", Reason: "must be positive"}
	}
	switch c.MCPTransport {
	case TransportStdio, TransportHTTP:
	default:
		return &ConfigurationError{Var: "MCP_TRANSPORT", Reason: fmt.Sprintf("must be %s or %s (got %q)", TransportStdio, TransportHTTP, c.MCPTransport)}
	}
	if c.RequestTimeout <= 0 {
		return &ConfigurationError{Var: "REQUEST_TIMEOUT", Reason: "must be positive"}
	}
	if c.HealthCheckTimeout <= 0 {
		return &ConfigurationError{Var: "HEALTH_CHECK_TIMEOUT", Reason: "must be positive"}
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate, ensure-db).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return &ConfigurationError{Var: "DATABASE_URL", Reason: "is required"}
	}
	return nil
}

// UsesPostgres reports whether the result cache lives in Postgres.
func (c *Config) UsesPostgres() bool {
	return c.CacheEnabled && c.CacheBackend == BackendPostgres
}

// APITimeout is the per-call upstream timeout.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutMs) * time.Millisecond
}

// Client derives the upstream client configuration.
func (c *Config) Client() console.Config {
	return console.Config{
		APIKey:         c.APIKey,
		BaseURL:        c.BaseURL,
		APIVersion:     c.APIVersion,
		Environment:    c.Environment,
		Timeout:        c.APITimeout(),
		RetryCount:     c.RetryCount,
		DisableLogging: c.DisableLogging,
		Debug:          c.Debug,
		ServerSecret:   c.ServerSecretKey,
		HTTPAPIURL:     c.HTTPAPIURL,
		EventsAPIURL:   c.EventsAPIURL,
	}
}
