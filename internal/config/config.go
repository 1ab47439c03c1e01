// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"

	"github.com/ggoodman/open-meteo-mcp/cache"
	"github.com/ggoodman/open-meteo-mcp/openmeteo"
)

// Transport names accepted by MCP_TRANSPORT.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config is the complete process configuration. Defaults are provided via
// struct tags.
type Config struct {
	openmeteo.BaseURLs
	Cache cache.Config

	UpstreamTimeout    time.Duration `env:"OPEN_METEO_TIMEOUT,default=30s"`
	UpstreamMaxRetries uint          `env:"OPEN_METEO_MAX_RETRIES,default=2"`
	// UpstreamRateLimit is in requests per second; 0 disables limiting.
	UpstreamRateLimit float64 `env:"OPEN_METEO_RATE_LIMIT,default=10"`

	Transport            string        `env:"MCP_TRANSPORT,default=stdio"`
	Host                 string        `env:"MCP_HOST,default=127.0.0.1"`
	Port                 int           `env:"MCP_PORT,default=3000"`
	SessionIdleTTL       time.Duration `env:"MCP_SESSION_IDLE_TTL,default=1h"`
	MaxSessions          int           `env:"MCP_MAX_SESSIONS,default=100"`
	SessionSweepInterval time.Duration `env:"MCP_SESSION_SWEEP_INTERVAL,default=5m"`
	JSONResponse         bool          `env:"MCP_JSON_RESPONSE,default=false"`
	// AllowedOrigins is a ';' separated list. Empty disables CORS.
	AllowedOrigins string `env:"MCP_ALLOWED_ORIGINS"`
	MetricsEnabled bool   `env:"MCP_METRICS_ENABLED,default=true"`
	// Instructions is returned to clients by initialize when set.
	Instructions string `env:"MCP_INSTRUCTIONS"`
	// EnabledTools is a ';' separated allow-list. Empty serves every tool.
	EnabledTools string `env:"MCP_TOOLS"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`
}

// Load decodes the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: decode env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports configuration errors.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("config: unknown transport %q (want %s or %s)", c.Transport, TransportStdio, TransportHTTP)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: port must be in 1..65535, got %d", c.Port)
	}
	if c.MaxSessions <= 0 {
		return fmt.Errorf("config: max sessions must be positive, got %d", c.MaxSessions)
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("config: session idle ttl must be positive, got %s", c.SessionIdleTTL)
	}
	if c.SessionSweepInterval <= 0 {
		return fmt.Errorf("config: session sweep interval must be positive, got %s", c.SessionSweepInterval)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("config: upstream timeout must be positive, got %s", c.UpstreamTimeout)
	}
	if c.UpstreamRateLimit < 0 {
		return fmt.Errorf("config: upstream rate limit must not be negative, got %v", c.UpstreamRateLimit)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Origins splits AllowedOrigins, dropping empty entries.
func (c *Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

// ToolNames splits EnabledTools, dropping empty entries.
func (c *Config) ToolNames() []string {
	return splitList(c.EnabledTools)
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ";") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q", c.LogLevel)
	}
	return lvl, nil
}
