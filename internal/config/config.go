// Package config loads tokenvault settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable name.
const Prefix = "TOKENVAULT"

// Config holds all settings. Every field can be overridden by a CLI flag.
type Config struct {
	DataDir       string        `envconfig:"DATA_DIR" default:"./data"`
	ListenAddr    string        `envconfig:"LISTEN_ADDR" default:"127.0.0.1:8470"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat     string        `envconfig:"LOG_FORMAT" default:"json"`
	TokenTTL      time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"5m"`

	// ConsoleOrigin is the origin the console is served from. It scopes the
	// cookies EmergencyWipe expires and is the default audit target.
	ConsoleOrigin string `envconfig:"CONSOLE_ORIGIN" default:"http://localhost:3000"`

	// BackendURL is the console backend that authenticated calls go to.
	BackendURL string `envconfig:"BACKEND_URL" default:"http://localhost:8080"`

	// SessionFile, when set, keeps the per-session secret in a file so that
	// separate CLI invocations share one session. Empty means process memory.
	SessionFile string `envconfig:"SESSION_FILE"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive, got %s", c.TokenTTL)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval)
	}
	if _, err := c.Origin(); err != nil {
		return err
	}
	if _, err := c.Backend(); err != nil {
		return err
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// DatabasePath is the bbolt file that backs durable storage.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "tokenvault.db")
}

// Origin parses ConsoleOrigin.
func (c *Config) Origin() (*url.URL, error) {
	u, err := url.Parse(c.ConsoleOrigin)
	if err != nil {
		return nil, fmt.Errorf("parsing console origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("console origin %q must include scheme and host", c.ConsoleOrigin)
	}
	return u, nil
}

// Backend parses BackendURL.
func (c *Config) Backend() (*url.URL, error) {
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return nil, fmt.Errorf("parsing backend URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend URL %q must include scheme and host", c.BackendURL)
	}
	return u, nil
}

// SlogLevel maps LogLevel onto a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
}
