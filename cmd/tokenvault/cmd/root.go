package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/jmcleod/tokenvault/internal/config"
)

var (
	cfg    *config.Config
	logger *slog.Logger

	dataDir     string
	logLevel    string
	logFormat   string
	sessionFile string
	origin      string
	backendURL  string
	tokenTTL    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "tokenvault",
	Short: "tokenvault keeps console credentials encrypted at rest",
	Long: `A per-device vault for console session tokens and cloud-provider API tokens.
Tokens are encrypted under a key derived from a per-session secret and this
device's fingerprint, validated on every read, and discarded when they fail.

Settings come from TOKENVAULT_* environment variables; flags override them.
Set TOKENVAULT_SESSION_FILE (or --session-file) to share one session across
separate CLI invocations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		applyFlags(cmd, c)
		if err := c.Validate(); err != nil {
			return err
		}

		l, err := newLogger(c, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		cfg = c
		logger = l
		slog.SetDefault(l)
		return nil
	},
}

// Execute runs the root command and purges guarded memory before exiting.
func Execute() {
	err := rootCmd.Execute()
	memguard.Purge()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data-dir", "", "Directory for persistent data (TOKENVAULT_DATA_DIR)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (TOKENVAULT_LOG_LEVEL)")
	pf.StringVar(&logFormat, "log-format", "", "Log format: json or text (TOKENVAULT_LOG_FORMAT)")
	pf.StringVar(&sessionFile, "session-file", "", "File holding the session secret (TOKENVAULT_SESSION_FILE)")
	pf.StringVar(&origin, "origin", "", "Console origin URL (TOKENVAULT_CONSOLE_ORIGIN)")
	pf.StringVar(&backendURL, "backend", "", "Console backend URL (TOKENVAULT_BACKEND_URL)")
	pf.DurationVar(&tokenTTL, "token-ttl", 0, "Lifetime of stored tokens (TOKENVAULT_TOKEN_TTL)")
}

// applyFlags overrides environment settings with explicitly set flags.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		c.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		c.LogFormat = logFormat
	}
	if flags.Changed("session-file") {
		c.SessionFile = sessionFile
	}
	if flags.Changed("origin") {
		c.ConsoleOrigin = origin
	}
	if flags.Changed("backend") {
		c.BackendURL = backendURL
	}
	if flags.Changed("token-ttl") {
		c.TokenTTL = tokenTTL
	}
}

func newLogger(c *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := c.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch c.LogFormat {
	case "", "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", c.LogFormat)
	}
}
