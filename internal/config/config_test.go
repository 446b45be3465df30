package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data", c.DataDir)
	assert.Equal(t, 24*time.Hour, c.TokenTTL)
	assert.Equal(t, 5*time.Minute, c.SweepInterval)
	assert.Equal(t, "127.0.0.1:8470", c.ListenAddr)
	assert.Empty(t, c.SessionFile)

	u, err := c.Backend()
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", u.Host)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("TOKENVAULT_DATA_DIR", "/var/lib/tokenvault")
	t.Setenv("TOKENVAULT_TOKEN_TTL", "1h")
	t.Setenv("TOKENVAULT_SWEEP_INTERVAL", "30s")
	t.Setenv("TOKENVAULT_LOG_LEVEL", "debug")
	t.Setenv("TOKENVAULT_CONSOLE_ORIGIN", "https://console.example.com")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/tokenvault", c.DataDir)
	assert.Equal(t, "/var/lib/tokenvault/tokenvault.db", c.DatabasePath())
	assert.Equal(t, time.Hour, c.TokenTTL)
	assert.Equal(t, 30*time.Second, c.SweepInterval)

	lvl, err := c.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	u, err := c.Origin()
	require.NoError(t, err)
	assert.Equal(t, "console.example.com", u.Host)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("TOKENVAULT_TOKEN_TTL", "forever")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			TokenTTL:      time.Hour,
			SweepInterval: time.Minute,
			ConsoleOrigin: "http://localhost:3000",
			BackendURL:    "http://localhost:8080",
			LogLevel:      "info",
		}
	}

	c := base()
	assert.NoError(t, c.Validate())

	c = base()
	c.TokenTTL = 0
	assert.Error(t, c.Validate())

	c = base()
	c.SweepInterval = -time.Second
	assert.Error(t, c.Validate())

	c = base()
	c.ConsoleOrigin = "localhost"
	assert.Error(t, c.Validate())

	c = base()
	c.BackendURL = "/relative"
	assert.Error(t, c.Validate())

	c = base()
	c.LogLevel = "loud"
	assert.Error(t, c.Validate())
}
