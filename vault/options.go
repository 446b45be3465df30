package vault

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jmcleod/tokenvault/internal/metrics"
)

const (
	// DefaultTokenTTL is the lifetime given to every stored token.
	DefaultTokenTTL = 24 * time.Hour
	// DefaultSweepInterval is how often the background integrity sweep runs.
	DefaultSweepInterval = 5 * time.Minute
	// DefaultUnrelatedStorageLimit is the number of bytes of non-vault data in
	// durable storage above which the security audit raises an issue.
	DefaultUnrelatedStorageLimit = 1 << 20
)

// Option configures a Vault.
type Option func(*Vault)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) {
		v.logger = logger
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) {
		v.now = now
	}
}

// WithTokenTTL sets the lifetime of stored tokens. It applies to the whole
// vault; individual StoreToken calls cannot override it.
func WithTokenTTL(ttl time.Duration) Option {
	return func(v *Vault) {
		v.ttl = ttl
	}
}

// WithSweepInterval sets the background sweep interval. Zero or negative
// disables the sweep goroutine; reads still validate lazily.
func WithSweepInterval(d time.Duration) Option {
	return func(v *Vault) {
		v.sweepInterval = d
	}
}

// WithMetrics records vault activity on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Vault) {
		v.metrics = m
	}
}

// WithCookieJar lets EmergencyWipe expire the cookies jar holds for origin.
// origin is also the default target of PerformSecurityAudit.
func WithCookieJar(jar http.CookieJar, origin *url.URL) Option {
	return func(v *Vault) {
		v.jar = jar
		v.origin = origin
	}
}

// WithOrigin sets the console origin without a cookie jar.
func WithOrigin(origin *url.URL) Option {
	return func(v *Vault) {
		v.origin = origin
	}
}

// WithUnrelatedStorageLimit sets the audit threshold for non-vault data in
// durable storage.
func WithUnrelatedStorageLimit(bytes int) Option {
	return func(v *Vault) {
		v.unrelatedLimit = bytes
	}
}
