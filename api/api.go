// Package api exposes the token vault to local tooling over HTTP. Plaintext
// session tokens are accepted but never returned.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/jmcleod/tokenvault/vault"
)

// Vault is the subset of *vault.Vault the handlers need.
type Vault interface {
	StoreToken(slot vault.Slot, plaintext string) error
	RemoveToken(slot vault.Slot)
	ClearAllTokens()
	Tokens() []vault.TokenInfo
	PerformSecurityAudit(ac vault.AuditContext) vault.AuditReport
	EmergencyWipe()
	EncryptDOToken(plaintext string, opts ...vault.TransportOption) (string, error)
	DecryptDOToken(ciphertext string, opts ...vault.TransportOption) (string, error)
}

// API holds the dependencies needed by the REST handlers.
type API struct {
	vault          Vault
	transportKey   []byte
	decryptLimiter *decryptRateLimiter
	audit          *auditLogger
}

//go:embed openapi.yaml
var openapiSpec []byte

// maxBodyBytes bounds request bodies. Tokens are capped well below this.
const maxBodyBytes = 64 << 10

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for audit events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.audit = newAuditLogger(logger)
	}
}

// WithTransportKey makes the provider-token endpoints encrypt under a key
// shared with the backend instead of the vault key.
func WithTransportKey(key []byte) Option {
	return func(a *API) {
		a.transportKey = key
	}
}

// New creates a new API instance.
func New(v Vault, opts ...Option) *API {
	a := &API{
		vault:          v,
		decryptLimiter: newDecryptRateLimiter(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.audit == nil {
		a.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(SecurityHeaders)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/redoc",
	}, nil))

	r.Group(func(r chi.Router) {
		r.Use(a.CSRFMiddleware)

		r.Get("/tokens", a.ListTokens)
		r.Delete("/tokens", a.ClearTokens)
		r.Put("/tokens/{slot}", a.PutToken)
		r.Delete("/tokens/{slot}", a.DeleteToken)

		r.Get("/audit", a.SecurityAudit)
		r.Post("/wipe", a.EmergencyWipe)

		r.Post("/provider-token/validate", a.ValidateProviderToken)
		r.Post("/provider-token/encrypt", a.EncryptProviderToken)
		r.Post("/provider-token/decrypt", a.DecryptProviderToken)
	})

	return r
}

func (a *API) transportOpts() []vault.TransportOption {
	if a.transportKey == nil {
		return nil
	}
	return []vault.TransportOption{vault.WithTransportKey(a.transportKey)}
}

// SweepRateLimits drops expired rate-limit records. Call periodically.
func (a *API) SweepRateLimits() {
	a.decryptLimiter.sweep()
}
