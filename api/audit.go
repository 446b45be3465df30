package api

import (
	"log/slog"
	"net/http"
	"time"
)

// AuditEvent identifies the type of security-relevant action being logged.
type AuditEvent string

const (
	AuditTokenStored       AuditEvent = "token_stored"
	AuditTokenRemoved      AuditEvent = "token_removed"
	AuditTokensCleared     AuditEvent = "tokens_cleared"
	AuditSecurityAudit     AuditEvent = "security_audit"
	AuditEmergencyWipe     AuditEvent = "emergency_wipe"
	AuditProviderEncrypted AuditEvent = "provider_token_encrypted"
	AuditProviderDecrypted AuditEvent = "provider_token_decrypted"
	AuditDecryptFailure    AuditEvent = "provider_token_decrypt_failure"
	AuditDecryptLimited    AuditEvent = "provider_token_decrypt_rate_limited"
)

// auditLogger wraps slog.Logger for structured security audit logging.
// Token values never reach it.
type auditLogger struct {
	logger *slog.Logger
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

// log writes a structured audit log entry.
func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	al.write(slog.LevelInfo, event, r, attrs...)
}

// logFailure logs a refused or failed operation.
func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, reason string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("reason", reason),
	}
	attrs = append(attrs, extra...)
	al.write(slog.LevelWarn, event, r, attrs...)
}

func (al *auditLogger) write(level slog.Level, event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	baseAttrs = append(baseAttrs, attrs...)
	al.logger.LogAttrs(r.Context(), level, "audit", baseAttrs...)
}
