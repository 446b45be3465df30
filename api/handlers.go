package api

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/jmcleod/tokenvault/dotoken"
	"github.com/jmcleod/tokenvault/vault"
)

// ListTokens returns metadata for every stored token.
func (a *API) ListTokens(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ListTokensResponse{Tokens: a.vault.Tokens()})
}

// PutToken stores a session token in the slot named by the URL.
func (a *API) PutToken(w http.ResponseWriter, r *http.Request) {
	slot := vault.Slot(chi.URLParam(r, "slot"))
	if !slot.Known() {
		writeError(w, http.StatusNotFound, "unknown token slot")
		return
	}

	var req StoreTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.vault.StoreToken(slot, req.Token); err != nil {
		mapError(w, err)
		return
	}

	resp := StoreTokenResponse{Slot: slot}
	for _, info := range a.vault.Tokens() {
		if info.Slot == slot {
			resp.ExpiresAt = info.ExpiresAt
		}
	}
	a.audit.log(AuditTokenStored, r, slog.String("slot", string(slot)))
	writeJSON(w, http.StatusOK, resp)
}

// DeleteToken removes one slot. Removing an empty slot succeeds.
func (a *API) DeleteToken(w http.ResponseWriter, r *http.Request) {
	slot := vault.Slot(chi.URLParam(r, "slot"))
	if !slot.Known() {
		writeError(w, http.StatusNotFound, "unknown token slot")
		return
	}
	a.vault.RemoveToken(slot)
	a.audit.log(AuditTokenRemoved, r, slog.String("slot", string(slot)))
	w.WriteHeader(http.StatusNoContent)
}

// ClearTokens removes every slot.
func (a *API) ClearTokens(w http.ResponseWriter, r *http.Request) {
	a.vault.ClearAllTokens()
	a.audit.log(AuditTokensCleared, r)
	w.WriteHeader(http.StatusNoContent)
}

// SecurityAudit runs the vault's security audit. The audited origin comes
// from the origin query parameter, then the Origin header, then the vault's
// configured default.
func (a *API) SecurityAudit(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("origin")
	if raw == "" {
		raw = r.Header.Get("Origin")
	}

	var ac vault.AuditContext
	if raw != "" {
		origin, err := url.Parse(raw)
		if err != nil || origin.Scheme == "" || origin.Host == "" {
			writeError(w, http.StatusBadRequest, "origin must be an absolute URL")
			return
		}
		ac.Origin = origin
	}

	report := a.vault.PerformSecurityAudit(ac)
	a.audit.log(AuditSecurityAudit, r,
		slog.String("report_id", report.ID),
		slog.Bool("secure", report.Secure),
	)
	writeJSON(w, http.StatusOK, report)
}

// EmergencyWipe destroys all credential material held by the vault.
func (a *API) EmergencyWipe(w http.ResponseWriter, r *http.Request) {
	a.vault.EmergencyWipe()
	a.audit.log(AuditEmergencyWipe, r)
	writeJSON(w, http.StatusOK, StatusResponse{Status: "wiped"})
}

// ValidateProviderToken checks the format of a cloud-provider token.
func (a *API) ValidateProviderToken(w http.ResponseWriter, r *http.Request) {
	var req ProviderTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res := dotoken.Validate(req.Token)
	writeJSON(w, http.StatusOK, ValidateProviderTokenResponse{Valid: res.Valid, Error: res.Error})
}

// EncryptProviderToken validates and seals a cloud-provider token for
// transport to the backend.
func (a *API) EncryptProviderToken(w http.ResponseWriter, r *http.Request) {
	var req ProviderTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if res := dotoken.Validate(req.Token); !res.Valid {
		writeError(w, http.StatusBadRequest, res.Error)
		return
	}

	ct, err := a.vault.EncryptDOToken(req.Token, a.transportOpts()...)
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.log(AuditProviderEncrypted, r)
	writeJSON(w, http.StatusOK, EncryptProviderTokenResponse{
		Ciphertext: ct,
		Masked:     dotoken.Mask(req.Token),
	})
}

// DecryptProviderToken opens a transport ciphertext and reports the masked
// token. Repeated failures from one client are rate limited.
func (a *API) DecryptProviderToken(w http.ResponseWriter, r *http.Request) {
	ip := extractClientIP(r)
	if blocked, retryAfter := a.decryptLimiter.check(ip); blocked {
		a.audit.logFailure(AuditDecryptLimited, r, "rate limited")
		writeRateLimited(w, retryAfter)
		return
	}

	var req DecryptProviderTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pt, err := a.vault.DecryptDOToken(req.Ciphertext, a.transportOpts()...)
	if err != nil {
		a.decryptLimiter.recordFailure(ip)
		a.audit.logFailure(AuditDecryptFailure, r, "decrypt failed")
		mapError(w, err)
		return
	}
	a.decryptLimiter.recordSuccess(ip)
	a.audit.log(AuditProviderDecrypted, r)
	writeJSON(w, http.StatusOK, DecryptProviderTokenResponse{
		Masked: dotoken.Mask(pt),
		Valid:  dotoken.Validate(pt).Valid,
	})
}
