package vault

import (
	"net/http"
	"time"

	"github.com/jmcleod/tokenvault/internal/util"
)

// EmergencyWipe destroys every trace of credential material: in-memory
// tokens, both stores, and the cookies held for the console origin. The
// vault is then re-keyed with a fresh session secret so it stays usable.
// Individual failures are logged and the wipe continues.
func (v *Vault) EmergencyWipe() {
	v.mu.Lock()
	defer v.mu.Unlock()

	for slot, tok := range v.tokens {
		util.WipeBytes(tok.Ciphertext)
		delete(v.tokens, slot)
	}
	v.metrics.SetTokensPresent(0)

	if err := v.durable.Clear(); err != nil {
		v.logger.Error("emergency wipe: clearing durable storage failed", "error", err)
	}
	if err := v.volatile.Clear(); err != nil {
		v.logger.Error("emergency wipe: clearing volatile storage failed", "error", err)
	}
	expired := v.expireCookiesLocked()

	if !v.closed {
		key, err := v.deriveKey()
		if err != nil {
			v.logger.Error("emergency wipe: re-keying failed, closing vault", "error", err)
			v.key = nil
			v.closed = true
		} else {
			v.key = key
		}
	}

	v.metrics.RecordWipe()
	v.logger.Warn("emergency wipe performed", "cookies_expired", expired)
}

func (v *Vault) expireCookiesLocked() int {
	if v.jar == nil || v.origin == nil {
		return 0
	}
	path := v.origin.Path
	if path == "" {
		path = "/"
	}

	cookies := v.jar.Cookies(v.origin)
	if len(cookies) == 0 {
		return 0
	}
	expired := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		expired = append(expired, &http.Cookie{
			Name:    c.Name,
			Value:   "",
			Path:    path,
			Expires: time.Unix(0, 0),
			MaxAge:  -1,
		})
	}
	v.jar.SetCookies(v.origin, expired)
	return len(expired)
}
