package api

import (
	"net/http"

	"github.com/jmcleod/tokenvault/vault"
)

// CSRFMiddleware rejects requests that lack X-Requested-With: XMLHttpRequest.
// A cross-origin page cannot set that header without a CORS preflight, which
// the agent never answers. Reads are covered as well as writes.
func (a *API) CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(vault.HeaderRequestedWith) != "XMLHttpRequest" {
			writeError(w, http.StatusForbidden, "missing X-Requested-With header")
			return
		}
		next.ServeHTTP(w, r)
	})
}
