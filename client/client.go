// Package client attaches vault headers to outbound console requests.
package client

import (
	"net/http"
	"time"

	"github.com/jmcleod/tokenvault/vault"
)

// HeaderSource supplies the headers for each outbound request.
// *vault.Vault satisfies it.
type HeaderSource interface {
	SecureHeaders() http.Header
}

// Transport is an http.RoundTripper that sets the source's headers on a clone
// of every request before delegating to Base.
type Transport struct {
	Source HeaderSource
	// Base defaults to http.DefaultTransport.
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper. The caller's request is not modified.
// Any Authorization the caller set is dropped; upstream only sees the source's.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.Header.Del(vault.HeaderAuthorization)
	if t.Source != nil {
		for name, values := range t.Source.SecureHeaders() {
			out.Header.Del(name)
			for _, v := range values {
				out.Header.Add(name, v)
			}
		}
	}
	return t.base().RoundTrip(out)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// NewClient returns an HTTP client that sends the source's headers with every
// request and keeps cookies in jar. Pass the same jar to the vault so an
// emergency wipe expires them.
func NewClient(src HeaderSource, jar http.CookieJar) *http.Client {
	return &http.Client{
		Transport: &Transport{Source: src},
		Jar:       jar,
		Timeout:   30 * time.Second,
	}
}
