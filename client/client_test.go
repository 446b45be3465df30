package client_test

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/tokenvault/client"
	"github.com/jmcleod/tokenvault/device"
	"github.com/jmcleod/tokenvault/storage/memory"
	"github.com/jmcleod/tokenvault/vault"
)

type staticHeaders http.Header

func (s staticHeaders) SecureHeaders() http.Header {
	return http.Header(s).Clone()
}

func TestTransport_SetsHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	src := staticHeaders{
		"Authorization":    {"Bearer abc"},
		"X-Requested-With": {"XMLHttpRequest"},
	}
	c := client.NewClient(src, nil)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer stale")
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer abc", got.Get("Authorization"))
	assert.Equal(t, "XMLHttpRequest", got.Get("X-Requested-With"))
	assert.Equal(t, "Bearer stale", req.Header.Get("Authorization"), "caller's request is untouched")
}

func TestTransport_DropsCallerAuthorization(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	// No access token held, so the source sends no Authorization.
	src := staticHeaders{"X-Requested-With": {"XMLHttpRequest"}}
	c := client.NewClient(src, nil)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer forged")
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, got.Values("Authorization"))
	assert.Equal(t, "XMLHttpRequest", got.Get("X-Requested-With"))
	assert.Equal(t, "Bearer forged", req.Header.Get("Authorization"), "caller's request is untouched")
}

func TestNewClient_WithVault(t *testing.T) {
	var auth, fp string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		fp = r.Header.Get("X-Device-Fingerprint")
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/"})
	}))
	defer srv.Close()

	origin, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	fingerprint := device.Fingerprint{UserAgent: "test", Platform: "linux/amd64"}
	v, err := vault.New(memory.NewStore(), memory.NewStore(), fingerprint,
		vault.WithSweepInterval(0),
		vault.WithCookieJar(jar, origin),
	)
	require.NoError(t, err)
	defer v.Close()
	require.NoError(t, v.StoreToken(vault.SlotAccess, "access-abc"))

	c := client.NewClient(v, jar)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer access-abc", auth)
	assert.Equal(t, fingerprint.Hash(), fp)
	require.Len(t, jar.Cookies(origin), 1)

	v.EmergencyWipe()
	assert.Empty(t, jar.Cookies(origin))

	req, err = http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err = c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, auth)
}
