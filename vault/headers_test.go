package vault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureHeaders(t *testing.T) {
	env := newTestEnv()
	v := env.open(t, WithTokenTTL(time.Minute))

	h := v.SecureHeaders()
	assert.Equal(t, "XMLHttpRequest", h.Get(HeaderRequestedWith))
	assert.Equal(t, "nosniff", h.Get(HeaderContentTypeOpts))
	assert.Equal(t, testFingerprint.Hash(), h.Get(HeaderDeviceFingerprint))
	assert.Empty(t, h.Get(HeaderAuthorization))

	require.NoError(t, v.StoreToken(SlotAccess, "access-abc"))
	h = v.SecureHeaders()
	assert.Equal(t, "Bearer access-abc", h.Get(HeaderAuthorization))

	env.clock.Advance(2 * time.Minute)
	h = v.SecureHeaders()
	assert.Empty(t, h.Get(HeaderAuthorization))
	assert.Empty(t, v.Tokens())
}

func TestSecureHeaders_RefreshOnly(t *testing.T) {
	env := newTestEnv()
	v := env.open(t)
	require.NoError(t, v.StoreToken(SlotRefresh, "refresh-xyz"))

	h := v.SecureHeaders()
	assert.Empty(t, h.Get(HeaderAuthorization))
}
