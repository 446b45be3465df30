package vault

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "absent", StatusAbsent.String())
	assert.Equal(t, "valid", StatusValid.String())
	assert.Equal(t, "rejected", StatusRejected.String())
	assert.Equal(t, "unknown", Status(42).String())
}

func TestSecureToken_JSONOmitsZeroUsage(t *testing.T) {
	tok := secureToken{
		Ciphertext:  []byte{1, 2, 3},
		ExpiresAt:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Fingerprint: "abcd",
		CreatedAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(tok)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "last_used_at")
	assert.NotContains(t, string(data), "use_count")

	var decoded secureToken
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, tok, decoded)
}
