package api

import (
	"time"

	"github.com/jmcleod/tokenvault/vault"
)

// ListTokensResponse is returned from GET /tokens.
type ListTokensResponse struct {
	Tokens []vault.TokenInfo `json:"tokens"`
}

// StoreTokenRequest is the JSON body for PUT /tokens/{slot}.
type StoreTokenRequest struct {
	Token string `json:"token"`
}

// StoreTokenResponse is returned from PUT /tokens/{slot}.
type StoreTokenResponse struct {
	Slot      vault.Slot `json:"slot"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// ProviderTokenRequest is the JSON body for POST /provider-token/validate and
// POST /provider-token/encrypt.
type ProviderTokenRequest struct {
	Token string `json:"token"`
}

// ValidateProviderTokenResponse is returned from POST /provider-token/validate.
type ValidateProviderTokenResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// EncryptProviderTokenResponse is returned from POST /provider-token/encrypt.
type EncryptProviderTokenResponse struct {
	Ciphertext string `json:"ciphertext"`
	Masked     string `json:"masked"`
}

// DecryptProviderTokenRequest is the JSON body for POST /provider-token/decrypt.
type DecryptProviderTokenRequest struct {
	Ciphertext string `json:"ciphertext"`
}

// DecryptProviderTokenResponse is returned from POST /provider-token/decrypt.
// The plaintext stays on the agent; callers get the masked form and whether
// it is well formed.
type DecryptProviderTokenResponse struct {
	Masked string `json:"masked"`
	Valid  bool   `json:"valid"`
}

// StatusResponse is returned by operations with no other payload.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is returned for all error cases.
type ErrorResponse struct {
	Error string `json:"error"`
}
