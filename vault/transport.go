package vault

import (
	"fmt"

	"github.com/jmcleod/tokenvault/dotoken"
	icrypto "github.com/jmcleod/tokenvault/internal/crypto"
	"github.com/jmcleod/tokenvault/internal/util"
)

// TransportOption configures EncryptDOToken and DecryptDOToken.
type TransportOption func(*transportConfig)

type transportConfig struct {
	key []byte
}

// WithTransportKey encrypts under a key derived from the caller's secret
// instead of the vault key, so the backend can hold the same secret.
func WithTransportKey(key []byte) TransportOption {
	return func(c *transportConfig) {
		c.key = key
	}
}

// EncryptDOToken seals a cloud-provider token for transport and returns
// base64(nonce || ciphertext). It never returns the plaintext on failure.
func (v *Vault) EncryptDOToken(plaintext string, opts ...TransportOption) (string, error) {
	var out string
	err := v.withTransportKey(opts, func(key []byte) error {
		var err error
		out, err = dotoken.Encrypt(plaintext, key)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("encrypting provider token: %w", err)
	}
	return out, nil
}

// DecryptDOToken opens a value produced by EncryptDOToken with the same
// options. On any failure it returns "" and an error.
func (v *Vault) DecryptDOToken(ciphertext string, opts ...TransportOption) (string, error) {
	var out string
	err := v.withTransportKey(opts, func(key []byte) error {
		var err error
		out, err = dotoken.Decrypt(ciphertext, key)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("decrypting provider token: %w", err)
	}
	return out, nil
}

func (v *Vault) withTransportKey(opts []TransportOption, fn func(key []byte) error) error {
	var cfg transportConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.key != nil {
		key, err := icrypto.DeriveTransportKey(cfg.key)
		if err != nil {
			return err
		}
		defer util.WipeBytes(key)
		return fn(key)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	return v.withKeys(func(vaultKey, _ []byte) error {
		key, err := icrypto.DeriveTransportKey(vaultKey)
		if err != nil {
			return err
		}
		defer util.WipeBytes(key)
		return fn(key)
	})
}
