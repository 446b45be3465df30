package icrypto

import (
	"fmt"

	"github.com/jmcleod/tokenvault/internal/util"
)

const (
	vaultKeyInfo     = "tokenvault:vault-key:v1"
	integrityKeyInfo = "tokenvault:integrity:v1"
	transportKeyInfo = "tokenvault:transport:v1"

	// SessionSecretSize is the length of the per-session random secret.
	SessionSecretSize = 32
)

// DeriveVaultKey derives the vault encryption key from the per-session secret
// and the canonical device fingerprint. The fingerprint only salts the
// derivation; the secret carries the entropy.
func DeriveVaultKey(sessionSecret []byte, deviceFingerprint string) ([]byte, error) {
	if len(sessionSecret) != SessionSecretSize {
		return nil, fmt.Errorf("session secret must be %d bytes, got %d", SessionSecretSize, len(sessionSecret))
	}
	return util.HKDF(sessionSecret, []byte(deviceFingerprint), []byte(vaultKeyInfo))
}

// DeriveIntegrityKey derives the key used for plaintext integrity fingerprints.
func DeriveIntegrityKey(vaultKey []byte) ([]byte, error) {
	return util.HKDF(vaultKey, nil, []byte(integrityKeyInfo))
}

// DeriveTransportKey stretches a caller-supplied transport key of any length
// into an AES-256 key.
func DeriveTransportKey(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("transport key must not be empty")
	}
	return util.HKDF(key, nil, []byte(transportKeyInfo))
}
