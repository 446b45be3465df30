package dotoken

import (
	"errors"
	"fmt"

	icrypto "github.com/jmcleod/tokenvault/internal/crypto"
	"github.com/jmcleod/tokenvault/internal/util"
)

const transportVer = 1

var (
	// ErrEmptyToken is returned when asked to encrypt an empty token.
	ErrEmptyToken = errors.New("empty token")
	// ErrDecrypt is returned when a transport ciphertext cannot be opened.
	ErrDecrypt = errors.New("could not decrypt token")
)

// Encrypt seals plaintext under a 32-byte AES key and returns
// base64(nonce || ciphertext).
func Encrypt(plaintext string, key []byte) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyToken
	}
	sealed, err := util.EncryptAESWithAAD([]byte(plaintext), key, icrypto.AADTransport(transportVer))
	if err != nil {
		return "", fmt.Errorf("encrypting token for transport: %w", err)
	}
	return util.Base64Encode(sealed), nil
}

// Decrypt opens a value produced by Encrypt. On any failure it returns an
// empty string and an error wrapping ErrDecrypt; callers must treat the empty
// string as "could not decrypt", never as a valid token.
func Decrypt(ciphertext string, key []byte) (string, error) {
	raw, err := util.Base64Decode(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	plain, err := util.DecryptAESWithAAD(raw, key, icrypto.AADTransport(transportVer))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	defer util.WipeBytes(plain)
	if len(plain) == 0 {
		return "", ErrDecrypt
	}
	return string(plain), nil
}
