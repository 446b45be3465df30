package icrypto

import (
	"crypto/subtle"

	"github.com/jmcleod/tokenvault/internal/util"
)

// FingerprintLength is the number of hex characters kept from the MAC.
const FingerprintLength = 32

// Fingerprint returns a short keyed hash of a plaintext credential.
func Fingerprint(integrityKey []byte, plaintext string) string {
	mac := util.HMACSHA256(integrityKey, []byte(plaintext))
	defer util.WipeBytes(mac)
	return util.HexEncode(mac)[:FingerprintLength]
}

// VerifyFingerprint reports whether plaintext matches the stored fingerprint.
func VerifyFingerprint(integrityKey []byte, plaintext, fingerprint string) bool {
	got := Fingerprint(integrityKey, plaintext)
	return subtle.ConstantTimeCompare([]byte(got), []byte(fingerprint)) == 1
}
