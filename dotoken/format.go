// Package dotoken holds helpers for DigitalOcean personal access tokens: the
// format check the console runs before sending a token upstream, a transport
// codec, and display masking.
package dotoken

import (
	"fmt"
	"strings"
)

const (
	// Prefix is the literal every v1 personal access token starts with.
	Prefix = "dop_v1_"
	// BodyLength is the number of lowercase hex characters after Prefix.
	BodyLength = 64
	// Length is the total token length.
	Length = len(Prefix) + BodyLength
)

// Validation is the outcome of a format check. Error holds the message of
// the first rule that failed and is empty when Valid is true.
type Validation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func invalid(format string, args ...any) Validation {
	return Validation{Valid: false, Error: fmt.Sprintf(format, args...)}
}

// Validate checks token against the provider's token grammar. It does not
// contact the provider.
func Validate(token string) Validation {
	if token == "" {
		return invalid("token is required")
	}
	if !strings.HasPrefix(token, Prefix) {
		return invalid("token must start with %q", Prefix)
	}
	if len(token) != Length {
		return invalid("token must be exactly %d characters, got %d", Length, len(token))
	}
	for _, r := range token[len(Prefix):] {
		if !isLowerHex(r) {
			return invalid("token must contain %d lowercase hexadecimal characters after %q", BodyLength, Prefix)
		}
	}
	return Validation{Valid: true}
}

func isLowerHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
}

// Mask renders a token for display, keeping the prefix and the first and last
// four characters of the body.
func Mask(token string) string {
	body, hasPrefix := strings.CutPrefix(token, Prefix)
	if len(body) <= 8 {
		return strings.Repeat("*", len(token))
	}
	masked := body[:4] + strings.Repeat("*", 8) + body[len(body)-4:]
	if hasPrefix {
		return Prefix + masked
	}
	return masked
}
