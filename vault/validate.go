package vault

import "fmt"

// MaxTokenLength bounds a stored credential. Session JWTs stay well below it.
// Below the bound any non-empty byte string is accepted.
const MaxTokenLength = 16 * 1024

func validateSlot(slot Slot) error {
	if !slot.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, string(slot))
	}
	return nil
}

func validateToken(token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if len(token) > MaxTokenLength {
		return invalidTokenf("token exceeds maximum length of %d", MaxTokenLength)
	}
	return nil
}
