package vault

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSlot indicates a slot outside the closed set of token slots.
	ErrUnknownSlot = errors.New("unknown token slot")
	// ErrEmptyToken indicates an attempt to store an empty credential.
	ErrEmptyToken = errors.New("token must not be empty")
	// ErrInvalidToken indicates a credential that fails input validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrVaultClosed indicates the vault has been closed and its key destroyed.
	ErrVaultClosed = errors.New("vault closed")
)

func invalidTokenf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidToken, fmt.Sprintf(format, args...))
}
