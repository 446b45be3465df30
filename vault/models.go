// Package vault provides the secure token vault: a per-device store for
// short-lived credentials that encrypts them at rest, validates their
// integrity and expiry on every read, and fails closed.
package vault

import (
	"time"
)

// Slot names a logical credential category.
type Slot string

const (
	SlotAccess  Slot = "access"
	SlotRefresh Slot = "refresh"
)

// Slots lists every slot the vault accepts.
func Slots() []Slot {
	return []Slot{SlotAccess, SlotRefresh}
}

// Known reports whether s belongs to the closed set of slots.
func (s Slot) Known() bool {
	switch s {
	case SlotAccess, SlotRefresh:
		return true
	default:
		return false
	}
}

// secureToken is one encrypted credential. Fingerprint must always equal the
// keyed hash of the decrypted Ciphertext while the entry is present.
type secureToken struct {
	Ciphertext  []byte    `json:"ciphertext"`
	ExpiresAt   time.Time `json:"expires_at"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
	LastUsedAt  time.Time `json:"last_used_at,omitzero"`
	UseCount    uint64    `json:"use_count,omitzero"`
}

// TokenInfo is the plaintext-free view of a stored token.
type TokenInfo struct {
	Slot       Slot      `json:"slot"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastUsedAt time.Time `json:"last_used_at,omitzero"`
	UseCount   uint64    `json:"use_count"`
}

// Status is the outcome class of a token lookup.
type Status int

const (
	StatusAbsent Status = iota
	StatusValid
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusValid:
		return "valid"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Rejection says why a present token was refused and deleted.
type Rejection string

const (
	RejectExpired       Rejection = "expired"
	RejectUndecryptable Rejection = "undecryptable"
	RejectIntegrity     Rejection = "integrity_mismatch"
)

// Result is the outcome of Lookup: exactly one of Valid(token), Absent, or
// Rejected(reason). A rejected token has already been deleted.
type Result struct {
	Status Status
	Token  string
	Reason Rejection
}

// Valid reports whether the lookup produced a usable token.
func (r Result) Valid() bool {
	return r.Status == StatusValid
}

func absent() Result {
	return Result{Status: StatusAbsent}
}

func rejected(reason Rejection) Result {
	return Result{Status: StatusRejected, Reason: reason}
}
