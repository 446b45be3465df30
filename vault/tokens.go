package vault

import (
	"cmp"
	"fmt"
	"slices"

	icrypto "github.com/jmcleod/tokenvault/internal/crypto"
	"github.com/jmcleod/tokenvault/internal/util"
)

// StoreToken encrypts plaintext into slot, replacing any previous token, and
// persists the store. The token expires after the vault's TTL. Persistence
// failures are logged; the token remains readable from this instance.
func (v *Vault) StoreToken(slot Slot, plaintext string) error {
	if err := validateSlot(slot); err != nil {
		return err
	}
	if err := validateToken(plaintext); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrVaultClosed
	}

	var tok *secureToken
	err := v.withKeys(func(vaultKey, integrityKey []byte) error {
		ct, err := util.EncryptAESWithAAD([]byte(plaintext), vaultKey, icrypto.AADTokenSlot(string(slot), tokenVer))
		if err != nil {
			return fmt.Errorf("encrypting token: %w", err)
		}
		now := v.now()
		tok = &secureToken{
			Ciphertext:  ct,
			ExpiresAt:   now.Add(v.ttl),
			Fingerprint: icrypto.Fingerprint(integrityKey, plaintext),
			CreatedAt:   now,
		}
		return nil
	})
	if err != nil {
		return err
	}

	if old, ok := v.tokens[slot]; ok {
		util.WipeBytes(old.Ciphertext)
	}
	v.tokens[slot] = tok
	v.persistLocked()

	v.metrics.RecordStore(string(slot))
	v.logger.Info("token stored", "slot", slot, "expires_at", tok.ExpiresAt)
	return nil
}

// Lookup returns the plaintext for slot if it is present, unexpired,
// decryptable, and matches its integrity fingerprint. A token failing any
// check is deleted before Lookup returns Rejected.
func (v *Vault) Lookup(slot Slot) Result {
	if !slot.Known() {
		return absent()
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return absent()
	}

	tok, ok := v.tokens[slot]
	if !ok {
		v.metrics.RecordRead(string(slot), StatusAbsent.String())
		return absent()
	}

	var res Result
	err := v.withKeys(func(vaultKey, integrityKey []byte) error {
		res = v.check(slot, tok, vaultKey, integrityKey)
		return nil
	})
	if err != nil {
		v.logger.Error("token lookup failed", "slot", slot, "error", err)
		return absent()
	}

	if res.Status == StatusRejected {
		v.rejectLocked(slot, res.Reason)
		v.persistLocked()
	} else {
		tok.UseCount++
		tok.LastUsedAt = v.now()
	}
	v.metrics.RecordRead(string(slot), res.Status.String())
	return res
}

// GetToken returns the plaintext for slot and whether it was valid.
func (v *Vault) GetToken(slot Slot) (string, bool) {
	res := v.Lookup(slot)
	return res.Token, res.Valid()
}

// RemoveToken deletes slot and persists. Removing an absent slot is a no-op
// apart from the rewrite.
func (v *Vault) RemoveToken(slot Slot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	if tok, ok := v.tokens[slot]; ok {
		util.WipeBytes(tok.Ciphertext)
		delete(v.tokens, slot)
		v.logger.Info("token removed", "slot", slot)
	}
	v.persistLocked()
}

// ClearAllTokens deletes every slot and persists the empty store.
func (v *Vault) ClearAllTokens() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	for slot, tok := range v.tokens {
		util.WipeBytes(tok.Ciphertext)
		delete(v.tokens, slot)
	}
	v.persistLocked()
	v.logger.Info("all tokens cleared")
}

// ValidateAndCleanTokens runs the read validation over every slot, deletes
// the failures, and returns how many were removed.
func (v *Vault) ValidateAndCleanTokens() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return 0
	}
	return v.sweepLocked()
}

// Tokens returns metadata for every stored slot, ordered by slot name. It
// does not validate or decrypt.
func (v *Vault) Tokens() []TokenInfo {
	v.mu.Lock()
	defer v.mu.Unlock()

	infos := make([]TokenInfo, 0, len(v.tokens))
	for slot, tok := range v.tokens {
		infos = append(infos, TokenInfo{
			Slot:       slot,
			CreatedAt:  tok.CreatedAt,
			ExpiresAt:  tok.ExpiresAt,
			LastUsedAt: tok.LastUsedAt,
			UseCount:   tok.UseCount,
		})
	}
	slices.SortFunc(infos, func(a, b TokenInfo) int {
		return cmp.Compare(a.Slot, b.Slot)
	})
	return infos
}

// check validates tok in a fixed order: expiry, decryption, non-empty
// plaintext, then integrity fingerprint.
func (v *Vault) check(slot Slot, tok *secureToken, vaultKey, integrityKey []byte) Result {
	if v.now().After(tok.ExpiresAt) {
		return rejected(RejectExpired)
	}
	plain, err := util.DecryptAESWithAAD(tok.Ciphertext, vaultKey, icrypto.AADTokenSlot(string(slot), tokenVer))
	if err != nil || len(plain) == 0 {
		return rejected(RejectUndecryptable)
	}
	token := string(plain)
	util.WipeBytes(plain)
	if !icrypto.VerifyFingerprint(integrityKey, token, tok.Fingerprint) {
		return rejected(RejectIntegrity)
	}
	return Result{Status: StatusValid, Token: token}
}

func (v *Vault) rejectLocked(slot Slot, reason Rejection) {
	if tok, ok := v.tokens[slot]; ok {
		util.WipeBytes(tok.Ciphertext)
		delete(v.tokens, slot)
	}
	v.metrics.RecordRejection(string(reason))
	v.logger.Warn("token rejected", "slot", slot, "reason", reason)
}

// sweepLocked removes every token that fails validation and persists once if
// anything changed.
func (v *Vault) sweepLocked() int {
	if len(v.tokens) == 0 {
		return 0
	}

	var rejects []Result
	var slots []Slot
	err := v.withKeys(func(vaultKey, integrityKey []byte) error {
		for slot, tok := range v.tokens {
			if res := v.check(slot, tok, vaultKey, integrityKey); res.Status == StatusRejected {
				slots = append(slots, slot)
				rejects = append(rejects, res)
			}
		}
		return nil
	})
	if err != nil {
		v.logger.Error("token sweep failed", "error", err)
		return 0
	}
	if len(slots) == 0 {
		return 0
	}

	for i, slot := range slots {
		v.rejectLocked(slot, rejects[i].Reason)
	}
	v.persistLocked()
	v.metrics.RecordSwept(len(slots))
	return len(slots)
}
