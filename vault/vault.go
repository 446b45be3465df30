package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/awnumar/memguard"

	"github.com/jmcleod/tokenvault/device"
	icrypto "github.com/jmcleod/tokenvault/internal/crypto"
	"github.com/jmcleod/tokenvault/internal/metrics"
	"github.com/jmcleod/tokenvault/internal/util"
	"github.com/jmcleod/tokenvault/internal/uuid"
	"github.com/jmcleod/tokenvault/storage"
)

const (
	// StorageKey is the durable-store key holding the sealed token map.
	StorageKey = "secure_tokens"
	// SessionKeyName is the volatile-store key holding the session secret.
	SessionKeyName = "session_key"

	storeVer = 1
	tokenVer = 1
)

// Vault owns every credential for one device session. Build it once at
// bootstrap with New, pass it by reference, and Close it at teardown.
type Vault struct {
	id          string
	durable     storage.Store
	volatile    storage.Store
	fingerprint device.Fingerprint

	mu     sync.Mutex
	key    *memguard.Enclave
	tokens map[Slot]*secureToken
	closed bool

	ttl            time.Duration
	sweepInterval  time.Duration
	unrelatedLimit int
	now            func() time.Time
	logger         *slog.Logger
	metrics        *metrics.Metrics
	jar            http.CookieJar
	origin         *url.URL

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// New derives the vault key for this session and device, loads any persisted
// tokens, discards the ones that no longer validate, and starts the background
// sweep. Durable holds the sealed tokens across restarts; volatile holds the
// session secret and is expected to die with the session.
func New(durable, volatile storage.Store, fp device.Fingerprint, opts ...Option) (*Vault, error) {
	if durable == nil || volatile == nil {
		return nil, fmt.Errorf("vault requires durable and volatile stores")
	}

	v := &Vault{
		id:             uuid.New(),
		durable:        durable,
		volatile:       volatile,
		fingerprint:    fp,
		tokens:         make(map[Slot]*secureToken),
		ttl:            DefaultTokenTTL,
		sweepInterval:  DefaultSweepInterval,
		unrelatedLimit: DefaultUnrelatedStorageLimit,
		now:            time.Now,
		logger:         slog.Default(),
		stopCh:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.ttl <= 0 {
		return nil, fmt.Errorf("token TTL must be positive, got %s", v.ttl)
	}
	v.logger = v.logger.With("component", "vault", "vault_instance", v.id)

	key, err := v.deriveKey()
	if err != nil {
		return nil, fmt.Errorf("deriving vault key: %w", err)
	}
	v.key = key

	v.mu.Lock()
	v.loadLocked()
	removed := v.sweepLocked()
	v.mu.Unlock()
	if removed > 0 {
		v.logger.Info("discarded invalid tokens at startup", "removed", removed)
	}

	if v.sweepInterval > 0 {
		v.done = make(chan struct{})
		go v.sweepLoop()
	}
	return v, nil
}

// ID returns the random identifier of this vault instance.
func (v *Vault) ID() string {
	return v.id
}

// Close stops the background sweep and destroys the in-memory key. Persisted
// tokens are left in place for the next instance of the same session.
func (v *Vault) Close() {
	v.stopOnce.Do(func() {
		close(v.stopCh)
	})
	if v.done != nil {
		<-v.done
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	v.key = nil
	for _, tok := range v.tokens {
		util.WipeBytes(tok.Ciphertext)
	}
	v.tokens = make(map[Slot]*secureToken)
	v.logger.Debug("vault closed")
}

// deriveKey loads the session secret, regenerating it when absent or
// malformed, and seals the derived vault key in an enclave.
func (v *Vault) deriveKey() (*memguard.Enclave, error) {
	secret, err := v.sessionSecret()
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(secret)

	key, err := icrypto.DeriveVaultKey(secret, v.fingerprint.Canonical())
	if err != nil {
		return nil, err
	}
	// NewEnclave wipes key.
	return memguard.NewEnclave(key), nil
}

func (v *Vault) sessionSecret() ([]byte, error) {
	raw, err := v.volatile.Get(SessionKeyName)
	switch {
	case err == nil:
		secret, decErr := util.HexDecode(string(raw))
		if decErr == nil && len(secret) == icrypto.SessionSecretSize {
			return secret, nil
		}
		v.logger.Warn("session secret malformed, regenerating")
	case errors.Is(err, storage.ErrNotFound):
	default:
		v.logger.Warn("reading session secret failed, regenerating", "error", err)
	}
	return v.newSessionSecret()
}

func (v *Vault) newSessionSecret() ([]byte, error) {
	secret, err := util.RandomBytes(icrypto.SessionSecretSize)
	if err != nil {
		return nil, fmt.Errorf("generating session secret: %w", err)
	}
	if err := v.volatile.Put(SessionKeyName, []byte(util.HexEncode(secret))); err != nil {
		// The key still works for this instance; only later instances lose it.
		v.logger.Warn("persisting session secret failed", "error", err)
	}
	return secret, nil
}

// withKeys opens the enclave and hands fn the vault key and the integrity key.
// Both are wiped when fn returns.
func (v *Vault) withKeys(fn func(vaultKey, integrityKey []byte) error) error {
	if v.key == nil {
		return ErrVaultClosed
	}
	buf, err := v.key.Open()
	if err != nil {
		return fmt.Errorf("opening vault key: %w", err)
	}
	defer buf.Destroy()

	ik, err := icrypto.DeriveIntegrityKey(buf.Bytes())
	if err != nil {
		return fmt.Errorf("deriving integrity key: %w", err)
	}
	defer util.WipeBytes(ik)

	return fn(buf.Bytes(), ik)
}

// loadLocked reads the sealed token map from durable storage. A blob that
// cannot be opened is deleted and the vault starts empty.
func (v *Vault) loadLocked() {
	data, err := v.durable.Get(StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		v.logger.Warn("reading persisted tokens failed", "error", err)
		return
	}

	var persisted map[Slot]*secureToken
	err = v.withKeys(func(vaultKey, _ []byte) error {
		var env storage.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return fmt.Errorf("decoding envelope: %w", err)
		}
		plain, err := storage.OpenRecord(vaultKey, &env, icrypto.AADTokenStore(StorageKey, storeVer))
		if err != nil {
			return fmt.Errorf("opening envelope: %w", err)
		}
		defer util.WipeBytes(plain)
		return json.Unmarshal(plain, &persisted)
	})
	if err != nil {
		v.logger.Warn("persisted tokens unreadable, discarding", "error", err)
		if delErr := v.durable.Delete(StorageKey); delErr != nil {
			v.logger.Error("deleting unreadable token blob failed", "error", delErr)
		}
		return
	}

	for slot, tok := range persisted {
		if !slot.Known() || tok == nil {
			continue
		}
		v.tokens[slot] = tok
	}
	v.metrics.SetTokensPresent(len(v.tokens))
}

// persistLocked overwrites the durable blob with the current token map.
// Failures are logged and counted; the in-memory state stays authoritative.
func (v *Vault) persistLocked() {
	v.metrics.SetTokensPresent(len(v.tokens))

	err := v.withKeys(func(vaultKey, _ []byte) error {
		plain, err := json.Marshal(v.tokens)
		if err != nil {
			return fmt.Errorf("encoding tokens: %w", err)
		}
		defer util.WipeBytes(plain)

		env, err := storage.SealRecord(vaultKey, plain, icrypto.AADTokenStore(StorageKey, storeVer))
		if err != nil {
			return fmt.Errorf("sealing tokens: %w", err)
		}
		data, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("encoding envelope: %w", err)
		}
		return v.durable.Put(StorageKey, data)
	})
	if err != nil {
		v.metrics.RecordPersistenceFailure()
		v.logger.Error("persisting tokens failed", "error", err)
	}
}

func (v *Vault) sweepLoop() {
	defer close(v.done)
	ticker := time.NewTicker(v.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-v.stopCh:
			return
		case <-ticker.C:
			if n := v.ValidateAndCleanTokens(); n > 0 {
				v.logger.Info("sweep removed invalid tokens", "removed", n)
			}
		}
	}
}
