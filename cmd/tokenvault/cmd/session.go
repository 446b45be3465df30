package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.etcd.io/bbolt"
	"golang.org/x/term"

	"github.com/jmcleod/tokenvault/device"
	"github.com/jmcleod/tokenvault/internal/util"
	"github.com/jmcleod/tokenvault/storage"
	bboltstorage "github.com/jmcleod/tokenvault/storage/bbolt"
	"github.com/jmcleod/tokenvault/storage/memory"
	"github.com/jmcleod/tokenvault/vault"
)

const (
	tokensBucket  = "tokens"
	sessionBucket = "session"

	// dbOpenTimeout bounds the wait for another process holding the bbolt lock.
	dbOpenTimeout = 2 * time.Second
)

// session is an open vault plus the stores and cookie jar behind it.
type session struct {
	vault   *vault.Vault
	jar     http.CookieJar
	origin  *url.URL
	closers []io.Closer
}

// openSession opens the durable and volatile stores named by cfg and builds a
// vault over them. Callers must Close the session.
func openSession(opts ...vault.Option) (*session, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	s := &session{}
	durable, err := bboltstorage.NewStoreFromFile(cfg.DatabasePath(), tokensBucket, &bbolt.Options{Timeout: dbOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening token storage: %w", err)
	}
	s.closers = append(s.closers, durable)

	fp := device.FromHost()
	var volatile storage.Store
	if cfg.SessionFile != "" {
		vs, err := bboltstorage.NewStoreFromFile(cfg.SessionFile, sessionBucket, &bbolt.Options{Timeout: dbOpenTimeout})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("opening session file: %w", err)
		}
		s.closers = append(s.closers, vs)
		volatile = vs
		fp = fp.WithoutGeometry().WithoutZoneOffset()
	} else {
		volatile = memory.NewStore()
	}

	s.origin, err = cfg.Origin()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.jar, err = cookiejar.New(nil)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	base := []vault.Option{
		vault.WithLogger(logger),
		vault.WithTokenTTL(cfg.TokenTTL),
		vault.WithCookieJar(s.jar, s.origin),
	}
	s.vault, err = vault.New(durable, volatile, fp, append(base, opts...)...)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("opening vault: %w", err)
	}
	return s, nil
}

// Close closes the vault and then the stores, in that order.
func (s *session) Close() {
	if s.vault != nil {
		s.vault.Close()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			logger.Warn("closing storage failed", "error", err)
		}
	}
}

func parseSlot(arg string) (vault.Slot, error) {
	slot := vault.Slot(strings.ToLower(arg))
	if !slot.Known() {
		return "", fmt.Errorf("%w: %q (want one of %v)", vault.ErrUnknownSlot, arg, vault.Slots())
	}
	return slot, nil
}

// readSecret reads one secret without echo when stdin is a terminal, or the
// whole of stdin otherwise. A trailing newline is dropped.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		defer util.WipeBytes(b)
		return string(b), nil
	}

	b, err := io.ReadAll(io.LimitReader(in, vault.MaxTokenLength+2))
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	defer util.WipeBytes(b)
	secret := strings.TrimRight(string(b), "\r\n")
	if secret == "" {
		return "", errors.New("no secret provided on stdin")
	}
	return secret, nil
}

// confirm asks the user to type want and reports whether they did.
func confirm(cmd *cobra.Command, prompt, want string) (bool, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	return strings.TrimSpace(line) == want, nil
}

func readKeyFile(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading transport key: %w", err)
	}
	key := []byte(strings.TrimSpace(string(b)))
	util.WipeBytes(b)
	if len(key) == 0 {
		return nil, fmt.Errorf("transport key file %s is empty", path)
	}
	return key, nil
}
