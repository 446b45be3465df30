// Package storage provides the key/value storage abstraction the token vault
// persists into, plus the sealed Envelope record format.
package storage

import "errors"

// ErrNotFound is returned by Get when a key is absent.
var ErrNotFound = errors.New("not found")

// Store is a flat key/value store. Durable stores survive process restarts;
// volatile stores live only as long as the session that owns them.
//
// Delete and Clear are idempotent: removing an absent key is not an error.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Keys() ([]string, error)
	Clear() error
}
