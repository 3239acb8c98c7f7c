package storage

import (
	"context"
	"errors"
)

var (
	ErrKeyNotFound = errors.New("storage: key not found")
	ErrClosed      = errors.New("storage: engine closed")
)

// KVEngine is the byte store under a TokenStore.
//
// Implementations must be safe for concurrent use. Every engine except
// memory must keep its data across process restarts.
type KVEngine interface {
	// Get returns ErrKeyNotFound for a missing key.
	Get(ctx context.Context, key []byte) ([]byte, error)

	Set(ctx context.Context, key, value []byte) error

	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key []byte) error

	// Scan visits the keys starting with prefix in key order until fn
	// returns false.
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error

	Close() error
}
