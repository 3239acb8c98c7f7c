package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/yndnr/minisocial-go/internal/storage"
	"github.com/yndnr/minisocial-go/pkg/cmap"
)

// Store implements storage.KVEngine on a sharded concurrent map.
type Store struct {
	data   *cmap.Map[[]byte]
	closed atomic.Bool

	// failSet, when set, makes Set fail for matching keys. Tests use it
	// to exercise partial-write handling.
	failSet atomic.Pointer[func(key []byte) error]
}

var _ storage.KVEngine = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{data: cmap.New[[]byte]()}
}

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	v, ok := s.data.Get(string(key))
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

// Set stores a copy of value.
func (s *Store) Set(ctx context.Context, key, value []byte) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if fn := s.failSet.Load(); fn != nil {
		if err := (*fn)(key); err != nil {
			return err
		}
	}
	s.data.Set(string(key), bytes.Clone(value))
	return nil
}

// Delete removes a key.
func (s *Store) Delete(ctx context.Context, key []byte) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.data.Delete(string(key))
	return nil
}

// Scan iterates over keys with a given prefix in key order.
func (s *Store) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	var keys []string
	s.data.Range(func(k string, _ []byte) bool {
		if strings.HasPrefix(k, string(prefix)) {
			keys = append(keys, k)
		}
		return true
	})
	sort.Strings(keys)

	for _, k := range keys {
		v, ok := s.data.Get(k)
		if !ok {
			continue
		}
		if !fn([]byte(k), bytes.Clone(v)) {
			break
		}
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	return s.data.Count()
}

// Close discards all data.
func (s *Store) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.data.Drain()
	}
	return nil
}

// FailSetWith installs a hook consulted before every Set. Passing nil
// removes it.
func (s *Store) FailSetWith(fn func(key []byte) error) {
	if fn == nil {
		s.failSet.Store(nil)
		return
	}
	s.failSet.Store(&fn)
}

func (s *Store) check(ctx context.Context) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	return ctx.Err()
}
