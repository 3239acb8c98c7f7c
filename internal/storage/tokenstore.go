package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yndnr/minisocial-go/internal/core/domain"
	"github.com/yndnr/minisocial-go/internal/telemetry/logger"
	"github.com/yndnr/minisocial-go/internal/telemetry/metric"
	"github.com/yndnr/minisocial-go/pkg/crypto/adaptive"
)

// DefaultNamespace is used when no profile name is given.
const DefaultNamespace = "default"

const (
	keyPrefix       = "session/"
	accessTokenKey  = "access_token"
	refreshTokenKey = "refresh_token"

	sealedPrefix = "enc:v1:"
)

// ErrSealedValue is reported (and logged) when a stored value is encrypted
// but no usable key was configured.
var ErrSealedValue = errors.New("storage: token is encrypted and cannot be opened")

// TokenStore persists one TokenPair per namespace under two fixed keys.
// Load never fails: anything that cannot be read is treated as absent.
type TokenStore struct {
	engine    KVEngine
	namespace string
	cipher    adaptive.Cipher
	metrics   *metric.Registry
	logger    logger.Logger
}

// TokenStoreOption configures a TokenStore.
type TokenStoreOption func(*TokenStore)

// WithNamespace scopes the store to a namespace, usually a profile name.
func WithNamespace(ns string) TokenStoreOption {
	return func(s *TokenStore) {
		if ns != "" {
			s.namespace = ns
		}
	}
}

// WithCipher seals values before they reach the engine.
func WithCipher(c adaptive.Cipher) TokenStoreOption {
	return func(s *TokenStore) {
		s.cipher = c
	}
}

// WithMetrics records store operations.
func WithMetrics(r *metric.Registry) TokenStoreOption {
	return func(s *TokenStore) {
		s.metrics = r
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) TokenStoreOption {
	return func(s *TokenStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewTokenStore creates a token store on top of engine.
func NewTokenStore(engine KVEngine, opts ...TokenStoreOption) *TokenStore {
	s := &TokenStore{
		engine:    engine,
		namespace: DefaultNamespace,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Namespace returns the namespace the store reads and writes.
func (s *TokenStore) Namespace() string {
	return s.namespace
}

// Save overwrites the stored pair. If the second write fails the first is
// rolled back, so a half-written pair is never left behind.
func (s *TokenStore) Save(pair domain.TokenPair) (err error) {
	defer func() { s.metrics.ObserveStore("save", err) }()

	ctx := context.Background()
	access, err := s.seal(accessTokenKey, pair.AccessToken)
	if err != nil {
		return err
	}
	refresh, err := s.seal(refreshTokenKey, pair.RefreshToken)
	if err != nil {
		return err
	}

	if err := s.engine.Set(ctx, s.key(accessTokenKey), access); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}
	if err := s.engine.Set(ctx, s.key(refreshTokenKey), refresh); err != nil {
		if derr := s.engine.Delete(ctx, s.key(accessTokenKey)); derr != nil {
			s.logger.Error("rollback of access token failed", "namespace", s.namespace, "error", derr)
		}
		return fmt.Errorf("save refresh token: %w", err)
	}

	s.logger.Debug("session saved", "namespace", s.namespace, "tokens", pair)
	return nil
}

// Load returns the stored pair. It reports false when either token is
// missing or unreadable.
func (s *TokenStore) Load() (domain.TokenPair, bool) {
	access, ok := s.read(accessTokenKey)
	if !ok {
		s.metrics.ObserveStore("load", nil)
		return domain.TokenPair{}, false
	}
	refresh, ok := s.read(refreshTokenKey)
	s.metrics.ObserveStore("load", nil)
	if !ok {
		return domain.TokenPair{}, false
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, true
}

// Clear removes both tokens. Both deletes are attempted.
func (s *TokenStore) Clear() (err error) {
	defer func() { s.metrics.ObserveStore("clear", err) }()

	ctx := context.Background()
	err = errors.Join(
		s.engine.Delete(ctx, s.key(accessTokenKey)),
		s.engine.Delete(ctx, s.key(refreshTokenKey)),
	)
	if err == nil {
		s.logger.Debug("session cleared", "namespace", s.namespace)
	}
	return err
}

// IsAuthenticated reports whether a non-empty access token is stored.
// It does not check the token with the server.
func (s *TokenStore) IsAuthenticated() bool {
	access, ok := s.read(accessTokenKey)
	return ok && access != ""
}

// State derives the session state from the stored tokens.
func (s *TokenStore) State() domain.SessionState {
	return domain.StateOf(s.IsAuthenticated())
}

// Namespaces lists every namespace holding an access token, sorted.
func (s *TokenStore) Namespaces() ([]string, error) {
	seen := map[string]struct{}{}
	err := s.engine.Scan(context.Background(), []byte(keyPrefix), func(key, _ []byte) bool {
		rest := strings.TrimPrefix(string(key), keyPrefix)
		ns, name, ok := strings.Cut(rest, "/")
		if ok && name == accessTokenKey {
			seen[ns] = struct{}{}
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(seen))
	for ns := range seen {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out, nil
}

func (s *TokenStore) key(name string) []byte {
	return []byte(keyPrefix + s.namespace + "/" + name)
}

func (s *TokenStore) read(name string) (string, bool) {
	raw, err := s.engine.Get(context.Background(), s.key(name))
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.logger.Warn("token store read failed", "key", name, "error", err)
		}
		return "", false
	}
	v, err := s.open(name, raw)
	if err != nil {
		s.logger.Warn("token store value unreadable", "key", name, "error", err)
		return "", false
	}
	return v, true
}

func (s *TokenStore) seal(name, value string) ([]byte, error) {
	if s.cipher == nil {
		return []byte(value), nil
	}
	sealed, err := s.cipher.Seal([]byte(value), s.key(name))
	if err != nil {
		return nil, fmt.Errorf("seal %s: %w", name, err)
	}
	return []byte(sealedPrefix + base64.StdEncoding.EncodeToString(sealed)), nil
}

// open reverses seal. Plain values are returned as-is so that turning
// encryption on does not invalidate an existing session.
func (s *TokenStore) open(name string, raw []byte) (string, error) {
	str := string(raw)
	if !strings.HasPrefix(str, sealedPrefix) {
		return str, nil
	}
	if s.cipher == nil {
		return "", ErrSealedValue
	}
	sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(str, sealedPrefix))
	if err != nil {
		return "", err
	}
	plain, err := s.cipher.Open(sealed, s.key(name))
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
