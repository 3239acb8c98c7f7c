package storage

import (
	"sync"

	"github.com/yndnr/minisocial-go/internal/core/domain"
	"github.com/yndnr/minisocial-go/internal/infra/confloader"
	"github.com/yndnr/minisocial-go/internal/telemetry/logger"
	"github.com/yndnr/minisocial-go/pkg/token"
)

// SessionWatcher reports session changes made to a file-backed store by
// another process, such as a second shell logging out.
type SessionWatcher struct {
	store   *TokenStore
	watcher *confloader.Watcher
	notify  func(domain.SessionState)

	mu   sync.Mutex
	last string
}

// WatchSession watches path, the file behind store, and calls notify
// whenever the stored access token changes. notify runs on the watcher
// goroutine.
func WatchSession(store *TokenStore, path string, notify func(domain.SessionState), log logger.Logger) (*SessionWatcher, error) {
	if log == nil {
		log = logger.Discard()
	}
	sw := &SessionWatcher{
		store:  store,
		notify: notify,
		last:   store.fingerprint(),
	}
	w, err := confloader.NewWatcher(func(string) { sw.check() },
		confloader.WithWatcherLogger(logger.Slog(log)))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}
	sw.watcher = w
	return sw, nil
}

// check compares the stored token with the last one seen.
func (sw *SessionWatcher) check() {
	current := sw.store.fingerprint()

	sw.mu.Lock()
	changed := current != sw.last
	sw.last = current
	sw.mu.Unlock()

	if changed {
		sw.notify(sw.store.State())
	}
}

// Stop stops watching.
func (sw *SessionWatcher) Stop() error {
	return sw.watcher.Stop()
}

// fingerprint identifies the stored access token without exposing it.
func (s *TokenStore) fingerprint() string {
	access, ok := s.read(accessTokenKey)
	if !ok || access == "" {
		return ""
	}
	return token.Fingerprint(access)
}
