package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yndnr/minisocial-go/pkg/crypto/adaptive"
	"github.com/yndnr/minisocial-go/pkg/token"
)

// ErrBadKeyFile is returned when a key or salt file exists but cannot be used.
var ErrBadKeyFile = errors.New("storage: malformed key file")

// LoadOrCreateKey returns the hex-encoded key in path, generating and
// writing a new random key when the file does not exist.
func LoadOrCreateKey(path string) ([]byte, error) {
	return loadOrCreateSecret(path, adaptive.KeySize)
}

// KeyFromPassphrase derives the storage key from a passphrase. The salt is
// persisted in saltPath so the same passphrase yields the same key later.
func KeyFromPassphrase(passphrase, saltPath string) ([]byte, error) {
	salt, err := loadOrCreateSecret(saltPath, adaptive.SaltLength)
	if err != nil {
		return nil, err
	}
	return adaptive.DeriveKey([]byte(passphrase), salt)
}

func loadOrCreateSecret(path string, size int) ([]byte, error) {
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		b, derr := hex.DecodeString(strings.TrimSpace(string(raw)))
		if derr != nil || len(b) != size {
			return nil, fmt.Errorf("%w: %s", ErrBadKeyFile, path)
		}
		return b, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read key file: %w", err)
	}

	b, err := token.GenerateBytes(size)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, FileMode)
	if errors.Is(err, fs.ErrExist) {
		// Lost a race with another process; use its key.
		return loadOrCreateSecret(path, size)
	}
	if err != nil {
		return nil, fmt.Errorf("create key file: %w", err)
	}
	if _, err := f.WriteString(hex.EncodeToString(b) + "\n"); err != nil {
		f.Close()
		return nil, fmt.Errorf("write key file: %w", err)
	}
	return b, f.Close()
}
