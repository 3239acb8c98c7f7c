package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileEngine stores keys in a single JSON object on disk. The file is
// re-read on every access so that a login performed by another process is
// visible immediately.
type FileEngine struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// FileMode is the permission of the token file. It holds credentials.
const FileMode fs.FileMode = 0o600

// FileOption configures a FileEngine.
type FileOption func(*FileEngine)

// WithFileLogger sets the logger that reports a damaged file.
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(e *FileEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewFileEngine returns an engine backed by path. The file and its parent
// directory are created on first write.
func NewFileEngine(path string, opts ...FileOption) (*FileEngine, error) {
	if path == "" {
		return nil, fmt.Errorf("file engine: path is required")
	}
	e := &FileEngine{path: path, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Path returns the backing file.
func (e *FileEngine) Path() string {
	return e.path
}

// Get retrieves a value by key.
func (e *FileEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.check(ctx); err != nil {
		return nil, err
	}
	data, err := e.read()
	if err != nil {
		return nil, err
	}
	v, ok := data[string(key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return []byte(v), nil
}

// Set stores a key-value pair.
func (e *FileEngine) Set(ctx context.Context, key, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.check(ctx); err != nil {
		return err
	}
	data, _, err := e.readForWrite()
	if err != nil {
		return err
	}
	data[string(key)] = string(value)
	return e.write(data)
}

// Delete removes a key.
func (e *FileEngine) Delete(ctx context.Context, key []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.check(ctx); err != nil {
		return err
	}
	data, reset, err := e.readForWrite()
	if err != nil {
		return err
	}
	if _, ok := data[string(key)]; !ok && !reset {
		return nil
	}
	delete(data, string(key))
	return e.write(data)
}

// Scan iterates over keys with a given prefix in key order.
func (e *FileEngine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	e.mu.Lock()
	if err := e.check(ctx); err != nil {
		e.mu.Unlock()
		return err
	}
	data, err := e.read()
	e.mu.Unlock()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		if strings.HasPrefix(k, string(prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn([]byte(k), []byte(data[k])) {
			break
		}
	}
	return nil
}

// Close marks the engine closed. The file is left in place.
func (e *FileEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *FileEngine) check(ctx context.Context) error {
	if e.closed {
		return ErrClosed
	}
	return ctx.Err()
}

// read returns the decoded file. A missing or empty file is an empty map.
func (e *FileEngine) read() (map[string]string, error) {
	raw, err := os.ReadFile(e.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.path, err)
	}
	data := map[string]string{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &decodeError{path: e.path, err: err}
	}
	return data, nil
}

// readForWrite is read for Set and Delete. A file that does not decode is
// replaced: reset reports that the next write starts from an empty map.
func (e *FileEngine) readForWrite() (data map[string]string, reset bool, err error) {
	data, err = e.read()
	var derr *decodeError
	if errors.As(err, &derr) {
		e.logger.Warn("discarding unreadable token file", "path", e.path, "error", derr.err)
		return map[string]string{}, true, nil
	}
	return data, false, err
}

type decodeError struct {
	path string
	err  error
}

func (e *decodeError) Error() string { return fmt.Sprintf("decode %s: %v", e.path, e.err) }
func (e *decodeError) Unwrap() error { return e.err }

// write replaces the file atomically via rename.
func (e *FileEngine) write(data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(e.path), 0o700); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(e.path), "."+filepath.Base(e.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(FileMode); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(append(raw, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, e.path)
}
