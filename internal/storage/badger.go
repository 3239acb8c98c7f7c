package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// Defaults for a database holding a few token pairs.
const (
	DefaultGCInterval   = 30 * time.Minute
	DefaultDiscardRatio = 0.5

	badgerCacheSize    = 8 << 20
	badgerValueLogSize = 16 << 20
)

// BadgerOption configures a BadgerEngine.
type BadgerOption func(*badgerOptions)

type badgerOptions struct {
	gcInterval   time.Duration
	discardRatio float64
	syncWrites   bool
	inMemory     bool
	logger       *slog.Logger
}

// WithGCInterval sets how often the value log is collected. Zero or less
// disables the background collector.
func WithGCInterval(d time.Duration) BadgerOption {
	return func(o *badgerOptions) { o.gcInterval = d }
}

// WithSyncWrites controls fsync after each write. It is on by default so a
// login survives a crash right after it returns.
func WithSyncWrites(on bool) BadgerOption {
	return func(o *badgerOptions) { o.syncWrites = on }
}

// WithInMemory keeps the database in memory. The directory is ignored.
func WithInMemory() BadgerOption {
	return func(o *badgerOptions) { o.inMemory = true }
}

// WithBadgerLogger routes Badger's log output to logger.
func WithBadgerLogger(logger *slog.Logger) BadgerOption {
	return func(o *badgerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// BadgerEngine is a KVEngine on an embedded Badger v3 database.
type BadgerEngine struct {
	db   *badger.DB
	opts badgerOptions

	lastGC atomic.Int64 // unix seconds

	closed    atomic.Bool
	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewBadgerEngine opens or creates the database in dir.
func NewBadgerEngine(dir string, opts ...BadgerOption) (*BadgerEngine, error) {
	o := badgerOptions{
		gcInterval:   DefaultGCInterval,
		discardRatio: DefaultDiscardRatio,
		syncWrites:   true,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.inMemory {
		dir = ""
	} else if dir == "" {
		return nil, errors.New("badger: directory is required")
	}

	bopts := badger.DefaultOptions(dir).
		WithInMemory(o.inMemory).
		WithLogger(badgerLogger{o.logger}).
		WithBlockCacheSize(badgerCacheSize).
		WithValueLogFileSize(badgerValueLogSize).
		WithNumMemtables(1).
		WithSyncWrites(o.syncWrites).
		WithDetectConflicts(false)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("badger: open %s: %w", dir, err)
	}

	e := &BadgerEngine{
		db:   db,
		opts: o,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go e.collect()

	o.logger.Debug("badger engine opened", "dir", dir, "in_memory", o.inMemory)
	return e, nil
}

func (e *BadgerEngine) check(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

// Get implements KVEngine.
func (e *BadgerEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := e.check(ctx); err != nil {
		return nil, err
	}

	var value []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrKeyNotFound
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, err
}

// Set implements KVEngine.
func (e *BadgerEngine) Set(ctx context.Context, key, value []byte) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Delete implements KVEngine.
func (e *BadgerEngine) Delete(ctx context.Context, key []byte) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Scan implements KVEngine.
func (e *BadgerEngine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	return e.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: true,
			PrefetchSize:   16,
			Prefix:         prefix,
		})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !fn(item.KeyCopy(nil), value) {
				return nil
			}
		}
		return nil
	})
}

// GC rewrites value log files until Badger reports nothing left to
// reclaim. It returns the number of files rewritten.
func (e *BadgerEngine) GC(ctx context.Context) (int, error) {
	if err := e.check(ctx); err != nil {
		return 0, err
	}

	rewritten := 0
	for ctx.Err() == nil {
		err := e.db.RunValueLogGC(e.opts.discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			break
		}
		if err != nil {
			return rewritten, fmt.Errorf("badger: gc: %w", err)
		}
		rewritten++
	}
	e.lastGC.Store(time.Now().Unix())
	return rewritten, nil
}

// Size returns the on-disk size of the LSM tree and the value log.
func (e *BadgerEngine) Size() (lsm, vlog int64) {
	if e.closed.Load() {
		return 0, 0
	}
	return e.db.Size()
}

// Close stops the collector and closes the database. It is idempotent.
func (e *BadgerEngine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.stop)
		<-e.done
		if cerr := e.db.Close(); cerr != nil {
			err = fmt.Errorf("badger: close: %w", cerr)
		}
	})
	return err
}

// RegisterMetrics exposes the database size and last collection time.
func (e *BadgerEngine) RegisterMetrics(reg prometheus.Registerer) *BadgerEngine {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "minisocial",
			Subsystem: "badger",
			Name:      "size_bytes",
			Help:      "Size of the session database (LSM tree plus value log).",
		}, func() float64 {
			lsm, vlog := e.Size()
			return float64(lsm + vlog)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "minisocial",
			Subsystem: "badger",
			Name:      "last_gc_timestamp_seconds",
			Help:      "Unix time of the last value log collection, 0 if none ran.",
		}, func() float64 {
			return float64(e.lastGC.Load())
		}),
	)
	return e
}

func (e *BadgerEngine) collect() {
	defer close(e.done)
	if e.opts.gcInterval <= 0 || e.opts.inMemory {
		<-e.stop
		return
	}

	ticker := time.NewTicker(e.opts.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if _, err := e.GC(ctx); err != nil && !errors.Is(err, ErrClosed) {
				e.opts.logger.Warn("badger gc failed", "error", err)
			}
			cancel()
		case <-e.stop:
			return
		}
	}
}

// badgerLogger sends Badger's logs to slog. Its info output is debug noise
// for a CLI.
type badgerLogger struct{ l *slog.Logger }

func (b badgerLogger) Errorf(format string, args ...any) {
	b.l.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.l.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.l.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.l.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
