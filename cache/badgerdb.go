// Package cache is the durable, incremental store backing the workspace
// graph (§4.7): a transactional embedded key-value database, keyed so files,
// symbols, and edges can each be replaced atomically per source path.
package cache

import (
	"context"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/viant/changeimpact/errkind"
)

// Config controls how the underlying badger instance is opened.
type Config struct {
	InMemory          bool
	Path              string
	SyncWrites        bool
	NumVersionsToKeep int
	GCInterval        time.Duration
	GCDiscardRatio    float64
	Logger            badger.Logger
}

// DefaultConfig returns the durable, on-disk configuration.
func DefaultConfig() Config {
	return Config{
		InMemory:          false,
		SyncWrites:        true,
		NumVersionsToKeep: 1,
		GCInterval:        5 * time.Minute,
		GCDiscardRatio:    0.5,
	}
}

// InMemoryConfig returns a configuration suited to tests: no disk writes,
// no GC loop needed since the whole store disappears on Close.
func InMemoryConfig() Config {
	return Config{
		InMemory:          true,
		SyncWrites:        false,
		NumVersionsToKeep: 1,
		GCInterval:        0,
		GCDiscardRatio:    0.5,
	}
}

// DB wraps *badger.DB with the transaction helpers the cache schema needs.
type DB struct {
	bdb *badger.DB
}

// Open opens a database per cfg.
func Open(cfg Config) (*DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errkind.New(errkind.CacheIo, "path is required for a persistent cache", nil)
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts = opts.WithInMemory(cfg.InMemory)
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(cfg.NumVersionsToKeep)
	if cfg.Logger != nil {
		opts = opts.WithLogger(cfg.Logger)
	}

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, errkind.New(errkind.CacheIo, "opening cache database", err)
	}
	return &DB{bdb: bdb}, nil
}

// OpenInMemory opens a volatile database, useful for tests and one-shot runs.
func OpenInMemory() (*DB, error) { return Open(InMemoryConfig()) }

// OpenWithPath opens a durable database rooted at dir with default tuning.
func OpenWithPath(dir string) (*DB, error) {
	cfg := DefaultConfig()
	cfg.Path = dir
	return Open(cfg)
}

// OpenDB is an alias of Open kept for symmetry with OpenInMemory/OpenWithPath.
func OpenDB(cfg Config) (*DB, error) { return Open(cfg) }

func (db *DB) Close() error { return db.bdb.Close() }

func (db *DB) Update(fn func(txn *badger.Txn) error) error { return db.bdb.Update(fn) }

func (db *DB) View(fn func(txn *badger.Txn) error) error { return db.bdb.View(fn) }

// WithTxn runs fn in a write transaction, honoring ctx cancellation before
// starting and rolling back (never committing) if fn returns an error.
func (db *DB) WithTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return errkind.New(errkind.CacheIo, "context cancelled before write", err)
	}
	return db.bdb.Update(fn)
}

// WithReadTxn runs fn in a read-only transaction at snapshot isolation.
func (db *DB) WithReadTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return errkind.New(errkind.CacheIo, "context cancelled before read", err)
	}
	return db.bdb.View(fn)
}

// GCRunner periodically reclaims badger value-log space. GC is advisory:
// failures (including ErrNoRewrite, meaning nothing to reclaim) are ignored.
type GCRunner struct {
	db       *DB
	interval time.Duration
	ratio    float64
	logf     func(format string, args ...interface{})
	stop     chan struct{}
	done     chan struct{}
}

// NewGCRunner validates its arguments and returns a runner that has not yet
// started; call Start to begin the periodic loop.
func NewGCRunner(db *DB, interval time.Duration, ratio float64, logf func(format string, args ...interface{})) (*GCRunner, error) {
	if db == nil {
		return nil, errkind.New(errkind.CacheIo, "db must not be nil", nil)
	}
	if interval <= 0 {
		return nil, errkind.New(errkind.CacheIo, "interval must be positive", nil)
	}
	if ratio <= 0 || ratio >= 1 {
		return nil, errkind.New(errkind.CacheIo, "ratio must be between 0 and 1", nil)
	}
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &GCRunner{db: db, interval: interval, ratio: ratio, logf: logf, stop: make(chan struct{}), done: make(chan struct{})}, nil
}

// Start launches the periodic GC loop in its own goroutine.
func (r *GCRunner) Start() {
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				for {
					if err := r.db.bdb.RunValueLogGC(r.ratio); err != nil {
						break
					}
					r.logf("cache: reclaimed a value log segment")
				}
			}
		}
	}()
}

// Stop signals the GC loop to exit and waits for it to do so.
func (r *GCRunner) Stop() {
	close(r.stop)
	<-r.done
}

// TempDir creates a fresh temp directory for a persistent cache test.
func TempDir(prefix string) (string, error) {
	return os.MkdirTemp("", prefix)
}

// CleanupDir removes a directory created by TempDir; empty path is a no-op.
func CleanupDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}
