// Package badger provides an embedded EvaluationStore on BadgerDB for
// single-node deployments that run without PostgreSQL.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Config controls how the database is opened.
type Config struct {
	Logger         *slog.Logger
	Path           string
	GCInterval     time.Duration
	GCDiscardRatio float64
	InMemory       bool
	SyncWrites     bool
}

// DefaultConfig returns production settings for an on-disk database.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns settings for an ephemeral database. GC is disabled.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger routes Badger's internal logging through slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// DB wraps badger.DB with a background value-log GC loop.
type DB struct {
	*badger.DB
	logger *slog.Logger
	stopCh chan struct{}
	doneCh chan struct{}
}

// Open opens the database described by cfg.
func Open(cfg Config) (*DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	db := &DB{DB: bdb, logger: cfg.Logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		db.stopCh = make(chan struct{})
		db.doneCh = make(chan struct{})
		go db.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return db, nil
}

func (d *DB) runGC(interval time.Duration, ratio float64) {
	defer close(d.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			err := d.RunValueLogGC(ratio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) && d.logger != nil {
				d.logger.Warn("badger value log GC error", slog.String("error", err.Error()))
			}
		}
	}
}

// Close stops GC and closes the database.
func (d *DB) Close() error {
	if d.stopCh != nil {
		close(d.stopCh)
		<-d.doneCh
	}
	return d.DB.Close()
}

// WithTxn runs fn in a read-write transaction and commits it.
func (d *DB) WithTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	txn := d.NewTransaction(true)
	defer txn.Discard()

	if err := fn(txn); err != nil {
		return err
	}
	return txn.Commit()
}

// WithReadTxn runs fn in a read-only transaction.
func (d *DB) WithReadTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	txn := d.NewTransaction(false)
	defer txn.Discard()

	return fn(txn)
}
