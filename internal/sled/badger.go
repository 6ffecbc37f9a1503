// Package sled wraps Badger as the engine-selection facade's
// alternate, externally supplied embedded KV backend (the role "sled"
// plays in the original kvs design). Badger's internals — its own WAL,
// compaction, and value log — are treated as an opaque black box; this
// package only translates between the facade's {Set,Get,Remove,Close}
// contract and Badger's transaction API.
package sled

import (
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/dgraph-io/badger/v3"

	"github.com/jassi-singh/kvs/internal/kvserr"
)

// MarkerName is the directory entry Badger creates that the facade
// uses to detect an existing sled (Badger) database.
const MarkerName = "db"

// Engine is the Badger-backed alternate storage engine.
type Engine struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) a Badger database rooted at path.
// The facade passes <dir>/MarkerName, matching its convention that each
// engine owns one well-known on-disk marker inside the database
// directory.
func Open(path string, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(path).WithLogger(&badgerLogger{logger: logger})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: badger open: %v", kvserr.ErrBackendInternal, err)
	}
	return &Engine{db: db, logger: logger}, nil
}

// Set stores value under key.
func (e *Engine) Set(key, value string) error {
	err := e.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", kvserr.ErrBackendInternal, err)
	}
	return nil
}

// Get returns the value stored for key. A missing key is reported as
// ok=false with a nil error, never as an error — the facade's contract
// for the alternate engine differs from the kvs engine's OffsetError
// case, since Badger has no notion of a dangling log pointer.
func (e *Engine) Get(key string) (string, bool, error) {
	var value []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", kvserr.ErrBackendInternal, err)
	}
	if !utf8.Valid(value) {
		return "", false, kvserr.ErrBackendUtf8
	}
	return string(value), true, nil
}

// Remove deletes key, failing with ErrKeyNotFound if it is absent.
func (e *Engine) Remove(key string) error {
	err := e.db.Update(func(txn *badger.Txn) error {
		_, getErr := txn.Get([]byte(key))
		if getErr != nil {
			return getErr
		}
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return kvserr.ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", kvserr.ErrBackendInternal, err)
	}
	return nil
}

// Close releases the underlying Badger database.
func (e *Engine) Close() error {
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", kvserr.ErrBackendInternal, err)
	}
	return nil
}

// badgerLogger adapts a *slog.Logger to Badger's Logger interface.
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
