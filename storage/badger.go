//go:build !(js && wasm)

package storage

import (
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BadgerMedium implements Medium and represents the application's connection
// to BadgerDB. It's the Local backend's medium when the game runs as a native
// process rather than in a browser.
type BadgerMedium struct {
	connection *badger.DB
	keyTTL     time.Duration // TTL for each key in the db
	quota      ByteSize
	// Badger refuses any single value larger than a value log file
	valueLimit int64
}

// NewBadgerMedium initializes the BadgerDB embedded database at
// conf.StorageDirPath. It is up to the caller to close the database with
// Close().
func NewBadgerMedium(conf *Config) (*BadgerMedium, error) {
	if conf.StorageDirPath == "" {
		return nil, errors.New("BadgerDB needs a storage directory")
	}
	// See: https://dgraph.io/docs/badger/get-started/#opening-a-database
	opts := badger.DefaultOptions(conf.StorageDirPath).
		WithLogger(badgerLogger{log.Logger.With().Str("component", "badger").Logger()})
	return openBadgerMedium(conf, opts)
}

func openBadgerMedium(conf *Config, opts badger.Options) (*BadgerMedium, error) {
	db, err := badger.Open(opts)

	if err != nil {
		return nil, fmt.Errorf("can't open the db connection: %v", err)
	}

	return &BadgerMedium{
		connection: db,
		keyTTL:     conf.KeyTTLDuration,
		quota:      conf.MaxValueSize,
		valueLimit: opts.ValueLogFileSize,
	}, nil
}

// Set upserts an entry
func (db *BadgerMedium) Set(key, value string) error {
	if err := checkQuota(key, value, db.quota); err != nil {
		return err
	}
	// Badger reports this with an unexported error, so check it up front
	if db.valueLimit > 0 && int64(len(value)) > db.valueLimit {
		return &StorageError{
			Kind: KindQuotaExceeded,
			Op:   "set",
			Key:  key,
			Err:  fmt.Errorf("value of %v bytes exceeds the %v byte limit", len(value), db.valueLimit),
		}
	}
	err := db.connection.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), []byte(value))
		// A zero TTL would make the key expire immediately
		if db.keyTTL > 0 {
			e = e.WithTTL(db.keyTTL)
		}
		return txn.SetEntry(e)
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		return &StorageError{Kind: KindQuotaExceeded, Op: "set", Key: key, Err: err}
	}
	if err != nil {
		return fmt.Errorf("could not set the KV pair: %w", err)
	}
	return nil
}

// Get returns the value of key, or false if there isn't one.
func (db *BadgerMedium) Get(key string) (string, bool, error) {
	var val []byte
	// See: https://dgraph.io/docs/badger/get-started/#read-only-transactions
	err := db.connection.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		// We copy values rather than return them directly because item.Value()
		// is considered undefined behavior outside a transaction.
		// https://godoc.org/github.com/dgraph-io/badger#Item.Value
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("can't retrieve a value for the key provided: %w", err)
	}
	return string(val), true, nil
}

// Remove deletes key. Removing an absent key is not an error.
func (db *BadgerMedium) Remove(key string) error {
	err := db.connection.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("could not delete the key: %w", err)
	}
	return nil
}

// Clear drops every key in the database
func (db *BadgerMedium) Clear() error {
	if err := db.connection.DropAll(); err != nil {
		return fmt.Errorf("could not drop the database contents: %w", err)
	}
	return nil
}

// Cleanup performs BadgerDB's garbage collection routine with the
// recommended discardRatio.
//
// See: https://pkg.go.dev/github.com/dgraph-io/badger/v3#DB.RunValueLogGC
//
// This is the only time old records are actually removed, so make sure you're
// setting TTLs for records!
func (db *BadgerMedium) Cleanup() error {
	var discardRatio float64 = .5
	err := db.connection.RunValueLogGC(discardRatio)
	// If the GC determines that it can't rewrite anything, don't worry the
	// caller--just skip it
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

// Close tears down the database connection. You should defer this.
func (db *BadgerMedium) Close() error {
	if err := db.connection.Close(); err != nil {
		return fmt.Errorf("could not close the database: %w", err)
	}
	return nil
}

// badgerLogger sends BadgerDB's own log lines through zerolog so they share
// the application's format and level.
type badgerLogger struct {
	l zerolog.Logger
}

func (b badgerLogger) Errorf(f string, v ...interface{}) { b.l.Error().Msgf(f, v...) }

func (b badgerLogger) Warningf(f string, v ...interface{}) { b.l.Warn().Msgf(f, v...) }

func (b badgerLogger) Infof(f string, v ...interface{}) { b.l.Debug().Msgf(f, v...) }

func (b badgerLogger) Debugf(f string, v ...interface{}) { b.l.Trace().Msgf(f, v...) }
