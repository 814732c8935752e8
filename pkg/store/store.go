// Package store persists workspace state in BadgerDB: the namespace bindings
// behind a namespace.PersistentRegistry and content-addressed binary values.
package store

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// Store is one open workspace database.
type Store struct {
	db     *badger.DB
	config *Config

	namespaces *NamespaceStore
	binaries   *BinaryStore
}

// Open opens (or creates) the workspace database described by cfg.
func Open(cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("store config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}

	db, err := OpenBadgerDB(cfg)
	if err != nil {
		slog.Error("failed to open badger", "dataDir", cfg.DataDir, "error", err)
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	slog.Info("store opened",
		"dataDir", cfg.DataDir,
		"inMemory", cfg.InMemory,
		"profile", cfg.Profile,
		"readOnly", cfg.ReadOnly,
	)
	return &Store{
		db:         db,
		config:     cfg,
		namespaces: newNamespaceStore(db, cfg.LRUCacheSize),
		binaries:   newBinaryStore(db),
	}, nil
}

// Namespaces returns the namespace backing store.
func (s *Store) Namespaces() *NamespaceStore { return s.namespaces }

// Binaries returns the binary content store.
func (s *Store) Binaries() *BinaryStore { return s.binaries }

// Config returns the configuration the store was opened with.
func (s *Store) Config() *Config { return s.config }

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	slog.Info("closing store", "dataDir", s.config.DataDir)
	err := s.db.Close()
	s.db = nil
	if err != nil {
		slog.Error("failed to close badger", "error", err)
		return fmt.Errorf("failed to close badger: %w", err)
	}
	return nil
}

// withReadTxn executes fn within a read-only transaction.
func withReadTxn(db *badger.DB, fn func(*badger.Txn) error) error {
	txn := db.NewTransaction(false)
	defer txn.Discard()
	return fn(txn)
}

// withWriteTxn executes fn within a write transaction and commits it.
func withWriteTxn(db *badger.DB, fn func(*badger.Txn) error) error {
	txn := db.NewTransaction(true)
	defer txn.Discard()
	if err := fn(txn); err != nil {
		return err
	}
	return txn.Commit()
}

// getValue copies the value at key. found is false when the key is absent.
func getValue(txn *badger.Txn, key []byte) (val []byte, found bool, err error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	val, err = item.ValueCopy(nil)
	return val, err == nil, err
}
