package store

import (
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/s2"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
	"github.com/duynguyendang/contentgraph/pkg/value"
)

// BinaryStore keeps binary values keyed by their content hash. Content is s2
// compressed on disk; identical content is stored once.
type BinaryStore struct {
	db *badger.DB
}

func newBinaryStore(db *badger.DB) *BinaryStore {
	return &BinaryStore{db: db}
}

// Put stores the content of b and returns its hash.
func (s *BinaryStore) Put(b value.Binary) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil binary", cgerrors.ErrInvalidInput)
	}
	hash := b.Hash()
	if len(hash) == 0 {
		return nil, fmt.Errorf("%w: binary has no %s hash", cgerrors.ErrInvalidInput, value.HashAlgorithm)
	}
	if ok, err := s.Has(hash); err != nil || ok {
		return hash, err
	}

	if err := b.Acquire(); err != nil {
		return nil, cgerrors.IOError("acquire binary", err)
	}
	data, err := b.Bytes()
	if rerr := b.Release(); err == nil && rerr != nil {
		err = rerr
	}
	if err != nil {
		return nil, cgerrors.IOError("read binary", err)
	}

	compressed := s2.Encode(nil, data)
	err = withWriteTxn(s.db, func(txn *badger.Txn) error {
		return txn.Set(EncodeBinaryKey(hash), compressed)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store binary: %w", err)
	}
	slog.Debug("binary stored", "hash", hex.EncodeToString(hash), "size", len(data), "stored", len(compressed))
	return hash, nil
}

// Get returns the binary with the given hash.
func (s *BinaryStore) Get(hash []byte) (value.Binary, error) {
	var (
		data  []byte
		found bool
	)
	err := withReadTxn(s.db, func(txn *badger.Txn) error {
		var err error
		data, found, err = getValue(txn, EncodeBinaryKey(hash))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get binary: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: binary %x", cgerrors.ErrNotFound, hash)
	}
	decompressed, err := s2.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress binary: %w", err)
	}
	return value.NewInMemoryBinary(decompressed), nil
}

// Has reports whether content with the given hash is stored.
func (s *BinaryStore) Has(hash []byte) (bool, error) {
	var found bool
	err := withReadTxn(s.db, func(txn *badger.Txn) error {
		_, err := txn.Get(EncodeBinaryKey(hash))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		found = err == nil
		return err
	})
	return found, err
}

// Delete removes the content with the given hash. Deleting missing content is
// not an error.
func (s *BinaryStore) Delete(hash []byte) error {
	return withWriteTxn(s.db, func(txn *badger.Txn) error {
		return txn.Delete(EncodeBinaryKey(hash))
	})
}

// Hashes returns the hashes of all stored binaries in key order.
func (s *BinaryStore) Hashes() ([][]byte, error) {
	var hashes [][]byte
	err := withReadTxn(s.db, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte{BinaryPrefix}
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			hashes = append(hashes, key[1:])
		}
		return nil
	})
	return hashes, err
}
