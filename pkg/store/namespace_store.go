package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
	"github.com/duynguyendang/contentgraph/pkg/namespace"
)

// NamespaceStore implements namespace.Store on BadgerDB.
//
// Each record lives under its URI; a secondary key maps an explicit prefix
// back to its URI. Generated prefixes are stored as an index only and are
// rebuilt by the registry from its prefix template.
type NamespaceStore struct {
	db *badger.DB

	// indexMu serializes NextIndex; conflict detection is left to callers.
	indexMu sync.Mutex

	records  *expirable.LRU[string, namespace.StoredNamespace]
	prefixes *expirable.LRU[string, string]
}

var _ namespace.Store = (*NamespaceStore)(nil)

func newNamespaceStore(db *badger.DB, cacheSize int) *NamespaceStore {
	s := &NamespaceStore{db: db}
	if cacheSize > 0 {
		s.records = expirable.NewLRU[string, namespace.StoredNamespace](cacheSize, nil, 0)
		s.prefixes = expirable.NewLRU[string, string](cacheSize, nil, 0)
	}
	return s
}

func (s *NamespaceStore) EnsureNamespaceRoot() (bool, error) {
	var found bool
	err := withReadTxn(s.db, func(txn *badger.Txn) error {
		var err error
		_, found, err = getValue(txn, KeyNamespaceRoot)
		return err
	})
	if err != nil || found {
		return false, err
	}
	if s.db.Opts().ReadOnly {
		return false, fmt.Errorf("%w: namespace root missing in read-only store", cgerrors.ErrNotFound)
	}
	err = withWriteTxn(s.db, func(txn *badger.Txn) error {
		return txn.Set(KeyNamespaceRoot, []byte{1})
	})
	if err != nil {
		return false, err
	}
	slog.Debug("namespace root created")
	return true, nil
}

// LoadNamespaces returns every record ordered by URI. Records under malformed
// keys are skipped.
func (s *NamespaceStore) LoadNamespaces() ([]namespace.StoredNamespace, error) {
	var records []namespace.StoredNamespace
	err := withReadTxn(s.db, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte{NamespacePrefix}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			_, uri, ok := decodeStringKey(item.Key())
			if !ok {
				slog.Warn("skipping malformed namespace key", "key", fmt.Sprintf("%x", item.Key()))
				continue
			}
			var rec namespace.StoredNamespace
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("decode namespace record %x: %w", item.Key(), err)
			}
			if rec.URI != uri {
				slog.Warn("skipping namespace record stored under another uri", "key", uri, "uri", rec.URI)
				continue
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].URI < records[j].URI })
	for _, rec := range records {
		s.cache(rec)
	}
	return records, nil
}

// Lookup returns the record stored for uri.
func (s *NamespaceStore) Lookup(uri string) (namespace.StoredNamespace, bool, error) {
	if s.records != nil {
		if rec, ok := s.records.Get(uri); ok {
			return rec, true, nil
		}
	}
	var (
		rec   namespace.StoredNamespace
		found bool
	)
	err := withReadTxn(s.db, func(txn *badger.Txn) error {
		var err error
		rec, found, err = readRecord(txn, uri)
		return err
	})
	if err != nil || !found {
		return namespace.StoredNamespace{}, false, err
	}
	s.cache(rec)
	return rec, true, nil
}

// URIForPrefix returns the URI explicitly bound to prefix.
func (s *NamespaceStore) URIForPrefix(prefix string) (string, bool, error) {
	if s.prefixes != nil {
		if uri, ok := s.prefixes.Get(prefix); ok {
			return uri, true, nil
		}
	}
	var (
		val   []byte
		found bool
	)
	err := withReadTxn(s.db, func(txn *badger.Txn) error {
		var err error
		val, found, err = getValue(txn, encodeStringKey(PrefixIndex, prefix))
		return err
	})
	if err != nil || !found {
		return "", false, err
	}
	uri := string(val)
	if s.prefixes != nil {
		s.prefixes.Add(prefix, uri)
	}
	return uri, true, nil
}

func (s *NamespaceStore) SaveNamespace(ns namespace.StoredNamespace) error {
	if ns.URI == "" {
		return fmt.Errorf("%w: namespace record without URI", cgerrors.ErrInvalidInput)
	}
	if len(ns.URI) > math.MaxUint16 || len(ns.Prefix) > math.MaxUint16 {
		return fmt.Errorf("%w: namespace key too long", cgerrors.ErrInvalidInput)
	}
	val, err := json.Marshal(ns)
	if err != nil {
		return err
	}

	var stale string
	err = withWriteTxn(s.db, func(txn *badger.Txn) error {
		old, found, err := readRecord(txn, ns.URI)
		if err != nil {
			return err
		}
		if found && old.Prefix != "" && old.Prefix != ns.Prefix {
			if err := unindexPrefix(txn, old.Prefix, ns.URI); err != nil {
				return err
			}
			stale = old.Prefix
		}
		if err := txn.Set(encodeStringKey(NamespacePrefix, ns.URI), val); err != nil {
			return err
		}
		if ns.Prefix != "" {
			return txn.Set(encodeStringKey(PrefixIndex, ns.Prefix), []byte(ns.URI))
		}
		return nil
	})
	if err != nil {
		s.forget(ns.URI, ns.Prefix)
		return err
	}
	if stale != "" && s.prefixes != nil {
		s.prefixes.Remove(stale)
	}
	s.cache(ns)
	return nil
}

func (s *NamespaceStore) DeleteNamespace(uri string) error {
	var old namespace.StoredNamespace
	err := withWriteTxn(s.db, func(txn *badger.Txn) error {
		var (
			found bool
			err   error
		)
		old, found, err = readRecord(txn, uri)
		if err != nil || !found {
			return err
		}
		if old.Prefix != "" {
			if err := unindexPrefix(txn, old.Prefix, uri); err != nil {
				return err
			}
		}
		return txn.Delete(encodeStringKey(NamespacePrefix, uri))
	})
	s.forget(uri, old.Prefix)
	return err
}

// NextIndex increments the persisted generation counter.
func (s *NamespaceStore) NextIndex() (int64, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	var next int64
	err := withWriteTxn(s.db, func(txn *badger.Txn) error {
		val, _, err := getValue(txn, KeyNamespaceIndex)
		if err != nil {
			return err
		}
		next = decodeCounter(val) + 1
		return txn.Set(KeyNamespaceIndex, encodeCounter(next))
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (s *NamespaceStore) cache(rec namespace.StoredNamespace) {
	if s.records == nil {
		return
	}
	s.records.Add(rec.URI, rec)
	if rec.Prefix != "" {
		s.prefixes.Add(rec.Prefix, rec.URI)
	}
}

func (s *NamespaceStore) forget(uri, prefix string) {
	if s.records == nil {
		return
	}
	s.records.Remove(uri)
	if prefix != "" {
		s.prefixes.Remove(prefix)
	}
}

func readRecord(txn *badger.Txn, uri string) (namespace.StoredNamespace, bool, error) {
	var rec namespace.StoredNamespace
	val, found, err := getValue(txn, encodeStringKey(NamespacePrefix, uri))
	if err != nil || !found {
		return rec, false, err
	}
	if err := json.Unmarshal(val, &rec); err != nil {
		return rec, false, fmt.Errorf("decode namespace record %s: %w", uri, err)
	}
	return rec, true, nil
}

// unindexPrefix drops the prefix key unless it has been rebound to another URI.
func unindexPrefix(txn *badger.Txn, prefix, uri string) error {
	key := encodeStringKey(PrefixIndex, prefix)
	val, found, err := getValue(txn, key)
	if err != nil || !found || string(val) != uri {
		return err
	}
	return txn.Delete(key)
}
