package namespace

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
)

// StoredNamespace is the persisted form of the bindings of one URI.
//
// A record with an empty Prefix and a positive Index holds a generated prefix,
// reconstructed from the prefix template on load. Default marks the URI as the
// default namespace, which may coexist with a regular prefix.
type StoredNamespace struct {
	Prefix  string `json:"prefix,omitempty"`
	URI     string `json:"uri"`
	Index   int64  `json:"index,omitempty"`
	Default bool   `json:"default,omitempty"`
}

// Store is the backing store of a PersistentRegistry. Records are keyed by URI.
type Store interface {
	// EnsureNamespaceRoot provisions the namespace area and reports whether it
	// had to be created.
	EnsureNamespaceRoot() (created bool, err error)
	LoadNamespaces() ([]StoredNamespace, error)
	SaveNamespace(ns StoredNamespace) error
	DeleteNamespace(uri string) error
	// NextIndex returns a fresh, monotonically increasing generation index.
	NextIndex() (int64, error)
}

// PersistentRegistry keeps an in-memory snapshot of the bindings held by a
// Store and writes every change through to it. It is not safe for concurrent
// use; wrap it with NewThreadSafeRegistry.
//
// Writes that fail while generating a prefix cannot be reported through the
// Registry contract, so they are logged and retried by Sync.
type PersistentRegistry struct {
	store     Store
	cache     *SimpleRegistry
	generated map[string]int64
	pending   map[string]struct{}

	template string
	logger   *slog.Logger
}

// PersistentOption configures a PersistentRegistry.
type PersistentOption func(*PersistentRegistry)

// WithLogger sets the logger used for provisioning and deferred write errors.
func WithLogger(logger *slog.Logger) PersistentOption {
	return func(r *PersistentRegistry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithGeneratedPrefixTemplate sets the template used to rebuild and generate
// index-based prefixes.
func WithGeneratedPrefixTemplate(template string) PersistentOption {
	return func(r *PersistentRegistry) {
		if template != "" {
			r.template = template
		}
	}
}

// OpenPersistentRegistry loads the registry held by store, provisioning the
// namespace area with the well-known namespaces when it does not exist yet.
func OpenPersistentRegistry(store Store, opts ...PersistentOption) (*PersistentRegistry, error) {
	r := &PersistentRegistry{
		store:    store,
		pending:  make(map[string]struct{}),
		template: DefaultPrefixTemplate,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	created, err := store.EnsureNamespaceRoot()
	if err != nil {
		return nil, cgerrors.IOError("ensure namespace root", err)
	}
	if created {
		r.logger.Info("provisioned namespace root", "namespaces", len(WellKnown()))
		for _, ns := range WellKnown() {
			if err := store.SaveNamespace(StoredNamespace{Prefix: ns.Prefix, URI: ns.URI}); err != nil {
				return nil, cgerrors.IOError("seed namespace", err)
			}
		}
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *PersistentRegistry) load() error {
	records, err := r.store.LoadNamespaces()
	if err != nil {
		return cgerrors.IOError("load namespaces", err)
	}
	cache := NewSimpleRegistry(WithoutWellKnown(), WithPrefixTemplate(r.template))
	generated := make(map[string]int64)
	for _, rec := range records {
		if rec.Default {
			cache.bind("", rec.URI)
		}
		switch {
		case rec.Prefix != "":
			cache.bind(rec.Prefix, rec.URI)
		case rec.Index > 0:
			cache.bind(r.generatedPrefix(rec.Index), rec.URI)
			generated[rec.URI] = rec.Index
		}
	}
	r.cache = cache
	r.generated = generated
	return nil
}

func (r *PersistentRegistry) generatedPrefix(index int64) string {
	return fmt.Sprintf(r.template, index)
}

// Refresh flushes pending writes and reloads the snapshot from the store.
func (r *PersistentRegistry) Refresh() error {
	if err := r.Sync(); err != nil {
		return err
	}
	if err := r.load(); err != nil {
		return err
	}
	r.logger.Debug("refreshed namespace registry", "namespaces", r.cache.Len())
	return nil
}

// Sync retries the writes that previously failed.
func (r *PersistentRegistry) Sync() error {
	uris := make([]string, 0, len(r.pending))
	for uri := range r.pending {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return r.persist(uris...)
}

// Pending returns the URIs whose state has not reached the store.
func (r *PersistentRegistry) Pending() []string {
	uris := make([]string, 0, len(r.pending))
	for uri := range r.pending {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// record computes the persisted form of uri from the snapshot.
func (r *PersistentRegistry) record(uri string) (StoredNamespace, bool) {
	rec := StoredNamespace{URI: uri, Default: uri != "" && r.cache.defaultURI == uri}
	if prefix, ok := r.cache.byURI[uri]; ok {
		if idx, gen := r.generated[uri]; gen && prefix == r.generatedPrefix(idx) {
			rec.Index = idx
		} else {
			rec.Prefix = prefix
		}
	}
	return rec, rec.Default || rec.Prefix != "" || rec.Index > 0
}

func (r *PersistentRegistry) persist(uris ...string) error {
	var errs []error
	for _, uri := range uris {
		if uri == "" {
			continue
		}
		var err error
		if rec, ok := r.record(uri); ok {
			err = r.store.SaveNamespace(rec)
		} else {
			err = r.store.DeleteNamespace(uri)
		}
		if err != nil {
			r.pending[uri] = struct{}{}
			errs = append(errs, cgerrors.IOError("persist namespace "+uri, err))
			continue
		}
		delete(r.pending, uri)
	}
	return errors.Join(errs...)
}

func (r *PersistentRegistry) NamespaceForPrefix(prefix string) (string, bool) {
	return r.cache.NamespaceForPrefix(prefix)
}

func (r *PersistentRegistry) PrefixForNamespaceURI(uri string, generateIfMissing bool) (string, bool) {
	if prefix, ok := r.cache.PrefixForNamespaceURI(uri, false); ok || !generateIfMissing {
		return prefix, ok
	}

	prefix, idx := r.nextPrefix()
	r.cache.bind(prefix, uri)
	if idx > 0 {
		r.generated[uri] = idx
	}
	if err := r.persist(uri); err != nil {
		r.logger.Warn("deferred namespace write", "uri", uri, "prefix", prefix, "error", err)
	}
	return prefix, true
}

// nextPrefix draws indexes from the store until one yields a free prefix. When
// the store cannot hand out an index the snapshot's own counter is used and the
// prefix is persisted verbatim.
func (r *PersistentRegistry) nextPrefix() (string, int64) {
	for {
		idx, err := r.store.NextIndex()
		if err != nil {
			r.logger.Warn("namespace index unavailable", "error", err)
			return r.cache.GeneratePrefix(nil), 0
		}
		candidate := r.generatedPrefix(idx)
		if _, taken := r.cache.byPrefix[candidate]; !taken {
			return candidate, idx
		}
	}
}

func (r *PersistentRegistry) IsRegisteredNamespaceURI(uri string) bool {
	return r.cache.IsRegisteredNamespaceURI(uri)
}

func (r *PersistentRegistry) DefaultNamespaceURI() string {
	return r.cache.DefaultNamespaceURI()
}

func (r *PersistentRegistry) Register(prefix, uri string) (string, error) {
	if err := checkBinding(prefix, uri); err != nil {
		return "", err
	}
	affected := []string{uri}
	if prefix == "" {
		affected = append(affected, r.cache.defaultURI)
	} else {
		delete(r.generated, uri)
	}
	previous := r.cache.bind(prefix, uri)
	if previous != uri {
		affected = append(affected, previous)
	}
	return previous, r.persist(affected...)
}

func (r *PersistentRegistry) Unregister(uri string) (bool, error) {
	removed, _ := r.cache.Unregister(uri)
	if !removed {
		return false, nil
	}
	delete(r.generated, uri)
	return true, r.persist(uri)
}

func (r *PersistentRegistry) RegisteredNamespaceURIs() []string {
	return r.cache.RegisteredNamespaceURIs()
}

func (r *PersistentRegistry) Namespaces() []Namespace {
	return r.cache.Namespaces()
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu      sync.Mutex
	root    bool
	records map[string]StoredNamespace
	index   int64

	// FailWrites, when set, is returned by every mutating call.
	FailWrites error
}

// NewMemoryStore creates an unprovisioned store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]StoredNamespace)}
}

func (s *MemoryStore) EnsureNamespaceRoot() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.root {
		return false, nil
	}
	if s.FailWrites != nil {
		return false, s.FailWrites
	}
	s.root = true
	return true, nil
}

func (s *MemoryStore) LoadNamespaces() ([]StoredNamespace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]StoredNamespace, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].URI < records[j].URI })
	return records, nil
}

func (s *MemoryStore) SaveNamespace(ns StoredNamespace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.records[ns.URI] = ns
	return nil
}

func (s *MemoryStore) DeleteNamespace(uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	delete(s.records, uri)
	return nil
}

func (s *MemoryStore) NextIndex() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return 0, s.FailWrites
	}
	s.index++
	return s.index, nil
}

// Records returns a copy of the stored records keyed by URI.
func (s *MemoryStore) Records() map[string]StoredNamespace {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]StoredNamespace, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}
