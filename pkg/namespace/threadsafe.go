package namespace

import "sync"

// ThreadSafeRegistry guards a registry that is not safe for concurrent use.
// Reads share the read lock; mutations take the write lock. Prefix generation
// escalates to the write lock only when a lookup actually misses.
type ThreadSafeRegistry struct {
	mu       sync.RWMutex
	delegate Registry
}

// NewThreadSafeRegistry wraps delegate. Wrapping an already thread-safe
// registry returns it unchanged.
func NewThreadSafeRegistry(delegate Registry) *ThreadSafeRegistry {
	if ts, ok := delegate.(*ThreadSafeRegistry); ok {
		return ts
	}
	return &ThreadSafeRegistry{delegate: delegate}
}

// Unwrap returns the guarded registry. Callers must not use it concurrently.
func (r *ThreadSafeRegistry) Unwrap() Registry {
	return r.delegate
}

func (r *ThreadSafeRegistry) NamespaceForPrefix(prefix string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.delegate.NamespaceForPrefix(prefix)
}

func (r *ThreadSafeRegistry) PrefixForNamespaceURI(uri string, generateIfMissing bool) (string, bool) {
	r.mu.RLock()
	prefix, ok := r.delegate.PrefixForNamespaceURI(uri, false)
	r.mu.RUnlock()
	if ok || !generateIfMissing {
		return prefix, ok
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another writer may have registered the uri in between.
	return r.delegate.PrefixForNamespaceURI(uri, true)
}

func (r *ThreadSafeRegistry) IsRegisteredNamespaceURI(uri string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.delegate.IsRegisteredNamespaceURI(uri)
}

func (r *ThreadSafeRegistry) DefaultNamespaceURI() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.delegate.DefaultNamespaceURI()
}

func (r *ThreadSafeRegistry) Register(prefix, uri string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delegate.Register(prefix, uri)
}

func (r *ThreadSafeRegistry) Unregister(uri string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delegate.Unregister(uri)
}

func (r *ThreadSafeRegistry) RegisteredNamespaceURIs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.delegate.RegisteredNamespaceURIs()
}

func (r *ThreadSafeRegistry) Namespaces() []Namespace {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.delegate.Namespaces()
}

// WithLock runs fn while holding the write lock, for multi-step updates that
// must appear atomic to readers.
func (r *ThreadSafeRegistry) WithLock(fn func(Registry) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.delegate)
}
