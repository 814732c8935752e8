package manager

import (
	"log/slog"
	"sync"

	"github.com/duynguyendang/contentgraph/pkg/namespace"
	"github.com/duynguyendang/contentgraph/pkg/property"
	"github.com/duynguyendang/contentgraph/pkg/store"
	"github.com/duynguyendang/contentgraph/pkg/value"
)

// Workspace is one open workspace: its store, its persistent namespace
// registry and the factories bound to that registry.
type Workspace struct {
	id         string
	store      *store.Store
	persistent *namespace.PersistentRegistry
	registry   *namespace.ThreadSafeRegistry
	values     *value.ValueFactories
	properties *property.SystemFactory
	sysProps   map[string]string

	closeOnce sync.Once
	closeErr  error
}

func (w *Workspace) ID() string { return w.id }

// Registry returns the shared, thread-safe workspace registry.
func (w *Workspace) Registry() namespace.Registry { return w.registry }

func (w *Workspace) Values() *value.ValueFactories { return w.values }

// Properties returns the property factory of the workspace. String values
// have ${...} references substituted.
func (w *Workspace) Properties() *property.SystemFactory { return w.properties }

func (w *Workspace) Binaries() *store.BinaryStore { return w.store.Binaries() }

// Refresh reloads the registry from the store.
func (w *Workspace) Refresh() error {
	return w.registry.WithLock(func(namespace.Registry) error {
		return w.persistent.Refresh()
	})
}

// Pending returns the namespace URIs whose writes are still outstanding.
func (w *Workspace) Pending() []string {
	var pending []string
	_ = w.registry.WithLock(func(namespace.Registry) error {
		pending = w.persistent.Pending()
		return nil
	})
	return pending
}

// Close flushes outstanding namespace writes and closes the store. Only the
// first call does any work.
func (w *Workspace) Close() error {
	w.closeOnce.Do(func() {
		if !w.store.Config().ReadOnly {
			if err := w.registry.WithLock(func(namespace.Registry) error { return w.persistent.Sync() }); err != nil {
				slog.Warn("unsynced namespaces at close", "workspace", w.id, "error", err)
			}
		}
		w.closeErr = w.store.Close()
	})
	return w.closeErr
}

// Session is a short-lived view of a workspace. Namespaces registered through
// it are visible only to the session.
type Session struct {
	Workspace  *Workspace
	Registry   *namespace.ThreadSafeRegistry
	Values     *value.ValueFactories
	Properties *property.SystemFactory
}

func newSession(ws *Workspace) *Session {
	reg := namespace.NewThreadSafeRegistry(namespace.NewLocalRegistry(ws.registry))
	values := ws.values.WithRegistry(reg)
	return &Session{
		Workspace:  ws,
		Registry:   reg,
		Values:     values,
		Properties: property.NewSystemFactory(values, property.WithProperties(ws.sysProps)),
	}
}
