// Package manager opens and caches workspaces, one badger store per
// workspace directory.
package manager

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/duynguyendang/contentgraph/internal/config"
	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
	"github.com/duynguyendang/contentgraph/pkg/namespace"
	"github.com/duynguyendang/contentgraph/pkg/property"
	"github.com/duynguyendang/contentgraph/pkg/store"
	"github.com/duynguyendang/contentgraph/pkg/value"
)

// WorkspaceListTTL is how long ListWorkspaces reuses its last scan.
const WorkspaceListTTL = 1 * time.Minute

// WorkspaceMetadata describes a workspace. It is read from the optional
// metadata.json in the workspace directory.
type WorkspaceMetadata struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Manager manages the open workspaces.
type Manager struct {
	cfg        *config.Config
	sysProps   map[string]string
	workspaces *lru.Cache[string, *Workspace]

	mu            sync.RWMutex
	cachedList    []WorkspaceMetadata
	lastListBuild time.Time
}

// New creates a Manager. sysProps are the system properties used by the
// property factories of every workspace.
func New(cfg *config.Config, sysProps map[string]string) (*Manager, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cache, err := lru.NewWithEvict[string, *Workspace](cfg.Workspace.MaxOpen, func(id string, ws *Workspace) {
		slog.Debug("closing evicted workspace", "workspace", id)
		if err := ws.Close(); err != nil {
			slog.Error("failed to close workspace", "workspace", id, "error", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return &Manager{cfg: cfg, sysProps: sysProps, workspaces: cache}, nil
}

// Config returns the configuration the manager was created with.
func (m *Manager) Config() *config.Config { return m.cfg }

// ValidateID rejects workspace ids that do not name a single directory.
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: invalid workspace id %q", cgerrors.ErrInvalidInput, id)
	}
	return nil
}

// Workspace returns the workspace id, opening it if necessary. Writable
// managers create missing workspaces; read-only ones report them as not
// found.
func (m *Manager) Workspace(id string) (*Workspace, error) {
	if ws, ok := m.workspaces.Get(id); ok {
		return ws, nil
	}
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if ws, ok := m.workspaces.Get(id); ok {
		return ws, nil
	}

	dir := filepath.Join(m.cfg.Workspace.Root, id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if m.cfg.Workspace.ReadOnly {
			return nil, fmt.Errorf("%w: workspace %s", cgerrors.ErrNotFound, id)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, cgerrors.IOError("create workspace", err)
		}
		m.lastListBuild = time.Time{}
	}

	ws, err := m.open(id, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace %s: %w", id, err)
	}
	m.workspaces.Add(id, ws)
	return ws, nil
}

func (m *Manager) open(id, dir string) (*Workspace, error) {
	s, err := store.Open(m.cfg.StoreConfig(dir))
	if err != nil {
		return nil, err
	}

	persistent, err := namespace.OpenPersistentRegistry(s.Namespaces(),
		namespace.WithGeneratedPrefixTemplate(m.cfg.Namespaces.PrefixTemplate),
		namespace.WithLogger(slog.Default().With("workspace", id)),
	)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	if !m.cfg.Workspace.ReadOnly {
		for _, ns := range m.cfg.Namespaces.Register {
			if _, err := persistent.Register(ns.Prefix, ns.URI); err != nil {
				_ = s.Close()
				return nil, fmt.Errorf("register %s: %w", ns, err)
			}
		}
	}

	opts, err := m.cfg.ValueOptions()
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	registry := namespace.NewThreadSafeRegistry(persistent)
	values := value.New(registry, opts...)

	slog.Info("workspace opened", "workspace", id, "namespaces", len(registry.Namespaces()))
	return &Workspace{
		id:         id,
		store:      s,
		persistent: persistent,
		registry:   registry,
		values:     values,
		properties: property.NewSystemFactory(values, property.WithProperties(m.sysProps)),
		sysProps:   m.sysProps,
	}, nil
}

// Session opens a session on workspace id.
func (m *Manager) Session(id string) (*Session, error) {
	ws, err := m.Workspace(id)
	if err != nil {
		return nil, err
	}
	return newSession(ws), nil
}

// IsOpen reports whether workspace id is currently open.
func (m *Manager) IsOpen(id string) bool {
	return m.workspaces.Contains(id)
}

// Close closes workspace id if it is open.
func (m *Manager) Close(id string) error {
	ws, ok := m.workspaces.Peek(id)
	if !ok {
		return nil
	}
	err := ws.Close()
	m.workspaces.Remove(id)
	return err
}

// ListWorkspaces returns the workspaces under the root directory.
func (m *Manager) ListWorkspaces() ([]WorkspaceMetadata, error) {
	m.mu.RLock()
	if time.Since(m.lastListBuild) < WorkspaceListTTL && m.cachedList != nil {
		list := append([]WorkspaceMetadata(nil), m.cachedList...)
		m.mu.RUnlock()
		return list, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastListBuild) < WorkspaceListTTL && m.cachedList != nil {
		return append([]WorkspaceMetadata(nil), m.cachedList...), nil
	}

	entries, err := os.ReadDir(m.cfg.Workspace.Root)
	if errors.Is(err, os.ErrNotExist) {
		return []WorkspaceMetadata{}, nil
	}
	if err != nil {
		return nil, cgerrors.IOError("list workspaces", err)
	}

	workspaces := []WorkspaceMetadata{}
	for _, entry := range entries {
		if !entry.IsDir() || ValidateID(entry.Name()) != nil {
			continue
		}
		id := entry.Name()
		meta := WorkspaceMetadata{ID: id, Name: id}

		metaPath := filepath.Join(m.cfg.Workspace.Root, id, "metadata.json")
		if data, err := os.ReadFile(metaPath); err == nil {
			var jsonMeta WorkspaceMetadata
			if err := json.Unmarshal(data, &jsonMeta); err == nil {
				if jsonMeta.Name != "" {
					meta.Name = jsonMeta.Name
				}
				meta.Description = jsonMeta.Description
			} else {
				slog.Warn("ignoring malformed workspace metadata", "workspace", id, "error", err)
			}
		}
		workspaces = append(workspaces, meta)
	}

	m.cachedList = workspaces
	m.lastListBuild = time.Now()
	return append([]WorkspaceMetadata(nil), workspaces...), nil
}

// CloseAll closes every open workspace concurrently.
func (m *Manager) CloseAll() error {
	open := m.workspaces.Values()
	var g errgroup.Group
	for _, ws := range open {
		g.Go(ws.Close)
	}
	err := g.Wait()
	m.workspaces.Purge()
	slog.Info("closed workspaces", "count", len(open))
	return err
}
