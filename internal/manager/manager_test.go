package manager

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynguyendang/contentgraph/internal/config"
	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
	"github.com/duynguyendang/contentgraph/pkg/namespace"
	"github.com/duynguyendang/contentgraph/pkg/value"
)

func newTestManager(t *testing.T, mutate func(*config.Config)) *Manager {
	t.Helper()
	cfg := config.Default()
	cfg.Workspace.Root = t.TempDir()
	cfg.Workspace.MaxOpen = 2
	cfg.Values.Location = "UTC"
	if mutate != nil {
		mutate(cfg)
	}
	m, err := New(cfg, map[string]string{"HOST": "example.org"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.CloseAll() })
	return m
}

func TestManager_WorkspaceIsCached(t *testing.T) {
	m := newTestManager(t, nil)

	ws, err := m.Workspace("w1")
	require.NoError(t, err)
	again, err := m.Workspace("w1")
	require.NoError(t, err)
	assert.Same(t, ws, again)
	assert.DirExists(t, filepath.Join(m.Config().Workspace.Root, "w1"))
}

func TestManager_InvalidIDs(t *testing.T) {
	m := newTestManager(t, nil)
	for _, id := range []string{"", ".", "..", "a/b", `a\b`, ".hidden"} {
		_, err := m.Workspace(id)
		assert.ErrorIs(t, err, cgerrors.ErrInvalidInput, id)
	}
}

func TestManager_EvictionClosesWorkspace(t *testing.T) {
	m := newTestManager(t, nil)

	w1, err := m.Workspace("w1")
	require.NoError(t, err)
	_, err = m.Workspace("w2")
	require.NoError(t, err)
	_, err = m.Workspace("w3")
	require.NoError(t, err)

	assert.False(t, m.IsOpen("w1"))
	assert.True(t, m.IsOpen("w3"))
	assert.NoError(t, w1.Close(), "closing twice is harmless")

	// Reopening after eviction works against the same directory.
	reopened, err := m.Workspace("w1")
	require.NoError(t, err)
	assert.NotSame(t, w1, reopened)
}

func TestManager_NamespacesPersistAcrossReopen(t *testing.T) {
	m := newTestManager(t, func(c *config.Config) {
		c.Namespaces.Register = []namespace.Namespace{{Prefix: "ex", URI: "http://example.com/ns"}}
	})

	ws, err := m.Workspace("w1")
	require.NoError(t, err)
	uri, ok := ws.Registry().NamespaceForPrefix("ex")
	require.True(t, ok)
	assert.Equal(t, "http://example.com/ns", uri)

	_, err = ws.Registry().Register("acme", "http://acme.example/1.0")
	require.NoError(t, err)
	generated, ok := ws.Registry().PrefixForNamespaceURI("urn:generated", true)
	require.True(t, ok)
	assert.Empty(t, ws.Pending())
	require.NoError(t, m.Close("w1"))
	assert.False(t, m.IsOpen("w1"))

	ws, err = m.Workspace("w1")
	require.NoError(t, err)
	uri, ok = ws.Registry().NamespaceForPrefix("acme")
	assert.True(t, ok)
	assert.Equal(t, "http://acme.example/1.0", uri)
	prefix, ok := ws.Registry().PrefixForNamespaceURI("urn:generated", false)
	assert.True(t, ok)
	assert.Equal(t, generated, prefix)
	require.NoError(t, ws.Refresh())
}

func TestManager_SessionIsolation(t *testing.T) {
	m := newTestManager(t, nil)

	s1, err := m.Session("w1")
	require.NoError(t, err)
	s2, err := m.Session("w1")
	require.NoError(t, err)
	assert.Same(t, s1.Workspace, s2.Workspace)

	_, err = s1.Registry.Register("mine", "urn:session-only")
	require.NoError(t, err)

	_, ok := s1.Registry.NamespaceForPrefix("mine")
	assert.True(t, ok)
	_, ok = s2.Registry.NamespaceForPrefix("mine")
	assert.False(t, ok)
	_, ok = s1.Workspace.Registry().NamespaceForPrefix("mine")
	assert.False(t, ok)

	name, err := s1.Values.Names().CreateString("mine:thing", nil)
	require.NoError(t, err)
	assert.Equal(t, value.NewName("urn:session-only", "thing"), name)
	_, err = s2.Values.Names().CreateString("mine:thing", nil)
	assert.ErrorIs(t, err, cgerrors.ErrNamespaceNotFound)

	p, err := s1.Properties.CreateTyped(value.NewName("", "url"), value.TypeString, "https://${HOST}/")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/", p.FirstValue())
}

func TestManager_Binaries(t *testing.T) {
	m := newTestManager(t, nil)
	ws, err := m.Workspace("w1")
	require.NoError(t, err)

	b := value.NewInMemoryBinary([]byte("payload"))
	hash, err := ws.Binaries().Put(b)
	require.NoError(t, err)
	got, err := ws.Binaries().Get(hash)
	require.NoError(t, err)
	assert.True(t, value.EqualBinaries(b, got))
}

func TestManager_ReadOnlyMissingWorkspace(t *testing.T) {
	m := newTestManager(t, func(c *config.Config) { c.Workspace.ReadOnly = true })
	_, err := m.Workspace("absent")
	assert.ErrorIs(t, err, cgerrors.ErrNotFound)
}

func TestManager_ConcurrentOpen(t *testing.T) {
	m := newTestManager(t, nil)

	var wg sync.WaitGroup
	results := make([]*Workspace, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ws, err := m.Workspace("shared")
			assert.NoError(t, err)
			results[i] = ws
		}(i)
	}
	wg.Wait()
	for _, ws := range results {
		assert.Same(t, results[0], ws)
	}
}

func TestManager_ListWorkspaces_Caching(t *testing.T) {
	m := newTestManager(t, nil)
	root := m.Config().Workspace.Root

	require.NoError(t, os.Mkdir(filepath.Join(root, "p1"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "p1", "metadata.json"),
		[]byte(`{"name":"Project One","description":"first"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.txt"), nil, 0644))

	list, err := m.ListWorkspaces()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, WorkspaceMetadata{ID: "p1", Name: "Project One", Description: "first"}, list[0])

	require.NoError(t, os.Mkdir(filepath.Join(root, "p2"), 0755))
	list, err = m.ListWorkspaces()
	require.NoError(t, err)
	assert.Len(t, list, 1, "served from cache")

	m.mu.Lock()
	m.lastListBuild = time.Now().Add(-2 * WorkspaceListTTL)
	m.mu.Unlock()

	list, err = m.ListWorkspaces()
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// Opening a new workspace invalidates the cache.
	_, err = m.Workspace("p3")
	require.NoError(t, err)
	list, err = m.ListWorkspaces()
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestManager_CloseAll(t *testing.T) {
	m := newTestManager(t, nil)
	_, err := m.Workspace("a")
	require.NoError(t, err)
	_, err = m.Workspace("b")
	require.NoError(t, err)

	require.NoError(t, m.CloseAll())
	assert.False(t, m.IsOpen("a"))
	assert.False(t, m.IsOpen("b"))
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Workspace.MaxOpen = 0
	_, err := New(cfg, nil)
	assert.Error(t, err)
}
