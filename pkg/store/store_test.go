package store

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
	"github.com/duynguyendang/contentgraph/pkg/namespace"
	"github.com/duynguyendang/contentgraph/pkg/value"
)

func openTestStore(t *testing.T, cfg *Config) *Store {
	t.Helper()
	s, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"no dir", func(c *Config) { c.DataDir = "" }, true},
		{"in memory without dir", func(c *Config) { c.DataDir = ""; c.InMemory = true }, false},
		{"zero block cache", func(c *Config) { c.BlockCacheSize = 0 }, true},
		{"zero index cache", func(c *Config) { c.IndexCacheSize = 0 }, true},
		{"negative lru", func(c *Config) { c.LRUCacheSize = -1 }, true},
		{"unknown profile", func(c *Config) { c.Profile = "Turbo" }, true},
		{"low mem profile", func(c *Config) { c.Profile = ProfileLowMem }, false},
		{"read-only memory", func(c *Config) { c.InMemory = true; c.ReadOnly = true }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("/tmp/ws")
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestBuildBadgerOptions(t *testing.T) {
	cfg := DefaultConfig("/tmp/ws")
	cfg.Compression = false
	cfg.MemTableSize = 16 << 20
	opts := buildBadgerOptions(cfg)
	assert.Equal(t, "/tmp/ws/badger", opts.Dir)
	assert.Equal(t, int64(16<<20), opts.MemTableSize)
	assert.Equal(t, 2, opts.NumCompactors)

	cfg.Profile = ProfileWrite
	assert.Equal(t, 4, buildBadgerOptions(cfg).NumCompactors)

	assert.True(t, buildBadgerOptions(InMemoryConfig()).InMemory)
}

func TestOpen_RejectsInvalidConfig(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)

	cfg := DefaultConfig("")
	_, err = Open(cfg)
	assert.Error(t, err)
}

func TestStore_PersistentRegistryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)

	s, err := Open(cfg)
	require.NoError(t, err)

	reg, err := namespace.OpenPersistentRegistry(s.Namespaces())
	require.NoError(t, err)
	uri, ok := reg.NamespaceForPrefix("jcr")
	require.True(t, ok)
	assert.Equal(t, namespace.JcrURI, uri)

	_, err = reg.Register("ex", "http://example.com/ns")
	require.NoError(t, err)
	generated, ok := reg.PrefixForNamespaceURI("http://example.com/other", true)
	require.True(t, ok)
	assert.Equal(t, "ns001", generated)
	_, err = reg.Register("", "http://example.com/default")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s = openTestStore(t, cfg)
	reopened, err := namespace.OpenPersistentRegistry(s.Namespaces())
	require.NoError(t, err)

	uri, ok = reopened.NamespaceForPrefix("ex")
	assert.True(t, ok)
	assert.Equal(t, "http://example.com/ns", uri)
	prefix, ok := reopened.PrefixForNamespaceURI("http://example.com/other", false)
	assert.True(t, ok)
	assert.Equal(t, "ns001", prefix)
	assert.Equal(t, "http://example.com/default", reopened.DefaultNamespaceURI())

	// The counter survives the restart.
	next, ok := reopened.PrefixForNamespaceURI("http://example.com/third", true)
	assert.True(t, ok)
	assert.Equal(t, "ns002", next)
}

func TestNamespaceStore_Records(t *testing.T) {
	for _, cacheSize := range []int{0, 16} {
		cfg := InMemoryConfig()
		cfg.LRUCacheSize = cacheSize
		ns := openTestStore(t, cfg).Namespaces()

		created, err := ns.EnsureNamespaceRoot()
		require.NoError(t, err)
		assert.True(t, created)
		created, err = ns.EnsureNamespaceRoot()
		require.NoError(t, err)
		assert.False(t, created)

		require.NoError(t, ns.SaveNamespace(namespace.StoredNamespace{Prefix: "b", URI: "urn:b"}))
		require.NoError(t, ns.SaveNamespace(namespace.StoredNamespace{Prefix: "a", URI: "urn:a"}))
		require.NoError(t, ns.SaveNamespace(namespace.StoredNamespace{URI: "urn:gen", Index: 3}))

		records, err := ns.LoadNamespaces()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"urn:a", "urn:b", "urn:gen"},
			[]string{records[0].URI, records[1].URI, records[2].URI})

		uri, ok, err := ns.URIForPrefix("a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "urn:a", uri)

		// Rebinding "a" to another URI, then clearing the old record, keeps
		// the new prefix key.
		require.NoError(t, ns.SaveNamespace(namespace.StoredNamespace{Prefix: "a", URI: "urn:a2"}))
		require.NoError(t, ns.SaveNamespace(namespace.StoredNamespace{URI: "urn:a", Default: true}))
		uri, ok, err = ns.URIForPrefix("a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "urn:a2", uri)

		rec, ok, err := ns.Lookup("urn:a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, namespace.StoredNamespace{URI: "urn:a", Default: true}, rec)

		require.NoError(t, ns.DeleteNamespace("urn:b"))
		require.NoError(t, ns.DeleteNamespace("urn:missing"))
		_, ok, err = ns.URIForPrefix("b")
		require.NoError(t, err)
		assert.False(t, ok)
		_, ok, err = ns.Lookup("urn:b")
		require.NoError(t, err)
		assert.False(t, ok)

		assert.ErrorIs(t, ns.SaveNamespace(namespace.StoredNamespace{Prefix: "x"}), cgerrors.ErrInvalidInput)
	}
}

func TestNamespaceStore_LoadSkipsMalformedKeys(t *testing.T) {
	ns := openTestStore(t, InMemoryConfig()).Namespaces()
	require.NoError(t, ns.SaveNamespace(namespace.StoredNamespace{Prefix: "a", URI: "urn:a"}))

	err := ns.db.Update(func(txn *badger.Txn) error {
		// Length header claims more bytes than the key holds.
		if err := txn.Set([]byte{NamespacePrefix, 0x00, 0x09, 'u'}, []byte(`{"uri":"u"}`)); err != nil {
			return err
		}
		return txn.Set(encodeStringKey(NamespacePrefix, "urn:x"), []byte(`{"uri":"urn:y"}`))
	})
	require.NoError(t, err)

	records, err := ns.LoadNamespaces()
	require.NoError(t, err)
	assert.Equal(t, []namespace.StoredNamespace{{Prefix: "a", URI: "urn:a"}}, records)
}

func TestStringKeys(t *testing.T) {
	key := encodeStringKey(PrefixIndex, "jcr")
	prefix, s, ok := decodeStringKey(key)
	require.True(t, ok)
	assert.Equal(t, PrefixIndex, prefix)
	assert.Equal(t, "jcr", s)

	for _, bad := range [][]byte{nil, {NamespacePrefix, 0x00}, append(key, 'x')} {
		_, _, ok := decodeStringKey(bad)
		assert.False(t, ok, "%x", bad)
	}
}

func TestNamespaceStore_NextIndexIsMonotonic(t *testing.T) {
	ns := openTestStore(t, InMemoryConfig()).Namespaces()
	var last int64
	for range 5 {
		idx, err := ns.NextIndex()
		require.NoError(t, err)
		assert.Greater(t, idx, last)
		last = idx
	}
	assert.Equal(t, int64(5), last)
}

func TestNamespaceStore_ReadOnlyRequiresProvisioning(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	cfg := DefaultConfig(dir)
	cfg.ReadOnly = true
	ro := openTestStore(t, cfg)
	_, err = ro.Namespaces().EnsureNamespaceRoot()
	assert.ErrorIs(t, err, cgerrors.ErrNotFound)
}

func TestBinaryStore(t *testing.T) {
	bs := openTestStore(t, InMemoryConfig()).Binaries()

	content := []byte("hello hello hello hello hello")
	b := value.NewInMemoryBinary(content)
	hash, err := bs.Put(b)
	require.NoError(t, err)
	assert.Equal(t, b.Hash(), hash)

	ok, err := bs.Has(hash)
	require.NoError(t, err)
	assert.True(t, ok)

	// Identical content is stored once.
	again, err := bs.Put(value.NewInMemoryBinary(append([]byte(nil), content...)))
	require.NoError(t, err)
	assert.Equal(t, hash, again)
	hashes, err := bs.Hashes()
	require.NoError(t, err)
	assert.Len(t, hashes, 1)

	got, err := bs.Get(hash)
	require.NoError(t, err)
	assert.True(t, value.EqualBinaries(b, got))
	assert.Equal(t, value.HexHash(b), value.HexHash(got))

	empty, err := bs.Put(value.NewInMemoryBinary(nil))
	require.NoError(t, err)
	gotEmpty, err := bs.Get(empty)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gotEmpty.Size())

	require.NoError(t, bs.Delete(hash))
	ok, err = bs.Has(hash)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = bs.Get(hash)
	assert.ErrorIs(t, err, cgerrors.ErrNotFound)
	require.NoError(t, bs.Delete(hash))

	_, err = bs.Put(nil)
	assert.ErrorIs(t, err, cgerrors.ErrInvalidInput)
}

func TestStore_CloseTwice(t *testing.T) {
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
