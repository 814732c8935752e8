package value

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
	"github.com/duynguyendang/contentgraph/pkg/namespace"
	"github.com/duynguyendang/contentgraph/pkg/text"
)

func TestName_Identity(t *testing.T) {
	a := NewName(namespace.JcrURI, "primaryType")
	b := NewName(namespace.JcrURI, "primaryType")
	c := NewName(namespace.NtURI, "primaryType")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))

	set := map[Name]int{a: 1}
	assert.Equal(t, 1, set[b])

	assert.True(t, SelfName.IsSelf())
	assert.True(t, ParentName.IsParent())
	assert.False(t, NewName("http://x", "..").IsParent())
}

func TestName_Compare(t *testing.T) {
	assert.Negative(t, NewName("z", "a").Compare(NewName("a", "b")), "local name decides first")
	assert.Negative(t, NewName("a", "x").Compare(NewName("b", "x")))
	assert.Zero(t, NewName("a", "x").Compare(NewName("a", "x")))
}

func TestName_Rendering(t *testing.T) {
	reg := namespace.NewSimpleRegistry()

	assert.Equal(t, "a", NewName("", "a").String())
	assert.Equal(t, "{http://example.com/ns}a", NewName("http://example.com/ns", "a").StringWith(nil, text.NoOp, nil))
	assert.Equal(t, "jcr:primaryType", NewName(namespace.JcrURI, "primaryType").StringWith(reg, nil, nil))
	assert.Equal(t, ".", SelfName.StringWith(reg, nil, nil))
	assert.Equal(t, "..", ParentName.StringWith(reg, nil, nil))

	// Characters reserved by the name syntax are escaped by the default codec.
	assert.Equal(t, "jcr:a\uf03ab", NewName(namespace.JcrURI, "a:b").StringWith(reg, nil, nil))

	escape := text.EncoderFunc(func(s string) string { return `\` + s })
	assert.Equal(t, `\{http://x\}a`, NewName("http://x", "a").StringWith(nil, text.NoOp, escape))
	assert.Equal(t, `jcr\:a`, NewName(namespace.JcrURI, "a").StringWith(reg, nil, escape))
}

func TestName_RenderingGeneratesPrefix(t *testing.T) {
	reg := namespace.NewSimpleRegistry()
	n := NewName("http://example.com/unregistered", "a")

	assert.Equal(t, "ns001:a", n.StringWith(reg, nil, nil))
	uri, ok := reg.NamespaceForPrefix("ns001")
	require.True(t, ok)
	assert.Equal(t, "http://example.com/unregistered", uri)
	assert.Equal(t, "ns001:a", n.StringWith(reg, nil, nil))
}

func TestName_RenderingDefaultNamespace(t *testing.T) {
	reg := namespace.NewSimpleRegistry()
	_, err := reg.Register("", "http://example.com/default")
	require.NoError(t, err)

	assert.Equal(t, "a", NewName("http://example.com/default", "a").StringWith(reg, nil, nil))
}

func TestNameFactory_CreateString(t *testing.T) {
	vf := newTestFactories(t)
	names := vf.Names()

	tests := []struct {
		in   string
		want Name
	}{
		{"jcr:primaryType", NewName(namespace.JcrURI, "primaryType")},
		{"{http://example.com/ns}a", NewName("http://example.com/ns", "a")},
		{"{}a", NewName("", "a")},
		{"a", NewName("", "a")},
		{"*", AnyName},
		{"", BlankName},
		{"jcr:a\uf03ab", NewName(namespace.JcrURI, "a:b")},
		{"{http://x\uf02fy}a", NewName("http://x/y", "a")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := names.CreateString(tt.in, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNameFactory_UnknownPrefix(t *testing.T) {
	vf := newTestFactories(t)

	_, err := vf.Names().CreateString("jrc:a", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, cgerrors.ErrValueFormat)
	assert.ErrorIs(t, err, cgerrors.ErrNamespaceNotFound)

	var nsErr *cgerrors.NamespaceError
	require.True(t, errors.As(err, &nsErr))
	assert.Equal(t, "jrc", nsErr.Prefix)
	assert.Equal(t, "jcr", nsErr.Suggestion)
}

func TestNameFactory_ExtraColons(t *testing.T) {
	vf := newTestFactories(t)

	for _, s := range []string{"a:b:c", "jcr:a:b", "::"} {
		_, err := vf.Names().CreateString(s, nil)
		assert.ErrorIs(t, err, cgerrors.ErrValueFormat, s)
		assert.NotErrorIs(t, err, cgerrors.ErrNamespaceNotFound, s)
	}

	_, err := vf.Paths().CreateString("/a/b:c:d", nil)
	assert.ErrorIs(t, err, cgerrors.ErrValueFormat)

	// An escaped colon stays part of the local name.
	got, err := vf.Names().CreateString("jcr:a\uf03ab", nil)
	require.NoError(t, err)
	assert.Equal(t, NewName(namespace.JcrURI, "a:b"), got)
}

func TestNameFactory_DefaultNamespace(t *testing.T) {
	reg := namespace.NewSimpleRegistry()
	_, err := reg.Register("", "http://example.com/default")
	require.NoError(t, err)
	vf := New(reg)

	got, err := vf.Names().CreateString("a", nil)
	require.NoError(t, err)
	assert.Equal(t, NewName("http://example.com/default", "a"), got)
}

func TestNameFactory_Decoder(t *testing.T) {
	vf := newTestFactories(t)

	got, err := vf.Names().CreateString("a%3Ab", text.URL)
	require.NoError(t, err)
	assert.Equal(t, NewName("", "a:b"), got)

	got, err = vf.Names().CreateString("{http%3A%2F%2Fx}a", text.URL)
	require.NoError(t, err)
	assert.Equal(t, NewName("http://x", "a"), got)
}

func TestNameFactory_CacheReturnsSameName(t *testing.T) {
	vf := New(nil, WithNameCache(2, 0))
	for range 3 {
		got, err := vf.Names().CreateString("{http://example.com/ns}a", nil)
		require.NoError(t, err)
		assert.Equal(t, NewName("http://example.com/ns", "a"), got)
	}

	uncached := New(nil, WithNameCache(0, 0))
	got, err := uncached.Names().CreateString("{http://example.com/ns}a", nil)
	require.NoError(t, err)
	assert.Equal(t, "a", got.LocalName())
}

func TestNameFactory_RoundTrip(t *testing.T) {
	vf := newTestFactories(t)
	for _, n := range []Name{
		NewName(namespace.ModeURI, "name"),
		NewName("", "plain"),
		NewName("http://example.com/generated", "x"),
		NewName(namespace.NtURI, "we[ir]d/local*"),
	} {
		s, err := vf.Strings().CreateName(n)
		require.NoError(t, err)
		back, err := vf.Names().CreateString(s, nil)
		require.NoError(t, err)
		assert.Equal(t, n, back, "via %q", s)

		back, err = vf.Names().CreateString(n.String(), nil)
		require.NoError(t, err)
		assert.Equal(t, n, back, "via %q", n.String())
	}
}

func TestNameFactory_FromOtherTypes(t *testing.T) {
	vf := newTestFactories(t)
	names := vf.Names()

	got, err := names.Create(mustPath(t, vf, "/jcr:content"))
	require.NoError(t, err)
	assert.Equal(t, NewName(namespace.JcrURI, "content"), got)

	_, err = names.Create(mustPath(t, vf, "/a/b"))
	assert.ErrorIs(t, err, cgerrors.ErrValueFormat)
	_, err = names.Create(mustPath(t, vf, "[id]"))
	assert.ErrorIs(t, err, cgerrors.ErrValueFormat)

	got, err = names.Create(NewIndexedSegment(NewName("", "a"), 3))
	require.NoError(t, err)
	assert.Equal(t, NewName("", "a"), got)

	_, err = names.Create(int64(3))
	assert.ErrorIs(t, err, cgerrors.ErrValueFormat)

	got, err = names.Create([]byte("mix:title"))
	require.NoError(t, err)
	assert.Equal(t, NewName(namespace.MixURI, "title"), got)
}

func TestSegment(t *testing.T) {
	n := NewName("", "a")

	assert.False(t, NewSegment(n).HasIndex())
	assert.True(t, NewIndexedSegment(n, 2).HasIndex())
	assert.Equal(t, DefaultIndex, NewIndexedSegment(ParentName, 4).Index())
	assert.Equal(t, "a[2]", NewIndexedSegment(n, 2).String())
	assert.Equal(t, "a", NewIndexedSegment(n, 1).String())

	id := NewIdentifierSegment("abc")
	assert.True(t, id.IsIdentifier())
	assert.False(t, id.IsSelfReference())
	assert.Equal(t, "abc", id.Identifier())
	assert.Equal(t, "", NewSegment(n).Identifier())
	assert.False(t, id.Equal(NewSegment(NewName("", "abc"))))
	assert.Positive(t, id.Compare(NewSegment(NewName("", "abc"))))

	assert.Negative(t, NewIndexedSegment(n, 1).Compare(NewIndexedSegment(n, 2)))
}
