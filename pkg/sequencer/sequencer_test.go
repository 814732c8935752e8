package sequencer

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynguyendang/contentgraph/pkg/namespace"
	"github.com/duynguyendang/contentgraph/pkg/property"
	"github.com/duynguyendang/contentgraph/pkg/value"
)

func newTestValues(t *testing.T) *value.ValueFactories {
	t.Helper()
	return value.New(namespace.NewSimpleRegistry())
}

func mustPath(t *testing.T, vf *value.ValueFactories, s string) *value.Path {
	t.Helper()
	p, err := vf.Paths().CreateString(s, nil)
	require.NoError(t, err)
	return p
}

func TestMemoryOutput_SetProperty(t *testing.T) {
	vf := newTestValues(t)
	out := NewMemoryOutput(property.NewFactory(vf))
	title := value.NewName(namespace.JcrURI, "title")
	size := value.NewName("", "size")

	require.NoError(t, out.SetProperty(mustPath(t, vf, "/a/b"), title, "hello"))
	require.NoError(t, out.SetProperty(mustPath(t, vf, "/a/./c/../b"), size, 1, 2))

	props := out.Properties(mustPath(t, vf, "/a/b"))
	require.Len(t, props, 2)
	assert.Equal(t, size, props[0].Name(), "ordered by local name")
	assert.Equal(t, []any{int64(1), int64(2)}, props[0].Values())
	assert.Equal(t, "hello", props[1].FirstValue())

	got, ok := out.Property(mustPath(t, vf, "/a/b[1]"), title)
	require.True(t, ok)
	assert.Equal(t, "hello", got.FirstValue())

	// No values removes the property, and the node with its last property.
	require.NoError(t, out.SetProperty(mustPath(t, vf, "/a/b"), title))
	require.NoError(t, out.SetProperty(mustPath(t, vf, "/a/b"), size))
	assert.Zero(t, out.Len())
	assert.Nil(t, out.Properties(mustPath(t, vf, "/a/b")))

	assert.Error(t, out.SetProperty(nil, title, "x"))
}

func TestMemoryOutput_SetReference(t *testing.T) {
	vf := newTestValues(t)
	out := NewMemoryOutput(property.NewFactory(vf))
	ref := value.NewName("", "target")
	node := mustPath(t, vf, "/x")

	require.NoError(t, out.SetReference(node, ref, mustPath(t, vf, "/y"), mustPath(t, vf, "z")))
	p, ok := out.Property(node, ref)
	require.True(t, ok)
	assert.Equal(t, value.TypePath, p.Type())
	assert.Equal(t, 2, p.Size())

	require.NoError(t, out.SetReference(node, ref))
	_, ok = out.Property(node, ref)
	assert.False(t, ok)
}

func TestMemoryOutput_PathsSorted(t *testing.T) {
	vf := newTestValues(t)
	out := NewMemoryOutput(nil)
	name := value.NewName("", "p")
	for _, s := range []string{"/b", "/a/c", "/a", "/a/b[2]", "/a/b"} {
		require.NoError(t, out.SetProperty(mustPath(t, vf, s), name, s))
	}

	var got []string
	for _, p := range out.Paths() {
		got = append(got, p.String())
	}
	assert.Equal(t, []string{"/a", "/a/b", "/a/b[2]", "/a/c", "/b"}, got)
}

func TestPropertiesSequencer(t *testing.T) {
	vf := newTestValues(t)
	out := NewMemoryOutput(property.NewFactory(vf))
	sc := &Context{Values: vf, InputPath: mustPath(t, vf, "/files/app.env")}

	input := "# settings\nDB_HOST=db\nDB_PORT=5432\nGREETING=\"hello world\"\n"
	require.NoError(t, PropertiesSequencer{}.Sequence(context.Background(), strings.NewReader(input), out, sc))

	node := mustPath(t, vf, "/files/app.env/mode:entries")
	props := out.Properties(node)
	require.Len(t, props, 4)

	primary, ok := out.Property(node, PrimaryTypeName)
	require.True(t, ok)
	assert.Equal(t, UnstructuredName, primary.FirstValue())

	host, ok := out.Property(node, value.NewName("", "DB_HOST"))
	require.True(t, ok)
	assert.Equal(t, "db", host.FirstValue())
	greeting, ok := out.Property(node, value.NewName("", "GREETING"))
	require.True(t, ok)
	assert.Equal(t, "hello world", greeting.FirstValue())
}

func TestPropertiesSequencer_Errors(t *testing.T) {
	vf := newTestValues(t)
	out := NewMemoryOutput(nil)

	err := PropertiesSequencer{}.Sequence(context.Background(), strings.NewReader("A=1"), out, nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = PropertiesSequencer{}.Sequence(ctx, strings.NewReader("A=1"), out, &Context{Values: vf})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestContext_InputProperty(t *testing.T) {
	f := property.NewFactory(nil)
	mime := value.NewName(namespace.JcrURI, "mimeType")
	p, err := f.Create(mime, "text/plain")
	require.NoError(t, err)

	sc := &Context{InputProperties: []property.Property{p}}
	got, ok := sc.InputProperty(mime)
	require.True(t, ok)
	assert.Equal(t, "text/plain", got.FirstValue())
	_, ok = sc.InputProperty(value.NewName("", "other"))
	assert.False(t, ok)
}

func TestFunc(t *testing.T) {
	vf := newTestValues(t)
	out := NewMemoryOutput(nil)
	var s Sequencer = Func(func(_ context.Context, in io.Reader, out Output, sc *Context) error {
		data, err := io.ReadAll(in)
		if err != nil {
			return err
		}
		return out.SetProperty(sc.InputPath, value.NewName("", "length"), len(data))
	})
	require.NoError(t, s.Sequence(context.Background(), strings.NewReader("abc"), out, &Context{Values: vf, InputPath: value.RootPath}))
	p, ok := out.Property(value.RootPath, value.NewName("", "length"))
	require.True(t, ok)
	assert.Equal(t, int64(3), p.FirstValue())
}
