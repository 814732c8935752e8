package property

import (
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
	"github.com/duynguyendang/contentgraph/pkg/namespace"
	"github.com/duynguyendang/contentgraph/pkg/value"
)

var (
	titleName = value.NewName(namespace.JcrURI, "title")
	countName = value.NewName("", "count")
)

func newTestFactory(t *testing.T) *Factory {
	t.Helper()
	return NewFactory(value.New(namespace.NewSimpleRegistry()))
}

func TestFactory_Cardinality(t *testing.T) {
	f := newTestFactory(t)

	empty, err := f.Create(titleName)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
	assert.False(t, empty.IsSingle())
	assert.Nil(t, empty.FirstValue())
	assert.Empty(t, empty.Values())
	_, err = empty.ValueAt(0)
	assert.ErrorIs(t, err, cgerrors.ErrOutOfBounds)

	single, err := f.Create(titleName, "hello")
	require.NoError(t, err)
	assert.True(t, single.IsSingle())
	assert.Equal(t, 1, single.Size())
	assert.Equal(t, value.TypeString, single.Type())
	assert.Equal(t, "hello", single.FirstValue())

	multi, err := f.Create(titleName, "a", "b", "c")
	require.NoError(t, err)
	assert.True(t, multi.IsMultiple())
	assert.Equal(t, []any{"a", "b", "c"}, multi.Values())
	v, err := multi.ValueAt(2)
	require.NoError(t, err)
	assert.Equal(t, "c", v)
	_, err = multi.ValueAt(3)
	assert.ErrorIs(t, err, cgerrors.ErrOutOfBounds)
}

func TestFactory_FlattensOneLevel(t *testing.T) {
	f := newTestFactory(t)

	p, err := f.Create(countName, []any{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, p.Values())

	p, err = f.Create(countName, []int{4, 5})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(4), int64(5)}, p.Values())

	p, err = f.CreateTyped(countName, value.TypeLong, slices.Values([]any{"6", 7.0}))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(6), int64(7)}, p.Values())

	// Only one level: the inner slice is converted as a single value.
	p, err = f.Create(countName, []any{[]any{"x"}})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Size())

	// Bytes are a binary value, not a collection.
	p, err = f.Create(countName, []byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, value.TypeBinary, p.Type())
	assert.True(t, p.IsSingle())
}

func TestFactory_CreateTypedCoerces(t *testing.T) {
	f := newTestFactory(t)

	p, err := f.CreateTyped(countName, value.TypeLong, "1", 2, 3.9, value.DateTimeFromMillis(4, nil))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3), int64(4)}, p.Values())

	_, err = f.CreateTyped(countName, value.TypeLong, "1", "two")
	require.Error(t, err)
	assert.ErrorIs(t, err, cgerrors.ErrValueFormat)
	assert.Contains(t, err.Error(), "value 1")

	p, err = f.CreateTyped(titleName, value.TypeName, "jcr:content", value.NewName("", "x"))
	require.NoError(t, err)
	assert.Equal(t, value.NewName(namespace.JcrURI, "content"), p.FirstValue())

	_, err = f.CreateTyped(titleName, value.PropertyType(77), "x")
	assert.ErrorIs(t, err, cgerrors.ErrInvalidInput)

	empty, err := f.CreateTyped(titleName, value.PropertyType(77))
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestFactory_CreateFromSeq(t *testing.T) {
	f := newTestFactory(t)
	id := uuid.New()

	p, err := f.CreateFromSeq(titleName, value.TypeReference, slices.Values([]any{id.String(), id}))
	require.NoError(t, err)
	require.Equal(t, 2, p.Size())
	for _, v := range p.All() {
		assert.Equal(t, id, v.(value.Reference).UUID())
	}

	p, err = f.CreateFromSeq(titleName, value.TypeString, nil)
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
}

func TestProperty_EqualAndCompare(t *testing.T) {
	f := newTestFactory(t)
	mk := func(name value.Name, values ...any) Property {
		p, err := f.Create(name, values...)
		require.NoError(t, err)
		return p
	}

	assert.True(t, Equal(mk(countName, 1, 2), mk(countName, int32(1), int64(2))))
	assert.False(t, Equal(mk(countName, 1, 2), mk(countName, 2, 1)))
	assert.False(t, Equal(mk(countName, 1), mk(titleName, 1)))
	assert.False(t, Equal(mk(countName, 1), nil))

	assert.Negative(t, Compare(mk(countName, 1), mk(countName, 1, 2)), "fewer values first")
	assert.Negative(t, Compare(mk(countName, 1, 2), mk(countName, 1, 3)))
	assert.Positive(t, Compare(mk(titleName), mk(countName, 1)), "name decides first")
}

func TestProperty_String(t *testing.T) {
	f := newTestFactory(t)
	reg := f.ValueFactories().Registry()

	p, err := f.CreateTyped(titleName, value.TypeName, "nt:file", "nt:folder")
	require.NoError(t, err)
	assert.Equal(t, "jcr:title = [nt:file, nt:folder]", p.StringWith(reg))

	p, err = f.Create(countName, 5)
	require.NoError(t, err)
	assert.Equal(t, "count = 5", p.String())

	p, err = f.Create(countName)
	require.NoError(t, err)
	assert.Equal(t, "count = []", p.String())
}
