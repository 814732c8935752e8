// Package property models named, immutable property values built through the
// value factories.
package property

import (
	"cmp"
	"fmt"
	"iter"
	"strings"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
	"github.com/duynguyendang/contentgraph/pkg/namespace"
	"github.com/duynguyendang/contentgraph/pkg/value"
)

// Property is a name with zero or more values of one property type.
type Property interface {
	Name() value.Name
	Type() value.PropertyType
	Size() int
	IsEmpty() bool
	IsSingle() bool
	IsMultiple() bool
	// FirstValue returns nil for an empty property.
	FirstValue() any
	// Values returns a copy of the values.
	Values() []any
	ValueAt(i int) (any, error)
	All() iter.Seq2[int, any]
	String() string
	StringWith(reg namespace.Registry) string
}

func newProperty(name value.Name, typ value.PropertyType, values []any) Property {
	switch len(values) {
	case 0:
		return emptyProperty{name: name, typ: typ}
	case 1:
		return singleProperty{name: name, typ: typ, value: values[0]}
	}
	return multiProperty{name: name, typ: typ, values: values}
}

type emptyProperty struct {
	name value.Name
	typ  value.PropertyType
}

func (p emptyProperty) Name() value.Name         { return p.name }
func (p emptyProperty) Type() value.PropertyType { return p.typ }
func (p emptyProperty) Size() int                { return 0 }
func (p emptyProperty) IsEmpty() bool            { return true }
func (p emptyProperty) IsSingle() bool           { return false }
func (p emptyProperty) IsMultiple() bool         { return false }
func (p emptyProperty) FirstValue() any          { return nil }
func (p emptyProperty) Values() []any            { return []any{} }
func (p emptyProperty) All() iter.Seq2[int, any] { return func(func(int, any) bool) {} }
func (p emptyProperty) String() string           { return render(p, nil) }

func (p emptyProperty) StringWith(reg namespace.Registry) string { return render(p, reg) }

func (p emptyProperty) ValueAt(i int) (any, error) {
	return nil, outOfRange(p, i)
}

type singleProperty struct {
	name  value.Name
	typ   value.PropertyType
	value any
}

func (p singleProperty) Name() value.Name         { return p.name }
func (p singleProperty) Type() value.PropertyType { return p.typ }
func (p singleProperty) Size() int                { return 1 }
func (p singleProperty) IsEmpty() bool            { return false }
func (p singleProperty) IsSingle() bool           { return true }
func (p singleProperty) IsMultiple() bool         { return false }
func (p singleProperty) FirstValue() any          { return p.value }
func (p singleProperty) Values() []any            { return []any{p.value} }
func (p singleProperty) String() string           { return render(p, nil) }

func (p singleProperty) StringWith(reg namespace.Registry) string { return render(p, reg) }

func (p singleProperty) ValueAt(i int) (any, error) {
	if i != 0 {
		return nil, outOfRange(p, i)
	}
	return p.value, nil
}

func (p singleProperty) All() iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		yield(0, p.value)
	}
}

type multiProperty struct {
	name   value.Name
	typ    value.PropertyType
	values []any
}

func (p multiProperty) Name() value.Name         { return p.name }
func (p multiProperty) Type() value.PropertyType { return p.typ }
func (p multiProperty) Size() int                { return len(p.values) }
func (p multiProperty) IsEmpty() bool            { return false }
func (p multiProperty) IsSingle() bool           { return false }
func (p multiProperty) IsMultiple() bool         { return true }
func (p multiProperty) FirstValue() any          { return p.values[0] }
func (p multiProperty) String() string           { return render(p, nil) }

func (p multiProperty) StringWith(reg namespace.Registry) string { return render(p, reg) }

func (p multiProperty) Values() []any {
	return append([]any(nil), p.values...)
}

func (p multiProperty) ValueAt(i int) (any, error) {
	if i < 0 || i >= len(p.values) {
		return nil, outOfRange(p, i)
	}
	return p.values[i], nil
}

func (p multiProperty) All() iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		for i, v := range p.values {
			if !yield(i, v) {
				return
			}
		}
	}
}

func outOfRange(p Property, i int) error {
	return fmt.Errorf("%w: property %s has no value at %d (size %d)", cgerrors.ErrOutOfBounds, p.Name(), i, p.Size())
}

// render prints "name = value" or "name = [v1, v2]".
func render(p Property, reg namespace.Registry) string {
	var sb strings.Builder
	sb.WriteString(p.Name().StringWith(reg, nil, nil))
	sb.WriteString(" = ")
	if p.IsSingle() {
		sb.WriteString(renderValue(p.FirstValue(), reg))
		return sb.String()
	}
	sb.WriteByte('[')
	for i, v := range p.All() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(renderValue(v, reg))
	}
	sb.WriteByte(']')
	return sb.String()
}

func renderValue(v any, reg namespace.Registry) string {
	switch x := v.(type) {
	case value.Name:
		return x.StringWith(reg, nil, nil)
	case *value.Path:
		return x.StringWith(reg, nil, nil)
	case value.Segment:
		return x.StringWith(reg, nil, nil)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// Compare orders by name, then number of values, then value by value.
func Compare(a, b Property) int {
	if c := a.Name().Compare(b.Name()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Size(), b.Size()); c != 0 {
		return c
	}
	theirs := b.Values()
	for i, v := range a.All() {
		if c := value.Compare(v, theirs[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Equal reports whether both properties have the same name and equal values
// in the same order.
func Equal(a, b Property) bool {
	if a == nil || b == nil {
		return a == b
	}
	return Compare(a, b) == 0
}
