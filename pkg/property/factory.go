package property

import (
	"fmt"
	"iter"
	"reflect"

	"github.com/duynguyendang/contentgraph/pkg/value"
)

// Factory creates properties, converting every value to the property's type.
type Factory struct {
	values *value.ValueFactories
	// prepare rewrites each raw value before conversion.
	prepare func(any) any
}

func NewFactory(values *value.ValueFactories) *Factory {
	if values == nil {
		values = value.New(nil)
	}
	return &Factory{values: values}
}

// ValueFactories returns the factories values are converted with.
func (f *Factory) ValueFactories() *value.ValueFactories { return f.values }

// Create builds a property whose type is inferred from the first value.
func (f *Factory) Create(name value.Name, values ...any) (Property, error) {
	values = flatten(values)
	typ := value.TypeObject
	if len(values) > 0 {
		typ = value.TypeOf(values[0])
	}
	return f.build(name, typ, values)
}

// CreateTyped builds a property converting every value to typ. Mixed inputs
// are coerced, not rejected.
func (f *Factory) CreateTyped(name value.Name, typ value.PropertyType, values ...any) (Property, error) {
	return f.build(name, typ, flatten(values))
}

// CreateFromSeq drains seq into a property of type typ.
func (f *Factory) CreateFromSeq(name value.Name, typ value.PropertyType, seq iter.Seq[any]) (Property, error) {
	var values []any
	if seq != nil {
		for v := range seq {
			values = append(values, v)
		}
	}
	return f.build(name, typ, values)
}

func (f *Factory) build(name value.Name, typ value.PropertyType, raw []any) (Property, error) {
	if len(raw) == 0 {
		return newProperty(name, typ, nil), nil
	}
	conv, err := f.values.For(typ)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(raw))
	for i, v := range raw {
		if f.prepare != nil {
			v = f.prepare(v)
		}
		converted, err := conv.Create(v)
		if err != nil {
			return nil, fmt.Errorf("property %s value %d: %w", name, i, err)
		}
		out[i] = converted
	}
	return newProperty(name, typ, out), nil
}

// flatten unwraps a single collection argument one level. Byte slices are
// binary values, not collections.
func flatten(values []any) []any {
	if len(values) != 1 {
		return values
	}
	switch x := values[0].(type) {
	case []any:
		return x
	case iter.Seq[any]:
		var out []any
		for v := range x {
			out = append(out, v)
		}
		return out
	case []byte, string:
		return values
	}
	rv := reflect.ValueOf(values[0])
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return values
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
