package value

import (
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/duynguyendang/contentgraph/pkg/namespace"
	"github.com/duynguyendang/contentgraph/pkg/text"
)

// StringFactory renders values as strings. Names and paths are rendered with
// the prefixes of its registry.
type StringFactory struct {
	dispatcher[string]
	registry namespace.Registry
	encoder  text.Encoder
}

var _ ValueFactory[string] = (*StringFactory)(nil)

func NewStringFactory(reg namespace.Registry, enc text.Encoder) *StringFactory {
	f := &StringFactory{registry: reg, encoder: text.OrDefaultEncoder(enc)}
	f.dispatcher = dispatcher[string]{typ: TypeString, conv: f}
	return f
}

// CreateString decodes s with dec; a nil decoder leaves s untouched.
func (f *StringFactory) CreateString(s string, dec text.Decoder) (string, error) {
	if dec == nil {
		return s, nil
	}
	return dec.Decode(s), nil
}

func (f *StringFactory) CreateInt64(v int64) (string, error) {
	return strconv.FormatInt(v, 10), nil
}

func (f *StringFactory) CreateFloat64(v float64) (string, error) {
	return strconv.FormatFloat(v, 'f', -1, 64), nil
}

func (f *StringFactory) CreateBool(v bool) (string, error) {
	return strconv.FormatBool(v), nil
}

func (f *StringFactory) CreateDecimal(v decimal.Decimal) (string, error) {
	return v.String(), nil
}

func (f *StringFactory) CreateTime(v time.Time) (string, error) {
	return NewDateTime(v).String(), nil
}

func (f *StringFactory) CreateDateTime(v DateTime) (string, error) {
	return v.String(), nil
}

func (f *StringFactory) CreateName(v Name) (string, error) {
	return v.StringWith(f.registry, f.encoder, nil), nil
}

func (f *StringFactory) CreatePath(v *Path) (string, error) {
	if v == nil {
		return f.reject(nil)
	}
	return v.StringWith(f.registry, f.encoder, nil), nil
}

func (f *StringFactory) CreateSegment(v Segment) (string, error) {
	return v.StringWith(f.registry, f.encoder, nil), nil
}

func (f *StringFactory) CreateReference(v Reference) (string, error) {
	return v.String(), nil
}

func (f *StringFactory) CreateURI(v *url.URL) (string, error) {
	if v == nil {
		return f.reject(nil)
	}
	return v.String(), nil
}

func (f *StringFactory) CreateUUID(v uuid.UUID) (string, error) {
	return v.String(), nil
}
