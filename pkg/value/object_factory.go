package value

import (
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
	"github.com/duynguyendang/contentgraph/pkg/text"
)

// ObjectFactory keeps values as they are. Byte content becomes a Binary and
// Go integer and float kinds are widened to int64 and float64.
type ObjectFactory struct {
	dispatcher[any]
	binaries *BinaryFactory
}

var _ ValueFactory[any] = (*ObjectFactory)(nil)

func NewObjectFactory(binaries *BinaryFactory) *ObjectFactory {
	f := &ObjectFactory{binaries: binaries}
	f.dispatcher = dispatcher[any]{typ: TypeObject, conv: f}
	return f
}

// Create returns values of unknown types unchanged instead of converting them
// to strings.
func (f *ObjectFactory) Create(v any) (any, error) {
	if v == nil {
		return nil, cgerrors.NewValueFormatError(nil, "nil", TypeObject.String(), "no value", nil)
	}
	if TypeOf(v) == TypeObject {
		return v, nil
	}
	return f.dispatch(v)
}

func (f *ObjectFactory) CreateString(s string, dec text.Decoder) (any, error) {
	if dec != nil {
		s = dec.Decode(s)
	}
	return s, nil
}

func (f *ObjectFactory) CreateInt64(v int64) (any, error)             { return v, nil }
func (f *ObjectFactory) CreateFloat64(v float64) (any, error)         { return v, nil }
func (f *ObjectFactory) CreateBool(v bool) (any, error)               { return v, nil }
func (f *ObjectFactory) CreateDecimal(v decimal.Decimal) (any, error) { return v, nil }
func (f *ObjectFactory) CreateTime(v time.Time) (any, error)          { return NewDateTime(v), nil }
func (f *ObjectFactory) CreateDateTime(v DateTime) (any, error)       { return v, nil }
func (f *ObjectFactory) CreateName(v Name) (any, error)               { return v, nil }
func (f *ObjectFactory) CreateSegment(v Segment) (any, error)         { return v, nil }
func (f *ObjectFactory) CreateReference(v Reference) (any, error)     { return v, nil }
func (f *ObjectFactory) CreateUUID(v uuid.UUID) (any, error)          { return v, nil }

func (f *ObjectFactory) CreatePath(v *Path) (any, error) {
	if v == nil {
		return f.reject(nil)
	}
	return v, nil
}

func (f *ObjectFactory) CreateURI(v *url.URL) (any, error) {
	if v == nil {
		return f.reject(nil)
	}
	return v, nil
}

func (f *ObjectFactory) CreateBinary(v Binary) (any, error) {
	return f.binaries.CreateBinary(v)
}

func (f *ObjectFactory) CreateBytes(v []byte) (any, error) {
	return f.binaries.CreateBytes(v)
}

func (f *ObjectFactory) CreateReader(r io.Reader, approxLen int64) (any, error) {
	return f.binaries.CreateReader(r, approxLen)
}
