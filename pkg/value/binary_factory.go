package value

import (
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/duynguyendang/contentgraph/pkg/text"
)

// BinaryFactory creates in-memory binaries. Text is stored as UTF-8 and every
// other value through its string form.
type BinaryFactory struct {
	dispatcher[Binary]
	strings *StringFactory
}

var _ ValueFactory[Binary] = (*BinaryFactory)(nil)

func NewBinaryFactory(strings *StringFactory) *BinaryFactory {
	f := &BinaryFactory{strings: strings}
	f.dispatcher = dispatcher[Binary]{typ: TypeBinary, conv: f}
	return f
}

func (f *BinaryFactory) CreateString(s string, dec text.Decoder) (Binary, error) {
	if dec != nil {
		s = dec.Decode(s)
	}
	return NewInMemoryBinary([]byte(s)), nil
}

// CreateBytes copies b.
func (f *BinaryFactory) CreateBytes(b []byte) (Binary, error) {
	return NewInMemoryBinary(append([]byte(nil), b...)), nil
}

func (f *BinaryFactory) CreateReader(r io.Reader, approxLen int64) (Binary, error) {
	data, err := drain(r, approxLen)
	if err != nil {
		return nil, err
	}
	return NewInMemoryBinary(data), nil
}

func (f *BinaryFactory) CreateBinary(v Binary) (Binary, error) {
	if v == nil {
		return f.reject(nil)
	}
	return v, nil
}

func (f *BinaryFactory) viaString(s string, err error) (Binary, error) {
	if err != nil {
		return nil, err
	}
	return NewInMemoryBinary([]byte(s)), nil
}

func (f *BinaryFactory) CreateInt64(v int64) (Binary, error) {
	return f.viaString(f.strings.CreateInt64(v))
}

func (f *BinaryFactory) CreateFloat64(v float64) (Binary, error) {
	return f.viaString(f.strings.CreateFloat64(v))
}

func (f *BinaryFactory) CreateBool(v bool) (Binary, error) {
	return f.viaString(f.strings.CreateBool(v))
}

func (f *BinaryFactory) CreateDecimal(v decimal.Decimal) (Binary, error) {
	return f.viaString(f.strings.CreateDecimal(v))
}

func (f *BinaryFactory) CreateTime(v time.Time) (Binary, error) {
	return f.viaString(f.strings.CreateTime(v))
}

func (f *BinaryFactory) CreateDateTime(v DateTime) (Binary, error) {
	return f.viaString(f.strings.CreateDateTime(v))
}

func (f *BinaryFactory) CreateName(v Name) (Binary, error) {
	return f.viaString(f.strings.CreateName(v))
}

func (f *BinaryFactory) CreatePath(v *Path) (Binary, error) {
	return f.viaString(f.strings.CreatePath(v))
}

func (f *BinaryFactory) CreateSegment(v Segment) (Binary, error) {
	return f.viaString(f.strings.CreateSegment(v))
}

func (f *BinaryFactory) CreateReference(v Reference) (Binary, error) {
	return f.viaString(f.strings.CreateReference(v))
}

func (f *BinaryFactory) CreateURI(v *url.URL) (Binary, error) {
	return f.viaString(f.strings.CreateURI(v))
}

func (f *BinaryFactory) CreateUUID(v uuid.UUID) (Binary, error) {
	return f.viaString(f.strings.CreateUUID(v))
}
