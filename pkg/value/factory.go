package value

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
	"github.com/duynguyendang/contentgraph/pkg/text"
)

// ValueFactory converts every supported representation into values of type T.
// Conversions that make no sense for T fail with an error matching
// cgerrors.ErrValueFormat; they never coerce silently.
type ValueFactory[T any] interface {
	Type() PropertyType

	// Create dispatches on the dynamic type of v. Unknown types are converted
	// through their fmt string form.
	Create(v any) (T, error)

	CreateString(s string, dec text.Decoder) (T, error)
	CreateInt64(v int64) (T, error)
	CreateFloat64(v float64) (T, error)
	CreateBool(v bool) (T, error)
	CreateDecimal(v decimal.Decimal) (T, error)
	CreateTime(v time.Time) (T, error)
	CreateDateTime(v DateTime) (T, error)
	CreateName(v Name) (T, error)
	CreatePath(v *Path) (T, error)
	CreateSegment(v Segment) (T, error)
	CreateReference(v Reference) (T, error)
	CreateURI(v *url.URL) (T, error)
	CreateUUID(v uuid.UUID) (T, error)
	CreateBinary(v Binary) (T, error)
	CreateBytes(v []byte) (T, error)
	// CreateReader drains r; approxLen is a capacity hint and may be <= 0.
	CreateReader(r io.Reader, approxLen int64) (T, error)

	CreateAll(values []any) ([]T, error)
	// CreateSeq converts lazily as the sequence is consumed.
	CreateSeq(values iter.Seq[any]) iter.Seq2[T, error]
}

// dispatcher carries the behavior shared by all factories. Each factory embeds
// it and overrides the conversions it supports; conv points back at the
// embedding factory so the shared code reaches the overrides.
type dispatcher[T any] struct {
	typ  PropertyType
	conv ValueFactory[T]
}

func (d dispatcher[T]) Type() PropertyType { return d.typ }

func (d dispatcher[T]) Create(v any) (T, error) {
	return d.dispatch(v)
}

func (d dispatcher[T]) dispatch(v any) (T, error) {
	c := d.conv
	switch x := v.(type) {
	case nil:
		var zero T
		return zero, cgerrors.NewValueFormatError(nil, "nil", d.typ.String(), "no value", nil)
	case string:
		return c.CreateString(x, nil)
	case int:
		return c.CreateInt64(int64(x))
	case int8:
		return c.CreateInt64(int64(x))
	case int16:
		return c.CreateInt64(int64(x))
	case int32:
		return c.CreateInt64(int64(x))
	case int64:
		return c.CreateInt64(x)
	case uint:
		return d.fromUint64(uint64(x))
	case uint8:
		return c.CreateInt64(int64(x))
	case uint16:
		return c.CreateInt64(int64(x))
	case uint32:
		return c.CreateInt64(int64(x))
	case uint64:
		return d.fromUint64(x)
	case float32:
		return c.CreateFloat64(float64(x))
	case float64:
		return c.CreateFloat64(x)
	case bool:
		return c.CreateBool(x)
	case decimal.Decimal:
		return c.CreateDecimal(x)
	case *decimal.Decimal:
		return c.CreateDecimal(*x)
	case time.Time:
		return c.CreateTime(x)
	case DateTime:
		return c.CreateDateTime(x)
	case Name:
		return c.CreateName(x)
	case *Path:
		return c.CreatePath(x)
	case Segment:
		return c.CreateSegment(x)
	case Reference:
		return c.CreateReference(x)
	case *url.URL:
		return c.CreateURI(x)
	case url.URL:
		return c.CreateURI(&x)
	case uuid.UUID:
		return c.CreateUUID(x)
	case Binary:
		return c.CreateBinary(x)
	case []byte:
		return c.CreateBytes(x)
	case io.Reader:
		return c.CreateReader(x, -1)
	}
	return c.CreateString(fmt.Sprint(v), nil)
}

func (d dispatcher[T]) fromUint64(v uint64) (T, error) {
	if v > math.MaxInt64 {
		dec, err := decimal.NewFromString(strconv.FormatUint(v, 10))
		if err != nil {
			var zero T
			return zero, d.invalid(v, err)
		}
		return d.conv.CreateDecimal(dec)
	}
	return d.conv.CreateInt64(int64(v))
}

func (d dispatcher[T]) CreateAll(values []any) ([]T, error) {
	out := make([]T, 0, len(values))
	for i, v := range values {
		t, err := d.conv.Create(v)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (d dispatcher[T]) CreateSeq(values iter.Seq[any]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for v := range values {
			if !yield(d.conv.Create(v)) {
				return
			}
		}
	}
}

// reject reports a conversion that is not defined for this factory.
func (d dispatcher[T]) reject(v any) (T, error) {
	var zero T
	return zero, cgerrors.NewValueFormatError(v, TypeOf(v).String(), d.typ.String(), "conversion not supported", nil)
}

// invalid reports a supported conversion that failed on this particular input.
func (d dispatcher[T]) invalid(v any, err error) error {
	return cgerrors.NewValueFormatError(v, TypeOf(v).String(), d.typ.String(), "", err)
}

func (d dispatcher[T]) CreateInt64(v int64) (T, error)             { return d.reject(v) }
func (d dispatcher[T]) CreateFloat64(v float64) (T, error)         { return d.reject(v) }
func (d dispatcher[T]) CreateBool(v bool) (T, error)               { return d.reject(v) }
func (d dispatcher[T]) CreateDecimal(v decimal.Decimal) (T, error) { return d.reject(v) }
func (d dispatcher[T]) CreateTime(v time.Time) (T, error)          { return d.reject(v) }
func (d dispatcher[T]) CreateDateTime(v DateTime) (T, error)       { return d.reject(v) }
func (d dispatcher[T]) CreateName(v Name) (T, error)               { return d.reject(v) }
func (d dispatcher[T]) CreatePath(v *Path) (T, error)              { return d.reject(v) }
func (d dispatcher[T]) CreateSegment(v Segment) (T, error)         { return d.reject(v) }
func (d dispatcher[T]) CreateReference(v Reference) (T, error)     { return d.reject(v) }
func (d dispatcher[T]) CreateURI(v *url.URL) (T, error)            { return d.reject(v) }
func (d dispatcher[T]) CreateUUID(v uuid.UUID) (T, error)          { return d.reject(v) }

// CreateBytes decodes b as UTF-8 text.
func (d dispatcher[T]) CreateBytes(b []byte) (T, error) {
	return d.conv.CreateString(string(b), nil)
}

// CreateBinary reads the whole content and converts it as bytes.
func (d dispatcher[T]) CreateBinary(b Binary) (T, error) {
	if b == nil {
		return d.reject(nil)
	}
	if err := b.Acquire(); err != nil {
		var zero T
		return zero, err
	}
	defer b.Release()
	data, err := b.Bytes()
	if err != nil {
		var zero T
		return zero, cgerrors.IOError("read binary", err)
	}
	return d.conv.CreateBytes(data)
}

// CreateReader drains r and converts the content as bytes.
func (d dispatcher[T]) CreateReader(r io.Reader, approxLen int64) (T, error) {
	data, err := drain(r, approxLen)
	if err != nil {
		var zero T
		return zero, err
	}
	return d.conv.CreateBytes(data)
}

func drain(r io.Reader, approxLen int64) ([]byte, error) {
	if r == nil {
		return nil, cgerrors.IOError("drain reader", io.ErrUnexpectedEOF)
	}
	if approxLen <= 0 || approxLen > 64<<20 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, cgerrors.IOError("drain reader", err)
		}
		return data, nil
	}
	buf := bytes.NewBuffer(make([]byte, 0, approxLen))
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, cgerrors.IOError("drain reader", err)
	}
	return buf.Bytes(), nil
}
