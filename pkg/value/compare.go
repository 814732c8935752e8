package value

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Compare orders two values of any supported kind. Values of different
// property types order by type; nil sorts first.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	ta, tb := TypeOf(a), TypeOf(b)
	if ta != tb {
		return cmp.Compare(ta, tb)
	}

	switch ta {
	case TypeString:
		return cmp.Compare(a.(string), b.(string))
	case TypeLong:
		return compareIntegers(a, b)
	case TypeDouble:
		return cmp.Compare(toFloat64(a), toFloat64(b))
	case TypeDecimal:
		return a.(decimal.Decimal).Cmp(b.(decimal.Decimal))
	case TypeDate:
		return toDateTime(a).Compare(toDateTime(b))
	case TypeBoolean:
		return compareBools(a.(bool), b.(bool))
	case TypeName:
		return a.(Name).Compare(b.(Name))
	case TypePath:
		return toPath(a).Compare(toPath(b))
	case TypeReference, TypeWeakReference:
		return a.(Reference).Compare(b.(Reference))
	case TypeURI:
		return cmp.Compare(a.(*url.URL).String(), b.(*url.URL).String())
	case TypeUUID:
		ua, ub := a.(uuid.UUID), b.(uuid.UUID)
		return bytes.Compare(ua[:], ub[:])
	case TypeBinary:
		if ba, bb, ok := bothBinaries(a, b); ok {
			return CompareBinaries(ba, bb)
		}
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// Equal reports whether Compare considers a and b the same.
func Equal(a, b any) bool {
	return Compare(a, b) == 0
}

func compareIntegers(a, b any) int {
	ua, aUnsigned := a.(uint64)
	ub, bUnsigned := b.(uint64)
	switch {
	case aUnsigned && bUnsigned:
		return cmp.Compare(ua, ub)
	case aUnsigned:
		if ia := toInt64(b); ia < 0 || ua > uint64(ia) {
			return 1
		}
		return cmp.Compare(ua, uint64(toInt64(b)))
	case bUnsigned:
		return -compareIntegers(b, a)
	}
	return cmp.Compare(toInt64(a), toInt64(b))
}

func toInt64(v any) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	}
	return 0
}

func toFloat64(v any) float64 {
	if f, ok := v.(float32); ok {
		return float64(f)
	}
	return v.(float64)
}

func toDateTime(v any) DateTime {
	if t, ok := v.(time.Time); ok {
		return NewDateTime(t)
	}
	return v.(DateTime)
}

func toPath(v any) *Path {
	if s, ok := v.(Segment); ok {
		return newPath([]Segment{s}, false)
	}
	return v.(*Path)
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

func bothBinaries(a, b any) (Binary, Binary, bool) {
	ba, okA := asBinary(a)
	bb, okB := asBinary(b)
	return ba, bb, okA && okB
}

func asBinary(v any) (Binary, bool) {
	switch x := v.(type) {
	case Binary:
		return x, true
	case []byte:
		return NewInMemoryBinary(x), true
	case io.Reader:
		return nil, false
	}
	return nil, false
}
