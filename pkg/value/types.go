// Package value implements the content graph value model: names, paths,
// binaries, dates and references, and the factories that convert between
// their representations.
//
// Values are immutable once built and safe to share between goroutines.
package value

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
)

// PropertyType identifies the kind of a property value. The declaration order
// is the order used when comparing values of different kinds.
type PropertyType int

const (
	TypeString PropertyType = iota
	TypeBinary
	TypeLong
	TypeDouble
	TypeDecimal
	TypeDate
	TypeBoolean
	TypeName
	TypePath
	TypeReference
	TypeWeakReference
	TypeURI
	TypeUUID
	TypeObject
)

var propertyTypeNames = [...]string{
	TypeString:        "String",
	TypeBinary:        "Binary",
	TypeLong:          "Long",
	TypeDouble:        "Double",
	TypeDecimal:       "Decimal",
	TypeDate:          "Date",
	TypeBoolean:       "Boolean",
	TypeName:          "Name",
	TypePath:          "Path",
	TypeReference:     "Reference",
	TypeWeakReference: "WeakReference",
	TypeURI:           "URI",
	TypeUUID:          "UUID",
	TypeObject:        "Object",
}

func (t PropertyType) String() string {
	if t < 0 || int(t) >= len(propertyTypeNames) {
		return fmt.Sprintf("PropertyType(%d)", int(t))
	}
	return propertyTypeNames[t]
}

// PropertyTypes lists every type in declaration order.
func PropertyTypes() []PropertyType {
	types := make([]PropertyType, len(propertyTypeNames))
	for i := range types {
		types[i] = PropertyType(i)
	}
	return types
}

// ParsePropertyType matches a type name case-insensitively.
func ParsePropertyType(s string) (PropertyType, error) {
	s = strings.TrimSpace(s)
	for i, name := range propertyTypeNames {
		if strings.EqualFold(name, s) {
			return PropertyType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown property type %q", cgerrors.ErrInvalidInput, s)
}

// TypeOf returns the property type a factory would infer for v.
func TypeOf(v any) PropertyType {
	switch x := v.(type) {
	case string:
		return TypeString
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeLong
	case float32, float64:
		return TypeDouble
	case decimal.Decimal:
		return TypeDecimal
	case time.Time, DateTime:
		return TypeDate
	case bool:
		return TypeBoolean
	case Name:
		return TypeName
	case *Path, Segment:
		return TypePath
	case Reference:
		if x.IsWeak() {
			return TypeWeakReference
		}
		return TypeReference
	case *url.URL:
		return TypeURI
	case uuid.UUID:
		return TypeUUID
	case Binary, []byte, io.Reader:
		return TypeBinary
	}
	return TypeObject
}
