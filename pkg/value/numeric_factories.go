package value

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/duynguyendang/contentgraph/pkg/text"
)

// LongFactory creates int64 values. Dates convert to Unix milliseconds.
type LongFactory struct {
	dispatcher[int64]
}

var _ ValueFactory[int64] = (*LongFactory)(nil)

func NewLongFactory() *LongFactory {
	f := &LongFactory{}
	f.dispatcher = dispatcher[int64]{typ: TypeLong, conv: f}
	return f
}

func (f *LongFactory) CreateString(s string, dec text.Decoder) (int64, error) {
	s = decodeTrim(s, dec)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, f.invalid(s, err)
	}
	return v, nil
}

func (f *LongFactory) CreateInt64(v int64) (int64, error)     { return v, nil }
func (f *LongFactory) CreateFloat64(v float64) (int64, error) {
	n, err := floatToInt64(v)
	if err != nil {
		return 0, f.invalid(v, err)
	}
	return n, nil
}

func (f *LongFactory) CreateDecimal(v decimal.Decimal) (int64, error) {
	n, err := decimalToInt64(v)
	if err != nil {
		return 0, f.invalid(v, err)
	}
	return n, nil
}

func (f *LongFactory) CreateTime(v time.Time) (int64, error) { return v.UnixMilli(), nil }

func (f *LongFactory) CreateDateTime(v DateTime) (int64, error) { return v.Milliseconds(), nil }

// DoubleFactory creates float64 values.
type DoubleFactory struct {
	dispatcher[float64]
}

var _ ValueFactory[float64] = (*DoubleFactory)(nil)

func NewDoubleFactory() *DoubleFactory {
	f := &DoubleFactory{}
	f.dispatcher = dispatcher[float64]{typ: TypeDouble, conv: f}
	return f
}

func (f *DoubleFactory) CreateString(s string, dec text.Decoder) (float64, error) {
	s = decodeTrim(s, dec)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, f.invalid(s, err)
	}
	return v, nil
}

func (f *DoubleFactory) CreateInt64(v int64) (float64, error)     { return float64(v), nil }
func (f *DoubleFactory) CreateFloat64(v float64) (float64, error) { return v, nil }

func (f *DoubleFactory) CreateDecimal(v decimal.Decimal) (float64, error) {
	return v.InexactFloat64(), nil
}

func (f *DoubleFactory) CreateTime(v time.Time) (float64, error) {
	return float64(v.UnixMilli()), nil
}

func (f *DoubleFactory) CreateDateTime(v DateTime) (float64, error) {
	return float64(v.Milliseconds()), nil
}

// DecimalFactory creates arbitrary precision decimals.
type DecimalFactory struct {
	dispatcher[decimal.Decimal]
}

var _ ValueFactory[decimal.Decimal] = (*DecimalFactory)(nil)

func NewDecimalFactory() *DecimalFactory {
	f := &DecimalFactory{}
	f.dispatcher = dispatcher[decimal.Decimal]{typ: TypeDecimal, conv: f}
	return f
}

func (f *DecimalFactory) CreateString(s string, dec text.Decoder) (decimal.Decimal, error) {
	s = decodeTrim(s, dec)
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, f.invalid(s, err)
	}
	return v, nil
}

func (f *DecimalFactory) CreateInt64(v int64) (decimal.Decimal, error) {
	return decimal.NewFromInt(v), nil
}

func (f *DecimalFactory) CreateFloat64(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Decimal{}, f.invalid(v, errNotFinite)
	}
	return decimal.NewFromFloat(v), nil
}

func (f *DecimalFactory) CreateDecimal(v decimal.Decimal) (decimal.Decimal, error) {
	return v, nil
}

func (f *DecimalFactory) CreateTime(v time.Time) (decimal.Decimal, error) {
	return decimal.NewFromInt(v.UnixMilli()), nil
}

func (f *DecimalFactory) CreateDateTime(v DateTime) (decimal.Decimal, error) {
	return decimal.NewFromInt(v.Milliseconds()), nil
}

// BooleanFactory accepts only booleans and the strings "true" and "false" in
// any case.
type BooleanFactory struct {
	dispatcher[bool]
}

var _ ValueFactory[bool] = (*BooleanFactory)(nil)

func NewBooleanFactory() *BooleanFactory {
	f := &BooleanFactory{}
	f.dispatcher = dispatcher[bool]{typ: TypeBoolean, conv: f}
	return f
}

func (f *BooleanFactory) CreateString(s string, dec text.Decoder) (bool, error) {
	s = decodeTrim(s, dec)
	switch {
	case strings.EqualFold(s, "true"):
		return true, nil
	case strings.EqualFold(s, "false"):
		return false, nil
	}
	return false, f.invalid(s, nil)
}

func (f *BooleanFactory) CreateBool(v bool) (bool, error) { return v, nil }

var (
	errNotFinite  = errors.New("value is not a finite number")
	errOutOfRange = errors.New("value out of int64 range")
)

// floatToInt64 truncates v toward zero.
func floatToInt64(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	// 2^63 is exact in float64; MaxInt64 is not.
	if v < math.MinInt64 || v >= -math.MinInt64 {
		return 0, errOutOfRange
	}
	return int64(v), nil
}

// decimalToInt64 truncates v toward zero.
func decimalToInt64(v decimal.Decimal) (int64, error) {
	n := v.BigInt()
	if !n.IsInt64() {
		return 0, errOutOfRange
	}
	return n.Int64(), nil
}

func decodeTrim(s string, dec text.Decoder) string {
	if dec != nil {
		s = dec.Decode(s)
	}
	return strings.TrimSpace(s)
}
