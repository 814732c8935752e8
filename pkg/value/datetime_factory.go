package value

import (
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"

	"github.com/duynguyendang/contentgraph/pkg/text"
)

// DateTimeFactory creates DateTime values. Numbers are Unix milliseconds.
type DateTimeFactory struct {
	dispatcher[DateTime]
	location *time.Location
}

var _ ValueFactory[DateTime] = (*DateTimeFactory)(nil)

// NewDateTimeFactory creates a factory that places zone-less input in loc, or
// UTC when loc is nil.
func NewDateTimeFactory(loc *time.Location) *DateTimeFactory {
	if loc == nil {
		loc = time.UTC
	}
	f := &DateTimeFactory{location: loc}
	f.dispatcher = dispatcher[DateTime]{typ: TypeDate, conv: f}
	return f
}

// CreateString parses ISO-8601 first and falls back to lenient parsing of the
// common date layouts.
func (f *DateTimeFactory) CreateString(s string, dec text.Decoder) (DateTime, error) {
	s = decodeTrim(s, dec)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return NewDateTime(t), nil
	}
	t, err := dateparse.ParseIn(s, f.location)
	if err != nil {
		return DateTime{}, f.invalid(s, err)
	}
	return NewDateTime(t), nil
}

func (f *DateTimeFactory) CreateInt64(v int64) (DateTime, error) {
	return DateTimeFromMillis(v, f.location), nil
}

func (f *DateTimeFactory) CreateFloat64(v float64) (DateTime, error) {
	ms, err := floatToInt64(v)
	if err != nil {
		return DateTime{}, f.invalid(v, err)
	}
	return DateTimeFromMillis(ms, f.location), nil
}

func (f *DateTimeFactory) CreateDecimal(v decimal.Decimal) (DateTime, error) {
	ms, err := decimalToInt64(v)
	if err != nil {
		return DateTime{}, f.invalid(v, err)
	}
	return DateTimeFromMillis(ms, f.location), nil
}

func (f *DateTimeFactory) CreateTime(v time.Time) (DateTime, error) {
	return NewDateTime(v), nil
}

func (f *DateTimeFactory) CreateDateTime(v DateTime) (DateTime, error) {
	return v, nil
}
