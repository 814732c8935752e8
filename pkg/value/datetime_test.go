package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateTime_Fields(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)
	d := NewDateTime(time.Date(2008, time.May, 30, 13, 55, 4, 123456789, loc))

	assert.Equal(t, 2008, d.Year())
	assert.Equal(t, 5, d.MonthOfYear())
	assert.Equal(t, 30, d.DayOfMonth())
	assert.Equal(t, 151, d.DayOfYear())
	assert.Equal(t, 13, d.HourOfDay())
	assert.Equal(t, 55, d.MinuteOfHour())
	assert.Equal(t, 4, d.SecondOfMinute())
	assert.Equal(t, 123, d.MillisOfSecond())
	assert.Equal(t, 5, d.DayOfWeek(), "Friday")
	assert.Equal(t, 2008, d.Weekyear())
	assert.Equal(t, 22, d.WeekOfWeekyear())
	assert.Equal(t, -5, d.TimeZoneOffsetHours())
	assert.Equal(t, "EST", d.TimeZoneID())
	assert.Equal(t, "2008-05-30T13:55:04.123-05:00", d.String())

	sunday := NewDateTime(time.Date(2008, time.June, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 7, sunday.DayOfWeek())

	// 2010-01-03 belongs to the last ISO week of 2009.
	early := NewDateTime(time.Date(2010, time.January, 3, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2009, early.Weekyear())
	assert.Equal(t, 53, early.WeekOfWeekyear())
}

func TestDateTime_InstantEquality(t *testing.T) {
	utc := NewDateTime(time.Date(2008, 5, 30, 18, 0, 0, 0, time.UTC))
	est, err := utc.ToTimeZone("America/New_York")
	if err != nil {
		t.Skipf("zone database unavailable: %v", err)
	}

	assert.True(t, utc.Equal(est))
	assert.True(t, utc.IsSameAs(est))
	assert.NotEqual(t, utc.HourOfDay(), est.HourOfDay())
	assert.Equal(t, utc.Milliseconds(), est.MillisecondsUTC())
	assert.True(t, est.ToUTC().Equal(utc))
	assert.Equal(t, 0, est.ToUTC().TimeZoneOffsetHours())

	_, err = utc.ToTimeZone("Nowhere/Special")
	assert.Error(t, err)
}

func TestDateTime_MillisecondPrecision(t *testing.T) {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	a := NewDateTime(base.Add(100 * time.Microsecond))
	b := NewDateTime(base.Add(900 * time.Microsecond))

	assert.True(t, a.Equal(b))
	assert.Equal(t, 0, a.MillisOfSecond())

	mono := NewDateTime(time.Now())
	assert.Equal(t, mono.Time(), mono.Time().Round(0), "monotonic reading is stripped")
}

func TestDateTime_Arithmetic(t *testing.T) {
	d := NewDateTime(time.Date(2008, time.January, 31, 10, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		got  DateTime
		want string
	}{
		{"millis", d.Plus(1500, Millis), "2008-01-31T10:00:01.500Z"},
		{"seconds", d.Plus(61, Seconds), "2008-01-31T10:01:01.000Z"},
		{"minutes", d.Minus(30, Minutes), "2008-01-31T09:30:00.000Z"},
		{"hours", d.Plus(14, Hours), "2008-02-01T00:00:00.000Z"},
		{"days", d.Plus(1, Days), "2008-02-01T10:00:00.000Z"},
		{"weeks", d.Minus(1, Weeks), "2008-01-24T10:00:00.000Z"},
		{"months overflow", d.Plus(1, Months), "2008-03-02T10:00:00.000Z"},
		{"years", d.Plus(2, Years), "2010-01-31T10:00:00.000Z"},
		{"duration", d.PlusDuration(90 * time.Minute), "2008-01-31T11:30:00.000Z"},
		{"negative duration", d.MinusDuration(time.Second + 250*time.Millisecond), "2008-01-31T09:59:58.750Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got.String())
		})
	}
}

func TestDateTime_Ordering(t *testing.T) {
	earlier := DateTimeFromMillis(1000, nil)
	later := DateTimeFromMillis(2000, time.FixedZone("X", 3600))

	assert.True(t, earlier.IsBefore(later))
	assert.True(t, later.IsAfter(earlier))
	assert.Equal(t, -1, earlier.Compare(later))
	assert.Equal(t, "UTC", earlier.TimeZoneID())

	text, err := earlier.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1970-01-01T00:00:01.000Z", string(text))
}
