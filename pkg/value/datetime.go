package value

import (
	"cmp"
	"time"
)

// ISO8601 is the layout of DateTime.String.
const ISO8601 = "2006-01-02T15:04:05.000Z07:00"

// DateTime is a time-zone aware instant with millisecond precision. Equality
// and ordering use the absolute instant, never the wall clock fields.
type DateTime struct {
	t time.Time
}

// Unit is a calendar unit for DateTime arithmetic.
type Unit int

const (
	Millis Unit = iota
	Seconds
	Minutes
	Hours
	Days
	Weeks
	Months
	Years
)

// NewDateTime truncates t to milliseconds and drops any monotonic reading.
func NewDateTime(t time.Time) DateTime {
	return DateTime{t: t.Round(0).Truncate(time.Millisecond)}
}

// DateTimeFromMillis returns the instant ms milliseconds after the Unix epoch
// in loc, or UTC when loc is nil.
func DateTimeFromMillis(ms int64, loc *time.Location) DateTime {
	if loc == nil {
		loc = time.UTC
	}
	return DateTime{t: time.UnixMilli(ms).In(loc)}
}

// Now returns the current instant in the local zone.
func Now() DateTime { return NewDateTime(time.Now()) }

func (d DateTime) Time() time.Time { return d.t }

func (d DateTime) Year() int           { return d.t.Year() }
func (d DateTime) MonthOfYear() int    { return int(d.t.Month()) }
func (d DateTime) DayOfMonth() int     { return d.t.Day() }
func (d DateTime) DayOfYear() int      { return d.t.YearDay() }
func (d DateTime) HourOfDay() int      { return d.t.Hour() }
func (d DateTime) MinuteOfHour() int   { return d.t.Minute() }
func (d DateTime) SecondOfMinute() int { return d.t.Second() }
func (d DateTime) MillisOfSecond() int { return d.t.Nanosecond() / int(time.Millisecond) }

// Milliseconds returns the instant as Unix milliseconds.
func (d DateTime) Milliseconds() int64 { return d.t.UnixMilli() }

// MillisecondsUTC is Milliseconds; Unix time carries no zone.
func (d DateTime) MillisecondsUTC() int64 { return d.t.UnixMilli() }

// DayOfWeek returns the ISO day number, Monday being 1 and Sunday 7.
func (d DateTime) DayOfWeek() int {
	if wd := d.t.Weekday(); wd != time.Sunday {
		return int(wd)
	}
	return 7
}

// Weekyear is the ISO week-numbering year.
func (d DateTime) Weekyear() int {
	year, _ := d.t.ISOWeek()
	return year
}

// WeekOfWeekyear is the ISO week number.
func (d DateTime) WeekOfWeekyear() int {
	_, week := d.t.ISOWeek()
	return week
}

// TimeZoneOffsetHours returns the zone offset, rounded towards zero.
func (d DateTime) TimeZoneOffsetHours() int {
	_, offset := d.t.Zone()
	return offset / 3600
}

// TimeZoneID returns the zone name.
func (d DateTime) TimeZoneID() string {
	return d.t.Location().String()
}

func (d DateTime) ToUTC() DateTime {
	return DateTime{t: d.t.UTC()}
}

// ToTimeZone converts to the named IANA zone.
func (d DateTime) ToTimeZone(name string) (DateTime, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return DateTime{}, err
	}
	return DateTime{t: d.t.In(loc)}, nil
}

func (d DateTime) IsBefore(o DateTime) bool { return d.Compare(o) < 0 }
func (d DateTime) IsAfter(o DateTime) bool  { return d.Compare(o) > 0 }
func (d DateTime) IsSameAs(o DateTime) bool { return d.Compare(o) == 0 }
func (d DateTime) Equal(o DateTime) bool    { return d.Compare(o) == 0 }

func (d DateTime) Compare(o DateTime) int {
	return cmp.Compare(d.t.UnixMilli(), o.t.UnixMilli())
}

// Plus adds n units. Months and years follow calendar arithmetic and
// normalize overflowing days the way time.AddDate does.
func (d DateTime) Plus(n int, unit Unit) DateTime {
	switch unit {
	case Years:
		return DateTime{t: d.t.AddDate(n, 0, 0)}
	case Months:
		return DateTime{t: d.t.AddDate(0, n, 0)}
	case Weeks:
		return DateTime{t: d.t.AddDate(0, 0, 7*n)}
	case Days:
		return DateTime{t: d.t.AddDate(0, 0, n)}
	case Hours:
		return d.PlusDuration(time.Duration(n) * time.Hour)
	case Minutes:
		return d.PlusDuration(time.Duration(n) * time.Minute)
	case Seconds:
		return d.PlusDuration(time.Duration(n) * time.Second)
	default:
		return d.PlusDuration(time.Duration(n) * time.Millisecond)
	}
}

// Minus subtracts n units.
func (d DateTime) Minus(n int, unit Unit) DateTime {
	return d.Plus(-n, unit)
}

func (d DateTime) PlusDuration(dur time.Duration) DateTime {
	return DateTime{t: d.t.Add(dur).Truncate(time.Millisecond)}
}

func (d DateTime) MinusDuration(dur time.Duration) DateTime {
	return d.PlusDuration(-dur)
}

func (d DateTime) String() string {
	return d.t.Format(ISO8601)
}

func (d DateTime) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
