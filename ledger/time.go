package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day without a clock or a zone
// =============================================================================

// Date is a civil calendar day. It is comparable and safe to use as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// NewDate normalizes overflowing components the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a strict YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date { return DateOf(d.Time().AddDate(0, 0, n)) }

func (d Date) Before(o Date) bool { return d.compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.compare(o) > 0 }
func (d Date) IsZero() bool       { return d == Date{} }

func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return d.Year - o.Year
	case d.Month != o.Month:
		return int(d.Month) - int(o.Month)
	default:
		return d.Day - o.Day
	}
}

func StartOfMonth(year int, month time.Month) Date { return Date{Year: year, Month: month, Day: 1} }

// EndOfMonth respects month length and leap years.
func EndOfMonth(year int, month time.Month) Date {
	return NewDate(year, month+1, 1).AddDays(-1)
}

func StartOfYear(year int) Date { return Date{Year: year, Month: time.January, Day: 1} }
func EndOfYear(year int) Date   { return Date{Year: year, Month: time.December, Day: 31} }

// =============================================================================
// CLOCK TIME - Minutes since midnight
// =============================================================================

// ClockTime counts minutes since midnight. Punch times stay within a day
// (0..1439); derived values such as an expected exit may run past 24:00.
type ClockTime int

const MinutesPerDay = 24 * 60

// NewClockTime builds a clock time from hours and minutes.
func NewClockTime(hour, minute int) ClockTime { return ClockTime(hour*60 + minute) }

// ParseClockTime parses a strict HH:MM string within a single day.
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil || len(s) != 5 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	return NewClockTime(t.Hour(), t.Minute()), nil
}

func (c ClockTime) Hour() int   { return int(c) / 60 % 24 }
func (c ClockTime) Minute() int { return int(c) % 60 }

// DayOffset is the number of midnights crossed, e.g. 1 for 25:10.
func (c ClockTime) DayOffset() int { return int(c) / MinutesPerDay }

// Sub returns c-o in minutes. The result may be negative.
func (c ClockTime) Sub(o ClockTime) int { return int(c) - int(o) }

func (c ClockTime) Add(minutes int) ClockTime { return c + ClockTime(minutes) }

// String renders HH:MM on a 24h clock, wrapping past midnight.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On returns the wall-clock instant of c on day d, carrying day overflow.
func (c ClockTime) On(d Date, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, int(c), 0, 0, loc)
}
