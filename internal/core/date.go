package core

import (
	"fmt"
	"time"
)

// DateFormat is the ISO-8601 day format used everywhere a date is persisted
// or rendered.
const DateFormat = "2006-01-02"

// Date is a calendar day with no time-of-day component. The zero value is
// "no date" (used for optional dates such as a rule's end date).
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate returns a normalized Date. Out-of-range components roll over the
// way time.Date rolls them over.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{t.Year(), t.Month(), t.Day()}
}

// Today returns the current date in local time.
func Today() Date {
	return NewDate(time.Now().Date())
}

// ParseDate parses an ISO-8601 day string ("2024-03-31").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: invalid date %q, want %s", ErrValidation, s, DateFormat)
	}
	return NewDate(t.Date()), nil
}

// MustDate is ParseDate for fixtures; it panics on malformed input.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) time() time.Time {
	return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC)
}

func (d Date) Year() int         { return d.y }
func (d Date) Month() time.Month { return d.m }
func (d Date) Day() int          { return d.d }

// IsZero reports whether d is the "no date" zero value.
func (d Date) IsZero() bool { return d.y == 0 && d.m == 0 && d.d == 0 }

func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }
func (d Date) After(x Date) bool  { return d.time().After(x.time()) }

// String renders the date in ISO-8601 form. The zero value renders empty.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.time().Format(DateFormat)
}

// MonthStart returns the first day of d's month.
func (d Date) MonthStart() Date { return Date{d.y, d.m, 1} }

// AddMonths returns the first day of the month n months after d's month.
func (d Date) AddMonths(n int) Date { return NewDate(d.y, d.m+time.Month(n), 1) }

// MonthKey renders "YYYY-MM" for d's month, the form used in deterministic
// external ids.
func (d Date) MonthKey() string { return d.time().Format("2006-01") }

// LastDayOfMonth returns the number of days in the given month.
func LastDayOfMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay fits a nominal day-of-month into the given month, so day 31
// yields Feb 28 (or 29 in leap years).
func ClampDay(year int, month time.Month, day int) Date {
	last := LastDayOfMonth(year, month)
	if day < 1 {
		day = 1
	}
	if day > last {
		day = last
	}
	return Date{year, month, day}
}
