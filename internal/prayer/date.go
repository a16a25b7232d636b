package prayer

import (
	"errors"
	"fmt"
	"time"

	"github.com/ibad-al-rahman/azan/internal/config"
)

// ErrInvalidDate reports a calendar date that does not exist, such as February 30.
var ErrInvalidDate = errors.New(config.ErrInvalidDate)

// Date is a civil calendar date. Schedules are computed for the date as seen
// from 0h UTC.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the Date with the given components. It does not validate them.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(config.DateFormatISO, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// Valid reports whether d names a real day of the proleptic Gregorian calendar.
func (d Date) Valid() bool {
	if d.Year < 1 || d.Year > 9999 {
		return false
	}
	return DateOf(d.Time()) == d
}

// Time returns 0h UTC on d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

// DayOfYear returns the 1-based ordinal day of d within its year.
func (d Date) DayOfYear() int { return d.Time().YearDay() }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
