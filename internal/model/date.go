package model

import (
	"fmt"
	"time"
)

// DateLayout is the storage and display form of calendar dates.
const DateLayout = "2006-01-02"

// MonthLayout is the CLI form of a budget month.
const MonthLayout = "2006-01"

// Day truncates t to its calendar date at UTC midnight. Dates in this package
// carry no time-of-day and are always compared in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate reads a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// ParseMonth reads YYYY-MM (or a full date) and returns the first of that month.
func ParseMonth(s string) (time.Time, error) {
	if t, err := time.Parse(MonthLayout, s); err == nil {
		return MonthStart(t), nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing month %q: want YYYY-MM", s)
	}
	return MonthStart(t), nil
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), 1)
}

// NextMonth returns the first day of the month after t's month.
func NextMonth(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, 0)
}

// DaysIn returns the number of days in t's month.
func DaysIn(t time.Time) int {
	return NextMonth(t).AddDate(0, 0, -1).Day()
}

// DaysBetween counts whole days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
