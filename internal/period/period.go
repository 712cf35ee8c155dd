// Package period implements the custom accounting month math. A period is
// identified by a "YYYY-MM" key and bounded by a user-chosen cutoff day
// instead of the calendar month: the period starts on the cutoff day of its
// month and ends one second before the cutoff day of the following month.
//
// Pure calendar arithmetic, no I/O. For a fixed cutoff day, periods are
// totally ordered by string comparison of their keys and contiguous, with
// no gaps or overlaps.
package period

import (
	"fmt"
	"strconv"
	"time"
)

// MinCutoffDay and MaxCutoffDay bound the accepted cutoff configuration.
const (
	MinCutoffDay = 1
	MaxCutoffDay = 31
)

// ValidCutoff reports whether d is an acceptable cutoff day.
func ValidCutoff(d int) bool {
	return d >= MinCutoffDay && d <= MaxCutoffDay
}

// Parse splits a "YYYY-MM" key into its year and month components. Every
// position must match the shape exactly; partial numeric prefixes are not
// accepted.
func Parse(key string) (year int, month time.Month, err error) {
	if len(key) != 7 || key[4] != '-' {
		return 0, 0, fmt.Errorf("invalid period key %q: want YYYY-MM", key)
	}
	for _, i := range [...]int{0, 1, 2, 3, 5, 6} {
		if key[i] < '0' || key[i] > '9' {
			return 0, 0, fmt.Errorf("invalid period key %q: want YYYY-MM", key)
		}
	}
	year, _ = strconv.Atoi(key[:4])
	m, _ := strconv.Atoi(key[5:])
	if m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("invalid period key %q: month out of range", key)
	}
	return year, time.Month(m), nil
}

// Key formats a year and month as a period key.
func Key(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// ForDate returns the period key a date belongs to for the given cutoff
// day. Days before the cutoff belong to the previous calendar month's
// period, rolling the year backward at January. Cutoff days beyond a short
// month's length clamp to that month's last day.
func ForDate(date time.Time, cutoffDay int) string {
	year, month := date.Year(), date.Month()
	if date.Day() < clampDay(year, month, cutoffDay) {
		year, month = prevMonth(year, month)
	}
	return Key(year, month)
}

// Range returns the absolute [start, end] bounds of a period: start is the
// cutoff day of the period's month at 00:00:00 UTC, end is one second
// before the cutoff day of the following month.
func Range(key string, cutoffDay int) (start, end time.Time, err error) {
	year, month, err := Parse(key)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start = startOf(year, month, cutoffDay)
	ny, nm := nextMonth(year, month)
	end = startOf(ny, nm, cutoffDay).Add(-time.Second)
	return start, end, nil
}

// Previous decrements a period key by one month, rolling the year at the
// January boundary. This is the exact inverse step used by the opening
// balance resolver chain.
func Previous(key string) (string, error) {
	year, month, err := Parse(key)
	if err != nil {
		return "", err
	}
	year, month = prevMonth(year, month)
	return Key(year, month), nil
}

// Next increments a period key by one month.
func Next(key string) (string, error) {
	year, month, err := Parse(key)
	if err != nil {
		return "", err
	}
	year, month = nextMonth(year, month)
	return Key(year, month), nil
}

// CalendarMonth returns the calendar month number (1-12) of a period key,
// used to match recurring templates' month-applicability filters.
func CalendarMonth(key string) (int, error) {
	_, month, err := Parse(key)
	if err != nil {
		return 0, err
	}
	return int(month), nil
}

func startOf(year int, month time.Month, cutoffDay int) time.Time {
	return time.Date(year, month, clampDay(year, month, cutoffDay), 0, 0, 0, 0, time.UTC)
}

// clampDay bounds a cutoff day to the number of days in the month, so a
// cutoff of 31 means "last day" in shorter months.
func clampDay(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	if day < MinCutoffDay {
		return MinCutoffDay
	}
	return day
}

func prevMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}
