package util

import (
	"errors"
	"time"
)

var ErrInvalidPeriod = errors.New("period must be in YYYY-MM format")

// NormalizePeriod truncates a date to the first day of its month in UTC.
// Billing periods are always stored in this canonical form.
func NormalizePeriod(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthBounds returns the first and last calendar day of the month containing t.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	first := NormalizePeriod(t)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// ParsePeriod parses a "YYYY-MM" string into a normalized billing period.
func ParsePeriod(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, ErrInvalidPeriod
	}
	return NormalizePeriod(t), nil
}

// FormatPeriod renders a billing period as "YYYY-MM".
func FormatPeriod(t time.Time) string {
	return t.Format("2006-01")
}
