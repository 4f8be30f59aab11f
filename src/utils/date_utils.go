package utils

import (
	"fmt"
	"time"
)

const DayFormat = "2006-01-02"

// ParseDay parses a YYYY-MM-DD calendar date. The date is interpreted in UTC.
func ParseDay(dateStr string) (time.Time, error) {
	t, err := time.Parse(DayFormat, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", dateStr, err)
	}
	return t, nil
}

// StartOfDayMillis returns the epoch milliseconds for 00:00:00.000 of the day.
func StartOfDayMillis(day time.Time) int64 {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start.UnixMilli()
}

// EndOfDayMillis returns the epoch milliseconds for 23:59:59.999 of the day.
func EndOfDayMillis(day time.Time) int64 {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start.AddDate(0, 0, 1).UnixMilli() - 1
}

// FromMillis converts an epoch-milliseconds timestamp to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
