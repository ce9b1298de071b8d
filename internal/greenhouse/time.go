package greenhouse

import (
	"fmt"
	"time"
)

// Timestamp layouts.
const (
	// MinuteLayout is the seed-file layout and the layout used in command ids.
	MinuteLayout = "2006-01-02 15:04"

	// EventLayout is ISO-8601 to the second, used for bus event timestamps.
	EventLayout = "2006-01-02T15:04:05"

	// DayLayout names a calendar day.
	DayLayout = "2006-01-02"
)

var timestampLayouts = []string{
	MinuteLayout,
	EventLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04",
}

// ParseTimestamp parses s with the first accepted layout that matches.
// Layouts without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// ParseDay parses a "YYYY-MM-DD" day.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	return t, nil
}

// FormatDay renders t as "YYYY-MM-DD".
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// FormatMinute renders t as "YYYY-MM-DD HH:MM".
func FormatMinute(t time.Time) string {
	return t.Format(MinuteLayout)
}

// Days returns n consecutive days starting at from (truncated to the day).
func Days(from time.Time, n int) []time.Time {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	days := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, start.AddDate(0, 0, i))
	}
	return days
}
