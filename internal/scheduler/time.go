// Package scheduler holds the pure scheduling rules: clock arithmetic over
// the office's HH:MM time strings, the time-based edit lock, and overlap
// detection across a broker's day.
package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// EndOfDay is the sentinel end time meaning midnight of the next day.
const EndOfDay = "24:00"

// ErrInvalidClock indicates a time string is not HH:MM within range.
var ErrInvalidClock = errors.New("scheduler: invalid clock time")

// ErrInvalidDate indicates a date string is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("scheduler: invalid date")

// ClockMinutes converts an HH:MM string to minutes since midnight. The
// "24:00" sentinel maps to 1440.
func ClockMinutes(clock string) (int, error) {
	if clock == EndOfDay {
		return 24 * 60, nil
	}
	var h, m int
	if _, err := fmt.Sscanf(clock, "%02d:%02d", &h, &m); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	return h*60 + m, nil
}

// ValidRange reports whether start < end, allowing the end-of-day sentinel.
func ValidRange(start, end string) bool {
	s, err := ClockMinutes(start)
	if err != nil || start == EndOfDay {
		return false
	}
	e, err := ClockMinutes(end)
	if err != nil {
		return false
	}
	return s < e
}

// ParseDate parses a YYYY-MM-DD string as a civil date in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

// CombineDateTime resolves a date plus clock string to an instant in loc.
// The end-of-day sentinel resolves to midnight of the following day.
func CombineDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	minutes, err := ClockMinutes(clock)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(minutes) * time.Minute), nil
}

// FormatDateBR renders a YYYY-MM-DD date as DD/MM/YYYY for display.
func FormatDateBR(date string) string {
	if len(date) != 10 {
		return date
	}
	return date[8:10] + "/" + date[5:7] + "/" + date[0:4]
}

// FormatTimestampBR renders an instant the way the office reads audit rows.
func FormatTimestampBR(t time.Time) string {
	return t.Format("02/01/2006 15:04:05")
}
