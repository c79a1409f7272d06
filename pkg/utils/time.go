package utils

import (
	"time"
)

const (
	// Time format constants
	TimeFormat = "2006-01-02 15:04:05"
	DateFormat = "2006-01-02"
)

// FormatTime format time
func FormatTime(t time.Time) string {
	return t.Format(TimeFormat)
}

// FormatDate format date
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// ParseTime parse time string
func ParseTime(timeStr string) (time.Time, error) {
	return time.Parse(TimeFormat, timeStr)
}

// IsTimeInWindow check if t falls within [start, end)
func IsTimeInWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// WindowsOverlap check if two half-open time windows overlap
func WindowsOverlap(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}

// GetStartOfDay get start time of the day
func GetStartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// GetEndOfDay get end time of the day
func GetEndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}
