package util

import (
	"strconv"
	"time"
)

// ISODate is the wire layout for calendar dates ("YYYY-MM-DD").
const ISODate = time.DateOnly

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseDate parses a calendar date. Full RFC3339 timestamps are accepted and
// truncated to their UTC date portion.
func ParseDate(s string) (time.Time, bool) {
	if t, err := time.Parse(ISODate, s); err == nil {
		return t, true
	}
	if t, ok := ParseTime(s); ok {
		return Day(t), true
	}
	return time.Time{}, false
}

// Day truncates t to midnight UTC of its UTC calendar date.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate renders the UTC date portion of t.
func FormatDate(t time.Time) string {
	return t.UTC().Format(ISODate)
}
