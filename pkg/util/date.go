package util

import (
    "strconv"
    "time"
)

// ParseTime tries RFC3339, RFC3339Nano, YYYY-MM-DD, and unix seconds. Returns (t, true) if any worked.
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
    if t, err := time.Parse("2006-01-02", s); err == nil {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0), true
    }
    return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
    if t, ok := ParseTime(s); ok {
        return t
    }
    return def
}

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, bool) {
    t, err := time.Parse("2006-01-02", s)
    if err != nil {
        return time.Time{}, false
    }
    return t.UTC(), true
}

// Midnight truncates a time to its UTC calendar day.
func Midnight(t time.Time) time.Time {
    y, m, d := t.UTC().Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AlignDays rounds a time range down to UTC day boundaries.
func AlignDays(from, to time.Time) (time.Time, time.Time) {
    return Midnight(from), Midnight(to)
}

// DaysBetween counts whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
    return int(Midnight(b).Sub(Midnight(a)) / (24 * time.Hour))
}
