package core

import (
	"time"
)

// DateLayout is the calendar date rendering used in exports
const DateLayout = "2006-01-02"

// Day truncates t to midnight of its calendar day in t's own location
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FormatDate renders the local calendar fields of t as YYYY-MM-DD
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date in loc
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// Clock supplies the current time; tests pin it.
type Clock func() time.Time

// SystemClock returns time.Now
func SystemClock() time.Time { return time.Now() }

// DateKey orders calendar days by their local fields (yyyymmdd)
func DateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
