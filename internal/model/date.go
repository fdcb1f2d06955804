package model

import (
    "regexp"
    "time"
)

// DateLayout and TimeLayout are the wire and storage formats of slot
// days and start times.
const (
    DateLayout = "2006-01-02"
    TimeLayout = "15:04"
)

var timeRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ParseDate parses a "YYYY-MM-DD" day as midnight UTC.
func ParseDate(s string) (time.Time, bool) {
    t, err := time.Parse(DateLayout, s)
    if err != nil {
        return time.Time{}, false
    }
    return t, true
}

// ValidDate reports whether s is a real calendar day in "YYYY-MM-DD" form.
func ValidDate(s string) bool {
    _, ok := ParseDate(s)
    return ok
}

// ValidTime reports whether s is a 24h "HH:MM" time.
func ValidTime(s string) bool { return timeRe.MatchString(s) }

// FormatDate renders the calendar day of t.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// Today returns the current calendar day in loc.
func Today(now time.Time, loc *time.Location) string {
    if loc == nil {
        loc = time.UTC
    }
    return now.In(loc).Format(DateLayout)
}
