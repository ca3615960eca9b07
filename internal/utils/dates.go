package utils

import (
	"fmt"
	"time"
)

// DateLayout is the canonical calendar date format (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// ParseDate parses an ISO calendar date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ValidateDate returns an error unless s is a valid ISO calendar date.
func ValidateDate(s string) error {
	_, err := ParseDate(s, time.UTC)
	return err
}

// FormatDate renders t as YYYY-MM-DD in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout)
}

// DaysBetween returns the number of calendar days from a to b (b - a).
// Both are ISO dates; ok is false when either fails to parse.
func DaysBetween(a, b string) (days int, ok bool) {
	ta, err := ParseDate(a, time.UTC)
	if err != nil {
		return 0, false
	}
	tb, err := ParseDate(b, time.UTC)
	if err != nil {
		return 0, false
	}
	return int(tb.Sub(ta).Hours() / 24), true
}
