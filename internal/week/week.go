// Package week resolves the Monday-to-Sunday week containing a reference
// date into a UTC instant range suitable for a Clockify query.
package week

import (
	"time"

	naturaldate "github.com/tj/go-naturaldate"
)

// Range is the half-open [Start, End) UTC instant range of one week:
// Monday 00:00 local up to the following Monday 00:00 local.
type Range struct {
	Start time.Time
	End   time.Time
}

// Resolve returns the week range containing ref, interpreted in loc.
// Weeks start on Monday.
func Resolve(ref time.Time, loc *time.Location) Range {
	local := ref.In(loc)

	// time.Weekday numbers Sunday as 0; shift so Monday is 0.
	daysSinceMonday := (int(local.Weekday()) + 6) % 7
	monday := time.Date(local.Year(), local.Month(), local.Day()-daysSinceMonday, 0, 0, 0, 0, loc)
	nextMonday := time.Date(monday.Year(), monday.Month(), monday.Day()+7, 0, 0, 0, 0, loc)

	return Range{Start: monday.UTC(), End: nextMonday.UTC()}
}

// Days lists the seven local calendar dates of the range as "2006-01-02"
// keys, Monday first.
func (r Range) Days(loc *time.Location) []string {
	days := make([]string, 0, 7)
	start := r.Start.In(loc)
	for i := 0; i < 7; i++ {
		days = append(days, start.AddDate(0, 0, i).Format("2006-01-02"))
	}
	return days
}

// ParseReference interprets a user-supplied reference date. It accepts
// ISO YYYY-MM-DD first, then natural language ("last tuesday", "today").
// An empty input means now; an unparsable input also falls back to now,
// with ok=false so the caller can tell the user.
func ParseReference(input string, now time.Time, loc *time.Location) (ref time.Time, ok bool) {
	if input == "" {
		return now.In(loc), true
	}

	if t, err := time.ParseInLocation("2006-01-02", input, loc); err == nil {
		return t, true
	}

	if t, err := naturaldate.Parse(input, now.In(loc), naturaldate.WithDirection(naturaldate.Past)); err == nil {
		return t.In(loc), true
	}

	return now.In(loc), false
}
