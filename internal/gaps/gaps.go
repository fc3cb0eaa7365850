// Package gaps groups tracked time spans by local calendar day and computes
// the free intervals left inside a configured work window.
package gaps

import (
	"sort"
	"time"

	"github.com/jerichosy/gapfill/internal/interval"
)

// Span is a single busy stretch of wall-clock time. Times are absolute
// instants; grouping localizes them to the configured zone.
type Span struct {
	Start time.Time
	End   time.Time
}

// DayKey renders the local calendar date of t as the grouping key.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// GroupByLocalDay buckets spans by the local calendar date they fall on.
// A span crossing local midnight is split at each day boundary so every
// bucket holds only spans fully inside its own day; nothing is dropped or
// double-counted.
func GroupByLocalDay(spans []Span, loc *time.Location) map[string][]Span {
	grouped := make(map[string][]Span)
	for _, s := range spans {
		start := s.Start.In(loc)
		end := s.End.In(loc)
		if !start.Before(end) {
			// Degenerate span; keep it under its start date so the day
			// still shows up in the report.
			key := start.Format("2006-01-02")
			grouped[key] = append(grouped[key], Span{Start: start, End: start})
			continue
		}

		for cur := start; cur.Before(end); {
			nextMidnight := time.Date(cur.Year(), cur.Month(), cur.Day()+1, 0, 0, 0, 0, loc)
			segEnd := end
			if nextMidnight.Before(segEnd) {
				segEnd = nextMidnight
			}
			key := cur.Format("2006-01-02")
			grouped[key] = append(grouped[key], Span{Start: cur, End: segEnd})
			cur = segEnd
		}
	}
	return grouped
}

// SortedDays returns the grouping keys in chronological order.
func SortedDays[V any](grouped map[string]V) []string {
	days := make([]string, 0, len(grouped))
	for day := range grouped {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

// Engine computes per-day gaps. Blocked windows are treated as busy on
// every day regardless of tracked spans, so fillers never cover them.
type Engine struct {
	Window  interval.Interval
	Blocked []interval.Interval
}

// DayGaps converts one day's spans to minute-of-day intervals, injects the
// blocked windows, merges, and returns the ordered free intervals inside
// the work window. Spans must already be localized and confined to a
// single day (GroupByLocalDay guarantees both).
func (e Engine) DayGaps(spans []Span) ([]interval.Interval, error) {
	busy := make([]interval.Interval, 0, len(spans)+len(e.Blocked))
	for _, s := range spans {
		iv, err := interval.New(minuteOfDay(s.Start), endMinute(s))
		if err != nil {
			return nil, err
		}
		if iv.Minutes() == 0 {
			continue
		}
		busy = append(busy, iv)
	}

	for _, b := range e.Blocked {
		if clipped, ok := b.Clip(e.Window); ok {
			busy = append(busy, clipped)
		}
	}

	return interval.Gaps(busy, e.Window), nil
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// endMinute maps a span end falling exactly on the next local midnight to
// minute 1440 rather than 0.
func endMinute(s Span) int {
	m := minuteOfDay(s.End)
	if m == 0 && s.End.After(s.Start) {
		return interval.MinutesPerDay
	}
	return m
}
