// Package interval implements minute-of-day interval arithmetic: merging
// busy spans and computing the uncovered remainder of a bounded window.
package interval

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// MinutesPerDay is the exclusive upper bound for interval ends.
const MinutesPerDay = 24 * 60

// ErrInvalidInterval reports interval bounds that are reversed or outside
// the minute-of-day range.
var ErrInvalidInterval = errors.New("invalid interval")

// Interval is a half-open [Start, End) span in minutes since local midnight.
type Interval struct {
	Start int
	End   int
}

// New validates bounds and returns the interval. Start may equal End; the
// resulting zero-length interval covers no minutes but is not an error.
func New(start, end int) (Interval, error) {
	if start < 0 || end > MinutesPerDay || start > end {
		return Interval{}, fmt.Errorf("%w: [%d, %d)", ErrInvalidInterval, start, end)
	}
	return Interval{Start: start, End: end}, nil
}

func (iv Interval) String() string {
	return FormatClock(iv.Start) + "-" + FormatClock(iv.End)
}

// Minutes returns the number of minutes the interval covers.
func (iv Interval) Minutes() int {
	return iv.End - iv.Start
}

// Merge coalesces an unordered set of intervals into the minimal sorted
// sequence covering the same minutes. Touching intervals merge too, so
// back-to-back entries never leave a zero-length gap between them.
func Merge(spans []Interval) []Interval {
	if len(spans) == 0 {
		return nil
	}

	sorted := make([]Interval, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	merged := sorted[:1]
	for _, s := range sorted[1:] {
		last := &merged[len(merged)-1]
		if s.Start > last.End {
			merged = append(merged, s)
			continue
		}
		if s.End > last.End {
			last.End = s.End
		}
	}
	return merged
}

// Gaps returns the ordered free intervals inside window that no busy
// interval covers. The busy set need not be sorted or disjoint; it is
// merged first. Zero-length gaps are discarded.
func Gaps(busy []Interval, window Interval) []Interval {
	var gaps []Interval
	cursor := window.Start

	for _, b := range Merge(busy) {
		if cursor >= window.End {
			break
		}
		if b.Start > cursor {
			end := min(b.Start, window.End)
			if end > cursor {
				gaps = append(gaps, Interval{Start: cursor, End: end})
			}
		}
		cursor = max(cursor, b.End)
	}

	if cursor < window.End {
		gaps = append(gaps, Interval{Start: cursor, End: window.End})
	}
	return gaps
}

// Clip restricts the interval to the given window. The second return is
// false when nothing of the interval falls inside the window.
func (iv Interval) Clip(window Interval) (Interval, bool) {
	s := max(iv.Start, window.Start)
	e := min(iv.End, window.End)
	if s >= e {
		return Interval{}, false
	}
	return Interval{Start: s, End: e}, true
}

// ParseClock parses a "HH:MM" wall-clock string into minutes since midnight.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM". Minute 1440
// renders as "24:00" so a window may end at midnight.
func FormatClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
