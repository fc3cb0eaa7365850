// Package report holds the per-day gap results for one week and renders
// them for the terminal.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jerichosy/gapfill/internal/interval"
	"github.com/jerichosy/gapfill/internal/week"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	dayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	gapStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	coveredStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

// Day is one local calendar day's result, in week order.
type Day struct {
	Date    string // "2006-01-02"
	Gaps    []interval.Interval
	Entries int // tracked entries that started on this day
}

// Covered reports whether the work window is fully covered.
func (d Day) Covered() bool {
	return len(d.Gaps) == 0
}

// Report is the preview outcome for one week.
type Report struct {
	Week     week.Range
	Timezone string
	Days     []Day
}

// TotalGaps counts gaps across all days.
func (r *Report) TotalGaps() int {
	n := 0
	for _, d := range r.Days {
		n += len(d.Gaps)
	}
	return n
}

// DaysWithGaps counts days that have at least one gap.
func (r *Report) DaysWithGaps() int {
	n := 0
	for _, d := range r.Days {
		if !d.Covered() {
			n++
		}
	}
	return n
}

// Render produces the full week view. Days without gaps show "None".
func (r *Report) Render() string {
	var b strings.Builder

	header := fmt.Sprintf("Week of %s → %s (%s)",
		r.Week.Start.In(mustLoc(r.Timezone)).Format("2006-01-02"),
		r.Week.End.In(mustLoc(r.Timezone)).AddDate(0, 0, -1).Format("2006-01-02"),
		r.Timezone,
	)
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	for _, d := range r.Days {
		b.WriteString(dayStyle.Render(d.Date))
		b.WriteString("  →  ")
		if d.Covered() {
			b.WriteString(coveredStyle.Render("None"))
		} else {
			b.WriteString(gapStyle.Render(FormatGaps(d.Gaps)))
		}
		if d.Entries == 0 {
			b.WriteString(dimStyle.Render("  (no entries)"))
		}
		b.WriteString("\n")
	}

	if len(r.Days) == 0 {
		b.WriteString(dimStyle.Render("No entries found for this week. Check the date, workspace ID or API key.\n"))
	}

	return b.String()
}

// FormatGaps joins gaps as "HH:MM-HH:MM, HH:MM-HH:MM".
func FormatGaps(gaps []interval.Interval) string {
	parts := make([]string, len(gaps))
	for i, g := range gaps {
		parts[i] = g.String()
	}
	return strings.Join(parts, ", ")
}

func mustLoc(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
