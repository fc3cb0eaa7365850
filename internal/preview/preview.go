// Package preview orchestrates the weekly gap run: resolve the week,
// fetch entries, compute per-day gaps, and — only on the explicit fill
// path — submit filler entries for the gaps found.
package preview

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jerichosy/gapfill/internal/clockify"
	"github.com/jerichosy/gapfill/internal/gaps"
	"github.com/jerichosy/gapfill/internal/interval"
	"github.com/jerichosy/gapfill/internal/report"
	"github.com/jerichosy/gapfill/internal/store"
	"github.com/jerichosy/gapfill/internal/week"
)

// Source provides the tracked entries for a UTC range.
type Source interface {
	GetUser(ctx context.Context) (*clockify.User, error)
	GetTimeEntries(ctx context.Context, workspaceID, userID string, start, end time.Time) ([]clockify.TimeEntry, error)
}

// Sink accepts new filler entries.
type Sink interface {
	CreateTimeEntry(ctx context.Context, workspaceID string, entry clockify.TimeEntryRequest) (*clockify.TimeEntry, error)
}

type Options struct {
	Source      Source
	Sink        Sink
	History     *store.DB // optional; nil disables local history
	Logger      *slog.Logger
	Out         io.Writer // progress output; defaults to os.Stdout
	WorkspaceID string
	Location    *time.Location
	Engine      gaps.Engine
	Description string
	// Fallback template for days that have gaps but no entries. Empty
	// DefaultProjectID means such days are skipped.
	DefaultProjectID string
	DefaultTaskID    string
	// ExtraBusy spans (e.g. calendar events) counted as busy but never
	// used as a metadata template.
	ExtraBusy []gaps.Span
}

type Orchestrator struct {
	opts Options
}

func New(opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Orchestrator{opts: opts}
}

// Result carries the rendered report plus what Fill needs: per-day gaps
// and the template entry of each day.
type Result struct {
	Report *report.Report
	Week   week.Range

	workspaceID string
	days        []dayResult
}

// GapCount is the number of fillers a Fill run would submit.
func (r *Result) GapCount() int {
	return r.Report.TotalGaps()
}

type dayResult struct {
	date     string
	gaps     []interval.Interval
	template *clockify.TimeEntry
}

// Summary is the outcome of one fill run.
type Summary struct {
	Created     int
	Failed      int
	SkippedDays int
}

// Preview fetches the week containing ref and computes the gap report.
// It performs no writes. A fetch failure aborts with no partial report.
func (o *Orchestrator) Preview(ctx context.Context, ref time.Time) (*Result, error) {
	user, err := o.opts.Source.GetUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving user: %w", err)
	}
	o.opts.Logger.Debug("resolved user", "id", user.ID, "name", user.Name)

	workspaceID := o.opts.WorkspaceID
	if workspaceID == "" {
		workspaceID = user.DefaultWorkspace
	}

	wr := week.Resolve(ref, o.opts.Location)
	entries, err := o.opts.Source.GetTimeEntries(ctx, workspaceID, user.ID, wr.Start, wr.End)
	if err != nil {
		return nil, fmt.Errorf("fetching entries: %w", err)
	}
	o.opts.Logger.Debug("fetched entries", "count", len(entries), "week_start", wr.Start)

	spans := make([]gaps.Span, 0, len(entries))
	for _, e := range entries {
		if !e.Completed() {
			continue
		}
		spans = append(spans, gaps.Span{Start: e.TimeInterval.Start, End: e.TimeInterval.End})
	}

	grouped := gaps.GroupByLocalDay(spans, o.opts.Location)
	extraGrouped := gaps.GroupByLocalDay(o.opts.ExtraBusy, o.opts.Location)

	rep := &report.Report{Week: wr, Timezone: o.opts.Location.String()}
	result := &Result{Report: rep, Week: wr, workspaceID: workspaceID}

	for _, day := range wr.Days(o.opts.Location) {
		busy := append(append([]gaps.Span{}, grouped[day]...), extraGrouped[day]...)
		dayGaps, err := o.opts.Engine.DayGaps(busy)
		if err != nil {
			return nil, fmt.Errorf("computing gaps for %s: %w", day, err)
		}

		rep.Days = append(rep.Days, report.Day{
			Date:    day,
			Gaps:    dayGaps,
			Entries: countStartingOn(entries, day, o.opts.Location),
		})
		result.days = append(result.days, dayResult{
			date:     day,
			gaps:     dayGaps,
			template: firstEntryOn(entries, day, o.opts.Location),
		})
	}

	return result, nil
}

// Fill submits one filler entry per gap, serially, reusing each day's
// template metadata. A failed submit is reported and counted but does not
// stop the batch.
func (o *Orchestrator) Fill(ctx context.Context, res *Result) Summary {
	var sum Summary

	workspaceID := res.workspaceID
	if workspaceID == "" {
		workspaceID = o.opts.WorkspaceID
	}

	for _, day := range res.days {
		if len(day.gaps) == 0 {
			continue
		}

		projectID, taskID, billable, ok := o.templateFor(day)
		if !ok {
			fmt.Fprintf(o.opts.Out, "Skipping %s: no entry to copy project/task from (set fill.default_project_id to fill such days)\n", day.date)
			sum.SkippedDays++
			continue
		}

		for _, g := range day.gaps {
			start, end, err := o.gapTimes(day.date, g)
			if err != nil {
				o.opts.Logger.Error("bad gap bounds", "day", day.date, "gap", g.String(), "error", err)
				sum.Failed++
				continue
			}

			fmt.Fprintf(o.opts.Out, "→ Creating %s %s (%s)\n", o.opts.Description, g.String(), day.date)

			req := clockify.TimeEntryRequest{
				Start:       clockify.FormatBodyTime(start),
				End:         clockify.FormatBodyTime(end),
				Billable:    billable,
				ProjectID:   projectID,
				TaskID:      taskID,
				Description: o.opts.Description,
				Type:        "REGULAR",
			}

			created, err := o.opts.Sink.CreateTimeEntry(ctx, workspaceID, req)
			status := "logged"
			clockifyID := ""
			if err != nil {
				status = "failed"
				sum.Failed++
				fmt.Fprintf(o.opts.Out, "Warning: creating filler %s on %s failed: %v\n", g.String(), day.date, err)
			} else {
				sum.Created++
				clockifyID = created.ID
			}

			o.record(store.Filler{
				ClockifyID:  clockifyID,
				Day:         day.date,
				ProjectID:   projectID,
				TaskID:      taskID,
				Description: o.opts.Description,
				StartTime:   start,
				EndTime:     end,
				Minutes:     g.Minutes(),
				Status:      status,
			})
		}
	}

	return sum
}

// templateFor picks the metadata source for a day: the first retrieved
// entry of that day, else the configured fallback.
func (o *Orchestrator) templateFor(day dayResult) (projectID, taskID string, billable, ok bool) {
	if day.template != nil {
		t := day.template
		return t.ProjectID, t.TaskID, t.Billable, true
	}
	if o.opts.DefaultProjectID != "" {
		return o.opts.DefaultProjectID, o.opts.DefaultTaskID, true, true
	}
	return "", "", false, false
}

// gapTimes converts a minute-of-day gap on the given local date back to
// absolute instants. Bounds are built as wall-clock times, matching how
// busy minutes were derived, so a DST shift on the day cannot move a
// filler off its previewed slot. A gap ending at minute 1440 lands on
// the next local midnight (time.Date normalizes hour 24).
func (o *Orchestrator) gapTimes(date string, g interval.Interval) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, o.opts.Location)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), g.Start/60, g.Start%60, 0, 0, o.opts.Location)
	end := time.Date(day.Year(), day.Month(), day.Day(), g.End/60, g.End%60, 0, 0, o.opts.Location)
	return start, end, nil
}

func (o *Orchestrator) record(f store.Filler) {
	if o.opts.History == nil {
		return
	}
	if _, err := o.opts.History.InsertFiller(&f); err != nil {
		o.opts.Logger.Warn("recording filler in history failed", "day", f.Day, "error", err)
	}
}

func countStartingOn(entries []clockify.TimeEntry, day string, loc *time.Location) int {
	n := 0
	for _, e := range entries {
		if e.Completed() && gaps.DayKey(e.TimeInterval.Start, loc) == day {
			n++
		}
	}
	return n
}

// firstEntryOn returns the first completed entry, in retrieval order,
// whose local start date is the given day.
func firstEntryOn(entries []clockify.TimeEntry, day string, loc *time.Location) *clockify.TimeEntry {
	for i := range entries {
		e := &entries[i]
		if e.Completed() && gaps.DayKey(e.TimeInterval.Start, loc) == day {
			return e
		}
	}
	return nil
}
