package preview

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jerichosy/gapfill/internal/clockify"
	"github.com/jerichosy/gapfill/internal/gaps"
	"github.com/jerichosy/gapfill/internal/interval"
)

var manila = mustLoadLocation("Asia/Manila")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

type fakeSource struct {
	entries  []clockify.TimeEntry
	fetchErr error

	gotStart time.Time
	gotEnd   time.Time
}

func (f *fakeSource) GetUser(ctx context.Context) (*clockify.User, error) {
	return &clockify.User{ID: "u1", Name: "Test User", DefaultWorkspace: "ws-default"}, nil
}

func (f *fakeSource) GetTimeEntries(ctx context.Context, workspaceID, userID string, start, end time.Time) ([]clockify.TimeEntry, error) {
	f.gotStart, f.gotEnd = start, end
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.entries, nil
}

type fakeSink struct {
	requests []clockify.TimeEntryRequest
	failOn   map[int]bool // indexes of calls that fail
}

func (f *fakeSink) CreateTimeEntry(ctx context.Context, workspaceID string, entry clockify.TimeEntryRequest) (*clockify.TimeEntry, error) {
	call := len(f.requests)
	f.requests = append(f.requests, entry)
	if f.failOn[call] {
		return nil, errors.New("boom")
	}
	return &clockify.TimeEntry{ID: "created"}, nil
}

func entry(t *testing.T, id, projectID, taskID string, billable bool, start, end string) clockify.TimeEntry {
	t.Helper()
	s, err := time.ParseInLocation("2006-01-02 15:04", start, manila)
	require.NoError(t, err)
	e, err := time.ParseInLocation("2006-01-02 15:04", end, manila)
	require.NoError(t, err)
	return clockify.TimeEntry{
		ID:        id,
		ProjectID: projectID,
		TaskID:    taskID,
		Billable:  billable,
		TimeInterval: clockify.TimeInterval{
			Start: s.UTC(),
			End:   e.UTC(),
		},
	}
}

func newTestOrchestrator(src Source, sink Sink) *Orchestrator {
	return New(Options{
		Source:      src,
		Sink:        sink,
		Out:         &bytes.Buffer{},
		WorkspaceID: "ws1",
		Location:    manila,
		Engine: gaps.Engine{
			Window:  interval.Interval{Start: 540, End: 1080},
			Blocked: []interval.Interval{{Start: 720, End: 780}},
		},
		Description: "[Dev Work, Reviewing code]",
	})
}

// refWednesday is 2025-06-04, a Wednesday; its week is Jun 2 – Jun 8.
var refWednesday = time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

func TestPreviewQueriesResolvedWeek(t *testing.T) {
	src := &fakeSource{}
	o := newTestOrchestrator(src, &fakeSink{})

	res, err := o.Preview(context.Background(), refWednesday)
	require.NoError(t, err)

	// Monday 00:00 Manila is Sunday 16:00 UTC.
	assert.Equal(t, time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC), src.gotStart)
	assert.Equal(t, time.Date(2025, 6, 8, 16, 0, 0, 0, time.UTC), src.gotEnd)
	require.Len(t, res.Report.Days, 7)
	assert.Equal(t, "2025-06-02", res.Report.Days[0].Date)
	assert.Equal(t, "2025-06-08", res.Report.Days[6].Date)
}

func TestPreviewEmptyWeekGapsSplitByLunch(t *testing.T) {
	o := newTestOrchestrator(&fakeSource{}, &fakeSink{})

	res, err := o.Preview(context.Background(), refWednesday)
	require.NoError(t, err)

	for _, d := range res.Report.Days {
		assert.Equal(t, []interval.Interval{{Start: 540, End: 720}, {Start: 780, End: 1080}}, d.Gaps, d.Date)
	}
	assert.Equal(t, 14, res.GapCount())
}

func TestPreviewFullyBookedDay(t *testing.T) {
	src := &fakeSource{entries: []clockify.TimeEntry{
		entry(t, "e1", "p1", "t1", true, "2025-06-02 09:00", "2025-06-02 18:00"),
	}}
	o := newTestOrchestrator(src, &fakeSink{})

	res, err := o.Preview(context.Background(), refWednesday)
	require.NoError(t, err)

	monday := res.Report.Days[0]
	assert.True(t, monday.Covered())
	assert.Equal(t, 1, monday.Entries)
}

func TestPreviewRunningEntryIgnored(t *testing.T) {
	running := clockify.TimeEntry{
		ID:           "running",
		TimeInterval: clockify.TimeInterval{Start: refWednesday},
	}
	src := &fakeSource{entries: []clockify.TimeEntry{running}}
	o := newTestOrchestrator(src, &fakeSink{})

	res, err := o.Preview(context.Background(), refWednesday)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Report.Days[2].Entries)
}

func TestPreviewFetchFailureAborts(t *testing.T) {
	src := &fakeSource{fetchErr: errors.New("network down")}
	o := newTestOrchestrator(src, &fakeSink{})

	res, err := o.Preview(context.Background(), refWednesday)
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestFillUsesPerDayTemplate(t *testing.T) {
	src := &fakeSource{entries: []clockify.TimeEntry{
		entry(t, "e1", "proj-mon", "task-mon", true, "2025-06-02 10:00", "2025-06-02 11:00"),
		entry(t, "e2", "proj-tue", "task-tue", false, "2025-06-03 09:00", "2025-06-03 12:00"),
	}}
	sink := &fakeSink{}
	o := newTestOrchestrator(src, sink)

	res, err := o.Preview(context.Background(), refWednesday)
	require.NoError(t, err)
	sum := o.Fill(context.Background(), res)

	// Days without entries have no template and no fallback: skipped.
	assert.Equal(t, 5, sum.SkippedDays)
	assert.Equal(t, 4, sum.Created)
	require.Len(t, sink.requests, 4)

	for _, r := range sink.requests[:3] {
		assert.Equal(t, "proj-mon", r.ProjectID)
		assert.Equal(t, "task-mon", r.TaskID)
		assert.True(t, r.Billable)
		assert.Equal(t, "[Dev Work, Reviewing code]", r.Description)
		assert.Equal(t, "REGULAR", r.Type)
	}

	tue := sink.requests[3]
	assert.Equal(t, "proj-tue", tue.ProjectID)
	assert.False(t, tue.Billable)

	// Monday's first gap 09:00-10:00 local is 01:00-02:00 UTC.
	assert.Equal(t, "2025-06-02T01:00:00Z", sink.requests[0].Start)
	assert.Equal(t, "2025-06-02T02:00:00Z", sink.requests[0].End)
}

func TestFillFailureDoesNotStopBatch(t *testing.T) {
	src := &fakeSource{entries: []clockify.TimeEntry{
		entry(t, "e1", "p1", "t1", true, "2025-06-02 10:00", "2025-06-02 11:00"),
	}}
	sink := &fakeSink{failOn: map[int]bool{0: true}}
	o := newTestOrchestrator(src, sink)

	res, err := o.Preview(context.Background(), refWednesday)
	require.NoError(t, err)
	sum := o.Fill(context.Background(), res)

	// Monday has 3 gaps; the first submit fails, the rest go through.
	assert.Len(t, sink.requests, 3)
	assert.Equal(t, 2, sum.Created)
	assert.Equal(t, 1, sum.Failed)
}

func TestFillDefaultTemplateFallback(t *testing.T) {
	src := &fakeSource{}
	sink := &fakeSink{}
	o := New(Options{
		Source:           src,
		Sink:             sink,
		Out:              &bytes.Buffer{},
		WorkspaceID:      "ws1",
		Location:         manila,
		Engine:           gaps.Engine{Window: interval.Interval{Start: 540, End: 600}},
		Description:      "filler",
		DefaultProjectID: "proj-default",
		DefaultTaskID:    "task-default",
	})

	res, err := o.Preview(context.Background(), refWednesday)
	require.NoError(t, err)
	sum := o.Fill(context.Background(), res)

	// One gap per empty day, filled with the configured fallback.
	assert.Equal(t, 7, sum.Created)
	assert.Equal(t, 0, sum.SkippedDays)
	for _, r := range sink.requests {
		assert.Equal(t, "proj-default", r.ProjectID)
		assert.Equal(t, "task-default", r.TaskID)
		assert.True(t, r.Billable)
	}
}

func TestFillKeepsWallClockAcrossDSTShift(t *testing.T) {
	newYork := mustLoadLocation("America/New_York")

	// 2025-03-09 is the US spring-forward Sunday (02:00 EST → 03:00
	// EDT). An entry 10:00-11:00 leaves the gap 09:00-10:00; its filler
	// must start at 09:00 wall clock, 13:00 UTC in EDT — not drift by
	// the shifted hour.
	entryStart, err := time.ParseInLocation("2006-01-02 15:04", "2025-03-09 10:00", newYork)
	require.NoError(t, err)
	src := &fakeSource{entries: []clockify.TimeEntry{{
		ID:        "e1",
		ProjectID: "p1",
		Billable:  true,
		TimeInterval: clockify.TimeInterval{
			Start: entryStart.UTC(),
			End:   entryStart.Add(time.Hour).UTC(),
		},
	}}}
	sink := &fakeSink{}
	o := New(Options{
		Source:      src,
		Sink:        sink,
		Out:         &bytes.Buffer{},
		WorkspaceID: "ws1",
		Location:    newYork,
		Engine:      gaps.Engine{Window: interval.Interval{Start: 540, End: 660}},
		Description: "filler",
	})

	res, err := o.Preview(context.Background(), entryStart)
	require.NoError(t, err)
	o.Fill(context.Background(), res)

	var sundayReq *clockify.TimeEntryRequest
	for i, r := range sink.requests {
		if r.Start[:10] == "2025-03-09" {
			sundayReq = &sink.requests[i]
			break
		}
	}
	require.NotNil(t, sundayReq)
	assert.Equal(t, "2025-03-09T13:00:00Z", sundayReq.Start)
	assert.Equal(t, "2025-03-09T14:00:00Z", sundayReq.End)
}

func TestFillCalendarBusyNeverTemplates(t *testing.T) {
	busyStart := time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC) // Mon 09:00 Manila
	src := &fakeSource{}
	sink := &fakeSink{}
	o := New(Options{
		Source:      src,
		Sink:        sink,
		Out:         &bytes.Buffer{},
		WorkspaceID: "ws1",
		Location:    manila,
		Engine:      gaps.Engine{Window: interval.Interval{Start: 540, End: 660}},
		Description: "filler",
		ExtraBusy:   []gaps.Span{{Start: busyStart, End: busyStart.Add(time.Hour)}},
	})

	res, err := o.Preview(context.Background(), refWednesday)
	require.NoError(t, err)

	// Monday: meeting 09-10 busy, gap 10-11 remains but there is no
	// entry to copy metadata from and no fallback, so nothing submits.
	monday := res.Report.Days[0]
	assert.Equal(t, []interval.Interval{{Start: 600, End: 660}}, monday.Gaps)
	assert.Equal(t, 0, monday.Entries)

	sum := o.Fill(context.Background(), res)
	assert.Empty(t, sink.requests)
	assert.Equal(t, 7, sum.SkippedDays)
}
