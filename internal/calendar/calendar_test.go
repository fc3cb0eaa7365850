package calendar

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Calendar lines are CRLF-terminated per RFC 5545.
var sampleICS = strings.Join([]string{
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//test//test//EN",
	"BEGIN:VEVENT",
	"UID:evt-1",
	"DTSTAMP:20250601T000000Z",
	"DTSTART:20250602T020000Z",
	"DTEND:20250602T030000Z",
	"SUMMARY:Team sync",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:evt-2",
	"DTSTAMP:20250601T000000Z",
	"DTSTART:20250520T020000Z",
	"DTEND:20250520T030000Z",
	"SUMMARY:Old meeting",
	"END:VEVENT",
	"END:VCALENDAR",
	"",
}, "\r\n")

func TestFetchBusyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.ics")
	require.NoError(t, os.WriteFile(path, []byte(sampleICS), 0644))

	windowStart := time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC)
	windowEnd := windowStart.AddDate(0, 0, 7)

	spans, err := FetchBusy(context.Background(), path, windowStart, windowEnd)
	require.NoError(t, err)

	// Only the event inside the window survives.
	require.Len(t, spans, 1)
	assert.Equal(t, time.Date(2025, 6, 2, 2, 0, 0, 0, time.UTC), spans[0].Start.UTC())
	assert.Equal(t, time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC), spans[0].End.UTC())
}

func TestFetchBusyMissingFile(t *testing.T) {
	_, err := FetchBusy(context.Background(), "/nonexistent/cal.ics", time.Now(), time.Now())
	assert.Error(t, err)
}
