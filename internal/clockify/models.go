package clockify

import "time"

type User struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	ActiveWorkspace  string `json:"activeWorkspace"`
	DefaultWorkspace string `json:"defaultWorkspace"`
}

type Project struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Archived bool   `json:"archived"`
	ClientID string `json:"clientId"`
}

// TimeEntry is an entry as returned by the API. Entries still running have
// a zero End; callers that need completed intervals must skip those.
type TimeEntry struct {
	ID           string       `json:"id"`
	Description  string       `json:"description"`
	Billable     bool         `json:"billable"`
	ProjectID    string       `json:"projectId"`
	TaskID       string       `json:"taskId"`
	TimeInterval TimeInterval `json:"timeInterval"`
}

type TimeInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Completed reports whether the entry has both a start and an end.
func (e TimeEntry) Completed() bool {
	return !e.TimeInterval.Start.IsZero() && !e.TimeInterval.End.IsZero()
}

// TimeEntryRequest is the POST body for creating an entry. Start and End
// are preformatted UTC strings (see FormatBodyTime).
type TimeEntryRequest struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	Billable    bool   `json:"billable"`
	ProjectID   string `json:"projectId,omitempty"`
	TaskID      string `json:"taskId,omitempty"`
	Description string `json:"description"`
	Type        string `json:"type"`
}
