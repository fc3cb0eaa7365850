// Package clockify is a minimal client for the Clockify REST API covering
// the calls the gap preview needs: current user, projects, time entries.
package clockify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultBaseURL = "https://api.clockify.me/api/v1"

const (
	// QueryTimeFormat is the millisecond-precision UTC format the
	// time-entries range parameters require.
	QueryTimeFormat = "2006-01-02T15:04:05.000Z"
	// BodyTimeFormat is the UTC format for entry start/end in POST bodies.
	BodyTimeFormat = "2006-01-02T15:04:05Z"
)

const entriesPageSize = 200

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu             sync.Mutex
	projects       []Project
	projectsExpiry time.Time
	projectsTTL    time.Duration
}

func NewClient(apiKey, baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:      logger,
		projectsTTL: time.Hour,
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("clockify API request", "method", method, "path", path)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("API request transport error", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("clockify API response", "method", method, "path", path, "status", resp.StatusCode, "bytes", len(respBody), "elapsed", time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("API request failed", "method", method, "path", path, "status", resp.StatusCode, "response", truncate(string(respBody), 200))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 200)}
	}

	return respBody, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// GetUser returns the user identified by the API key.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/user", nil)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("parsing user response: %w", err)
	}
	return &user, nil
}

// GetProjects lists the workspace's active projects, cached for an hour.
func (c *Client) GetProjects(ctx context.Context, workspaceID string) ([]Project, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("workspace ID is empty — set workspace_id in config or CLOCKIFY_WORKSPACE_ID env var")
	}

	c.mu.Lock()
	if c.projects != nil && time.Now().Before(c.projectsExpiry) {
		cached := make([]Project, len(c.projects))
		copy(cached, c.projects)
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	var all []Project
	page := 1
	pageSize := 500

	for {
		path := fmt.Sprintf("/workspaces/%s/projects?page-size=%d&page=%d&archived=false", workspaceID, pageSize, page)
		data, err := c.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, fmt.Errorf("getting projects: %w", err)
		}

		var projects []Project
		if err := json.Unmarshal(data, &projects); err != nil {
			return nil, fmt.Errorf("parsing projects response: %w", err)
		}

		all = append(all, projects...)
		if len(projects) < pageSize {
			break
		}
		page++
	}

	c.mu.Lock()
	c.projects = all
	c.projectsExpiry = time.Now().Add(c.projectsTTL)
	c.mu.Unlock()

	return all, nil
}

// GetTimeEntries fetches the user's entries whose interval overlaps
// [start, end). Both bounds go on the wire in UTC with millisecond
// precision. Results are paginated; all pages are returned in API order.
func (c *Client) GetTimeEntries(ctx context.Context, workspaceID, userID string, start, end time.Time) ([]TimeEntry, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("workspace ID is empty — set workspace_id in config or CLOCKIFY_WORKSPACE_ID env var")
	}

	var all []TimeEntry
	page := 1

	for {
		params := url.Values{}
		params.Set("start", start.UTC().Format(QueryTimeFormat))
		params.Set("end", end.UTC().Format(QueryTimeFormat))
		params.Set("page-size", fmt.Sprint(entriesPageSize))
		params.Set("page", fmt.Sprint(page))

		path := fmt.Sprintf("/workspaces/%s/user/%s/time-entries?%s", workspaceID, userID, params.Encode())
		data, err := c.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, fmt.Errorf("getting time entries: %w", err)
		}

		var entries []TimeEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parsing time entries response: %w", err)
		}

		all = append(all, entries...)
		if len(entries) < entriesPageSize {
			break
		}
		page++
	}

	return all, nil
}

// CreateTimeEntry posts a new entry to the workspace.
func (c *Client) CreateTimeEntry(ctx context.Context, workspaceID string, entry TimeEntryRequest) (*TimeEntry, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("workspace ID is empty — set workspace_id in config or CLOCKIFY_WORKSPACE_ID env var")
	}

	path := fmt.Sprintf("/workspaces/%s/time-entries", workspaceID)
	data, err := c.doRequest(ctx, http.MethodPost, path, entry)
	if err != nil {
		return nil, fmt.Errorf("creating time entry: %w", err)
	}

	var created TimeEntry
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("parsing time entry response: %w", err)
	}
	return &created, nil
}

// FormatBodyTime renders t for a POST body: UTC, second precision.
func FormatBodyTime(t time.Time) string {
	return t.UTC().Format(BodyTimeFormat)
}
