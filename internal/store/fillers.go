package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Filler is one submitted (or attempted) filler entry.
type Filler struct {
	ID          int
	ClockifyID  string
	Day         string // local calendar date "2006-01-02"
	ProjectID   string
	TaskID      string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Minutes     int
	Status      string // "logged" or "failed"
	CreatedAt   time.Time
}

func (db *DB) InsertFiller(f *Filler) (int64, error) {
	result, err := db.Exec(
		`INSERT INTO fillers (clockify_id, day, project_id, task_id, description, start_time, end_time, minutes, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ClockifyID, f.Day, f.ProjectID, f.TaskID, f.Description,
		f.StartTime.UTC().Format(time.RFC3339),
		f.EndTime.UTC().Format(time.RFC3339),
		f.Minutes, f.Status,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting filler: %w", err)
	}
	return result.LastInsertId()
}

// GetRecentFillers returns the newest fillers first, up to limit.
func (db *DB) GetRecentFillers(limit int) ([]Filler, error) {
	return db.queryFillers(
		`SELECT id, clockify_id, day, project_id, task_id, description, start_time, end_time, minutes, status, created_at
		 FROM fillers
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
}

// GetFillersForDay returns the fillers recorded for one local day, oldest
// first.
func (db *DB) GetFillersForDay(day string) ([]Filler, error) {
	return db.queryFillers(
		`SELECT id, clockify_id, day, project_id, task_id, description, start_time, end_time, minutes, status, created_at
		 FROM fillers
		 WHERE day = ?
		 ORDER BY start_time ASC`,
		day,
	)
}

func (db *DB) queryFillers(query string, args ...interface{}) ([]Filler, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying fillers: %w", err)
	}
	defer rows.Close()

	var fillers []Filler
	for rows.Next() {
		var f Filler
		var clockifyID, projectID, taskID sql.NullString
		var startStr, endStr, createdStr string

		if err := rows.Scan(
			&f.ID, &clockifyID, &f.Day, &projectID, &taskID, &f.Description,
			&startStr, &endStr, &f.Minutes, &f.Status, &createdStr,
		); err != nil {
			return nil, fmt.Errorf("scanning filler: %w", err)
		}

		f.ClockifyID = clockifyID.String
		f.ProjectID = projectID.String
		f.TaskID = taskID.String

		if t, err := time.Parse(time.RFC3339, startStr); err == nil {
			f.StartTime = t
		}
		if t, err := time.Parse(time.RFC3339, endStr); err == nil {
			f.EndTime = t
		}
		if t, err := time.Parse(time.RFC3339, createdStr); err == nil {
			f.CreatedAt = t
		}

		fillers = append(fillers, f)
	}

	return fillers, rows.Err()
}
