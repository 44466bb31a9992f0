package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Run is the exit record of a containerized execution, created exactly once
// per Job at the moment the sandboxed process exits (spec §3).
type Run struct {
	JobID            string
	ExitCode         int
	StdoutPreview    string
	StderrPreview    string
	LogsPath         string
	StartedAt        time.Time
	CompletedAt      time.Time
	DurationSeconds  float64
}

// CreateRun inserts the Run row for a Job. The unique primary key on job_id
// prevents a double-commit if two workers somehow process the same item
// (spec §5's shared-resource policy).
func (d *DB) CreateRun(r *Run) error {
	if r.DurationSeconds <= 0 {
		return fmt.Errorf("run duration must be > 0, got %f", r.DurationSeconds)
	}
	_, err := d.Exec(
		`INSERT INTO runs (job_id, exit_code, stdout_preview, stderr_preview, logs_path, started_at, completed_at, duration_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.JobID, r.ExitCode, r.StdoutPreview, r.StderrPreview, r.LogsPath,
		r.StartedAt, r.CompletedAt, r.DurationSeconds,
	)
	if err != nil {
		return fmt.Errorf("creating run for job %s: %w", r.JobID, err)
	}
	return nil
}

// GetRun fetches the Run for a Job, if one exists.
func (d *DB) GetRun(jobID string) (*Run, error) {
	row := d.QueryRow(
		`SELECT job_id, exit_code, stdout_preview, stderr_preview, logs_path, started_at, completed_at, duration_seconds
		 FROM runs WHERE job_id = ?`, jobID)
	var r Run
	if err := row.Scan(&r.JobID, &r.ExitCode, &r.StdoutPreview, &r.StderrPreview,
		&r.LogsPath, &r.StartedAt, &r.CompletedAt, &r.DurationSeconds); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning run for job %s: %w", jobID, err)
	}
	return &r, nil
}
