package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of a reproduction Job (spec §3).
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is a reproduction request: clone -> detect -> build -> execute -> artifacts.
type Job struct {
	ID                  string
	RepoURL             string
	ArxivID             sql.NullString
	RunCommand          sql.NullString
	Status              JobStatus
	ErrorMessage        sql.NullString
	DetectedEnvironment json.RawMessage
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CreateJob inserts a new Job in the pending state.
func (d *DB) CreateJob(j *Job) error {
	now := time.Now().UTC()
	j.Status = JobPending
	j.CreatedAt, j.UpdatedAt = now, now
	_, err := d.Exec(
		`INSERT INTO jobs (id, repo_url, arxiv_id, run_command, status, error_message, detected_environment, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.RepoURL, j.ArxivID, j.RunCommand, j.Status, j.ErrorMessage,
		nullableJSON(j.DetectedEnvironment), j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating job %s: %w", j.ID, err)
	}
	return nil
}

// GetJob fetches a Job by id.
func (d *DB) GetJob(id string) (*Job, error) {
	row := d.QueryRow(
		`SELECT id, repo_url, arxiv_id, run_command, status, error_message, detected_environment, created_at, updated_at
		 FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

func scanJob(row *sql.Row) (*Job, error) {
	var j Job
	var env sql.NullString
	if err := row.Scan(&j.ID, &j.RepoURL, &j.ArxivID, &j.RunCommand, &j.Status,
		&j.ErrorMessage, &env, &j.CreatedAt, &j.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning job: %w", err)
	}
	if env.Valid {
		j.DetectedEnvironment = json.RawMessage(env.String)
	}
	return &j, nil
}

// TransitionJob moves a Job between statuses, enforcing the only permitted
// sequence (spec §5): pending -> running -> (completed | failed). running ->
// pending is rejected.
func (d *DB) TransitionJob(id string, to JobStatus, errMsg, detectedEnv string) error {
	current, err := d.GetJob(id)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("job %s not found", id)
	}
	if !jobTransitionAllowed(current.Status, to) {
		return fmt.Errorf("illegal job transition %s -> %s", current.Status, to)
	}

	args := []interface{}{to, time.Now().UTC()}
	setClauses := "status = ?, updated_at = ?"
	if errMsg != "" {
		setClauses += ", error_message = ?"
		args = append(args, errMsg)
	}
	if detectedEnv != "" {
		setClauses += ", detected_environment = ?"
		args = append(args, detectedEnv)
	}
	args = append(args, id)

	_, err = d.Exec(fmt.Sprintf(`UPDATE jobs SET %s WHERE id = ?`, setClauses), args...)
	if err != nil {
		return fmt.Errorf("transitioning job %s to %s: %w", id, to, err)
	}
	return nil
}

func jobTransitionAllowed(from, to JobStatus) bool {
	switch from {
	case JobPending:
		return to == JobRunning
	case JobRunning:
		return to == JobCompleted || to == JobFailed
	default:
		return false
	}
}

func nullableJSON(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}
