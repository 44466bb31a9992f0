package store

import (
	"fmt"
)

// ArtifactType enumerates the reproduction-pipeline output kinds (spec §3).
type ArtifactType string

const (
	ArtifactReport   ArtifactType = "report"
	ArtifactNotebook ArtifactType = "notebook"
	ArtifactBadge    ArtifactType = "badge"
)

// Artifact is one emitted output of a successfully completed Job.
type Artifact struct {
	ID          string
	JobID       string
	Type        ArtifactType
	Format      string
	ContentPath string
	ContentSize int64
}

// CreateArtifact inserts an Artifact row. Callers must insert all of a Job's
// artifacts before transitioning the Job to completed, so that a client
// observing status=completed can enumerate artifacts atomically (spec §5).
func (d *DB) CreateArtifact(a *Artifact) error {
	_, err := d.Exec(
		`INSERT INTO artifacts (id, job_id, type, format, content_path, content_size)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.JobID, a.Type, a.Format, a.ContentPath, a.ContentSize,
	)
	if err != nil {
		return fmt.Errorf("creating artifact %s for job %s: %w", a.Type, a.JobID, err)
	}
	return nil
}

// ListArtifacts returns every Artifact row for a Job.
func (d *DB) ListArtifacts(jobID string) ([]*Artifact, error) {
	rows, err := d.Query(
		`SELECT id, job_id, type, format, content_path, content_size FROM artifacts WHERE job_id = ?`, jobID)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts for job %s: %w", jobID, err)
	}
	defer rows.Close()

	var out []*Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.ID, &a.JobID, &a.Type, &a.Format, &a.ContentPath, &a.ContentSize); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
