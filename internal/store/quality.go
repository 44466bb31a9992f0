package store

import (
	"database/sql"
	"fmt"
	"time"
)

// QualityScoreScope distinguishes an aggregate Paper score from a
// point-in-time PaperVersion score.
type QualityScoreScope string

const (
	ScopePaper   QualityScoreScope = "paper"
	ScopeVersion QualityScoreScope = "version"
)

// QualityScore is an integer in [0,100] with structured signals, a
// rationale, and the model version that produced it (spec §3).
type QualityScore struct {
	ID                  string
	Scope               QualityScoreScope
	PaperID             sql.NullString
	PaperVersionID       sql.NullString
	Score               int
	Signals             sql.NullString
	Rationale           sql.NullString
	ScoringModelVersion string
	CreatedAt           time.Time
}

// CreateQualityScore inserts a QualityScore. The scope/paper_id/
// paper_version_id XOR invariant is enforced both here and by the
// storage-layer CHECK constraint (defence in depth, per spec's testable
// property #5).
func (d *DB) CreateQualityScore(q *QualityScore) error {
	switch q.Scope {
	case ScopePaper:
		if !q.PaperID.Valid || q.PaperVersionID.Valid {
			return fmt.Errorf("quality score scope=paper requires paper_id set and paper_version_id null")
		}
	case ScopeVersion:
		if !q.PaperVersionID.Valid || q.PaperID.Valid {
			return fmt.Errorf("quality score scope=version requires paper_version_id set and paper_id null")
		}
	default:
		return fmt.Errorf("unknown quality score scope %q", q.Scope)
	}
	if q.Score < 0 || q.Score > 100 {
		return fmt.Errorf("quality score %d out of range [0,100]", q.Score)
	}

	q.CreatedAt = time.Now().UTC()
	_, err := d.Exec(
		`INSERT INTO quality_scores (id, scope, paper_id, paper_version_id, score, signals, rationale, scoring_model_version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Scope, q.PaperID, q.PaperVersionID, q.Score, q.Signals, q.Rationale, q.ScoringModelVersion, q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating quality score %s: %w", q.ID, err)
	}
	return nil
}

// LatestQualityScore returns the most recent score for the given scope/owner
// pair, or nil if none exists.
func (d *DB) LatestQualityScore(scope QualityScoreScope, ownerID string) (*QualityScore, error) {
	var row *sql.Row
	switch scope {
	case ScopePaper:
		row = d.QueryRow(
			`SELECT id, scope, paper_id, paper_version_id, score, signals, rationale, scoring_model_version, created_at
			 FROM quality_scores WHERE scope = 'paper' AND paper_id = ? ORDER BY created_at DESC LIMIT 1`, ownerID)
	case ScopeVersion:
		row = d.QueryRow(
			`SELECT id, scope, paper_id, paper_version_id, score, signals, rationale, scoring_model_version, created_at
			 FROM quality_scores WHERE scope = 'version' AND paper_version_id = ? ORDER BY created_at DESC LIMIT 1`, ownerID)
	default:
		return nil, fmt.Errorf("unknown quality score scope %q", scope)
	}

	var q QualityScore
	if err := row.Scan(&q.ID, &q.Scope, &q.PaperID, &q.PaperVersionID, &q.Score,
		&q.Signals, &q.Rationale, &q.ScoringModelVersion, &q.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning quality score: %w", err)
	}
	return &q, nil
}
