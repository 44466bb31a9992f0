package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ReviewStatus is the lifecycle state of a paper-review request (spec §3).
type ReviewStatus string

const (
	ReviewPending    ReviewStatus = "pending"
	ReviewProcessing ReviewStatus = "processing"
	ReviewCompleted  ReviewStatus = "completed"
	ReviewFailed     ReviewStatus = "failed"
)

// Review is a paper-analysis pipeline request. Its result slots (paper_meta
// through badges, the two report paths, and errors) are written by
// internal/review/worker once the DAG has run; a node failure appends to
// Errors without discarding the other results.
type Review struct {
	ID              string
	URL             sql.NullString
	DOI             sql.NullString
	PDFFilePath     sql.NullString
	RepoURL         sql.NullString
	Status          ReviewStatus
	ErrorMessage    sql.NullString
	PaperMeta       sql.NullString
	PaperText       sql.NullString
	Claims          sql.NullString
	Citations       sql.NullString
	Checklist       sql.NullString
	QualityScore    sql.NullString
	Badges          sql.NullString
	HTMLReportPath  sql.NullString
	JSONSummaryPath sql.NullString
	Errors          sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateReview inserts a new Review in the pending state. At least one of
// URL, DOI, or PDFFilePath must be set; the storage-layer CHECK constraint
// enforces this even if a caller bypasses application validation.
func (d *DB) CreateReview(r *Review) error {
	now := time.Now().UTC()
	r.Status = ReviewPending
	r.CreatedAt, r.UpdatedAt = now, now
	_, err := d.Exec(
		`INSERT INTO reviews (id, url, doi, pdf_file_path, repo_url, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.URL, r.DOI, r.PDFFilePath, r.RepoURL, r.Status, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating review %s: %w", r.ID, err)
	}
	return nil
}

// GetReview fetches a Review by id.
func (d *DB) GetReview(id string) (*Review, error) {
	row := d.QueryRow(
		`SELECT id, url, doi, pdf_file_path, repo_url, status, error_message, paper_meta, paper_text,
		        claims, citations, checklist, quality_score, badges, html_report_path, json_summary_path,
		        errors, created_at, updated_at
		 FROM reviews WHERE id = ?`, id)
	return scanReview(row)
}

func scanReview(row *sql.Row) (*Review, error) {
	var r Review
	if err := row.Scan(&r.ID, &r.URL, &r.DOI, &r.PDFFilePath, &r.RepoURL, &r.Status, &r.ErrorMessage,
		&r.PaperMeta, &r.PaperText, &r.Claims, &r.Citations, &r.Checklist, &r.QualityScore, &r.Badges,
		&r.HTMLReportPath, &r.JSONSummaryPath, &r.Errors, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning review: %w", err)
	}
	return &r, nil
}

// TransitionReview moves a Review between statuses (pending -> processing ->
// completed|failed), matching the Job transition discipline of spec §5.
func (d *DB) TransitionReview(id string, to ReviewStatus, errMsg string) error {
	current, err := d.GetReview(id)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("review %s not found", id)
	}
	if !reviewTransitionAllowed(current.Status, to) {
		return fmt.Errorf("illegal review transition %s -> %s", current.Status, to)
	}

	args := []interface{}{to, time.Now().UTC()}
	setClauses := "status = ?, updated_at = ?"
	if errMsg != "" {
		setClauses += ", error_message = ?"
		args = append(args, errMsg)
	}
	args = append(args, id)
	if _, err := d.Exec(fmt.Sprintf(`UPDATE reviews SET %s WHERE id = ?`, setClauses), args...); err != nil {
		return fmt.Errorf("transitioning review %s to %s: %w", id, to, err)
	}
	return nil
}

func reviewTransitionAllowed(from, to ReviewStatus) bool {
	switch from {
	case ReviewPending:
		return to == ReviewProcessing
	case ReviewProcessing:
		return to == ReviewCompleted || to == ReviewFailed
	default:
		return false
	}
}

// UpdateReviewSlot persists one result slot. column must be one of the ten
// names in reviewSlotColumns; this is an internal helper invoked by
// internal/review/worker, never driven by external input.
func (d *DB) UpdateReviewSlot(id, column, jsonValue string) error {
	if !reviewSlotColumns[column] {
		return fmt.Errorf("unknown review slot column %q", column)
	}
	query := fmt.Sprintf(`UPDATE reviews SET %s = ?, updated_at = ? WHERE id = ?`, column)
	if _, err := d.Exec(query, jsonValue, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("updating review %s slot %s: %w", id, column, err)
	}
	return nil
}

var reviewSlotColumns = map[string]bool{
	"paper_meta": true, "paper_text": true, "claims": true, "citations": true,
	"checklist": true, "quality_score": true, "badges": true,
	"html_report_path": true, "json_summary_path": true, "errors": true,
}
