package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Visibility is a Paper's access scope.
type Visibility string

const (
	VisibilityPrivate  Visibility = "private"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPublic   Visibility = "public"
)

// Paper is a hostable research-paper record (spec §3). Soft-deleted rows are
// hidden from default queries by filtering deleted_at IS NULL, never removed.
type Paper struct {
	ID               string
	AID              string
	Title            string
	RepoURL          sql.NullString
	Visibility       Visibility
	License          sql.NullString
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ApprovedPublicAt sql.NullTime
	DeletedAt        sql.NullTime
}

// CreatePaper inserts a new Paper with a pre-generated, unique AID.
func (d *DB) CreatePaper(p *Paper) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := d.Exec(
		`INSERT INTO papers (id, aid, title, repo_url, visibility, license, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.AID, p.Title, p.RepoURL, p.Visibility, p.License, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating paper %s: %w", p.AID, err)
	}
	return nil
}

// GetPaperByAID fetches a non-deleted Paper by its public identifier.
func (d *DB) GetPaperByAID(aid string) (*Paper, error) {
	row := d.QueryRow(
		`SELECT id, aid, title, repo_url, visibility, license, created_by, created_at, updated_at, approved_public_at, deleted_at
		 FROM papers WHERE aid = ? AND deleted_at IS NULL`, aid)
	var p Paper
	if err := row.Scan(&p.ID, &p.AID, &p.Title, &p.RepoURL, &p.Visibility, &p.License,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.ApprovedPublicAt, &p.DeletedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning paper %s: %w", aid, err)
	}
	return &p, nil
}

// SoftDeletePaper tombstones a Paper without removing any row. ClaimLinks
// that reference it weakly have their source_paper_id nulled, per the
// ownership/lifecycle rule (spec §3) — they survive, unlike cascade-owned
// children.
func (d *DB) SoftDeletePaper(id string) error {
	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("beginning soft-delete tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.Exec(`UPDATE papers SET deleted_at = ?, updated_at = ? WHERE id = ?`, now, now, id); err != nil {
		return fmt.Errorf("soft-deleting paper %s: %w", id, err)
	}
	if _, err := tx.Exec(`UPDATE claim_links SET source_paper_id = NULL WHERE source_paper_id = ?`, id); err != nil {
		return fmt.Errorf("nulling claim_links for paper %s: %w", id, err)
	}
	return tx.Commit()
}

// PaperVersion is an immutable (except soft-delete) snapshot of a Paper's PDF.
type PaperVersion struct {
	ID        string
	AID       string
	Version   int
	PDFPath   string
	MetaJSON  sql.NullString
	CreatedAt time.Time
	DeletedAt sql.NullTime
}

// NextVersion returns the version number to assign to a new PaperVersion for
// aid: 1 if none exist yet, otherwise one past the current maximum. Callers
// insert within the same transaction to preserve the (aid, version)
// uniqueness invariant under concurrent uploads.
func (d *DB) NextVersion(tx *sql.Tx, aid string) (int, error) {
	var max sql.NullInt64
	if err := tx.QueryRow(`SELECT MAX(version) FROM paper_versions WHERE aid = ?`, aid).Scan(&max); err != nil {
		return 0, fmt.Errorf("computing next version for %s: %w", aid, err)
	}
	if !max.Valid {
		return 1, nil
	}
	return int(max.Int64) + 1, nil
}

// CreatePaperVersion inserts a PaperVersion inside an existing transaction
// (see NextVersion).
func (d *DB) CreatePaperVersion(tx *sql.Tx, v *PaperVersion) error {
	v.CreatedAt = time.Now().UTC()
	_, err := tx.Exec(
		`INSERT INTO paper_versions (id, aid, version, pdf_path, meta_json, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.AID, v.Version, v.PDFPath, v.MetaJSON, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating paper_version %s v%d: %w", v.AID, v.Version, err)
	}
	return nil
}

// GetPaperVersion fetches a specific version, or the latest non-deleted one
// if version <= 0.
func (d *DB) GetPaperVersion(aid string, version int) (*PaperVersion, error) {
	var row *sql.Row
	if version > 0 {
		row = d.QueryRow(
			`SELECT id, aid, version, pdf_path, meta_json, created_at, deleted_at
			 FROM paper_versions WHERE aid = ? AND version = ? AND deleted_at IS NULL`, aid, version)
	} else {
		row = d.QueryRow(
			`SELECT id, aid, version, pdf_path, meta_json, created_at, deleted_at
			 FROM paper_versions WHERE aid = ? AND deleted_at IS NULL ORDER BY version DESC LIMIT 1`, aid)
	}
	var v PaperVersion
	if err := row.Scan(&v.ID, &v.AID, &v.Version, &v.PDFPath, &v.MetaJSON, &v.CreatedAt, &v.DeletedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning paper_version %s v%d: %w", aid, version, err)
	}
	return &v, nil
}
