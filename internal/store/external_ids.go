package store

import (
	"database/sql"
	"fmt"
	"time"
)

// ExternalIDKind is the namespace of an external identifier attached to a
// Paper (spec §3).
type ExternalIDKind string

const (
	ExternalIDDOI   ExternalIDKind = "doi"
	ExternalIDArxiv ExternalIDKind = "arxiv"
	ExternalIDPMID  ExternalIDKind = "pmid"
	ExternalIDURL   ExternalIDKind = "url"
)

// ExternalID is a PaperExternalId: at most one per (paper_id, kind), enforced
// by the storage-layer UNIQUE constraint (spec §3/§8).
type ExternalID struct {
	ID        string
	PaperID   string
	Kind      ExternalIDKind
	Value     string
	CreatedAt time.Time
}

// CreateExternalID attaches an external identifier to a Paper, relying on the
// storage-layer UNIQUE (paper_id, kind) constraint to reject a second
// identifier of the same kind.
func (d *DB) CreateExternalID(e *ExternalID) error {
	e.CreatedAt = time.Now().UTC()
	_, err := d.Exec(
		`INSERT INTO paper_external_ids (id, paper_id, kind, value, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.PaperID, e.Kind, e.Value, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating external id %s/%s for paper %s: %w", e.Kind, e.Value, e.PaperID, err)
	}
	return nil
}

// ListExternalIDs returns every ExternalID attached to a Paper.
func (d *DB) ListExternalIDs(paperID string) ([]*ExternalID, error) {
	rows, err := d.Query(
		`SELECT id, paper_id, kind, value, created_at FROM paper_external_ids WHERE paper_id = ? ORDER BY kind`,
		paperID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing external ids for paper %s: %w", paperID, err)
	}
	defer rows.Close()

	var out []*ExternalID
	for rows.Next() {
		var e ExternalID
		if err := rows.Scan(&e.ID, &e.PaperID, &e.Kind, &e.Value, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning external id: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// GetExternalID fetches the identifier of a given kind for a Paper, or nil if
// none has been recorded.
func (d *DB) GetExternalID(paperID string, kind ExternalIDKind) (*ExternalID, error) {
	row := d.QueryRow(
		`SELECT id, paper_id, kind, value, created_at FROM paper_external_ids WHERE paper_id = ? AND kind = ?`,
		paperID, kind,
	)
	var e ExternalID
	if err := row.Scan(&e.ID, &e.PaperID, &e.Kind, &e.Value, &e.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning external id %s for paper %s: %w", kind, paperID, err)
	}
	return &e, nil
}
