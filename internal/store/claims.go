package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"
)

// ClaimHash computes the globally-unique dedupe hash for a Claim: the SHA-256
// of text|span_start|span_end|paper_version_id (spec §3).
func ClaimHash(text string, spanStart, spanEnd *int, paperVersionID string) string {
	start, end := "", ""
	if spanStart != nil {
		start = fmt.Sprintf("%d", *spanStart)
	}
	if spanEnd != nil {
		end = fmt.Sprintf("%d", *spanEnd)
	}
	sum := sha256.Sum256([]byte(text + "|" + start + "|" + end + "|" + paperVersionID))
	return hex.EncodeToString(sum[:])
}

// Claim is a short sentence-level assertion extracted from a paper section.
type Claim struct {
	ID             string
	PaperVersionID string
	PaperID        sql.NullString
	Text           string
	SpanStart      sql.NullInt64
	SpanEnd        sql.NullInt64
	Page           sql.NullInt64
	BBox           sql.NullString
	Section        sql.NullString
	Confidence     sql.NullFloat64
	Hash           string
	TextHash       sql.NullString
	CreatedAt      time.Time
}

// CreateClaim inserts a Claim, relying on the storage-layer CHECK and UNIQUE
// constraints to enforce the span-pair and dedupe-hash invariants.
func (d *DB) CreateClaim(c *Claim) error {
	c.CreatedAt = time.Now().UTC()
	_, err := d.Exec(
		`INSERT INTO claims (id, paper_version_id, paper_id, text, span_start, span_end, page, bbox, section, confidence, hash, text_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.PaperVersionID, c.PaperID, c.Text, c.SpanStart, c.SpanEnd, c.Page, c.BBox,
		c.Section, c.Confidence, c.Hash, c.TextHash, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating claim for version %s: %w", c.PaperVersionID, err)
	}
	return nil
}

// ListClaimsByPaper returns every Claim across a Paper's versions.
func (d *DB) ListClaimsByPaper(paperID string) ([]*Claim, error) {
	rows, err := d.Query(
		`SELECT id, paper_version_id, paper_id, text, span_start, span_end, page, bbox, section, confidence, hash, text_hash, created_at
		 FROM claims WHERE paper_id = ? ORDER BY created_at`, paperID)
	if err != nil {
		return nil, fmt.Errorf("listing claims for paper %s: %w", paperID, err)
	}
	defer rows.Close()

	var out []*Claim
	for rows.Next() {
		var c Claim
		if err := rows.Scan(&c.ID, &c.PaperVersionID, &c.PaperID, &c.Text, &c.SpanStart, &c.SpanEnd,
			&c.Page, &c.BBox, &c.Section, &c.Confidence, &c.Hash, &c.TextHash, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// ClaimLinkRelation is the typed relationship a ClaimLink expresses.
type ClaimLinkRelation string

const (
	RelationEquivalent    ClaimLinkRelation = "equivalent"
	RelationComplementary ClaimLinkRelation = "complementary"
	RelationContradictory ClaimLinkRelation = "contradictory"
	RelationUnclear       ClaimLinkRelation = "unclear"
)

// ClaimLink is a typed relationship from a Claim to an external source.
type ClaimLink struct {
	ID             string
	ClaimID        string
	SourcePaperID  sql.NullString
	SourceDocID    sql.NullString
	Relation       ClaimLinkRelation
	Confidence     float64
	ContextExcerpt sql.NullString
	ReasoningRef   sql.NullString
}

// CreateClaimLink inserts a ClaimLink.
func (d *DB) CreateClaimLink(l *ClaimLink) error {
	if !l.SourcePaperID.Valid && !l.SourceDocID.Valid {
		return fmt.Errorf("claim link %s must set source_paper_id or source_doc_id", l.ID)
	}
	_, err := d.Exec(
		`INSERT INTO claim_links (id, claim_id, source_paper_id, source_doc_id, relation, confidence, context_excerpt, reasoning_ref)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.ClaimID, l.SourcePaperID, l.SourceDocID, l.Relation, l.Confidence, l.ContextExcerpt, l.ReasoningRef,
	)
	if err != nil {
		return fmt.Errorf("creating claim link for claim %s: %w", l.ClaimID, err)
	}
	return nil
}
