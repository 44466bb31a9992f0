package papers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/scitorrent/arandu-repro/internal/store"
)

const pdfMagic = "%PDF"

// ErrNotAPDF is returned when uploaded content fails the magic-header check.
var ErrNotAPDF = fmt.Errorf("uploaded content is not a PDF")

// ErrTooLarge is returned when uploaded content exceeds the configured size
// bound.
var ErrTooLarge = fmt.Errorf("uploaded content exceeds the maximum PDF size")

// Store manages on-disk PDF storage and version bookkeeping.
type Store struct {
	db       *store.DB
	basePath string
	maxBytes int64
}

// NewStore builds a Store rooted at basePath (spec's PathsConfig.PapersBase),
// rejecting uploads over maxBytes.
func NewStore(db *store.DB, basePath string, maxBytes int64) *Store {
	return &Store{db: db, basePath: basePath, maxBytes: maxBytes}
}

// Upload validates, stores, and records a new PaperVersion for aid, reading
// at most maxBytes+1 bytes so an oversized body never loads fully into
// memory before being rejected.
func (s *Store) Upload(aid string, body io.Reader, meta map[string]any) (*store.PaperVersion, error) {
	if !ValidAID(aid) {
		return nil, fmt.Errorf("invalid paper id %q", aid)
	}

	limited := io.LimitReader(body, s.maxBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("reading upload body: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}
	if !bytes.HasPrefix(data, []byte(pdfMagic)) {
		return nil, ErrNotAPDF
	}
	if ct := http.DetectContentType(data); ct != "application/pdf" {
		return nil, ErrNotAPDF
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning upload tx: %w", err)
	}
	defer tx.Rollback()

	version, err := s.db.NextVersion(tx, aid)
	if err != nil {
		return nil, err
	}

	destDir := filepath.Join(s.basePath, aid)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating paper directory for %s: %w", aid, err)
	}
	destPath := filepath.Join(destDir, fmt.Sprintf("v%d.pdf", version))
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing pdf for %s v%d: %w", aid, version, err)
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshaling paper version metadata: %w", err)
	}

	pv := &store.PaperVersion{
		ID: uuid.NewString(), AID: aid, Version: version, PDFPath: destPath,
	}
	pv.MetaJSON.String, pv.MetaJSON.Valid = string(metaJSON), true

	if err := s.db.CreatePaperVersion(tx, pv); err != nil {
		os.Remove(destPath)
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("committing upload tx: %w", err)
	}
	return pv, nil
}
