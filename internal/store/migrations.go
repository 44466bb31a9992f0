// Package store is the relational persistence layer for Job/Run/Artifact and
// Paper/PaperVersion/Claim/ClaimLink/QualityScore/Review state (spec §3). It
// follows the teacher's versioned-migration idiom (internal/store/migrations.go
// in theRebelliousNerd/codenerd): a schema_versions-style tracking table and an
// ordered list of migrations applied in sequence, adapted here to the CREATE
// TABLE statements a fresh reproducibility/review schema needs rather than the
// teacher's ALTER-COLUMN backfills.
package store

import (
	"database/sql"
	"fmt"

	"github.com/scitorrent/arandu-repro/internal/logging"
)

var migLog = logging.Get("store")

// CurrentSchemaVersion is the latest schema version this binary knows how to
// produce and migrate to.
const CurrentSchemaVersion = 1

// migration is one forward-only schema step.
type migration struct {
	version     int
	description string
	statements  []string
}

var migrations = []migration{
	{
		version:     1,
		description: "initial reproduction and review schema",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS jobs (
				id TEXT PRIMARY KEY,
				repo_url TEXT NOT NULL,
				arxiv_id TEXT,
				run_command TEXT,
				status TEXT NOT NULL CHECK (status IN ('pending','running','completed','failed')),
				error_message TEXT,
				detected_environment TEXT,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,

			`CREATE TABLE IF NOT EXISTS runs (
				job_id TEXT PRIMARY KEY REFERENCES jobs(id),
				exit_code INTEGER NOT NULL,
				stdout_preview TEXT,
				stderr_preview TEXT,
				logs_path TEXT NOT NULL,
				started_at DATETIME NOT NULL,
				completed_at DATETIME NOT NULL,
				duration_seconds REAL NOT NULL CHECK (duration_seconds > 0)
			)`,

			`CREATE TABLE IF NOT EXISTS artifacts (
				id TEXT PRIMARY KEY,
				job_id TEXT NOT NULL REFERENCES jobs(id),
				type TEXT NOT NULL CHECK (type IN ('report','notebook','badge')),
				format TEXT NOT NULL,
				content_path TEXT NOT NULL,
				content_size INTEGER NOT NULL CHECK (content_size >= 0)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_artifacts_job ON artifacts(job_id)`,

			`CREATE TABLE IF NOT EXISTS reviews (
				id TEXT PRIMARY KEY,
				url TEXT,
				doi TEXT,
				pdf_file_path TEXT,
				repo_url TEXT,
				status TEXT NOT NULL CHECK (status IN ('pending','processing','completed','failed')),
				error_message TEXT,
				paper_meta TEXT,
				paper_text TEXT,
				claims TEXT,
				citations TEXT,
				checklist TEXT,
				quality_score TEXT,
				badges TEXT,
				html_report_path TEXT,
				json_summary_path TEXT,
				errors TEXT,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				CHECK (url IS NOT NULL OR doi IS NOT NULL OR pdf_file_path IS NOT NULL)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_reviews_status ON reviews(status)`,

			`CREATE TABLE IF NOT EXISTS papers (
				id TEXT PRIMARY KEY,
				aid TEXT NOT NULL UNIQUE,
				title TEXT NOT NULL,
				repo_url TEXT,
				visibility TEXT NOT NULL CHECK (visibility IN ('private','unlisted','public')),
				license TEXT,
				created_by TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				approved_public_at DATETIME,
				deleted_at DATETIME
			)`,
			`CREATE INDEX IF NOT EXISTS idx_papers_aid ON papers(aid)`,

			`CREATE TABLE IF NOT EXISTS paper_versions (
				id TEXT PRIMARY KEY,
				aid TEXT NOT NULL REFERENCES papers(aid),
				version INTEGER NOT NULL CHECK (version >= 1),
				pdf_path TEXT NOT NULL,
				meta_json TEXT,
				created_at DATETIME NOT NULL,
				deleted_at DATETIME,
				UNIQUE (aid, version)
			)`,

			`CREATE TABLE IF NOT EXISTS paper_external_ids (
				id TEXT PRIMARY KEY,
				paper_id TEXT NOT NULL REFERENCES papers(id),
				kind TEXT NOT NULL CHECK (kind IN ('doi','arxiv','pmid','url')),
				value TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				UNIQUE (paper_id, kind)
			)`,

			`CREATE TABLE IF NOT EXISTS claims (
				id TEXT PRIMARY KEY,
				paper_version_id TEXT NOT NULL REFERENCES paper_versions(id),
				paper_id TEXT REFERENCES papers(id),
				text TEXT NOT NULL CHECK (length(text) <= 5000),
				span_start INTEGER,
				span_end INTEGER,
				page INTEGER,
				bbox TEXT,
				section TEXT,
				confidence REAL CHECK (confidence IS NULL OR (confidence >= 0 AND confidence <= 1)),
				hash TEXT NOT NULL UNIQUE,
				text_hash TEXT,
				created_at DATETIME NOT NULL,
				CHECK ((span_start IS NULL AND span_end IS NULL) OR (span_start IS NOT NULL AND span_end IS NOT NULL))
			)`,
			`CREATE INDEX IF NOT EXISTS idx_claims_paper ON claims(paper_id)`,

			`CREATE TABLE IF NOT EXISTS claim_links (
				id TEXT PRIMARY KEY,
				claim_id TEXT NOT NULL REFERENCES claims(id),
				source_paper_id TEXT REFERENCES papers(id),
				source_doc_id TEXT,
				relation TEXT NOT NULL CHECK (relation IN ('equivalent','complementary','contradictory','unclear')),
				confidence REAL NOT NULL CHECK (confidence >= 0 AND confidence <= 1),
				context_excerpt TEXT,
				reasoning_ref TEXT,
				CHECK (source_paper_id IS NOT NULL OR source_doc_id IS NOT NULL)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_claim_links_claim ON claim_links(claim_id)`,

			`CREATE TABLE IF NOT EXISTS quality_scores (
				id TEXT PRIMARY KEY,
				scope TEXT NOT NULL CHECK (scope IN ('paper','version')),
				paper_id TEXT REFERENCES papers(id),
				paper_version_id TEXT REFERENCES paper_versions(id),
				score INTEGER NOT NULL CHECK (score >= 0 AND score <= 100),
				signals TEXT,
				rationale TEXT,
				scoring_model_version TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				CHECK (
					(scope = 'paper' AND paper_id IS NOT NULL AND paper_version_id IS NULL) OR
					(scope = 'version' AND paper_version_id IS NOT NULL AND paper_id IS NULL)
				)
			)`,

			`CREATE TABLE IF NOT EXISTS queue_items (
				id TEXT PRIMARY KEY,
				queue TEXT NOT NULL CHECK (queue IN ('default','reviews')),
				ref_id TEXT NOT NULL,
				status TEXT NOT NULL CHECK (status IN ('queued','leased','done')),
				enqueued_at DATETIME NOT NULL,
				leased_at DATETIME,
				lease_expires_at DATETIME
			)`,
			`CREATE INDEX IF NOT EXISTS idx_queue_items_queue_status ON queue_items(queue, status)`,
		},
	},
}

// Migrate brings db up to CurrentSchemaVersion, creating schema_versions if
// absent and applying every migration whose version has not yet been
// recorded. Mirrors the teacher's RunMigrations: idempotent, safe to call on
// every process start.
func Migrate(db *sql.DB) error {
	step := logging.LogStep("store", "", "migrate")
	var migErr error
	defer func() { step.End(migErr) }()

	if _, migErr = db.Exec(`CREATE TABLE IF NOT EXISTS schema_versions (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); migErr != nil {
		return fmt.Errorf("creating schema_versions: %w", migErr)
	}

	applied := map[int]bool{}
	rows, migErr := db.Query(`SELECT version FROM schema_versions`)
	if migErr != nil {
		return fmt.Errorf("reading schema_versions: %w", migErr)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err == nil {
			applied[v] = true
		}
	}
	rows.Close()

	for _, m := range migrations {
		if applied[m.version] {
			migLog.Debug("schema version %d already applied, skipping", m.version)
			continue
		}
		migLog.Info("applying schema migration v%d: %s", m.version, m.description)
		for _, stmt := range m.statements {
			if _, migErr = db.Exec(stmt); migErr != nil {
				return fmt.Errorf("migration v%d: %w", m.version, migErr)
			}
		}
		if _, migErr = db.Exec(`INSERT INTO schema_versions (version) VALUES (?)`, m.version); migErr != nil {
			return fmt.Errorf("recording schema version %d: %w", m.version, migErr)
		}
	}
	return nil
}
