package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db.DB))
}

func TestJobLifecycle(t *testing.T) {
	db := openTestDB(t)
	job := &Job{ID: uuid.NewString(), RepoURL: "file:///tmp/repo", RunCommand: sql.NullString{String: "python main.py", Valid: true}}
	require.NoError(t, db.CreateJob(job))

	got, err := db.GetJob(job.ID)
	require.NoError(t, err)
	require.Equal(t, JobPending, got.Status)

	require.NoError(t, db.TransitionJob(job.ID, JobRunning, "", ""))
	require.Error(t, db.TransitionJob(job.ID, JobPending, "", "")) // running -> pending forbidden

	require.NoError(t, db.TransitionJob(job.ID, JobCompleted, "", ""))
	got, err = db.GetJob(job.ID)
	require.NoError(t, err)
	require.Equal(t, JobCompleted, got.Status)
}

func TestRunRequiresPositiveDuration(t *testing.T) {
	db := openTestDB(t)
	job := &Job{ID: uuid.NewString(), RepoURL: "file:///tmp/repo"}
	require.NoError(t, db.CreateJob(job))

	run := &Run{JobID: job.ID, ExitCode: 0, LogsPath: "/tmp/log", DurationSeconds: 0}
	require.Error(t, db.CreateRun(run))

	run.DurationSeconds = 1.5
	require.NoError(t, db.CreateRun(run))
}

func TestArtifactsListedForJob(t *testing.T) {
	db := openTestDB(t)
	job := &Job{ID: uuid.NewString(), RepoURL: "file:///tmp/repo"}
	require.NoError(t, db.CreateJob(job))

	require.NoError(t, db.CreateArtifact(&Artifact{ID: uuid.NewString(), JobID: job.ID, Type: ArtifactReport, Format: "markdown", ContentPath: "/a/report.md", ContentSize: 10}))
	require.NoError(t, db.CreateArtifact(&Artifact{ID: uuid.NewString(), JobID: job.ID, Type: ArtifactBadge, Format: "markdown", ContentPath: "/a/badge.md", ContentSize: 3}))

	artifacts, err := db.ListArtifacts(job.ID)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
}

func TestPaperVersionUniqueness(t *testing.T) {
	db := openTestDB(t)
	paper := &Paper{ID: uuid.NewString(), AID: "abcDEF012345", Title: "Test Paper", Visibility: VisibilityPrivate, CreatedBy: "tester"}
	require.NoError(t, db.CreatePaper(paper))

	tx, err := db.Begin()
	require.NoError(t, err)
	v1, err := db.NextVersion(tx, paper.AID)
	require.NoError(t, err)
	require.Equal(t, 1, v1)
	require.NoError(t, db.CreatePaperVersion(tx, &PaperVersion{ID: uuid.NewString(), AID: paper.AID, Version: v1, PDFPath: "v1/file.pdf"}))
	require.NoError(t, tx.Commit())

	tx2, err := db.Begin()
	require.NoError(t, err)
	v2, err := db.NextVersion(tx2, paper.AID)
	require.NoError(t, err)
	require.Equal(t, 2, v2)
	require.Error(t, db.CreatePaperVersion(tx2, &PaperVersion{ID: uuid.NewString(), AID: paper.AID, Version: v1, PDFPath: "v1/file.pdf"}))
	require.NoError(t, tx2.Rollback())
}

func TestQualityScoreScopeXOR(t *testing.T) {
	db := openTestDB(t)
	paper := &Paper{ID: uuid.NewString(), AID: "xorPaper0001", Title: "X", Visibility: VisibilityPrivate, CreatedBy: "tester"}
	require.NoError(t, db.CreatePaper(paper))

	bad := &QualityScore{
		ID: uuid.NewString(), Scope: ScopePaper,
		PaperID:        sql.NullString{String: paper.ID, Valid: true},
		PaperVersionID: sql.NullString{String: "not-allowed", Valid: true},
		Score:          80, ScoringModelVersion: "v1",
	}
	require.Error(t, db.CreateQualityScore(bad))

	good := &QualityScore{
		ID: uuid.NewString(), Scope: ScopePaper,
		PaperID: sql.NullString{String: paper.ID, Valid: true},
		Score:   80, ScoringModelVersion: "v1",
	}
	require.NoError(t, db.CreateQualityScore(good))
}

func TestClaimSpanConsistency(t *testing.T) {
	db := openTestDB(t)
	paper := &Paper{ID: uuid.NewString(), AID: "spanPaper001", Title: "S", Visibility: VisibilityPrivate, CreatedBy: "tester"}
	require.NoError(t, db.CreatePaper(paper))
	tx, err := db.Begin()
	require.NoError(t, err)
	v, err := db.NextVersion(tx, paper.AID)
	require.NoError(t, err)
	pv := &PaperVersion{ID: uuid.NewString(), AID: paper.AID, Version: v, PDFPath: "v1/file.pdf"}
	require.NoError(t, db.CreatePaperVersion(tx, pv))
	require.NoError(t, tx.Commit())

	half := &Claim{
		ID: uuid.NewString(), PaperVersionID: pv.ID, Text: "We show X improves Y.",
		SpanStart: sql.NullInt64{Int64: 10, Valid: true}, // span_end absent -> violates CHECK
		Hash:      ClaimHash("We show X improves Y.", nil, nil, pv.ID),
	}
	require.Error(t, db.CreateClaim(half))

	start, end := 0, 21
	full := &Claim{
		ID: uuid.NewString(), PaperVersionID: pv.ID, Text: "We show X improves Y.",
		SpanStart: sql.NullInt64{Int64: int64(start), Valid: true},
		SpanEnd:   sql.NullInt64{Int64: int64(end), Valid: true},
		Hash:      ClaimHash("We show X improves Y.", &start, &end, pv.ID),
	}
	require.NoError(t, db.CreateClaim(full))
}

func TestExternalIDUniquePerPaperAndKind(t *testing.T) {
	db := openTestDB(t)
	paperA := &Paper{ID: uuid.NewString(), AID: "extidPaperAAA", Title: "A", Visibility: VisibilityPrivate, CreatedBy: "tester"}
	paperB := &Paper{ID: uuid.NewString(), AID: "extidPaperBBB", Title: "B", Visibility: VisibilityPrivate, CreatedBy: "tester"}
	require.NoError(t, db.CreatePaper(paperA))
	require.NoError(t, db.CreatePaper(paperB))

	require.NoError(t, db.CreateExternalID(&ExternalID{ID: uuid.NewString(), PaperID: paperA.ID, Kind: ExternalIDDOI, Value: "10.1000/xyz"}))

	// A second DOI on the same paper violates UNIQUE (paper_id, kind).
	require.Error(t, db.CreateExternalID(&ExternalID{ID: uuid.NewString(), PaperID: paperA.ID, Kind: ExternalIDDOI, Value: "10.1000/abc"}))

	// The same kind/value pair on a different paper is allowed.
	require.NoError(t, db.CreateExternalID(&ExternalID{ID: uuid.NewString(), PaperID: paperB.ID, Kind: ExternalIDDOI, Value: "10.1000/xyz"}))

	ids, err := db.ListExternalIDs(paperA.ID)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	got, err := db.GetExternalID(paperA.ID, ExternalIDDOI)
	require.NoError(t, err)
	require.Equal(t, "10.1000/xyz", got.Value)
}

func TestReviewRequiresAnIdentifier(t *testing.T) {
	db := openTestDB(t)
	review := &Review{ID: uuid.NewString()}
	require.Error(t, db.CreateReview(review))

	review.URL = sql.NullString{String: "https://arxiv.org/abs/1234.5678", Valid: true}
	require.NoError(t, db.CreateReview(review))
}
