package worker

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/scitorrent/arandu-repro/internal/config"
	"github.com/scitorrent/arandu-repro/internal/queue"
	"github.com/scitorrent/arandu-repro/internal/repro/envdetect"
	"github.com/scitorrent/arandu-repro/internal/repro/sandbox"
	"github.com/scitorrent/arandu-repro/internal/store"
)

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "w.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEmitArtifactsWritesAllThreeAndRecordsRows(t *testing.T) {
	db := newTestDB(t)
	w := &Worker{db: db}

	job := &store.Job{
		ID: uuid.NewString(), RepoURL: "file:///tmp/repo",
		RunCommand: sql.NullString{String: "python main.py", Valid: true},
	}
	require.NoError(t, db.CreateJob(job))

	env := &envdetect.EnvironmentInfo{Type: envdetect.EnvPip, BaseImage: "python:3.11-slim"}
	result := &sandbox.Result{
		ExitCode: 0, StdoutPreview: "Hello from Arandu Repro test!\n",
		CombinedLogPath: "/artifacts/" + job.ID + "/logs/combined.log",
		StartedAt:       time.Now().Add(-time.Second), CompletedAt: time.Now(), Duration: time.Second,
	}

	artifactsPath := filepath.Join(t.TempDir(), job.ID)
	require.NoError(t, w.emitArtifacts(job.ID, job, env, result, artifactsPath))

	require.FileExists(t, filepath.Join(artifactsPath, "report.md"))
	require.FileExists(t, filepath.Join(artifactsPath, "notebook.ipynb"))
	require.FileExists(t, filepath.Join(artifactsPath, "badge.md"))

	rows, err := db.ListArtifacts(job.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
}

func TestPollOnceReturnsErrEmptyWhenNoWork(t *testing.T) {
	db := newTestDB(t)
	q := queue.New(db.DB)
	w := &Worker{db: db, q: q, cfg: config.DefaultConfig()}

	_, err := q.Dequeue(queue.Default, time.Minute)
	require.ErrorIs(t, err, queue.ErrEmpty)

	err = w.PollOnce(context.Background())
	require.ErrorIs(t, err, queue.ErrEmpty)
}
