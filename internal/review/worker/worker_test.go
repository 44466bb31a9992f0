package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/scitorrent/arandu-repro/internal/config"
	"github.com/scitorrent/arandu-repro/internal/queue"
	"github.com/scitorrent/arandu-repro/internal/store"
)

const samplePaperText = `Abstract
We show our method significantly outperforms the baseline versus prior work.

Results
We observe consistent gains over the baseline with error bars (±0.4) across seed=1234 runs.
`

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "review-worker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Paths.ReviewsBase = t.TempDir()
	cfg.Paths.TempReposBase = t.TempDir()
	cfg.Timeouts.Review = time.Minute
	return cfg
}

func TestPollOnceReturnsErrEmptyWhenNoWork(t *testing.T) {
	db := newTestDB(t)
	q := queue.New(db.DB)
	w := New(db, q, testConfig(t), nil, "")

	_, err := q.Dequeue(queue.Reviews, time.Minute)
	require.ErrorIs(t, err, queue.ErrEmpty)

	err = w.PollOnce(context.Background())
	require.ErrorIs(t, err, queue.ErrEmpty)
}

func TestProcessRunsReviewToCompletion(t *testing.T) {
	db := newTestDB(t)
	q := queue.New(db.DB)
	w := New(db, q, testConfig(t), nil, "")

	rev := &store.Review{
		ID:        uuid.NewString(),
		PaperText: sql.NullString{String: samplePaperText, Valid: true},
	}
	require.NoError(t, db.CreateReview(rev))
	_, err := q.Enqueue(queue.Reviews, rev.ID)
	require.NoError(t, err)

	require.NoError(t, w.PollOnce(context.Background()))

	got, err := db.GetReview(rev.ID)
	require.NoError(t, err)
	require.Equal(t, store.ReviewCompleted, got.Status)
	require.True(t, got.Claims.Valid)
	require.True(t, got.Checklist.Valid)
	require.True(t, got.QualityScore.Valid)
	require.True(t, got.Badges.Valid)
	require.True(t, got.HTMLReportPath.Valid)
	require.True(t, got.JSONSummaryPath.Valid)

	require.FileExists(t, got.HTMLReportPath.String)
	require.FileExists(t, got.JSONSummaryPath.String)

	var claims []map[string]any
	require.NoError(t, json.Unmarshal([]byte(got.Claims.String), &claims))
	require.NotEmpty(t, claims)
}

func TestProcessFetchesPaperTextFromURLWhenNotUploaded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Fetched Paper</title></head><body><p>` + samplePaperText + `</p></body></html>`))
	}))
	defer srv.Close()

	db := newTestDB(t)
	q := queue.New(db.DB)
	w := New(db, q, testConfig(t), nil, "")

	rev := &store.Review{
		ID:  uuid.NewString(),
		URL: sql.NullString{String: srv.URL, Valid: true},
	}
	require.NoError(t, db.CreateReview(rev))
	_, err := q.Enqueue(queue.Reviews, rev.ID)
	require.NoError(t, err)

	require.NoError(t, w.PollOnce(context.Background()))

	got, err := db.GetReview(rev.ID)
	require.NoError(t, err)
	require.Equal(t, store.ReviewCompleted, got.Status)
	require.True(t, got.PaperText.Valid)
	require.Contains(t, got.PaperText.String, "outperforms the baseline")
}

func TestProcessRefusesDOIOnlyReview(t *testing.T) {
	db := newTestDB(t)
	q := queue.New(db.DB)
	w := New(db, q, testConfig(t), nil, "")

	rev := &store.Review{
		ID:  uuid.NewString(),
		DOI: sql.NullString{String: "10.1000/xyz123", Valid: true},
	}
	require.NoError(t, db.CreateReview(rev))
	_, err := q.Enqueue(queue.Reviews, rev.ID)
	require.NoError(t, err)

	require.NoError(t, w.PollOnce(context.Background()))

	got, err := db.GetReview(rev.ID)
	require.NoError(t, err)
	require.Equal(t, store.ReviewFailed, got.Status)
	require.True(t, got.ErrorMessage.Valid)
	require.Contains(t, got.ErrorMessage.String, "DOI-only")
	require.False(t, got.QualityScore.Valid)
}

func TestProcessRecordsMissingRAGAsPartialFailure(t *testing.T) {
	db := newTestDB(t)
	q := queue.New(db.DB)
	w := New(db, q, testConfig(t), nil, "")

	rev := &store.Review{
		ID:        uuid.NewString(),
		PaperText: sql.NullString{String: samplePaperText, Valid: true},
	}
	require.NoError(t, db.CreateReview(rev))
	_, err := q.Enqueue(queue.Reviews, rev.ID)
	require.NoError(t, err)

	require.NoError(t, w.PollOnce(context.Background()))

	got, err := db.GetReview(rev.ID)
	require.NoError(t, err)
	require.True(t, got.Errors.Valid)

	var errs map[string]string
	require.NoError(t, json.Unmarshal([]byte(got.Errors.String), &errs))
	require.Equal(t, "no retrieval pipeline configured", errs["citation_suggestion"])
}
