package queue

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scitorrent/arandu-repro/internal/store"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "q.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db.DB)
}

func TestEnqueueDequeueComplete(t *testing.T) {
	q := newTestQueue(t)
	_, err := q.Enqueue(Default, "job-1")
	require.NoError(t, err)

	item, err := q.Dequeue(Default, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "job-1", item.RefID)

	_, err = q.Dequeue(Default, time.Minute)
	require.ErrorIs(t, err, ErrEmpty)

	require.NoError(t, q.Complete(item.ID))
}

func TestQueuesAreIsolated(t *testing.T) {
	q := newTestQueue(t)
	_, err := q.Enqueue(Reviews, "review-1")
	require.NoError(t, err)

	_, err = q.Dequeue(Default, time.Minute)
	require.ErrorIs(t, err, ErrEmpty)

	item, err := q.Dequeue(Reviews, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "review-1", item.RefID)
}

func TestExpiredLeaseCanBeRequeued(t *testing.T) {
	q := newTestQueue(t)
	_, err := q.Enqueue(Default, "job-2")
	require.NoError(t, err)

	item, err := q.Dequeue(Default, -time.Second) // already expired
	require.NoError(t, err)

	expired, err := q.ExpiredLeases(Default)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.Equal(t, item.ID, expired[0].ID)

	require.NoError(t, q.Requeue(item.ID))
	again, err := q.Dequeue(Default, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "job-2", again.RefID)
}
