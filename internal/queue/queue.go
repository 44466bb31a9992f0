// Package queue implements the durable multi-producer/single-consumer work
// queue of spec §4.3: two logical queues ("default" for reproduction Jobs,
// "reviews" for Review pipelines), each item carrying only an identifier that
// a worker resolves against the relational store. It generalizes the
// teacher's in-process, priority-channel SpawnQueue (internal/core/shards/
// spawn_queue.go) into a durable, SQLite-backed queue that survives a worker
// restart — a crashed worker otherwise leaves no trace of in-flight work.
package queue

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scitorrent/arandu-repro/internal/logging"
)

// Name identifies one of the two logical queues.
type Name string

const (
	Default Name = "default"
	Reviews Name = "reviews"
)

// ErrEmpty is returned by Dequeue when no item is available to lease.
var ErrEmpty = errors.New("queue: no item available")

// Item is one unit of work: a pointer to a Job or Review id, never the
// payload itself.
type Item struct {
	ID      string
	Queue   Name
	RefID   string
	LeaseID string
}

// Queue wraps the queue_items table (created by internal/store's migration).
type Queue struct {
	db  *sql.DB
	log *logging.Logger
}

// New wraps an already-migrated *sql.DB.
func New(db *sql.DB) *Queue {
	return &Queue{db: db, log: logging.Get("queue")}
}

// Enqueue adds refID (a Job or Review UUID) to the named queue.
func (q *Queue) Enqueue(queueName Name, refID string) (string, error) {
	id := uuid.NewString()
	_, err := q.db.Exec(
		`INSERT INTO queue_items (id, queue, ref_id, status, enqueued_at) VALUES (?, ?, ?, 'queued', ?)`,
		id, queueName, refID, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("enqueueing %s item %s: %w", queueName, refID, err)
	}
	q.log.Debug("enqueued %s item %s (ref %s)", queueName, id, refID)
	return id, nil
}

// Dequeue leases the oldest queued item from queueName for leaseFor, marking
// it "leased" so no other consumer can pick it up. Returns ErrEmpty if the
// queue has nothing available. At-most-one-consumer semantics (spec §5) come
// from the atomic UPDATE...WHERE status='queued' below.
func (q *Queue) Dequeue(queueName Name, leaseFor time.Duration) (*Item, error) {
	tx, err := q.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning dequeue tx: %w", err)
	}
	defer tx.Rollback()

	var id, refID string
	err = tx.QueryRow(
		`SELECT id, ref_id FROM queue_items WHERE queue = ? AND status = 'queued' ORDER BY enqueued_at LIMIT 1`,
		queueName,
	).Scan(&id, &refID)
	if err == sql.ErrNoRows {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("selecting next %s item: %w", queueName, err)
	}

	now := time.Now().UTC()
	expires := now.Add(leaseFor)
	res, err := tx.Exec(
		`UPDATE queue_items SET status = 'leased', leased_at = ?, lease_expires_at = ? WHERE id = ? AND status = 'queued'`,
		now, expires, id,
	)
	if err != nil {
		return nil, fmt.Errorf("leasing item %s: %w", id, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		// Another consumer raced us between SELECT and UPDATE.
		return nil, ErrEmpty
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing lease of %s: %w", id, err)
	}

	q.log.Debug("leased %s item %s (ref %s) for %s", queueName, id, refID, leaseFor)
	return &Item{ID: id, Queue: queueName, RefID: refID, LeaseID: id}, nil
}

// Complete marks a leased item done.
func (q *Queue) Complete(itemID string) error {
	_, err := q.db.Exec(`UPDATE queue_items SET status = 'done' WHERE id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("completing queue item %s: %w", itemID, err)
	}
	return nil
}

// ExpiredLeases returns items whose lease has expired without completion —
// the recovery hook a supervising process can poll to detect a crashed
// worker. Recovery itself (re-queue vs. mark failed) is left to the caller;
// this core only surfaces the orphaned item.
func (q *Queue) ExpiredLeases(queueName Name) ([]*Item, error) {
	rows, err := q.db.Query(
		`SELECT id, ref_id FROM queue_items WHERE queue = ? AND status = 'leased' AND lease_expires_at < ?`,
		queueName, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing expired leases for %s: %w", queueName, err)
	}
	defer rows.Close()

	var out []*Item
	for rows.Next() {
		var it Item
		it.Queue = queueName
		if err := rows.Scan(&it.ID, &it.RefID); err != nil {
			return nil, fmt.Errorf("scanning expired lease: %w", err)
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

// Requeue resets an expired-lease item back to queued, for retry.
func (q *Queue) Requeue(itemID string) error {
	_, err := q.db.Exec(
		`UPDATE queue_items SET status = 'queued', leased_at = NULL, lease_expires_at = NULL WHERE id = ?`,
		itemID,
	)
	if err != nil {
		return fmt.Errorf("requeueing item %s: %w", itemID, err)
	}
	return nil
}
