// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/board-elections/store"
)

// Queue reads and writes the jobs table. Times are stored as unix seconds.
type Queue struct {
	db  *sql.DB
	now func() time.Time
}

func NewQueue(conn *sql.DB) *Queue {
	return &Queue{db: conn, now: time.Now}
}

// Enqueue inserts a job of type typ with a JSON payload. Pass the caller's
// transaction as tx so the job only becomes visible when it commits; a nil tx
// writes directly.
func (q *Queue) Enqueue(ctx context.Context, tx store.DBTX, typ string, payload any) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode job payload: %w", err)
	}
	j := &Job{
		ID:          uuid.NewString(),
		Type:        typ,
		Payload:     b,
		MaxAttempts: defaultMaxAttempts,
		Priority:    priorityFor(typ),
		ScheduledAt: q.now(),
	}
	if err := q.insert(ctx, tx, j); err != nil {
		return "", err
	}
	return j.ID, nil
}

func priorityFor(typ string) int {
	if typ == TypeNominationSubmitted {
		return 10
	}
	return defaultPriority
}

func (q *Queue) insert(ctx context.Context, tx store.DBTX, j *Job) error {
	if tx == nil {
		tx = q.db
	}
	if j.MaxAttempts == 0 {
		j.MaxAttempts = defaultMaxAttempts
	}
	now := q.now().UTC().Unix()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO jobs (id, type, payload, status, attempts, max_attempts, priority, scheduled_at, created, updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, j.ID, j.Type, string(j.Payload), StatusQueued, j.Attempts, j.MaxAttempts, j.Priority,
		j.ScheduledAt.UTC().Unix(), now, now)
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}
	return nil
}

const jobColumns = `id, type, payload, status, attempts, max_attempts, priority, scheduled_at, next_try_at, last_error, created, updated`

func scanJob(row interface{ Scan(...any) error }) (*Job, error) {
	var (
		j           Job
		payload     sql.NullString
		scheduledAt int64
		nextTry     sql.NullInt64
		lastError   sql.NullString
		created     int64
		updated     int64
	)
	if err := row.Scan(&j.ID, &j.Type, &payload, &j.Status, &j.Attempts, &j.MaxAttempts, &j.Priority,
		&scheduledAt, &nextTry, &lastError, &created, &updated); err != nil {
		return nil, err
	}
	j.ScheduledAt = time.Unix(scheduledAt, 0)
	j.Created = time.Unix(created, 0)
	j.Updated = time.Unix(updated, 0)
	if payload.Valid {
		j.Payload = json.RawMessage(payload.String)
	}
	if nextTry.Valid {
		t := time.Unix(nextTry.Int64, 0)
		j.NextTryAt = &t
	}
	if lastError.Valid {
		j.LastError = lastError.String
	}
	return &j, nil
}

// RunningLease is how long a job may stay running before another worker may
// take it over, e.g. after the process died mid-job.
const RunningLease = 10 * time.Minute

// FetchNext returns the next runnable job by priority and schedule, or nil
// when there is nothing to do. Running jobs past their lease count as
// runnable.
func (q *Queue) FetchNext(ctx context.Context) (*Job, error) {
	now := q.now().UTC()
	row := q.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM jobs
		WHERE (((status = $1 OR status = $2)
		    AND (next_try_at IS NULL OR next_try_at <= $3)
		    AND scheduled_at <= $3)
		  OR (status = $4 AND updated <= $5))
		ORDER BY priority ASC, scheduled_at ASC
		LIMIT 1
	`, StatusQueued, StatusRetry, now.Unix(), StatusRunning, now.Add(-RunningLease).Unix())
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch next job: %w", err)
	}
	return j, nil
}

// Claim marks a fetched job as running. It reports false when another worker
// got there first.
func (q *Queue) Claim(ctx context.Context, j *Job) (bool, error) {
	now := q.now().UTC()
	res, err := q.db.ExecContext(ctx, `
		UPDATE jobs SET status = $1, updated = $2
		WHERE id = $3 AND (status = $4 OR status = $5 OR (status = $1 AND updated <= $6))
	`, StatusRunning, now.Unix(), j.ID, StatusQueued, StatusRetry, now.Add(-RunningLease).Unix())
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	if n == 1 {
		j.Status = StatusRunning
	}
	return n == 1, nil
}

// UpdateJob writes back status, attempts, next_try_at and last_error.
func (q *Queue) UpdateJob(ctx context.Context, j *Job) error {
	var nextTry sql.NullInt64
	if j.NextTryAt != nil {
		nextTry = sql.NullInt64{Int64: j.NextTryAt.UTC().Unix(), Valid: true}
	}
	_, err := q.db.ExecContext(ctx, `
		UPDATE jobs SET status = $1, attempts = $2, next_try_at = $3, last_error = $4, updated = $5
		WHERE id = $6
	`, j.Status, j.Attempts, nextTry, j.LastError, q.now().UTC().Unix(), j.ID)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// MoveToDeadLetter copies the job to dead_letter_jobs and removes it from the
// queue.
func (q *Queue) MoveToDeadLetter(ctx context.Context, j *Job) error {
	return store.WithTx(ctx, q.db, nil, func(ctx context.Context, tx store.DBTX) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO dead_letter_jobs (job_id, type, payload, attempts, last_error, failed_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, j.ID, j.Type, string(j.Payload), j.Attempts, j.LastError, q.now().UTC().Unix())
		if err != nil {
			return fmt.Errorf("dead letter insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, j.ID); err != nil {
			return fmt.Errorf("dead letter delete: %w", err)
		}
		return nil
	})
}

// Get loads a job by ID.
func (q *Queue) Get(ctx context.Context, id string) (*Job, error) {
	j, err := scanJob(q.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

// DeadLetter is a job that exhausted its attempts.
type DeadLetter struct {
	JobID     string    `json:"job_id"`
	Type      string    `json:"type"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error"`
	FailedAt  time.Time `json:"failed_at"`
}

// DeadLetters lists dead-lettered jobs, most recent first.
func (q *Queue) DeadLetters(ctx context.Context) ([]DeadLetter, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT job_id, type, attempts, last_error, failed_at FROM dead_letter_jobs ORDER BY failed_at DESC, job_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}
	defer rows.Close()

	var out []DeadLetter
	for rows.Next() {
		var d DeadLetter
		var lastError sql.NullString
		var failedAt int64
		if err := rows.Scan(&d.JobID, &d.Type, &d.Attempts, &lastError, &failedAt); err != nil {
			return nil, fmt.Errorf("list dead letters: %w", err)
		}
		d.LastError = lastError.String
		d.FailedAt = time.Unix(failedAt, 0)
		out = append(out, d)
	}
	return out, rows.Err()
}
