// Package postgres provides the PostgreSQL implementation of the job
// queue repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/expdynts/expwatch/internal/queue"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements queue.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL queue repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Enqueue inserts a pending job, deduplicating on (queue, id).
// A conflicting row that is pending or active is left untouched; a
// completed or failed row is re-armed for a new run.
func (r *Repository) Enqueue(ctx context.Context, job *queue.Job) (bool, error) {
	query := `
		INSERT INTO jobs (id, queue, payload, status, priority, max_attempts, next_attempt_at)
		VALUES ($1, $2, $3, 'pending', $4, $5, NOW())
		ON CONFLICT (queue, id) DO UPDATE
		SET payload = EXCLUDED.payload,
		    status = 'pending',
		    priority = EXCLUDED.priority,
		    attempts = 0,
		    max_attempts = EXCLUDED.max_attempts,
		    next_attempt_at = NOW(),
		    claimed_until = NULL,
		    last_error = '',
		    completed_at = NULL,
		    updated_at = NOW()
		WHERE jobs.status IN ('completed', 'failed')
		RETURNING created_at
	`
	var createdAt time.Time
	err := r.db.QueryRow(ctx, query,
		job.ID,
		job.Queue,
		job.Payload,
		job.Priority,
		job.MaxAttempts,
	).Scan(&createdAt)

	if errors.Is(err, pgx.ErrNoRows) {
		// Duplicate of a pending or active job: idempotent no-op.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("enqueue job: %w", err)
	}

	job.CreatedAt = createdAt
	return true, nil
}

// Claim moves up to limit due jobs to active using FOR UPDATE SKIP
// LOCKED so concurrent workers never claim the same job. Active jobs
// whose visibility deadline has passed are treated as abandoned and
// claimed again.
func (r *Repository) Claim(ctx context.Context, name queue.Name, limit int, visibility time.Duration) ([]*queue.Job, error) {
	query := `
		UPDATE jobs
		SET status = 'active',
		    attempts = attempts + 1,
		    claimed_until = NOW() + make_interval(secs => $3),
		    updated_at = NOW()
		WHERE (queue, id) IN (
			SELECT queue, id FROM jobs
			WHERE queue = $1
			  AND (
			    (status = 'pending' AND next_attempt_at <= NOW())
			    OR (status = 'active' AND claimed_until < NOW())
			  )
			ORDER BY priority DESC, next_attempt_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, queue, payload, status, priority, attempts, max_attempts,
		          next_attempt_at, claimed_until, last_error, created_at, updated_at, completed_at
	`
	rows, err := r.db.Query(ctx, query, name, limit, visibility.Seconds())
	if err != nil {
		return nil, fmt.Errorf("claim jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*queue.Job, 0, limit)
	for rows.Next() {
		var job queue.Job
		err := rows.Scan(
			&job.ID,
			&job.Queue,
			&job.Payload,
			&job.Status,
			&job.Priority,
			&job.Attempts,
			&job.MaxAttempts,
			&job.NextAttemptAt,
			&job.ClaimedUntil,
			&job.LastError,
			&job.CreatedAt,
			&job.UpdatedAt,
			&job.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, &job)
	}

	return jobs, nil
}

// ExtendClaim pushes the visibility deadline of an active job out. A
// job that is no longer active was already completed or reclaimed, so
// the update matches nothing and reports ErrJobNotFound.
func (r *Repository) ExtendClaim(ctx context.Context, name queue.Name, id string, visibility time.Duration) error {
	query := `
		UPDATE jobs
		SET claimed_until = NOW() + make_interval(secs => $3), updated_at = NOW()
		WHERE queue = $1 AND id = $2 AND status = 'active'
	`
	result, err := r.db.Exec(ctx, query, name, id, visibility.Seconds())
	if err != nil {
		return fmt.Errorf("extend claim: %w", err)
	}
	if result.RowsAffected() == 0 {
		return queue.ErrJobNotFound
	}
	return nil
}

// Complete marks an active job as successfully processed.
func (r *Repository) Complete(ctx context.Context, name queue.Name, id string) error {
	query := `
		UPDATE jobs
		SET status = 'completed', claimed_until = NULL, completed_at = NOW(), updated_at = NOW()
		WHERE queue = $1 AND id = $2
	`
	result, err := r.db.Exec(ctx, query, name, id)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return queue.ErrJobNotFound
	}
	return nil
}

// MarkForRetry returns a job to pending with a backoff deadline.
func (r *Repository) MarkForRetry(ctx context.Context, name queue.Name, id string, cause error, nextAttempt time.Time) error {
	query := `
		UPDATE jobs
		SET status = 'pending', claimed_until = NULL, next_attempt_at = $3, last_error = $4, updated_at = NOW()
		WHERE queue = $1 AND id = $2
	`
	result, err := r.db.Exec(ctx, query, name, id, nextAttempt, cause.Error())
	if err != nil {
		return fmt.Errorf("mark job for retry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return queue.ErrJobNotFound
	}
	return nil
}

// MarkFailed moves a job to the failed set.
func (r *Repository) MarkFailed(ctx context.Context, name queue.Name, id string, cause error) error {
	query := `
		UPDATE jobs
		SET status = 'failed', claimed_until = NULL, last_error = $3, updated_at = NOW()
		WHERE queue = $1 AND id = $2
	`
	result, err := r.db.Exec(ctx, query, name, id, cause.Error())
	if err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return queue.ErrJobNotFound
	}
	return nil
}

// Stats returns status counts for one queue.
func (r *Repository) Stats(ctx context.Context, name queue.Name) (*queue.Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM jobs
		WHERE queue = $1
	`
	var stats queue.Stats
	err := r.db.QueryRow(ctx, query, name).Scan(
		&stats.Total,
		&stats.Active,
		&stats.Pending,
		&stats.Failed,
		&stats.Completed,
	)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	return &stats, nil
}
