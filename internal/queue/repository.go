package queue

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound is returned when a lifecycle transition targets a job
// that does not exist.
var ErrJobNotFound = errors.New("job not found")

// Repository defines the storage contract for job lifecycle management.
type Repository interface {
	// Enqueue inserts a pending job. If a job with the same ID is
	// already pending or active the call is a no-op and reports false;
	// a completed or failed job with the same ID is re-armed for a new
	// run and reported as accepted.
	Enqueue(ctx context.Context, job *Job) (accepted bool, err error)

	// Claim atomically moves up to limit due jobs to active, increments
	// their attempt count, and sets the visibility deadline. Active jobs
	// whose deadline has passed are presumed crashed and are reclaimed.
	Claim(ctx context.Context, queue Name, limit int, visibility time.Duration) ([]*Job, error)

	// ExtendClaim pushes the visibility deadline of an active job out.
	// Workers call it for the waiting tail of a claimed batch so slow
	// predecessors cannot expire it.
	ExtendClaim(ctx context.Context, queue Name, id string, visibility time.Duration) error

	// Complete marks an active job as successfully processed.
	Complete(ctx context.Context, queue Name, id string) error

	// MarkForRetry returns a job to pending with the next attempt time
	// and records the error that caused the retry.
	MarkForRetry(ctx context.Context, queue Name, id string, cause error, nextAttempt time.Time) error

	// MarkFailed moves a job to the failed set. Failed jobs are
	// inspectable but never retried automatically.
	MarkFailed(ctx context.Context, queue Name, id string, cause error) error

	// Stats returns the status counts for one queue.
	Stats(ctx context.Context, queue Name) (*Stats, error)
}
