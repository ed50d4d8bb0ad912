// Package queuetest provides an in-memory queue repository for tests.
package queuetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/expdynts/expwatch/internal/queue"
)

// Repository is an in-memory queue.Repository with the same
// deduplication and claim semantics as the PostgreSQL implementation.
type Repository struct {
	mu   sync.Mutex
	jobs map[string]*queue.Job // keyed by queue+"/"+id
	now  func() time.Time
}

// NewRepository creates an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		jobs: make(map[string]*queue.Job),
		now:  time.Now,
	}
}

// SetNow overrides the clock, for backoff tests.
func (r *Repository) SetNow(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func key(name queue.Name, id string) string {
	return string(name) + "/" + id
}

// Enqueue inserts a pending job with dedup-on-ID semantics.
func (r *Repository) Enqueue(_ context.Context, job *queue.Job) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(job.Queue, job.ID)
	if existing, ok := r.jobs[k]; ok {
		if existing.Status == queue.StatusPending || existing.Status == queue.StatusActive {
			return false, nil
		}
	}

	stored := *job
	stored.Status = queue.StatusPending
	stored.Attempts = 0
	stored.NextAttemptAt = r.now()
	stored.CreatedAt = r.now()
	r.jobs[k] = &stored
	return true, nil
}

// Claim moves due jobs to active, oldest deadline first.
func (r *Repository) Claim(_ context.Context, name queue.Name, limit int, visibility time.Duration) ([]*queue.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	due := make([]*queue.Job, 0)
	for _, job := range r.jobs {
		if job.Queue != name {
			continue
		}
		pendingDue := job.Status == queue.StatusPending && !job.NextAttemptAt.After(now)
		expired := job.Status == queue.StatusActive && job.ClaimedUntil != nil && job.ClaimedUntil.Before(now)
		if pendingDue || expired {
			due = append(due, job)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].Priority != due[j].Priority {
			return due[i].Priority > due[j].Priority
		}
		return due[i].NextAttemptAt.Before(due[j].NextAttemptAt)
	})

	if len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]*queue.Job, 0, len(due))
	for _, job := range due {
		job.Status = queue.StatusActive
		job.Attempts++
		deadline := now.Add(visibility)
		job.ClaimedUntil = &deadline

		dup := *job
		claimed = append(claimed, &dup)
	}

	return claimed, nil
}

// ExtendClaim pushes the visibility deadline of an active job out.
func (r *Repository) ExtendClaim(_ context.Context, name queue.Name, id string, visibility time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[key(name, id)]
	if !ok || job.Status != queue.StatusActive {
		return queue.ErrJobNotFound
	}
	deadline := r.now().Add(visibility)
	job.ClaimedUntil = &deadline
	return nil
}

// Complete marks a job completed.
func (r *Repository) Complete(_ context.Context, name queue.Name, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[key(name, id)]
	if !ok {
		return queue.ErrJobNotFound
	}
	job.Status = queue.StatusCompleted
	job.ClaimedUntil = nil
	now := r.now()
	job.CompletedAt = &now
	return nil
}

// MarkForRetry returns a job to pending with a backoff deadline.
func (r *Repository) MarkForRetry(_ context.Context, name queue.Name, id string, cause error, nextAttempt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[key(name, id)]
	if !ok {
		return queue.ErrJobNotFound
	}
	job.Status = queue.StatusPending
	job.ClaimedUntil = nil
	job.NextAttemptAt = nextAttempt
	job.LastError = cause.Error()
	return nil
}

// MarkFailed moves a job to the failed set.
func (r *Repository) MarkFailed(_ context.Context, name queue.Name, id string, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[key(name, id)]
	if !ok {
		return queue.ErrJobNotFound
	}
	job.Status = queue.StatusFailed
	job.ClaimedUntil = nil
	job.LastError = cause.Error()
	return nil
}

// Stats returns status counts for one queue.
func (r *Repository) Stats(_ context.Context, name queue.Name) (*queue.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &queue.Stats{}
	for _, job := range r.jobs {
		if job.Queue != name {
			continue
		}
		stats.Total++
		switch job.Status {
		case queue.StatusPending:
			stats.Pending++
		case queue.StatusActive:
			stats.Active++
		case queue.StatusCompleted:
			stats.Completed++
		case queue.StatusFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

// Get returns a stored job for assertions, or nil.
func (r *Repository) Get(name queue.Name, id string) *queue.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[key(name, id)]
	if !ok {
		return nil
	}
	dup := *job
	return &dup
}

// Jobs returns all stored jobs for one queue.
func (r *Repository) Jobs(name queue.Name) []*queue.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*queue.Job, 0)
	for _, job := range r.jobs {
		if job.Queue == name {
			dup := *job
			out = append(out, &dup)
		}
	}
	return out
}
