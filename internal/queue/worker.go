package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Processor handles one claimed job. Returning nil completes the job;
// returning an error schedules a retry or, when the error is marked
// non-retryable or attempts are exhausted, fails it.
type Processor interface {
	Process(ctx context.Context, job *Job) error
}

// WorkerConfig contains worker pool configuration for one queue.
type WorkerConfig struct {
	Queue             Name
	Concurrency       int
	BatchSize         int
	PollInterval      time.Duration
	VisibilityTimeout time.Duration
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultFetchConfig returns the default configuration for the fetch queue.
func DefaultFetchConfig() WorkerConfig {
	return WorkerConfig{
		Queue:             QueueFetch,
		Concurrency:       5,
		BatchSize:         20,
		PollInterval:      5 * time.Second,
		VisibilityTimeout: 2 * time.Minute,
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        5 * time.Minute,
		BackoffMultiplier: 2.0,
	}
}

// DefaultNotifyConfig returns the default configuration for the notify queue.
func DefaultNotifyConfig() WorkerConfig {
	return WorkerConfig{
		Queue:             QueueNotify,
		Concurrency:       3,
		BatchSize:         20,
		PollInterval:      5 * time.Second,
		VisibilityTimeout: 1 * time.Minute,
		MaxAttempts:       3,
		InitialBackoff:    2 * time.Second,
		MaxBackoff:        5 * time.Minute,
		BackoffMultiplier: 2.0,
	}
}

// Worker is a fixed-size pool of goroutines polling one queue. Pools
// for different queues are independent; there is no work stealing.
type Worker struct {
	config    WorkerConfig
	repo      Repository
	processor Processor

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWorker creates a worker pool for one queue.
func NewWorker(config WorkerConfig, repo Repository, processor Processor) *Worker {
	return &Worker{
		config:    config,
		repo:      repo,
		processor: processor,
		stopCh:    make(chan struct{}),
	}
}

// Start launches the worker goroutines.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("starting queue worker",
		"queue", w.config.Queue,
		"concurrency", w.config.Concurrency,
		"batch_size", w.config.BatchSize,
		"poll_interval", w.config.PollInterval,
	)

	for i := 0; i < w.config.Concurrency; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}
}

// Stop gracefully stops the pool, waiting for in-flight jobs.
func (w *Worker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	slog.Info("queue worker stopped", "queue", w.config.Queue)
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.processBatch(ctx, workerID)
		}
	}
}

func (w *Worker) processBatch(ctx context.Context, workerID int) {
	jobs, err := w.repo.Claim(ctx, w.config.Queue, w.config.BatchSize, w.config.VisibilityTimeout)
	if err != nil {
		slog.Error("failed to claim jobs", "queue", w.config.Queue, "worker", workerID, "error", err)
		return
	}

	if len(jobs) == 0 {
		return
	}

	slog.Debug("processing jobs", "queue", w.config.Queue, "worker", workerID, "count", len(jobs))
	recordJobsClaimed(string(w.config.Queue), len(jobs))

	for i, job := range jobs {
		// The claim deadline covers the whole batch, but jobs run one at
		// a time; push the deadline of each waiting job out before it
		// starts so a slow head of the batch cannot expire the tail and
		// hand it to a peer.
		if i > 0 {
			if err := w.repo.ExtendClaim(ctx, w.config.Queue, job.ID, w.config.VisibilityTimeout); err != nil {
				slog.Warn("failed to extend claim", "queue", w.config.Queue, "job_id", job.ID, "error", err)
			}
		}
		w.processJob(ctx, job)
	}
}

func (w *Worker) processJob(ctx context.Context, job *Job) {
	start := time.Now()

	err := w.processor.Process(ctx, job)
	duration := time.Since(start)
	recordJobDuration(string(w.config.Queue), duration)

	if err != nil {
		w.handleError(ctx, job, err)
		return
	}

	if err := w.repo.Complete(ctx, w.config.Queue, job.ID); err != nil {
		slog.Error("failed to mark job completed", "queue", w.config.Queue, "job_id", job.ID, "error", err)
	}

	recordJobProcessed(string(w.config.Queue), "success")

	slog.Debug("job completed",
		"queue", w.config.Queue,
		"job_id", job.ID,
		"attempt", job.Attempts,
		"duration", duration,
	)
}

func (w *Worker) handleError(ctx context.Context, job *Job, err error) {
	maxAttempts := w.maxAttemptsFor(job)

	slog.Warn("job failed",
		"queue", w.config.Queue,
		"job_id", job.ID,
		"attempt", job.Attempts,
		"max_attempts", maxAttempts,
		"error", err,
	)

	if !isRetryable(err) {
		if markErr := w.repo.MarkFailed(ctx, w.config.Queue, job.ID, err); markErr != nil {
			slog.Error("failed to mark job failed", "job_id", job.ID, "error", markErr)
		}
		recordJobProcessed(string(w.config.Queue), "failed")
		return
	}

	if job.Attempts >= maxAttempts {
		exhausted := fmt.Errorf("max attempts exceeded: %w", err)
		if markErr := w.repo.MarkFailed(ctx, w.config.Queue, job.ID, exhausted); markErr != nil {
			slog.Error("failed to mark job failed", "job_id", job.ID, "error", markErr)
		}
		recordJobProcessed(string(w.config.Queue), "failed")
		return
	}

	nextAttempt := w.calculateNextAttempt(job.Attempts)
	if markErr := w.repo.MarkForRetry(ctx, w.config.Queue, job.ID, err, nextAttempt); markErr != nil {
		slog.Error("failed to mark job for retry", "job_id", job.ID, "error", markErr)
	}
	recordJobProcessed(string(w.config.Queue), "retry")

	slog.Info("job scheduled for retry",
		"queue", w.config.Queue,
		"job_id", job.ID,
		"next_attempt", nextAttempt,
	)
}

// maxAttemptsFor returns the retry budget of a job: the job's own value
// when set, the pool default otherwise.
func (w *Worker) maxAttemptsFor(job *Job) int {
	if job.MaxAttempts > 0 {
		return job.MaxAttempts
	}
	return w.config.MaxAttempts
}

func (w *Worker) calculateNextAttempt(attempt int) time.Time {
	backoff := float64(w.config.InitialBackoff)
	for i := 1; i < attempt; i++ {
		backoff *= w.config.BackoffMultiplier
	}

	if backoff > float64(w.config.MaxBackoff) {
		backoff = float64(w.config.MaxBackoff)
	}

	return time.Now().Add(time.Duration(backoff))
}
