// Package scheduler periodically enqueues fetch jobs for every active
// subscription. Jobs are keyed by subscription ID, so a subscription
// already waiting in or moving through the fetch queue is not enqueued
// again.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/expdynts/expwatch/internal/domain"
	"github.com/expdynts/expwatch/internal/queue"
	"github.com/expdynts/expwatch/internal/watch"
	"github.com/robfig/cron/v3"
)

// SubscriptionSource lists the subscriptions due for a fetch pass.
type SubscriptionSource interface {
	ListActiveSubscriptions(ctx context.Context) ([]domain.Subscription, error)
}

// Config holds the trigger configuration.
type Config struct {
	// Spec is a cron expression, e.g. "*/5 * * * *".
	Spec string
	// Enabled controls whether scheduled passes run. Manual runs work
	// regardless.
	Enabled bool
}

// RunResult summarizes one enqueue pass.
type RunResult struct {
	Total    int `json:"total"`
	Enqueued int `json:"enqueued"`
	Skipped  int `json:"skipped"`
}

// Scheduler drives periodic fetch passes over active subscriptions.
type Scheduler struct {
	source  SubscriptionSource
	jobs    queue.Repository
	cron    *cron.Cron
	enabled atomic.Bool
}

// New creates a scheduler. Start must be called to begin cron runs.
func New(source SubscriptionSource, jobs queue.Repository, config Config) (*Scheduler, error) {
	s := &Scheduler{
		source: source,
		jobs:   jobs,
		cron:   cron.New(),
	}
	s.enabled.Store(config.Enabled)

	if _, err := s.cron.AddFunc(config.Spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", config.Spec, err)
	}

	return s, nil
}

// Start begins the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "enabled", s.enabled.Load())
}

// Stop halts the cron loop and waits for a running pass to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		slog.Warn("scheduler stop: shutdown deadline reached while a pass was running")
	}
}

// SetEnabled toggles scheduled passes atomically.
func (s *Scheduler) SetEnabled(enabled bool) {
	previous := s.enabled.Swap(enabled)
	if previous != enabled {
		slog.Info("scheduler toggled", "enabled", enabled)
	}
}

// Enabled reports whether scheduled passes run.
func (s *Scheduler) Enabled() bool {
	return s.enabled.Load()
}

func (s *Scheduler) tick() {
	if !s.enabled.Load() {
		slog.Debug("scheduler pass skipped: disabled")
		return
	}

	if _, err := s.Run(context.Background()); err != nil {
		slog.Error("scheduled pass failed", "error", err)
	}
}

// Run performs one enqueue pass: one fetch job per active subscription,
// keyed by subscription ID. Already pending or active jobs count as
// skipped. Manual triggers call this directly and bypass the enabled
// flag.
func (s *Scheduler) Run(ctx context.Context) (*RunResult, error) {
	subs, err := s.source.ListActiveSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}

	result := &RunResult{Total: len(subs)}

	for _, sub := range subs {
		job, err := queue.New(queue.QueueFetch, sub.ID, watch.FetchJobPayload{
			SubscriptionID: sub.ID,
			CaseID:         sub.CaseID,
		})
		if err != nil {
			return nil, fmt.Errorf("build fetch job for %s: %w", sub.ID, err)
		}

		accepted, err := s.jobs.Enqueue(ctx, job)
		if err != nil {
			return nil, fmt.Errorf("enqueue fetch job for %s: %w", sub.ID, err)
		}
		if accepted {
			result.Enqueued++
		} else {
			result.Skipped++
		}
	}

	recordPass(result)
	slog.Info("fetch pass completed",
		"total", result.Total,
		"enqueued", result.Enqueued,
		"skipped", result.Skipped,
	)
	return result, nil
}
