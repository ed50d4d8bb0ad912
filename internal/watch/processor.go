package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/expdynts/expwatch/internal/diff"
	"github.com/expdynts/expwatch/internal/domain"
	"github.com/expdynts/expwatch/internal/fingerprint"
	"github.com/expdynts/expwatch/internal/notify"
	"github.com/expdynts/expwatch/internal/queue"
)

// Processor consumes fetch jobs and runs the fetch-compare pipeline:
// fetch -> fingerprint -> compare -> persist -> (notify-enqueue).
type Processor struct {
	repo    Repository
	gateway Gateway
	courts  CourtResolver
	jobs    queue.Repository
}

// NewProcessor creates a fetch-compare processor.
func NewProcessor(repo Repository, gateway Gateway, courts CourtResolver, jobs queue.Repository) *Processor {
	return &Processor{
		repo:    repo,
		gateway: gateway,
		courts:  courts,
		jobs:    jobs,
	}
}

// Process handles one fetch job. Errors are returned to the queue so
// its attempt bookkeeping stays authoritative for retry decisions.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	start := time.Now()

	var payload FetchJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return queue.NewNonRetryableError(fmt.Errorf("decode fetch payload: %w", err))
	}

	result, err := p.run(ctx, payload)
	if err != nil {
		slog.Error("fetch-compare failed",
			"subscription_id", payload.SubscriptionID,
			"classification", classify(err),
			"attempt", job.Attempts,
			"error", err,
		)
		return err
	}

	jobResult := FetchJobResult{
		SubscriptionID:   payload.SubscriptionID,
		Processed:        true,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Summary:          result.Message,
	}

	slog.Info("fetch-compare completed",
		"subscription_id", jobResult.SubscriptionID,
		"processing_time_ms", jobResult.ProcessingTimeMs,
		"first_observation", result.IsFirstObservation,
		"changed", result.HasChanged,
		"summary", jobResult.Summary,
	)

	return nil
}

// run executes the compare pipeline for one subscription and returns
// the diff result that was persisted (or short-circuited).
func (p *Processor) run(ctx context.Context, payload FetchJobPayload) (*domain.DiffResult, error) {
	sub, err := p.repo.GetSubscription(ctx, payload.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("resolve subscription: %w", err)
	}

	if sub.Status != domain.SubscriptionStatusActive {
		slog.Debug("skipping archived subscription", "subscription_id", sub.ID)
		return &domain.DiffResult{Message: "suscripción archivada, sin procesar"}, nil
	}

	kase, err := p.repo.GetCase(ctx, sub.CaseID)
	if err != nil {
		return nil, fmt.Errorf("resolve case: %w", err)
	}

	sourceURL := payload.SourceURL
	if sourceURL == "" {
		sourceURL = kase.SourceURL
	}

	entries, err := p.gateway.Fetch(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("fetch case %s: %w", kase.ID, err)
	}

	digest := fingerprint.Sum(entries)

	result, err := p.compare(ctx, sub, kase, entries, digest)
	if err != nil {
		return nil, err
	}

	// Re-fetching is idempotent and the fingerprint short-circuit keeps
	// unchanged content from growing the history, so repeating this
	// after a crash is safe.
	if err := p.repo.UpdateCurrentSnapshot(ctx, kase.ID, entries, digest); err != nil {
		return nil, fmt.Errorf("update case snapshot: %w", err)
	}

	if result.HasChanged {
		if err := p.enqueueNotification(ctx, sub, result); err != nil {
			return nil, fmt.Errorf("enqueue notification: %w", err)
		}
	}

	return result, nil
}

func (p *Processor) compare(ctx context.Context, sub *domain.Subscription, kase *domain.Case, entries []domain.CaseEntry, digest string) (*domain.DiffResult, error) {
	latest, err := p.repo.GetLatestSnapshot(ctx, sub.ID)
	switch {
	case errors.Is(err, ErrNoSnapshot):
		// First observation: record the baseline, notify nobody. There
		// is nothing to compare against yet.
		entry := &domain.SnapshotEntry{
			SubscriptionID: sub.ID,
			RecordSet:      entries,
			Fingerprint:    digest,
		}
		if err := p.repo.AppendSnapshot(ctx, entry); err != nil {
			return nil, fmt.Errorf("append first snapshot: %w", err)
		}
		return &domain.DiffResult{
			IsFirstObservation: true,
			Message:            "primera observación del expediente registrada",
		}, nil

	case err != nil:
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}

	if latest.Fingerprint == digest {
		// Unchanged: no new history entry, no notification.
		return &domain.DiffResult{Message: "sin cambios detectados"}, nil
	}

	changes := diff.Changes(latest.RecordSet, entries)

	entry := &domain.SnapshotEntry{
		SubscriptionID: sub.ID,
		RecordSet:      entries,
		Fingerprint:    digest,
		Diff:           changes,
	}
	if err := p.repo.AppendSnapshot(ctx, entry); err != nil {
		return nil, fmt.Errorf("append snapshot: %w", err)
	}

	return &domain.DiffResult{
		HasChanged: true,
		Message:    fmt.Sprintf("%d acuerdos con cambios detectados", len(changes)),
		Payload: &domain.DiffPayload{
			ChangedEntries:   changes,
			CaseMeta:         p.caseMeta(ctx, kase),
			RecipientContact: p.recipientContact(ctx, sub.UserID),
		},
	}, nil
}

// caseMeta resolves court metadata; resolution failures degrade to the
// bare case identifiers rather than blocking the notification.
func (p *Processor) caseMeta(ctx context.Context, kase *domain.Case) domain.CaseMeta {
	meta := domain.CaseMeta{
		Number: kase.Number,
		Year:   kase.Year,
	}

	court, err := p.courts.CourtMeta(ctx, kase.CourtID)
	if err != nil {
		slog.Warn("failed to resolve court metadata", "case_id", kase.ID, "court_id", kase.CourtID, "error", err)
		return meta
	}

	meta.CourtCode = court.Code
	meta.CourtName = court.Name
	meta.Location = court.Location
	return meta
}

func (p *Processor) recipientContact(ctx context.Context, userID string) string {
	contact, err := p.repo.GetContact(ctx, userID)
	if err != nil {
		slog.Warn("failed to resolve recipient contact", "user_id", userID, "error", err)
		return ""
	}
	return contact.Phone
}

func (p *Processor) enqueueNotification(ctx context.Context, sub *domain.Subscription, result *domain.DiffResult) error {
	// Fresh ID per detected change: deduplicated within this run only.
	id := fmt.Sprintf("notif-%s-%d", sub.ID, time.Now().UnixMilli())

	job, err := queue.New(queue.QueueNotify, id, notify.JobPayload{
		SubscriptionID: sub.ID,
		Result:         *result,
	})
	if err != nil {
		return err
	}

	accepted, err := p.jobs.Enqueue(ctx, job)
	if err != nil {
		return err
	}

	slog.Info("notification enqueued",
		"subscription_id", sub.ID,
		"job_id", id,
		"accepted", accepted,
		"changed_entries", len(result.Payload.ChangedEntries),
	)
	return nil
}
