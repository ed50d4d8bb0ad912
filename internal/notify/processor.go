package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/expdynts/expwatch/internal/domain"
	"github.com/expdynts/expwatch/internal/queue"
)

// Sender delivers one formatted message to the messaging gateway.
type Sender interface {
	Send(ctx context.Context, phone, text string) error
}

// ProcessorConfig tunes delivery behavior.
type ProcessorConfig struct {
	// SkipEmptyRecipient completes jobs without a recipient contact
	// instead of posting them with an empty phone. Off by default to
	// preserve the established gateway behavior.
	SkipEmptyRecipient bool
}

// Processor consumes notify jobs: format the diff result, deliver it.
type Processor struct {
	sender    Sender
	config    ProcessorConfig
	formatter func(domain.DiffResult) string
}

// NewProcessor creates a notify processor.
func NewProcessor(sender Sender, config ProcessorConfig) *Processor {
	return &Processor{
		sender:    sender,
		config:    config,
		formatter: FormatMessage,
	}
}

// Process handles one notify job. Formatting failures degrade to a
// fallback message; only delivery failures reach the retry machinery.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	start := time.Now()

	var payload JobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return queue.NewNonRetryableError(fmt.Errorf("decode notify payload: %w", err))
	}

	text := p.format(payload)

	recipient := ""
	if payload.Result.Payload != nil {
		recipient = payload.Result.Payload.RecipientContact
	}

	if recipient == "" {
		slog.Warn("notify job has no recipient contact",
			"subscription_id", payload.SubscriptionID,
			"job_id", job.ID,
			"skipped", p.config.SkipEmptyRecipient,
		)
		if p.config.SkipEmptyRecipient {
			recordMessageSent("skipped")
			return nil
		}
	}

	if err := p.sender.Send(ctx, recipient, text); err != nil {
		recordMessageSent("failed")
		slog.Error("message delivery failed",
			"subscription_id", payload.SubscriptionID,
			"job_id", job.ID,
			"attempt", job.Attempts,
			"error", err,
		)
		return fmt.Errorf("deliver message: %w", err)
	}

	recordMessageSent("sent")
	recordSendDuration(time.Since(start))

	slog.Info("message delivered",
		"subscription_id", payload.SubscriptionID,
		"job_id", job.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// format builds the message text, recovering from any panic in the
// formatter so a malformed payload never loses the notification.
func (p *Processor) format(payload JobPayload) (text string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("message formatting failed, using fallback",
				"subscription_id", payload.SubscriptionID,
				"panic", r,
			)
			recordFormatFallback()
			text = fallbackMessage
		}
	}()

	return p.formatter(payload.Result)
}
