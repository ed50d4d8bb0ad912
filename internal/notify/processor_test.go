package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/expdynts/expwatch/internal/domain"
	"github.com/expdynts/expwatch/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	err   error
	calls []sentMessage
}

type sentMessage struct {
	phone string
	text  string
}

func (s *fakeSender) Send(_ context.Context, phone, text string) error {
	s.calls = append(s.calls, sentMessage{phone: phone, text: text})
	return s.err
}

func notifyJob(t *testing.T, result domain.DiffResult) *queue.Job {
	t.Helper()
	job, err := queue.New(queue.QueueNotify, "notif-sub-1-1700000000000", JobPayload{
		SubscriptionID: "sub-1",
		Result:         result,
	})
	require.NoError(t, err)
	job.Attempts = 1
	return job
}

func TestProcessor_DeliversFormattedMessage(t *testing.T) {
	sender := &fakeSender{}
	p := NewProcessor(sender, ProcessorConfig{})

	job := notifyJob(t, domain.DiffResult{
		HasChanged: true,
		Payload: &domain.DiffPayload{
			ChangedEntries:   []domain.CaseEntry{{Exp: "123/2024", Description: "ACUERDO"}},
			CaseMeta:         domain.CaseMeta{Number: 123, Year: 2024},
			RecipientContact: "+5215512345678",
		},
	})

	require.NoError(t, p.Process(context.Background(), job))
	require.Len(t, sender.calls, 1)
	assert.Equal(t, "+5215512345678", sender.calls[0].phone)
	assert.Contains(t, sender.calls[0].text, "ACUERDO")
}

func TestProcessor_FirstObservationMessage(t *testing.T) {
	sender := &fakeSender{}
	p := NewProcessor(sender, ProcessorConfig{})

	job := notifyJob(t, domain.DiffResult{IsFirstObservation: true})

	require.NoError(t, p.Process(context.Background(), job))
	require.Len(t, sender.calls, 1)
	assert.Equal(t, firstObservationMessage, sender.calls[0].text)
	assert.Empty(t, sender.calls[0].phone)
}

func TestProcessor_EmptyRecipientStillDeliveredByDefault(t *testing.T) {
	sender := &fakeSender{}
	p := NewProcessor(sender, ProcessorConfig{})

	job := notifyJob(t, domain.DiffResult{
		HasChanged: true,
		Payload: &domain.DiffPayload{
			ChangedEntries: []domain.CaseEntry{{Exp: "123/2024"}},
		},
	})

	require.NoError(t, p.Process(context.Background(), job))
	require.Len(t, sender.calls, 1)
	assert.Empty(t, sender.calls[0].phone)
}

func TestProcessor_EmptyRecipientSkippedWhenConfigured(t *testing.T) {
	sender := &fakeSender{}
	p := NewProcessor(sender, ProcessorConfig{SkipEmptyRecipient: true})

	job := notifyJob(t, domain.DiffResult{
		HasChanged: true,
		Payload: &domain.DiffPayload{
			ChangedEntries: []domain.CaseEntry{{Exp: "123/2024"}},
		},
	})

	require.NoError(t, p.Process(context.Background(), job))
	assert.Empty(t, sender.calls)
}

func TestProcessor_GatewayErrorPropagatesForRetry(t *testing.T) {
	sender := &fakeSender{err: errors.New("gateway unreachable")}
	p := NewProcessor(sender, ProcessorConfig{})

	job := notifyJob(t, domain.DiffResult{IsFirstObservation: true})

	err := p.Process(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deliver message")
}

func TestProcessor_MalformedPayloadIsNotRetried(t *testing.T) {
	sender := &fakeSender{}
	p := NewProcessor(sender, ProcessorConfig{})

	job := &queue.Job{ID: "notif-x", Queue: queue.QueueNotify, Payload: json.RawMessage(`{broken`)}

	err := p.Process(context.Background(), job)
	require.Error(t, err)

	var retryable *queue.RetryableError
	require.True(t, errors.As(err, &retryable))
	assert.False(t, retryable.IsRetryable())
	assert.Empty(t, sender.calls)
}

func TestProcessor_FormatPanicFallsBack(t *testing.T) {
	sender := &fakeSender{}
	p := NewProcessor(sender, ProcessorConfig{})
	p.formatter = func(domain.DiffResult) string {
		panic("boom")
	}

	job := notifyJob(t, domain.DiffResult{IsFirstObservation: true})

	// A formatting failure never loses the notification: the fallback
	// message is delivered instead.
	require.NoError(t, p.Process(context.Background(), job))
	require.Len(t, sender.calls, 1)
	assert.Equal(t, fallbackMessage, sender.calls[0].text)
}
