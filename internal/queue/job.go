// Package queue provides the durable, at-least-once job queue the
// change-detection pipeline runs on: deduplicated enqueue, batch claim
// with a visibility timeout, bounded retries with exponential backoff,
// and per-queue status counts.
package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Name identifies one of the two job queues.
type Name string

// Queue names.
const (
	QueueFetch  Name = "fetch"
	QueueNotify Name = "notify"
)

// Status represents the lifecycle state of a job.
type Status string

// Job statuses.
const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is one unit of queued work. The ID doubles as the deduplication
// key: enqueueing a second job with the same ID while one is pending or
// active is a no-op.
type Job struct {
	ID            string
	Queue         Name
	Payload       json.RawMessage
	Status        Status
	Priority      int
	Attempts      int
	MaxAttempts   int
	NextAttemptAt time.Time
	ClaimedUntil  *time.Time
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

// New builds a pending job with the payload marshaled to JSON.
func New(queue Name, id string, payload any) (*Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Job{
		ID:          id,
		Queue:       queue,
		Payload:     data,
		Status:      StatusPending,
		MaxAttempts: 3,
	}, nil
}

// Stats holds the per-queue counts exposed on the status endpoint.
type Stats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Pending   int `json:"pending"`
	Failed    int `json:"failed"`
	Completed int `json:"completed"`
}
