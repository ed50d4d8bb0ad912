// Package notify implements the notification stage of the pipeline:
// it turns a detected diff into a formatted message and delivers it
// through the external messaging gateway.
package notify

import "github.com/expdynts/expwatch/internal/domain"

// JobPayload is the payload of a job on the notify queue. Notify job
// IDs combine the subscription ID with a timestamp, so they deduplicate
// within a run but never across runs.
type JobPayload struct {
	SubscriptionID string            `json:"subscription_id"`
	Result         domain.DiffResult `json:"result"`
}
