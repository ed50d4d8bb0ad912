package domain

import "time"

// SnapshotEntry is one persisted observation of a subscription's record
// set. The history is append-only: entries are never mutated or deleted,
// and the latest entry by CreatedAt is the comparison baseline.
type SnapshotEntry struct {
	ID             string      `json:"id"`
	SubscriptionID string      `json:"subscription_id"`
	RecordSet      []CaseEntry `json:"record_set"`
	Fingerprint    string      `json:"fingerprint"`
	Diff           []CaseEntry `json:"diff,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// CaseMeta is the case-level metadata carried into a notification.
type CaseMeta struct {
	Number    int    `json:"number"`
	Year      int    `json:"year"`
	CourtCode string `json:"court_code"`
	CourtName string `json:"court_name"`
	Location  string `json:"location"`
}

// DiffPayload is the material a detected change hands to the notify
// stage: what changed, which case, and who to tell.
type DiffPayload struct {
	ChangedEntries   []CaseEntry `json:"changed_entries"`
	CaseMeta         CaseMeta    `json:"case_meta"`
	RecipientContact string      `json:"recipient_contact"`
}

// DiffResult is the outcome of one fetch-compare run.
type DiffResult struct {
	IsFirstObservation bool         `json:"is_first_observation"`
	HasChanged         bool         `json:"has_changed"`
	Message            string       `json:"message"`
	Payload            *DiffPayload `json:"payload,omitempty"`
}
