// Package watch implements the fetch-compare stage of the pipeline:
// it pulls the published record set for a subscribed case, fingerprints
// it, diffs it against the last snapshot, and hands detected changes to
// the notify queue.
package watch

// FetchJobPayload is the payload of a job on the fetch queue. The job
// ID is the subscription ID, which is what keeps at most one fetch per
// subscription in flight.
type FetchJobPayload struct {
	SubscriptionID string `json:"subscription_id"`
	CaseID         string `json:"case_id"`
	SourceURL      string `json:"source_url"`
}

// FetchJobResult summarizes one completed fetch-compare run.
type FetchJobResult struct {
	SubscriptionID   string `json:"subscription_id"`
	Processed        bool   `json:"processed"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
	Summary          string `json:"summary"`
}
