package ir

// NOTE: These are store-layer record types. BatchRecord.Seq is assigned by
// the store, not the engine.

// BatchStatus summarises how a batch ended.
type BatchStatus string

const (
	BatchApplied BatchStatus = "applied" // every selected action succeeded
	BatchPartial BatchStatus = "partial" // at least one selected action failed
	BatchStale   BatchStatus = "stale"   // fingerprint mismatch, nothing applied
	BatchFailed  BatchStatus = "failed"  // batch-fatal error (host unavailable, quota)
)

// OutcomeStatus is the result of one action.
type OutcomeStatus string

const (
	OutcomeApplied  OutcomeStatus = "applied"
	OutcomeFailed   OutcomeStatus = "failed"
	OutcomeRejected OutcomeStatus = "rejected" // not selected by the reviewer
	OutcomeSkipped  OutcomeStatus = "skipped"  // never started (batch-fatal error)
)

// BatchRecord is one executed batch (store-layer).
type BatchRecord struct {
	ID          string      `json:"id"`          // run id (UUIDv7)
	BatchHash   string      `json:"batch_hash"`  // content-addressed
	Fingerprint string      `json:"fingerprint"` // fingerprint the batch was assembled against
	Status      BatchStatus `json:"status"`
	Error       string      `json:"error,omitempty"`
	Seq         int64       `json:"seq"`
	Outcomes    []Outcome   `json:"outcomes"`
}

// Outcome is the result of one action in a batch (store-layer).
type Outcome struct {
	Index     int           `json:"index"`      // position in the caller's batch
	ExecOrder int           `json:"exec_order"` // position in scheduler order, -1 if never scheduled
	Kind      Kind          `json:"kind"`
	Loc       string        `json:"loc"`
	Status    OutcomeStatus `json:"status"`
	ErrorCode ErrorCode     `json:"error_code,omitempty"`
	Error     string        `json:"error,omitempty"`
}
