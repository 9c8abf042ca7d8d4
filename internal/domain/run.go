package domain

import "time"

// RunResult is the batch orchestrator's accounting unit for one user's
// pipeline run. It is aggregated and discarded, not persisted.
type RunResult struct {
	UserID    string    `json:"user_id"`
	Success   bool      `json:"success"`
	ItemCount int       `json:"item_count"`
	ErrorKind string    `json:"error_kind,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type BatchSummary struct {
	SuccessCount     int   `json:"success_count"`
	FailedCount      int   `json:"failed_count"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}
