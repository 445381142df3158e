package domain

import (
	"context"
	"time"
)

// ExecutionStatus defines the status of a single job execution.
type ExecutionStatus string

const (
	ExecutionStatusRunning ExecutionStatus = "RUNNING"
	ExecutionStatusSuccess ExecutionStatus = "SUCCESS"
	ExecutionStatusFailed  ExecutionStatus = "FAILED"
)

// ExecutionRecord represents one execution instance of a scheduler definition.
// A record is created RUNNING, transitions to SUCCESS or FAILED exactly once,
// and is immutable afterwards. DurationMs is present iff CompletedAt is.
type ExecutionRecord struct {
	ID            string          `json:"id"`
	SchedulerID   string          `json:"scheduler_id"`
	SchedulerName string          `json:"scheduler_name"`
	Status        ExecutionStatus `json:"status"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	DurationMs    *int64          `json:"duration_ms,omitempty"`
	Output        string          `json:"output,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// ExecutionStats aggregates execution history over a trailing window.
type ExecutionStats struct {
	Total         int64   `json:"total"`
	Succeeded     int64   `json:"succeeded"`
	Failed        int64   `json:"failed"`
	SuccessRate   float64 `json:"success_rate"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

// ExecutionRepository persists execution records. Retention (30 days) is a
// storage-level concern enforced through PurgeOlderThan.
type ExecutionRepository interface {
	Create(ctx context.Context, rec *ExecutionRecord) error
	// Finalize performs the one-shot RUNNING -> {SUCCESS,FAILED} transition.
	// It returns ErrExecutionNotFound if the record does not exist or has
	// already been finalized.
	Finalize(ctx context.Context, id string, status ExecutionStatus, completedAt time.Time, durationMs int64, output, errMsg string) error
	FindByID(ctx context.Context, id string) (*ExecutionRecord, error)
	// ListByScheduler returns records newest first, with the total count.
	ListByScheduler(ctx context.Context, schedulerID string, page, limit int) ([]*ExecutionRecord, int64, error)
	Stats(ctx context.Context, schedulerID string, since time.Time) (*ExecutionStats, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
