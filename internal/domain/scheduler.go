package domain

import (
	"context"
	"time"
)

// SchedulerStatus is the live state of a scheduler definition.
type SchedulerStatus string

const (
	SchedulerStatusIdle    SchedulerStatus = "IDLE"
	SchedulerStatusRunning SchedulerStatus = "RUNNING"
	SchedulerStatusError   SchedulerStatus = "ERROR"
)

// RunOutcome is the result of the most recent completed execution.
type RunOutcome string

const (
	RunOutcomeSuccess RunOutcome = "SUCCESS"
	RunOutcomeFailed  RunOutcome = "FAILED"
	RunOutcomeNone    RunOutcome = "NONE"
)

// TaskConfig is the opaque key-value configuration handed to a task on execution.
type TaskConfig map[string]any

// Merge overlays this config on top of defaults: keys present in the receiver
// win, keys only present in defaults are filled in. Neither input is mutated.
func (c TaskConfig) Merge(defaults TaskConfig) TaskConfig {
	merged := make(TaskConfig, len(defaults)+len(c))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range c {
		merged[k] = v
	}
	return merged
}

// SchedulerDefinition is a named, cron-bound job definition. Definitions are
// created by catalog reconciliation only and are never hard-deleted.
type SchedulerDefinition struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	ReferenceKey   string          `json:"reference_key"`
	Description    string          `json:"description"`
	CronExpression string          `json:"cron_expression"`
	TaskType       string          `json:"task_type"`
	TaskConfig     TaskConfig      `json:"task_config"`
	IsActive       bool            `json:"is_active"`
	Status         SchedulerStatus `json:"status"`
	LastRunAt      *time.Time      `json:"last_run_at,omitempty"`
	NextRunAt      *time.Time      `json:"next_run_at,omitempty"`
	LastStatus     RunOutcome      `json:"last_status"`
	LastDurationMs int64           `json:"last_duration_ms"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// DefinitionPatch is a partial update of a definition. Nil fields are left
// untouched. The store applies it verbatim; policy (which fields a caller may
// touch) is enforced above the store.
type DefinitionPatch struct {
	Name           *string
	Description    *string
	TaskType       *string
	CronExpression *string
	IsActive       *bool
	TaskConfig     TaskConfig
}

// LastRunUpdate is the bookkeeping written after an execution completes.
// NextRunAt is only set on success; nil leaves the persisted value unchanged.
type LastRunUpdate struct {
	LastRunAt      time.Time
	LastStatus     RunOutcome
	LastDurationMs int64
	NextRunAt      *time.Time
}

// DefinitionFilter narrows a paginated listing.
type DefinitionFilter struct {
	IsActive *bool
	TaskType string
	Search   string
}

// DefinitionRepository is the persistence facade over scheduler definitions.
// No business rules live behind it.
type DefinitionRepository interface {
	Create(ctx context.Context, def *SchedulerDefinition) error
	FindByID(ctx context.Context, id string) (*SchedulerDefinition, error)
	FindByName(ctx context.Context, name string) (*SchedulerDefinition, error)
	FindByReferenceKey(ctx context.Context, key string) (*SchedulerDefinition, error)
	FindActive(ctx context.Context) ([]*SchedulerDefinition, error)
	Update(ctx context.Context, id string, patch DefinitionPatch) error
	UpdateStatus(ctx context.Context, id string, status SchedulerStatus) error
	UpdateNextRun(ctx context.Context, id string, nextRunAt time.Time) error
	UpdateLastRun(ctx context.Context, id string, upd LastRunUpdate) error
	ToggleActive(ctx context.Context, id string) (*SchedulerDefinition, error)
	Paginate(ctx context.Context, page, limit int, filter DefinitionFilter) ([]*SchedulerDefinition, int64, error)
}
