package domain

import "context"

// Task types known to the registry. The set is closed at build time.
const (
	TaskTypeDatabaseCleanup      = "database-cleanup"
	TaskTypeReportGeneration     = "report-generation"
	TaskTypeLogCleanup           = "log-cleanup"
	TaskTypeTimekeepingDaily     = "timekeeping-daily-processing"
	TaskTypeHRISAccountCheck     = "hris-account-check"
	TaskTypeCutoffDateGeneration = "cutoff-date-range-generation"
)

// Task is one executable unit dispatched by task type. Execute returns a
// human-readable output; any returned error is a task failure, recorded by the
// executor, never propagated.
type Task interface {
	Type() string
	Describe() string
	Execute(ctx context.Context, cfg TaskConfig) (string, error)
}

// TaskResolver looks an executable unit up by its type key.
type TaskResolver interface {
	Resolve(taskType string) (Task, error)
	Types() []string
}
