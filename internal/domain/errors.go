package domain

import "errors"

// Sentinel errors shared across the scheduler subsystem. Callers are expected
// to test for them with errors.Is.
var (
	// ErrSchedulerNotFound is returned when a scheduler definition does not exist.
	ErrSchedulerNotFound = errors.New("scheduler definition not found")

	// ErrSchedulerInactive is returned when an execution is requested for a
	// deactivated definition.
	ErrSchedulerInactive = errors.New("scheduler definition is inactive")

	// ErrAlreadyRunning is returned when an execution is requested while the
	// definition's persisted status is RUNNING (single-flight guard).
	ErrAlreadyRunning = errors.New("scheduler is already running")

	// ErrTaskTypeNotFound is returned by the task registry for an unknown task type.
	ErrTaskTypeNotFound = errors.New("task type not found")

	// ErrInvalidCronExpression is returned when a 5-field cron expression cannot be parsed.
	ErrInvalidCronExpression = errors.New("invalid cron expression")

	// ErrProtectedField is returned when an update touches a system-owned field.
	ErrProtectedField = errors.New("field is system-owned and cannot be modified")

	// ErrSchedulerManaged is returned when a caller tries to create or delete a
	// definition. Definitions are owned by catalog reconciliation.
	ErrSchedulerManaged = errors.New("scheduler definitions are system-managed and cannot be created or deleted")

	// ErrExecutionNotFound is returned when an execution record does not exist
	// or has already been finalized.
	ErrExecutionNotFound = errors.New("execution record not found or already finalized")

	// ErrRangeExists is returned on an insert of a cutoff date range whose
	// idempotency code is already persisted.
	ErrRangeExists = errors.New("cutoff date range already exists")
)
