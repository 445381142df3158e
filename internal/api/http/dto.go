package http

import (
	"cronwell/internal/domain"
	"cronwell/internal/usecase"
)

// UpdateSchedulerRequest is the DTO for the management update endpoint. The
// protected fields are decoded so their presence can be rejected as a policy
// violation rather than silently dropped.
type UpdateSchedulerRequest struct {
	CronExpression *string           `json:"cron_expression" validate:"omitempty,cron"`
	IsActive       *bool             `json:"is_active"`
	TaskConfig     domain.TaskConfig `json:"task_config"`

	Name        *string `json:"name"`
	Description *string `json:"description"`
	TaskType    *string `json:"task_type"`
}

// ToUpdate converts the DTO to the service-level mutation.
func (r *UpdateSchedulerRequest) ToUpdate() usecase.SchedulerUpdate {
	return usecase.SchedulerUpdate{
		CronExpression: r.CronExpression,
		IsActive:       r.IsActive,
		TaskConfig:     r.TaskConfig,
		Name:           r.Name,
		Description:    r.Description,
		TaskType:       r.TaskType,
	}
}

// PageResponse is the envelope for paginated listings.
type PageResponse struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// ErrorResponse is the structured failure body.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}
