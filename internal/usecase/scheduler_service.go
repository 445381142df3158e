package usecase

import (
	"context"
	"log/slog"
	"time"

	"cronwell/internal/cronexpr"
	"cronwell/internal/domain"
	"cronwell/internal/scheduler"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultStatsWindowDays is the trailing window for execution stats.
const DefaultStatsWindowDays = 30

// SchedulerUpdate is the user-facing mutation surface. Only cron expression,
// active flag and task config are user-mutable; the protected fields are
// carried here solely so the policy check can reject them explicitly.
type SchedulerUpdate struct {
	CronExpression *string
	IsActive       *bool
	TaskConfig     domain.TaskConfig

	// System-owned; any non-nil value is a policy violation.
	Name        *string
	Description *string
	TaskType    *string
}

// SchedulerService is the management surface over scheduler definitions,
// consumed by the HTTP layer. Definitions themselves are system-managed.
type SchedulerService struct {
	definitions domain.DefinitionRepository
	executions  domain.ExecutionRepository
	registry    *scheduler.Registry
	tasks       domain.TaskResolver
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSchedulerService creates the management service.
func NewSchedulerService(definitions domain.DefinitionRepository, executions domain.ExecutionRepository, registry *scheduler.Registry, tasks domain.TaskResolver, logger *slog.Logger) *SchedulerService {
	return &SchedulerService{
		definitions: definitions,
		executions:  executions,
		registry:    registry,
		tasks:       tasks,
		logger:      logger.With("component", "scheduler-service"),
		tracer:      otel.Tracer("cronwell-scheduler-service"),
		now:         time.Now,
	}
}

// List returns a page of definitions with the total count.
func (s *SchedulerService) List(ctx context.Context, page, limit int, filter domain.DefinitionFilter) ([]*domain.SchedulerDefinition, int64, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListSchedulers")
	defer span.End()
	span.SetAttributes(attribute.Int("page", page), attribute.Int("limit", limit))

	defs, total, err := s.definitions.Paginate(ctx, page, limit, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to paginate schedulers")
	}
	return defs, total, err
}

// Get returns one definition by id.
func (s *SchedulerService) Get(ctx context.Context, id string) (*domain.SchedulerDefinition, error) {
	ctx, span := s.tracer.Start(ctx, "service.GetScheduler")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.id", id))

	def, err := s.definitions.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
	}
	return def, err
}

// Create is rejected: definitions are owned by catalog reconciliation.
func (s *SchedulerService) Create(ctx context.Context) error {
	return domain.ErrSchedulerManaged
}

// Delete is rejected: definitions are never hard-deleted, only deactivated.
func (s *SchedulerService) Delete(ctx context.Context, id string) error {
	return domain.ErrSchedulerManaged
}

// Update applies a user mutation. Protected fields are rejected before
// anything is written; a changed cron expression re-arms the timer.
func (s *SchedulerService) Update(ctx context.Context, id string, upd SchedulerUpdate) (*domain.SchedulerDefinition, error) {
	ctx, span := s.tracer.Start(ctx, "service.UpdateScheduler")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.id", id))

	if upd.Name != nil || upd.Description != nil || upd.TaskType != nil {
		span.SetStatus(codes.Error, "attempt to modify protected field")
		return nil, domain.ErrProtectedField
	}
	if upd.CronExpression != nil {
		if err := cronexpr.Validate(*upd.CronExpression); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	if err := s.definitions.Update(ctx, id, domain.DefinitionPatch{
		CronExpression: upd.CronExpression,
		IsActive:       upd.IsActive,
		TaskConfig:     upd.TaskConfig,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update scheduler")
		return nil, err
	}

	def, err := s.definitions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.syncTimer(ctx, def)
	return def, nil
}

// ToggleActive flips the active flag, arming or disarming the timer to match.
func (s *SchedulerService) ToggleActive(ctx context.Context, id string) (*domain.SchedulerDefinition, error) {
	ctx, span := s.tracer.Start(ctx, "service.ToggleScheduler")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.id", id))

	def, err := s.definitions.ToggleActive(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to toggle scheduler")
		return nil, err
	}
	s.syncTimer(ctx, def)
	return def, nil
}

// syncTimer brings the live timer in line with the persisted definition.
func (s *SchedulerService) syncTimer(ctx context.Context, def *domain.SchedulerDefinition) {
	if def.IsActive {
		if err := s.registry.Update(ctx, def.ID, def.Name, def.CronExpression); err != nil {
			s.logger.Error("failed to re-register scheduler", "job_name", def.Name, "error", err)
		}
		return
	}
	s.registry.Delete(def.Name)
}

// RunNow triggers an immediate execution, subject to the single-flight guard.
func (s *SchedulerService) RunNow(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "service.RunSchedulerNow")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.id", id))

	if err := s.registry.RunNow(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// TaskTypes lists the available task type keys.
func (s *SchedulerService) TaskTypes(ctx context.Context) []string {
	return s.tasks.Types()
}

// History lists execution records for a definition, newest first.
func (s *SchedulerService) History(ctx context.Context, id string, page, limit int) ([]*domain.ExecutionRecord, int64, error) {
	ctx, span := s.tracer.Start(ctx, "service.SchedulerHistory")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.id", id), attribute.Int("page", page), attribute.Int("limit", limit))

	if _, err := s.definitions.FindByID(ctx, id); err != nil {
		span.RecordError(err)
		return nil, 0, err
	}
	recs, total, err := s.executions.ListByScheduler(ctx, id, page, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list execution history")
	}
	return recs, total, err
}

// Stats aggregates execution history over a trailing window in days.
func (s *SchedulerService) Stats(ctx context.Context, id string, windowDays int) (*domain.ExecutionStats, error) {
	ctx, span := s.tracer.Start(ctx, "service.SchedulerStats")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.id", id), attribute.Int("window_days", windowDays))

	if windowDays <= 0 {
		windowDays = DefaultStatsWindowDays
	}
	if _, err := s.definitions.FindByID(ctx, id); err != nil {
		span.RecordError(err)
		return nil, err
	}
	stats, err := s.executions.Stats(ctx, id, s.now().AddDate(0, 0, -windowDays))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to aggregate stats")
	}
	return stats, err
}
