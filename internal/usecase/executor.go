package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cronwell/internal/cronexpr"
	"cronwell/internal/domain"
	"cronwell/internal/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Executor runs one scheduler definition to completion: single-flight
// guarding, status transitions and history recording. Task errors never
// propagate past it; the next scheduled firing is the only retry mechanism.
type Executor struct {
	definitions domain.DefinitionRepository
	executions  domain.ExecutionRepository
	tasks       domain.TaskResolver
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewExecutor creates the executor.
func NewExecutor(definitions domain.DefinitionRepository, executions domain.ExecutionRepository, tasks domain.TaskResolver, logger *slog.Logger) *Executor {
	return &Executor{
		definitions: definitions,
		executions:  executions,
		tasks:       tasks,
		logger:      logger.With("component", "executor"),
		tracer:      otel.Tracer("cronwell-executor"),
		now:         time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (e *Executor) WithClock(now func() time.Time) *Executor {
	e.now = now
	return e
}

// Run drives the IDLE -> RUNNING -> (SUCCESS|FAILED) -> IDLE state machine
// for one definition. The returned error reports why a run was not started
// (not found, inactive, already running); execution failures themselves are
// recorded in the execution log, not returned.
func (e *Executor) Run(ctx context.Context, schedulerID string) error {
	ctx, span := e.tracer.Start(ctx, "executor.Run",
		trace.WithAttributes(attribute.String("scheduler.id", schedulerID)))
	defer span.End()

	def, err := e.definitions.FindByID(ctx, schedulerID)
	if err != nil {
		e.logger.Warn("scheduler not found, skipping run", "scheduler_id", schedulerID, "error", err)
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.String("scheduler.name", def.Name))

	if !def.IsActive {
		e.logger.Info("scheduler inactive, skipping run", "job_name", def.Name)
		return domain.ErrSchedulerInactive
	}
	// Single-flight guard on the persisted status: holds across process
	// restarts, at the cost of a stuck RUNNING flag after a crash until
	// reconciliation clears it.
	if def.Status == domain.SchedulerStatusRunning {
		e.logger.Warn("scheduler already running, skipping run", "job_name", def.Name)
		return domain.ErrAlreadyRunning
	}

	startedAt := e.now()
	rec := &domain.ExecutionRecord{
		ID:            uuid.New().String(),
		SchedulerID:   def.ID,
		SchedulerName: def.Name,
		Status:        domain.ExecutionStatusRunning,
		StartedAt:     startedAt,
	}
	if err := e.executions.Create(ctx, rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create execution record")
		return err
	}
	if err := e.definitions.UpdateStatus(ctx, def.ID, domain.SchedulerStatusRunning); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to mark scheduler running")
		return err
	}
	defer func() {
		// Always return to IDLE, success or failure.
		if err := e.definitions.UpdateStatus(context.WithoutCancel(ctx), def.ID, domain.SchedulerStatusIdle); err != nil {
			e.logger.Error("failed to reset scheduler status", "job_name", def.Name, "error", err)
		}
	}()

	// Scheduled jobs run with no implicit per-request identity: a fresh,
	// system-wide scope replaces whatever the ambient context carried.
	taskCtx := domain.WithTenantScope(ctx, domain.ScopeAllTenants)

	var output string
	runErr := func() error {
		t, err := e.tasks.Resolve(def.TaskType)
		if err != nil {
			return err
		}
		output, err = e.execute(taskCtx, t, def.TaskConfig)
		return err
	}()

	completedAt := e.now()
	durationMs := completedAt.Sub(startedAt).Milliseconds()

	if runErr != nil {
		e.logger.Error("scheduler execution failed", "job_name", def.Name, "duration_ms", durationMs, "error", runErr)
		span.RecordError(runErr)
		span.SetStatus(codes.Error, "execution failed")
		metrics.SchedulerExecutionsTotal.WithLabelValues(def.Name, "failed").Inc()

		if err := e.executions.Finalize(ctx, rec.ID, domain.ExecutionStatusFailed, completedAt, durationMs, "", runErr.Error()); err != nil {
			e.logger.Error("failed to finalize execution record", "job_name", def.Name, "error", err)
		}
		// NextRunAt deliberately left unchanged on failure; the timer keeps
		// its own cadence either way.
		if err := e.definitions.UpdateLastRun(ctx, def.ID, domain.LastRunUpdate{
			LastRunAt:      startedAt,
			LastStatus:     domain.RunOutcomeFailed,
			LastDurationMs: durationMs,
		}); err != nil {
			e.logger.Error("failed to update last run bookkeeping", "job_name", def.Name, "error", err)
		}
		return nil
	}

	e.logger.Info("scheduler execution succeeded", "job_name", def.Name, "duration_ms", durationMs)
	metrics.SchedulerExecutionsTotal.WithLabelValues(def.Name, "success").Inc()

	if err := e.executions.Finalize(ctx, rec.ID, domain.ExecutionStatusSuccess, completedAt, durationMs, output, ""); err != nil {
		e.logger.Error("failed to finalize execution record", "job_name", def.Name, "error", err)
	}
	next := cronexpr.NextRunOrFallback(def.CronExpression, completedAt, e.logger)
	if err := e.definitions.UpdateLastRun(ctx, def.ID, domain.LastRunUpdate{
		LastRunAt:      startedAt,
		LastStatus:     domain.RunOutcomeSuccess,
		LastDurationMs: durationMs,
		NextRunAt:      &next,
	}); err != nil {
		e.logger.Error("failed to update last run bookkeeping", "job_name", def.Name, "error", err)
	}
	return nil
}

// execute invokes the task, converting a panic into an ordinary task failure.
func (e *Executor) execute(ctx context.Context, t domain.Task, cfg domain.TaskConfig) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return t.Execute(ctx, cfg)
}
