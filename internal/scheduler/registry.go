// internal/scheduler/registry.go
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cronwell/internal/cronexpr"
	"cronwell/internal/domain"
	"cronwell/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Runner executes one scheduler definition to completion. Implemented by the
// executor; the registry only decides when to fire it.
type Runner interface {
	Run(ctx context.Context, schedulerID string) error
}

// Registry bridges persisted definitions to live, armed timers. It is a plain
// map from job name to a cancellable timer handle, local to one process and
// rebuilt from persisted definitions on every restart.
type Registry struct {
	mu     sync.Mutex
	timers map[string]*jobTimer

	definitions domain.DefinitionRepository
	runner      Runner
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

type jobTimer struct {
	schedulerID string
	name        string
	cronExpr    string
	timer       *time.Timer
	cancelled   bool
}

// NewRegistry creates the timer registry.
func NewRegistry(definitions domain.DefinitionRepository, runner Runner, logger *slog.Logger) *Registry {
	return &Registry{
		timers:      make(map[string]*jobTimer),
		definitions: definitions,
		runner:      runner,
		logger:      logger.With("component", "scheduler-registry"),
		tracer:      otel.Tracer("cronwell-scheduler-registry"),
		now:         time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// Register arms a timer for the definition, replacing any existing timer for
// the same name. The computed next run is persisted back to the definition.
func (r *Registry) Register(ctx context.Context, schedulerID, name, cronExpr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(ctx, schedulerID, name, cronExpr)
}

// Update re-registers the definition; used when its cron expression changes.
func (r *Registry) Update(ctx context.Context, schedulerID, name, cronExpr string) error {
	return r.Register(ctx, schedulerID, name, cronExpr)
}

func (r *Registry) registerLocked(ctx context.Context, schedulerID, name, cronExpr string) error {
	if existing, ok := r.timers[name]; ok {
		r.stopLocked(existing)
	}

	next := cronexpr.NextRunOrFallback(cronExpr, r.now(), r.logger)
	jt := &jobTimer{schedulerID: schedulerID, name: name, cronExpr: cronExpr}
	jt.timer = time.AfterFunc(next.Sub(r.now()), func() { r.fire(jt) })
	r.timers[name] = jt
	metrics.ActiveTimers.Set(float64(len(r.timers)))

	if err := r.definitions.UpdateNextRun(ctx, schedulerID, next); err != nil {
		r.logger.Error("failed to persist next run time", "job_name", name, "error", err)
	}

	r.logger.Info("registered scheduler", "job_name", name, "cron", cronExpr, "next_run_at", next)
	return nil
}

// fire runs the job and re-arms the timer, so the cadence continues on
// schedule regardless of the execution's outcome.
func (r *Registry) fire(jt *jobTimer) {
	ctx, span := r.tracer.Start(context.Background(), "scheduler.Fire",
		trace.WithAttributes(
			attribute.String("job.name", jt.name),
			attribute.String("job.id", jt.schedulerID),
		))
	defer span.End()

	r.mu.Lock()
	if jt.cancelled {
		r.mu.Unlock()
		return
	}
	next := cronexpr.NextRunOrFallback(jt.cronExpr, r.now(), r.logger)
	jt.timer.Reset(next.Sub(r.now()))
	r.mu.Unlock()

	if err := r.definitions.UpdateNextRun(ctx, jt.schedulerID, next); err != nil {
		r.logger.Error("failed to persist next run time", "job_name", jt.name, "error", err)
	}

	r.logger.Info("timer fired", "job_name", jt.name)
	if err := r.runner.Run(ctx, jt.schedulerID); err != nil {
		r.logger.Warn("scheduled run was not executed", "job_name", jt.name, "error", err)
		span.RecordError(err)
	}
}

// Delete stops and removes the timer for name; it is a no-op if absent.
func (r *Registry) Delete(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if jt, ok := r.timers[name]; ok {
		r.stopLocked(jt)
		r.logger.Info("removed scheduler timer", "job_name", name)
	}
}

func (r *Registry) stopLocked(jt *jobTimer) {
	jt.cancelled = true
	jt.timer.Stop()
	delete(r.timers, jt.name)
	metrics.ActiveTimers.Set(float64(len(r.timers)))
}

// RunNow invokes the runner immediately, bypassing the timer and leaving the
// schedule untouched. The single-flight guard lives in the runner, so a
// manual trigger during an in-flight run is rejected, not queued.
func (r *Registry) RunNow(ctx context.Context, schedulerID string) error {
	ctx, span := r.tracer.Start(ctx, "scheduler.RunNow",
		trace.WithAttributes(attribute.String("job.id", schedulerID)))
	defer span.End()

	return r.runner.Run(ctx, schedulerID)
}

// Has reports whether a timer is armed for the given job name.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[name]
	return ok
}

// Start loads every active definition and arms its timer, then blocks until
// the context ends. A definition that fails to register is logged and skipped
// so the rest still come up.
func (r *Registry) Start(ctx context.Context) error {
	defs, err := r.definitions.FindActive(ctx)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := r.Register(ctx, def.ID, def.Name, def.CronExpression); err != nil {
			r.logger.Error("failed to register scheduler", "job_name", def.Name, "error", err)
		}
	}
	r.logger.Info("scheduler registry started", "timers", len(defs))

	<-ctx.Done()
	r.logger.Info("scheduler registry stopping...")
	r.Stop()
	return ctx.Err()
}

// Stop cancels every armed timer.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, jt := range r.timers {
		jt.cancelled = true
		jt.timer.Stop()
	}
	r.timers = make(map[string]*jobTimer)
	metrics.ActiveTimers.Set(0)
	r.logger.Info("scheduler registry stopped")
}
