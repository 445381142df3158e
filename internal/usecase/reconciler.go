package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cronwell/internal/domain"
	"cronwell/internal/task"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Registrar is the slice of the timer registry reconciliation needs.
type Registrar interface {
	Register(ctx context.Context, schedulerID, name, cronExpr string) error
}

// Reconciler syncs the static job catalog into the definition store at
// startup. System-owned fields follow the catalog; user-owned overrides
// (cron expression, active flag, config keys) are preserved.
type Reconciler struct {
	definitions domain.DefinitionRepository
	registry    Registrar
	catalog     []task.CatalogEntry
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewReconciler creates a reconciler over the built-in catalog.
func NewReconciler(definitions domain.DefinitionRepository, registry Registrar, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		definitions: definitions,
		registry:    registry,
		catalog:     task.Catalog(),
		logger:      logger.With("component", "reconciler"),
		tracer:      otel.Tracer("cronwell-reconciler"),
	}
}

// Reconcile processes every catalog entry. A failure on one entry is logged
// and does not stop reconciliation of the rest.
func (r *Reconciler) Reconcile(ctx context.Context) {
	ctx, span := r.tracer.Start(ctx, "reconciler.Reconcile")
	defer span.End()
	span.SetAttributes(attribute.Int("catalog.entries", len(r.catalog)))

	for _, entry := range r.catalog {
		if err := r.reconcileEntry(ctx, entry); err != nil {
			r.logger.Error("failed to reconcile catalog entry", "reference_key", entry.ReferenceKey, "error", err)
			span.RecordError(err)
		}
	}
}

func (r *Reconciler) reconcileEntry(ctx context.Context, entry task.CatalogEntry) error {
	def, err := r.definitions.FindByReferenceKey(ctx, entry.ReferenceKey)
	switch {
	case errors.Is(err, domain.ErrSchedulerNotFound):
		def, err = r.createFromCatalog(ctx, entry)
		if err != nil {
			return err
		}
		r.logger.Info("created scheduler from catalog", "job_name", def.Name)
	case err != nil:
		return err
	default:
		if err := r.updateFromCatalog(ctx, def, entry); err != nil {
			return err
		}
		// Re-read so registration below sees the merged state.
		def, err = r.definitions.FindByReferenceKey(ctx, entry.ReferenceKey)
		if err != nil {
			return err
		}
		r.logger.Info("reconciled scheduler from catalog", "job_name", def.Name)
	}

	if def.IsActive {
		if err := r.registry.Register(ctx, def.ID, def.Name, def.CronExpression); err != nil {
			return fmt.Errorf("failed to register reconciled scheduler %s: %w", def.Name, err)
		}
	}
	return nil
}

func (r *Reconciler) createFromCatalog(ctx context.Context, entry task.CatalogEntry) (*domain.SchedulerDefinition, error) {
	def := &domain.SchedulerDefinition{
		ID:             uuid.New().String(),
		Name:           entry.Name,
		ReferenceKey:   entry.ReferenceKey,
		Description:    entry.Description,
		CronExpression: entry.CronExpression,
		TaskType:       entry.TaskType,
		TaskConfig:     entry.TaskConfig.Merge(nil),
		IsActive:       entry.Active,
		Status:         domain.SchedulerStatusIdle,
		LastStatus:     domain.RunOutcomeNone,
	}
	if err := r.definitions.Create(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

func (r *Reconciler) updateFromCatalog(ctx context.Context, def *domain.SchedulerDefinition, entry task.CatalogEntry) error {
	// System-owned fields follow the catalog unconditionally. Cron expression
	// is only populated when the definition has none yet; once a user set a
	// value it is theirs. The active flag was populated at creation and is
	// never overwritten. Config keys the user persisted win over catalog
	// defaults.
	patch := domain.DefinitionPatch{
		Name:        &entry.Name,
		Description: &entry.Description,
		TaskType:    &entry.TaskType,
		TaskConfig:  def.TaskConfig.Merge(entry.TaskConfig),
	}
	if def.CronExpression == "" {
		patch.CronExpression = &entry.CronExpression
	}
	if err := r.definitions.Update(ctx, def.ID, patch); err != nil {
		return err
	}
	// A crash leaves status=RUNNING behind; startup is the documented point
	// where it is cleared.
	if def.Status == domain.SchedulerStatusRunning {
		if err := r.definitions.UpdateStatus(ctx, def.ID, domain.SchedulerStatusIdle); err != nil {
			return err
		}
	}
	return nil
}
