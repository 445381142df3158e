package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cronwell/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

type definitionStore struct {
	db     *gorm.DB
	logger *slog.Logger
	tracer trace.Tracer
}

// NewDefinitionStore creates the scheduler definition persistence facade.
func NewDefinitionStore(db *gorm.DB, logger *slog.Logger) domain.DefinitionRepository {
	return &definitionStore{
		db:     db,
		logger: logger.With("component", "definition-store"),
		tracer: otel.Tracer("cronwell-definition-store"),
	}
}

func (s *definitionStore) Create(ctx context.Context, def *domain.SchedulerDefinition) error {
	ctx, span := s.tracer.Start(ctx, "store.CreateDefinition")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.name", def.Name))

	m := definitionModelFrom(def)
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create scheduler definition")
		return fmt.Errorf("failed to create scheduler definition %s: %w", def.Name, err)
	}
	def.CreatedAt = m.CreatedAt
	def.UpdatedAt = m.UpdatedAt
	return nil
}

func (s *definitionStore) findOne(ctx context.Context, query string, arg any) (*domain.SchedulerDefinition, error) {
	var m schedulerDefinitionModel
	err := s.db.WithContext(ctx).Where(query, arg).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSchedulerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduler definition: %w", err)
	}
	return m.toDomain(), nil
}

func (s *definitionStore) FindByID(ctx context.Context, id string) (*domain.SchedulerDefinition, error) {
	ctx, span := s.tracer.Start(ctx, "store.FindDefinitionByID")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.id", id))
	return s.findOne(ctx, "id = ?", id)
}

func (s *definitionStore) FindByName(ctx context.Context, name string) (*domain.SchedulerDefinition, error) {
	ctx, span := s.tracer.Start(ctx, "store.FindDefinitionByName")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.name", name))
	return s.findOne(ctx, "name = ?", name)
}

func (s *definitionStore) FindByReferenceKey(ctx context.Context, key string) (*domain.SchedulerDefinition, error) {
	ctx, span := s.tracer.Start(ctx, "store.FindDefinitionByReferenceKey")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.reference_key", key))
	return s.findOne(ctx, "reference_key = ?", key)
}

func (s *definitionStore) FindActive(ctx context.Context) ([]*domain.SchedulerDefinition, error) {
	ctx, span := s.tracer.Start(ctx, "store.FindActiveDefinitions")
	defer span.End()

	var models []schedulerDefinitionModel
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&models).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list active definitions")
		return nil, fmt.Errorf("failed to list active definitions: %w", err)
	}
	defs := make([]*domain.SchedulerDefinition, 0, len(models))
	for i := range models {
		defs = append(defs, models[i].toDomain())
	}
	return defs, nil
}

func (s *definitionStore) Update(ctx context.Context, id string, patch domain.DefinitionPatch) error {
	ctx, span := s.tracer.Start(ctx, "store.UpdateDefinition")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.id", id))

	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.TaskType != nil {
		updates["task_type"] = *patch.TaskType
	}
	if patch.CronExpression != nil {
		updates["cron_expression"] = *patch.CronExpression
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if patch.TaskConfig != nil {
		updates["task_config"] = patch.TaskConfig
	}
	if len(updates) == 0 {
		return nil
	}

	res := s.db.WithContext(ctx).Model(&schedulerDefinitionModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		span.RecordError(res.Error)
		span.SetStatus(codes.Error, "failed to update definition")
		return fmt.Errorf("failed to update scheduler definition %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrSchedulerNotFound
	}
	return nil
}

func (s *definitionStore) UpdateStatus(ctx context.Context, id string, status domain.SchedulerStatus) error {
	ctx, span := s.tracer.Start(ctx, "store.UpdateDefinitionStatus")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.id", id), attribute.String("scheduler.status", string(status)))

	res := s.db.WithContext(ctx).Model(&schedulerDefinitionModel{}).Where("id = ?", id).
		Update("status", string(status))
	if res.Error != nil {
		span.RecordError(res.Error)
		return fmt.Errorf("failed to update status of scheduler %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrSchedulerNotFound
	}
	return nil
}

func (s *definitionStore) UpdateNextRun(ctx context.Context, id string, nextRunAt time.Time) error {
	ctx, span := s.tracer.Start(ctx, "store.UpdateDefinitionNextRun")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.id", id))

	res := s.db.WithContext(ctx).Model(&schedulerDefinitionModel{}).Where("id = ?", id).
		Update("next_run_at", nextRunAt)
	if res.Error != nil {
		span.RecordError(res.Error)
		return fmt.Errorf("failed to update next run of scheduler %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrSchedulerNotFound
	}
	return nil
}

func (s *definitionStore) UpdateLastRun(ctx context.Context, id string, upd domain.LastRunUpdate) error {
	ctx, span := s.tracer.Start(ctx, "store.UpdateDefinitionLastRun")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.id", id), attribute.String("scheduler.last_status", string(upd.LastStatus)))

	updates := map[string]any{
		"last_run_at":      upd.LastRunAt,
		"last_status":      string(upd.LastStatus),
		"last_duration_ms": upd.LastDurationMs,
	}
	if upd.NextRunAt != nil {
		updates["next_run_at"] = *upd.NextRunAt
	}

	res := s.db.WithContext(ctx).Model(&schedulerDefinitionModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		span.RecordError(res.Error)
		return fmt.Errorf("failed to update last run of scheduler %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrSchedulerNotFound
	}
	return nil
}

func (s *definitionStore) ToggleActive(ctx context.Context, id string) (*domain.SchedulerDefinition, error) {
	ctx, span := s.tracer.Start(ctx, "store.ToggleDefinitionActive")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.id", id))

	def, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	toggled := !def.IsActive
	if err := s.Update(ctx, id, domain.DefinitionPatch{IsActive: &toggled}); err != nil {
		return nil, err
	}
	def.IsActive = toggled
	return def, nil
}

func (s *definitionStore) Paginate(ctx context.Context, page, limit int, filter domain.DefinitionFilter) ([]*domain.SchedulerDefinition, int64, error) {
	ctx, span := s.tracer.Start(ctx, "store.PaginateDefinitions")
	defer span.End()
	span.SetAttributes(attribute.Int("page", page), attribute.Int("limit", limit))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	q := s.db.WithContext(ctx).Model(&schedulerDefinitionModel{})
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.TaskType != "" {
		q = q.Where("task_type = ?", filter.TaskType)
	}
	if filter.Search != "" {
		q = q.Where("name LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("failed to count scheduler definitions: %w", err)
	}

	var models []schedulerDefinitionModel
	if err := q.Order("name").Offset((page - 1) * limit).Limit(limit).Find(&models).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to paginate definitions")
		return nil, 0, fmt.Errorf("failed to paginate scheduler definitions: %w", err)
	}

	defs := make([]*domain.SchedulerDefinition, 0, len(models))
	for i := range models {
		defs = append(defs, models[i].toDomain())
	}
	return defs, total, nil
}
