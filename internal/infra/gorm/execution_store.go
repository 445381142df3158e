package gormstore

import (
	"context"
	"database/sql"
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

type executionStore struct {
	db     *gorm.DB
	logger *slog.Logger
	tracer trace.Tracer
}

// NewExecutionStore creates the execution log persistence facade.
func NewExecutionStore(db *gorm.DB, logger *slog.Logger) domain.ExecutionRepository {
	return &executionStore{
		db:     db,
		logger: logger.With("component", "execution-store"),
		tracer: otel.Tracer("cronwell-execution-store"),
	}
}

func (s *executionStore) Create(ctx context.Context, rec *domain.ExecutionRecord) error {
	ctx, span := s.tracer.Start(ctx, "store.CreateExecution")
	defer span.End()
	span.SetAttributes(
		attribute.String("execution.id", rec.ID),
		attribute.String("scheduler.name", rec.SchedulerName),
	)

	m := &executionRecordModel{
		ID:            rec.ID,
		SchedulerID:   rec.SchedulerID,
		SchedulerName: rec.SchedulerName,
		Status:        string(rec.Status),
		StartedAt:     rec.StartedAt,
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create execution record")
		return fmt.Errorf("failed to create execution record %s: %w", rec.ID, err)
	}
	return nil
}

// Finalize moves a record out of RUNNING exactly once. The status guard in the
// WHERE clause makes a second finalize a no-op reported as not found.
func (s *executionStore) Finalize(ctx context.Context, id string, status domain.ExecutionStatus, completedAt time.Time, durationMs int64, output, errMsg string) error {
	ctx, span := s.tracer.Start(ctx, "store.FinalizeExecution")
	defer span.End()
	span.SetAttributes(
		attribute.String("execution.id", id),
		attribute.String("execution.status", string(status)),
	)

	res := s.db.WithContext(ctx).Model(&executionRecordModel{}).
		Where("id = ? AND status = ?", id, string(domain.ExecutionStatusRunning)).
		Updates(map[string]any{
			"status":       string(status),
			"completed_at": completedAt,
			"duration_ms":  durationMs,
			"output":       output,
			"error":        errMsg,
		})
	if res.Error != nil {
		span.RecordError(res.Error)
		span.SetStatus(codes.Error, "failed to finalize execution record")
		return fmt.Errorf("failed to finalize execution record %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrExecutionNotFound
	}
	return nil
}

func (s *executionStore) FindByID(ctx context.Context, id string) (*domain.ExecutionRecord, error) {
	ctx, span := s.tracer.Start(ctx, "store.FindExecutionByID")
	defer span.End()
	span.SetAttributes(attribute.String("execution.id", id))

	var m executionRecordModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrExecutionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load execution record %s: %w", id, err)
	}
	return m.toDomain(), nil
}

func (s *executionStore) ListByScheduler(ctx context.Context, schedulerID string, page, limit int) ([]*domain.ExecutionRecord, int64, error) {
	ctx, span := s.tracer.Start(ctx, "store.ListExecutions")
	defer span.End()
	span.SetAttributes(
		attribute.String("scheduler.id", schedulerID),
		attribute.Int("page", page),
		attribute.Int("limit", limit),
	)

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	q := s.db.WithContext(ctx).Model(&executionRecordModel{}).Where("scheduler_id = ?", schedulerID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("failed to count execution records: %w", err)
	}

	var models []executionRecordModel
	if err := q.Order("started_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&models).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list execution records")
		return nil, 0, fmt.Errorf("failed to list execution records: %w", err)
	}

	recs := make([]*domain.ExecutionRecord, 0, len(models))
	for i := range models {
		recs = append(recs, models[i].toDomain())
	}
	return recs, total, nil
}

func (s *executionStore) Stats(ctx context.Context, schedulerID string, since time.Time) (*domain.ExecutionStats, error) {
	ctx, span := s.tracer.Start(ctx, "store.ExecutionStats")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.id", schedulerID))

	var row struct {
		Total       int64
		Succeeded   int64
		Failed      int64
		AvgDuration sql.NullFloat64
	}
	err := s.db.WithContext(ctx).Model(&executionRecordModel{}).
		Select(
			"COUNT(*) AS total, "+
				"SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS succeeded, "+
				"SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS failed, "+
				"AVG(duration_ms) AS avg_duration",
			string(domain.ExecutionStatusSuccess), string(domain.ExecutionStatusFailed),
		).
		Where("scheduler_id = ? AND started_at >= ?", schedulerID, since).
		Scan(&row).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to aggregate execution stats")
		return nil, fmt.Errorf("failed to aggregate execution stats: %w", err)
	}

	stats := &domain.ExecutionStats{
		Total:     row.Total,
		Succeeded: row.Succeeded,
		Failed:    row.Failed,
	}
	if completed := row.Succeeded + row.Failed; completed > 0 {
		stats.SuccessRate = float64(row.Succeeded) / float64(completed)
	}
	if row.AvgDuration.Valid {
		stats.AvgDurationMs = row.AvgDuration.Float64
	}
	return stats, nil
}

func (s *executionStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "store.PurgeExecutions")
	defer span.End()

	res := s.db.WithContext(ctx).Where("started_at < ?", cutoff).Delete(&executionRecordModel{})
	if res.Error != nil {
		span.RecordError(res.Error)
		span.SetStatus(codes.Error, "failed to purge execution records")
		return 0, fmt.Errorf("failed to purge execution records: %w", res.Error)
	}
	span.SetAttributes(attribute.Int64("purged", res.RowsAffected))
	return res.RowsAffected, nil
}
