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
	"gorm.io/gorm/clause"
)

type cutoffRangeStore struct {
	db     *gorm.DB
	logger *slog.Logger
	tracer trace.Tracer
}

// NewCutoffRangeStore creates the cutoff date range persistence facade.
func NewCutoffRangeStore(db *gorm.DB, logger *slog.Logger) domain.CutoffRangeStore {
	return &cutoffRangeStore{
		db:     db,
		logger: logger.With("component", "cutoff-range-store"),
		tracer: otel.Tracer("cronwell-cutoff-range-store"),
	}
}

func (s *cutoffRangeStore) FindCovering(ctx context.Context, cutoffID string, date time.Time) (*domain.CutoffDateRange, error) {
	ctx, span := s.tracer.Start(ctx, "store.FindCoveringRange")
	defer span.End()
	span.SetAttributes(
		attribute.String("cutoff.id", cutoffID),
		attribute.String("cutoff.date", date.Format("2006-01-02")),
	)

	var m cutoffDateRangeModel
	err := s.db.WithContext(ctx).
		Where("cutoff_id = ? AND start_date <= ? AND end_date >= ?", cutoffID, date, date).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query covering range")
		return nil, fmt.Errorf("failed to query covering range for cutoff %s: %w", cutoffID, err)
	}
	return m.toDomain(), nil
}

func (s *cutoffRangeStore) ExistsByCode(ctx context.Context, code string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "store.RangeExistsByCode")
	defer span.End()
	span.SetAttributes(attribute.String("range.code", code))

	var count int64
	if err := s.db.WithContext(ctx).Model(&cutoffDateRangeModel{}).Where("code = ?", code).Count(&count).Error; err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check range code %s: %w", code, err)
	}
	return count > 0, nil
}

// Create inserts the range, ignoring the insert when the code is already
// persisted and reporting that as domain.ErrRangeExists.
func (s *cutoffRangeStore) Create(ctx context.Context, r *domain.CutoffDateRange) error {
	ctx, span := s.tracer.Start(ctx, "store.CreateRange")
	defer span.End()
	span.SetAttributes(attribute.String("range.code", r.Code))

	m := &cutoffDateRangeModel{
		Code:           r.Code,
		CutoffID:       r.CutoffID,
		CompanyID:      r.CompanyID,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		ProcessingDate: r.ProcessingDate,
		PeriodType:     string(r.PeriodType),
		Status:         r.Status,
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if res.Error != nil {
		span.RecordError(res.Error)
		span.SetStatus(codes.Error, "failed to create cutoff date range")
		return fmt.Errorf("failed to create cutoff date range %s: %w", r.Code, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrRangeExists
	}
	r.CreatedAt = m.CreatedAt
	return nil
}

func (s *cutoffRangeStore) ListByCutoff(ctx context.Context, cutoffID string) ([]*domain.CutoffDateRange, error) {
	ctx, span := s.tracer.Start(ctx, "store.ListRangesByCutoff")
	defer span.End()
	span.SetAttributes(attribute.String("cutoff.id", cutoffID))

	var models []cutoffDateRangeModel
	if err := s.db.WithContext(ctx).Where("cutoff_id = ?", cutoffID).Order("start_date").Find(&models).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list ranges for cutoff %s: %w", cutoffID, err)
	}
	ranges := make([]*domain.CutoffDateRange, 0, len(models))
	for i := range models {
		ranges = append(ranges, models[i].toDomain())
	}
	return ranges, nil
}

func (s *cutoffRangeStore) DeleteOrphaned(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "store.DeleteOrphanedRanges")
	defer span.End()

	res := s.db.WithContext(ctx).
		Where("cutoff_id IN (?)", s.db.Model(&cutoffDefinitionModel{}).Select("id").Where("is_deleted = ?", true)).
		Delete(&cutoffDateRangeModel{})
	if res.Error != nil {
		span.RecordError(res.Error)
		span.SetStatus(codes.Error, "failed to delete orphaned ranges")
		return 0, fmt.Errorf("failed to delete orphaned ranges: %w", res.Error)
	}
	span.SetAttributes(attribute.Int64("deleted", res.RowsAffected))
	return res.RowsAffected, nil
}

type cutoffProvider struct {
	db     *gorm.DB
	tracer trace.Tracer
}

// NewCutoffProvider creates the read-only cutoff definition provider.
func NewCutoffProvider(db *gorm.DB) domain.CutoffProvider {
	return &cutoffProvider{db: db, tracer: otel.Tracer("cronwell-cutoff-provider")}
}

func (p *cutoffProvider) ListByCompany(ctx context.Context, companyID string) ([]*domain.CutoffDefinition, error) {
	ctx, span := p.tracer.Start(ctx, "store.ListCutoffsByCompany")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", companyID))

	var models []cutoffDefinitionModel
	if err := p.db.WithContext(ctx).Where("company_id = ? AND is_deleted = ?", companyID, false).Find(&models).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list cutoffs for company %s: %w", companyID, err)
	}
	cutoffs := make([]*domain.CutoffDefinition, 0, len(models))
	for i := range models {
		cutoffs = append(cutoffs, models[i].toDomain())
	}
	return cutoffs, nil
}

type companyProvider struct {
	db     *gorm.DB
	tracer trace.Tracer
}

// NewCompanyProvider creates the tenant listing read side.
func NewCompanyProvider(db *gorm.DB) domain.CompanyProvider {
	return &companyProvider{db: db, tracer: otel.Tracer("cronwell-company-provider")}
}

func (p *companyProvider) ListActive(ctx context.Context) ([]*domain.Company, error) {
	ctx, span := p.tracer.Start(ctx, "store.ListActiveCompanies")
	defer span.End()

	var models []companyModel
	if err := p.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&models).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list active companies: %w", err)
	}
	companies := make([]*domain.Company, 0, len(models))
	for _, m := range models {
		companies = append(companies, &domain.Company{ID: m.ID, Name: m.Name})
	}
	return companies, nil
}

type accountProvider struct {
	db     *gorm.DB
	tracer trace.Tracer
}

// NewAccountProvider creates the HRIS account linkage read side.
func NewAccountProvider(db *gorm.DB) domain.AccountProvider {
	return &accountProvider{db: db, tracer: otel.Tracer("cronwell-account-provider")}
}

func (p *accountProvider) CountUnlinked(ctx context.Context, companyID string) (int64, error) {
	ctx, span := p.tracer.Start(ctx, "store.CountUnlinkedAccounts")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", companyID))

	var count int64
	err := p.db.WithContext(ctx).Model(&employeeAccountModel{}).
		Where("company_id = ? AND hris_linked = ?", companyID, false).
		Count(&count).Error
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count unlinked accounts for company %s: %w", companyID, err)
	}
	return count, nil
}
