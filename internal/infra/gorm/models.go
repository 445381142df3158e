package gormstore

import (
	"time"

	"cronwell/internal/domain"
)

type schedulerDefinitionModel struct {
	ID             string `gorm:"primaryKey;size:36"`
	Name           string `gorm:"uniqueIndex;size:128"`
	ReferenceKey   string `gorm:"uniqueIndex;size:128"`
	Description    string
	CronExpression string `gorm:"size:64"`
	TaskType       string `gorm:"size:64"`
	TaskConfig     domain.TaskConfig `gorm:"serializer:json"`
	IsActive       bool
	Status         string `gorm:"size:16"`
	LastRunAt      *time.Time
	NextRunAt      *time.Time
	LastStatus     string `gorm:"size:16"`
	LastDurationMs int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (schedulerDefinitionModel) TableName() string { return "scheduler_definitions" }

func (m *schedulerDefinitionModel) toDomain() *domain.SchedulerDefinition {
	return &domain.SchedulerDefinition{
		ID:             m.ID,
		Name:           m.Name,
		ReferenceKey:   m.ReferenceKey,
		Description:    m.Description,
		CronExpression: m.CronExpression,
		TaskType:       m.TaskType,
		TaskConfig:     m.TaskConfig,
		IsActive:       m.IsActive,
		Status:         domain.SchedulerStatus(m.Status),
		LastRunAt:      m.LastRunAt,
		NextRunAt:      m.NextRunAt,
		LastStatus:     domain.RunOutcome(m.LastStatus),
		LastDurationMs: m.LastDurationMs,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func definitionModelFrom(d *domain.SchedulerDefinition) *schedulerDefinitionModel {
	return &schedulerDefinitionModel{
		ID:             d.ID,
		Name:           d.Name,
		ReferenceKey:   d.ReferenceKey,
		Description:    d.Description,
		CronExpression: d.CronExpression,
		TaskType:       d.TaskType,
		TaskConfig:     d.TaskConfig,
		IsActive:       d.IsActive,
		Status:         string(d.Status),
		LastRunAt:      d.LastRunAt,
		NextRunAt:      d.NextRunAt,
		LastStatus:     string(d.LastStatus),
		LastDurationMs: d.LastDurationMs,
	}
}

type executionRecordModel struct {
	ID            string `gorm:"primaryKey;size:36"`
	SchedulerID   string `gorm:"index;size:36"`
	SchedulerName string `gorm:"size:128"`
	Status        string `gorm:"size:16"`
	StartedAt     time.Time `gorm:"index"`
	CompletedAt   *time.Time
	DurationMs    *int64
	Output        string
	Error         string
}

func (executionRecordModel) TableName() string { return "execution_records" }

func (m *executionRecordModel) toDomain() *domain.ExecutionRecord {
	return &domain.ExecutionRecord{
		ID:            m.ID,
		SchedulerID:   m.SchedulerID,
		SchedulerName: m.SchedulerName,
		Status:        domain.ExecutionStatus(m.Status),
		StartedAt:     m.StartedAt,
		CompletedAt:   m.CompletedAt,
		DurationMs:    m.DurationMs,
		Output:        m.Output,
		Error:         m.Error,
	}
}

type cutoffDefinitionModel struct {
	ID                    string `gorm:"primaryKey;size:36"`
	CompanyID             string `gorm:"index;size:36"`
	CutoffType            string `gorm:"size:16"`
	Config                domain.TaskConfig `gorm:"serializer:json"`
	ReleaseProcessingDays int
	IsDeleted             bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (cutoffDefinitionModel) TableName() string { return "cutoff_definitions" }

func (m *cutoffDefinitionModel) toDomain() *domain.CutoffDefinition {
	return &domain.CutoffDefinition{
		ID:                    m.ID,
		CompanyID:             m.CompanyID,
		CutoffType:            domain.CutoffType(m.CutoffType),
		Config:                map[string]any(m.Config),
		ReleaseProcessingDays: m.ReleaseProcessingDays,
		IsDeleted:             m.IsDeleted,
	}
}

type cutoffDateRangeModel struct {
	Code           string `gorm:"primaryKey;size:64"`
	CutoffID       string `gorm:"index;size:36"`
	CompanyID      string `gorm:"size:36"`
	StartDate      time.Time
	EndDate        time.Time
	ProcessingDate time.Time
	PeriodType     string `gorm:"size:16"`
	Status         string `gorm:"size:32"`
	CreatedAt      time.Time
}

func (cutoffDateRangeModel) TableName() string { return "cutoff_date_ranges" }

func (m *cutoffDateRangeModel) toDomain() *domain.CutoffDateRange {
	return &domain.CutoffDateRange{
		Code:           m.Code,
		CutoffID:       m.CutoffID,
		CompanyID:      m.CompanyID,
		StartDate:      m.StartDate,
		EndDate:        m.EndDate,
		ProcessingDate: m.ProcessingDate,
		PeriodType:     domain.PeriodType(m.PeriodType),
		Status:         m.Status,
		CreatedAt:      m.CreatedAt,
	}
}

type companyModel struct {
	ID       string `gorm:"primaryKey;size:36"`
	Name     string `gorm:"size:128"`
	IsActive bool
}

func (companyModel) TableName() string { return "companies" }

type employeeAccountModel struct {
	ID         string `gorm:"primaryKey;size:36"`
	CompanyID  string `gorm:"index;size:36"`
	Email      string `gorm:"size:256"`
	HRISLinked bool
}

func (employeeAccountModel) TableName() string { return "employee_accounts" }
