package domain

import (
	"context"
	"fmt"
	"time"
)

// CutoffType is the recurrence kind of a payroll/billing cutoff.
type CutoffType string

const (
	CutoffTypeWeekly      CutoffType = "WEEKLY"
	CutoffTypeMonthly     CutoffType = "MONTHLY"
	CutoffTypeSemiMonthly CutoffType = "SEMIMONTHLY"
)

// PeriodType classifies a generated period within its calendar month.
type PeriodType string

const (
	PeriodTypeFirst  PeriodType = "FIRST_PERIOD"
	PeriodTypeMiddle PeriodType = "MIDDLE_PERIOD"
	PeriodTypeLast   PeriodType = "LAST_PERIOD"
)

// RangeStatusTimekeeping is the initial status of a freshly generated range.
// A downstream consumer moves ranges past it; this process never does.
const RangeStatusTimekeeping = "TIMEKEEPING"

// CutoffDefinition is the read-only configuration of one recurring cutoff,
// owned by an external collaborator. Config is the raw, possibly legacy-shaped
// key-value payload; the generator normalizes it before doing period math.
type CutoffDefinition struct {
	ID                    string         `json:"id"`
	CompanyID             string         `json:"company_id"`
	CutoffType            CutoffType     `json:"cutoff_type"`
	Config                map[string]any `json:"config"`
	ReleaseProcessingDays int            `json:"release_processing_days"`
	IsDeleted             bool           `json:"is_deleted"`
}

// CutoffDateRange is one materialized period of a cutoff. Code is derived from
// (cutoffID, start, end) and doubles as the natural idempotency key.
type CutoffDateRange struct {
	Code           string     `json:"code"`
	CutoffID       string     `json:"cutoff_id"`
	CompanyID      string     `json:"company_id"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        time.Time  `json:"end_date"`
	ProcessingDate time.Time  `json:"processing_date"`
	PeriodType     PeriodType `json:"period_type"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
}

// RangeCode derives the deterministic idempotency code for a period.
func RangeCode(cutoffID string, start, end time.Time) string {
	return fmt.Sprintf("%s-%s-%s", cutoffID, start.Format("20060102"), end.Format("20060102"))
}

// Company is the minimal tenant projection the background tasks need.
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CompanyProvider lists the tenants background loops iterate over.
type CompanyProvider interface {
	ListActive(ctx context.Context) ([]*Company, error)
}

// CutoffProvider is read-only access to cutoff definitions, scoped by company.
type CutoffProvider interface {
	ListByCompany(ctx context.Context, companyID string) ([]*CutoffDefinition, error)
}

// CutoffRangeStore persists generated date ranges. Create must be idempotent
// on Code: a second insert with the same code returns ErrRangeExists.
type CutoffRangeStore interface {
	FindCovering(ctx context.Context, cutoffID string, date time.Time) (*CutoffDateRange, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, r *CutoffDateRange) error
	ListByCutoff(ctx context.Context, cutoffID string) ([]*CutoffDateRange, error)
	// DeleteOrphaned removes ranges whose cutoff definition has been soft-deleted.
	DeleteOrphaned(ctx context.Context) (int64, error)
}
