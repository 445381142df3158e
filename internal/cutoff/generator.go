package cutoff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cronwell/internal/domain"
	"cronwell/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Generator is the cutoff date-range generation task. Once per run (intended
// daily, one day ahead of need) it ensures every non-deleted cutoff of every
// company has a persisted date range covering tomorrow.
type Generator struct {
	companies domain.CompanyProvider
	cutoffs   domain.CutoffProvider
	ranges    domain.CutoffRangeStore
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewGenerator creates the generator task.
func NewGenerator(companies domain.CompanyProvider, cutoffs domain.CutoffProvider, ranges domain.CutoffRangeStore, logger *slog.Logger) *Generator {
	return &Generator{
		companies: companies,
		cutoffs:   cutoffs,
		ranges:    ranges,
		logger:    logger.With("component", "cutoff-generator"),
		tracer:    otel.Tracer("cronwell-cutoff-generator"),
		now:       time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

func (g *Generator) Type() string { return domain.TaskTypeCutoffDateGeneration }

func (g *Generator) Describe() string {
	return "Generates the next uncovered payroll/billing period for every active cutoff, one day ahead of need."
}

// Execute runs the generation pass. Companies and cutoffs are processed
// sequentially; failures are isolated per item so one bad cutoff never stops
// the rest. Only a failure before the company loop starts fails the run.
func (g *Generator) Execute(ctx context.Context, cfg domain.TaskConfig) (string, error) {
	ctx, span := g.tracer.Start(ctx, "task.CutoffDateRangeGeneration")
	defer span.End()

	log := &runLog{}
	tomorrow := DateOnly(g.now()).AddDate(0, 0, 1)
	log.add(PhaseInitialization, "generating cutoff date ranges covering %s", tomorrow.Format("2006-01-02"))
	span.SetAttributes(attribute.String("cutoff.tomorrow", tomorrow.Format("2006-01-02")))

	companies, err := g.companies.ListActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list companies")
		return log.String(), fmt.Errorf("failed to list companies: %w", err)
	}
	log.add(PhaseCompaniesFound, "found %d active companies", len(companies))

	for _, company := range companies {
		if err := g.processCompany(ctx, log, company, tomorrow); err != nil {
			log.add(PhaseCompanyError, "company %s: %v", company.ID, err)
			g.logger.Error("failed to process company", "company_id", company.ID, "error", err)
			continue
		}
		log.add(PhaseCompanyComplete, "company %s processed", company.ID)
	}

	log.add(PhaseComplete, "cutoff date range generation complete")
	return log.String(), nil
}

func (g *Generator) processCompany(ctx context.Context, log *runLog, company *domain.Company, tomorrow time.Time) error {
	log.add(PhaseProcessCompany, "processing company %s", company.ID)

	cutoffs, err := g.cutoffs.ListByCompany(ctx, company.ID)
	if err != nil {
		return fmt.Errorf("failed to list cutoffs: %w", err)
	}
	log.add(PhaseCutoffsFound, "found %d cutoffs for company %s", len(cutoffs), company.ID)

	for _, c := range cutoffs {
		if c.IsDeleted {
			continue
		}
		if err := g.processCutoff(ctx, log, c, tomorrow); err != nil {
			log.add(PhaseCutoffError, "cutoff %s: %v", c.ID, err)
			g.logger.Error("failed to process cutoff",
				"company_id", company.ID, "cutoff_id", c.ID, "cutoff_type", string(c.CutoffType), "error", err)
		}
	}
	return nil
}

func (g *Generator) processCutoff(ctx context.Context, log *runLog, c *domain.CutoffDefinition, tomorrow time.Time) error {
	// Idempotent short-circuit: repeated daily runs are no-ops once a range
	// covering tomorrow exists.
	covering, err := g.ranges.FindCovering(ctx, c.ID, tomorrow)
	if err != nil {
		return fmt.Errorf("failed to query covering range: %w", err)
	}
	if covering != nil {
		log.add(PhaseCutoffTomorrowCovered, "cutoff %s already covered by %s", c.ID, covering.Code)
		return nil
	}

	periods, err := CandidatePeriods(c.CutoffType, Normalize(c.Config), tomorrow)
	if err != nil {
		log.addDetail(PhaseDateGenerationError, map[string]any{
			"cutoff_id":   c.ID,
			"cutoff_type": string(c.CutoffType),
			"config":      c.Config,
		}, "cutoff %s: %v", c.ID, err)
		return nil
	}
	period, ok := SelectCovering(periods, tomorrow)
	if !ok {
		log.addDetail(PhaseDateGenerationError, map[string]any{
			"cutoff_id": c.ID,
		}, "cutoff %s: no candidate period covers %s", c.ID, tomorrow.Format("2006-01-02"))
		return nil
	}

	code := domain.RangeCode(c.ID, period.Start, period.End)

	// A racing run can insert between the coverage check and here; the
	// unique code catches that.
	exists, err := g.ranges.ExistsByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to check range code: %w", err)
	}
	if exists {
		log.add(PhaseRangeExists, "range %s already exists", code)
		return nil
	}

	r := &domain.CutoffDateRange{
		Code:           code,
		CutoffID:       c.ID,
		CompanyID:      c.CompanyID,
		StartDate:      period.Start,
		EndDate:        period.End,
		ProcessingDate: period.End.AddDate(0, 0, c.ReleaseProcessingDays),
		PeriodType:     period.Type,
		Status:         domain.RangeStatusTimekeeping,
	}
	if err := g.ranges.Create(ctx, r); err != nil {
		if errors.Is(err, domain.ErrRangeExists) {
			log.add(PhaseRangeExists, "range %s already exists", code)
			return nil
		}
		return fmt.Errorf("failed to create range %s: %w", code, err)
	}

	metrics.CutoffRangesCreatedTotal.Inc()
	log.addDetail(PhaseCreatedRange, map[string]any{
		"code":            code,
		"start_date":      r.StartDate.Format("2006-01-02"),
		"end_date":        r.EndDate.Format("2006-01-02"),
		"processing_date": r.ProcessingDate.Format("2006-01-02"),
		"period_type":     string(r.PeriodType),
	}, "created range %s for cutoff %s", code, c.ID)
	return nil
}
