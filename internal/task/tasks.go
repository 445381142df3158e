package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"cronwell/internal/domain"
	"cronwell/internal/metrics"
)

// configInt reads an integer from a task config, tolerating the numeric types
// JSON round-trips produce.
func configInt(cfg domain.TaskConfig, key string, fallback int) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// DatabaseCleanupTask removes cutoff date ranges orphaned by soft-deleted
// cutoff definitions.
type DatabaseCleanupTask struct {
	ranges domain.CutoffRangeStore
	logger *slog.Logger
}

func NewDatabaseCleanupTask(ranges domain.CutoffRangeStore, logger *slog.Logger) *DatabaseCleanupTask {
	return &DatabaseCleanupTask{ranges: ranges, logger: logger.With("component", "database-cleanup-task")}
}

func (t *DatabaseCleanupTask) Type() string { return domain.TaskTypeDatabaseCleanup }

func (t *DatabaseCleanupTask) Describe() string {
	return "Removes cutoff date ranges left behind by soft-deleted cutoff definitions."
}

func (t *DatabaseCleanupTask) Execute(ctx context.Context, cfg domain.TaskConfig) (string, error) {
	deleted, err := t.ranges.DeleteOrphaned(ctx)
	if err != nil {
		return "", fmt.Errorf("database cleanup failed: %w", err)
	}
	t.logger.Info("database cleanup complete", "deleted", deleted)
	return fmt.Sprintf("removed %d orphaned cutoff date ranges", deleted), nil
}

// LogCleanupTask purges execution records past the retention window.
type LogCleanupTask struct {
	executions domain.ExecutionRepository
	logger     *slog.Logger
	now        func() time.Time
}

func NewLogCleanupTask(executions domain.ExecutionRepository, logger *slog.Logger) *LogCleanupTask {
	return &LogCleanupTask{
		executions: executions,
		logger:     logger.With("component", "log-cleanup-task"),
		now:        time.Now,
	}
}

func (t *LogCleanupTask) Type() string { return domain.TaskTypeLogCleanup }

func (t *LogCleanupTask) Describe() string {
	return "Purges execution history older than the retention window."
}

func (t *LogCleanupTask) Execute(ctx context.Context, cfg domain.TaskConfig) (string, error) {
	retentionDays := configInt(cfg, "retentionDays", 30)
	cutoff := t.now().AddDate(0, 0, -retentionDays)

	purged, err := t.executions.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return "", fmt.Errorf("log cleanup failed: %w", err)
	}
	metrics.ExecutionRecordsPurgedTotal.Add(float64(purged))
	t.logger.Info("log cleanup complete", "purged", purged, "retention_days", retentionDays)
	return fmt.Sprintf("purged %d execution records older than %d days", purged, retentionDays), nil
}

// ReportGenerationTask aggregates execution stats for every definition into a
// JSON report.
type ReportGenerationTask struct {
	defs       domain.DefinitionRepository
	executions domain.ExecutionRepository
	logger     *slog.Logger
	now        func() time.Time
}

func NewReportGenerationTask(defs domain.DefinitionRepository, executions domain.ExecutionRepository, logger *slog.Logger) *ReportGenerationTask {
	return &ReportGenerationTask{
		defs:       defs,
		executions: executions,
		logger:     logger.With("component", "report-generation-task"),
		now:        time.Now,
	}
}

func (t *ReportGenerationTask) Type() string { return domain.TaskTypeReportGeneration }

func (t *ReportGenerationTask) Describe() string {
	return "Builds a per-scheduler execution summary over the trailing window."
}

func (t *ReportGenerationTask) Execute(ctx context.Context, cfg domain.TaskConfig) (string, error) {
	windowDays := configInt(cfg, "windowDays", 30)
	since := t.now().AddDate(0, 0, -windowDays)

	defs, _, err := t.defs.Paginate(ctx, 1, 500, domain.DefinitionFilter{})
	if err != nil {
		return "", fmt.Errorf("report generation failed: %w", err)
	}

	type reportRow struct {
		Scheduler string                 `json:"scheduler"`
		Stats     *domain.ExecutionStats `json:"stats"`
	}
	report := struct {
		WindowDays int         `json:"window_days"`
		Rows       []reportRow `json:"rows"`
	}{WindowDays: windowDays}

	for _, def := range defs {
		stats, err := t.executions.Stats(ctx, def.ID, since)
		if err != nil {
			// One bad aggregate should not sink the report.
			t.logger.Error("failed to aggregate stats", "scheduler", def.Name, "error", err)
			continue
		}
		report.Rows = append(report.Rows, reportRow{Scheduler: def.Name, Stats: stats})
	}

	out, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("report generation failed: %w", err)
	}
	return string(out), nil
}

// TimekeepingDailyTask hands the heavy daily timekeeping recomputation off to
// the external queue service, one work item per company.
type TimekeepingDailyTask struct {
	companies domain.CompanyProvider
	queue     domain.QueueService
	logger    *slog.Logger
}

func NewTimekeepingDailyTask(companies domain.CompanyProvider, queue domain.QueueService, logger *slog.Logger) *TimekeepingDailyTask {
	return &TimekeepingDailyTask{
		companies: companies,
		queue:     queue,
		logger:    logger.With("component", "timekeeping-daily-task"),
	}
}

func (t *TimekeepingDailyTask) Type() string { return domain.TaskTypeTimekeepingDaily }

func (t *TimekeepingDailyTask) Describe() string {
	return "Submits the daily timekeeping recomputation for every company to the processing queue."
}

func (t *TimekeepingDailyTask) Execute(ctx context.Context, cfg domain.TaskConfig) (string, error) {
	companies, err := t.companies.ListActive(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list companies: %w", err)
	}

	submitted := 0
	for _, c := range companies {
		handle, err := t.queue.Submit(ctx, "timekeeping-daily", map[string]any{"companyId": c.ID})
		if err != nil {
			t.logger.Error("failed to submit timekeeping work", "company_id", c.ID, "error", err)
			continue
		}
		t.logger.Info("submitted timekeeping work", "company_id", c.ID, "handle", handle)
		submitted++
	}
	return fmt.Sprintf("submitted timekeeping processing for %d of %d companies", submitted, len(companies)), nil
}

// HRISAccountCheckTask reports employee accounts not yet linked to HRIS, per
// company.
type HRISAccountCheckTask struct {
	companies domain.CompanyProvider
	accounts  domain.AccountProvider
	logger    *slog.Logger
}

func NewHRISAccountCheckTask(companies domain.CompanyProvider, accounts domain.AccountProvider, logger *slog.Logger) *HRISAccountCheckTask {
	return &HRISAccountCheckTask{
		companies: companies,
		accounts:  accounts,
		logger:    logger.With("component", "hris-account-check-task"),
	}
}

func (t *HRISAccountCheckTask) Type() string { return domain.TaskTypeHRISAccountCheck }

func (t *HRISAccountCheckTask) Describe() string {
	return "Counts employee accounts that are not linked to an HRIS identity."
}

func (t *HRISAccountCheckTask) Execute(ctx context.Context, cfg domain.TaskConfig) (string, error) {
	companies, err := t.companies.ListActive(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list companies: %w", err)
	}

	counts := map[string]int64{}
	var total int64
	for _, c := range companies {
		n, err := t.accounts.CountUnlinked(ctx, c.ID)
		if err != nil {
			t.logger.Error("failed to count unlinked accounts", "company_id", c.ID, "error", err)
			continue
		}
		if n > 0 {
			counts[c.ID] = n
			total += n
		}
	}

	out, err := json.Marshal(map[string]any{"unlinked_total": total, "by_company": counts})
	if err != nil {
		return "", fmt.Errorf("hris account check failed: %w", err)
	}
	return string(out), nil
}
