package task

import "cronwell/internal/domain"

// CatalogEntry is one expected job definition in the static reference catalog.
// Reconciliation syncs these into the definition store at startup without
// clobbering user overrides of cron expression, active flag or config.
type CatalogEntry struct {
	ReferenceKey   string
	Name           string
	Description    string
	TaskType       string
	CronExpression string
	TaskConfig     domain.TaskConfig
	Active         bool
}

// Catalog returns the static reference catalog of expected job definitions.
func Catalog() []CatalogEntry {
	return []CatalogEntry{
		{
			ReferenceKey:   "cutoff-date-range-generation",
			Name:           "Cutoff Date Range Generation",
			Description:    "Generates the next payroll/billing period for every active cutoff, one day ahead of need.",
			TaskType:       domain.TaskTypeCutoffDateGeneration,
			CronExpression: "0 0 * * *",
			TaskConfig:     domain.TaskConfig{},
			Active:         true,
		},
		{
			ReferenceKey:   "timekeeping-daily-processing",
			Name:           "Timekeeping Daily Processing",
			Description:    "Submits the daily timekeeping recomputation for every company to the processing queue.",
			TaskType:       domain.TaskTypeTimekeepingDaily,
			CronExpression: "30 0 * * *",
			TaskConfig:     domain.TaskConfig{},
			Active:         true,
		},
		{
			ReferenceKey:   "log-cleanup",
			Name:           "Execution Log Cleanup",
			Description:    "Purges execution history older than the retention window.",
			TaskType:       domain.TaskTypeLogCleanup,
			CronExpression: "0 2 * * *",
			TaskConfig:     domain.TaskConfig{"retentionDays": 30},
			Active:         true,
		},
		{
			ReferenceKey:   "database-cleanup",
			Name:           "Database Cleanup",
			Description:    "Removes cutoff date ranges left behind by soft-deleted cutoff definitions.",
			TaskType:       domain.TaskTypeDatabaseCleanup,
			CronExpression: "0 3 * * 0",
			TaskConfig:     domain.TaskConfig{},
			Active:         true,
		},
		{
			ReferenceKey:   "report-generation",
			Name:           "Execution Report Generation",
			Description:    "Builds a per-scheduler execution summary over the trailing window.",
			TaskType:       domain.TaskTypeReportGeneration,
			CronExpression: "0 6 * * 1",
			TaskConfig:     domain.TaskConfig{"windowDays": 30},
			Active:         false,
		},
		{
			ReferenceKey:   "hris-account-check",
			Name:           "HRIS Account Check",
			Description:    "Counts employee accounts that are not linked to an HRIS identity.",
			TaskType:       domain.TaskTypeHRISAccountCheck,
			CronExpression: "0 7 * * *",
			TaskConfig:     domain.TaskConfig{},
			Active:         false,
		},
	}
}
