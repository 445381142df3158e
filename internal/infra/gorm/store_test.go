package gormstore

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"cronwell/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedDefinition(t *testing.T, repo domain.DefinitionRepository, name string, active bool) *domain.SchedulerDefinition {
	t.Helper()
	def := &domain.SchedulerDefinition{
		ID:             uuid.NewString(),
		Name:           name,
		ReferenceKey:   "ref-" + name,
		Description:    "test scheduler " + name,
		CronExpression: "0 0 * * *",
		TaskType:       domain.TaskTypeLogCleanup,
		TaskConfig:     domain.TaskConfig{"retentionDays": 30},
		IsActive:       active,
		Status:         domain.SchedulerStatusIdle,
		LastStatus:     domain.RunOutcomeNone,
	}
	require.NoError(t, repo.Create(context.Background(), def))
	return def
}

func TestDefinitionStoreCreateAndFind(t *testing.T) {
	repo := NewDefinitionStore(testDB(t), testLogger())
	ctx := context.Background()

	def := seedDefinition(t, repo, "nightly-cleanup", true)

	byID, err := repo.FindByID(ctx, def.ID)
	require.NoError(t, err)
	assert.Equal(t, def.Name, byID.Name)
	assert.Equal(t, domain.SchedulerStatusIdle, byID.Status)
	assert.Equal(t, float64(30), toFloat(byID.TaskConfig["retentionDays"]))

	byName, err := repo.FindByName(ctx, "nightly-cleanup")
	require.NoError(t, err)
	assert.Equal(t, def.ID, byName.ID)

	byKey, err := repo.FindByReferenceKey(ctx, "ref-nightly-cleanup")
	require.NoError(t, err)
	assert.Equal(t, def.ID, byKey.ID)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSchedulerNotFound)
}

// toFloat absorbs the json serializer round-trip turning ints into float64.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return -1
}

func TestDefinitionStoreFindActive(t *testing.T) {
	repo := NewDefinitionStore(testDB(t), testLogger())

	seedDefinition(t, repo, "active-one", true)
	seedDefinition(t, repo, "active-two", true)
	seedDefinition(t, repo, "dormant", false)

	defs, err := repo.FindActive(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "active-one", defs[0].Name)
	assert.Equal(t, "active-two", defs[1].Name)
}

func TestDefinitionStoreUpdatePatch(t *testing.T) {
	repo := NewDefinitionStore(testDB(t), testLogger())
	ctx := context.Background()
	def := seedDefinition(t, repo, "patchable", true)

	cron := "*/5 * * * *"
	err := repo.Update(ctx, def.ID, domain.DefinitionPatch{
		CronExpression: &cron,
		TaskConfig:     domain.TaskConfig{"retentionDays": 7},
	})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, def.ID)
	require.NoError(t, err)
	assert.Equal(t, cron, got.CronExpression)
	assert.Equal(t, float64(7), toFloat(got.TaskConfig["retentionDays"]))
	assert.Equal(t, def.Name, got.Name, "untouched fields stay")

	assert.ErrorIs(t, repo.Update(ctx, "missing", domain.DefinitionPatch{CronExpression: &cron}), domain.ErrSchedulerNotFound)
	assert.NoError(t, repo.Update(ctx, def.ID, domain.DefinitionPatch{}), "empty patch is a no-op")
}

func TestDefinitionStoreStatusAndRuns(t *testing.T) {
	repo := NewDefinitionStore(testDB(t), testLogger())
	ctx := context.Background()
	def := seedDefinition(t, repo, "run-tracked", true)

	require.NoError(t, repo.UpdateStatus(ctx, def.ID, domain.SchedulerStatusRunning))

	next := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateNextRun(ctx, def.ID, next))

	ran := time.Date(2026, time.March, 14, 0, 0, 5, 0, time.UTC)
	require.NoError(t, repo.UpdateLastRun(ctx, def.ID, domain.LastRunUpdate{
		LastRunAt:      ran,
		LastStatus:     domain.RunOutcomeSuccess,
		LastDurationMs: 5000,
		NextRunAt:      &next,
	}))

	got, err := repo.FindByID(ctx, def.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SchedulerStatusRunning, got.Status)
	assert.Equal(t, domain.RunOutcomeSuccess, got.LastStatus)
	assert.EqualValues(t, 5000, got.LastDurationMs)
	require.NotNil(t, got.NextRunAt)
	assert.True(t, got.NextRunAt.Equal(next))

	// A failure report leaves next_run_at alone.
	require.NoError(t, repo.UpdateLastRun(ctx, def.ID, domain.LastRunUpdate{
		LastRunAt:      ran.Add(time.Hour),
		LastStatus:     domain.RunOutcomeFailed,
		LastDurationMs: 12,
	}))
	got, err = repo.FindByID(ctx, def.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunOutcomeFailed, got.LastStatus)
	require.NotNil(t, got.NextRunAt)
	assert.True(t, got.NextRunAt.Equal(next))
}

func TestDefinitionStoreToggleActive(t *testing.T) {
	repo := NewDefinitionStore(testDB(t), testLogger())
	ctx := context.Background()
	def := seedDefinition(t, repo, "toggled", true)

	got, err := repo.ToggleActive(ctx, def.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	got, err = repo.ToggleActive(ctx, def.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	_, err = repo.ToggleActive(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSchedulerNotFound)
}

func TestDefinitionStorePaginate(t *testing.T) {
	repo := NewDefinitionStore(testDB(t), testLogger())
	ctx := context.Background()

	seedDefinition(t, repo, "alpha-report", true)
	seedDefinition(t, repo, "beta-report", false)
	seedDefinition(t, repo, "gamma-cleanup", true)

	defs, total, err := repo.Paginate(ctx, 1, 2, domain.DefinitionFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, defs, 2)
	assert.Equal(t, "alpha-report", defs[0].Name)

	defs, total, err = repo.Paginate(ctx, 2, 2, domain.DefinitionFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, defs, 1)
	assert.Equal(t, "gamma-cleanup", defs[0].Name)

	active := true
	defs, total, err = repo.Paginate(ctx, 1, 10, domain.DefinitionFilter{IsActive: &active, Search: "report"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, defs, 1)
	assert.Equal(t, "alpha-report", defs[0].Name)
}

func seedExecution(t *testing.T, repo domain.ExecutionRepository, schedulerID string, startedAt time.Time) *domain.ExecutionRecord {
	t.Helper()
	rec := &domain.ExecutionRecord{
		ID:            uuid.NewString(),
		SchedulerID:   schedulerID,
		SchedulerName: "seeded",
		Status:        domain.ExecutionStatusRunning,
		StartedAt:     startedAt,
	}
	require.NoError(t, repo.Create(context.Background(), rec))
	return rec
}

func TestExecutionStoreFinalizeOnce(t *testing.T) {
	repo := NewExecutionStore(testDB(t), testLogger())
	ctx := context.Background()
	started := time.Date(2026, time.March, 14, 3, 0, 0, 0, time.UTC)
	rec := seedExecution(t, repo, "sched-1", started)

	done := started.Add(2 * time.Second)
	require.NoError(t, repo.Finalize(ctx, rec.ID, domain.ExecutionStatusSuccess, done, 2000, "ok", ""))

	got, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusSuccess, got.Status)
	require.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.DurationMs)
	assert.EqualValues(t, 2000, *got.DurationMs)
	assert.Equal(t, "ok", got.Output)

	// The record left RUNNING already; a second finalize must not touch it.
	err = repo.Finalize(ctx, rec.ID, domain.ExecutionStatusFailed, done.Add(time.Second), 3000, "", "late")
	assert.ErrorIs(t, err, domain.ErrExecutionNotFound)

	got, err = repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusSuccess, got.Status)
	assert.Empty(t, got.Error)
}

func TestExecutionStoreListNewestFirst(t *testing.T) {
	repo := NewExecutionStore(testDB(t), testLogger())
	ctx := context.Background()
	base := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		seedExecution(t, repo, "sched-1", base.Add(time.Duration(i)*time.Hour))
	}
	seedExecution(t, repo, "sched-other", base)

	recs, total, err := repo.ListByScheduler(ctx, "sched-1", 1, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, recs, 3)
	assert.True(t, recs[0].StartedAt.After(recs[1].StartedAt))
	assert.True(t, recs[1].StartedAt.After(recs[2].StartedAt))
}

func TestExecutionStoreStats(t *testing.T) {
	repo := NewExecutionStore(testDB(t), testLogger())
	ctx := context.Background()
	base := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	for i, outcome := range []domain.ExecutionStatus{
		domain.ExecutionStatusSuccess,
		domain.ExecutionStatusSuccess,
		domain.ExecutionStatusSuccess,
		domain.ExecutionStatusFailed,
	} {
		rec := seedExecution(t, repo, "sched-1", base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Finalize(ctx, rec.ID, outcome, rec.StartedAt.Add(time.Second), 1000, "", ""))
	}
	// Still RUNNING, counts toward total only.
	seedExecution(t, repo, "sched-1", base.Add(10*time.Hour))
	// Outside the window.
	seedExecution(t, repo, "sched-1", base.Add(-48*time.Hour))

	stats, err := repo.Stats(ctx, "sched-1", base)
	require.NoError(t, err)
	assert.EqualValues(t, 5, stats.Total)
	assert.EqualValues(t, 3, stats.Succeeded)
	assert.EqualValues(t, 1, stats.Failed)
	assert.InDelta(t, 0.75, stats.SuccessRate, 1e-9)
	assert.InDelta(t, 1000, stats.AvgDurationMs, 1e-9)
}

func TestExecutionStorePurge(t *testing.T) {
	repo := NewExecutionStore(testDB(t), testLogger())
	ctx := context.Background()
	now := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)

	seedExecution(t, repo, "sched-1", now.AddDate(0, 0, -40))
	seedExecution(t, repo, "sched-1", now.AddDate(0, 0, -31))
	keep := seedExecution(t, repo, "sched-1", now.AddDate(0, 0, -5))

	purged, err := repo.PurgeOlderThan(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.EqualValues(t, 2, purged)

	_, total, err := repo.ListByScheduler(ctx, "sched-1", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, err = repo.FindByID(ctx, keep.ID)
	assert.NoError(t, err)
}

func TestCutoffRangeStoreCoveringAndDedup(t *testing.T) {
	db := testDB(t)
	store := NewCutoffRangeStore(db, testLogger())
	ctx := context.Background()

	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	r := &domain.CutoffDateRange{
		Code:           domain.RangeCode("cut-1", start, end),
		CutoffID:       "cut-1",
		CompanyID:      "co-1",
		StartDate:      start,
		EndDate:        end,
		ProcessingDate: end.AddDate(0, 0, 5),
		PeriodType:     domain.PeriodTypeFirst,
		Status:         domain.RangeStatusTimekeeping,
	}
	require.NoError(t, store.Create(ctx, r))

	// Same code again: rejected without touching the stored row.
	dup := *r
	dup.Status = "OVERWRITTEN"
	assert.ErrorIs(t, store.Create(ctx, &dup), domain.ErrRangeExists)

	exists, err := store.ExistsByCode(ctx, r.Code)
	require.NoError(t, err)
	assert.True(t, exists)

	covering, err := store.FindCovering(ctx, "cut-1", start.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.NotNil(t, covering)
	assert.Equal(t, r.Code, covering.Code)
	assert.Equal(t, domain.RangeStatusTimekeeping, covering.Status)

	// Boundary days are inclusive.
	for _, d := range []time.Time{start, end} {
		covering, err = store.FindCovering(ctx, "cut-1", d)
		require.NoError(t, err)
		assert.NotNil(t, covering, "day %s should be covered", d.Format("2006-01-02"))
	}

	covering, err = store.FindCovering(ctx, "cut-1", end.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Nil(t, covering)

	covering, err = store.FindCovering(ctx, "cut-other", start)
	require.NoError(t, err)
	assert.Nil(t, covering)
}

func TestCutoffRangeStoreDeleteOrphaned(t *testing.T) {
	db := testDB(t)
	store := NewCutoffRangeStore(db, testLogger())
	ctx := context.Background()

	require.NoError(t, db.Create(&cutoffDefinitionModel{ID: "cut-live", CompanyID: "co-1", CutoffType: "MONTHLY"}).Error)
	require.NoError(t, db.Create(&cutoffDefinitionModel{ID: "cut-dead", CompanyID: "co-1", CutoffType: "MONTHLY", IsDeleted: true}).Error)

	mk := func(cutoffID string, day int) {
		start := time.Date(2026, time.March, day, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 0, 6)
		require.NoError(t, store.Create(ctx, &domain.CutoffDateRange{
			Code: domain.RangeCode(cutoffID, start, end), CutoffID: cutoffID, CompanyID: "co-1",
			StartDate: start, EndDate: end, ProcessingDate: end,
			PeriodType: domain.PeriodTypeFirst, Status: domain.RangeStatusTimekeeping,
		}))
	}
	mk("cut-live", 1)
	mk("cut-dead", 1)
	mk("cut-dead", 8)

	deleted, err := store.DeleteOrphaned(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	remaining, err := store.ListByCutoff(ctx, "cut-live")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	gone, err := store.ListByCutoff(ctx, "cut-dead")
	require.NoError(t, err)
	assert.Empty(t, gone)
}

func TestProviders(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&companyModel{ID: "co-1", Name: "Acme", IsActive: true}).Error)
	require.NoError(t, db.Create(&companyModel{ID: "co-2", Name: "Defunct", IsActive: false}).Error)
	require.NoError(t, db.Create(&cutoffDefinitionModel{
		ID: "cut-1", CompanyID: "co-1", CutoffType: "SEMIMONTHLY",
		Config: domain.TaskConfig{"firstCutoffPeriod": 15, "lastCutoffPeriod": 0},
	}).Error)
	require.NoError(t, db.Create(&cutoffDefinitionModel{ID: "cut-gone", CompanyID: "co-1", CutoffType: "MONTHLY", IsDeleted: true}).Error)
	require.NoError(t, db.Create(&employeeAccountModel{ID: "emp-1", CompanyID: "co-1", HRISLinked: true}).Error)
	require.NoError(t, db.Create(&employeeAccountModel{ID: "emp-2", CompanyID: "co-1", HRISLinked: false}).Error)

	companies, err := NewCompanyProvider(db).ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "co-1", companies[0].ID)

	cutoffs, err := NewCutoffProvider(db).ListByCompany(ctx, "co-1")
	require.NoError(t, err)
	require.Len(t, cutoffs, 1)
	assert.Equal(t, domain.CutoffTypeSemiMonthly, cutoffs[0].CutoffType)

	unlinked, err := NewAccountProvider(db).CountUnlinked(ctx, "co-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, unlinked)
}
