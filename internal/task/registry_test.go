package task

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"cronwell/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTask struct{ taskType string }

func (f fakeTask) Type() string     { return f.taskType }
func (f fakeTask) Describe() string { return "fake" }
func (f fakeTask) Execute(ctx context.Context, cfg domain.TaskConfig) (string, error) {
	return "", nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistryRegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(fakeTask{taskType: "beta"}))
	require.NoError(t, r.Register(fakeTask{taskType: "alpha"}))

	err := r.Register(fakeTask{taskType: "alpha"})
	assert.Error(t, err, "duplicate registration is rejected")

	got, err := r.Resolve("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.Type())

	_, err = r.Resolve("ghost")
	assert.ErrorIs(t, err, domain.ErrTaskTypeNotFound)

	assert.Equal(t, []string{"alpha", "beta"}, r.Types())
}

func TestDefaultRegistryCoversCatalog(t *testing.T) {
	r, err := NewDefaultRegistry(Dependencies{Logger: testLogger()})
	require.NoError(t, err)

	for _, entry := range Catalog() {
		_, err := r.Resolve(entry.TaskType)
		assert.NoError(t, err, "catalog entry %s has no task", entry.ReferenceKey)
	}
}

type purgeRecorder struct {
	cutoff time.Time
	purged int64
	err    error
}

func (p *purgeRecorder) Create(ctx context.Context, rec *domain.ExecutionRecord) error { return nil }
func (p *purgeRecorder) Finalize(ctx context.Context, id string, status domain.ExecutionStatus, completedAt time.Time, durationMs int64, output, errMsg string) error {
	return nil
}
func (p *purgeRecorder) FindByID(ctx context.Context, id string) (*domain.ExecutionRecord, error) {
	return nil, domain.ErrExecutionNotFound
}
func (p *purgeRecorder) ListByScheduler(ctx context.Context, schedulerID string, page, limit int) ([]*domain.ExecutionRecord, int64, error) {
	return nil, 0, nil
}
func (p *purgeRecorder) Stats(ctx context.Context, schedulerID string, since time.Time) (*domain.ExecutionStats, error) {
	return &domain.ExecutionStats{}, nil
}
func (p *purgeRecorder) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	p.cutoff = cutoff
	return p.purged, p.err
}

func TestLogCleanupTaskRetention(t *testing.T) {
	repo := &purgeRecorder{purged: 12}
	task := NewLogCleanupTask(repo, testLogger())

	before := time.Now()
	out, err := task.Execute(context.Background(), domain.TaskConfig{"retentionDays": 7})
	require.NoError(t, err)
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "7 days")
	assert.WithinDuration(t, before.AddDate(0, 0, -7), repo.cutoff, 5*time.Second)

	// Default window when the key is absent or malformed.
	_, err = task.Execute(context.Background(), domain.TaskConfig{"retentionDays": "soon"})
	require.NoError(t, err)
	assert.WithinDuration(t, before.AddDate(0, 0, -30), repo.cutoff, 5*time.Second)
}

func TestLogCleanupTaskPropagatesFailure(t *testing.T) {
	repo := &purgeRecorder{err: errors.New("locked")}
	task := NewLogCleanupTask(repo, testLogger())

	_, err := task.Execute(context.Background(), nil)
	assert.Error(t, err)
}

type staticCompanies struct{ companies []*domain.Company }

func (s staticCompanies) ListActive(ctx context.Context) ([]*domain.Company, error) {
	return s.companies, nil
}

type flakyQueue struct {
	failFor   string
	submitted []string
}

func (q *flakyQueue) Submit(ctx context.Context, name string, settings map[string]any) (string, error) {
	companyID, _ := settings["companyId"].(string)
	if companyID == q.failFor {
		return "", errors.New("queue rejected the work item")
	}
	q.submitted = append(q.submitted, companyID)
	return "handle-" + companyID, nil
}

func TestTimekeepingDailyTaskIsolatesFailures(t *testing.T) {
	companies := staticCompanies{companies: []*domain.Company{
		{ID: "co-1"}, {ID: "co-2"}, {ID: "co-3"},
	}}
	queue := &flakyQueue{failFor: "co-2"}
	task := NewTimekeepingDailyTask(companies, queue, testLogger())

	out, err := task.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"co-1", "co-3"}, queue.submitted)
	assert.Contains(t, out, "2 of 3")
}

type staticAccounts struct{ unlinked map[string]int64 }

func (s staticAccounts) CountUnlinked(ctx context.Context, companyID string) (int64, error) {
	return s.unlinked[companyID], nil
}

func TestHRISAccountCheckTask(t *testing.T) {
	companies := staticCompanies{companies: []*domain.Company{{ID: "co-1"}, {ID: "co-2"}}}
	accounts := staticAccounts{unlinked: map[string]int64{"co-1": 4}}
	task := NewHRISAccountCheckTask(companies, accounts, testLogger())

	out, err := task.Execute(context.Background(), nil)
	require.NoError(t, err)

	var report struct {
		UnlinkedTotal int64            `json:"unlinked_total"`
		ByCompany     map[string]int64 `json:"by_company"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.EqualValues(t, 4, report.UnlinkedTotal)
	assert.Equal(t, map[string]int64{"co-1": 4}, report.ByCompany)
}
