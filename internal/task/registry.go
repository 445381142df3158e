// Package task holds the closed set of executable units the scheduler can
// dispatch, keyed by task type. The set is fixed at process start; nothing is
// pluggable at runtime.
package task

import (
	"fmt"
	"log/slog"
	"sort"

	"cronwell/internal/cutoff"
	"cronwell/internal/domain"
)

// Registry maps task types to executable units.
type Registry struct {
	tasks map[string]domain.Task
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]domain.Task)}
}

// Register adds a task; registering the same type twice is a programming error.
func (r *Registry) Register(t domain.Task) error {
	if _, ok := r.tasks[t.Type()]; ok {
		return fmt.Errorf("task type %q registered twice", t.Type())
	}
	r.tasks[t.Type()] = t
	return nil
}

// Resolve looks a task up by type.
func (r *Registry) Resolve(taskType string) (domain.Task, error) {
	t, ok := r.tasks[taskType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrTaskTypeNotFound, taskType)
	}
	return t, nil
}

// Types lists the registered task types, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.tasks))
	for t := range r.tasks {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Dependencies bundles the collaborators the built-in tasks need.
type Dependencies struct {
	Executions domain.ExecutionRepository
	Defs       domain.DefinitionRepository
	Companies  domain.CompanyProvider
	Cutoffs    domain.CutoffProvider
	Ranges     domain.CutoffRangeStore
	Accounts   domain.AccountProvider
	Queue      domain.QueueService
	Logger     *slog.Logger
}

// NewDefaultRegistry builds the registry with the full built-in task list.
func NewDefaultRegistry(deps Dependencies) (*Registry, error) {
	r := NewRegistry()
	tasks := []domain.Task{
		NewDatabaseCleanupTask(deps.Ranges, deps.Logger),
		NewReportGenerationTask(deps.Defs, deps.Executions, deps.Logger),
		NewLogCleanupTask(deps.Executions, deps.Logger),
		NewTimekeepingDailyTask(deps.Companies, deps.Queue, deps.Logger),
		NewHRISAccountCheckTask(deps.Companies, deps.Accounts, deps.Logger),
		cutoff.NewGenerator(deps.Companies, deps.Cutoffs, deps.Ranges, deps.Logger),
	}
	for _, t := range tasks {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}
