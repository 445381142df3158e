package domain

import "context"

// QueueService hands heavy recomputation off to an external worker pool. The
// timekeeping task submits named work items here instead of doing the work
// inline. The service itself lives outside this process.
type QueueService interface {
	// Submit enqueues a named unit of work with a settings payload and
	// returns an opaque handle for it.
	Submit(ctx context.Context, name string, settings map[string]any) (string, error)
}

// AccountProvider exposes the HRIS account linkage read side consumed by the
// account-check task.
type AccountProvider interface {
	CountUnlinked(ctx context.Context, companyID string) (int64, error)
}
