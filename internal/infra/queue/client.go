// Package queue holds the client for the external work-submission service.
package queue

import (
	"context"
	"log/slog"

	"cronwell/internal/domain"

	"github.com/google/uuid"
)

// LoggingClient is the default in-process stand-in for the external queue
// service: it accepts every submission, logs it and returns a handle. Wiring
// a real transport in is a deployment concern, not a scheduler one.
type LoggingClient struct {
	logger *slog.Logger
}

// NewLoggingClient creates the stand-in client.
func NewLoggingClient(logger *slog.Logger) domain.QueueService {
	return &LoggingClient{logger: logger.With("component", "queue-client")}
}

// Submit accepts a named unit of work and returns a fresh handle for it.
func (c *LoggingClient) Submit(ctx context.Context, name string, settings map[string]any) (string, error) {
	handle := uuid.New().String()
	c.logger.Info("accepted work submission", "work_name", name, "handle", handle, "settings", settings)
	return handle, nil
}
