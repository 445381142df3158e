// Package cronexpr computes next-run instants from 5-field cron expressions.
// It is a pure wrapper over the robfig/cron parser: no side effects, no I/O.
package cronexpr

import (
	"fmt"
	"log/slog"
	"time"

	"cronwell/internal/domain"

	"github.com/robfig/cron/v3"
)

// FallbackInterval is used when an expression cannot be parsed: rather than
// abort, callers schedule the next attempt one hour out.
const FallbackInterval = time.Hour

// Standard 5-field cron (minute hour dom month dow) with the usual descriptors.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NextRunAfter computes the next future instant matching expr, strictly after
// from. It returns domain.ErrInvalidCronExpression if expr cannot be parsed.
func NextRunAfter(expr string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", domain.ErrInvalidCronExpression, expr, err)
	}
	return sched.Next(from), nil
}

// NextRunOrFallback is NextRunAfter with the documented recovery: an invalid
// expression yields from+1h instead of an error, logged so the bad expression
// is visible.
func NextRunOrFallback(expr string, from time.Time, logger *slog.Logger) time.Time {
	next, err := NextRunAfter(expr, from)
	if err != nil {
		logger.Warn("invalid cron expression, falling back to +1h", "cron", expr, "error", err)
		return from.Add(FallbackInterval)
	}
	return next
}

// Validate reports whether expr is a parseable 5-field cron expression.
func Validate(expr string) error {
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("%w: %q: %v", domain.ErrInvalidCronExpression, expr, err)
	}
	return nil
}
