package cronexpr

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"cronwell/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRunAfter(t *testing.T) {
	from := time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		expr string
		want time.Time
	}{
		{"daily midnight", "0 0 * * *", time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC)},
		{"every five minutes", "*/5 * * * *", time.Date(2026, time.March, 10, 15, 35, 0, 0, time.UTC)},
		{"first of month", "0 6 1 * *", time.Date(2026, time.April, 1, 6, 0, 0, 0, time.UTC)},
		{"monday morning", "30 8 * * 1", time.Date(2026, time.March, 16, 8, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextRunAfter(tt.expr, from)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextRunAfterInvalid(t *testing.T) {
	for _, expr := range []string{"", "not a cron", "61 * * * *", "* * * *", "0 0 * * * *"} {
		_, err := NextRunAfter(expr, time.Now())
		assert.ErrorIs(t, err, domain.ErrInvalidCronExpression, "expr %q", expr)
	}
}

func TestNextRunOrFallback(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	from := time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)

	next := NextRunOrFallback("garbage", from, logger)
	assert.Equal(t, from.Add(time.Hour), next)

	next = NextRunOrFallback("0 0 * * *", from, logger)
	assert.Equal(t, time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC), next)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("*/10 2 * * 0"))
	assert.ErrorIs(t, Validate("nope"), domain.ErrInvalidCronExpression)
}
