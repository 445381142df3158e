package cutoff

import (
	"testing"
	"time"

	"cronwell/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// requireCovering selects the candidate containing anchor and asserts one exists.
func requireCovering(t *testing.T, periods []Period, anchor time.Time) Period {
	t.Helper()
	p, ok := SelectCovering(periods, anchor)
	require.True(t, ok, "no candidate period covers %s", anchor.Format("2006-01-02"))
	return p
}

func TestMonthlyClamping(t *testing.T) {
	// A cutoff day of 31 in a 30-day month ends on the last day of that
	// month, not an invalid date.
	anchor := date(2026, time.April, 10)
	p := requireCovering(t, monthlyPeriods(31, anchor), anchor)

	assert.Equal(t, date(2026, time.April, 1), p.Start)
	assert.Equal(t, date(2026, time.April, 30), p.End)
	assert.Equal(t, domain.PeriodTypeLast, p.Type)
}

func TestMonthlyLastDaySentinel(t *testing.T) {
	// 0 means last calendar day; February in a leap year ends on the 29th.
	anchor := date(2024, time.February, 15)
	p := requireCovering(t, monthlyPeriods(0, anchor), anchor)

	assert.Equal(t, date(2024, time.February, 1), p.Start)
	assert.Equal(t, date(2024, time.February, 29), p.End)
}

func TestMonthlyAnchorPastCutoffDay(t *testing.T) {
	// An anchor after its month's cutoff day falls into the next month's period.
	anchor := date(2026, time.July, 20)
	p := requireCovering(t, monthlyPeriods(15, anchor), anchor)

	assert.Equal(t, date(2026, time.July, 16), p.Start)
	assert.Equal(t, date(2026, time.August, 15), p.End)
}

func TestMonthlyPeriodsContiguous(t *testing.T) {
	for _, day := range []int{0, 1, 15, 31} {
		periods := monthlyPeriods(day, date(2026, time.January, 20))
		for i := 1; i < len(periods); i++ {
			assert.Equal(t, periods[i-1].End.AddDate(0, 0, 1), periods[i].Start,
				"day %d: period %d not contiguous", day, i)
			assert.True(t, periods[i-1].End.Before(periods[i].Start),
				"day %d: periods overlap", day)
		}
	}
}

func TestSemiMonthlyClassification(t *testing.T) {
	// firstCutoffPeriod=15, lastCutoffPeriod=0 (last day): the 20th falls in
	// the half ending on the last day, classified FIRST_PERIOD; the 5th falls
	// in the half ending on the 15th, classified LAST_PERIOD.
	anchor := date(2026, time.July, 20)
	p := requireCovering(t, semiMonthlyPeriods(15, 0, anchor), anchor)
	assert.Equal(t, date(2026, time.July, 16), p.Start)
	assert.Equal(t, date(2026, time.July, 31), p.End)
	assert.Equal(t, domain.PeriodTypeFirst, p.Type)

	anchor = date(2026, time.July, 5)
	p = requireCovering(t, semiMonthlyPeriods(15, 0, anchor), anchor)
	assert.Equal(t, date(2026, time.July, 1), p.Start)
	assert.Equal(t, date(2026, time.July, 15), p.End)
	assert.Equal(t, domain.PeriodTypeLast, p.Type)
}

func TestSemiMonthlyFebruaryClamping(t *testing.T) {
	// A 31 boundary clamps to the end of February.
	anchor := date(2026, time.February, 20)
	p := requireCovering(t, semiMonthlyPeriods(15, 31, anchor), anchor)

	assert.Equal(t, date(2026, time.February, 16), p.Start)
	assert.Equal(t, date(2026, time.February, 28), p.End)
}

func TestSemiMonthlyContiguous(t *testing.T) {
	periods := semiMonthlyPeriods(15, 0, date(2026, time.March, 14))
	require.Len(t, periods, 3)
	for i := 1; i < len(periods); i++ {
		assert.Equal(t, periods[i-1].End.AddDate(0, 0, 1), periods[i].Start)
	}
}

func TestWeeklyPeriods(t *testing.T) {
	// Friday cutoff, anchored on a Tuesday: the covering period ends on the
	// coming Friday and spans the previous Saturday through that Friday.
	anchor := date(2026, time.March, 10) // a Tuesday
	periods := weeklyPeriods(time.Friday, anchor)
	require.Len(t, periods, 3)

	p := requireCovering(t, periods, anchor)
	assert.Equal(t, date(2026, time.March, 7), p.Start)
	assert.Equal(t, date(2026, time.March, 13), p.End)
	assert.Equal(t, time.Friday, p.End.Weekday())

	for i := 1; i < len(periods); i++ {
		assert.Equal(t, periods[i-1].End.AddDate(0, 0, 1), periods[i].Start)
	}
}

func TestWeeklyPeriodClassification(t *testing.T) {
	// End on the first Friday of the month -> FIRST_PERIOD, last Friday ->
	// LAST_PERIOD, anything between -> MIDDLE_PERIOD.
	assert.Equal(t, domain.PeriodTypeFirst, weeklyPeriodType(date(2026, time.April, 3)))
	assert.Equal(t, domain.PeriodTypeMiddle, weeklyPeriodType(date(2026, time.April, 10)))
	assert.Equal(t, domain.PeriodTypeLast, weeklyPeriodType(date(2026, time.April, 24)))
}

func TestWeeklyAnchorOnCutoffDay(t *testing.T) {
	// An anchor that is itself the cutoff weekday ends its own period.
	anchor := date(2026, time.March, 13) // a Friday
	p := requireCovering(t, weeklyPeriods(time.Friday, anchor), anchor)
	assert.Equal(t, anchor, p.End)
}

func TestCandidatePeriodsUnknownType(t *testing.T) {
	_, err := CandidatePeriods(domain.CutoffType("FORTNIGHTLY"), Config{}, date(2026, time.March, 1))
	assert.Error(t, err)
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("plus8", 8*3600)
	in := time.Date(2026, time.March, 10, 23, 45, 12, 999, loc)
	assert.Equal(t, date(2026, time.March, 10), DateOnly(in))
}
