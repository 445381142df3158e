package cutoff

import (
	"fmt"
	"time"

	"cronwell/internal/domain"
)

// candidateCount is the size of the forward-looking window generated around
// the anchor date. Three consecutive periods always straddle the anchor.
const candidateCount = 3

// Period is one candidate payroll/billing period. Start and End are inclusive
// date-only bounds at UTC midnight.
type Period struct {
	Start time.Time
	End   time.Time
	Type  domain.PeriodType
}

// Contains reports whether the date-only instant d falls within the period.
func (p Period) Contains(d time.Time) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// DateOnly truncates t to UTC midnight. All period math runs on such values.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CandidatePeriods generates candidateCount consecutive periods anchored at
// the given date-only anchor, such that one of them contains it.
func CandidatePeriods(ct domain.CutoffType, cfg Config, anchor time.Time) ([]Period, error) {
	switch ct {
	case domain.CutoffTypeWeekly:
		return weeklyPeriods(cfg.Weekday, anchor), nil
	case domain.CutoffTypeMonthly:
		return monthlyPeriods(cfg.DayOfMonth, anchor), nil
	case domain.CutoffTypeSemiMonthly:
		return semiMonthlyPeriods(cfg.FirstPeriod, cfg.LastPeriod, anchor), nil
	default:
		return nil, fmt.Errorf("unknown cutoff type %q", ct)
	}
}

// SelectCovering picks the candidate containing the anchor date.
func SelectCovering(periods []Period, anchor time.Time) (Period, bool) {
	for _, p := range periods {
		if p.Contains(anchor) {
			return p, true
		}
	}
	return Period{}, false
}

// daysInMonth returns the number of days in the given month. Day zero of the
// following month normalizes to the last day of this one.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// clampDay resolves a configured 0-31 cutoff day against a concrete month:
// 0 means the last day, and days past the end of the month clamp to it.
func clampDay(year int, month time.Month, day int) int {
	dim := daysInMonth(year, month)
	if day <= 0 || day > dim {
		return dim
	}
	return day
}

// monthAt returns the year/month at a signed month offset from t.
func monthAt(t time.Time, offset int) (int, time.Month) {
	y, m := t.Year(), int(t.Month())-1+offset
	y += m / 12
	m %= 12
	if m < 0 {
		m += 12
		y--
	}
	return y, time.Month(m + 1)
}

// monthEndDate is the cutoff end date within the month at the given offset
// from anchor, with day-of-month clamping applied.
func monthEndDate(anchor time.Time, offset, day int) time.Time {
	y, m := monthAt(anchor, offset)
	return time.Date(y, m, clampDay(y, m, day), 0, 0, 0, 0, time.UTC)
}

// weeklyPeriods builds periods ending on the configured weekday. Each period
// runs from the day after the previous cutoff weekday through the next one,
// inclusive. Classification compares the end's weekday occurrence to the
// first and last occurrence of that weekday in the calendar month.
func weeklyPeriods(wd time.Weekday, anchor time.Time) []Period {
	delta := (int(wd) - int(anchor.Weekday()) + 7) % 7
	firstEnd := anchor.AddDate(0, 0, delta)

	periods := make([]Period, 0, candidateCount)
	for i := 0; i < candidateCount; i++ {
		end := firstEnd.AddDate(0, 0, 7*i)
		periods = append(periods, Period{
			Start: end.AddDate(0, 0, -6),
			End:   end,
			Type:  weeklyPeriodType(end),
		})
	}
	return periods
}

func weeklyPeriodType(end time.Time) domain.PeriodType {
	dim := daysInMonth(end.Year(), end.Month())
	switch {
	case end.Day() <= 7:
		return domain.PeriodTypeFirst
	case end.Day() > dim-7:
		return domain.PeriodTypeLast
	default:
		return domain.PeriodTypeMiddle
	}
}

// monthlyPeriods builds one period per month ending on the configured day.
// The start is the day after the previous month's (clamped) cutoff day, which
// is exactly (end - 1 month) + 1 day with end-of-month clamping. Monthly
// cutoffs have a single period per month, always classified LAST_PERIOD.
func monthlyPeriods(day int, anchor time.Time) []Period {
	periods := make([]Period, 0, candidateCount)
	for offset := -1; offset < candidateCount-1; offset++ {
		end := monthEndDate(anchor, offset, day)
		prevEnd := monthEndDate(anchor, offset-1, day)
		periods = append(periods, Period{
			Start: prevEnd.AddDate(0, 0, 1),
			End:   end,
			Type:  domain.PeriodTypeLast,
		})
	}
	return periods
}

// semiMonthlyPeriods builds two periods per month bounded by the two
// configured cutoff days. A candidate whose (clamped) end day falls after the
// first boundary and at or before the last boundary is the FIRST_PERIOD of
// its month; the other half is LAST_PERIOD.
func semiMonthlyPeriods(first, last int, anchor time.Time) []Period {
	// Boundary dates across three months around the anchor; consecutive
	// boundaries delimit the periods.
	var bounds []time.Time
	for offset := -1; offset <= 1; offset++ {
		b1 := monthEndDate(anchor, offset, first)
		b2 := monthEndDate(anchor, offset, last)
		if b2.Before(b1) {
			b1, b2 = b2, b1
		}
		bounds = append(bounds, b1)
		if !b2.Equal(b1) {
			bounds = append(bounds, b2)
		}
	}

	periods := make([]Period, 0, candidateCount)
	for i := 1; i < len(bounds) && len(periods) < candidateCount; i++ {
		end := bounds[i]
		if end.Before(anchor) {
			continue
		}
		periods = append(periods, Period{
			Start: bounds[i-1].AddDate(0, 0, 1),
			End:   end,
			Type:  semiMonthlyPeriodType(end, first, last),
		})
	}
	return periods
}

func semiMonthlyPeriodType(end time.Time, first, last int) domain.PeriodType {
	firstDay := clampDay(end.Year(), end.Month(), first)
	lastDay := clampDay(end.Year(), end.Month(), last)
	if end.Day() > firstDay && end.Day() <= lastDay {
		return domain.PeriodTypeFirst
	}
	return domain.PeriodTypeLast
}
