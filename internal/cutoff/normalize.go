package cutoff

import (
	"strings"
	"time"
)

// Config is the normalized shape of a cutoff configuration. Day values are
// 0-31 where 0 means "last day of month".
type Config struct {
	// Weekday is the cutoff weekday for WEEKLY cutoffs.
	Weekday time.Weekday
	// DayOfMonth is the cutoff day for MONTHLY cutoffs.
	DayOfMonth int
	// FirstPeriod and LastPeriod are the two boundaries of SEMIMONTHLY cutoffs.
	FirstPeriod int
	LastPeriod  int
}

// Normalize reconciles the inconsistent shapes cutoff configs arrive in from
// the authoring UI and legacy data: "22nd" vs 22, "Last Day" vs 0, {key,label}
// wrappers, and the cutoffDay/dayCutoffPeriod and lastCutoffPeriod/
// lastCutOffPeriod key aliases. It is total: unrecognized shapes become 0 and
// the weekday defaults to Sunday.
func Normalize(raw map[string]any) Config {
	day := pick(raw, "cutoffDay", "dayCutoffPeriod")
	return Config{
		Weekday:     weekdayValue(day),
		DayOfMonth:  dayValue(day),
		FirstPeriod: dayValue(pick(raw, "firstCutoffPeriod", "firstCutOffPeriod")),
		LastPeriod:  dayValue(pick(raw, "lastCutoffPeriod", "lastCutOffPeriod")),
	}
}

// pick returns the first key present in raw.
func pick(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			return v
		}
	}
	return nil
}

// dayValue extracts a 0-31 day number from whatever shape the value arrived
// in. "Last Day", empty and unrecognized values map to 0.
func dayValue(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case int:
		return clampRange(t)
	case int64:
		return clampRange(int(t))
	case float64:
		return clampRange(int(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.EqualFold(s, "last day") {
			return 0
		}
		return clampRange(leadingInt(s))
	case map[string]any:
		// {key: n, label: "..."} wrapper from the authoring UI.
		if inner, ok := t["key"]; ok {
			return dayValue(inner)
		}
		return 0
	default:
		return 0
	}
}

// leadingInt parses the leading digit run of an ordinal like "22nd" or "1st".
func leadingInt(s string) int {
	n, seen := 0, false
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		seen = true
		n = n*10 + int(r-'0')
	}
	if !seen {
		return 0
	}
	return n
}

func clampRange(n int) int {
	if n < 0 {
		return 0
	}
	if n > 31 {
		return 31
	}
	return n
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// weekdayValue extracts a weekday name from the value, unwrapping {key,label}
// objects. Unrecognized values default to Sunday.
func weekdayValue(v any) time.Weekday {
	switch t := v.(type) {
	case string:
		if wd, ok := weekdays[strings.ToLower(strings.TrimSpace(t))]; ok {
			return wd
		}
	case map[string]any:
		if inner, ok := t["key"]; ok {
			return weekdayValue(inner)
		}
		if inner, ok := t["label"]; ok {
			return weekdayValue(inner)
		}
	}
	return time.Sunday
}
