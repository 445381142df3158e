package cutoff

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Phase labels the steps of one generator run in its structured output.
type Phase string

const (
	PhaseInitialization        Phase = "INITIALIZATION"
	PhaseCompaniesFound        Phase = "COMPANIES_FOUND"
	PhaseProcessCompany        Phase = "PROCESS_COMPANY"
	PhaseCutoffsFound          Phase = "CUTOFFS_FOUND"
	PhaseCutoffTomorrowCovered Phase = "CUTOFF_TOMORROW_COVERED"
	PhaseDateGenerationError   Phase = "DATE_GENERATION_ERROR"
	PhaseCreatedRange          Phase = "CREATED_RANGE"
	PhaseRangeExists           Phase = "RANGE_EXISTS"
	PhaseCutoffError           Phase = "CUTOFF_ERROR"
	PhaseCompanyComplete       Phase = "COMPANY_COMPLETE"
	PhaseCompanyError          Phase = "COMPANY_ERROR"
	PhaseComplete              Phase = "COMPLETE"
)

type logEntry struct {
	Phase   Phase          `json:"phase"`
	Message string         `json:"message"`
	Detail  map[string]any `json:"detail,omitempty"`
}

// runLog accumulates the structured execution log a generator run returns as
// its textual task output, one JSON object per line.
type runLog struct {
	entries []logEntry
}

func (l *runLog) add(phase Phase, format string, args ...any) {
	l.entries = append(l.entries, logEntry{Phase: phase, Message: fmt.Sprintf(format, args...)})
}

func (l *runLog) addDetail(phase Phase, detail map[string]any, format string, args ...any) {
	l.entries = append(l.entries, logEntry{Phase: phase, Message: fmt.Sprintf(format, args...), Detail: detail})
}

func (l *runLog) String() string {
	var b strings.Builder
	for _, e := range l.entries {
		line, err := json.Marshal(e)
		if err != nil {
			continue
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	return b.String()
}
