package hos

import (
	"time"

	"trucklog/internal/domain"
)

// CycleBaseline stands in for on-duty hours reported outside the stored logs.
// The hours are attributed to Date; stored logs on or before Date are ignored
// by the cycle calculator.
type CycleBaseline struct {
	Hours float64
	Date  time.Time
}

// History is an immutable set of a driver's daily logs keyed by calendar date.
type History struct {
	logs     map[string]*domain.DailyLog
	baseline *CycleBaseline
}

// NewHistory indexes logs by date. Later logs for the same date win.
func NewHistory(logs ...*domain.DailyLog) History {
	h := History{logs: make(map[string]*domain.DailyLog, len(logs))}
	for _, l := range logs {
		if l != nil {
			h.logs[l.Key()] = l
		}
	}
	return h
}

// Get returns the log for the calendar date of t, or nil.
func (h History) Get(t time.Time) *domain.DailyLog {
	return h.logs[domain.DateKey(t)]
}

// Previous returns the log for the day before the given log's date.
func (h History) Previous(log *domain.DailyLog) *domain.DailyLog {
	return h.Get(log.LogDate.AddDate(0, 0, -1))
}

// With returns a copy of the history with log overlaid on its date.
func (h History) With(log *domain.DailyLog) History {
	out := h.clone()
	out.logs[log.Key()] = log
	return out
}

// WithBaseline returns a copy of the history carrying b.
func (h History) WithBaseline(b CycleBaseline) History {
	out := h.clone()
	out.baseline = &b
	return out
}

func (h History) clone() History {
	out := History{logs: make(map[string]*domain.DailyLog, len(h.logs)+1), baseline: h.baseline}
	for k, v := range h.logs {
		out.logs[k] = v
	}
	return out
}

// Baseline returns the cycle baseline, if any.
func (h History) Baseline() (CycleBaseline, bool) {
	if h.baseline == nil {
		return CycleBaseline{}, false
	}
	return *h.baseline, true
}

// Len returns the number of stored days.
func (h History) Len() int {
	return len(h.logs)
}
