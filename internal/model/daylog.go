package model

import "encoding/json"

// SchemaVersion is stamped on every normalized DayLog.
const SchemaVersion = 1

// DayLog is the persisted record of one calendar day, keyed by Date.
type DayLog struct {
	// ID is the stable per-date identifier used for remote upserts.
	ID    string `json:"id,omitempty"`
	LogID string `json:"logId,omitempty"`
	Date  string `json:"date"`
	Jobs  []Job  `json:"jobs"`

	IdleTotal *int64 `json:"idleTotal"`
	// TotalIdleTime is the legacy name of IdleTotal.
	TotalIdleTime *int64 `json:"totalIdleTime,omitempty"`
	IdleStartTime *int64 `json:"idleStartTime,omitempty"`
	IsIdle        *bool  `json:"isIdle,omitempty"`

	DayStartTime  *int64 `json:"dayStartTime"`
	DailySummary  string `json:"dailySummary"`
	SchemaVersion int    `json:"schemaVersion"`
}

// Key returns the date the log is stored under.
func (l DayLog) Key() string {
	if l.Date != "" {
		return l.Date
	}
	return l.LogID
}

// Idle returns the idle total, preferring totalIdleTime over idleTotal as
// logs written by older clients do.
func (l DayLog) Idle() (int64, bool) {
	switch {
	case l.TotalIdleTime != nil:
		return *l.TotalIdleTime, true
	case l.IdleTotal != nil:
		return *l.IdleTotal, true
	}
	return 0, false
}

// EarliestStart returns the earliest interval-session start across all jobs.
func (l DayLog) EarliestStart() (int64, bool) {
	var earliest int64
	found := false
	for _, j := range l.Jobs {
		for _, s := range j.Sessions {
			if s.StartTime == nil || *s.StartTime == 0 {
				continue
			}
			if !found || *s.StartTime < earliest {
				earliest = *s.StartTime
				found = true
			}
		}
	}
	return earliest, found
}

// Clone returns a deep copy of l.
func (l DayLog) Clone() DayLog {
	out := l
	if l.Jobs != nil {
		out.Jobs = make([]Job, len(l.Jobs))
		for i, j := range l.Jobs {
			out.Jobs[i] = j.Clone()
		}
	}
	return out
}

// OutboxType is the only outbox item type: a day log awaiting upload.
const OutboxType = "POST_LOG"

// OutboxItem is a queued remote write. Payload is the request body.
type OutboxItem struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	TS      int64           `json:"ts"`
}
