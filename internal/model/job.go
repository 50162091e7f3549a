package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// IdleJob is the pseudo-job name that stands for "on a break" in corrections.
const IdleJob = "__IDLE__"

// StatusActive is the default job status.
const StatusActive = "active"

// Job is a named unit of trackable work with its own clock and history.
type Job struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Status       string              `json:"status"`
	Sessions     []Session           `json:"sessions"`
	IsClockedIn  bool                `json:"isClockedIn"`
	StartTime    *int64              `json:"startTime"`
	LastClockOut *int64              `json:"lastClockOut"`
	TasksByDate  map[string][]string `json:"tasksByDate"`
	// Notes holds the tasks of the saved date on a job summary.
	Notes []string `json:"notes,omitempty"`
	// TotalTime caches the sum of session durations in milliseconds.
	TotalTime *int64 `json:"totalTime,omitempty"`
}

// RefreshTotal recomputes the cached total from the sessions.
func (j *Job) RefreshTotal() {
	j.TotalTime = Int64(SumDurations(j.Sessions))
}

// Total returns the cached total when present, else the session sum.
func (j Job) Total() int64 {
	if j.TotalTime != nil {
		return *j.TotalTime
	}
	return SumDurations(j.Sessions)
}

// Tasks returns the tasks logged on dateKey.
func (j Job) Tasks(dateKey string) []string {
	return j.TasksByDate[dateKey]
}

// Summary returns j stripped of live clock state, with the tasks of dateKey
// copied into Notes and the total recomputed.
func (j Job) Summary(dateKey string) Job {
	out := j.Clone()
	out.IsClockedIn = false
	out.StartTime = nil
	out.Notes = append([]string{}, j.TasksByDate[dateKey]...)
	out.RefreshTotal()
	return out
}

// HasContent reports whether a summary carries sessions or notes.
func (j Job) HasContent() bool {
	return len(j.Sessions) > 0 || len(j.Notes) > 0
}

// Clone returns a deep copy of j.
func (j Job) Clone() Job {
	out := j
	out.Sessions = append([]Session(nil), j.Sessions...)
	if j.TasksByDate != nil {
		out.TasksByDate = make(map[string][]string, len(j.TasksByDate))
		for k, v := range j.TasksByDate {
			out.TasksByDate[k] = append([]string(nil), v...)
		}
	}
	if j.Notes != nil {
		out.Notes = append([]string{}, j.Notes...)
	}
	return out
}

// CanonicalJobName trims surrounding space and applies Unicode NFC so that
// visually identical names compare equal.
func CanonicalJobName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// TrimAt cuts the most recent closed session that contains t so that it
// ends at t. It reports whether a session was trimmed.
func (j *Job) TrimAt(t int64) bool {
	for i := len(j.Sessions) - 1; i >= 0; i-- {
		s := j.Sessions[i]
		if !s.Spans(t) {
			continue
		}
		s.EndTime = Int64(t)
		s.Duration = t - *s.StartTime
		j.Sessions[i] = s
		j.RefreshTotal()
		return true
	}
	return false
}
