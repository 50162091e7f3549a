package model

import (
	"strings"

	"github.com/google/uuid"
)

const unnamedJob = "Unnamed Job"

// NewSessionID returns a fresh session identifier.
func NewSessionID() string { return "session-" + uuid.NewString() }

// NewJobID returns a fresh job identifier.
func NewJobID() string { return "job-" + uuid.NewString() }

// NewLogID returns a fresh remote log identifier.
func NewLogID() string { return "log-" + uuid.NewString() }

// NormalizeSession fills defaults on a session read from any source.
// Duration-only records keep their duration untouched.
func NormalizeSession(s Session) Session {
	if s.ID == "" {
		s.ID = NewSessionID()
	}
	if s.Type == "" {
		s.Type = SessionWork
	}
	if s.Duration == 0 && s.Closed() {
		s.Duration = *s.EndTime - *s.StartTime
	}
	return s
}

// NormalizeJob normalizes sessions and fills missing job fields. An explicit
// TotalTime is kept as an override; otherwise it is derived from sessions.
func NormalizeJob(j Job) Job {
	if j.ID == "" {
		j.ID = NewJobID()
	}
	if strings.TrimSpace(j.Name) == "" {
		j.Name = unnamedJob
	}
	if j.Status == "" {
		j.Status = StatusActive
	}

	sessions := make([]Session, len(j.Sessions))
	for i, s := range j.Sessions {
		sessions[i] = NormalizeSession(s)
	}
	j.Sessions = sessions

	if j.TotalTime == nil {
		j.RefreshTotal()
	}
	if j.TasksByDate == nil {
		j.TasksByDate = map[string][]string{}
	}
	// A running job must know when it started.
	if j.IsClockedIn && j.StartTime == nil {
		j.IsClockedIn = false
	}
	return j
}

// NormalizeJobs normalizes every job in order.
func NormalizeJobs(jobs []Job) []Job {
	out := make([]Job, len(jobs))
	for i, j := range jobs {
		out[i] = NormalizeJob(j)
	}
	return out
}

// NormalizeLog stamps the schema version, normalizes jobs and resolves the
// legacy date and idle aliases.
func NormalizeLog(l DayLog) DayLog {
	if l.SchemaVersion == 0 {
		l.SchemaVersion = SchemaVersion
	}
	if l.Date == "" {
		l.Date = l.LogID
	}
	l.Jobs = NormalizeJobs(l.Jobs)

	idle, _ := l.Idle()
	l.IdleTotal = Int64(idle)
	l.TotalIdleTime = nil
	return l
}
