package model

import (
	"bytes"
	"encoding/json"
)

// SessionType distinguishes work time from idle time and hand-edited records.
type SessionType string

const (
	SessionWork       SessionType = "work"
	SessionIdle       SessionType = "idle"
	SessionManualEdit SessionType = "manual-edit"
)

// Session is one span of tracked time. A session without timestamps is a
// legacy duration-only record: its Duration is authoritative and it has no
// interval semantics.
type Session struct {
	ID         string      `json:"id"`
	Type       SessionType `json:"type"`
	ReasonCode string      `json:"reasonCode"`
	StartTime  *int64      `json:"startTime"`
	EndTime    *int64      `json:"endTime"`
	Duration   int64       `json:"duration"`
}

// NewInterval returns a closed work session covering [start, end].
func NewInterval(start, end int64) Session {
	return Session{
		ID:        NewSessionID(),
		Type:      SessionWork,
		StartTime: Int64(start),
		EndTime:   Int64(end),
		Duration:  end - start,
	}
}

// NewLegacy returns a duration-only session.
func NewLegacy(typ SessionType, duration int64) Session {
	return Session{ID: NewSessionID(), Type: typ, Duration: duration}
}

// Legacy reports whether s is a duration-only record.
func (s Session) Legacy() bool {
	return s.StartTime == nil && s.EndTime == nil
}

// Closed reports whether both ends of the interval are set.
func (s Session) Closed() bool {
	return s.StartTime != nil && s.EndTime != nil
}

// Spans reports whether t falls inside (startTime, endTime].
func (s Session) Spans(t int64) bool {
	return s.Closed() && *s.StartTime < t && t <= *s.EndTime
}

// UnmarshalJSON accepts the structured form as well as the bare millisecond
// numbers that older clients stored in a job's sessions array.
func (s *Session) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9')) {
		var ms float64
		if err := json.Unmarshal(trimmed, &ms); err != nil {
			return err
		}
		*s = Session{Type: SessionWork, Duration: int64(ms)}
		return nil
	}

	type plain Session
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*s = Session(p)
	return nil
}

// SumDurations adds up the durations of sessions.
func SumDurations(sessions []Session) int64 {
	var total int64
	for _, s := range sessions {
		total += s.Duration
	}
	return total
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}
