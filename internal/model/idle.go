package model

// IdleState tracks time during which no job is clocked in. IdleTotal only
// ever holds closed intervals; the open one is added on the way out.
type IdleState struct {
	IsIdle        bool   `json:"isIdle"`
	IdleStartTime *int64 `json:"idleStartTime"`
	IdleTotal     int64  `json:"idleTotal"`
}

// Open returns the length of the open idle interval at now, or 0.
func (s IdleState) Open(now int64) int64 {
	if !s.IsIdle || s.IdleStartTime == nil || now < *s.IdleStartTime {
		return 0
	}
	return now - *s.IdleStartTime
}

// Display is the idle total shown to the user, open interval included.
func (s IdleState) Display(now int64) int64 {
	return s.IdleTotal + s.Open(now)
}
