// Package workday holds the live state of one tracked day and every
// operation that mutates it: clocking in and out, idle accrual, retroactive
// corrections and the start/resume/save/cancel lifecycle.
//
// All operations take the current time explicitly and are pure with respect
// to I/O; persistence is the caller's business.
package workday

import (
	"github.com/Tiliavir/ghosttrack/internal/model"
	"github.com/Tiliavir/ghosttrack/internal/summary"
)

// Status is the lifecycle state of today's log.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusResume Status = "resume"
	StatusActive Status = "active"
)

// Day is the active-day state: the job set, the idle accumulator, the
// moment the day was started and the date key it will be saved under.
type Day struct {
	Jobs     []model.Job     `json:"jobs"`
	Idle     model.IdleState `json:"idle"`
	DayStart *int64          `json:"dayStartTime"`
	Date     string          `json:"date"`
}

// Active reports whether a day is in progress.
func (d *Day) Active() bool {
	return d.DayStart != nil || len(d.Jobs) > 0
}

// Status reports the lifecycle state given whether a log is already saved
// for today.
func (d *Day) Status(hasSavedLog bool) Status {
	switch {
	case d.Active():
		return StatusActive
	case hasSavedLog:
		return StatusResume
	default:
		return StatusIdle
	}
}

// Clone returns a deep copy of d.
func (d *Day) Clone() Day {
	out := Day{Idle: d.Idle, DayStart: d.DayStart, Date: d.Date}
	if d.Jobs != nil {
		out.Jobs = make([]model.Job, len(d.Jobs))
		for i, j := range d.Jobs {
			out.Jobs[i] = j.Clone()
		}
	}
	return out
}

// Start begins a fresh day for dateKey at now. The day starts idle.
func (d *Day) Start(dateKey string, now int64) {
	*d = Day{
		Jobs:     []model.Job{},
		Idle:     model.IdleState{IsIdle: true, IdleStartTime: model.Int64(now)},
		DayStart: model.Int64(now),
		Date:     dateKey,
	}
}

// Resume rebuilds the live day from a saved log. Closed sessions are kept,
// nothing is left clocked in, and the day start is backfilled from the
// earliest session when the log lacks one. The day keeps the log's date, so
// tasks and the next save go to that date.
func (d *Day) Resume(log model.DayLog, now int64) {
	date := log.Key()
	jobs := make([]model.Job, 0, len(log.Jobs))
	for _, j := range log.Jobs {
		r := j.Clone()
		r.IsClockedIn = false
		r.StartTime = nil
		r.LastClockOut = nil

		tasks := j.Notes
		if tasks == nil {
			tasks = j.TasksByDate[date]
		}
		if r.TasksByDate == nil {
			r.TasksByDate = map[string][]string{}
		}
		r.TasksByDate[date] = append([]string{}, tasks...)
		r.Notes = nil
		r.RefreshTotal()
		jobs = append(jobs, r)
	}

	idle := model.IdleState{IsIdle: true}
	if total, ok := log.Idle(); ok {
		idle.IdleTotal = total
	}
	if log.IsIdle != nil {
		idle.IsIdle = *log.IsIdle
	}
	if idle.IsIdle {
		idle.IdleStartTime = model.Int64(now)
		if log.IdleStartTime != nil {
			idle.IdleStartTime = model.Int64(*log.IdleStartTime)
		}
	}

	start := now
	if log.DayStartTime != nil {
		start = *log.DayStartTime
	} else if earliest, ok := log.EarliestStart(); ok {
		start = earliest
	}

	*d = Day{Jobs: jobs, Idle: idle, DayStart: model.Int64(start), Date: date}
	d.Reconcile(now)
}

// Cancel discards the live jobs and day start. The idle fields survive when
// a log is already saved for today so a later resume sees them.
func (d *Day) Cancel(hasSavedLog bool) {
	d.Jobs = nil
	d.DayStart = nil
	if !hasSavedLog {
		d.Idle = model.IdleState{}
		d.Date = ""
	}
}

// Key returns the date the day is saved under, today when none is set.
func (d *Day) Key(today string) string {
	if d.Date != "" {
		return d.Date
	}
	return today
}

// BuildLog snapshots the day into a DayLog for dateKey. It never mutates d:
// a running job or an empty day is rejected before anything is built.
func (d *Day) BuildLog(dateKey string, now int64) (model.DayLog, error) {
	if !d.Active() {
		return model.DayLog{}, ErrNoActiveDay
	}
	if d.Running() >= 0 {
		return model.DayLog{}, ErrJobRunning
	}

	idleTotal := d.Idle.Display(now)
	jobs := make([]model.Job, 0, len(d.Jobs))
	for _, j := range d.Jobs {
		s := j.Summary(dateKey)
		if s.HasContent() {
			jobs = append(jobs, s)
		}
	}
	if len(jobs) == 0 && idleTotal == 0 {
		return model.DayLog{}, ErrNothingToSave
	}

	notIdle := false
	log := model.DayLog{
		LogID:         dateKey,
		Date:          dateKey,
		Jobs:          jobs,
		IdleTotal:     model.Int64(idleTotal),
		IsIdle:        &notIdle,
		SchemaVersion: model.SchemaVersion,
	}
	if d.DayStart != nil {
		log.DayStartTime = model.Int64(*d.DayStart)
	}
	log.DailySummary = summary.Generate(log)
	return model.NormalizeLog(log), nil
}

// Clear drops all active-day state after a successful save.
func (d *Day) Clear() {
	*d = Day{}
}
