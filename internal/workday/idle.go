package workday

import "github.com/Tiliavir/ghosttrack/internal/model"

// Reconcile brings the idle state in line with the clock state at now: idle
// opens when nothing runs and closes into the total when something does.
// It is idempotent and must run after every mutation and on every tick.
func (d *Day) Reconcile(now int64) {
	if !d.Active() {
		return
	}
	running := d.Running() >= 0
	switch {
	case !running && !d.Idle.IsIdle && len(d.Jobs) > 0:
		d.Idle.IsIdle = true
		d.Idle.IdleStartTime = model.Int64(now)
	case running && d.Idle.IsIdle:
		d.Idle.IdleTotal += d.Idle.Open(now)
		d.Idle.IsIdle = false
		d.Idle.IdleStartTime = nil
	}
}

// IdleDisplay is the idle time shown at now, open interval included.
func (d *Day) IdleDisplay(now int64) int64 {
	return d.Idle.Display(now)
}

// idleWithin estimates the idle time already accounted for inside
// [from, now): the part of the window not covered by any work, bounded by
// the day start and by the idle actually recorded.
func (d *Day) idleWithin(from, now int64) int64 {
	if d.DayStart != nil && from < *d.DayStart {
		from = *d.DayStart
	}
	if from >= now {
		return 0
	}
	idle := (now - from) - workWithin(d.Jobs, from, now)
	if idle <= 0 {
		return 0
	}
	return min(idle, d.Idle.Display(now))
}
