package workday

import "github.com/Tiliavir/ghosttrack/internal/model"

// Running returns the index of the clocked-in job, or -1.
func (d *Day) Running() int {
	for i, j := range d.Jobs {
		if j.IsClockedIn {
			return i
		}
	}
	return -1
}

// RunningCount returns how many jobs are clocked in.
func (d *Day) RunningCount() int {
	n := 0
	for _, j := range d.Jobs {
		if j.IsClockedIn {
			n++
		}
	}
	return n
}

// Elapsed returns the job's closed total plus its open span at now.
func (d *Day) Elapsed(i int, now int64) int64 {
	j := d.Jobs[i]
	total := j.Total()
	if j.IsClockedIn && j.StartTime != nil && now > *j.StartTime {
		total += now - *j.StartTime
	}
	return total
}

// ClockIn starts job i, closing whichever other job was running at now.
// Clocking in a job that is already running changes nothing.
func (d *Day) ClockIn(i int, now int64) error {
	if err := d.checkJob(i); err != nil {
		return err
	}
	if !d.Jobs[i].IsClockedIn {
		for k := range d.Jobs {
			if k != i {
				d.closeSession(k, now)
			}
		}
		d.Jobs[i].IsClockedIn = true
		d.Jobs[i].StartTime = model.Int64(now)
	}
	d.Reconcile(now)
	return nil
}

// ClockOut stops job i at now. It reports whether the job was running.
func (d *Day) ClockOut(i int, now int64) (bool, error) {
	if err := d.checkJob(i); err != nil {
		return false, err
	}
	stopped := d.closeSession(i, now)
	d.Reconcile(now)
	return stopped, nil
}

// TakeBreak clocks out every running job and returns how many were stopped.
func (d *Day) TakeBreak(now int64) (int, error) {
	if !d.Active() {
		return 0, ErrNoActiveDay
	}
	n := 0
	for k := range d.Jobs {
		if d.closeSession(k, now) {
			n++
		}
	}
	d.Reconcile(now)
	return n, nil
}

// closeSession ends the open span of job i at at. A span that would not
// have positive length is discarded instead of recorded.
func (d *Day) closeSession(i int, at int64) bool {
	j := &d.Jobs[i]
	if !j.IsClockedIn {
		return false
	}
	if j.StartTime != nil && *j.StartTime < at {
		j.Sessions = append(j.Sessions, model.NewInterval(*j.StartTime, at))
		j.LastClockOut = model.Int64(at)
	}
	j.IsClockedIn = false
	j.StartTime = nil
	j.RefreshTotal()
	return true
}

func (d *Day) checkJob(i int) error {
	if !d.Active() {
		return ErrNoActiveDay
	}
	if i < 0 || i >= len(d.Jobs) {
		return invalid("job", "no job at position %d", i)
	}
	return nil
}
