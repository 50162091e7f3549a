package workday

import "github.com/Tiliavir/ghosttrack/internal/model"

// Correction reassigns time from one job (or idle) to another starting at At.
// Either side may be model.IdleJob.
type Correction struct {
	From string
	To   string
	At   int64
}

// Correct applies c retroactively. The result is computed on a copy and
// committed only if every step succeeds, so a rejected correction leaves d
// unchanged. At is clamped to now.
func (d *Day) Correct(c Correction, now int64) error {
	if !d.Active() {
		return ErrNoActiveDay
	}
	from, to := model.CanonicalJobName(c.From), model.CanonicalJobName(c.To)
	if from == "" || to == "" || c.At <= 0 {
		return invalid("correction", "from, to and time are all required")
	}
	if from == to {
		return invalid("correction", "source and target must differ")
	}
	fromIdx, err := d.resolveTarget("from", from)
	if err != nil {
		return err
	}
	toIdx, err := d.resolveTarget("to", to)
	if err != nil {
		return err
	}
	at := min(c.At, now)

	next := d.Clone()

	// Source side. Idle as a source is settled by the idle arithmetic below.
	if fromIdx >= 0 {
		if next.Jobs[fromIdx].IsClockedIn {
			next.closeSession(fromIdx, at)
		} else {
			next.Jobs[fromIdx].TrimAt(at)
		}
	}

	if toIdx < 0 {
		for k := range next.Jobs {
			next.closeSession(k, at)
		}
		start := at
		if d.Idle.IsIdle && d.Idle.IdleStartTime != nil && *d.Idle.IdleStartTime < at {
			start = *d.Idle.IdleStartTime
		}
		// Closed idle inside [start, now) is about to be covered by the
		// reopened interval.
		banked := max(0, d.idleWithin(start, now)-d.Idle.Open(now))
		next.Idle = model.IdleState{
			IsIdle:        true,
			IdleStartTime: model.Int64(start),
			IdleTotal:     max(0, d.Idle.IdleTotal-banked),
		}
	} else {
		next.Idle = model.IdleState{
			IdleTotal: max(0, d.Idle.Display(now)-d.idleWithin(at, now)),
		}
		for k := range next.Jobs {
			if k != toIdx {
				next.closeSession(k, at)
			}
		}
		t := &next.Jobs[toIdx]
		if t.IsClockedIn && t.StartTime != nil {
			if at < *t.StartTime {
				t.StartTime = model.Int64(at)
			}
		} else {
			t.IsClockedIn = true
			t.StartTime = model.Int64(at)
		}
	}

	next.Reconcile(now)
	*d = next
	return nil
}

func (d *Day) resolveTarget(field, name string) (int, error) {
	if name == model.IdleJob {
		return -1, nil
	}
	i := d.FindJob(name)
	if i < 0 {
		return -1, invalid(field, "no job named %q", name)
	}
	return i, nil
}
