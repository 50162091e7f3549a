package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/Tiliavir/ghosttrack/internal/model"
	"github.com/Tiliavir/ghosttrack/internal/summary"
	"github.com/Tiliavir/ghosttrack/internal/workday"
)

// LogEdit changes a saved log. Nil fields are left alone.
type LogEdit struct {
	// Job selects the job the job-level fields apply to.
	Job    string
	Rename *string
	Notes  *[]string
	// Time replaces the job's sessions with one manual-edit record of
	// this many milliseconds.
	Time *int64
	Idle *int64
}

func (e LogEdit) touchesJob() bool {
	return e.Rename != nil || e.Notes != nil || e.Time != nil
}

// EditLog applies e to the saved log for date, stores the result and
// pushes it to the remote store.
func (t *Tracker) EditLog(ctx context.Context, date string, e LogEdit) (model.DayLog, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	log, err := t.Log(ctx, date)
	if err != nil {
		return model.DayLog{}, err
	}
	log = log.Clone()

	if e.touchesJob() {
		if err := applyJobEdit(&log, e); err != nil {
			return model.DayLog{}, err
		}
	}
	if e.Idle != nil {
		if *e.Idle < 0 {
			return model.DayLog{}, &workday.ValidationError{Field: "idle", Message: "idle time must not be negative"}
		}
		log.IdleTotal = model.Int64(*e.Idle)
		log.TotalIdleTime = nil
	}

	log = model.NormalizeLog(log)
	log.DailySummary = summary.Generate(log)
	if log.ID == "" {
		if log.ID, err = t.local.RemoteLogID(ctx, log.Key()); err != nil {
			return model.DayLog{}, err
		}
	}
	if err := t.local.UpsertLog(ctx, log); err != nil {
		return model.DayLog{}, err
	}
	t.push(log)
	return log, nil
}

func applyJobEdit(log *model.DayLog, e LogEdit) error {
	want := model.CanonicalJobName(e.Job)
	idx := -1
	for i, j := range log.Jobs {
		if model.CanonicalJobName(j.Name) == want {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &workday.ValidationError{Field: "job", Message: fmt.Sprintf("no job named %q in %s", want, log.Key())}
	}
	j := &log.Jobs[idx]

	if e.Rename != nil {
		name := model.CanonicalJobName(*e.Rename)
		if name == "" {
			return &workday.ValidationError{Field: "name", Message: "job name must not be blank"}
		}
		for i, other := range log.Jobs {
			if i != idx && model.CanonicalJobName(other.Name) == name {
				return &workday.ValidationError{Field: "name", Message: fmt.Sprintf("job %q already exists", name)}
			}
		}
		j.Name = name
	}
	if e.Notes != nil {
		notes := make([]string, 0, len(*e.Notes))
		for _, n := range *e.Notes {
			if n = strings.TrimSpace(n); n != "" {
				notes = append(notes, n)
			}
		}
		j.Notes = notes
		if j.TasksByDate == nil {
			j.TasksByDate = map[string][]string{}
		}
		j.TasksByDate[log.Key()] = append([]string{}, notes...)
	}
	if e.Time != nil {
		if *e.Time < 0 {
			return &workday.ValidationError{Field: "time", Message: "job time must not be negative"}
		}
		s := model.NewLegacy(model.SessionManualEdit, *e.Time)
		s.ReasonCode = "history-edit"
		j.Sessions = []model.Session{s}
		j.RefreshTotal()
	}
	return nil
}
