// Package tracker is the session store: it owns the live day, serializes
// every operation on it and performs all persistence side effects.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Tiliavir/ghosttrack/internal/model"
	"github.com/Tiliavir/ghosttrack/internal/outbox"
	"github.com/Tiliavir/ghosttrack/internal/remote"
	"github.com/Tiliavir/ghosttrack/internal/storage"
	"github.com/Tiliavir/ghosttrack/internal/timecalc"
	"github.com/Tiliavir/ghosttrack/internal/workday"
)

const (
	defaultTick = time.Second
	pushTimeout = 30 * time.Second
)

// Remote is the part of the sync API the tracker uses.
type Remote interface {
	PostLog(ctx context.Context, log model.DayLog) error
	GetLog(ctx context.Context, date string) (model.DayLog, error)
	ListAll(ctx context.Context, pageSize int) ([]model.DayLog, error)
}

// Options configures a Tracker. Remote and Outbox may be nil to run
// without sync.
type Options struct {
	Local        *storage.Local
	Remote       Remote
	Outbox       *outbox.Outbox
	Logger       *slog.Logger
	Now          func() time.Time
	TickInterval time.Duration
}

// Tracker owns one day of tracking.
type Tracker struct {
	mu  sync.Mutex
	day workday.Day

	local  *storage.Local
	remote Remote
	outbox *outbox.Outbox
	log    *slog.Logger
	now    func() time.Time
	tick   time.Duration

	// pushes tracks in-flight remote saves.
	pushes sync.WaitGroup
}

// New loads the live day from opts.Local and reconciles it with the clock.
func New(ctx context.Context, opts Options) (*Tracker, error) {
	t := &Tracker{
		local:  opts.Local,
		remote: opts.Remote,
		outbox: opts.Outbox,
		log:    opts.Logger,
		now:    opts.Now,
		tick:   opts.TickInterval,
	}
	if t.log == nil {
		t.log = slog.Default()
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.tick <= 0 {
		t.tick = defaultTick
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.reload(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// reload reads the stored day and persists the idle fields if the idle
// transition changed them. Callers hold mu.
func (t *Tracker) reload(ctx context.Context) error {
	day, err := t.local.LoadDay(ctx)
	if err != nil {
		return err
	}
	before := day.Idle
	day.Reconcile(t.nowMs())
	if !sameIdle(before, day.Idle) {
		if err := t.local.SaveIdle(ctx, day.Idle); err != nil {
			return err
		}
	}
	t.day = day
	return nil
}

func sameIdle(a, b model.IdleState) bool {
	if a.IsIdle != b.IsIdle || a.IdleTotal != b.IdleTotal {
		return false
	}
	if a.IdleStartTime == nil || b.IdleStartTime == nil {
		return a.IdleStartTime == b.IdleStartTime
	}
	return *a.IdleStartTime == *b.IdleStartTime
}

func (t *Tracker) nowMs() int64 { return t.now().UnixMilli() }

func (t *Tracker) today() string { return timecalc.DateKey(t.now()) }

// mutate applies fn to a copy of the day and commits the copy only after
// it has been persisted.
func (t *Tracker) mutate(ctx context.Context, fn func(d *workday.Day, now int64) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.nowMs()
	next := t.day.Clone()
	next.Reconcile(now)
	if err := fn(&next, now); err != nil {
		return err
	}
	if err := t.local.SaveDay(ctx, next); err != nil {
		return err
	}
	t.day = next
	return nil
}

// Snapshot is a read-only view of the day at one instant.
type Snapshot struct {
	Date   string
	Now    int64
	Status workday.Status
	Day    workday.Day
}

// Snapshot returns a copy of the live day. Date is the day being worked
// on, which differs from today after resuming an earlier date.
func (t *Tracker) Snapshot(ctx context.Context) (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	date := t.day.Key(t.today())
	_, saved, err := t.local.Log(ctx, date)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Date:   date,
		Now:    t.nowMs(),
		Status: t.day.Status(saved),
		Day:    t.day.Clone(),
	}, nil
}

// Start begins a fresh day.
func (t *Tracker) Start(ctx context.Context) error {
	return t.mutate(ctx, func(d *workday.Day, now int64) error {
		if d.Active() {
			return workday.ErrDayActive
		}
		d.Start(t.today(), now)
		return nil
	})
}

// AddJob adds a job to the day.
func (t *Tracker) AddJob(ctx context.Context, name string) error {
	return t.mutate(ctx, func(d *workday.Day, now int64) error {
		return d.AddJob(name, now)
	})
}

// DeleteJob removes a job and its history from the day.
func (t *Tracker) DeleteJob(ctx context.Context, name string) error {
	return t.mutate(ctx, func(d *workday.Day, now int64) error {
		i, err := d.Lookup(name)
		if err != nil {
			return err
		}
		return d.DeleteJob(i, now)
	})
}

// ClockIn starts the named job.
func (t *Tracker) ClockIn(ctx context.Context, name string) error {
	return t.mutate(ctx, func(d *workday.Day, now int64) error {
		if !d.Active() {
			return workday.ErrNoActiveDay
		}
		i, err := d.Lookup(name)
		if err != nil {
			return err
		}
		return d.ClockIn(i, now)
	})
}

// ClockOut stops the named job and reports whether it was running.
func (t *Tracker) ClockOut(ctx context.Context, name string) (bool, error) {
	var stopped bool
	err := t.mutate(ctx, func(d *workday.Day, now int64) error {
		if !d.Active() {
			return workday.ErrNoActiveDay
		}
		i, err := d.Lookup(name)
		if err != nil {
			return err
		}
		stopped, err = d.ClockOut(i, now)
		return err
	})
	return stopped, err
}

// TakeBreak stops every running job and returns how many were stopped.
func (t *Tracker) TakeBreak(ctx context.Context) (int, error) {
	var n int
	err := t.mutate(ctx, func(d *workday.Day, now int64) error {
		var err error
		n, err = d.TakeBreak(now)
		return err
	})
	return n, err
}

// AddTask records a task on the named job for the day being worked on.
func (t *Tracker) AddTask(ctx context.Context, name, task string) error {
	today := t.today()
	return t.mutate(ctx, func(d *workday.Day, _ int64) error {
		if !d.Active() {
			return workday.ErrNoActiveDay
		}
		i, err := d.Lookup(name)
		if err != nil {
			return err
		}
		return d.AddTask(i, d.Key(today), task)
	})
}

// DeleteSession removes session n (zero-based) of the named job.
func (t *Tracker) DeleteSession(ctx context.Context, name string, n int) error {
	return t.mutate(ctx, func(d *workday.Day, now int64) error {
		if !d.Active() {
			return workday.ErrNoActiveDay
		}
		i, err := d.Lookup(name)
		if err != nil {
			return err
		}
		return d.DeleteSession(i, n, now)
	})
}

// Correct applies a retroactive correction.
func (t *Tracker) Correct(ctx context.Context, c workday.Correction) error {
	return t.mutate(ctx, func(d *workday.Day, now int64) error {
		return d.Correct(c, now)
	})
}

// Cancel discards the live day without saving it.
func (t *Tracker) Cancel(ctx context.Context) error {
	today := t.today()
	return t.mutate(ctx, func(d *workday.Day, _ int64) error {
		if !d.Active() {
			return workday.ErrNoActiveDay
		}
		_, saved, err := t.local.Log(ctx, d.Key(today))
		if err != nil {
			return err
		}
		d.Cancel(saved)
		return nil
	})
}

// Save builds the log of the day being worked on, stores it and clears the
// live day in one write, then pushes the log to the remote store in the
// background. A failed build leaves everything untouched.
func (t *Tracker) Save(ctx context.Context) (model.DayLog, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.nowMs()
	date := t.day.Key(t.today())
	day := t.day.Clone()
	day.Reconcile(now)

	log, err := day.BuildLog(date, now)
	if err != nil {
		return model.DayLog{}, err
	}
	if log.ID, err = t.local.RemoteLogID(ctx, date); err != nil {
		return model.DayLog{}, err
	}
	var cleared workday.Day
	if err := t.local.RecordSave(ctx, log, cleared); err != nil {
		return model.DayLog{}, err
	}
	t.day = cleared

	t.push(log)
	return log, nil
}

// Resume reopens the saved log for date: local first, then remote, then
// the last-saved cache.
func (t *Tracker) Resume(ctx context.Context, date string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.day.Active() {
		return workday.ErrDayActive
	}
	log, err := t.findLog(ctx, date)
	if err != nil {
		return err
	}

	var next workday.Day
	next.Resume(log, t.nowMs())
	if err := t.local.SaveDay(ctx, next); err != nil {
		return err
	}
	t.day = next
	return nil
}

func (t *Tracker) findLog(ctx context.Context, date string) (model.DayLog, error) {
	if log, ok, err := t.local.Log(ctx, date); err != nil {
		return model.DayLog{}, err
	} else if ok {
		return log, nil
	}

	if t.remote != nil {
		log, err := t.remote.GetLog(ctx, date)
		switch {
		case err == nil:
			return log, nil
		case remote.IsNotFound(err):
		default:
			t.log.Warn("remote log lookup failed", "date", date, "err", err)
		}
	}

	if last, ok, err := t.local.LastSaved(ctx); err != nil {
		return model.DayLog{}, err
	} else if ok && last.Key() == date {
		return last, nil
	}
	return model.DayLog{}, fmt.Errorf("%w for %s", workday.ErrNoSavedLog, date)
}

// push sends log to the remote store without blocking the caller. Transient
// failures go to the outbox; rejections are logged and dropped.
func (t *Tracker) push(log model.DayLog) {
	if t.remote == nil {
		return
	}
	t.pushes.Add(1)
	go func() {
		defer t.pushes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()

		err := t.remote.PostLog(ctx, log)
		switch {
		case err == nil:
			t.log.Debug("pushed day log", "date", log.Date, "id", log.ID)
		case remote.IsPermanent(err):
			t.log.Warn("remote rejected day log", "date", log.Date, "err", err)
		default:
			t.log.Info("remote save failed, queued for retry", "date", log.Date, "err", err)
			t.enqueue(log)
		}
	}()
}

func (t *Tracker) enqueue(log model.DayLog) {
	if t.outbox == nil {
		return
	}
	payload, err := json.Marshal(log)
	if err != nil {
		t.log.Error("encoding day log for outbox", "date", log.Date, "err", err)
		return
	}
	if err := t.outbox.Enqueue(context.Background(), log.ID, payload); err != nil {
		t.log.Error("queueing day log", "date", log.Date, "err", err)
	}
}

// Close waits for background pushes to finish.
func (t *Tracker) Close() {
	t.pushes.Wait()
}

// Tick reloads the stored day and applies the idle transition. It never
// writes session history, only the idle fields.
func (t *Tracker) Tick(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reload(ctx)
}

// Run ticks until ctx is cancelled. Each tick rereads the store so that
// commands run from other processes are picked up.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := t.Tick(ctx); err != nil {
				t.log.Warn("tick failed", "err", err)
			}
		}
	}
}

// Logs returns the saved logs, newest first.
func (t *Tracker) Logs(ctx context.Context) ([]model.DayLog, error) {
	logs, err := t.local.Logs(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(logs, func(a, b int) bool { return logs[a].Key() > logs[b].Key() })
	return logs, nil
}

// Log returns the saved log for date.
func (t *Tracker) Log(ctx context.Context, date string) (model.DayLog, error) {
	log, ok, err := t.local.Log(ctx, date)
	if err != nil {
		return model.DayLog{}, err
	}
	if !ok {
		return model.DayLog{}, fmt.Errorf("%w for %s", workday.ErrNoSavedLog, date)
	}
	return log, nil
}

// RemoteLogs lists every log held by the remote store, newest first.
func (t *Tracker) RemoteLogs(ctx context.Context, pageSize int) ([]model.DayLog, error) {
	if t.remote == nil {
		return nil, fmt.Errorf("no remote store configured")
	}
	return t.remote.ListAll(ctx, pageSize)
}

// DeleteLog removes the saved log for date from the local store.
func (t *Tracker) DeleteLog(ctx context.Context, date string) error {
	removed, err := t.local.DeleteLog(ctx, date)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w for %s", workday.ErrNoSavedLog, date)
	}
	return nil
}

// ClearLogs removes every saved log from the local store.
func (t *Tracker) ClearLogs(ctx context.Context) error {
	return t.local.ClearLogs(ctx)
}
