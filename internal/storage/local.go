package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Tiliavir/ghosttrack/internal/model"
	"github.com/Tiliavir/ghosttrack/internal/workday"
)

// Well-known keys.
const (
	KeyLiveJobs      = "liveJobs"
	KeyDayStartTime  = "dayStartTime"
	KeyDayDate       = "dayDate"
	KeyIdleStartTime = "idleStartTime"
	KeyIdleTotal     = "idleTotal"
	KeyIsIdle        = "isIdle"
	KeyLogs          = "logs"
	KeyLastSaved     = "lastSaved"
	KeyOutbox        = "outbox"

	remoteLogIDPrefix = "remoteLogId:"
)

// RemoteLogIDKey is the key holding the stable remote id for date.
func RemoteLogIDKey(date string) string { return remoteLogIDPrefix + date }

// Local is typed access to the well-known keys of a Backend. Jobs and logs
// are normalized before every write; values that fail to decode are
// quarantined and read as their default.
type Local struct {
	backend Backend
	log     *slog.Logger
}

// NewLocal wraps backend.
func NewLocal(backend Backend, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{backend: backend, log: logger}
}

// Close closes the underlying backend.
func (l *Local) Close() error { return l.backend.Close() }

// load decodes key into a T. A missing key, a JSON null or a corrupt value
// yields the zero T and ok == false.
func load[T any](ctx context.Context, l *Local, key string) (T, bool, error) {
	var v T
	data, err := l.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	var p *T
	if err := json.Unmarshal(data, &p); err != nil {
		l.log.Warn("discarding corrupt local value", "key", key, "err", err)
		if qerr := l.backend.Quarantine(ctx, key); qerr != nil {
			return v, false, qerr
		}
		return v, false, nil
	}
	if p == nil {
		return v, false, nil
	}
	return *p, true, nil
}

func put(b *Batch, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage error marshalling %s: %w", key, err)
	}
	b.Put(key, data)
	return nil
}

func putOrDelete[T any](b *Batch, key string, v *T) error {
	if v == nil {
		b.Delete(key)
		return nil
	}
	return put(b, key, *v)
}

// LoadDay reads the live day.
func (l *Local) LoadDay(ctx context.Context) (workday.Day, error) {
	var d workday.Day
	jobs, _, err := load[[]model.Job](ctx, l, KeyLiveJobs)
	if err != nil {
		return d, err
	}
	d.Jobs = model.NormalizeJobs(jobs)
	if len(d.Jobs) == 0 {
		d.Jobs = nil
	}

	if start, ok, err := load[int64](ctx, l, KeyDayStartTime); err != nil {
		return d, err
	} else if ok {
		d.DayStart = model.Int64(start)
	}
	if date, ok, err := load[string](ctx, l, KeyDayDate); err != nil {
		return d, err
	} else if ok {
		d.Date = date
	}

	d.Idle, err = l.LoadIdle(ctx)
	return d, err
}

// LoadIdle reads the idle flags and accumulator.
func (l *Local) LoadIdle(ctx context.Context) (model.IdleState, error) {
	var s model.IdleState
	isIdle, _, err := load[bool](ctx, l, KeyIsIdle)
	if err != nil {
		return s, err
	}
	start, ok, err := load[int64](ctx, l, KeyIdleStartTime)
	if err != nil {
		return s, err
	}
	total, _, err := load[int64](ctx, l, KeyIdleTotal)
	if err != nil {
		return s, err
	}
	s.IsIdle = isIdle
	s.IdleTotal = max(0, total)
	if ok {
		s.IdleStartTime = model.Int64(start)
	}
	return s, nil
}

// SaveDay writes the whole live day in one batch. An inactive day removes
// the job and day-start keys.
func (l *Local) SaveDay(ctx context.Context, d workday.Day) error {
	var b Batch
	if err := l.dayBatch(&b, d); err != nil {
		return err
	}
	return l.backend.Apply(ctx, b)
}

func (l *Local) dayBatch(b *Batch, d workday.Day) error {
	if len(d.Jobs) > 0 {
		if err := put(b, KeyLiveJobs, model.NormalizeJobs(d.Jobs)); err != nil {
			return err
		}
	} else {
		b.Delete(KeyLiveJobs)
	}
	if err := putOrDelete(b, KeyDayStartTime, d.DayStart); err != nil {
		return err
	}
	if d.Date != "" {
		if err := put(b, KeyDayDate, d.Date); err != nil {
			return err
		}
	} else {
		b.Delete(KeyDayDate)
	}
	return l.idleBatch(b, d.Idle)
}

// SaveIdle writes only the idle flags and accumulator.
func (l *Local) SaveIdle(ctx context.Context, s model.IdleState) error {
	var b Batch
	if err := l.idleBatch(&b, s); err != nil {
		return err
	}
	return l.backend.Apply(ctx, b)
}

func (l *Local) idleBatch(b *Batch, s model.IdleState) error {
	if err := put(b, KeyIsIdle, s.IsIdle); err != nil {
		return err
	}
	if err := put(b, KeyIdleTotal, s.IdleTotal); err != nil {
		return err
	}
	return putOrDelete(b, KeyIdleStartTime, s.IdleStartTime)
}

// Logs returns every saved day log in stored order.
func (l *Local) Logs(ctx context.Context) ([]model.DayLog, error) {
	logs, _, err := load[[]model.DayLog](ctx, l, KeyLogs)
	if err != nil {
		return nil, err
	}
	for i := range logs {
		logs[i] = model.NormalizeLog(logs[i])
	}
	return logs, nil
}

// Log returns the saved log for date.
func (l *Local) Log(ctx context.Context, date string) (model.DayLog, bool, error) {
	logs, err := l.Logs(ctx)
	if err != nil {
		return model.DayLog{}, false, err
	}
	for _, lg := range logs {
		if lg.Key() == date {
			return lg, true, nil
		}
	}
	return model.DayLog{}, false, nil
}

// UpsertLog replaces the saved log with the same date or appends it.
func (l *Local) UpsertLog(ctx context.Context, log model.DayLog) error {
	b, err := l.upsertBatch(ctx, log)
	if err != nil {
		return err
	}
	return l.backend.Apply(ctx, b)
}

// RecordSave upserts log, caches it as the last saved log and replaces the
// live day with next, all in one batch.
func (l *Local) RecordSave(ctx context.Context, log model.DayLog, next workday.Day) error {
	b, err := l.upsertBatch(ctx, log)
	if err != nil {
		return err
	}
	if err := put(&b, KeyLastSaved, model.NormalizeLog(log)); err != nil {
		return err
	}
	if err := l.dayBatch(&b, next); err != nil {
		return err
	}
	return l.backend.Apply(ctx, b)
}

func (l *Local) upsertBatch(ctx context.Context, log model.DayLog) (Batch, error) {
	var b Batch
	logs, err := l.Logs(ctx)
	if err != nil {
		return b, err
	}
	log = model.NormalizeLog(log)

	replaced := false
	for i := range logs {
		if logs[i].Key() == log.Key() {
			logs[i] = log
			replaced = true
			break
		}
	}
	if !replaced {
		logs = append(logs, log)
	}
	return b, put(&b, KeyLogs, logs)
}

// DeleteLog removes the saved log for date. It reports whether one existed.
func (l *Local) DeleteLog(ctx context.Context, date string) (bool, error) {
	logs, err := l.Logs(ctx)
	if err != nil {
		return false, err
	}
	kept := logs[:0]
	for _, lg := range logs {
		if lg.Key() != date {
			kept = append(kept, lg)
		}
	}
	if len(kept) == len(logs) {
		return false, nil
	}

	var b Batch
	if err := put(&b, KeyLogs, kept); err != nil {
		return false, err
	}
	if last, ok, err := l.LastSaved(ctx); err != nil {
		return false, err
	} else if ok && last.Key() == date {
		b.Delete(KeyLastSaved)
	}
	return true, l.backend.Apply(ctx, b)
}

// ClearLogs removes every saved log and the last-saved cache.
func (l *Local) ClearLogs(ctx context.Context) error {
	return l.backend.Apply(ctx, Batch{Deletes: []string{KeyLogs, KeyLastSaved}})
}

// LastSaved returns the most recently saved log.
func (l *Local) LastSaved(ctx context.Context) (model.DayLog, bool, error) {
	log, ok, err := load[model.DayLog](ctx, l, KeyLastSaved)
	if err != nil || !ok {
		return model.DayLog{}, false, err
	}
	return model.NormalizeLog(log), true, nil
}

// RemoteLogID returns the stable remote id for date, minting and storing
// one on first use.
func (l *Local) RemoteLogID(ctx context.Context, date string) (string, error) {
	key := RemoteLogIDKey(date)
	id, ok, err := load[string](ctx, l, key)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}
	id = model.NewLogID()
	var b Batch
	if err := put(&b, key, id); err != nil {
		return "", err
	}
	return id, l.backend.Apply(ctx, b)
}

// Outbox returns the queued remote writes in order.
func (l *Local) Outbox(ctx context.Context) ([]model.OutboxItem, error) {
	items, _, err := load[[]model.OutboxItem](ctx, l, KeyOutbox)
	return items, err
}

// SetOutbox replaces the queued remote writes.
func (l *Local) SetOutbox(ctx context.Context, items []model.OutboxItem) error {
	var b Batch
	if len(items) == 0 {
		b.Delete(KeyOutbox)
	} else if err := put(&b, KeyOutbox, items); err != nil {
		return err
	}
	return l.backend.Apply(ctx, b)
}
