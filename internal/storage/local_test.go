package storage_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/ghosttrack/internal/model"
	"github.com/Tiliavir/ghosttrack/internal/storage"
	"github.com/Tiliavir/ghosttrack/internal/workday"
)

func newLocal(t *testing.T) (*storage.Local, storage.Backend) {
	t.Helper()
	b := storage.NewFileBackend(t.TempDir())
	return storage.NewLocal(b, slog.New(slog.NewTextHandler(io.Discard, nil))), b
}

func TestLocalEmpty(t *testing.T) {
	l, _ := newLocal(t)
	ctx := context.Background()

	d, err := l.LoadDay(ctx)
	require.NoError(t, err)
	assert.False(t, d.Active())

	logs, err := l.Logs(ctx)
	require.NoError(t, err)
	assert.Empty(t, logs)

	_, ok, err := l.LastSaved(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalDayRoundTrip(t *testing.T) {
	l, _ := newLocal(t)
	ctx := context.Background()

	var d workday.Day
	d.Start("2026-02-27", 1_000)
	require.NoError(t, d.AddJob("A", 1_000))
	require.NoError(t, d.ClockIn(0, 2_000))
	require.NoError(t, l.SaveDay(ctx, d))

	got, err := l.LoadDay(ctx)
	require.NoError(t, err)
	require.Len(t, got.Jobs, 1)
	assert.Equal(t, "A", got.Jobs[0].Name)
	assert.True(t, got.Jobs[0].IsClockedIn)
	assert.Equal(t, int64(2_000), *got.Jobs[0].StartTime)
	assert.Equal(t, int64(1_000), *got.DayStart)
	assert.False(t, got.Idle.IsIdle)
	assert.Nil(t, got.Idle.IdleStartTime)
	assert.Equal(t, int64(1_000), got.Idle.IdleTotal)

	d.Cancel(false)
	require.NoError(t, l.SaveDay(ctx, d))
	got, err = l.LoadDay(ctx)
	require.NoError(t, err)
	assert.False(t, got.Active())
}

func TestLocalSaveIdleOnly(t *testing.T) {
	l, _ := newLocal(t)
	ctx := context.Background()
	require.NoError(t, l.SaveIdle(ctx, model.IdleState{IsIdle: true, IdleStartTime: model.Int64(5), IdleTotal: 7}))

	s, err := l.LoadIdle(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.IdleState{IsIdle: true, IdleStartTime: model.Int64(5), IdleTotal: 7}, s)

	d, err := l.LoadDay(ctx)
	require.NoError(t, err)
	assert.Empty(t, d.Jobs)
}

func TestLocalNormalizesJobsOnWrite(t *testing.T) {
	l, b := newLocal(t)
	ctx := context.Background()
	d := workday.Day{
		DayStart: model.Int64(1),
		Jobs:     []model.Job{{Name: "  ", Sessions: []model.Session{{Duration: 5}}}},
	}
	require.NoError(t, l.SaveDay(ctx, d))

	raw, err := b.Get(ctx, storage.KeyLiveJobs)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"name":"Unnamed Job"`)
	assert.Contains(t, string(raw), `"type":"work"`)
	assert.Contains(t, string(raw), `"totalTime":5`)
}

func TestLocalUpsertLogByDate(t *testing.T) {
	l, _ := newLocal(t)
	ctx := context.Background()

	first := model.DayLog{Date: "2026-02-27", Jobs: []model.Job{{Name: "A"}}}
	require.NoError(t, l.UpsertLog(ctx, first))
	require.NoError(t, l.UpsertLog(ctx, model.DayLog{Date: "2026-02-26", Jobs: []model.Job{}}))

	_, ok, err := l.LastSaved(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "a plain upsert leaves the last-saved cache alone")

	second := model.DayLog{Date: "2026-02-27", Jobs: []model.Job{{Name: "B"}}}
	require.NoError(t, l.RecordSave(ctx, second, workday.Day{}))

	logs, err := l.Logs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2, "saving the same date twice replaces the log")
	assert.Equal(t, "B", logs[0].Jobs[0].Name)
	assert.Equal(t, model.SchemaVersion, logs[0].SchemaVersion)

	last, ok, err := l.LastSaved(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2026-02-27", last.Date)

	got, ok, err := l.Log(ctx, "2026-02-26")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2026-02-26", got.Date)
}

func TestLocalRecordSaveClearsLiveDay(t *testing.T) {
	l, b := newLocal(t)
	ctx := context.Background()

	var d workday.Day
	d.Start("2026-02-20", 1_000)
	require.NoError(t, d.AddJob("A", 1_000))
	require.NoError(t, l.SaveDay(ctx, d))

	got, err := l.LoadDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-20", got.Date, "the worked date survives a reopen")

	require.NoError(t, l.RecordSave(ctx, model.DayLog{Date: "2026-02-20", Jobs: []model.Job{{Name: "A"}}}, workday.Day{}))

	got, err = l.LoadDay(ctx)
	require.NoError(t, err)
	assert.False(t, got.Active())
	assert.Empty(t, got.Date)
	for _, key := range []string{storage.KeyLiveJobs, storage.KeyDayStartTime, storage.KeyDayDate} {
		_, err := b.Get(ctx, key)
		assert.ErrorIs(t, err, storage.ErrNotFound, key)
	}
	saved, ok, err := l.Log(ctx, "2026-02-20")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", saved.Jobs[0].Name)
}

func TestLocalDeleteAndClearLogs(t *testing.T) {
	l, _ := newLocal(t)
	ctx := context.Background()
	require.NoError(t, l.UpsertLog(ctx, model.DayLog{Date: "2026-02-26", Jobs: []model.Job{}}))
	require.NoError(t, l.RecordSave(ctx, model.DayLog{Date: "2026-02-27", Jobs: []model.Job{}}, workday.Day{}))

	removed, err := l.DeleteLog(ctx, "2026-02-27")
	require.NoError(t, err)
	assert.True(t, removed)
	_, ok, err := l.LastSaved(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "last-saved cache follows the deleted log")

	removed, err = l.DeleteLog(ctx, "2026-02-27")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, l.ClearLogs(ctx))
	logs, err := l.Logs(ctx)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestLocalCorruptValueFallsBack(t *testing.T) {
	l, b := newLocal(t)
	ctx := context.Background()
	require.NoError(t, b.Apply(ctx, storage.Batch{Puts: map[string][]byte{
		storage.KeyLogs:     []byte(`[{"date":`),
		storage.KeyLiveJobs: []byte(`"not an array"`),
	}}))

	logs, err := l.Logs(ctx)
	require.NoError(t, err)
	assert.Empty(t, logs)
	_, err = b.Get(ctx, storage.KeyLogs)
	assert.ErrorIs(t, err, storage.ErrNotFound, "corrupt value is moved aside")

	d, err := l.LoadDay(ctx)
	require.NoError(t, err)
	assert.Empty(t, d.Jobs)
}

func TestLocalLegacyLogShapes(t *testing.T) {
	l, b := newLocal(t)
	ctx := context.Background()
	require.NoError(t, b.Apply(ctx, storage.Batch{Puts: map[string][]byte{
		storage.KeyLogs: []byte(`[{"logId":"2026-01-05","totalIdleTime":600000,"jobs":[{"name":"Old","sessions":[60000,120000]}]}]`),
	}}))

	logs, err := l.Logs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	lg := logs[0]
	assert.Equal(t, "2026-01-05", lg.Date)
	assert.Equal(t, int64(600_000), *lg.IdleTotal)
	require.Len(t, lg.Jobs[0].Sessions, 2)
	assert.True(t, lg.Jobs[0].Sessions[0].Legacy())
	assert.Equal(t, int64(180_000), lg.Jobs[0].Total())
}

func TestLocalRemoteLogIDIsStable(t *testing.T) {
	l, _ := newLocal(t)
	ctx := context.Background()
	a, err := l.RemoteLogID(ctx, "2026-02-27")
	require.NoError(t, err)
	b, err := l.RemoteLogID(ctx, "2026-02-27")
	require.NoError(t, err)
	c, err := l.RemoteLogID(ctx, "2026-02-28")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, `^log-`, a)
}

func TestLocalOutbox(t *testing.T) {
	l, _ := newLocal(t)
	ctx := context.Background()
	items := []model.OutboxItem{{ID: "log-1", Type: model.OutboxType, Payload: []byte(`{"date":"2026-02-27"}`), TS: 1}}
	require.NoError(t, l.SetOutbox(ctx, items))

	got, err := l.Outbox(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"date":"2026-02-27"}`, string(got[0].Payload))

	require.NoError(t, l.SetOutbox(ctx, nil))
	got, err = l.Outbox(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
