package workday_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/ghosttrack/internal/model"
	"github.com/Tiliavir/ghosttrack/internal/workday"
)

const (
	minute = int64(60 * 1000)
	hour   = 60 * minute
	// 2026-02-27 00:00 UTC
	midnight = int64(1_772_150_400_000)
)

func at(h, m int64) int64 { return midnight + h*hour + m*minute }

// newDay starts a day at 08:00 with the given jobs, added in reverse so the
// resulting order matches names.
func newDay(t *testing.T, names ...string) *workday.Day {
	t.Helper()
	d := &workday.Day{}
	d.Start(today, at(8, 0))
	for i := len(names) - 1; i >= 0; i-- {
		require.NoError(t, d.AddJob(names[i], at(8, 0)))
	}
	return d
}

func assertInvariants(t *testing.T, d *workday.Day) {
	t.Helper()
	running := d.RunningCount()
	assert.LessOrEqual(t, running, 1, "at most one job may be clocked in")
	if d.Active() && len(d.Jobs) > 0 {
		assert.Equal(t, running == 0, d.Idle.IsIdle, "idle iff nothing runs")
	}
	for _, j := range d.Jobs {
		assert.Equal(t, model.SumDurations(j.Sessions), j.Total(), "cached total of %s", j.Name)
	}
}

func TestStart(t *testing.T) {
	d := &workday.Day{}
	assert.Equal(t, workday.StatusIdle, d.Status(false))
	assert.Equal(t, workday.StatusResume, d.Status(true))

	d.Start(today, at(8, 0))
	assert.Equal(t, workday.StatusActive, d.Status(false))
	assert.True(t, d.Idle.IsIdle)
	assert.Equal(t, at(8, 0), *d.DayStart)
	assert.Equal(t, today, d.Date)
	assert.Empty(t, d.Jobs)
}

func TestAddJob(t *testing.T) {
	d := &workday.Day{}
	assert.ErrorIs(t, d.AddJob("A", at(8, 0)), workday.ErrNoActiveDay)

	d = newDay(t, "A")
	require.NoError(t, d.AddJob(" B ", at(8, 1)))
	assert.Equal(t, "B", d.Jobs[0].Name, "new jobs go first")

	var verr *workday.ValidationError
	assert.ErrorAs(t, d.AddJob("   ", at(8, 1)), &verr)
	assert.ErrorAs(t, d.AddJob("A", at(8, 1)), &verr)
	assert.ErrorAs(t, d.AddJob(model.IdleJob, at(8, 1)), &verr)
	assert.Len(t, d.Jobs, 2)
}

func TestClockInSwitchesJobs(t *testing.T) {
	d := newDay(t, "A", "B")
	require.NoError(t, d.ClockIn(0, at(9, 0)))
	require.NoError(t, d.ClockIn(1, at(9, 45)))

	a, b := d.Jobs[0], d.Jobs[1]
	require.Len(t, a.Sessions, 1)
	s := a.Sessions[0]
	assert.Equal(t, at(9, 0), *s.StartTime)
	assert.Equal(t, at(9, 45), *s.EndTime)
	assert.Equal(t, *s.EndTime-*s.StartTime, s.Duration)
	assert.False(t, a.IsClockedIn)
	assert.Equal(t, at(9, 45), *a.LastClockOut)

	assert.True(t, b.IsClockedIn)
	assert.Equal(t, at(9, 45), *b.StartTime)
	assertInvariants(t, d)
}

func TestClockInTwiceIsNoop(t *testing.T) {
	d := newDay(t, "A")
	require.NoError(t, d.ClockIn(0, at(9, 0)))
	require.NoError(t, d.ClockIn(0, at(9, 30)))
	assert.Equal(t, at(9, 0), *d.Jobs[0].StartTime)
	assert.Empty(t, d.Jobs[0].Sessions)
}

func TestClockInUnknownIndex(t *testing.T) {
	d := newDay(t, "A")
	var verr *workday.ValidationError
	assert.ErrorAs(t, d.ClockIn(3, at(9, 0)), &verr)
}

func TestIdleAccrual(t *testing.T) {
	d := newDay(t, "A")
	require.True(t, d.Idle.IsIdle)
	require.NoError(t, d.ClockIn(0, at(8, 20)))

	assert.False(t, d.Idle.IsIdle)
	assert.Nil(t, d.Idle.IdleStartTime)
	assert.Equal(t, 20*minute, d.Idle.IdleTotal)

	stopped, err := d.ClockOut(0, at(9, 0))
	require.NoError(t, err)
	assert.True(t, stopped)
	assert.True(t, d.Idle.IsIdle)
	assert.Equal(t, at(9, 0), *d.Idle.IdleStartTime)
	assert.Equal(t, 30*minute, d.IdleDisplay(at(9, 10)))
	assertInvariants(t, d)
}

func TestClockOutNotRunning(t *testing.T) {
	d := newDay(t, "A")
	stopped, err := d.ClockOut(0, at(9, 0))
	require.NoError(t, err)
	assert.False(t, stopped)
	assert.Empty(t, d.Jobs[0].Sessions)
}

func TestTakeBreak(t *testing.T) {
	d := newDay(t, "A", "B")
	require.NoError(t, d.ClockIn(1, at(9, 0)))
	n, err := d.TakeBreak(at(10, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, hour, d.Jobs[1].Total())
	assertInvariants(t, d)

	n, err = d.TakeBreak(at(10, 5))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReconcileIsIdempotent(t *testing.T) {
	d := newDay(t, "A")
	require.NoError(t, d.ClockIn(0, at(9, 0)))
	before := d.Clone()
	d.Reconcile(at(9, 30))
	d.Reconcile(at(9, 45))
	assert.Equal(t, before, d.Clone())
}

func TestReconcileInactiveDay(t *testing.T) {
	d := &workday.Day{}
	d.Reconcile(at(9, 0))
	assert.False(t, d.Idle.IsIdle)
}

func TestElapsed(t *testing.T) {
	d := newDay(t, "A")
	require.NoError(t, d.ClockIn(0, at(9, 0)))
	_, _ = d.ClockOut(0, at(9, 30))
	require.NoError(t, d.ClockIn(0, at(10, 0)))
	assert.Equal(t, 45*minute, d.Elapsed(0, at(10, 15)))
}

func TestDeleteSession(t *testing.T) {
	d := newDay(t, "A")
	require.NoError(t, d.ClockIn(0, at(9, 0)))
	_, _ = d.ClockOut(0, at(9, 30))
	require.NoError(t, d.DeleteSession(0, 0, at(9, 31)))
	assert.Zero(t, d.Jobs[0].Total())

	var verr *workday.ValidationError
	assert.ErrorAs(t, d.DeleteSession(0, 0, at(9, 31)), &verr)
}

func TestDeleteRunningJob(t *testing.T) {
	d := newDay(t, "A", "B")
	require.NoError(t, d.ClockIn(0, at(9, 0)))
	require.NoError(t, d.DeleteJob(0, at(9, 30)))
	require.Len(t, d.Jobs, 1)
	assert.True(t, d.Idle.IsIdle)
	assertInvariants(t, d)
}

func TestAddTask(t *testing.T) {
	d := newDay(t, "A")
	require.NoError(t, d.AddTask(0, "2026-02-27", "  write report "))
	assert.Equal(t, []string{"write report"}, d.Jobs[0].Tasks("2026-02-27"))

	var verr *workday.ValidationError
	assert.ErrorAs(t, d.AddTask(0, "2026-02-27", " "), &verr)
}

func TestFindJobCanonical(t *testing.T) {
	d := newDay(t, "Café")
	assert.Equal(t, 0, d.FindJob(" Café"))
	assert.Equal(t, -1, d.FindJob("Tea"))
}

func TestMerge(t *testing.T) {
	got := workday.Merge([]workday.Interval{
		{Start: 10, End: 20},
		{Start: 0, End: 5},
		{Start: 15, End: 30},
		{Start: 30, End: 35},
		{Start: 40, End: 40},
	})
	assert.Equal(t, []workday.Interval{{Start: 0, End: 5}, {Start: 10, End: 35}}, got)
	assert.Nil(t, workday.Merge(nil))
}

func TestMergeIntervals(t *testing.T) {
	jobs := []model.Job{
		{Sessions: []model.Session{model.NewInterval(100, 200), model.NewLegacy(model.SessionWork, 999)}},
		{Sessions: []model.Session{model.NewInterval(150, 300)}},
	}
	span := workday.MergeIntervals(jobs)
	assert.Equal(t, int64(200), span.Work)
	assert.Equal(t, int64(100), *span.FirstStart)
	assert.Equal(t, int64(300), *span.LastEnd)

	assert.Equal(t, workday.Span{}, workday.MergeIntervals(nil))
}
