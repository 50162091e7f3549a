package workday_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/ghosttrack/internal/model"
	"github.com/Tiliavir/ghosttrack/internal/workday"
)

func TestCorrectRunningSourceToNewJob(t *testing.T) {
	d := newDay(t, "A", "B")
	require.NoError(t, d.ClockIn(0, at(9, 0)))

	require.NoError(t, d.Correct(workday.Correction{From: "A", To: "B", At: at(9, 30)}, at(10, 0)))

	a, b := d.Jobs[0], d.Jobs[1]
	require.Len(t, a.Sessions, 1)
	assert.Equal(t, at(9, 0), *a.Sessions[0].StartTime)
	assert.Equal(t, at(9, 30), *a.Sessions[0].EndTime)
	assert.False(t, a.IsClockedIn)
	assert.True(t, b.IsClockedIn)
	assert.Equal(t, at(9, 30), *b.StartTime)
	// The window after 09:30 was work, so no idle is given back.
	assert.Equal(t, hour, d.Idle.IdleTotal)
	assertInvariants(t, d)
}

func TestCorrectIdleWindowToJob(t *testing.T) {
	d := newDay(t, "A", "B")
	require.NoError(t, d.ClockIn(0, at(9, 0)))
	_, err := d.ClockOut(0, at(9, 30))
	require.NoError(t, err)
	require.Equal(t, 90*minute, d.IdleDisplay(at(10, 0)))

	require.NoError(t, d.Correct(workday.Correction{From: model.IdleJob, To: "B", At: at(9, 30)}, at(10, 0)))

	assert.Equal(t, hour, d.IdleDisplay(at(10, 0)), "idle drops by exactly now minus the correction time")
	assert.False(t, d.Idle.IsIdle)
	assert.True(t, d.Jobs[1].IsClockedIn)
	assert.Equal(t, at(9, 30), *d.Jobs[1].StartTime)
	assertInvariants(t, d)
}

func TestCorrectTrimsClosedSource(t *testing.T) {
	d := newDay(t, "A", "B")
	require.NoError(t, d.ClockIn(0, at(9, 0)))
	_, err := d.ClockOut(0, at(9, 45))
	require.NoError(t, err)

	require.NoError(t, d.Correct(workday.Correction{From: "A", To: "B", At: at(9, 30)}, at(10, 0)))

	a := d.Jobs[0]
	require.Len(t, a.Sessions, 1)
	assert.Equal(t, at(9, 30), *a.Sessions[0].EndTime)
	assert.Equal(t, 30*minute, a.Total())
	assert.Equal(t, at(9, 30), *d.Jobs[1].StartTime)
	// Only the idle after 09:45 is handed to B.
	assert.Equal(t, hour, d.Idle.IdleTotal)
	assertInvariants(t, d)
}

func TestCorrectToIdleFromRunningJob(t *testing.T) {
	d := newDay(t, "A")
	require.NoError(t, d.ClockIn(0, at(9, 0)))

	require.NoError(t, d.Correct(workday.Correction{From: "A", To: model.IdleJob, At: at(9, 30)}, at(10, 0)))

	assert.Equal(t, 30*minute, d.Jobs[0].Total())
	assert.True(t, d.Idle.IsIdle)
	assert.Equal(t, at(9, 30), *d.Idle.IdleStartTime)
	assert.Equal(t, 90*minute, d.IdleDisplay(at(10, 0)))
	assertInvariants(t, d)
}

func TestCorrectToIdleWhileAlreadyIdle(t *testing.T) {
	d := newDay(t, "A")
	require.NoError(t, d.ClockIn(0, at(9, 0)))
	_, err := d.ClockOut(0, at(9, 45))
	require.NoError(t, err)

	require.NoError(t, d.Correct(workday.Correction{From: "A", To: model.IdleJob, At: at(9, 30)}, at(10, 0)))

	assert.Equal(t, 30*minute, d.Jobs[0].Total())
	assert.Equal(t, at(9, 30), *d.Idle.IdleStartTime)
	assert.Equal(t, 90*minute, d.IdleDisplay(at(10, 0)), "idle is not counted twice")
}

func TestCorrectDiscardsSpanStartedAfterCut(t *testing.T) {
	d := newDay(t, "A", "B")
	require.NoError(t, d.ClockIn(0, at(9, 40)))

	require.NoError(t, d.Correct(workday.Correction{From: "A", To: "B", At: at(9, 30)}, at(10, 0)))

	assert.Empty(t, d.Jobs[0].Sessions)
	assert.Equal(t, at(9, 30), *d.Jobs[1].StartTime)
	// 08:00-09:30 stays idle, 09:30-09:40 moves to B.
	assert.Equal(t, 90*minute, d.Idle.IdleTotal)
}

func TestCorrectClampsFutureTime(t *testing.T) {
	d := newDay(t, "A", "B")
	require.NoError(t, d.ClockIn(0, at(9, 0)))

	require.NoError(t, d.Correct(workday.Correction{From: "A", To: "B", At: at(11, 0)}, at(10, 0)))

	assert.Equal(t, at(10, 0), *d.Jobs[0].Sessions[0].EndTime)
	assert.Equal(t, at(10, 0), *d.Jobs[1].StartTime)
}

func TestCorrectNeverNegativeIdle(t *testing.T) {
	d := newDay(t, "A")
	require.NoError(t, d.Correct(workday.Correction{From: model.IdleJob, To: "A", At: at(7, 0)}, at(8, 30)))
	assert.Zero(t, d.Idle.IdleTotal)
	assert.Equal(t, at(7, 0), *d.Jobs[0].StartTime)
}

func TestCorrectValidation(t *testing.T) {
	tests := []struct {
		name string
		c    workday.Correction
	}{
		{"missing from", workday.Correction{To: "B", At: at(9, 0)}},
		{"missing to", workday.Correction{From: "A", At: at(9, 0)}},
		{"missing time", workday.Correction{From: "A", To: "B"}},
		{"same job", workday.Correction{From: "A", To: " A", At: at(9, 0)}},
		{"unknown source", workday.Correction{From: "X", To: "B", At: at(9, 0)}},
		{"unknown target", workday.Correction{From: "A", To: "X", At: at(9, 0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDay(t, "A", "B")
			require.NoError(t, d.ClockIn(0, at(8, 30)))
			before := d.Clone()

			err := d.Correct(tt.c, at(10, 0))
			var verr *workday.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, before, d.Clone())
		})
	}
}

func TestCorrectNoActiveDay(t *testing.T) {
	d := &workday.Day{}
	assert.ErrorIs(t, d.Correct(workday.Correction{From: "A", To: "B", At: at(9, 0)}, at(10, 0)), workday.ErrNoActiveDay)
}
