package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ghosttrack/internal/model"
	"github.com/Tiliavir/ghosttrack/internal/summary"
	"github.com/Tiliavir/ghosttrack/internal/timecalc"
	"github.com/Tiliavir/ghosttrack/internal/tracker"
	"github.com/Tiliavir/ghosttrack/internal/workday"
)

var resumeDate string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new work day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.tracker.Start(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Day started at %s. You are idle until you clock in.\n", time.Now().Format("15:04"))
			return nil
		})
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Reopen a saved day to keep working on it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date := resumeDate
		if date == "" {
			date = timecalc.DateKey(time.Now())
		}
		if !validDate(date) {
			return usagef("--date must be YYYY-MM-DD, got %q", date)
		}
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.tracker.Resume(cmd.Context(), date); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resumed %s.\n", date)
			return nil
		})
	},
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save today's log and end the day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			log, err := a.tracker.Save(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), log.DailySummary)
			return nil
		})
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Discard today's unsaved work",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.tracker.Cancel(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Day cancelled.")
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's jobs, clocks and idle time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			snap, err := a.tracker.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			printStatus(cmd, snap)
			printSync(cmd, a)
			return nil
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary [date]",
	Short: "Print the daily summary of a saved day, or a preview of today",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if len(args) == 1 {
				log, err := a.tracker.Log(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), log.DailySummary)
				return nil
			}

			snap, err := a.tracker.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if snap.Status != workday.StatusActive {
				log, err := a.tracker.Log(cmd.Context(), snap.Date)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), log.DailySummary)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), preview(snap))
			return nil
		})
	},
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDate, "date", "", "Day to resume (YYYY-MM-DD, default today)")
}

// preview renders the summary today's log would get if saved now, running
// clocks stopped at the snapshot instant.
func preview(snap tracker.Snapshot) string {
	day := snap.Day.Clone()
	_, _ = day.TakeBreak(snap.Now)
	jobs := make([]model.Job, 0, len(day.Jobs))
	for _, j := range day.Jobs {
		if s := j.Summary(snap.Date); s.HasContent() {
			jobs = append(jobs, s)
		}
	}
	return summary.Generate(model.DayLog{
		LogID:     snap.Date,
		Jobs:      jobs,
		IdleTotal: model.Int64(snap.Day.IdleDisplay(snap.Now)),
	})
}

func printStatus(cmd *cobra.Command, snap tracker.Snapshot) {
	out := cmd.OutOrStdout()
	switch snap.Status {
	case workday.StatusIdle:
		fmt.Fprintln(out, "No active day. Run `gtrack start`.")
		return
	case workday.StatusResume:
		fmt.Fprintf(out, "Today's log is saved. Run `gtrack resume` to continue %s.\n", snap.Date)
		return
	}

	day := snap.Day
	if day.DayStart != nil {
		fmt.Fprintf(out, "Day %s, started %s\n", snap.Date, timecalc.FromMillis(*day.DayStart).Format("15:04"))
	}
	if len(day.Jobs) == 0 {
		fmt.Fprintln(out, "No jobs yet. Add one with `gtrack job add <name>`.")
	}
	for i, j := range day.Jobs {
		marker := " "
		if j.IsClockedIn {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-24s %s  (%d sessions)\n",
			marker, j.Name, timecalc.FormatMillis(day.Elapsed(i, snap.Now)), len(j.Sessions))
		for _, task := range j.Tasks(snap.Date) {
			fmt.Fprintf(out, "    - %s\n", task)
		}
	}

	idle := day.IdleDisplay(snap.Now)
	if day.Idle.IsIdle {
		fmt.Fprintf(out, "Idle: %s (idle for %s)\n", timecalc.FormatMillis(idle), formatElapsed(day.Idle.Open(snap.Now)/1000))
	} else {
		fmt.Fprintf(out, "Idle: %s\n", timecalc.FormatMillis(idle))
	}
}

// syncCheckTimeout bounds the health check so status stays snappy offline.
const syncCheckTimeout = 2 * time.Second

func printSync(cmd *cobra.Command, a *app) {
	out := cmd.OutOrStdout()
	if a.client == nil {
		fmt.Fprintln(out, "Sync: disabled")
		return
	}
	queued := 0
	if items, err := a.outbox.Items(cmd.Context()); err != nil {
		logger.Warn("reading outbox", "err", err)
	} else {
		queued = len(items)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), syncCheckTimeout)
	defer cancel()
	if err := a.client.Health(ctx); err != nil {
		logger.Debug("health check failed", "err", err)
		fmt.Fprintf(out, "Sync: unreachable (%d queued)\n", queued)
		return
	}
	fmt.Fprintf(out, "Sync: ok (%d queued)\n", queued)
}

func formatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

func validDate(s string) bool {
	_, err := time.Parse(timecalc.DateLayout, s)
	return err == nil
}
