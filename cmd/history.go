package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ghosttrack/internal/model"
	"github.com/Tiliavir/ghosttrack/internal/timecalc"
	"github.com/Tiliavir/ghosttrack/internal/tracker"
	"github.com/Tiliavir/ghosttrack/internal/workday"
)

const remotePageSize = 50

var (
	historyWeek   bool
	historyRemote bool
	historyYes    bool

	editJob    string
	editRename string
	editNotes  []string
	editTime   string
	editIdle   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and edit saved days",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved days, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			var logs []model.DayLog
			var err error
			if historyRemote {
				if a.client == nil {
					return errNoRemote
				}
				logs, err = a.tracker.RemoteLogs(cmd.Context(), remotePageSize)
			} else {
				logs, err = a.tracker.Logs(cmd.Context())
			}
			if err != nil {
				return err
			}
			if historyWeek {
				logs = inWeek(logs, time.Now())
			}
			printHistory(cmd.OutOrStdout(), logs)
			return nil
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <date>",
	Short: "Show one saved day in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			log, err := a.tracker.Log(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printLog(cmd.OutOrStdout(), log)
			return nil
		})
	},
}

var historyRmCmd = &cobra.Command{
	Use:   "rm <date>",
	Short: "Delete a saved day from the local store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.tracker.DeleteLog(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved day from the local store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !historyYes {
			return usagef("refusing to delete all history without --yes")
		}
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.tracker.ClearLogs(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		})
	},
}

var historyEditCmd = &cobra.Command{
	Use:   "edit <date>",
	Short: "Edit a saved day",
	Long: `Edit a saved day and push the result to the remote store.

  gtrack history edit 2026-02-27 --job "Client A" --rename "Client B"
  gtrack history edit 2026-02-27 --job "Client A" --time 1:30 --note review
  gtrack history edit 2026-02-27 --idle 0:45`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		edit, err := parseLogEdit(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			log, err := a.tracker.EditLog(cmd.Context(), args[0], edit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), log.DailySummary)
			return nil
		})
	},
}

func init() {
	historyListCmd.Flags().BoolVar(&historyWeek, "week", false, "Only show this week")
	historyListCmd.Flags().BoolVar(&historyRemote, "remote", false, "List the remote store instead of the local one")
	historyClearCmd.Flags().BoolVar(&historyYes, "yes", false, "Confirm deleting all history")

	f := historyEditCmd.Flags()
	f.StringVar(&editJob, "job", "", "Job to edit")
	f.StringVar(&editRename, "rename", "", "New job name")
	f.StringArrayVar(&editNotes, "note", nil, "Replace the job's tasks (repeatable; --note '' clears them)")
	f.StringVar(&editTime, "time", "", "Replace the job's time (HH:MM:SS, HH:MM or H)")
	f.StringVar(&editIdle, "idle", "", "Replace the day's idle time (HH:MM:SS, HH:MM or H)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyRmCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyEditCmd)
}

func parseLogEdit(cmd *cobra.Command) (tracker.LogEdit, error) {
	f := cmd.Flags()
	e := tracker.LogEdit{Job: editJob}
	if f.Changed("rename") {
		e.Rename = &editRename
	}
	if f.Changed("note") {
		notes := append([]string{}, editNotes...)
		e.Notes = &notes
	}
	if f.Changed("time") {
		ms, err := timecalc.ParseHHMMSS(editTime)
		if err != nil {
			return e, usagef("--time: %v", err)
		}
		e.Time = &ms
	}
	if f.Changed("idle") {
		ms, err := timecalc.ParseHHMMSS(editIdle)
		if err != nil {
			return e, usagef("--idle: %v", err)
		}
		e.Idle = &ms
	}

	jobEdit := e.Rename != nil || e.Notes != nil || e.Time != nil
	switch {
	case jobEdit && e.Job == "":
		return e, usagef("--rename, --note and --time need --job")
	case !jobEdit && e.Idle == nil:
		return e, usagef("nothing to change: pass --rename, --note, --time or --idle")
	}
	return e, nil
}

// inWeek keeps the logs dated in the ISO week containing now.
func inWeek(logs []model.DayLog, now time.Time) []model.DayLog {
	monday, sunday := timecalc.WeekRange(now)
	from, to := timecalc.DateKey(monday), timecalc.DateKey(sunday)
	var out []model.DayLog
	for _, l := range logs {
		if k := l.Key(); k >= from && k <= to {
			out = append(out, l)
		}
	}
	return out
}

func workTotal(log model.DayLog) int64 {
	var total int64
	for _, j := range log.Jobs {
		total += j.Total()
	}
	return total
}

func printHistory(w io.Writer, logs []model.DayLog) {
	if len(logs) == 0 {
		fmt.Fprintln(w, "No saved days.")
		return
	}
	fmt.Fprintf(w, "%-12s %5s  %-10s %-10s\n", "DATE", "JOBS", "WORK", "IDLE")
	for _, l := range logs {
		idle, _ := l.Idle()
		fmt.Fprintf(w, "%-12s %5d  %-10s %-10s\n",
			l.Key(), len(l.Jobs),
			timecalc.FormatDuration(workTotal(l)/1000),
			timecalc.FormatDuration(idle/1000))
	}
}

func printLog(w io.Writer, log model.DayLog) {
	fmt.Fprintln(w, log.DailySummary)
	fmt.Fprintln(w)
	if span := workday.MergeIntervals(log.Jobs); span.FirstStart != nil {
		fmt.Fprintf(w, "Worked %s-%s, %s on the clock.\n\n",
			timecalc.FromMillis(*span.FirstStart).Format("15:04"),
			timecalc.FromMillis(*span.LastEnd).Format("15:04"),
			timecalc.FormatDuration(span.Work/1000))
	}
	for _, j := range log.Jobs {
		fmt.Fprintf(w, "%s (%s)\n", j.Name, timecalc.FormatMillis(j.Total()))
		for i, s := range j.Sessions {
			if !s.Closed() {
				fmt.Fprintf(w, "  %2d. %s  %s\n", i+1, timecalc.FormatMillis(s.Duration), s.Type)
				continue
			}
			fmt.Fprintf(w, "  %2d. %s-%s  %s\n", i+1,
				timecalc.FromMillis(*s.StartTime).Format("15:04"),
				timecalc.FromMillis(*s.EndTime).Format("15:04"),
				timecalc.FormatMillis(s.Duration))
		}
	}
}
