package cmd

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ghosttrack/internal/model"
	"github.com/Tiliavir/ghosttrack/internal/timecalc"
)

var reportFormat string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show this week's time per job across saved days",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		return withApp(cmd.Context(), func(a *app) error {
			logs, err := a.tracker.Logs(cmd.Context())
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), weekReport(inWeek(logs, now), now), reportFormat)
		})
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

type jobTotal struct {
	Job     string `json:"job"`
	Minutes int64  `json:"duration_minutes"`
	seconds int64
}

type report struct {
	Week         string     `json:"week"`
	Jobs         []jobTotal `json:"jobs"`
	TotalMinutes int64      `json:"total_minutes"`
	IdleMinutes  int64      `json:"idle_minutes"`
	totalSeconds int64
	idleSeconds  int64
}

// weekReport aggregates job time by canonical name over logs.
func weekReport(logs []model.DayLog, now time.Time) report {
	r := report{Week: timecalc.ISOWeekLabel(now), Jobs: []jobTotal{}}
	totals := map[string]int64{}
	for _, l := range logs {
		for _, j := range l.Jobs {
			totals[model.CanonicalJobName(j.Name)] += j.Total() / 1000
		}
		idle, _ := l.Idle()
		r.idleSeconds += idle / 1000
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		secs := totals[name]
		r.Jobs = append(r.Jobs, jobTotal{Job: name, Minutes: secs / 60, seconds: secs})
		r.totalSeconds += secs
	}
	r.TotalMinutes = r.totalSeconds / 60
	r.IdleMinutes = r.idleSeconds / 60
	return r
}

func writeReport(w io.Writer, r report, format string) error {
	switch format {
	case "csv":
		fmt.Fprintln(w, "job,duration_minutes")
		for _, j := range r.Jobs {
			fmt.Fprintf(w, "%s,%d\n", csvEscape(j.Job), j.Minutes)
		}
	case "json":
		return writeJSON(w, r)
	case "md", "":
		fmt.Fprintf(w, "Week %s\n", r.Week)
		fmt.Fprintln(w, "--------------------------------")
		for _, j := range r.Jobs {
			fmt.Fprintf(w, "%-20s%s\n", j.Job, timecalc.FormatDuration(j.seconds))
		}
		fmt.Fprintln(w, "--------------------------------")
		fmt.Fprintf(w, "%-20s%s\n", "Total", timecalc.FormatDuration(r.totalSeconds))
		fmt.Fprintf(w, "%-20s%s\n", "Idle", timecalc.FormatDuration(r.idleSeconds))
	default:
		return usagef("unknown format %q (want md, csv or json)", format)
	}
	return nil
}
