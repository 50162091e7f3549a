package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ghosttrack/internal/model"
	"github.com/Tiliavir/ghosttrack/internal/timecalc"
)

var (
	exportFormat string
	exportAll    bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved days to stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		return withApp(cmd.Context(), func(a *app) error {
			logs, err := a.tracker.Logs(cmd.Context())
			if err != nil {
				return err
			}
			if !exportAll {
				logs = inWeek(logs, now)
			}
			switch exportFormat {
			case "json":
				return writeJSON(cmd.OutOrStdout(), logs)
			case "md":
				printHistory(cmd.OutOrStdout(), logs)
			case "csv", "":
				printCSV(cmd.OutOrStdout(), logs)
			default:
				return usagef("unknown format %q (want csv, json or md)", exportFormat)
			}
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json, md")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every saved day instead of this week")
}

// printCSV writes one row per session.
func printCSV(w io.Writer, logs []model.DayLog) {
	fmt.Fprintln(w, "date,job,type,start,end,duration_minutes,tasks")
	for _, l := range logs {
		for _, j := range l.Jobs {
			tasks := strings.Join(j.Notes, "; ")
			for _, s := range j.Sessions {
				start, end := "", ""
				if s.StartTime != nil {
					start = timecalc.FromMillis(*s.StartTime).Format(time.RFC3339)
				}
				if s.EndTime != nil {
					end = timecalc.FromMillis(*s.EndTime).Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s,%s,%s,%s,%s,%d,%s\n",
					csvEscape(l.Key()),
					csvEscape(j.Name),
					csvEscape(string(s.Type)),
					csvEscape(start),
					csvEscape(end),
					s.Duration/60_000,
					csvEscape(tasks),
				)
			}
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
