package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ghosttrack/internal/model"
	"github.com/Tiliavir/ghosttrack/internal/timecalc"
	"github.com/Tiliavir/ghosttrack/internal/workday"
)

const idleKeyword = "idle"

var (
	fixFrom string
	fixTo   string
	fixAt   string
)

var fixCmd = &cobra.Command{
	Use:   "fix --from <job|idle> --to <job|idle> --at HH:MM",
	Short: "Reassign time retroactively",
	Long: `Record that you switched from one job to another at an earlier time today.
Use "idle" on either side for a break, e.g.

  gtrack fix --from idle --to "Client A" --at 09:15
  gtrack fix --from "Client A" --to idle --at 12:30`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := parseCorrection(fixFrom, fixTo, fixAt, time.Now())
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.tracker.Correct(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved time from %s to %s as of %s.\n", fixFrom, fixTo, fixAt)
			return nil
		})
	},
}

func init() {
	fixCmd.Flags().StringVar(&fixFrom, "from", "", `Job the time is taken from, or "idle"`)
	fixCmd.Flags().StringVar(&fixTo, "to", "", `Job the time is given to, or "idle"`)
	fixCmd.Flags().StringVar(&fixAt, "at", "", "Time of the switch today (HH:MM)")
	_ = fixCmd.MarkFlagRequired("from")
	_ = fixCmd.MarkFlagRequired("to")
	_ = fixCmd.MarkFlagRequired("at")
}

// parseCorrection turns the fix flags into a Correction on the day of now.
func parseCorrection(from, to, at string, now time.Time) (workday.Correction, error) {
	when, err := timecalc.ParseClock(at, now)
	if err != nil {
		return workday.Correction{}, usagef("--at: %v", err)
	}
	return workday.Correction{
		From: correctionSide(from),
		To:   correctionSide(to),
		At:   timecalc.Millis(when),
	}, nil
}

func correctionSide(name string) string {
	if strings.EqualFold(strings.TrimSpace(name), idleKeyword) {
		return model.IdleJob
	}
	return name
}
