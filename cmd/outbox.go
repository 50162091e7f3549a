package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ghosttrack/internal/timecalc"
)

var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Inspect and flush uploads waiting for the remote store",
}

var outboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued uploads, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			items, err := a.local.Outbox(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "Outbox is empty.")
				return nil
			}
			for _, it := range items {
				fmt.Fprintf(out, "%s  %-8s %s (%d bytes)\n",
					timecalc.FromMillis(it.TS).Format("2006-01-02 15:04"), it.Type, it.ID, len(it.Payload))
			}
			return nil
		})
	},
}

var outboxFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Send queued uploads now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if a.outbox == nil {
				return errNoRemote
			}
			res, err := a.outbox.Flush(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d, dropped %d, %d remaining.\n", res.Sent, res.Dropped, res.Remaining)
			return err
		})
	},
}

func init() {
	outboxCmd.AddCommand(outboxListCmd)
	outboxCmd.AddCommand(outboxFlushCmd)
}
