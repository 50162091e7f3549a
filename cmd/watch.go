package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Tiliavir/ghosttrack/internal/outbox"
)

var watchNoLogind bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep idle time current and retry queued uploads in the background",
	Long: `watch runs until interrupted. Every tick it rereads the store, so commands
run from other terminals are picked up, and it accrues idle time while no
job is clocked in. With a remote store configured it also flushes the
outbox periodically and whenever logind reports a wake-up or unlock.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, func(a *app) error {
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching (tick %s). Press Ctrl+C to stop.\n", cfg.Tracker.TickInterval)
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return a.tracker.Run(ctx) })
			if a.outbox != nil {
				triggers := []outbox.Trigger{outbox.Every(cfg.Outbox.FlushInterval)}
				if !watchNoLogind {
					triggers = append(triggers, outbox.Logind{})
				}
				g.Go(func() error { return a.outbox.Run(ctx, triggers...) })
			}
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchNoLogind, "no-logind", false, "Do not listen for wake/unlock events on the system bus")
}
