package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/ghosttrack/internal/config"
	"github.com/Tiliavir/ghosttrack/internal/workday"
)

var (
	cfg    config.Config
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "gtrack",
	Short: "GhostTrack – a work log with retroactive corrections",
	Long: `gtrack tracks the jobs you work on during a day, accounts for the idle
time between them and lets you fix the record after the fact
("I switched to B at 10:30"). Saved days are synced to a remote store.

Data and configuration live in ~/.gtrack/ (override with $GTRACK_HOME).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps user mistakes and unmet preconditions to 1 and everything
// else, storage failures above all, to 2.
func exitCode(err error) int {
	var verr *workday.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, workday.ErrNoActiveDay),
		errors.Is(err, workday.ErrDayActive),
		errors.Is(err, workday.ErrJobRunning),
		errors.Is(err, workday.ErrNothingToSave),
		errors.Is(err, workday.ErrNoSavedLog),
		errors.Is(err, errUsage):
		return 1
	default:
		return 2
	}
}

// errUsage marks bad command-line input that cobra itself does not catch.
var errUsage = errors.New("usage error")

func usagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)
	return nil
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(inCmd)
	rootCmd.AddCommand(outCmd)
	rootCmd.AddCommand(breakCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(outboxCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
}
