package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Manage today's jobs",
}

var jobAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a job to today",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.tracker.AddJob(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added job %q.\n", strings.TrimSpace(name))
			return nil
		})
	},
}

var jobRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a job and all its sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.tracker.DeleteJob(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed job %q.\n", strings.TrimSpace(name))
			return nil
		})
	},
}

var inCmd = &cobra.Command{
	Use:   "in <job>",
	Short: "Clock in to a job, clocking out of any other",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.tracker.ClockIn(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Clocked in to %q.\n", strings.TrimSpace(name))
			return nil
		})
	},
}

var outCmd = &cobra.Command{
	Use:   "out <job>",
	Short: "Clock out of a job",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		return withApp(cmd.Context(), func(a *app) error {
			stopped, err := a.tracker.ClockOut(cmd.Context(), name)
			if err != nil {
				return err
			}
			if !stopped {
				fmt.Fprintf(cmd.OutOrStdout(), "%q was not running.\n", strings.TrimSpace(name))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Clocked out of %q.\n", strings.TrimSpace(name))
			return nil
		})
	},
}

var breakCmd = &cobra.Command{
	Use:   "break",
	Short: "Clock out of every job",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			n, err := a.tracker.TakeBreak(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "On a break (%d job(s) stopped).\n", n)
			return nil
		})
	},
}

var taskCmd = &cobra.Command{
	Use:   "task <job> <text>",
	Short: "Log a task done on a job today",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args[1:], " ")
		return withApp(cmd.Context(), func(a *app) error {
			return a.tracker.AddTask(cmd.Context(), args[0], text)
		})
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage recorded sessions",
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <job> <n>",
	Short: "Delete the n-th session (1-based, as listed) of a job",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return usagef("session number must be a positive integer, got %q", args[1])
		}
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.tracker.DeleteSession(cmd.Context(), args[0], n-1); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %d of %q.\n", n, args[0])
			return nil
		})
	},
}

func init() {
	jobCmd.AddCommand(jobAddCmd)
	jobCmd.AddCommand(jobRmCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}
