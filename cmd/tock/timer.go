package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"tock/internal/engine"
)

func newStartCommand(a *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "start [id]",
		Short: "Start timing a task (default: the queue front)",
		Long: `Start timing. With no argument the task at the queue front is
started. With an id, any running session is closed at the same instant the
new one opens, and the task moves to the queue front.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseWhen(at)
			if err != nil {
				return err
			}
			var res *engine.TimerResult
			if len(args) == 1 {
				id, err := parseTaskID(args[0])
				if err != nil {
					return err
				}
				res, err = a.engine.StartFor(cmd.Context(), id, when)
				if err != nil {
					return err
				}
			} else {
				res, err = a.engine.StartDefault(cmd.Context(), when)
				if err != nil {
					return err
				}
			}
			printWarnings(cmd, res.Warnings)
			fmt.Fprintln(cmd.OutOrStdout(),
				okStyle(fmt.Sprintf("timing task %d", res.Session.TaskID)))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "start timestamp (RFC 3339, default now)")
	return cmd
}

func newStopCommand(a *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseWhen(at)
			if err != nil {
				return err
			}
			res, err := a.engine.Stop(cmd.Context(), when)
			if err != nil {
				return err
			}
			printWarnings(cmd, res.Warnings)
			fmt.Fprintln(cmd.OutOrStdout(), okStyle(fmt.Sprintf(
				"stopped task %d after %s",
				res.Session.TaskID, res.Session.Duration().Round(time.Second))))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "stop timestamp (RFC 3339, default now)")
	return cmd
}

func newDropCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <session-id>",
		Short: "Delete a recorded session from the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sid, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || sid <= 0 {
				return fmt.Errorf("bad session id %q", args[0])
			}
			if err := a.engine.DropSession(cmd.Context(), sid); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle(fmt.Sprintf("session %d dropped", sid)))
			return nil
		},
	}
}

func newIntervalCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "interval <id> <start> <end>",
		Short: "Backfill a closed session (RFC 3339 timestamps)",
		Long: `Record a finished work interval directly. Overlap with existing
sessions is resolved by shortening the existing session, never by rejecting
the new interval.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			start, err := parseWhen(args[1])
			if err != nil {
				return err
			}
			end, err := parseWhen(args[2])
			if err != nil {
				return err
			}
			res, err := a.engine.Interval(cmd.Context(), id, start, end)
			if err != nil {
				return err
			}
			printWarnings(cmd, res.Warnings)
			fmt.Fprintln(cmd.OutOrStdout(), okStyle(fmt.Sprintf(
				"recorded %s for task %d", res.Session.Duration().Round(time.Second), id)))
			return nil
		},
	}
}
