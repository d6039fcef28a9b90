package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSendCommand(a *app) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "send <id> <recipient>",
		Short: "Hand a task to someone else and take it off the queue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			recipient := args[1]
			if err := a.engine.Send(cmd.Context(), id, recipient, note, time.Now()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(),
				okStyle(fmt.Sprintf("task %d sent to %s", id, recipient)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&note, "message", "m", "", "note to record with the handoff")
	return cmd
}

func newRecallCommand(a *app) *cobra.Command {
	var position int
	cmd := &cobra.Command{
		Use:   "recall <id>",
		Short: "Take a task back from its recipient and requeue it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			if err := a.engine.Recall(cmd.Context(), id, position); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle(fmt.Sprintf("task %d recalled", id)))
			return nil
		},
	}
	cmd.Flags().IntVar(&position, "position", 0, "queue position to re-enter at (default front)")
	return cmd
}
