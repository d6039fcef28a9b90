package main

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

func newQueueCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Manage the ready queue",
	}
	cmd.AddCommand(
		newEnqueueCommand(a),
		newSelectCommand(a),
		newPromoteCommand(a),
		newRotateCommand(a),
		newRemoveCommand(a),
		newClearCommand(a),
	)
	return cmd
}

func newEnqueueCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "push <id>",
		Short: "Place a task at the back of the queue (bumping if already queued)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			if err := a.engine.Enqueue(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle(fmt.Sprintf("task %d queued", id)))
			return nil
		},
	}
}

func newSelectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "select [index]",
		Short: "Resolve a queue index (default 0, the front) to a task id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := 0
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("bad index %q", args[0])
				}
				index = n
			}
			id, err := a.engine.SelectAt(cmd.Context(), index)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newPromoteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "promote <id>",
		Short: "Move a task to the front of the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			if err := a.engine.PromoteToFront(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle(fmt.Sprintf("task %d promoted to front", id)))
			return nil
		},
	}
}

func newRotateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate [n]",
		Short: "Move the front n tasks (default 1) to the back",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 1
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("bad count %q", args[0])
				}
				n = v
			}
			if err := a.engine.Rotate(cmd.Context(), n); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle("queue rotated"))
			return nil
		},
	}
}

func newRemoveCommand(a *app) *cobra.Command {
	var byIndex int
	cmd := &cobra.Command{
		Use:   "remove [id]",
		Short: "Take a task off the queue, by id or with --index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("index") {
				id, err := a.engine.RemoveAt(cmd.Context(), byIndex)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), okStyle(fmt.Sprintf("task %d removed from queue", id)))
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("need a task id or --index")
			}
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			if err := a.engine.Remove(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle(fmt.Sprintf("task %d removed from queue", id)))
			return nil
		},
	}
	cmd.Flags().IntVar(&byIndex, "index", 0, "remove by queue index instead of id")
	return cmd
}

func newClearCommand(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force && isTTY() {
				prompt := promptui.Prompt{
					Label:     "Empty the entire queue",
					IsConfirm: true,
				}
				if _, err := prompt.Run(); err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), gray("aborted"))
					return nil
				}
			}
			if err := a.engine.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle("queue cleared"))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}
