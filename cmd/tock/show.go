package main

import (
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"tock/internal/engine"
)

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the timer and the queue front",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.engine.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if snap.Running != nil {
				fmt.Fprintln(out, runningStyle(fmt.Sprintf("timing task %d: %s",
					snap.Running.Task.ID, snap.Running.Task.Description)))
			} else {
				fmt.Fprintln(out, gray("timer idle"))
			}
			if len(snap.Queue) == 0 {
				fmt.Fprintln(out, gray("queue empty"))
				return nil
			}
			fmt.Fprintf(out, "%s %d task(s) queued; next: %s\n",
				bold("queue:"), len(snap.Queue), snap.Queue[0].Task.Description)
			return nil
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"snapshot"},
		Short:   "Show the queue (or all tasks) with derived status",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.engine.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			views := snap.Queue
			if all {
				views = snap.Tasks
			}
			renderViews(cmd, views)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include tasks not on the queue")
	return cmd
}

func renderViews(cmd *cobra.Command, views []*engine.TaskView) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"ID", "POS", "STATUS", "DESCRIPTION", "PROJECT", "WORKED", "WAITING ON"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	for _, v := range views {
		pos := ""
		if v.Task.QueuePosition != nil {
			pos = fmt.Sprintf("%d", *v.Task.QueuePosition)
		}
		worked := ""
		if v.Worked > 0 {
			worked = v.Worked.Round(time.Second).String()
		}
		waiting := ""
		if v.Waiting != nil {
			waiting = v.Waiting.Recipient
		}
		table.Append([]string{
			fmt.Sprintf("%d", v.Task.ID),
			pos,
			string(v.Status),
			v.Task.Description,
			v.Task.Project,
			worked,
			waiting,
		})
	}
	table.Render()
}

func newLogCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "log <id>",
		Short: "List a task's recorded sessions and notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			sessions, err := a.engine.Sessions(cmd.Context(), id)
			if err != nil {
				return err
			}
			annotations, err := a.engine.Annotations(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, gray("no sessions recorded"))
			}
			for _, s := range sessions {
				if s.Open() {
					fmt.Fprintf(out, "%s %s  %s\n", runningStyle("▶"),
						s.Start.Format(time.RFC3339), gray("running"))
					continue
				}
				fmt.Fprintf(out, "  %s  %s\n", s.Start.Format(time.RFC3339),
					s.Duration().Round(time.Second))
			}
			for _, an := range annotations {
				fmt.Fprintf(out, "  %s  %s\n", an.At.Format(time.RFC3339), an.Body)
			}
			return nil
		},
	}
}
