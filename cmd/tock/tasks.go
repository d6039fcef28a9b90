package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tock/internal/domain/task"
)

func parseTaskID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad task id %q", arg)
	}
	return id, nil
}

func newAddCommand(a *app) *cobra.Command {
	var (
		project    string
		tags       []string
		due        string
		scheduled  string
		wait       string
		allocation time.Duration
		queue      bool
	)
	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := &task.Task{
				Description: strings.Join(args, " "),
				Project:     project,
				Tags:        tags,
				Allocation:  allocation,
			}
			for _, f := range []struct {
				raw  string
				dest **time.Time
			}{{due, &t.Due}, {scheduled, &t.Scheduled}, {wait, &t.Wait}} {
				if f.raw == "" {
					continue
				}
				when, err := parseWhen(f.raw)
				if err != nil {
					return err
				}
				*f.dest = &when
			}

			id, err := a.engine.Add(cmd.Context(), t)
			if err != nil {
				return err
			}
			if queue {
				if err := a.engine.Enqueue(cmd.Context(), id); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle(fmt.Sprintf("added task %d", id)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "project reference")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tags (repeatable)")
	cmd.Flags().StringVar(&due, "due", "", "due timestamp (RFC 3339)")
	cmd.Flags().StringVar(&scheduled, "scheduled", "", "scheduled timestamp (RFC 3339)")
	cmd.Flags().StringVar(&wait, "wait", "", "wait-until timestamp (RFC 3339)")
	cmd.Flags().DurationVar(&allocation, "allocation", 0, "work-time estimate (e.g. 2h30m)")
	cmd.Flags().BoolVarP(&queue, "queue", "q", false, "also place the task on the queue")
	return cmd
}

func newModifyCommand(a *app) *cobra.Command {
	var (
		description string
		project     string
		tags        []string
		allocation  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "modify <id>",
		Short: "Change a task's descriptive attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			err = a.engine.Modify(cmd.Context(), id, func(t *task.Task) {
				if cmd.Flags().Changed("description") {
					t.Description = description
				}
				if cmd.Flags().Changed("project") {
					t.Project = project
				}
				if cmd.Flags().Changed("tag") {
					t.Tags = tags
				}
				if cmd.Flags().Changed("allocation") {
					t.Allocation = allocation
				}
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle(fmt.Sprintf("modified task %d", id)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&project, "project", "p", "", "new project reference")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "replacement tag set")
	cmd.Flags().DurationVar(&allocation, "allocation", 0, "new work-time estimate")
	return cmd
}

func newAnnotateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "annotate <id> <note>",
		Short: "Append a note to a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			body := strings.Join(args[1:], " ")
			if err := a.engine.Annotate(cmd.Context(), id, body, time.Now()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle(fmt.Sprintf("annotated task %d", id)))
			return nil
		},
	}
}

func newDoneCommand(a *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Complete a task (stopping its timer if running)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			when, err := parseWhen(at)
			if err != nil {
				return err
			}
			res, err := a.engine.Complete(cmd.Context(), id, when)
			if err != nil {
				return err
			}
			printWarnings(cmd, res.Warnings)
			fmt.Fprintln(cmd.OutOrStdout(), okStyle(fmt.Sprintf("task %d completed", id)))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "completion timestamp (RFC 3339, default now)")
	return cmd
}

func newCancelCommand(a *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a task (stopping its timer if running)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			when, err := parseWhen(at)
			if err != nil {
				return err
			}
			res, err := a.engine.Cancel(cmd.Context(), id, when)
			if err != nil {
				return err
			}
			printWarnings(cmd, res.Warnings)
			fmt.Fprintln(cmd.OutOrStdout(), okStyle(fmt.Sprintf("task %d cancelled", id)))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "cancellation timestamp (RFC 3339, default now)")
	return cmd
}
