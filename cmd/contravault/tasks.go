package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/contravault/internal/commands"
	"github.com/sandeepkv93/contravault/internal/model"
	"github.com/sandeepkv93/contravault/internal/tasks"
	"github.com/sandeepkv93/contravault/internal/views"
)

func tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List, add, complete and show tasks",
	}
	cmd.AddCommand(tasksListCmd(), tasksAddCmd(), tasksDoneCmd(), tasksShowCmd())
	return cmd
}

func tasksListCmd() *cobra.Command {
	var (
		viewName   string
		tags       []string
		priorities []string
		statuses   []string
		search     string
		month      string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in one of the views",
		Long: `List active tasks, highest priority and earliest deadline first.

Examples:
  contravault tasks list
  contravault tasks list --view kanban --tag work
  contravault tasks list --view calendar --month 2026-03`,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := views.ParseView(viewName)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			filter := tasks.Filter{Tags: tags, Search: search}
			for _, p := range priorities {
				filter.Priorities = append(filter.Priorities, model.Priority(p))
			}
			for _, s := range statuses {
				filter.Statuses = append(filter.Statuses, model.Status(s))
			}
			var list []model.Task
			if filter.IsEmpty() {
				list, err = a.engine.ListTasks(ctx, a.userID())
			} else {
				list, err = a.engine.FilterTasks(ctx, a.userID(), filter)
			}
			if err != nil {
				return err
			}

			opts := views.Options{Now: time.Now(), Location: a.loc}
			if month != "" {
				if opts.Month, err = time.ParseInLocation("2006-01", month, a.loc); err != nil {
					return fmt.Errorf("invalid --month %q", month)
				}
			}
			if view == views.ViewDashboard {
				if opts.Stats, err = a.engine.GetUserStats(ctx, a.userID()); err != nil {
					return err
				}
			}
			projection, err := views.Build(view, list, opts)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), views.Render(view, projection, a.loc), projection)
		},
	}
	cmd.Flags().StringVarP(&viewName, "view", "v", string(views.ViewList), "list, kanban, calendar, timeline, matrix or dashboard")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "only tasks with any of these tags")
	cmd.Flags().StringSliceVarP(&priorities, "priority", "p", nil, "only these priorities")
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "only these statuses")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive text in title or description")
	cmd.Flags().StringVar(&month, "month", "", "calendar month as YYYY-MM")
	return cmd
}

func tasksAddCmd() *cobra.Command {
	var (
		description string
		when        string
		priority    string
		tags        []string
		parent      string
		estimate    int
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Long: `Create a task. Only one active task may be due in any given minute.

Examples:
  contravault tasks add "Pay rent" --due tomorrow@09:00 --priority high
  contravault tasks add "Draft report" --due 2026-03-12T16:30 --tag work`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			title := strings.Join(args, " ")
			if description == "" {
				description = title
			}
			deadline, err := commands.ResolveWhen(when, time.Now(), a.loc)
			if err != nil {
				return err
			}
			task, err := a.engine.CreateTask(ctx, a.userID(), model.TaskInput{
				Title:            title,
				Description:      description,
				Deadline:         deadline,
				Priority:         model.Priority(priority),
				Tags:             tags,
				ParentTaskID:     parent,
				EstimatedMinutes: estimate,
			})
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), views.RenderTaskLine(task, a.loc), task)
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "description, markdown allowed (default: the title)")
	cmd.Flags().StringVar(&when, "due", "tomorrow", "deadline: RFC3339, YYYY-MM-DD[THH:MM], today|tomorrow[@HH:MM] or +span")
	cmd.Flags().StringVarP(&priority, "priority", "p", string(model.PriorityMedium), "low, medium or high")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tags")
	cmd.Flags().StringVar(&parent, "parent", "", "parent task id")
	cmd.Flags().IntVar(&estimate, "estimate", 0, "estimated minutes")
	return cmd
}

func tasksDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := a.engine.UpdateStatus(ctx, args[0], a.userID(), model.StatusDone)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), views.RenderStatus("completed "+task.Title), task)
		},
	}
}

func tasksShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task with its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := a.engine.GetTask(ctx, args[0], a.userID())
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), views.RenderTask(task, a.loc), task)
		},
	}
}
