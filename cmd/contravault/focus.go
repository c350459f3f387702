package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/contravault/internal/focus"
)

func focusCmd() *cobra.Command {
	var taskID string
	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Run a pomodoro timer, optionally logging time on a task",
		Long: `Run a pomodoro timer in the terminal.

Keys: [space] start/pause, [r] reset, [n] next phase, [q] quit.
With --task, every finished work phase logs its minutes on that task.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := focus.Options{Work: a.cfg.Focus.Work, Break: a.cfg.Focus.Break}
			if taskID != "" {
				task, err := a.engine.GetTask(ctx, taskID, a.userID())
				if err != nil {
					return err
				}
				opts.TaskTitle = task.Title
				opts.Log = func(minutes int) error {
					_, err := a.engine.LogTime(ctx, task.ID, a.userID(), minutes)
					return err
				}
			}
			final, err := focus.Run(ctx, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pomodoros: %d, logged: %dm\n", final.Session.Pomodoros, final.Logged)
			return nil
		},
	}
	cmd.Flags().StringVar(&taskID, "task", "", "task id to log worked minutes on")
	return cmd
}
