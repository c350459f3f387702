package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/contravault/internal/commands"
	"github.com/sandeepkv93/contravault/internal/model"
)

func doCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "do <command>",
		Short: "Run a quick command",
		Long: `Run a one-line quick command.

Commands:
  add <title> [@when] [!low|!medium|!high] [#tag ...]
  done <id>
  archive <id>
  snooze <id> <duration>
  reschedule <id> <when>
  show <list|kanban|calendar|timeline|matrix|dashboard> [tag:<tag>]

Examples:
  contravault do add pay rent @tomorrow@09:00 !high #finance
  contravault do snooze 3f2a... 2 days
  contravault do show kanban tag:work`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			env := commands.Env{
				Service:         a.engine,
				UserID:          a.userID(),
				Now:             time.Now,
				Location:        a.loc,
				DefaultPriority: model.PriorityMedium,
			}
			res, err := env.Run(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), res.Message, res)
		},
	}
}
