package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

var (
	configPath string
	userFlag   string
	jsonOutput bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "contravault",
		Short:         "Personal task manager with deadlines, views, streaks and a focus timer",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: search user config dir, then ./contravault.yaml)")
	root.PersistentFlags().StringVar(&userFlag, "user", "", "user id to act as (default: config user)")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of rendered output")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(tasksCmd())
	root.AddCommand(doCmd())
	root.AddCommand(focusCmd())
	root.AddCommand(tokenCmd())
	root.AddCommand(configCmd())
	return root
}
