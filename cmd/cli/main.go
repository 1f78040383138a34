package main

import (
	"os"

	"github.com/spf13/cobra"

	"build-hooks/cmd/cli/commands"
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:          "build-hooks",
	Short:        "Trigger and inspect site builds.",
	Long:         `build-hooks triggers static site builds on CircleCI, Gatsby Cloud or Netlify and reports their workflow status.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	commands.AddPersistentFlags(rootCmd)

	rootCmd.AddCommand(commands.NewTriggerCommand())
	rootCmd.AddCommand(commands.NewStatusCommand())
	rootCmd.AddCommand(commands.NewWorkflowsCommand())
	rootCmd.AddCommand(commands.NewSettingsCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
