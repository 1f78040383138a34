package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"build-hooks/internal/buildhook"
)

func NewTriggerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Trigger a build with the stored configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Service.Trigger(cmd.Context(), buildhook.RoleAdministrator)
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), result)
			}
			if result.WorkflowID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s build triggered, workflow %s.\n", result.Type.Label(), result.WorkflowID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s build triggered.\n", result.Type.Label())
			return nil
		},
	}
	return cmd
}
