package commands

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"build-hooks/internal/buildhook"
	"build-hooks/pkg/filter"
)

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configured hook and the current workflow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.Service.Status(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), view)
			}

			out := cmd.OutOrStdout()
			if !view.Configured() {
				fmt.Fprintln(out, "No build hook configured.")
				return nil
			}
			fmt.Fprintf(out, "Type:    %s\n", view.TypeLabel)
			fmt.Fprintf(out, "URL:     %s\n", view.URL)
			fmt.Fprintf(out, "Trigger: %s\n", enabledLabel(view.TriggerEnabled))
			if view.Workflow != nil {
				fmt.Fprintf(out, "Workflow %s is %s (%s)\n", view.Workflow.ID, view.Workflow.Status, view.Workflow.Link)
			}
			if view.Error != "" {
				fmt.Fprintf(out, "Error:   %s\n", view.Error)
			}
			if len(view.Workflows) > 0 {
				fmt.Fprintln(out)
				return writeWorkflows(out, view.Workflows)
			}
			return nil
		},
	}
}

func NewWorkflowsCommand() *cobra.Command {
	var (
		include string
		exclude string
		latest  int
	)

	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "List the recent workflows of the configured CircleCI project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filter.NewFilter(filter.ParseList(include), filter.ParseList(exclude), latest)
			if err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := a.Service.RecentWorkflows(cmd.Context(), f)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			return writeWorkflows(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().StringVar(&include, "include", "", "Comma separated status patterns to keep")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Comma separated status patterns to drop")
	cmd.Flags().IntVar(&latest, "latest", 0, "Keep only the N most recent workflows")
	return cmd
}

func writeWorkflows(out io.Writer, rows []buildhook.WorkflowRow) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PIPELINE\tNAME\tSTATUS\tURL")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", strconv.Itoa(row.PipelineNumber), row.Name, row.Status, row.URL)
	}
	return tw.Flush()
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
