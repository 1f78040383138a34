package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"build-hooks/internal/buildhook"
)

func NewSettingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the build hook settings",
	}

	cmd.AddCommand(newSettingsShowCmd())
	cmd.AddCommand(newSettingsSetCmd())
	return cmd
}

func newSettingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.Service.Settings()
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), view)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Type:           %s\n", orNone(string(view.Type)))
			fmt.Fprintf(out, "Webhook URL:    %s\n", orNone(view.WebhookURL))
			fmt.Fprintf(out, "Repository:     %s\n", orNone(view.Repo))
			fmt.Fprintf(out, "Job:            %s\n", orNone(view.Job))
			fmt.Fprintf(out, "Token:          %s\n", orNone(view.TokenHint))
			fmt.Fprintf(out, "Trigger URL:    %s\n", orNone(view.URL))
			fmt.Fprintf(out, "Settings roles: %s\n", strings.Join(view.Roles.Settings, ", "))
			fmt.Fprintf(out, "Trigger roles:  %s\n", strings.Join(view.Roles.Trigger, ", "))
			return nil
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	var form buildhook.SettingsForm

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the stored settings; unset flags keep their value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			current, err := a.Service.Settings()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if !flags.Changed("type") {
				form.Type = string(current.Type)
			}
			if !flags.Changed("webhook-url") {
				form.WebhookURL = current.WebhookURL
			}
			if !flags.Changed("repo") {
				form.Repo = current.Repo
			}
			if !flags.Changed("job") {
				form.Job = current.Job
			}
			if !flags.Changed("settings-roles") {
				form.SettingsRoles = current.Roles.Settings
			}
			if !flags.Changed("trigger-roles") {
				form.TriggerRoles = current.Roles.Trigger
			}

			if err := a.Service.SaveSettings(form); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Settings saved.")
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Type, "type", "", "Hook type (circle_ci, gatsby, netlify)")
	cmd.Flags().StringVar(&form.WebhookURL, "webhook-url", "", "Webhook URL for gatsby and netlify")
	cmd.Flags().StringVar(&form.Repo, "repo", "", "CircleCI repository (owner/name)")
	cmd.Flags().StringVar(&form.Job, "job", "", "CircleCI job")
	cmd.Flags().StringVar(&form.Token, "token", "", "CircleCI API token; empty keeps the stored one")
	cmd.Flags().StringSliceVar(&form.SettingsRoles, "settings-roles", nil, "Roles allowed to change settings")
	cmd.Flags().StringSliceVar(&form.TriggerRoles, "trigger-roles", nil, "Roles allowed to trigger builds")
	return cmd
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
