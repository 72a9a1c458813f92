package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hopper/internal/api"
	"hopper/internal/ipc"
)

func newPrefsCommand(ctx *commandContext) *cobra.Command {
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show runtime preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Prefs()
				if err != nil {
					return fmt.Errorf("read preferences: %w", err)
				}
				printPreferences(cmd, resp.Prefs)
				return nil
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set NAME on|off",
		Short: "Update one runtime preference",
		Long:  "Preference names: overclock, ascii_names, capture.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch args[1] {
			case "on":
				enabled = true
			case "off":
				enabled = false
			default:
				return fmt.Errorf("value must be on or off, got %q", args[1])
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SetPref(args[0], enabled)
				if err != nil {
					return fmt.Errorf("update preference: %w", err)
				}
				printPreferences(cmd, resp.Prefs)
				return nil
			})
		},
	}

	prefsCmd.AddCommand(setCmd)
	return prefsCmd
}

func printPreferences(cmd *cobra.Command, prefs api.Preferences) {
	stdout := cmd.OutOrStdout()
	fmt.Fprintf(stdout, "overclock:   %s\n", yesNo(prefs.Overclock))
	fmt.Fprintf(stdout, "ascii_names: %s\n", yesNo(prefs.ASCIINames))
	fmt.Fprintf(stdout, "capture:     %s\n", yesNo(prefs.Capture))
}
