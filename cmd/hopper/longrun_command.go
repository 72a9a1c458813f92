package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hopper/internal/ipc"
)

func newLongRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "longrun on|off",
		Short: "Toggle long-running operation mode",
		Long:  "Long-running mode locks the reader panel, suppresses system idle, and boosts CPU governors when the overclock preference is enabled.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch args[0] {
			case "on":
				enabled = true
			case "off":
				enabled = false
			default:
				return fmt.Errorf("argument must be on or off, got %q", args[0])
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SetLongRunning(enabled)
				if err != nil {
					return fmt.Errorf("toggle long-running mode: %w", err)
				}
				if resp.LongRunning {
					fmt.Fprintln(cmd.OutOrStdout(), "Long-running mode enabled")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Long-running mode disabled")
				}
				return nil
			})
		},
	}
}
