package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hopper/internal/ipc"
)

func newPathCommand(ctx *commandContext) *cobra.Command {
	var prefix string
	var extension string
	var forceASCII bool

	cmd := &cobra.Command{
		Use:   "path NAME",
		Short: "Preview the output path generated for a title name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PathPreview(ipc.PathPreviewRequest{
					Prefix:     prefix,
					Name:       args[0],
					Extension:  extension,
					ForceASCII: forceASCII,
				})
				if err != nil {
					return fmt.Errorf("build path: %w", err)
				}
				stdout := cmd.OutOrStdout()
				if resp.Sanitized != args[0] {
					fmt.Fprintf(stdout, "Sanitized name: %s\n", resp.Sanitized)
				}
				fmt.Fprintln(stdout, resp.Path)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Directory prefix (defaults to the dumps directory)")
	cmd.Flags().StringVar(&extension, "ext", "", "File extension, including the leading dot")
	cmd.Flags().BoolVar(&forceASCII, "ascii", false, "Replace non-ASCII characters regardless of preferences")
	return cmd
}

func newSanitizeCommand(ctx *commandContext) *cobra.Command {
	var forceASCII bool

	cmd := &cobra.Command{
		Use:   "sanitize NAME",
		Short: "Preview illegal-character replacement for a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SanitizePreview(ipc.SanitizeRequest{
					Name:       args[0],
					ForceASCII: forceASCII,
				})
				if err != nil {
					return fmt.Errorf("sanitize name: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Sanitized)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&forceASCII, "ascii", false, "Replace non-ASCII characters regardless of preferences")
	return cmd
}
