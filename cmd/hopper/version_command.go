package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hopper/internal/buildinfo"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "hopper %s\n", buildinfo.Version)
			if buildinfo.Commit != "" {
				fmt.Fprintf(out, "commit %s\n", buildinfo.Commit)
			}
			return nil
		},
	}
}
