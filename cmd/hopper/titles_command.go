package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hopper/internal/ipc"
)

func newTitlesCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "titles [QUERY]",
		Short: "List title-catalog entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TitleList(query, limit)
				if err != nil {
					return fmt.Errorf("list titles: %w", err)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Titles) == 0 {
					fmt.Fprintln(stdout, "No titles found")
					return nil
				}

				rows := make([][]string, 0, len(resp.Titles))
				for _, title := range resp.Titles {
					dumped := title.LastDumped
					if dumped == "" {
						dumped = "never"
					}
					rows = append(rows, []string{
						title.ID,
						title.Name,
						title.Region,
						title.Version,
						dumped,
					})
				}
				table := renderTable(
					[]string{"Title ID", "Name", "Region", "Version", "Last Dumped"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(stdout, table)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of titles to list (0 for all)")
	return cmd
}
