package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hopper/internal/buildinfo"
	"hopper/internal/logging"
	"hopper/internal/netclient"
	"hopper/internal/update"
)

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Check the release endpoint for a newer version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Updates.Endpoint == "" {
				return fmt.Errorf("updates.endpoint is not configured")
			}

			client := netclient.Start(cfg, logging.NewNop())
			defer client.Close()

			timeout := time.Duration(cfg.Updates.TimeoutSeconds) * time.Second
			if timeout <= 0 {
				timeout = 15 * time.Second
			}
			fetchCtx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			release, err := update.Fetch(fetchCtx, client, cfg.Updates.Endpoint)
			if err != nil {
				return fmt.Errorf("check for updates: %w", err)
			}

			stdout := cmd.OutOrStdout()
			current, err := update.ParseVersion(buildinfo.Version)
			if err != nil {
				return fmt.Errorf("parse running version: %w", err)
			}
			latest, err := update.ParseVersion(release.Tag)
			if err != nil {
				return fmt.Errorf("parse release tag %q: %w", release.Tag, err)
			}

			fmt.Fprintf(stdout, "Running: %s\n", buildinfo.Version)
			fmt.Fprintf(stdout, "Latest:  %s (published %s)\n", release.Tag, release.Published.Format(time.RFC3339))
			if !latest.NewerThan(current) {
				fmt.Fprintln(stdout, "Already up to date")
				return nil
			}
			fmt.Fprintf(stdout, "Update available: %s\n", release.AssetName)
			if release.AssetURL != "" {
				fmt.Fprintln(stdout, release.AssetURL)
			}
			return nil
		},
	}
}
