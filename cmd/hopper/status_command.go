package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"hopper/internal/api"
	"hopper/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and resource status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return fmt.Errorf("query status: %w", err)
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				status := resp.Status

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				runningKind := statusOK
				runningDetail := fmt.Sprintf("pid %d, up %s", status.PID, status.Uptime)
				if !status.Running {
					runningKind = statusError
					runningDetail = "resources not initialized"
				}
				fmt.Fprintln(stdout, renderStatusLine("Running", runningKind, runningDetail, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Session", statusInfo, status.SessionID, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Launch path", statusInfo, status.LaunchPath, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Log file", statusInfo, status.LogPath, colorize))
				longRunKind := statusInfo
				if status.LongRunning {
					longRunKind = statusWarn
				}
				fmt.Fprintln(stdout, renderStatusLine("Long-running mode", longRunKind, yesNo(status.LongRunning), colorize))
				fmt.Fprintln(stdout)

				if !status.Running {
					return nil
				}

				for _, line := range renderSectionHeader("Platform", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, line := range platformLines(status, colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout)

				for _, line := range renderSectionHeader("Resources", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, line := range resourceLines(status, colorize) {
					fmt.Fprintln(stdout, line)
				}
				return nil
			})
		},
	}
}

func platformLines(status api.StatusSnapshot, colorize bool) []string {
	board := status.Board
	if status.Revised {
		board += " (revised)"
	}
	lines := []string{
		renderStatusLine("Board", statusInfo, board, colorize),
		renderStatusLine("System flavor", statusInfo, status.Flavor, colorize),
		renderStatusLine("Run mode", statusInfo, status.RunMode, colorize),
	}
	devKind := statusInfo
	if status.DevUnit {
		devKind = statusWarn
	}
	lines = append(lines, renderStatusLine("Development unit", devKind, yesNo(status.DevUnit), colorize))
	return lines
}

func resourceLines(status api.StatusSnapshot, colorize bool) []string {
	volumeDetail := status.VolumeMount
	if status.VolumeFree != "" {
		volumeDetail = fmt.Sprintf("%s (%s free)", status.VolumeMount, status.VolumeFree)
	}
	slotKind := statusInfo
	if status.SlotState == "ready" {
		slotKind = statusOK
	}
	keyKind := statusOK
	if status.KeyCount == 0 {
		keyKind = statusWarn
	}
	return []string{
		renderStatusLine("Output volume", statusOK, volumeDetail, colorize),
		renderStatusLine("Cartridge slot", slotKind, status.SlotState, colorize),
		renderStatusLine("Keys loaded", keyKind, strconv.Itoa(status.KeyCount), colorize),
		renderStatusLine("Catalog titles", statusInfo, strconv.FormatInt(status.TitleCount, 10), colorize),
	}
}
