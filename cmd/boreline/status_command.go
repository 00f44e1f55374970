package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"boreline/internal/daemonctl"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, environment and pipeline status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), ctx.configValue())
			if err != nil {
				return err
			}
			colorize := shouldColorize(cmd.OutOrStdout())
			return ctx.emit(cmd, snapshot, func() string {
				return renderStatus(snapshot, colorize)
			})
		},
	}
}

func renderStatus(snapshot *daemonctl.StatusSnapshot, colorize bool) string {
	var b strings.Builder
	writeLines := func(lines ...string) {
		for _, line := range lines {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	status := snapshot.Status

	writeLines(renderSectionHeader("Daemon", colorize)...)
	if snapshot.Reachable && status.Running {
		detail := "Running"
		if status.PID > 0 {
			detail = fmt.Sprintf("Running (pid %d)", status.PID)
		}
		writeLines(renderStatusLine("Boreline", statusOK, detail, colorize))
	} else if snapshot.Reachable {
		writeLines(renderStatusLine("Boreline", statusWarn, "Reachable, workflow stopped", colorize))
	} else {
		writeLines(renderStatusLine("Boreline", statusError, "Not running", colorize))
	}
	if status.StartedAt != "" {
		writeLines(renderStatusLine("Started", statusInfo, shortTime(status.StartedAt), colorize))
	}
	if status.APIAddress != "" {
		writeLines(renderStatusLine("HTTP API", statusInfo, status.APIAddress, colorize))
	}
	if snapshot.Reachable {
		writeLines(renderStatusLine("Events", statusInfo, fmt.Sprintf("seq %d, %d subscribers", status.EventSequence, status.Subscribers), colorize))
	}
	writeLines(renderStatusLine("Socket", statusInfo, status.SocketPath, colorize))
	writeLines(renderStatusLine("Lock", statusInfo, status.LockFilePath, colorize))
	b.WriteString("\n")

	if len(snapshot.Checks) > 0 {
		writeLines(renderSectionHeader("Environment", colorize)...)
		for _, check := range snapshot.Checks {
			kind := statusOK
			if !check.Passed {
				kind = statusError
			}
			writeLines(renderStatusLine(check.Name, kind, check.Detail, colorize))
		}
		b.WriteString("\n")
	}

	writeLines(renderSectionHeader("Pipeline", colorize)...)
	if status.Stats.Total == 0 {
		writeLines("No barrels registered")
		return b.String()
	}
	rows := make([][]string, 0, len(status.Stats.Stations))
	for _, load := range status.Stats.Stations {
		if load.Pending == 0 && load.InProgress == 0 {
			continue
		}
		rows = append(rows, []string{load.Station.Name, strconv.Itoa(load.Pending), strconv.Itoa(load.InProgress)})
	}
	if len(rows) > 0 {
		b.WriteString(renderTable([]column{left("Station"), right("Pending"), right("In Progress")}, rows))
	}
	writeLines(fmt.Sprintf("Ready to ship: %d  Hold: %d  Rework: %d  Scrap: %d  Total: %d",
		status.Stats.ReadyToShip, status.Stats.Hold, status.Stats.Rework, status.Stats.Scrap, status.Stats.Total))
	return b.String()
}
