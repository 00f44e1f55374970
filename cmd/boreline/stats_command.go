package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"boreline/internal/api"
	"boreline/internal/opsaccess"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show pipeline counters per station",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(access opsaccess.Access) error {
				stats, err := access.Stats(cmd.Context())
				if err != nil {
					return err
				}
				return ctx.emit(cmd, stats, func() string {
					return renderStats(stats)
				})
			})
		},
	}
}

func renderStats(stats api.Stats) string {
	rows := make([][]string, 0, len(stats.Stations)+5)
	for _, load := range stats.Stations {
		rows = append(rows, []string{
			load.Station.Name,
			strconv.Itoa(load.Pending),
			strconv.Itoa(load.InProgress),
		})
	}
	out := renderTable([]column{left("Station"), right("Pending"), right("In Progress")}, rows)
	totals := [][]string{
		{"Ready to ship", strconv.Itoa(stats.ReadyToShip)},
		{"Hold", strconv.Itoa(stats.Hold)},
		{"Rework", strconv.Itoa(stats.Rework)},
		{"Scrap", strconv.Itoa(stats.Scrap)},
		{"Total", strconv.Itoa(stats.Total)},
	}
	return out + renderTable([]column{left("Status"), right("Count")}, totals)
}
