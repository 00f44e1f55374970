package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"boreline/internal/api"
	"boreline/internal/opsaccess"
)

func newStationsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stations",
		Short: "List pipeline stations in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(access opsaccess.Access) error {
				resp, err := access.Stations(cmd.Context())
				if err != nil {
					return err
				}
				return ctx.emit(cmd, resp, func() string {
					rows := make([][]string, 0, len(resp.Stations))
					for _, st := range resp.Stations {
						rows = append(rows, []string{
							strconv.Itoa(st.SequenceNumber),
							strconv.FormatInt(st.ID, 10),
							st.Name,
							st.Token,
							yesNo(st.Active),
							st.Description,
						})
					}
					return renderTable([]column{
						right("#"), right("ID"), left("Name"), left("Token"), left("Active"), left("Description"),
					}, rows)
				})
			})
		},
	}
}

func newQueueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "queue <station>",
		Short: "Show a station's work queue",
		Long:  "Show the pending and in-progress barrels at a station, in-progress first, then by priority and age. The station may be given by id, name or token.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(access opsaccess.Access) error {
				stationID, err := resolveStation(cmd.Context(), access, args[0])
				if err != nil {
					return err
				}
				resp, err := access.Queue(cmd.Context(), stationID)
				if err != nil {
					return err
				}
				colorize := shouldColorize(cmd.OutOrStdout())
				return ctx.emit(cmd, resp, func() string {
					title := fmt.Sprintf("%s (%d)\n", resp.Station.Name, len(resp.Items))
					return title + renderItems(resp.Items, "Queue is empty", colorize)
				})
			})
		},
	}
}

// resolveStation accepts a station id, name or status token.
func resolveStation(ctx context.Context, access opsaccess.Access, value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("station is required")
	}
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		return id, nil
	}
	resp, err := access.Stations(ctx)
	if err != nil {
		return 0, err
	}
	if st, ok := matchStation(resp.Stations, value); ok {
		return st.ID, nil
	}
	return 0, fmt.Errorf("unknown station %q", value)
}

func matchStation(stations []api.Station, value string) (api.Station, bool) {
	for _, st := range stations {
		if strings.EqualFold(st.Name, value) || strings.EqualFold(st.Token, value) {
			return st, true
		}
	}
	return api.Station{}, false
}
