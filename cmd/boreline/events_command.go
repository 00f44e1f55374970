package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"boreline/internal/events"
	"boreline/internal/ipc"
	"boreline/internal/opsaccess"
)

const followWait = 25 * time.Second

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var since uint64
	var limit int
	var follow bool
	var stationArg string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print recent change events from the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(access opsaccess.Access) error {
				req := ipc.EventsRequest{Since: since, Limit: limit}
				if strings.TrimSpace(stationArg) != "" {
					stationID, err := resolveStation(cmd.Context(), access, stationArg)
					if err != nil {
						return err
					}
					req.StationID = stationID
				}
				err := tailEvents(cmd.Context(), access, req, follow, func(evt events.Event) error {
					if ctx.jsonOutput() {
						return writeJSON(cmd, evt)
					}
					_, err := io.WriteString(cmd.OutOrStdout(), formatEvent(evt)+"\n")
					return err
				})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().Uint64Var(&since, "since", 0, "Only show events after this sequence number")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum events per batch")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep waiting for new events")
	cmd.Flags().StringVarP(&stationArg, "station", "s", "", "Only show events for this station")
	return cmd
}

// tailEvents prints one batch, or keeps long-polling while follow is set.
func tailEvents(ctx context.Context, access opsaccess.Access, req ipc.EventsRequest, follow bool, emit func(events.Event) error) error {
	for {
		if follow {
			req.WaitMillis = int(followWait / time.Millisecond)
		}
		resp, err := access.Events(ctx, req)
		if err != nil {
			return err
		}
		for _, evt := range resp.Events {
			if err := emit(evt); err != nil {
				return err
			}
		}
		if resp.Next > req.Since {
			req.Since = resp.Next
		}
		if !follow {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func formatEvent(evt events.Event) string {
	parts := []string{
		fmt.Sprintf("%6d", evt.Sequence),
		evt.Timestamp.Local().Format("15:04:05"),
		fmt.Sprintf("%-20s", evt.Type),
	}
	if evt.StationID != 0 {
		parts = append(parts, fmt.Sprintf("station=%d", evt.StationID))
	}
	if evt.WorkItemID != "" {
		parts = append(parts, "item="+evt.WorkItemID)
	}
	if evt.ActorID != "" {
		parts = append(parts, "actor="+evt.ActorID)
	}
	if evt.Status != "" {
		parts = append(parts, "status="+evt.Status)
	}
	if evt.Type == events.QueueUpdated {
		parts = append(parts, fmt.Sprintf("queue=%d", len(evt.Queue)))
	}
	if evt.Notes != "" {
		parts = append(parts, fmt.Sprintf("notes=%q", evt.Notes))
	}
	return strings.Join(parts, "  ")
}
