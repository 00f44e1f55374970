package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"boreline/internal/api"
	"boreline/internal/opsaccess"
)

type operationSpec struct {
	action string
	use    string
	short  string
	done   string
}

var operationSpecs = []operationSpec{
	{api.ActionStart, "start <barrel>", "Claim a barrel at a station", "Started"},
	{api.ActionPause, "pause <barrel>", "Pause the open station visit", "Paused"},
	{api.ActionResume, "resume <barrel>", "Resume a paused station visit", "Resumed"},
	{api.ActionComplete, "complete <barrel>", "Finish the current station and advance", "Completed"},
	{api.ActionRelease, "release <barrel>", "Force-release a claim back to pending (admin)", "Released"},
	{api.ActionQuarantine, "quarantine <barrel>", "Move a barrel to hold, rework or scrap", "Quarantined"},
}

func newOperationCommands(ctx *commandContext) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(operationSpecs))
	for _, spec := range operationSpecs {
		cmds = append(cmds, newOperationCommand(ctx, spec))
	}
	return cmds
}

func newOperationCommand(ctx *commandContext, spec operationSpec) *cobra.Command {
	var stationArg string
	var req api.TransitionRequest
	cmd := &cobra.Command{
		Use:   spec.use,
		Short: spec.short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := ctx.actor()
			if err != nil {
				return err
			}
			req.ActorID = actor
			if spec.action == api.ActionQuarantine && strings.TrimSpace(req.Kind) == "" {
				return fmt.Errorf("--kind is required (hold, rework or scrap)")
			}
			return ctx.withAccess(cmd, func(access opsaccess.Access) error {
				if spec.action == api.ActionStart {
					if strings.TrimSpace(stationArg) == "" {
						return fmt.Errorf("--station is required")
					}
					stationID, err := resolveStation(cmd.Context(), access, stationArg)
					if err != nil {
						return err
					}
					req.StationID = stationID
				}
				itemID, err := resolveItem(cmd.Context(), access, args[0])
				if err != nil {
					return err
				}
				resp, err := access.Apply(cmd.Context(), spec.action, itemID, req)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, resp, func() string {
					return spec.done + " " + renderItemSummary(resp.Item)
				})
			})
		},
	}
	switch spec.action {
	case api.ActionStart:
		cmd.Flags().StringVarP(&stationArg, "station", "s", "", "Station id, name or token")
		cmd.Flags().StringVarP(&req.Notes, "notes", "n", "", "Notes for the station visit")
	case api.ActionComplete:
		cmd.Flags().StringVarP(&req.Notes, "notes", "n", "", "Notes for the station visit")
	case api.ActionRelease:
		cmd.Flags().StringVarP(&req.Reason, "reason", "r", "", "Reason recorded on the closed visit")
	case api.ActionQuarantine:
		cmd.Flags().StringVarP(&req.Kind, "kind", "k", "", "hold, rework or scrap")
		cmd.Flags().StringVarP(&req.Reason, "reason", "r", "", "Reason recorded on the closed visit")
	}
	return cmd
}
