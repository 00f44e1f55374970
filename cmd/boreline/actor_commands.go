package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"boreline/internal/api"
	"boreline/internal/opsaccess"
)

func newActorCommand(ctx *commandContext) *cobra.Command {
	actorCmd := &cobra.Command{
		Use:     "actors",
		Aliases: []string{"actor"},
		Short:   "Manage operators, supervisors and admins",
	}
	actorCmd.AddCommand(newActorListCommand(ctx))
	actorCmd.AddCommand(newActorRegisterCommand(ctx))
	actorCmd.AddCommand(newActorAssignCommand(ctx, false))
	actorCmd.AddCommand(newActorAssignCommand(ctx, true))
	actorCmd.AddCommand(newActorStatusCommand(ctx, true))
	actorCmd.AddCommand(newActorStatusCommand(ctx, false))
	return actorCmd
}

func newActorListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List actors and their station assignments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(access opsaccess.Access) error {
				resp, err := access.Actors(cmd.Context())
				if err != nil {
					return err
				}
				return ctx.emit(cmd, resp, func() string {
					if len(resp.Actors) == 0 {
						return "No actors registered\n"
					}
					rows := make([][]string, 0, len(resp.Actors))
					for _, actor := range resp.Actors {
						rows = append(rows, []string{
							actor.ID,
							actor.DisplayName,
							actor.Role,
							yesNo(actor.Active),
							joinStationIDs(actor.Stations),
						})
					}
					return renderTable([]column{
						left("ID"), left("Name"), left("Role"), left("Active"), left("Stations"),
					}, rows)
				})
			})
		},
	}
}

func newActorRegisterCommand(ctx *commandContext) *cobra.Command {
	var req api.RegisterActorRequest
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create or update an actor",
		Long:  "Create or update an actor. The first actor may be registered without --actor; after that an admin or supervisor must act.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Username = args[0]
			if ctx.actorFlag != nil {
				req.AdminID = strings.TrimSpace(*ctx.actorFlag)
			}
			return ctx.withAccess(cmd, func(access opsaccess.Access) error {
				actor, err := access.RegisterActor(cmd.Context(), req)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, actor, func() string {
					return fmt.Sprintf("Registered %s (%s, %s)\n", actor.ID, actor.DisplayName, actor.Role)
				})
			})
		},
	}
	cmd.Flags().StringVar(&req.ID, "id", "", "Actor id (defaults to the username)")
	cmd.Flags().StringVar(&req.DisplayName, "name", "", "Display name")
	cmd.Flags().StringVar(&req.Role, "role", "operator", "operator, supervisor or admin")
	return cmd
}

func newActorAssignCommand(ctx *commandContext, remove bool) *cobra.Command {
	use, short, verb := "assign <actor> <station>", "Assign an actor to a station", "Assigned"
	if remove {
		use, short, verb = "unassign <actor> <station>", "Remove an actor's station assignment", "Unassigned"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := ctx.actor()
			if err != nil {
				return err
			}
			return ctx.withAccess(cmd, func(access opsaccess.Access) error {
				stationID, err := resolveStation(cmd.Context(), access, args[1])
				if err != nil {
					return err
				}
				assignment, err := access.Assign(cmd.Context(), args[0], api.AssignmentRequest{
					AdminID:   admin,
					StationID: stationID,
					Remove:    remove,
				})
				if err != nil {
					return err
				}
				return ctx.emit(cmd, assignment, func() string {
					return fmt.Sprintf("%s %s to station %d\n", verb, assignment.ActorID, assignment.StationID)
				})
			})
		},
	}
}

func newActorStatusCommand(ctx *commandContext, active bool) *cobra.Command {
	use, short, verb := "activate <actor>", "Reactivate an actor", "Activated"
	if !active {
		use, short, verb = "deactivate <actor>", "Deactivate an actor", "Deactivated"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := ctx.actor()
			if err != nil {
				return err
			}
			return ctx.withAccess(cmd, func(access opsaccess.Access) error {
				actor, err := access.SetActorActive(cmd.Context(), args[0], api.ActorStatusRequest{
					AdminID: admin,
					Active:  active,
				})
				if err != nil {
					return err
				}
				return ctx.emit(cmd, actor, func() string {
					return fmt.Sprintf("%s %s\n", verb, actor.ID)
				})
			})
		},
	}
}

func joinStationIDs(ids []int64) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}
