package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"boreline/internal/api"
	"boreline/internal/opsaccess"
)

func newItemCommand(ctx *commandContext) *cobra.Command {
	itemCmd := &cobra.Command{
		Use:     "item",
		Aliases: []string{"items", "barrel"},
		Short:   "Register and inspect barrels",
	}
	itemCmd.AddCommand(newItemCreateCommand(ctx))
	itemCmd.AddCommand(newItemListCommand(ctx))
	itemCmd.AddCommand(newItemShowCommand(ctx))
	itemCmd.AddCommand(newItemHistoryCommand(ctx))
	return itemCmd
}

func newItemCreateCommand(ctx *commandContext) *cobra.Command {
	var req api.CreateItemRequest
	var meta []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a barrel at the first station",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			metadata, err := parseMetadata(meta)
			if err != nil {
				return err
			}
			req.Metadata = metadata
			if ctx.actorFlag != nil {
				req.CreatedBy = strings.TrimSpace(*ctx.actorFlag)
			}
			return ctx.withAccess(cmd, func(access opsaccess.Access) error {
				resp, err := access.CreateItem(cmd.Context(), req)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, resp, func() string {
					return fmt.Sprintf("Registered %s (%s) as %s\n", resp.Item.SerialNumber, resp.Item.ID, resp.Item.Status)
				})
			})
		},
	}
	cmd.Flags().StringVar(&req.SerialNumber, "serial", "", "Serial number (generated when omitted)")
	cmd.Flags().StringVar(&req.Barcode, "barcode", "", "Barcode (defaults to the serial number)")
	cmd.Flags().StringVar(&req.Caliber, "caliber", "", "Caliber, e.g. 6.5 Creedmoor")
	cmd.Flags().Float64Var(&req.LengthInches, "length", 0, "Barrel length in inches")
	cmd.Flags().StringVar(&req.TwistRate, "twist", "", "Twist rate, e.g. 1:8")
	cmd.Flags().StringVar(&req.Material, "material", "", "Material, e.g. 416R")
	cmd.Flags().StringVar(&req.Priority, "priority", "", "High, Medium or Low (default Medium)")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "Metadata key=value (repeatable)")
	return cmd
}

func newItemListCommand(ctx *commandContext) *cobra.Command {
	var kinds []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List barrels",
		Long:  "List barrels, optionally filtered by status kind: station, ready_to_ship, hold, rework or scrap.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(access opsaccess.Access) error {
				resp, err := access.Items(cmd.Context(), kinds)
				if err != nil {
					return err
				}
				colorize := shouldColorize(cmd.OutOrStdout())
				return ctx.emit(cmd, resp, func() string {
					return renderItems(resp.Items, "No barrels found", colorize)
				})
			})
		},
	}
	cmd.Flags().StringSliceVarP(&kinds, "status", "s", nil, "Filter by status kind (repeatable)")
	return cmd
}

func newItemShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "show <id|serial|barcode>",
		Aliases: []string{"lookup"},
		Short:   "Show a barrel with its station history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(access opsaccess.Access) error {
				itemID, err := resolveItem(cmd.Context(), access, args[0])
				if err != nil {
					return err
				}
				detail, err := access.Item(cmd.Context(), itemID)
				if err != nil {
					return err
				}
				colorize := shouldColorize(cmd.OutOrStdout())
				return ctx.emit(cmd, detail, func() string {
					return renderItemDetail(detail, colorize)
				})
			})
		},
	}
}

func newItemHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id|serial|barcode>",
		Short: "Show a barrel's operation log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAccess(cmd, func(access opsaccess.Access) error {
				itemID, err := resolveItem(cmd.Context(), access, args[0])
				if err != nil {
					return err
				}
				resp, err := access.History(cmd.Context(), itemID)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, resp, func() string {
					return renderHistory(resp.Entries, resp.Totals)
				})
			})
		},
	}
}

// resolveItem maps an id, serial number or barcode to the barrel id.
func resolveItem(ctx context.Context, access opsaccess.Access, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("barrel id, serial or barcode is required")
	}
	resp, err := access.Lookup(ctx, code)
	if err != nil {
		return "", err
	}
	return resp.Item.ID, nil
}

func parseMetadata(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q: expected key=value", pair)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}
