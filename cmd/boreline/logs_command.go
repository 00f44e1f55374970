package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"boreline/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the daemon log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			err = followLog(cmd.Context(), cfg.DaemonLogPath(), lines, follow, cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	return cmd
}

func followLog(ctx context.Context, path string, lines int, follow bool, out io.Writer) error {
	req := logs.Request{Offset: -1, Lines: lines}
	for {
		batch, err := logs.Read(ctx, path, req)
		if err != nil {
			return err
		}
		if batch.Rotated {
			fmt.Fprintln(out, "-- log rotated --")
		}
		for _, line := range batch.Lines {
			fmt.Fprintln(out, line)
		}
		if !follow {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		req = logs.Request{Offset: batch.Offset, Wait: 5 * time.Second}
	}
}
