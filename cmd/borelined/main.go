// Command borelined runs the barrel tracking daemon in the foreground: the
// workflow engine, the control socket and the HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"boreline/internal/config"
	"boreline/internal/daemon"
	"boreline/internal/daemonrun"
)

func main() {
	if err := newCommand(daemonrun.Run).Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

type runFunc func(context.Context, *config.Config, daemonrun.Options) error

func newCommand(run runFunc) *cobra.Command {
	var configPath, socketPath, logLevel string
	cmd := &cobra.Command{
		Use:           "borelined",
		Short:         "Barrel routing daemon",
		Version:       daemon.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, _, err := config.Load(strings.TrimSpace(configPath))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if socket := strings.TrimSpace(socketPath); socket != "" {
				cfg.Paths.SocketPath = socket
			}
			return run(cmd.Context(), cfg, daemonrun.Options{LogLevel: logLevel})
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&socketPath, "socket", "", "Override paths.socket_path")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level")
	return cmd
}
