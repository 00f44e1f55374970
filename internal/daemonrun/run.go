package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"boreline/internal/config"
	"boreline/internal/daemon"
	"boreline/internal/events"
	"boreline/internal/ipc"
	"boreline/internal/logging"
	"boreline/internal/notifications"
	"boreline/internal/preflight"
	"boreline/internal/store"
	"boreline/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the boreline daemon runtime loop and blocks until the context
// is canceled or the process receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runCfg := *cfg
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		runCfg.Logging.Level = level
	}
	if err := runCfg.EnsureDirectories(); err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(&runCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	for _, result := range preflight.Failed(preflight.RunAll(signalCtx, &runCfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run boreline status for details"),
			logging.String(logging.FieldImpact, "the daemon may not work as expected"),
		)
	}

	pidPath := runCfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	st, err := store.Open(&runCfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return err
	}
	if _, err := Prepare(signalCtx, &runCfg, st, logger); err != nil {
		st.Close()
		logger.Error("prepare plant", logging.Error(err))
		return err
	}

	hub := events.NewHub(runCfg.Workflow.EventHistory)
	engine, err := newEngine(signalCtx, &runCfg, st, logger, workflow.WithPublisher(hub))
	if err != nil {
		st.Close()
		return err
	}

	notifier := notifications.NewService(&runCfg)
	d, err := daemon.New(&runCfg, st, engine, hub, logger, notifier)
	if err != nil {
		st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, runCfg.Paths.SocketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.OnShutdown(cancel)
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logging.WarnWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check api.bind and that no other daemon holds the lock"),
			logging.String(logging.FieldImpact, "HTTP clients cannot reach the daemon"),
		)
	}

	<-signalCtx.Done()
	logger.Info("boreline daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
