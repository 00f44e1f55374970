package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"boreline/internal/api"
	"boreline/internal/config"
	"boreline/internal/events"
	"boreline/internal/logging"
	"boreline/internal/notifications"
	"boreline/internal/store"
	"boreline/internal/workflow"
)

// Version is reported in status output and start notifications. Release
// builds set it with -ldflags "-X boreline/internal/daemon.Version=...".
var Version = "dev"

// Daemon owns the engine and its transports and enforces single-instance
// execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *store.Store
	engine     *workflow.Engine
	hub        *events.Hub
	service    *api.Service
	notifier   notifications.Service
	dispatcher *notifications.Dispatcher

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	mu        sync.Mutex
	running   atomic.Bool
	startedAt atomic.Pointer[time.Time]
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New constructs a daemon around an opened store and engine. A nil notifier
// is built from the configuration.
func New(cfg *config.Config, st *store.Store, engine *workflow.Engine, hub *events.Hub, logger *slog.Logger, notifier notifications.Service) (*Daemon, error) {
	if cfg == nil || st == nil || engine == nil || hub == nil {
		return nil, errors.New("daemon requires config, store, engine and event hub")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		engine:   engine,
		hub:      hub,
		service:  api.NewService(engine),
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.dispatcher = notifications.NewDispatcher(notifier, engine.Registry(), engine, logger, cfg.Workflow.SubscriberBuffer)
	hub.AddSink(d.dispatcher)

	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = srv
	return d, nil
}

// Start acquires the daemon lock, starts notification delivery and opens
// the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another boreline daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api: %w", err)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.dispatcher.Run(runCtx)
	}()

	d.cancel = cancel
	now := time.Now().UTC()
	d.startedAt.Store(&now)
	d.running.Store(true)
	d.logger.Info("boreline daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.address()),
		logging.Int("stations", d.engine.Registry().Len()),
	)
	d.notify(notifications.EventDaemonStarted, notifications.Payload{"version": Version})
	return nil
}

// Stop shuts the API down, drains notification delivery and releases the
// daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.wg.Wait()
	d.notify(notifications.EventDaemonStopped, nil)

	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no daemon is running"),
			logging.String(logging.FieldImpact, "the next daemon start may report a running instance"),
		)
	}
	d.running.Store(false)
	d.logger.Info("boreline daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close stops the daemon and releases the store.
func (d *Daemon) Close() error {
	d.Stop()
	d.hub.Close()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

func (d *Daemon) notify(event notifications.Event, payload notifications.Payload) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(d.logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_server and ntfy_topic"),
			logging.String(logging.FieldImpact, "a push notification was not sent"),
		)
	}
}

// Running reports whether Start succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Service returns the DTO service shared by every transport.
func (d *Daemon) Service() *api.Service {
	return d.service
}

// Hub returns the event hub.
func (d *Daemon) Hub() *events.Hub {
	return d.hub
}

// APIAddress returns the address the HTTP API listens on, or "" when it is
// disabled or stopped.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		SocketPath:   d.cfg.Paths.SocketPath,
		APIAddress:   d.api.address(),
		Subscribers:  d.hub.Subscribers(),
	}
	if started := d.startedAt.Load(); started != nil && status.Running {
		status.StartedAt = started.Format(time.RFC3339)
	}
	if _, next := d.hub.Tail(1); next > 0 {
		status.EventSequence = next
	}
	if stats, err := d.service.Stats(ctx); err == nil {
		status.Stats = stats
	} else {
		d.logger.Warn("status stats unavailable", logging.Error(err))
	}
	return status
}

// Health reports liveness and the schema version.
func (d *Daemon) Health(ctx context.Context) api.HealthResponse {
	resp := api.HealthResponse{Status: "ok", Stations: d.engine.Registry().Len()}
	if err := d.store.Ping(ctx); err != nil {
		resp.Status = "degraded"
		return resp
	}
	if version, err := d.store.SchemaVersion(ctx); err == nil {
		resp.SchemaVersion = version
	}
	return resp
}

// TestNotification sends a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
