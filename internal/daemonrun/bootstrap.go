package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"boreline/internal/config"
	"boreline/internal/logging"
	"boreline/internal/plantfile"
	"boreline/internal/store"
	"boreline/internal/workflow"
)

// Prepare applies the configured plant file to st. Without a plant file the
// default station catalog is seeded into an empty database.
func Prepare(ctx context.Context, cfg *config.Config, st *store.Store, logger *slog.Logger) (plantfile.Summary, error) {
	var plant *plantfile.Plant
	if path := strings.TrimSpace(cfg.Paths.PlantFile); path != "" {
		loaded, err := plantfile.Load(path)
		if err != nil {
			return plantfile.Summary{}, err
		}
		plant = loaded
	}
	return plantfile.Apply(ctx, st, plant, logger)
}

// OpenEngine opens the store and builds an engine over it. The plant file is
// applied only when the station catalog is still empty, so direct CLI access
// never overwrites actor changes made through the daemon.
func OpenEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...workflow.Option) (*store.Store, *workflow.Engine, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	stations, err := st.ListStations(ctx)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	if len(stations) == 0 {
		if _, err := Prepare(ctx, cfg, st, logger); err != nil {
			st.Close()
			return nil, nil, fmt.Errorf("prepare plant: %w", err)
		}
	}
	engine, err := newEngine(ctx, cfg, st, logger, opts...)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return st, engine, nil
}

func newEngine(ctx context.Context, cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...workflow.Option) (*workflow.Engine, error) {
	base := []workflow.Option{
		workflow.WithLogger(logger),
		workflow.WithSupervisorForceRelease(cfg.Workflow.SupervisorForceRelease),
	}
	engine, err := workflow.New(ctx, st, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	return engine, nil
}
