package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"boreline/internal/access"
	"boreline/internal/events"
	"boreline/internal/failure"
	"boreline/internal/logging"
	"boreline/internal/reqctx"
	"boreline/internal/station"
)

var (
	// ErrNoStations is returned when the repository holds no stations.
	ErrNoStations = errors.New("no stations configured")
	// ErrUnknownActor marks requests naming an actor that does not exist.
	ErrUnknownActor = errors.New("unknown actor")
)

// Engine runs work item transitions against a Repository.
type Engine struct {
	repo      Repository
	reg       *station.Registry
	publisher events.Publisher
	logger    *slog.Logger
	locks     *keyedMutex
	now       func() time.Time
	newID     func() string

	supervisorForceRelease bool
}

// Option configures optional Engine behavior.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithPublisher registers the observer that receives events after commit.
func WithPublisher(publisher events.Publisher) Option {
	return func(e *Engine) {
		e.publisher = publisher
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides work item and claim session id generation.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// WithSupervisorForceRelease lets supervisors force-release claims in
// addition to admins.
func WithSupervisorForceRelease(enabled bool) Option {
	return func(e *Engine) {
		e.supervisorForceRelease = enabled
	}
}

// New loads the station catalog from repo and returns a ready engine.
func New(ctx context.Context, repo Repository, opts ...Option) (*Engine, error) {
	if repo == nil {
		return nil, errors.New("workflow: nil repository")
	}
	stations, err := repo.ListStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stations: %w", err)
	}
	if len(stations) == 0 {
		return nil, ErrNoStations
	}
	reg, err := station.NewRegistry(stations)
	if err != nil {
		return nil, fmt.Errorf("build station registry: %w", err)
	}

	e := &Engine{
		repo:   repo,
		reg:    reg,
		logger: logging.NewNop(),
		locks:  newKeyedMutex(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "workflow")
	return e, nil
}

// Registry returns the station registry the engine was built with.
func (e *Engine) Registry() *station.Registry {
	return e.reg
}

// resolveActor loads an active actor.
func (e *Engine) resolveActor(ctx context.Context, actorID string) (access.Actor, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return access.Actor{}, failure.Invalid("actorId", "required")
	}
	actor, err := e.repo.GetActor(ctx, actorID)
	if err != nil {
		return access.Actor{}, err
	}
	if actor == nil {
		return access.Actor{}, fmt.Errorf("%w: %w", ErrUnknownActor, failure.NotFound("actor", actorID))
	}
	if !actor.Active {
		return access.Actor{}, &access.DeniedError{ActorName: actor.Name(), Action: "act while deactivated"}
	}
	return *actor, nil
}

// authorizer checks station access with the actor's assignments loaded up
// front so the check can run inside a transaction without touching the
// repository.
type authorizer struct {
	actor       access.Actor
	assignments []access.Assignment
}

func (e *Engine) authorizerFor(ctx context.Context, actor access.Actor) (authorizer, error) {
	assignments, err := e.repo.ActiveAssignments(ctx, actor.ID)
	if err != nil {
		return authorizer{}, fmt.Errorf("load assignments: %w", err)
	}
	return authorizer{actor: actor, assignments: assignments}, nil
}

func (a authorizer) check(st station.Station) error {
	if access.CanAccess(a.actor, a.assignments, st.ID) {
		return nil
	}
	return &access.DeniedError{ActorName: a.actor.Name(), StationName: st.Name}
}

func (e *Engine) requestLogger(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, e.logger)
}

func withItemContext(ctx context.Context, itemID, actorID string) context.Context {
	ctx = reqctx.WithWorkItemID(ctx, itemID)
	if actorID != "" {
		ctx = reqctx.WithActorID(ctx, actorID)
	}
	return ctx
}

func (e *Engine) publish(evt events.Event) {
	if e.publisher == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = e.now()
	}
	e.publisher.Publish(evt)
}

// publishQueues emits queue.updated for each station with its current queue.
// Failures to read a queue are logged and skipped.
func (e *Engine) publishQueues(ctx context.Context, stationIDs ...station.ID) {
	if e.publisher == nil {
		return
	}
	seen := make(map[station.ID]struct{}, len(stationIDs))
	for _, id := range stationIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		items, err := e.GetQueue(ctx, id)
		if err != nil {
			logging.WarnWithContext(e.requestLogger(ctx), "queue snapshot unavailable; queue.updated skipped", "queue_snapshot_failed",
				logging.StationID(int64(id)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "observers see the change on the next queue update"),
			)
			continue
		}
		entries := make([]events.QueueEntry, 0, len(items))
		for _, item := range items {
			entry := events.QueueEntry{
				WorkItemID:   item.ID,
				SerialNumber: item.SerialNumber,
				Status:       item.Status.Label(e.reg),
				Priority:     string(item.Attributes.Priority),
			}
			if item.Claim != nil {
				entry.HolderName = item.Claim.HolderName
			}
			entries = append(entries, entry)
		}
		e.publish(events.Event{Type: events.QueueUpdated, StationID: id, Queue: entries})
	}
}
