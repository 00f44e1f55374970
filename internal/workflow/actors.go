package workflow

import (
	"context"
	"strings"

	"boreline/internal/access"
	"boreline/internal/failure"
	"boreline/internal/logging"
	"boreline/internal/station"
)

// NewActor describes an actor to register.
type NewActor struct {
	ID          string
	Username    string
	DisplayName string
	Role        access.Role
}

// ActorProfile is an actor with its active station assignments.
type ActorProfile struct {
	Actor    access.Actor
	Stations []station.ID
}

// RegisterActor creates or updates an actor. adminID must be an admin,
// except when no actors exist yet so the first admin can be bootstrapped.
func (e *Engine) RegisterActor(ctx context.Context, adminID string, req NewActor) (*access.Actor, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, failure.Invalid("username", "required")
	}
	if !req.Role.Valid() {
		return nil, failure.Invalid("role", "required")
	}
	existing, err := e.repo.ListActors(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		if err := e.requireManager(ctx, adminID, "manage actors"); err != nil {
			return nil, err
		}
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = username
	}
	actor := access.Actor{
		ID:          id,
		Username:    username,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        req.Role,
		Active:      true,
	}
	if err := e.repo.UpsertActor(ctx, actor); err != nil {
		return nil, err
	}
	e.logger.Info("actor registered",
		logging.ActorID(actor.ID),
		logging.String("role", actor.Role.String()),
		logging.String("registered_by", adminID),
	)
	stored, err := e.repo.GetActor(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return &actor, nil
	}
	return stored, nil
}

// SetActorActive enables or disables an actor. Disabled actors cannot act.
func (e *Engine) SetActorActive(ctx context.Context, adminID, actorID string, active bool) (*access.Actor, error) {
	if err := e.requireManager(ctx, adminID, "manage actors"); err != nil {
		return nil, err
	}
	actor, err := e.repo.GetActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, failure.NotFound("actor", actorID)
	}
	actor.Active = active
	if err := e.repo.UpsertActor(ctx, *actor); err != nil {
		return nil, err
	}
	e.logger.Info("actor status changed",
		logging.ActorID(actor.ID),
		logging.Bool("active", active),
		logging.String("changed_by", adminID),
	)
	return actor, nil
}

// AssignStation gives an actor access to a station.
func (e *Engine) AssignStation(ctx context.Context, adminID, actorID string, stationID station.ID) (access.Assignment, error) {
	if err := e.requireManager(ctx, adminID, "manage station assignments"); err != nil {
		return access.Assignment{}, err
	}
	st, err := e.reg.Get(stationID)
	if err != nil {
		return access.Assignment{}, err
	}
	actor, err := e.repo.GetActor(ctx, actorID)
	if err != nil {
		return access.Assignment{}, err
	}
	if actor == nil {
		return access.Assignment{}, failure.NotFound("actor", actorID)
	}
	assignment, err := e.repo.AssignStation(ctx, actor.ID, st.ID, adminID)
	if err != nil {
		return access.Assignment{}, err
	}
	e.logger.Info("station assigned",
		logging.ActorID(actor.ID),
		logging.StationID(int64(st.ID)),
		logging.String("assigned_by", adminID),
	)
	return assignment, nil
}

// UnassignStation removes an actor's access to a station.
func (e *Engine) UnassignStation(ctx context.Context, adminID, actorID string, stationID station.ID) error {
	if err := e.requireManager(ctx, adminID, "manage station assignments"); err != nil {
		return err
	}
	if _, err := e.reg.Get(stationID); err != nil {
		return err
	}
	removed, err := e.repo.UnassignStation(ctx, actorID, stationID)
	if err != nil {
		return err
	}
	if !removed {
		return failure.NotFound("assignment", actorID+"@"+stationID.String())
	}
	return nil
}

// ListActors returns every actor with its active station assignments.
func (e *Engine) ListActors(ctx context.Context) ([]ActorProfile, error) {
	actors, err := e.repo.ListActors(ctx)
	if err != nil {
		return nil, err
	}
	profiles := make([]ActorProfile, 0, len(actors))
	for _, actor := range actors {
		assignments, err := e.repo.ActiveAssignments(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		profile := ActorProfile{Actor: actor}
		for _, a := range assignments {
			profile.Stations = append(profile.Stations, a.StationID)
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (e *Engine) requireManager(ctx context.Context, adminID, action string) error {
	admin, err := e.resolveActor(ctx, adminID)
	if err != nil {
		return err
	}
	if !access.CanManage(admin) {
		return &access.DeniedError{ActorName: admin.Name(), Action: action}
	}
	return nil
}
