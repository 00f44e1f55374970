package api

import (
	"context"
	"fmt"
	"strings"

	"boreline/internal/access"
	"boreline/internal/failure"
	"boreline/internal/oplog"
	"boreline/internal/station"
	"boreline/internal/workflow"
	"boreline/internal/workitem"
)

// Engine is the workflow surface the service drives.
type Engine interface {
	Registry() *station.Registry
	Progress(status workitem.Status) int

	CreateWorkItem(ctx context.Context, req workflow.NewWorkItem) (*workitem.WorkItem, error)
	GetWorkItem(ctx context.Context, itemID string) (*workitem.WorkItem, error)
	Lookup(ctx context.Context, code string) (*workitem.WorkItem, error)
	GetQueue(ctx context.Context, stationID station.ID) ([]*workitem.WorkItem, error)
	ListItems(ctx context.Context, kinds ...workitem.Kind) ([]*workitem.WorkItem, error)
	Describe(ctx context.Context, itemID string) (*workflow.Description, error)
	History(ctx context.Context, itemID string) ([]oplog.Entry, error)
	StationStats(ctx context.Context) (workflow.Stats, error)

	StartOperation(ctx context.Context, itemID string, stationID station.ID, actorID, notes string) (*workitem.WorkItem, error)
	CompleteOperation(ctx context.Context, itemID, actorID, notes string) (*workitem.WorkItem, error)
	PauseOperation(ctx context.Context, itemID, actorID string) (*oplog.Entry, error)
	ResumeOperation(ctx context.Context, itemID, actorID string) (*oplog.Entry, error)
	ForceRelease(ctx context.Context, itemID, actorID, reason string) (*workitem.WorkItem, error)
	Quarantine(ctx context.Context, itemID string, kind workitem.Kind, actorID, reason string) (*workitem.WorkItem, error)

	RegisterActor(ctx context.Context, adminID string, req workflow.NewActor) (*access.Actor, error)
	SetActorActive(ctx context.Context, adminID, actorID string, active bool) (*access.Actor, error)
	AssignStation(ctx context.Context, adminID, actorID string, stationID station.ID) (access.Assignment, error)
	UnassignStation(ctx context.Context, adminID, actorID string, stationID station.ID) error
	ListActors(ctx context.Context) ([]workflow.ActorProfile, error)
}

// Service exposes engine operations returning API DTOs.
type Service struct {
	engine Engine
}

// NewService constructs a Service around the engine.
func NewService(engine Engine) *Service {
	if engine == nil {
		return nil
	}
	return &Service{engine: engine}
}

func (s *Service) registry() *station.Registry {
	return s.engine.Registry()
}

func (s *Service) item(item *workitem.WorkItem) WorkItem {
	dto := FromWorkItem(item, s.registry())
	if item != nil {
		dto.Progress = s.engine.Progress(item.Status)
	}
	return dto
}

func (s *Service) items(list []*workitem.WorkItem) []WorkItem {
	out := make([]WorkItem, 0, len(list))
	for _, item := range list {
		if item == nil {
			continue
		}
		out = append(out, s.item(item))
	}
	return out
}

// Stations returns the catalog in pipeline order.
func (s *Service) Stations() StationsResponse {
	return StationsResponse{Stations: FromStations(s.registry().List())}
}

// Queue returns a station's pending and in-progress barrels in work order.
func (s *Service) Queue(ctx context.Context, stationID int64) (QueueResponse, error) {
	st, err := s.registry().Get(station.ID(stationID))
	if err != nil {
		return QueueResponse{}, err
	}
	list, err := s.engine.GetQueue(ctx, st.ID)
	if err != nil {
		return QueueResponse{}, err
	}
	return QueueResponse{Station: FromStation(st), Items: s.items(list)}, nil
}

// Items lists barrels, optionally restricted to status kinds such as
// "ready_to_ship" or "hold".
func (s *Service) Items(ctx context.Context, kinds []string) (ItemListResponse, error) {
	parsed := make([]workitem.Kind, 0, len(kinds))
	for _, value := range kinds {
		trimmed := strings.ToLower(strings.TrimSpace(value))
		if trimmed == "" {
			continue
		}
		kind, err := parseKind(trimmed)
		if err != nil {
			return ItemListResponse{}, err
		}
		parsed = append(parsed, kind)
	}
	list, err := s.engine.ListItems(ctx, parsed...)
	if err != nil {
		return ItemListResponse{}, err
	}
	return ItemListResponse{Items: s.items(list)}, nil
}

func parseKind(value string) (workitem.Kind, error) {
	switch kind := workitem.Kind(value); kind {
	case workitem.KindStation, workitem.KindReadyToShip, workitem.KindHold, workitem.KindRework, workitem.KindScrap:
		return kind, nil
	default:
		return "", failure.Invalid("status", fmt.Sprintf("unknown status kind %q", value))
	}
}

// CreateItem registers a barrel at the first station.
func (s *Service) CreateItem(ctx context.Context, req CreateItemRequest) (ItemResponse, error) {
	item, err := s.engine.CreateWorkItem(ctx, workflow.NewWorkItem{
		Attributes: workitem.Attributes{
			Caliber:      req.Caliber,
			LengthInches: req.LengthInches,
			TwistRate:    req.TwistRate,
			Material:     req.Material,
			Priority:     workitem.Priority(req.Priority),
		},
		SerialNumber: req.SerialNumber,
		Barcode:      req.Barcode,
		Metadata:     req.Metadata,
		CreatedBy:    req.CreatedBy,
	})
	if err != nil {
		return ItemResponse{}, err
	}
	return ItemResponse{Item: s.item(item)}, nil
}

// Item returns a barrel with its history.
func (s *Service) Item(ctx context.Context, itemID string) (ItemDetail, error) {
	desc, err := s.engine.Describe(ctx, itemID)
	if err != nil {
		return ItemDetail{}, err
	}
	return FromDescription(desc, s.registry()), nil
}

// Lookup resolves a barrel by id, serial number or barcode.
func (s *Service) Lookup(ctx context.Context, code string) (ItemResponse, error) {
	item, err := s.engine.Lookup(ctx, code)
	if err != nil {
		return ItemResponse{}, err
	}
	return ItemResponse{Item: s.item(item)}, nil
}

// History returns a barrel's operation log in order.
func (s *Service) History(ctx context.Context, itemID string) (HistoryResponse, error) {
	entries, err := s.engine.History(ctx, itemID)
	if err != nil {
		return HistoryResponse{}, err
	}
	reg := s.registry()
	return HistoryResponse{
		Entries: FromEntries(entries, reg),
		Totals:  FromTotals(oplog.Summarize(entries), reg),
	}, nil
}

// Start claims a barrel at a station.
func (s *Service) Start(ctx context.Context, itemID string, req TransitionRequest) (ItemResponse, error) {
	if req.StationID <= 0 {
		return ItemResponse{}, failure.Invalid("stationId", "required")
	}
	item, err := s.engine.StartOperation(ctx, itemID, station.ID(req.StationID), req.ActorID, req.Notes)
	if err != nil {
		return ItemResponse{}, err
	}
	return ItemResponse{Item: s.item(item)}, nil
}

// Complete finishes the current station visit.
func (s *Service) Complete(ctx context.Context, itemID string, req TransitionRequest) (ItemResponse, error) {
	item, err := s.engine.CompleteOperation(ctx, itemID, req.ActorID, req.Notes)
	if err != nil {
		return ItemResponse{}, err
	}
	return ItemResponse{Item: s.item(item)}, nil
}

// Pause stamps the open log entry as paused.
func (s *Service) Pause(ctx context.Context, itemID string, req TransitionRequest) (ItemResponse, error) {
	return s.stamp(ctx, itemID, req, s.engine.PauseOperation)
}

// Resume stamps the open log entry as resumed.
func (s *Service) Resume(ctx context.Context, itemID string, req TransitionRequest) (ItemResponse, error) {
	return s.stamp(ctx, itemID, req, s.engine.ResumeOperation)
}

func (s *Service) stamp(ctx context.Context, itemID string, req TransitionRequest, op func(context.Context, string, string) (*oplog.Entry, error)) (ItemResponse, error) {
	entry, err := op(ctx, itemID, req.ActorID)
	if err != nil {
		return ItemResponse{}, err
	}
	item, err := s.engine.GetWorkItem(ctx, itemID)
	if err != nil {
		return ItemResponse{}, err
	}
	resp := ItemResponse{Item: s.item(item)}
	if entry != nil {
		dto := FromEntry(*entry, s.registry())
		resp.Entry = &dto
	}
	return resp, nil
}

// Release force-releases a claim back to pending.
func (s *Service) Release(ctx context.Context, itemID string, req TransitionRequest) (ItemResponse, error) {
	reason := req.Reason
	if reason == "" {
		reason = req.Notes
	}
	item, err := s.engine.ForceRelease(ctx, itemID, req.ActorID, reason)
	if err != nil {
		return ItemResponse{}, err
	}
	return ItemResponse{Item: s.item(item)}, nil
}

// Quarantine moves a barrel to hold, rework or scrap.
func (s *Service) Quarantine(ctx context.Context, itemID string, req TransitionRequest) (ItemResponse, error) {
	kind, err := workitem.ParseQuarantineKind(req.Kind)
	if err != nil {
		return ItemResponse{}, err
	}
	reason := req.Reason
	if reason == "" {
		reason = req.Notes
	}
	item, err := s.engine.Quarantine(ctx, itemID, kind, req.ActorID, reason)
	if err != nil {
		return ItemResponse{}, err
	}
	return ItemResponse{Item: s.item(item)}, nil
}

// Operation names accepted by Apply.
const (
	ActionStart      = "start"
	ActionPause      = "pause"
	ActionResume     = "resume"
	ActionComplete   = "complete"
	ActionRelease    = "release"
	ActionQuarantine = "quarantine"
)

// Apply dispatches a transition by action name.
func (s *Service) Apply(ctx context.Context, action, itemID string, req TransitionRequest) (ItemResponse, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionStart:
		return s.Start(ctx, itemID, req)
	case ActionPause:
		return s.Pause(ctx, itemID, req)
	case ActionResume:
		return s.Resume(ctx, itemID, req)
	case ActionComplete:
		return s.Complete(ctx, itemID, req)
	case ActionRelease:
		return s.Release(ctx, itemID, req)
	case ActionQuarantine:
		return s.Quarantine(ctx, itemID, req)
	default:
		return ItemResponse{}, failure.Invalid("action", fmt.Sprintf("unknown operation %q", action))
	}
}

// Stats summarizes the pipeline.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	stats, err := s.engine.StationStats(ctx)
	if err != nil {
		return Stats{}, err
	}
	return FromStats(stats), nil
}

// Actors lists actors with their assignments.
func (s *Service) Actors(ctx context.Context) (ActorsResponse, error) {
	profiles, err := s.engine.ListActors(ctx)
	if err != nil {
		return ActorsResponse{}, err
	}
	out := make([]Actor, 0, len(profiles))
	for _, profile := range profiles {
		out = append(out, FromActorProfile(profile))
	}
	return ActorsResponse{Actors: out}, nil
}

// RegisterActor creates or updates an actor.
func (s *Service) RegisterActor(ctx context.Context, req RegisterActorRequest) (Actor, error) {
	role, err := access.ParseRole(req.Role)
	if err != nil {
		return Actor{}, err
	}
	actor, err := s.engine.RegisterActor(ctx, req.AdminID, workflow.NewActor{
		ID:          req.ID,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Role:        role,
	})
	if err != nil {
		return Actor{}, err
	}
	return FromActor(*actor), nil
}

// SetActorActive activates or deactivates an actor.
func (s *Service) SetActorActive(ctx context.Context, actorID string, req ActorStatusRequest) (Actor, error) {
	actor, err := s.engine.SetActorActive(ctx, req.AdminID, actorID, req.Active)
	if err != nil {
		return Actor{}, err
	}
	return FromActor(*actor), nil
}

// Assign adds or removes a station assignment.
func (s *Service) Assign(ctx context.Context, actorID string, req AssignmentRequest) (Assignment, error) {
	if req.StationID <= 0 {
		return Assignment{}, failure.Invalid("stationId", "required")
	}
	stationID := station.ID(req.StationID)
	if req.Remove {
		if err := s.engine.UnassignStation(ctx, req.AdminID, actorID, stationID); err != nil {
			return Assignment{}, err
		}
		return Assignment{ActorID: actorID, StationID: req.StationID, Active: false}, nil
	}
	assignment, err := s.engine.AssignStation(ctx, req.AdminID, actorID, stationID)
	if err != nil {
		return Assignment{}, err
	}
	return FromAssignment(assignment), nil
}
