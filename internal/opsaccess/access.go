package opsaccess

import (
	"context"
	"errors"

	"boreline/internal/api"
	"boreline/internal/ipc"
	"boreline/internal/store"
	"boreline/internal/workflow"
)

// ErrEventsUnavailable is returned by direct access, which has no event hub.
var ErrEventsUnavailable = errors.New("event stream requires a running daemon")

// Access provides plant operations regardless of IPC or direct store backing.
type Access interface {
	Mode() string
	Stations(ctx context.Context) (api.StationsResponse, error)
	Queue(ctx context.Context, stationID int64) (api.QueueResponse, error)
	Items(ctx context.Context, kinds []string) (api.ItemListResponse, error)
	CreateItem(ctx context.Context, req api.CreateItemRequest) (api.ItemResponse, error)
	Item(ctx context.Context, itemID string) (api.ItemDetail, error)
	Lookup(ctx context.Context, code string) (api.ItemResponse, error)
	History(ctx context.Context, itemID string) (api.HistoryResponse, error)
	Apply(ctx context.Context, action, itemID string, req api.TransitionRequest) (api.ItemResponse, error)
	Stats(ctx context.Context) (api.Stats, error)
	Actors(ctx context.Context) (api.ActorsResponse, error)
	RegisterActor(ctx context.Context, req api.RegisterActorRequest) (api.Actor, error)
	Assign(ctx context.Context, actorID string, req api.AssignmentRequest) (api.Assignment, error)
	SetActorActive(ctx context.Context, actorID string, req api.ActorStatusRequest) (api.Actor, error)
	Events(ctx context.Context, req ipc.EventsRequest) (api.EventsResponse, error)
}

// Access modes reported by Mode.
const (
	ModeDaemon = "daemon"
	ModeDirect = "direct"
)

// NewIPCAccess returns an Access backed by daemon IPC.
func NewIPCAccess(client *ipc.Client) Access {
	return &ipcAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct DB access.
func NewStoreAccess(st *store.Store, engine *workflow.Engine) Access {
	return &storeAccess{store: st, service: api.NewService(engine)}
}

type ipcAccess struct {
	client *ipc.Client
}

func (a *ipcAccess) Mode() string { return ModeDaemon }

func (a *ipcAccess) Stations(ctx context.Context) (api.StationsResponse, error) {
	return a.client.Stations(ctx)
}

func (a *ipcAccess) Queue(ctx context.Context, stationID int64) (api.QueueResponse, error) {
	return a.client.Queue(ctx, stationID)
}

func (a *ipcAccess) Items(ctx context.Context, kinds []string) (api.ItemListResponse, error) {
	return a.client.Items(ctx, kinds)
}

func (a *ipcAccess) CreateItem(ctx context.Context, req api.CreateItemRequest) (api.ItemResponse, error) {
	return a.client.CreateItem(ctx, req)
}

func (a *ipcAccess) Item(ctx context.Context, itemID string) (api.ItemDetail, error) {
	return a.client.Item(ctx, itemID)
}

func (a *ipcAccess) Lookup(ctx context.Context, code string) (api.ItemResponse, error) {
	return a.client.Lookup(ctx, code)
}

func (a *ipcAccess) History(ctx context.Context, itemID string) (api.HistoryResponse, error) {
	return a.client.History(ctx, itemID)
}

func (a *ipcAccess) Apply(ctx context.Context, action, itemID string, req api.TransitionRequest) (api.ItemResponse, error) {
	return a.client.Operation(ctx, action, itemID, req)
}

func (a *ipcAccess) Stats(ctx context.Context) (api.Stats, error) {
	return a.client.Stats(ctx)
}

func (a *ipcAccess) Actors(ctx context.Context) (api.ActorsResponse, error) {
	return a.client.Actors(ctx)
}

func (a *ipcAccess) RegisterActor(ctx context.Context, req api.RegisterActorRequest) (api.Actor, error) {
	return a.client.RegisterActor(ctx, req)
}

func (a *ipcAccess) Assign(ctx context.Context, actorID string, req api.AssignmentRequest) (api.Assignment, error) {
	return a.client.Assign(ctx, actorID, req)
}

func (a *ipcAccess) SetActorActive(ctx context.Context, actorID string, req api.ActorStatusRequest) (api.Actor, error) {
	return a.client.SetActorActive(ctx, actorID, req)
}

func (a *ipcAccess) Events(ctx context.Context, req ipc.EventsRequest) (api.EventsResponse, error) {
	return a.client.Events(ctx, req)
}

type storeAccess struct {
	store   *store.Store
	service *api.Service
}

func (a *storeAccess) Mode() string { return ModeDirect }

func (a *storeAccess) Stations(context.Context) (api.StationsResponse, error) {
	return a.service.Stations(), nil
}

func (a *storeAccess) Queue(ctx context.Context, stationID int64) (api.QueueResponse, error) {
	return a.service.Queue(ctx, stationID)
}

func (a *storeAccess) Items(ctx context.Context, kinds []string) (api.ItemListResponse, error) {
	return a.service.Items(ctx, kinds)
}

func (a *storeAccess) CreateItem(ctx context.Context, req api.CreateItemRequest) (api.ItemResponse, error) {
	return a.service.CreateItem(ctx, req)
}

func (a *storeAccess) Item(ctx context.Context, itemID string) (api.ItemDetail, error) {
	return a.service.Item(ctx, itemID)
}

func (a *storeAccess) Lookup(ctx context.Context, code string) (api.ItemResponse, error) {
	return a.service.Lookup(ctx, code)
}

func (a *storeAccess) History(ctx context.Context, itemID string) (api.HistoryResponse, error) {
	return a.service.History(ctx, itemID)
}

func (a *storeAccess) Apply(ctx context.Context, action, itemID string, req api.TransitionRequest) (api.ItemResponse, error) {
	return a.service.Apply(ctx, action, itemID, req)
}

func (a *storeAccess) Stats(ctx context.Context) (api.Stats, error) {
	return a.service.Stats(ctx)
}

func (a *storeAccess) Actors(ctx context.Context) (api.ActorsResponse, error) {
	return a.service.Actors(ctx)
}

func (a *storeAccess) RegisterActor(ctx context.Context, req api.RegisterActorRequest) (api.Actor, error) {
	return a.service.RegisterActor(ctx, req)
}

func (a *storeAccess) Assign(ctx context.Context, actorID string, req api.AssignmentRequest) (api.Assignment, error) {
	return a.service.Assign(ctx, actorID, req)
}

func (a *storeAccess) SetActorActive(ctx context.Context, actorID string, req api.ActorStatusRequest) (api.Actor, error) {
	return a.service.SetActorActive(ctx, actorID, req)
}

func (a *storeAccess) Events(context.Context, ipc.EventsRequest) (api.EventsResponse, error) {
	return api.EventsResponse{}, ErrEventsUnavailable
}
