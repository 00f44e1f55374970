package workflow

import (
	"context"

	"boreline/internal/access"
	"boreline/internal/oplog"
	"boreline/internal/station"
	"boreline/internal/workitem"
)

// Repository is the persistent state the engine works against. Lookups
// return (nil, nil) when the record does not exist.
type Repository interface {
	ListStations(ctx context.Context) ([]station.Station, error)

	GetActor(ctx context.Context, id string) (*access.Actor, error)
	ListActors(ctx context.Context) ([]access.Actor, error)
	UpsertActor(ctx context.Context, actor access.Actor) error
	ActiveAssignments(ctx context.Context, actorID string) ([]access.Assignment, error)
	AssignStation(ctx context.Context, actorID string, stationID station.ID, assignedBy string) (access.Assignment, error)
	UnassignStation(ctx context.Context, actorID string, stationID station.ID) (bool, error)

	InsertWorkItem(ctx context.Context, item *workitem.WorkItem) error
	GetWorkItem(ctx context.Context, id string) (*workitem.WorkItem, error)
	FindWorkItem(ctx context.Context, code string) (*workitem.WorkItem, error)
	StationItems(ctx context.Context, stationID station.ID) ([]*workitem.WorkItem, error)
	ListWorkItems(ctx context.Context, kinds ...workitem.Kind) ([]*workitem.WorkItem, error)
	StatusCounts(ctx context.Context) ([]StatusCount, error)
	History(ctx context.Context, workItemID string) ([]oplog.Entry, error)

	// Update runs fn inside one transaction holding the item's row. The
	// transaction commits only when fn returns nil.
	Update(ctx context.Context, workItemID string, fn func(tx Tx, item *workitem.WorkItem) error) error
}

// Tx is the write surface available inside Repository.Update.
type Tx interface {
	OpenEntry() (*oplog.Entry, error)
	InsertEntry(entry *oplog.Entry) error
	UpdateEntry(entry oplog.Entry) error
	SaveItem(item workitem.WorkItem) error
}

// StatusCount is the number of items sharing a status.
type StatusCount struct {
	Status workitem.Status
	Count  int
}
