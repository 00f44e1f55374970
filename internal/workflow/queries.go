package workflow

import (
	"context"
	"math"
	"sort"

	"boreline/internal/failure"
	"boreline/internal/oplog"
	"boreline/internal/station"
	"boreline/internal/workitem"
)

// GetWorkItem returns a barrel by id.
func (e *Engine) GetWorkItem(ctx context.Context, itemID string) (*workitem.WorkItem, error) {
	item, err := e.repo.GetWorkItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, failure.NotFound("barrel", itemID)
	}
	return item, nil
}

// Lookup resolves an id, serial number or barcode.
func (e *Engine) Lookup(ctx context.Context, code string) (*workitem.WorkItem, error) {
	item, err := e.repo.FindWorkItem(ctx, code)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, failure.NotFound("barrel", code)
	}
	return item, nil
}

// GetQueue returns the barrels pending or in progress at a station, highest
// priority first, then oldest, then by id.
func (e *Engine) GetQueue(ctx context.Context, stationID station.ID) ([]*workitem.WorkItem, error) {
	if _, err := e.reg.Get(stationID); err != nil {
		return nil, err
	}
	items, err := e.repo.StationItems(ctx, stationID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return workitem.QueueLess(items[i], items[j])
	})
	return items, nil
}

// History returns the barrel's station visits, oldest first.
func (e *Engine) History(ctx context.Context, itemID string) ([]oplog.Entry, error) {
	if _, err := e.GetWorkItem(ctx, itemID); err != nil {
		return nil, err
	}
	entries, err := e.repo.History(ctx, itemID)
	if err != nil {
		return nil, err
	}
	oplog.SortHistory(entries)
	return entries, nil
}

// Description is a barrel with its history and derived progress.
type Description struct {
	Item     *workitem.WorkItem
	History  []oplog.Entry
	Totals   []oplog.StationTotal
	Open     *oplog.Entry
	Progress int
}

// Describe gathers everything known about a barrel.
func (e *Engine) Describe(ctx context.Context, itemID string) (*Description, error) {
	item, err := e.GetWorkItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	entries, err := e.repo.History(ctx, itemID)
	if err != nil {
		return nil, err
	}
	oplog.SortHistory(entries)

	desc := &Description{
		Item:     item,
		History:  entries,
		Totals:   oplog.Summarize(entries),
		Progress: e.Progress(item.Status),
	}
	for i := range entries {
		if entries[i].IsOpen() {
			open := entries[i]
			desc.Open = &open
			break
		}
	}
	return desc, nil
}

// Progress estimates completion as a percentage from the station position.
// Ready to ship is 100.
func (e *Engine) Progress(status workitem.Status) int {
	if status.IsTerminal() {
		return 100
	}
	pos, ok := e.reg.Position(status.StationID)
	if !ok {
		return 0
	}
	return int(math.Round(float64(pos) / float64(e.reg.Len()+1) * 100))
}

// StationLoad counts the work at one station.
type StationLoad struct {
	Station    station.Station
	Pending    int
	InProgress int
}

// Stats summarizes the whole pipeline.
type Stats struct {
	Stations    []StationLoad
	ReadyToShip int
	Hold        int
	Rework      int
	Scrap       int
	Total       int
}

// StationStats counts barrels per station and per absorbing status.
func (e *Engine) StationStats(ctx context.Context) (Stats, error) {
	counts, err := e.repo.StatusCounts(ctx)
	if err != nil {
		return Stats{}, err
	}
	list := e.reg.List()
	stats := Stats{Stations: make([]StationLoad, len(list))}
	index := make(map[station.ID]int, len(list))
	for i, st := range list {
		stats.Stations[i] = StationLoad{Station: st}
		index[st.ID] = i
	}
	for _, c := range counts {
		stats.Total += c.Count
		switch c.Status.Kind {
		case workitem.KindStation:
			idx, ok := index[c.Status.StationID]
			if !ok {
				continue
			}
			if c.Status.Phase == workitem.PhaseInProgress {
				stats.Stations[idx].InProgress += c.Count
			} else {
				stats.Stations[idx].Pending += c.Count
			}
		case workitem.KindReadyToShip:
			stats.ReadyToShip += c.Count
		case workitem.KindHold:
			stats.Hold += c.Count
		case workitem.KindRework:
			stats.Rework += c.Count
		case workitem.KindScrap:
			stats.Scrap += c.Count
		}
	}
	return stats, nil
}

// ListItems returns barrels with any of the given status kinds, or all.
func (e *Engine) ListItems(ctx context.Context, kinds ...workitem.Kind) ([]*workitem.WorkItem, error) {
	return e.repo.ListWorkItems(ctx, kinds...)
}
