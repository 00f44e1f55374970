package api

import (
	"time"

	"boreline/internal/access"
	"boreline/internal/oplog"
	"boreline/internal/station"
	"boreline/internal/workflow"
	"boreline/internal/workitem"
)

// FromStation converts a station to its API representation.
func FromStation(st station.Station) Station {
	return Station{
		ID:             int64(st.ID),
		Name:           st.Name,
		Token:          station.Token(st.Name),
		SequenceNumber: st.SequenceNumber,
		Description:    st.Description,
		Active:         st.Active,
	}
}

// FromStations converts the catalog in order.
func FromStations(list []station.Station) []Station {
	out := make([]Station, 0, len(list))
	for _, st := range list {
		out = append(out, FromStation(st))
	}
	return out
}

// FromWorkItem converts a barrel. Progress is left for the caller, which
// owns the pipeline length.
func FromWorkItem(item *workitem.WorkItem, reg *station.Registry) WorkItem {
	if item == nil {
		return WorkItem{}
	}
	dto := WorkItem{
		ID:           item.ID,
		SerialNumber: item.SerialNumber,
		Barcode:      item.Barcode,
		Attributes: Attributes{
			Caliber:      item.Attributes.Caliber,
			LengthInches: item.Attributes.LengthInches,
			TwistRate:    item.Attributes.TwistRate,
			Material:     item.Attributes.Material,
			Priority:     string(item.Attributes.Priority),
		},
		Status:      item.Status.Label(reg),
		StatusKind:  string(item.Status.Kind),
		StationID:   int64(item.Status.StationID),
		Phase:       string(item.Status.Phase),
		CreatedAt:   formatTime(item.CreatedAt),
		UpdatedAt:   formatTime(item.UpdatedAt),
		StartedAt:   formatTimePtr(item.StartedAt),
		CompletedAt: formatTimePtr(item.CompletedAt),
		Metadata:    item.Metadata,
	}
	if item.Status.StationID != 0 {
		dto.StationName = stationName(reg, item.Status.StationID)
	}
	if item.Claim != nil {
		dto.Claim = &Claim{
			HolderID:   item.Claim.HolderID,
			HolderName: item.Claim.HolderName,
			SessionID:  item.Claim.SessionID,
			AcquiredAt: formatTime(item.Claim.AcquiredAt),
		}
	}
	return dto
}

// FromEntry converts an operation log entry.
func FromEntry(entry oplog.Entry, reg *station.Registry) LogEntry {
	return LogEntry{
		ID:              entry.ID,
		WorkItemID:      entry.WorkItemID,
		StationID:       int64(entry.StationID),
		StationName:     stationName(reg, entry.StationID),
		HolderID:        entry.HolderID,
		HolderName:      entry.HolderName,
		SessionID:       entry.SessionID,
		StartedAt:       formatTime(entry.StartedAt),
		EndedAt:         formatTimePtr(entry.EndedAt),
		PausedAt:        formatTimePtr(entry.PausedAt),
		ResumedAt:       formatTimePtr(entry.ResumedAt),
		DurationSeconds: entry.DurationSeconds,
		Notes:           entry.Notes,
		ExceptionCode:   entry.ExceptionCode,
		Open:            entry.IsOpen(),
		Paused:          entry.IsPaused(),
	}
}

// FromEntries converts a history slice, preserving order.
func FromEntries(entries []oplog.Entry, reg *station.Registry) []LogEntry {
	out := make([]LogEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromEntry(entry, reg))
	}
	return out
}

// FromTotals converts per-station visit totals.
func FromTotals(totals []oplog.StationTotal, reg *station.Registry) []StationTotal {
	out := make([]StationTotal, 0, len(totals))
	for _, total := range totals {
		out = append(out, StationTotal{
			StationID:   int64(total.StationID),
			StationName: stationName(reg, total.StationID),
			Visits:      total.Visits,
			Seconds:     total.Seconds,
		})
	}
	return out
}

// FromDescription converts an engine description.
func FromDescription(desc *workflow.Description, reg *station.Registry) ItemDetail {
	if desc == nil {
		return ItemDetail{}
	}
	detail := ItemDetail{
		Item:    FromWorkItem(desc.Item, reg),
		History: FromEntries(desc.History, reg),
		Totals:  FromTotals(desc.Totals, reg),
	}
	detail.Item.Progress = desc.Progress
	if desc.Open != nil {
		open := FromEntry(*desc.Open, reg)
		detail.OpenEntry = &open
	}
	return detail
}

// FromActorProfile converts an actor and their active assignments.
func FromActorProfile(profile workflow.ActorProfile) Actor {
	dto := FromActor(profile.Actor)
	for _, id := range profile.Stations {
		dto.Stations = append(dto.Stations, int64(id))
	}
	return dto
}

// FromActor converts an actor without assignments.
func FromActor(actor access.Actor) Actor {
	return Actor{
		ID:          actor.ID,
		Username:    actor.Username,
		DisplayName: actor.DisplayName,
		Role:        actor.Role.String(),
		Active:      actor.Active,
		Stations:    []int64{},
	}
}

// FromAssignment converts a station assignment.
func FromAssignment(a access.Assignment) Assignment {
	return Assignment{
		ActorID:    a.ActorID,
		StationID:  int64(a.StationID),
		Active:     a.Active,
		AssignedBy: a.AssignedBy,
		AssignedAt: formatTime(a.AssignedAt),
	}
}

// FromStats converts the pipeline summary.
func FromStats(stats workflow.Stats) Stats {
	dto := Stats{
		Stations:    make([]StationLoad, 0, len(stats.Stations)),
		ReadyToShip: stats.ReadyToShip,
		Hold:        stats.Hold,
		Rework:      stats.Rework,
		Scrap:       stats.Scrap,
		Total:       stats.Total,
	}
	for _, load := range stats.Stations {
		dto.Stations = append(dto.Stations, StationLoad{
			Station:    FromStation(load.Station),
			Pending:    load.Pending,
			InProgress: load.InProgress,
		})
	}
	return dto
}

func stationName(reg *station.Registry, id station.ID) string {
	if reg == nil {
		return ""
	}
	st, err := reg.Get(id)
	if err != nil {
		return ""
	}
	return st.Name
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
