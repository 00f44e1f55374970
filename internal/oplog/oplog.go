// Package oplog records each visit of a work item to a station: who worked
// on it, when it started, paused, resumed and ended, and any notes.
//
// Entries are mutable records. At most one entry per work item is open
// (EndedAt unset) at any time, mirroring the item's claim.
package oplog

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"boreline/internal/claim"
	"boreline/internal/failure"
	"boreline/internal/station"
)

// Entry is one station visit.
type Entry struct {
	ID              int64
	WorkItemID      string
	StationID       station.ID
	HolderID        string
	HolderName      string
	SessionID       string
	StartedAt       time.Time
	EndedAt         *time.Time
	PausedAt        *time.Time
	ResumedAt       *time.Time
	DurationSeconds *int64
	Notes           string
	ExceptionCode   string
}

// IsOpen reports whether the entry has not ended.
func (e Entry) IsOpen() bool {
	return e.EndedAt == nil
}

// IsPaused reports whether the entry was paused and not resumed since.
func (e Entry) IsPaused() bool {
	if e.PausedAt == nil {
		return false
	}
	return e.ResumedAt == nil || e.ResumedAt.Before(*e.PausedAt)
}

// NoOpenEntryError reports a close/pause/resume with nothing open.
type NoOpenEntryError struct {
	WorkItemID string
}

func (e *NoOpenEntryError) Error() string {
	return fmt.Sprintf("no open operation log entry for barrel %s", e.WorkItemID)
}

func (e *NoOpenEntryError) FailureKind() failure.Kind { return failure.KindNoOpenEntry }

// ConflictingOpenEntryError reports an attempt to open a second entry.
type ConflictingOpenEntryError struct {
	WorkItemID string
	EntryID    int64
}

func (e *ConflictingOpenEntryError) Error() string {
	return fmt.Sprintf("barrel %s already has open operation log entry %d", e.WorkItemID, e.EntryID)
}

func (e *ConflictingOpenEntryError) FailureKind() failure.Kind {
	return failure.KindConflictingOpenEntry
}

// Open builds a new entry for the claim holder. existing is the item's
// currently open entry, if any.
func Open(existing *Entry, workItemID string, stationID station.ID, holder claim.Claim, notes string, now time.Time) (Entry, error) {
	if existing != nil && existing.IsOpen() {
		return Entry{}, &ConflictingOpenEntryError{WorkItemID: workItemID, EntryID: existing.ID}
	}
	return Entry{
		WorkItemID: workItemID,
		StationID:  stationID,
		HolderID:   holder.HolderID,
		HolderName: holder.HolderName,
		SessionID:  holder.SessionID,
		StartedAt:  now.UTC(),
		Notes:      strings.TrimSpace(notes),
	}, nil
}

// Close ends the open entry. Non-empty notes replace any earlier notes.
func Close(open *Entry, workItemID, notes string, now time.Time) (Entry, error) {
	if open == nil || !open.IsOpen() {
		return Entry{}, &NoOpenEntryError{WorkItemID: workItemID}
	}
	closed := *open
	ended := now.UTC()
	closed.EndedAt = &ended
	seconds := int64(math.Floor(ended.Sub(closed.StartedAt).Seconds()))
	if seconds < 0 {
		seconds = 0
	}
	closed.DurationSeconds = &seconds
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		closed.Notes = trimmed
	}
	return closed, nil
}

// Pause stamps the open entry's pause time.
func Pause(open *Entry, workItemID string, now time.Time) (Entry, error) {
	if open == nil || !open.IsOpen() {
		return Entry{}, &NoOpenEntryError{WorkItemID: workItemID}
	}
	paused := *open
	ts := now.UTC()
	paused.PausedAt = &ts
	return paused, nil
}

// Resume stamps the open entry's resume time.
func Resume(open *Entry, workItemID string, now time.Time) (Entry, error) {
	if open == nil || !open.IsOpen() {
		return Entry{}, &NoOpenEntryError{WorkItemID: workItemID}
	}
	resumed := *open
	ts := now.UTC()
	resumed.ResumedAt = &ts
	return resumed, nil
}

// SortHistory orders entries by start time, oldest first.
func SortHistory(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].StartedAt.Equal(entries[j].StartedAt) {
			return entries[i].StartedAt.Before(entries[j].StartedAt)
		}
		return entries[i].ID < entries[j].ID
	})
}

// StationTotal is the worked time accumulated at one station.
type StationTotal struct {
	StationID station.ID
	Visits    int
	Seconds   int64
}

// Summarize totals closed entries per station in first-visit order.
func Summarize(entries []Entry) []StationTotal {
	var totals []StationTotal
	index := make(map[station.ID]int)
	for _, e := range entries {
		idx, ok := index[e.StationID]
		if !ok {
			idx = len(totals)
			index[e.StationID] = idx
			totals = append(totals, StationTotal{StationID: e.StationID})
		}
		totals[idx].Visits++
		if e.DurationSeconds != nil {
			totals[idx].Seconds += *e.DurationSeconds
		}
	}
	return totals
}
