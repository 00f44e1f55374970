package workitem

import (
	"fmt"
	"time"

	"boreline/internal/claim"
	"boreline/internal/failure"
	"boreline/internal/station"
)

// InvalidStateError reports a transition attempted from a status that does
// not permit it.
type InvalidStateError struct {
	Current  string
	Expected string
}

func (e *InvalidStateError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("barrel status %s does not permit this operation", e.Current)
	}
	return fmt.Sprintf("barrel status is %s, expected %s", e.Current, e.Expected)
}

func (e *InvalidStateError) FailureKind() failure.Kind { return failure.KindInvalidState }

// NoActiveOperationError reports a complete, pause or resume with nothing
// in progress.
type NoActiveOperationError struct {
	WorkItemID string
	Current    string
}

func (e *NoActiveOperationError) Error() string {
	if e.Current == "" {
		return fmt.Sprintf("no active operation found for barrel %s", e.WorkItemID)
	}
	return fmt.Sprintf("no active operation found for barrel %s (status %s)", e.WorkItemID, e.Current)
}

func (e *NoActiveOperationError) FailureKind() failure.Kind { return failure.KindNoActiveOperation }

// CheckStart validates starting work on item at st by actorID. resumed is
// true when the actor already holds the item in progress at st, in which
// case nothing needs to change.
func CheckStart(item WorkItem, st station.Station, actorID string, reg *station.Registry) (resumed bool, err error) {
	expected := Pending(st.ID)
	if item.Claim != nil {
		if _, _, err := claim.Acquire(item.Claim, claim.Holder{ID: actorID}, "", time.Time{}); err != nil {
			return false, err
		}
		if item.Status == InProgress(st.ID) {
			return true, nil
		}
		return false, &InvalidStateError{Current: item.Status.Label(reg), Expected: expected.Label(reg)}
	}
	if item.Status != expected {
		return false, &InvalidStateError{Current: item.Status.Label(reg), Expected: expected.Label(reg)}
	}
	return false, nil
}

// Start moves item into progress at st under the given claim.
func Start(item WorkItem, st station.Station, granted claim.Claim, now time.Time) WorkItem {
	ts := now.UTC()
	item.Status = InProgress(st.ID)
	item.Claim = &granted
	item.StartedAt = &ts
	item.UpdatedAt = ts
	return item
}

// CheckActive validates that item has an operation in progress.
func CheckActive(item WorkItem, reg *station.Registry) error {
	if !item.Status.IsInProgress() {
		return &NoActiveOperationError{WorkItemID: item.ID, Current: item.Status.Label(reg)}
	}
	return nil
}

// Complete advances item past its current station. next is the following
// station, or nil when the current station was the last.
func Complete(item WorkItem, next *station.Station, now time.Time) WorkItem {
	ts := now.UTC()
	if next != nil {
		item.Status = Pending(next.ID)
	} else {
		item.Status = ReadyToShip()
		item.CompletedAt = &ts
	}
	item.Claim = nil
	item.StartedAt = nil
	item.UpdatedAt = ts
	return item
}

// Release returns an in-progress item to pending at the same station
// without advancing it.
func Release(item WorkItem, now time.Time) WorkItem {
	ts := now.UTC()
	if item.Status.IsInProgress() {
		item.Status = Pending(item.Status.StationID)
	}
	item.Claim = nil
	item.StartedAt = nil
	item.UpdatedAt = ts
	return item
}

// CheckQuarantine validates pulling item out of the pipeline.
func CheckQuarantine(item WorkItem, reg *station.Registry) error {
	if item.Status.IsAbsorbing() {
		return &InvalidStateError{Current: item.Status.Label(reg)}
	}
	return nil
}

// Quarantine moves item into an absorbing hold, rework or scrap status.
func Quarantine(item WorkItem, kind Kind, now time.Time) (WorkItem, error) {
	status, err := Quarantined(kind, item.Status.StationID)
	if err != nil {
		return item, err
	}
	ts := now.UTC()
	item.Status = status
	item.Claim = nil
	item.StartedAt = nil
	item.UpdatedAt = ts
	return item, nil
}
