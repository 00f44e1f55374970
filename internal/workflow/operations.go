package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"boreline/internal/access"
	"boreline/internal/claim"
	"boreline/internal/events"
	"boreline/internal/failure"
	"boreline/internal/logging"
	"boreline/internal/oplog"
	"boreline/internal/reqctx"
	"boreline/internal/station"
	"boreline/internal/workitem"
)

// ExceptionForceReleased marks log entries closed by ForceRelease.
const ExceptionForceReleased = "force_released"

// NewWorkItem describes a barrel entering the pipeline.
type NewWorkItem struct {
	Attributes   workitem.Attributes
	SerialNumber string
	Barcode      string
	Metadata     map[string]any
	CreatedBy    string
}

// CreateWorkItem registers a barrel pending at the first station.
func (e *Engine) CreateWorkItem(ctx context.Context, req NewWorkItem) (*workitem.WorkItem, error) {
	attrs, err := req.Attributes.Normalize()
	if err != nil {
		return nil, err
	}
	first, ok := e.reg.First()
	if !ok {
		return nil, ErrNoStations
	}

	id := e.newID()
	serial := strings.TrimSpace(req.SerialNumber)
	if serial == "" {
		serial = defaultSerial(id)
	}
	barcode := strings.TrimSpace(req.Barcode)
	if barcode == "" {
		barcode = serial
	}
	now := e.now()
	item := &workitem.WorkItem{
		ID:           id,
		SerialNumber: serial,
		Barcode:      barcode,
		Attributes:   attrs,
		Status:       workitem.Pending(first.ID),
		CreatedAt:    now,
		UpdatedAt:    now,
		Metadata:     req.Metadata,
	}
	if err := e.repo.InsertWorkItem(ctx, item); err != nil {
		return nil, err
	}

	ctx = withItemContext(ctx, item.ID, req.CreatedBy)
	e.requestLogger(ctx).Info("barrel registered",
		logging.String("serial_number", item.SerialNumber),
		logging.String("caliber", item.Attributes.Caliber),
		logging.String("priority", string(item.Attributes.Priority)),
		logging.String(logging.FieldEventType, "item_created"),
	)
	e.publish(events.Event{
		Type:       events.ItemCreated,
		WorkItemID: item.ID,
		StationID:  first.ID,
		ActorID:    req.CreatedBy,
		Status:     item.Status.Label(e.reg),
	})
	e.publishQueues(ctx, first.ID)
	return item, nil
}

func defaultSerial(id string) string {
	compact := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return "SN-" + compact
}

// StartOperation claims the barrel for actorID and moves it into progress
// at stationID. A repeated start by the current holder at the same station
// returns the item unchanged.
func (e *Engine) StartOperation(ctx context.Context, itemID string, stationID station.ID, actorID, notes string) (*workitem.WorkItem, error) {
	ctx = reqctx.WithStationID(withItemContext(ctx, itemID, actorID), int64(stationID))
	logger := e.requestLogger(ctx)

	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	st, err := e.reg.Get(stationID)
	if err != nil {
		return nil, err
	}
	auth, err := e.authorizerFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := auth.check(st); err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(itemID)
	defer unlock()

	var (
		result  workitem.WorkItem
		resumed bool
	)
	now := e.now()
	err = e.repo.Update(ctx, itemID, func(tx Tx, item *workitem.WorkItem) error {
		already, err := workitem.CheckStart(*item, st, actor.ID, e.reg)
		if err != nil {
			return err
		}
		resumed = already
		if resumed {
			result = *item
			return nil
		}
		open, err := tx.OpenEntry()
		if err != nil {
			return err
		}
		granted, _, err := claim.Acquire(item.Claim, claim.Holder{ID: actor.ID, Name: actor.Name()}, e.newID(), now)
		if err != nil {
			return err
		}
		entry, err := oplog.Open(open, item.ID, st.ID, granted, notes, now)
		if err != nil {
			return err
		}
		result = workitem.Start(*item, st, granted, now)
		if err := tx.SaveItem(result); err != nil {
			return err
		}
		return tx.InsertEntry(&entry)
	})
	if err != nil {
		e.logConflict(ctx, err)
		return nil, err
	}
	if resumed {
		logger.Debug("start repeated by current holder", logging.String("station", st.Name))
		return &result, nil
	}

	logger.Info("operation started",
		logging.String("station", st.Name),
		logging.String("session_id", result.Claim.SessionID),
		logging.String(logging.FieldEventType, "operation_started"),
	)
	e.publish(events.Event{
		Type:       events.OperationStarted,
		WorkItemID: result.ID,
		StationID:  st.ID,
		ActorID:    actor.ID,
		Status:     result.Status.Label(e.reg),
		Notes:      strings.TrimSpace(notes),
	})
	e.publishQueues(ctx, st.ID)
	return &result, nil
}

// CompleteOperation closes the current visit and advances the barrel to the
// next station, or to ready to ship after the last one.
func (e *Engine) CompleteOperation(ctx context.Context, itemID, actorID, notes string) (*workitem.WorkItem, error) {
	ctx = withItemContext(ctx, itemID, actorID)
	logger := e.requestLogger(ctx)

	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	auth, err := e.authorizerFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(itemID)
	defer unlock()

	var (
		result workitem.WorkItem
		closed oplog.Entry
		from   station.Station
		next   *station.Station
	)
	now := e.now()
	err = e.repo.Update(ctx, itemID, func(tx Tx, item *workitem.WorkItem) error {
		if item.Status.Kind != workitem.KindStation {
			return &workitem.NoActiveOperationError{WorkItemID: item.ID, Current: item.Status.Label(e.reg)}
		}
		st, err := e.reg.Get(item.Status.StationID)
		if err != nil {
			return err
		}
		if err := auth.check(st); err != nil {
			return err
		}
		if err := workitem.CheckActive(*item, e.reg); err != nil {
			return err
		}
		if err := claim.Release(item.Claim, actor.ID); err != nil {
			return err
		}
		open, err := tx.OpenEntry()
		if err != nil {
			return err
		}
		closed, err = oplog.Close(open, item.ID, notes, now)
		if err != nil {
			return err
		}
		from = st
		next = nil
		if following, ok := e.reg.NextAfter(st); ok {
			next = &following
		}
		result = workitem.Complete(*item, next, now)
		if err := tx.UpdateEntry(closed); err != nil {
			return err
		}
		return tx.SaveItem(result)
	})
	if err != nil {
		return nil, err
	}

	attrs := []logging.Attr{
		logging.String("station", from.Name),
		logging.Int64("duration_seconds", derefSeconds(closed.DurationSeconds)),
		logging.String(logging.FieldEventType, "operation_completed"),
	}
	if next != nil {
		attrs = append(attrs, logging.String("next_station", next.Name))
	} else {
		attrs = append(attrs, logging.Bool("ready_to_ship", true))
	}
	logger.Info("operation completed", logging.Args(attrs...)...)

	e.publish(events.Event{
		Type:       events.OperationCompleted,
		WorkItemID: result.ID,
		StationID:  from.ID,
		ActorID:    actor.ID,
		Status:     result.Status.Label(e.reg),
		Notes:      closed.Notes,
	})
	stations := []station.ID{from.ID}
	if next != nil {
		stations = append(stations, next.ID)
	}
	e.publishQueues(ctx, stations...)
	return &result, nil
}

// PauseOperation stamps the open visit as paused. Status and claim are
// unchanged.
func (e *Engine) PauseOperation(ctx context.Context, itemID, actorID string) (*oplog.Entry, error) {
	return e.stampOpenEntry(ctx, itemID, actorID, events.OperationPaused, oplog.Pause)
}

// ResumeOperation stamps the open visit as resumed.
func (e *Engine) ResumeOperation(ctx context.Context, itemID, actorID string) (*oplog.Entry, error) {
	return e.stampOpenEntry(ctx, itemID, actorID, events.OperationResumed, oplog.Resume)
}

type stampFunc func(open *oplog.Entry, workItemID string, now time.Time) (oplog.Entry, error)

func (e *Engine) stampOpenEntry(ctx context.Context, itemID, actorID string, evtType events.Type, stamp stampFunc) (*oplog.Entry, error) {
	ctx = withItemContext(ctx, itemID, actorID)
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(itemID)
	defer unlock()

	var (
		stamped oplog.Entry
		status  string
	)
	now := e.now()
	err = e.repo.Update(ctx, itemID, func(tx Tx, item *workitem.WorkItem) error {
		open, err := tx.OpenEntry()
		if err != nil {
			return err
		}
		if open == nil {
			return &workitem.NoActiveOperationError{WorkItemID: item.ID, Current: item.Status.Label(e.reg)}
		}
		if err := claim.Release(item.Claim, actor.ID); err != nil {
			return err
		}
		stamped, err = stamp(open, item.ID, now)
		if err != nil {
			return err
		}
		status = item.Status.Label(e.reg)
		return tx.UpdateEntry(stamped)
	})
	if err != nil {
		return nil, err
	}

	e.requestLogger(ctx).Info(strings.Replace(string(evtType), ".", " ", 1),
		logging.Int64("entry_id", stamped.ID),
		logging.String(logging.FieldEventType, strings.Replace(string(evtType), ".", "_", 1)),
	)
	e.publish(events.Event{
		Type:       evtType,
		WorkItemID: itemID,
		StationID:  stamped.StationID,
		ActorID:    actor.ID,
		Status:     status,
	})
	return &stamped, nil
}

// ForceRelease drops the claim on an in-progress barrel and returns it to
// pending at the same station. Only admins may do this, and supervisors
// when the engine allows it.
func (e *Engine) ForceRelease(ctx context.Context, itemID, actorID, reason string) (*workitem.WorkItem, error) {
	ctx = withItemContext(ctx, itemID, actorID)
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !access.CanForceRelease(actor, e.supervisorForceRelease) {
		return nil, &access.DeniedError{ActorName: actor.Name(), Action: "force-release claims"}
	}

	unlock := e.locks.Lock(itemID)
	defer unlock()

	var (
		result   workitem.WorkItem
		previous claim.Claim
	)
	now := e.now()
	err = e.repo.Update(ctx, itemID, func(tx Tx, item *workitem.WorkItem) error {
		if err := workitem.CheckActive(*item, e.reg); err != nil {
			return err
		}
		if item.Claim != nil {
			previous = *item.Claim
		}
		if err := e.closeWithException(tx, item.ID, reason, ExceptionForceReleased, now); err != nil {
			return err
		}
		result = workitem.Release(*item, now)
		return tx.SaveItem(result)
	})
	if err != nil {
		return nil, err
	}

	logging.WarnWithContext(e.requestLogger(ctx), "claim force-released", "claim_force_released",
		logging.String("previous_holder", previous.HolderID),
		logging.String("reason", reason),
		logging.String(logging.FieldErrorHint, "confirm the previous holder has stopped work on the barrel"),
		logging.String(logging.FieldImpact, "barrel returned to the station queue"),
	)
	e.publish(events.Event{
		Type:       events.OperationReleased,
		WorkItemID: result.ID,
		StationID:  result.Status.StationID,
		ActorID:    actor.ID,
		Status:     result.Status.Label(e.reg),
		Notes:      strings.TrimSpace(reason),
	})
	e.publishQueues(ctx, result.Status.StationID)
	return &result, nil
}

// Quarantine pulls a barrel out of the pipeline into hold, rework or scrap.
// Any open visit is closed with the quarantine kind as its exception code.
func (e *Engine) Quarantine(ctx context.Context, itemID string, kind workitem.Kind, actorID, reason string) (*workitem.WorkItem, error) {
	ctx = withItemContext(ctx, itemID, actorID)
	if !workitem.IsQuarantineKind(kind) {
		return nil, failure.Invalid("kind", fmt.Sprintf("unsupported quarantine kind %q", kind))
	}
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !access.CanQuarantine(actor) {
		return nil, &access.DeniedError{ActorName: actor.Name(), Action: "quarantine barrels"}
	}

	unlock := e.locks.Lock(itemID)
	defer unlock()

	var result workitem.WorkItem
	now := e.now()
	err = e.repo.Update(ctx, itemID, func(tx Tx, item *workitem.WorkItem) error {
		if err := workitem.CheckQuarantine(*item, e.reg); err != nil {
			return err
		}
		if err := e.closeWithException(tx, item.ID, reason, string(kind), now); err != nil {
			return err
		}
		quarantined, err := workitem.Quarantine(*item, kind, now)
		if err != nil {
			return err
		}
		result = quarantined
		return tx.SaveItem(result)
	})
	if err != nil {
		return nil, err
	}

	logging.WarnWithContext(e.requestLogger(ctx), "barrel quarantined", "item_quarantined",
		logging.String("kind", string(kind)),
		logging.String("reason", reason),
		logging.String(logging.FieldErrorHint, "review the barrel before returning it to production"),
		logging.String(logging.FieldImpact, "barrel removed from the pipeline"),
	)
	e.publish(events.Event{
		Type:       events.ItemQuarantined,
		WorkItemID: result.ID,
		StationID:  result.Status.StationID,
		ActorID:    actor.ID,
		Status:     result.Status.Label(e.reg),
		Notes:      strings.TrimSpace(reason),
	})
	e.publishQueues(ctx, result.Status.StationID)
	return &result, nil
}

// closeWithException ends the open entry, if any, tagging it with code.
func (e *Engine) closeWithException(tx Tx, itemID, notes, code string, now time.Time) error {
	open, err := tx.OpenEntry()
	if err != nil || open == nil {
		return err
	}
	closed, err := oplog.Close(open, itemID, notes, now)
	if err != nil {
		return err
	}
	closed.ExceptionCode = code
	return tx.UpdateEntry(closed)
}

func (e *Engine) logConflict(ctx context.Context, err error) {
	var conflict *oplog.ConflictingOpenEntryError
	if !errors.As(err, &conflict) {
		return
	}
	logging.ErrorWithContext(e.requestLogger(ctx), "barrel already has an open operation log entry", "oplog_conflict",
		logging.Int64("entry_id", conflict.EntryID),
		logging.Error(err),
		logging.Alert("conflicting_open_entry"),
		logging.String(logging.FieldErrorHint, "close the stray operation log entry before restarting work"),
	)
}

func derefSeconds(value *int64) int64 {
	if value == nil {
		return 0
	}
	return *value
}
