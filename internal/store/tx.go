package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"boreline/internal/failure"
	"boreline/internal/oplog"
	"boreline/internal/workflow"
	"boreline/internal/workitem"
)

// Update loads the work item inside an immediate transaction and hands it
// to fn. Writes made through the transaction commit when fn returns nil.
func (s *Store) Update(ctx context.Context, workItemID string, fn func(tx workflow.Tx, item *workitem.WorkItem) error) error {
	ctx = ensureContext(ctx)
	var fnErr error
	err := retryOnBusy(ctx, func() error {
		fnErr = nil
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		row := tx.QueryRowContext(ctx, "SELECT "+workItemColumns+" FROM work_items WHERE id = ?", workItemID)
		item, err := scanWorkItem(row)
		if errors.Is(err, sql.ErrNoRows) {
			fnErr = failure.NotFound("barrel", workItemID)
			return nil
		}
		if err != nil {
			return err
		}

		if err := fn(&txn{ctx: ctx, tx: tx, workItemID: workItemID}, item); err != nil {
			if isSQLiteBusy(err) {
				return err
			}
			fnErr = err
			return nil
		}
		return tx.Commit()
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return fmt.Errorf("update work item %s: %w", workItemID, err)
	}
	return nil
}

type txn struct {
	ctx        context.Context
	tx         *sql.Tx
	workItemID string
}

func (t *txn) OpenEntry() (*oplog.Entry, error) {
	row := t.tx.QueryRowContext(t.ctx,
		"SELECT "+entryColumns+" FROM operation_logs WHERE work_item_id = ? AND ended_at IS NULL", t.workItemID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load open entry: %w", err)
	}
	return &entry, nil
}

func (t *txn) InsertEntry(entry *oplog.Entry) error {
	if entry == nil {
		return errors.New("insert entry: nil entry")
	}
	res, err := t.tx.ExecContext(t.ctx, `INSERT INTO operation_logs (work_item_id, station_id, holder_id, holder_name,
        session_id, started_at, ended_at, paused_at, resumed_at, duration_seconds, notes, exception_code)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.WorkItemID,
		int64(entry.StationID),
		entry.HolderID,
		entry.HolderName,
		nullableString(entry.SessionID),
		formatTime(entry.StartedAt),
		nullableTime(entry.EndedAt),
		nullableTime(entry.PausedAt),
		nullableTime(entry.ResumedAt),
		nullableInt64(entry.DurationSeconds),
		nullableString(entry.Notes),
		nullableString(entry.ExceptionCode),
	)
	if err != nil {
		if isUniqueViolation(err, "operation_logs.work_item_id") {
			conflict := &oplog.ConflictingOpenEntryError{WorkItemID: entry.WorkItemID}
			if open, openErr := t.OpenEntry(); openErr == nil && open != nil {
				conflict.EntryID = open.ID
			}
			return conflict
		}
		return fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

func (t *txn) UpdateEntry(entry oplog.Entry) error {
	res, err := t.tx.ExecContext(t.ctx, `UPDATE operation_logs SET
        ended_at = ?, paused_at = ?, resumed_at = ?, duration_seconds = ?, notes = ?, exception_code = ?
        WHERE id = ? AND work_item_id = ?`,
		nullableTime(entry.EndedAt),
		nullableTime(entry.PausedAt),
		nullableTime(entry.ResumedAt),
		nullableInt64(entry.DurationSeconds),
		nullableString(entry.Notes),
		nullableString(entry.ExceptionCode),
		entry.ID,
		t.workItemID,
	)
	if err != nil {
		return fmt.Errorf("update entry %d: %w", entry.ID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return failure.NotFound("operation log entry", fmt.Sprint(entry.ID))
	}
	return nil
}

func (t *txn) SaveItem(item workitem.WorkItem) error {
	if item.ID != t.workItemID {
		return fmt.Errorf("save item: transaction holds %s, not %s", t.workItemID, item.ID)
	}
	if !item.Consistent() {
		return fmt.Errorf("save item %s: claim does not match status", item.ID)
	}
	args, err := workItemArgs(item)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(t.ctx, `UPDATE work_items SET
        serial_number = ?, barcode = ?, caliber = ?, length_inches = ?, twist_rate = ?, material = ?, priority = ?,
        status_kind = ?, station_id = ?, phase = ?, claim_holder_id = ?, claim_holder_name = ?, claim_session_id = ?,
        claim_acquired_at = ?, created_at = ?, updated_at = ?, started_at = ?, completed_at = ?, metadata_json = ?
        WHERE id = ?`,
		append(args, item.ID)...,
	)
	if err != nil {
		return fmt.Errorf("save item %s: %w", item.ID, err)
	}
	return nil
}
