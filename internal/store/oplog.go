package store

import (
	"context"
	"database/sql"
	"fmt"

	"boreline/internal/oplog"
)

const entryColumns = `id, work_item_id, station_id, holder_id, holder_name, session_id,
    started_at, ended_at, paused_at, resumed_at, duration_seconds, notes, exception_code`

// History returns the item's operation log, oldest first.
func (s *Store) History(ctx context.Context, workItemID string) ([]oplog.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM operation_logs WHERE work_item_id = ? ORDER BY started_at, id", workItemID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []oplog.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func scanEntry(scanner rowScanner) (oplog.Entry, error) {
	var (
		entry      oplog.Entry
		sessionID  sql.NullString
		startedRaw string
		endedAt    sql.NullString
		pausedAt   sql.NullString
		resumedAt  sql.NullString
		duration   sql.NullInt64
		notes      sql.NullString
		exception  sql.NullString
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.WorkItemID,
		&entry.StationID,
		&entry.HolderID,
		&entry.HolderName,
		&sessionID,
		&startedRaw,
		&endedAt,
		&pausedAt,
		&resumedAt,
		&duration,
		&notes,
		&exception,
	); err != nil {
		return oplog.Entry{}, err
	}
	entry.SessionID = sessionID.String
	if ts, err := parseTimeString(startedRaw); err == nil {
		entry.StartedAt = ts
	}
	entry.EndedAt = parseNullTime(endedAt)
	entry.PausedAt = parseNullTime(pausedAt)
	entry.ResumedAt = parseNullTime(resumedAt)
	if duration.Valid {
		seconds := duration.Int64
		entry.DurationSeconds = &seconds
	}
	entry.Notes = notes.String
	entry.ExceptionCode = exception.String
	return entry, nil
}
