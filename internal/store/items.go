package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"boreline/internal/claim"
	"boreline/internal/failure"
	"boreline/internal/station"
	"boreline/internal/workflow"
	"boreline/internal/workitem"
)

const workItemColumns = `id, serial_number, barcode, caliber, length_inches, twist_rate, material, priority,
    status_kind, station_id, phase, claim_holder_id, claim_holder_name, claim_session_id, claim_acquired_at,
    created_at, updated_at, started_at, completed_at, metadata_json`

const queueOrder = `CASE priority WHEN 'High' THEN 0 WHEN 'Medium' THEN 1 WHEN 'Low' THEN 2 ELSE 3 END, created_at, id`

// InsertWorkItem stores a new work item.
func (s *Store) InsertWorkItem(ctx context.Context, item *workitem.WorkItem) error {
	if item == nil {
		return errors.New("insert work item: nil item")
	}
	if !item.Consistent() {
		return fmt.Errorf("insert work item %s: claim does not match status", item.ID)
	}
	args, err := workItemArgs(*item)
	if err != nil {
		return err
	}
	_, err = s.execWithRetry(ctx, `INSERT INTO work_items (`+workItemColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append([]any{item.ID}, args...)...,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "work_items.serial_number"):
			return failure.Invalid("serialNumber", fmt.Sprintf("%q is already registered", item.SerialNumber))
		case isUniqueViolation(err, "work_items.barcode"):
			return failure.Invalid("barcode", fmt.Sprintf("%q is already registered", item.Barcode))
		}
		return fmt.Errorf("insert work item: %w", err)
	}
	return nil
}

// GetWorkItem fetches a work item by id, or nil when absent.
func (s *Store) GetWorkItem(ctx context.Context, id string) (*workitem.WorkItem, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+workItemColumns+" FROM work_items WHERE id = ?", id)
	item, err := scanWorkItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get work item %s: %w", id, err)
	}
	return item, nil
}

// FindWorkItem resolves an id, serial number or barcode to a work item.
func (s *Store) FindWorkItem(ctx context.Context, code string) (*workitem.WorkItem, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+workItemColumns+` FROM work_items
        WHERE id = ? OR serial_number = ? COLLATE NOCASE OR barcode = ? COLLATE NOCASE
        ORDER BY CASE WHEN id = ? THEN 0 WHEN serial_number = ? COLLATE NOCASE THEN 1 ELSE 2 END
        LIMIT 1`, code, code, code, code, code)
	item, err := scanWorkItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find work item %q: %w", code, err)
	}
	return item, nil
}

// StationItems returns the items pending or in progress at a station in
// queue order.
func (s *Store) StationItems(ctx context.Context, stationID station.ID) ([]*workitem.WorkItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+workItemColumns+` FROM work_items
        WHERE status_kind = 'station' AND station_id = ?
        ORDER BY `+queueOrder, int64(stationID))
	if err != nil {
		return nil, fmt.Errorf("list station items: %w", err)
	}
	defer rows.Close()
	return scanWorkItems(rows)
}

// ListWorkItems returns items whose status kind is one of kinds, or every
// item when kinds is empty.
func (s *Store) ListWorkItems(ctx context.Context, kinds ...workitem.Kind) ([]*workitem.WorkItem, error) {
	query := "SELECT " + workItemColumns + " FROM work_items"
	args := make([]any, 0, len(kinds))
	if len(kinds) > 0 {
		query += " WHERE status_kind IN (" + makePlaceholders(len(kinds)) + ")"
		for _, kind := range kinds {
			args = append(args, string(kind))
		}
	}
	query += " ORDER BY " + queueOrder
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}
	defer rows.Close()
	return scanWorkItems(rows)
}

// StatusCounts groups items by status. Quarantined items are counted by
// kind alone.
func (s *Store) StatusCounts(ctx context.Context) ([]workflow.StatusCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status_kind,
            CASE WHEN status_kind = 'station' THEN station_id END AS grp_station,
            COALESCE(phase, '') AS grp_phase,
            COUNT(1)
        FROM work_items
        GROUP BY status_kind, grp_station, grp_phase
        ORDER BY status_kind, grp_station, grp_phase`)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	var out []workflow.StatusCount
	for rows.Next() {
		var (
			kind      string
			stationID sql.NullInt64
			phase     string
			count     int
		)
		if err := rows.Scan(&kind, &stationID, &phase, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		status := workitem.Status{Kind: workitem.Kind(kind), Phase: workitem.Phase(phase)}
		if stationID.Valid {
			status.StationID = station.ID(stationID.Int64)
		}
		out = append(out, workflow.StatusCount{Status: status, Count: count})
	}
	return out, rows.Err()
}

func workItemArgs(item workitem.WorkItem) ([]any, error) {
	var metadata any
	if len(item.Metadata) > 0 {
		encoded, err := json.Marshal(item.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		metadata = string(encoded)
	}

	var stationID any
	if item.Status.Kind == workitem.KindStation || item.Status.StationID != 0 {
		stationID = int64(item.Status.StationID)
	}
	var phase any
	if item.Status.Kind == workitem.KindStation {
		phase = string(item.Status.Phase)
	}

	var holderID, holderName, sessionID, acquiredAt any
	if item.Claim != nil {
		holderID = item.Claim.HolderID
		holderName = item.Claim.HolderName
		sessionID = nullableString(item.Claim.SessionID)
		acquiredAt = formatTime(item.Claim.AcquiredAt)
	}

	return []any{
		item.SerialNumber,
		nullableString(item.Barcode),
		item.Attributes.Caliber,
		item.Attributes.LengthInches,
		nullableString(item.Attributes.TwistRate),
		nullableString(item.Attributes.Material),
		string(item.Attributes.Priority),
		string(item.Status.Kind),
		stationID,
		phase,
		holderID,
		holderName,
		sessionID,
		acquiredAt,
		formatTime(item.CreatedAt),
		formatTime(item.UpdatedAt),
		nullableTime(item.StartedAt),
		nullableTime(item.CompletedAt),
		metadata,
	}, nil
}

func scanWorkItems(rows *sql.Rows) ([]*workitem.WorkItem, error) {
	var out []*workitem.WorkItem
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan work item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanWorkItem(scanner rowScanner) (*workitem.WorkItem, error) {
	var (
		item         workitem.WorkItem
		barcode      sql.NullString
		twistRate    sql.NullString
		material     sql.NullString
		priority     string
		kind         string
		stationID    sql.NullInt64
		phase        sql.NullString
		holderID     sql.NullString
		holderName   sql.NullString
		sessionID    sql.NullString
		acquiredAt   sql.NullString
		createdRaw   string
		updatedRaw   string
		startedAt    sql.NullString
		completedAt  sql.NullString
		metadataJSON sql.NullString
	)
	if err := scanner.Scan(
		&item.ID,
		&item.SerialNumber,
		&barcode,
		&item.Attributes.Caliber,
		&item.Attributes.LengthInches,
		&twistRate,
		&material,
		&priority,
		&kind,
		&stationID,
		&phase,
		&holderID,
		&holderName,
		&sessionID,
		&acquiredAt,
		&createdRaw,
		&updatedRaw,
		&startedAt,
		&completedAt,
		&metadataJSON,
	); err != nil {
		return nil, err
	}

	item.Barcode = barcode.String
	item.Attributes.TwistRate = twistRate.String
	item.Attributes.Material = material.String
	item.Attributes.Priority = workitem.Priority(priority)
	item.Status = workitem.Status{Kind: workitem.Kind(kind), Phase: workitem.Phase(phase.String)}
	if stationID.Valid {
		item.Status.StationID = station.ID(stationID.Int64)
	}
	if holderID.Valid {
		c := claim.Claim{
			HolderID:   holderID.String,
			HolderName: holderName.String,
			SessionID:  sessionID.String,
		}
		if ts := parseNullTime(acquiredAt); ts != nil {
			c.AcquiredAt = *ts
		}
		item.Claim = &c
	}
	if ts, err := parseTimeString(createdRaw); err == nil {
		item.CreatedAt = ts
	}
	if ts, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = ts
	}
	item.StartedAt = parseNullTime(startedAt)
	item.CompletedAt = parseNullTime(completedAt)
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &item.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", item.ID, err)
		}
	}
	return &item, nil
}
