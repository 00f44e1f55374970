package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"boreline/internal/access"
	"boreline/internal/failure"
	"boreline/internal/station"
)

const actorColumns = "id, username, display_name, role, active, created_at, updated_at"

// UpsertActor creates the actor or updates its profile.
func (s *Store) UpsertActor(ctx context.Context, actor access.Actor) error {
	if !actor.Role.Valid() {
		return failure.Invalid("role", "required")
	}
	now := formatTime(s.now())
	_, err := s.execWithRetry(ctx, `INSERT INTO actors (id, username, display_name, role, active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            username = excluded.username,
            display_name = excluded.display_name,
            role = excluded.role,
            active = excluded.active,
            updated_at = excluded.updated_at`,
		actor.ID, actor.Username, actor.DisplayName, actor.Role.String(), boolToInt(actor.Active), now, now,
	)
	if err != nil {
		if isUniqueViolation(err, "actors.username") {
			return failure.Invalid("username", fmt.Sprintf("%q is already taken", actor.Username))
		}
		return fmt.Errorf("upsert actor %s: %w", actor.ID, err)
	}
	return nil
}

// GetActor returns the actor or nil when absent.
func (s *Store) GetActor(ctx context.Context, id string) (*access.Actor, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+actorColumns+" FROM actors WHERE id = ?", id)
	actor, err := scanActor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get actor %s: %w", id, err)
	}
	return &actor, nil
}

// ListActors returns every actor ordered by username.
func (s *Store) ListActors(ctx context.Context) ([]access.Actor, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+actorColumns+" FROM actors ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	defer rows.Close()

	var out []access.Actor
	for rows.Next() {
		actor, err := scanActor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan actor: %w", err)
		}
		out = append(out, actor)
	}
	return out, rows.Err()
}

// ActiveAssignments returns the actor's active station assignments, oldest first.
func (s *Store) ActiveAssignments(ctx context.Context, actorID string) ([]access.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, actor_id, station_id, active, COALESCE(assigned_by, ''), assigned_at
        FROM station_assignments WHERE actor_id = ? AND active = 1 ORDER BY assigned_at, id`, actorID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []access.Assignment
	for rows.Next() {
		var (
			a           access.Assignment
			active      int
			assignedRaw string
		)
		if err := rows.Scan(&a.ID, &a.ActorID, &a.StationID, &active, &a.AssignedBy, &assignedRaw); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		a.Active = active != 0
		if ts, err := parseTimeString(assignedRaw); err == nil {
			a.AssignedAt = ts
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AssignStation activates an assignment. An existing active assignment is
// returned unchanged.
func (s *Store) AssignStation(ctx context.Context, actorID string, stationID station.ID, assignedBy string) (access.Assignment, error) {
	existing, err := s.ActiveAssignments(ctx, actorID)
	if err != nil {
		return access.Assignment{}, err
	}
	for _, a := range existing {
		if a.StationID == stationID {
			return a, nil
		}
	}

	now := s.now()
	res, err := s.execWithRetry(ctx,
		"INSERT INTO station_assignments (actor_id, station_id, active, assigned_by, assigned_at) VALUES (?, ?, 1, ?, ?)",
		actorID, int64(stationID), nullableString(assignedBy), formatTime(now),
	)
	if err != nil {
		return access.Assignment{}, fmt.Errorf("assign station: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return access.Assignment{}, fmt.Errorf("last insert id: %w", err)
	}
	return access.Assignment{
		ID:         id,
		ActorID:    actorID,
		StationID:  stationID,
		Active:     true,
		AssignedBy: assignedBy,
		AssignedAt: now,
	}, nil
}

// UnassignStation deactivates the actor's assignment to the station.
func (s *Store) UnassignStation(ctx context.Context, actorID string, stationID station.ID) (bool, error) {
	res, err := s.execWithRetry(ctx,
		"UPDATE station_assignments SET active = 0 WHERE actor_id = ? AND station_id = ? AND active = 1",
		actorID, int64(stationID),
	)
	if err != nil {
		return false, fmt.Errorf("unassign station: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanActor(scanner rowScanner) (access.Actor, error) {
	var (
		actor      access.Actor
		role       string
		active     int
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&actor.ID, &actor.Username, &actor.DisplayName, &role, &active, &createdRaw, &updatedRaw); err != nil {
		return access.Actor{}, err
	}
	parsed, err := access.ParseRole(role)
	if err != nil {
		return access.Actor{}, err
	}
	actor.Role = parsed
	actor.Active = active != 0
	if ts, err := parseTimeString(createdRaw); err == nil {
		actor.CreatedAt = ts
	}
	if ts, err := parseTimeString(updatedRaw); err == nil {
		actor.UpdatedAt = ts
	}
	return actor, nil
}
