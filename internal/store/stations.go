package store

import (
	"context"
	"fmt"
	"strings"

	"boreline/internal/station"
)

const stationColumns = "id, name, sequence_number, description, active, created_at"

// ListStations returns every station ordered by sequence number.
func (s *Store) ListStations(ctx context.Context) ([]station.Station, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+stationColumns+" FROM stations ORDER BY sequence_number")
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer rows.Close()

	var out []station.Station
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// SeedStations inserts the catalog when the stations table is empty. It
// reports how many stations were inserted.
func (s *Store) SeedStations(ctx context.Context, seeds []station.Seed) (int, error) {
	ctx = ensureContext(ctx)
	inserted := 0
	err := retryOnBusy(ctx, func() error {
		inserted = 0
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM stations").Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		now := formatTime(s.now())
		for _, seed := range seeds {
			name := strings.TrimSpace(seed.Name)
			if name == "" {
				return fmt.Errorf("station with sequence %d has no name", seed.SequenceNumber)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO stations (name, sequence_number, description, active, created_at) VALUES (?, ?, ?, 1, ?)",
				name, seed.SequenceNumber, strings.TrimSpace(seed.Description), now,
			); err != nil {
				return fmt.Errorf("insert station %q: %w", name, err)
			}
			inserted++
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("seed stations: %w", err)
	}
	return inserted, nil
}

func scanStation(scanner rowScanner) (station.Station, error) {
	var (
		st         station.Station
		active     int
		createdRaw string
	)
	if err := scanner.Scan(&st.ID, &st.Name, &st.SequenceNumber, &st.Description, &active, &createdRaw); err != nil {
		return station.Station{}, err
	}
	st.Active = active != 0
	if created, err := parseTimeString(createdRaw); err == nil {
		st.CreatedAt = created
	}
	return st, nil
}
