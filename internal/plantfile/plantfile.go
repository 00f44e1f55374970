// Package plantfile loads the YAML description of a plant: its stations,
// the people who work there and which stations they may operate.
//
// The file is applied once at daemon start. Stations are seeded only into an
// empty catalog; actors and their assignments are upserted every time.
package plantfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"boreline/internal/access"
	"boreline/internal/logging"
	"boreline/internal/station"
)

// Plant is the decoded plant file.
type Plant struct {
	Stations []Station `yaml:"stations"`
	Actors   []Actor   `yaml:"actors"`
}

// Station is one station definition.
type Station struct {
	Name        string `yaml:"name"`
	Sequence    int    `yaml:"sequence"`
	Description string `yaml:"description"`
}

// Actor is one person with the stations they are assigned to, by name.
type Actor struct {
	ID          string   `yaml:"id"`
	Username    string   `yaml:"username"`
	DisplayName string   `yaml:"display_name"`
	Role        string   `yaml:"role"`
	Active      *bool    `yaml:"active"`
	Stations    []string `yaml:"stations"`
}

// Target is the persistent state a plant file is applied to.
type Target interface {
	ListStations(ctx context.Context) ([]station.Station, error)
	SeedStations(ctx context.Context, seeds []station.Seed) (int, error)
	UpsertActor(ctx context.Context, actor access.Actor) error
	AssignStation(ctx context.Context, actorID string, stationID station.ID, assignedBy string) (access.Assignment, error)
}

// Summary reports what Apply changed.
type Summary struct {
	StationsSeeded int
	Actors         int
	Assignments    int
}

// Load reads and validates the plant file at path.
func Load(path string) (*Plant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plant file: %w", err)
	}
	plant, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("plant file %s: %w", path, err)
	}
	return plant, nil
}

// Decode parses a plant definition. Unknown keys are rejected.
func Decode(r io.Reader) (*Plant, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var plant Plant
	if err := decoder.Decode(&plant); err != nil {
		if errors.Is(err, io.EOF) {
			return &plant, nil
		}
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := plant.Validate(); err != nil {
		return nil, err
	}
	return &plant, nil
}

// Validate checks the plant for duplicates and dangling references.
func (p *Plant) Validate() error {
	names := make(map[string]struct{}, len(p.Stations))
	stations := make([]station.Station, 0, len(p.Stations))
	for i, st := range p.Stations {
		name := strings.TrimSpace(st.Name)
		if name == "" {
			return fmt.Errorf("stations[%d]: name is required", i)
		}
		names[strings.ToLower(name)] = struct{}{}
		stations = append(stations, station.Station{ID: station.ID(i + 1), Name: name, SequenceNumber: st.Sequence})
	}
	if len(stations) > 0 {
		if _, err := station.NewRegistry(stations); err != nil {
			return fmt.Errorf("stations: %w", err)
		}
	}

	ids := make(map[string]struct{}, len(p.Actors))
	for i, actor := range p.Actors {
		if strings.TrimSpace(actor.Username) == "" {
			return fmt.Errorf("actors[%d]: username is required", i)
		}
		if _, err := access.ParseRole(actor.Role); err != nil {
			return fmt.Errorf("actors[%d]: %w", i, err)
		}
		id := actor.id()
		if _, dup := ids[id]; dup {
			return fmt.Errorf("actors[%d]: duplicate id %q", i, id)
		}
		ids[id] = struct{}{}
		if len(p.Stations) == 0 {
			continue
		}
		for _, name := range actor.Stations {
			if _, ok := names[strings.ToLower(strings.TrimSpace(name))]; !ok {
				return fmt.Errorf("actors[%d]: unknown station %q", i, name)
			}
		}
	}
	return nil
}

func (a Actor) id() string {
	if id := strings.TrimSpace(a.ID); id != "" {
		return id
	}
	return strings.TrimSpace(a.Username)
}

// Seeds converts the station list to catalog seeds.
func (p *Plant) Seeds() []station.Seed {
	seeds := make([]station.Seed, 0, len(p.Stations))
	for _, st := range p.Stations {
		seeds = append(seeds, station.Seed{
			Name:           strings.TrimSpace(st.Name),
			SequenceNumber: st.Sequence,
			Description:    strings.TrimSpace(st.Description),
		})
	}
	return seeds
}

// Apply seeds stations into an empty catalog, falling back to the default
// catalog when the plant defines none, then upserts actors and assignments.
func Apply(ctx context.Context, target Target, plant *Plant, logger *slog.Logger) (Summary, error) {
	logger = logging.NewComponentLogger(logger, "plantfile")
	if plant == nil {
		plant = &Plant{}
	}
	var summary Summary

	seeds := plant.Seeds()
	if len(seeds) == 0 {
		seeds = station.DefaultCatalog()
	}
	seeded, err := target.SeedStations(ctx, seeds)
	if err != nil {
		return summary, err
	}
	summary.StationsSeeded = seeded

	stations, err := target.ListStations(ctx)
	if err != nil {
		return summary, err
	}
	reg, err := station.NewRegistry(stations)
	if err != nil {
		return summary, fmt.Errorf("station catalog: %w", err)
	}
	if seeded == 0 && len(plant.Stations) > 0 && !sameCatalog(reg, plant.Seeds()) {
		logging.WarnWithContext(logger, "plant file stations differ from the stored catalog; keeping stored stations", "plant_catalog_mismatch",
			logging.String(logging.FieldErrorHint, "stations are seeded once; edit the database to change the catalog"),
			logging.String(logging.FieldImpact, "plant file station changes are ignored"),
		)
	}

	for _, a := range plant.Actors {
		role, err := access.ParseRole(a.Role)
		if err != nil {
			return summary, err
		}
		active := true
		if a.Active != nil {
			active = *a.Active
		}
		actor := access.Actor{
			ID:          a.id(),
			Username:    strings.TrimSpace(a.Username),
			DisplayName: strings.TrimSpace(a.DisplayName),
			Role:        role,
			Active:      active,
		}
		if err := target.UpsertActor(ctx, actor); err != nil {
			return summary, fmt.Errorf("actor %s: %w", actor.ID, err)
		}
		summary.Actors++
		for _, name := range a.Stations {
			st, err := reg.GetByName(strings.TrimSpace(name))
			if err != nil {
				return summary, fmt.Errorf("actor %s: %w", actor.ID, err)
			}
			if _, err := target.AssignStation(ctx, actor.ID, st.ID, "plantfile"); err != nil {
				return summary, fmt.Errorf("assign %s to %s: %w", actor.ID, st.Name, err)
			}
			summary.Assignments++
		}
	}

	logger.Info("plant file applied",
		logging.Int("stations_seeded", summary.StationsSeeded),
		logging.Int("actors", summary.Actors),
		logging.Int("assignments", summary.Assignments),
	)
	return summary, nil
}

func sameCatalog(reg *station.Registry, seeds []station.Seed) bool {
	list := reg.List()
	if len(list) != len(seeds) {
		return false
	}
	for _, seed := range seeds {
		st, err := reg.GetByName(seed.Name)
		if err != nil || st.SequenceNumber != seed.SequenceNumber {
			return false
		}
	}
	return true
}
