package testsupport

import (
	"context"
	"sync"
	"testing"
	"time"

	"boreline/internal/access"
	"boreline/internal/config"
	"boreline/internal/station"
	"boreline/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config, opts ...store.Option) *store.Store {
	t.Helper()

	st, err := store.Open(cfg, opts...)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedStations loads the default catalog and returns the stored stations.
func SeedStations(t testing.TB, st *store.Store) []station.Station {
	t.Helper()

	ctx := context.Background()
	if _, err := st.SeedStations(ctx, station.DefaultCatalog()); err != nil {
		t.Fatalf("store.SeedStations: %v", err)
	}
	stations, err := st.ListStations(ctx)
	if err != nil {
		t.Fatalf("store.ListStations: %v", err)
	}
	return stations
}

// NewActor registers an active actor and assigns it to the given stations.
func NewActor(t testing.TB, st *store.Store, id string, role access.Role, stations ...station.ID) access.Actor {
	t.Helper()

	ctx := context.Background()
	actor := access.Actor{ID: id, Username: id, DisplayName: id, Role: role, Active: true}
	if err := st.UpsertActor(ctx, actor); err != nil {
		t.Fatalf("store.UpsertActor(%s): %v", id, err)
	}
	for _, stationID := range stations {
		if _, err := st.AssignStation(ctx, id, stationID, "test"); err != nil {
			t.Fatalf("store.AssignStation(%s, %d): %v", id, stationID, err)
		}
	}
	return actor
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock starting at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start.UTC()}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
