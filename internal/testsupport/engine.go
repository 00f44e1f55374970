package testsupport

import (
	"context"
	"testing"

	"boreline/internal/access"
	"boreline/internal/events"
	"boreline/internal/store"
	"boreline/internal/workflow"
)

// Plant is a seeded store with an engine and event hub on top.
type Plant struct {
	Store  *store.Store
	Engine *workflow.Engine
	Hub    *events.Hub
}

// NewPlant opens a store under cfg, seeds the default catalog, registers an
// admin named "root" and builds an engine publishing to a fresh hub.
func NewPlant(t testing.TB, st *store.Store, opts ...workflow.Option) *Plant {
	t.Helper()

	SeedStations(t, st)
	NewActor(t, st, "root", access.RoleAdmin)

	hub := events.NewHub(256)
	t.Cleanup(hub.Close)

	base := []workflow.Option{workflow.WithPublisher(hub)}
	engine, err := workflow.New(context.Background(), st, append(base, opts...)...)
	if err != nil {
		t.Fatalf("workflow.New: %v", err)
	}
	return &Plant{Store: st, Engine: engine, Hub: hub}
}
