package opsaccess_test

import (
	"context"
	"errors"
	"testing"

	"boreline/internal/api"
	"boreline/internal/ipc"
	"boreline/internal/opsaccess"
	"boreline/internal/store"
	"boreline/internal/testsupport"
	"boreline/internal/workflow"
)

func TestOpenWithFallbackUsesStoreWhenDaemonOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	plant := testsupport.NewPlant(t, st)

	dialed := false
	session, err := opsaccess.OpenWithFallback(
		func() (*ipc.Client, error) {
			dialed = true
			return nil, errors.New("connection refused")
		},
		func() (*store.Store, *workflow.Engine, error) {
			return plant.Store, plant.Engine, nil
		},
	)
	if err != nil {
		t.Fatalf("OpenWithFallback: %v", err)
	}
	if !dialed {
		t.Fatal("expected IPC dial attempt")
	}
	access := session.Access
	if access.Mode() != opsaccess.ModeDirect {
		t.Fatalf("expected direct mode, got %s", access.Mode())
	}

	ctx := context.Background()
	created, err := access.CreateItem(ctx, api.CreateItemRequest{SerialNumber: "BRL-300", Caliber: ".300 Win Mag", LengthInches: 26})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	started, err := access.Apply(ctx, api.ActionStart, created.Item.ID, api.TransitionRequest{ActorID: "root", StationID: 1})
	if err != nil {
		t.Fatalf("Apply start: %v", err)
	}
	if started.Item.Claim == nil || started.Item.Claim.HolderID != "root" {
		t.Fatalf("expected root to hold the claim, got %#v", started.Item.Claim)
	}

	stats, err := access.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 1 {
		t.Fatalf("expected 1 item, got %d", stats.Total)
	}

	if _, err := access.Events(ctx, ipc.EventsRequest{}); !errors.Is(err, opsaccess.ErrEventsUnavailable) {
		t.Fatalf("expected events to be unavailable, got %v", err)
	}

	if err := session.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenWithFallbackRequiresOpener(t *testing.T) {
	_, err := opsaccess.OpenWithFallback(func() (*ipc.Client, error) {
		return nil, errors.New("offline")
	}, nil)
	if err == nil {
		t.Fatal("expected error without a store opener")
	}
}

func TestOpenWithFallbackReportsOpenErrors(t *testing.T) {
	_, err := opsaccess.OpenWithFallback(nil, func() (*store.Store, *workflow.Engine, error) {
		return nil, nil, errors.New("disk full")
	})
	if err == nil {
		t.Fatal("expected open error")
	}
}

func TestSessionCloseWithoutCleanup(t *testing.T) {
	if err := (opsaccess.Session{}).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
