package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"boreline/internal/api"
	"boreline/internal/failure"
	"boreline/internal/opsaccess"
)

func TestStationsListsDefaultCatalog(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "stations")
	requireContains(t, out, "Drilling")
	requireContains(t, out, "HEAT_TREAT")
	requireContains(t, out, "Final QC")
}

func TestOperationFlowOverDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "item", "create", "--serial", "BRL-1", "--caliber", ".308", "--length", "24", "--priority", "High")
	requireContains(t, out, "Registered BRL-1")
	requireContains(t, out, "DRILLING_PENDING")

	out = mustRunCLI(t, env, "--actor", "root", "start", "BRL-1", "--station", "drilling")
	requireContains(t, out, "Started BRL-1")
	requireContains(t, out, "DRILLING_IN_PROGRESS")
	requireContains(t, out, "Claimed by root")

	out = mustRunCLI(t, env, "queue", "1")
	requireContains(t, out, "BRL-1")

	_, err := runCLI(t, env, "--actor", "op1", "complete", "BRL-1")
	if !failure.Is(err, failure.KindNotClaimOwner) {
		t.Fatalf("expected not_claim_owner, got %v", err)
	}

	out = mustRunCLI(t, env, "--actor", "root", "pause", "BRL-1")
	requireContains(t, out, "Paused BRL-1")
	mustRunCLI(t, env, "--actor", "root", "resume", "BRL-1")

	out = mustRunCLI(t, env, "--actor", "root", "complete", "BRL-1", "--notes", "bore clean")
	requireContains(t, out, "REAMING_PENDING")

	out = mustRunCLI(t, env, "item", "history", "BRL-1")
	requireContains(t, out, "Drilling")
	requireContains(t, out, "bore clean")

	out = mustRunCLI(t, env, "item", "show", "BRL-1")
	requireContains(t, out, ".308")
	requireContains(t, out, "24 in")
}

func TestOperationRequiresActor(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRunCLI(t, env, "item", "create", "--serial", "BRL-2", "--caliber", "6.5 Creedmoor")

	_, err := runCLI(t, env, "start", "BRL-2", "--station", "1")
	if err == nil {
		t.Fatal("expected error without --actor")
	}
	requireContains(t, err.Error(), "acting user required")

	_, err = runCLI(t, env, "--actor", "root", "quarantine", "BRL-2")
	if err == nil {
		t.Fatal("expected error without --kind")
	}
	requireContains(t, err.Error(), "--kind")
}

func TestQuarantineAndListByStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRunCLI(t, env, "item", "create", "--serial", "BRL-3", "--caliber", ".223")
	mustRunCLI(t, env, "--actor", "root", "start", "BRL-3", "--station", "1")

	out := mustRunCLI(t, env, "--actor", "root", "quarantine", "BRL-3", "--kind", "hold", "--reason", "pitting")
	requireContains(t, out, "HOLD")

	out = mustRunCLI(t, env, "item", "list", "--status", "hold")
	requireContains(t, out, "BRL-3")

	out = mustRunCLI(t, env, "item", "list", "--status", "ready_to_ship")
	requireContains(t, out, "No barrels found")
}

func TestStatsJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRunCLI(t, env, "item", "create", "--serial", "BRL-4", "--caliber", ".308")

	out := mustRunCLI(t, env, "--json", "stats")
	var stats api.Stats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v\n%s", err, out)
	}
	if stats.Total != 1 {
		t.Fatalf("expected 1 barrel, got %d", stats.Total)
	}
	if len(stats.Stations) != 10 || stats.Stations[0].Pending != 1 {
		t.Fatalf("unexpected station loads %+v", stats.Stations)
	}
}

func TestEventsPrintsBatch(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRunCLI(t, env, "item", "create", "--serial", "BRL-5", "--caliber", ".308")

	out := mustRunCLI(t, env, "events")
	requireContains(t, out, "item.created")
	requireContains(t, out, "queue.updated")
}

func TestActorsManagement(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "--actor", "root", "actors", "register", "sam", "--name", "Sam Ortiz", "--role", "supervisor")
	requireContains(t, out, "Registered sam")

	out = mustRunCLI(t, env, "--actor", "root", "actors", "assign", "sam", "Lapping")
	requireContains(t, out, "Assigned sam to station 5")

	_, err := runCLI(t, env, "--actor", "op1", "actors", "deactivate", "sam")
	if !failure.Is(err, failure.KindAccessDenied) {
		t.Fatalf("expected access_denied, got %v", err)
	}

	out = mustRunCLI(t, env, "--actor", "root", "actors", "deactivate", "sam")
	requireContains(t, out, "Deactivated sam")

	out = mustRunCLI(t, env, "actors", "list")
	requireContains(t, out, "Sam Ortiz")
	requireContains(t, out, "op1")
}

func TestDirectModeFallback(t *testing.T) {
	env := setupDirectEnv(t)

	out := mustRunCLI(t, env, "actors", "register", "lead", "--role", "admin")
	requireContains(t, out, "Registered lead")

	mustRunCLI(t, env, "item", "create", "--serial", "BRL-6", "--caliber", ".308")
	out = mustRunCLI(t, env, "--actor", "lead", "start", "BRL-6", "--station", "Drilling")
	requireContains(t, out, "DRILLING_IN_PROGRESS")

	out = mustRunCLI(t, env, "queue", "Drilling")
	requireContains(t, out, "BRL-6")

	_, err := runCLI(t, env, "events")
	if !errors.Is(err, opsaccess.ErrEventsUnavailable) {
		t.Fatalf("expected events to need the daemon, got %v", err)
	}
}

func TestStatusWithoutDaemon(t *testing.T) {
	env := setupDirectEnv(t)

	out := mustRunCLI(t, env, "status")
	requireContains(t, out, "Not running")
	requireContains(t, out, "Data directory")
}

func TestQueueRejectsUnknownStation(t *testing.T) {
	env := setupCLITestEnv(t)

	_, err := runCLI(t, env, "queue", "Polishing")
	if err == nil {
		t.Fatal("expected unknown station error")
	}
	requireContains(t, err.Error(), "unknown station")
}

func TestLogsPrintsTail(t *testing.T) {
	env := setupDirectEnv(t)
	logPath := env.cfg.DaemonLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustRunCLI(t, env, "logs", "-n", "2")
	if out != "second\nthird\n" {
		t.Fatalf("unexpected log tail %q", out)
	}
}
