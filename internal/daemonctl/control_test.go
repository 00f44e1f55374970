package daemonctl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"boreline/internal/api"
	"boreline/internal/testsupport"
)

func TestOfflineHelpersWithoutDaemon(t *testing.T) {
	socket := filepath.Join(testsupport.ShortTempDir(t), "missing.sock")

	alive, pid, err := ProcessInfo(socket)
	if err != nil || alive || pid != 0 {
		t.Fatalf("expected unreachable daemon, got alive=%v pid=%d err=%v", alive, pid, err)
	}
	if err := WaitForShutdown(socket, 100*time.Millisecond); err != nil {
		t.Fatalf("WaitForShutdown: %v", err)
	}
	cfg := testsupport.NewConfig(t)
	if _, err := StopAndTerminate(socket, cfg, 100*time.Millisecond); !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestForceKillProcessRefusesSelf(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "borelined.pid")
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ForceKillProcess(pidPath, "", 0); err == nil {
		t.Fatal("expected refusal to kill current process")
	}
	if _, err := ForceKillProcess(filepath.Join(t.TempDir(), "none.pid"), "", 0); err == nil {
		t.Fatal("expected error without a pid")
	}
}

func TestBuildStatusSnapshotOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	plant := testsupport.NewPlant(t, st)
	svc := api.NewService(plant.Engine)

	ctx := context.Background()
	created, err := svc.CreateItem(ctx, api.CreateItemRequest{SerialNumber: "BRL-42", Caliber: "6.5 PRC", LengthInches: 24})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if _, err := svc.Quarantine(ctx, created.Item.ID, api.TransitionRequest{ActorID: "root", Kind: "scrap", Reason: "cracked"}); err != nil {
		t.Fatalf("Quarantine: %v", err)
	}

	socket := filepath.Join(testsupport.ShortTempDir(t), "missing.sock")
	snapshot, err := BuildStatusSnapshot(ctx, socket, cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if snapshot.Reachable || snapshot.Status.Running {
		t.Fatal("expected offline snapshot")
	}
	if snapshot.Status.Stats.Total != 1 || snapshot.Status.Stats.Scrap != 1 {
		t.Fatalf("unexpected offline stats %+v", snapshot.Status.Stats)
	}
	if len(snapshot.Checks) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(snapshot.Checks))
	}
}

func TestLaunchRequiresExecutable(t *testing.T) {
	if err := Launch(" ", LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable")
	}
}
