package ipc_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"boreline/internal/access"
	"boreline/internal/api"
	"boreline/internal/daemon"
	"boreline/internal/events"
	"boreline/internal/failure"
	"boreline/internal/ipc"
	"boreline/internal/logging"
	"boreline/internal/testsupport"
)

func startServer(t *testing.T) (*ipc.Client, *testsupport.Plant) {
	t.Helper()
	socket := filepath.Join(testsupport.ShortTempDir(t), "bl.sock")
	cfg := testsupport.NewConfig(t, testsupport.WithSocketPath(socket))
	cfg.API.Bind = ""
	plant := testsupport.NewPlant(t, testsupport.MustOpenStore(t, cfg))
	testsupport.NewActor(t, plant.Store, "op1", access.RoleOperator, 1)

	logger := logging.NewNop()
	d, err := daemon.New(cfg, plant.Store, plant.Engine, plant.Hub, logger, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client, plant
}

func TestIPCServerClient(t *testing.T) {
	client, _ := startServer(t)
	ctx := context.Background()

	startResp, err := client.Start(ctx)
	if err != nil {
		t.Fatalf("Start RPC failed: %v", err)
	}
	if !startResp.Started {
		t.Fatalf("expected Started=true, message=%s", startResp.Message)
	}

	status, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected daemon to be running")
	}

	stations, err := client.Stations(ctx)
	if err != nil {
		t.Fatalf("Stations failed: %v", err)
	}
	if len(stations.Stations) != 10 {
		t.Fatalf("expected 10 stations, got %d", len(stations.Stations))
	}

	created, err := client.CreateItem(ctx, api.CreateItemRequest{SerialNumber: "BRL-900", Caliber: ".223 Rem", LengthInches: 20})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	itemID := created.Item.ID

	started, err := client.Operation(ctx, api.ActionStart, itemID, api.TransitionRequest{ActorID: "op1", StationID: 1})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if started.Item.Status != "DRILLING_IN_PROGRESS" {
		t.Fatalf("unexpected status %s", started.Item.Status)
	}

	queue, err := client.Queue(ctx, 1)
	if err != nil {
		t.Fatalf("Queue failed: %v", err)
	}
	if len(queue.Items) != 1 || queue.Items[0].ID != itemID {
		t.Fatalf("unexpected queue %#v", queue.Items)
	}

	completed, err := client.Operation(ctx, api.ActionComplete, itemID, api.TransitionRequest{ActorID: "op1"})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Item.Status != "REAMING_PENDING" {
		t.Fatalf("unexpected status after complete %s", completed.Item.Status)
	}

	history, err := client.History(ctx, itemID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history.Entries) != 1 || len(history.Totals) != 1 {
		t.Fatalf("unexpected history %#v", history)
	}

	found, err := client.Lookup(ctx, "BRL-900")
	if err != nil || found.Item.ID != itemID {
		t.Fatalf("Lookup failed: %v %#v", err, found.Item)
	}

	items, err := client.Items(ctx, []string{"station"})
	if err != nil {
		t.Fatalf("Items failed: %v", err)
	}
	if len(items.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items.Items))
	}

	actors, err := client.Actors(ctx)
	if err != nil {
		t.Fatalf("Actors failed: %v", err)
	}
	if len(actors.Actors) != 2 {
		t.Fatalf("expected 2 actors, got %d", len(actors.Actors))
	}

	if _, err := client.Assign(ctx, "op1", api.AssignmentRequest{AdminID: "root", StationID: 2}); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	deactivated, err := client.SetActorActive(ctx, "op1", api.ActorStatusRequest{AdminID: "root", Active: false})
	if err != nil {
		t.Fatalf("SetActorActive failed: %v", err)
	}
	if deactivated.Active {
		t.Fatal("expected actor to be inactive")
	}

	stats, err := client.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 1 {
		t.Fatalf("expected 1 item in stats, got %d", stats.Total)
	}

	notifyResp, err := client.TestNotification(ctx)
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if notifyResp == nil || notifyResp.Message == "" {
		t.Fatalf("expected notification message, got %#v", notifyResp)
	}

	stopResp, err := client.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatal("expected stop response to be true")
	}
	status2, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status2.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestIPCPreservesFailureKinds(t *testing.T) {
	client, _ := startServer(t)
	ctx := context.Background()

	_, err := client.Item(ctx, "missing")
	if !failure.Is(err, failure.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	created, err := client.CreateItem(ctx, api.CreateItemRequest{SerialNumber: "BRL-901", Caliber: ".223 Rem", LengthInches: 20})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if _, err := client.Operation(ctx, api.ActionStart, created.Item.ID, api.TransitionRequest{ActorID: "root", StationID: 1}); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	_, err = client.Operation(ctx, api.ActionComplete, created.Item.ID, api.TransitionRequest{ActorID: "op1"})
	var remote *api.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected remote error, got %T %v", err, err)
	}
	if remote.Response.Kind != string(failure.KindNotClaimOwner) || remote.Response.HolderName != "root" {
		t.Fatalf("unexpected remote error %#v", remote.Response)
	}

	_, err = client.Operation(ctx, "polish", created.Item.ID, api.TransitionRequest{ActorID: "root"})
	if !failure.Is(err, failure.KindValidation) {
		t.Fatalf("expected validation error for unknown action, got %v", err)
	}
}

func TestIPCEventsWait(t *testing.T) {
	client, _ := startServer(t)
	ctx := context.Background()

	initial, err := client.Events(ctx, ipc.EventsRequest{})
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	done := make(chan api.EventsResponse, 1)
	errs := make(chan error, 1)
	go func() {
		resp, err := client.Events(ctx, ipc.EventsRequest{Since: initial.Next, WaitMillis: 3000})
		if err != nil {
			errs <- err
			return
		}
		done <- resp
	}()

	time.Sleep(100 * time.Millisecond)
	if _, err := client.CreateItem(ctx, api.CreateItemRequest{SerialNumber: "BRL-902", Caliber: ".223 Rem", LengthInches: 20}); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	select {
	case resp := <-done:
		if len(resp.Events) == 0 || resp.Events[0].Type != events.ItemCreated {
			t.Fatalf("unexpected events %#v", resp.Events)
		}
		if resp.Next <= initial.Next {
			t.Fatalf("expected next to advance past %d, got %d", initial.Next, resp.Next)
		}
	case err := <-errs:
		t.Fatalf("Events wait failed: %v", err)
	case <-time.After(6 * time.Second):
		t.Fatal("events wait timed out")
	}
}

func TestIPCShutdownInvokesHook(t *testing.T) {
	socket := filepath.Join(testsupport.ShortTempDir(t), "bl.sock")
	cfg := testsupport.NewConfig(t, testsupport.WithSocketPath(socket))
	cfg.API.Bind = ""
	plant := testsupport.NewPlant(t, testsupport.MustOpenStore(t, cfg))
	d, err := daemon.New(cfg, plant.Store, plant.Engine, plant.Hub, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	srv, err := ipc.NewServer(context.Background(), socket, d, nil)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	called := make(chan struct{})
	srv.OnShutdown(func() { close(called) })
	srv.Serve()
	t.Cleanup(srv.Close)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	defer client.Close()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	resp, err := client.Shutdown(context.Background())
	if err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !resp.Stopped || d.Running() {
		t.Fatal("expected daemon to be stopped")
	}
	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown hook not invoked")
	}
}
