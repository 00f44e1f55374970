package workflow_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boreline/internal/access"
	"boreline/internal/claim"
	"boreline/internal/events"
	"boreline/internal/failure"
	"boreline/internal/station"
	"boreline/internal/store"
	"boreline/internal/testsupport"
	"boreline/internal/workflow"
	"boreline/internal/workitem"
)

type fixture struct {
	engine   *workflow.Engine
	store    *store.Store
	hub      *events.Hub
	clock    *testsupport.Clock
	stations []station.Station
}

func newFixture(t *testing.T, seeds []station.Seed, opts ...workflow.Option) *fixture {
	t.Helper()

	clock := testsupport.NewClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t), store.WithClock(clock.Now))
	if seeds == nil {
		seeds = station.DefaultCatalog()
	}
	_, err := st.SeedStations(context.Background(), seeds)
	require.NoError(t, err)
	stations, err := st.ListStations(context.Background())
	require.NoError(t, err)

	hub := events.NewHub(256)
	t.Cleanup(hub.Close)
	base := []workflow.Option{workflow.WithClock(clock.Now), workflow.WithPublisher(hub)}
	engine, err := workflow.New(context.Background(), st, append(base, opts...)...)
	require.NoError(t, err)
	return &fixture{engine: engine, store: st, hub: hub, clock: clock, stations: stations}
}

func (f *fixture) createItem(t *testing.T, priority workitem.Priority) *workitem.WorkItem {
	t.Helper()
	item, err := f.engine.CreateWorkItem(context.Background(), workflow.NewWorkItem{
		Attributes: workitem.Attributes{Caliber: "6.5 Creedmoor", LengthInches: 24, TwistRate: "1:8", Priority: priority},
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) encode(t *testing.T, item *workitem.WorkItem) string {
	t.Helper()
	encoded, err := item.Status.Encode(f.engine.Registry())
	require.NoError(t, err)
	return encoded
}

func (f *fixture) assertInvariants(t *testing.T, itemID string) {
	t.Helper()
	item, err := f.engine.GetWorkItem(context.Background(), itemID)
	require.NoError(t, err)
	assert.Equal(t, item.Status.IsInProgress(), item.Claim != nil, "claim present iff in progress")

	history, err := f.engine.History(context.Background(), itemID)
	require.NoError(t, err)
	open := 0
	for _, entry := range history {
		if entry.IsOpen() {
			open++
		}
	}
	assert.LessOrEqual(t, open, 1, "at most one open entry")
	assert.Equal(t, item.Status.IsInProgress(), open == 1)
}

func twoStations() []station.Seed {
	return []station.Seed{
		{Name: "Drilling", SequenceNumber: 1},
		{Name: "Reaming", SequenceNumber: 2},
	}
}

func TestDrillingReamingScenario(t *testing.T) {
	f := newFixture(t, twoStations())
	drilling, reaming := f.stations[0], f.stations[1]
	testsupport.NewActor(t, f.store, "alice", access.RoleOperator, drilling.ID)
	testsupport.NewActor(t, f.store, "bob", access.RoleOperator, drilling.ID, reaming.ID)
	ctx := context.Background()

	item := f.createItem(t, workitem.PriorityMedium)
	assert.Equal(t, "DRILLING_PENDING", f.encode(t, item))
	assert.Nil(t, item.Claim)

	started, err := f.engine.StartOperation(ctx, item.ID, drilling.ID, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, "DRILLING_IN_PROGRESS", f.encode(t, started))
	require.NotNil(t, started.Claim)
	assert.Equal(t, "alice", started.Claim.HolderID)
	f.assertInvariants(t, item.ID)

	_, err = f.engine.StartOperation(ctx, item.ID, drilling.ID, "bob", "")
	var claimed *claim.AlreadyClaimedError
	require.ErrorAs(t, err, &claimed)
	assert.Equal(t, "alice", claimed.HolderName)

	f.clock.Advance(90 * time.Minute)
	completed, err := f.engine.CompleteOperation(ctx, item.ID, "alice", "bore ok")
	require.NoError(t, err)
	assert.Equal(t, "REAMING_PENDING", f.encode(t, completed))
	assert.Nil(t, completed.Claim)
	assert.Nil(t, completed.StartedAt)
	assert.Nil(t, completed.CompletedAt)
	f.assertInvariants(t, item.ID)

	started, err = f.engine.StartOperation(ctx, item.ID, reaming.ID, "bob", "")
	require.NoError(t, err)
	assert.Equal(t, "REAMING_IN_PROGRESS", f.encode(t, started))
	assert.Equal(t, "bob", started.Claim.HolderID)

	f.clock.Advance(30 * time.Minute)
	completed, err = f.engine.CompleteOperation(ctx, item.ID, "bob", "")
	require.NoError(t, err)
	assert.Equal(t, "READY_TO_SHIP", f.encode(t, completed))
	assert.True(t, completed.Status.IsTerminal())
	assert.Nil(t, completed.Claim)
	require.NotNil(t, completed.CompletedAt)
	f.assertInvariants(t, item.ID)

	history, err := f.engine.History(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, drilling.ID, history[0].StationID)
	assert.Equal(t, "bore ok", history[0].Notes)
	require.NotNil(t, history[0].DurationSeconds)
	assert.Equal(t, int64(5400), *history[0].DurationSeconds)
	assert.Equal(t, reaming.ID, history[1].StationID)
	assert.Equal(t, "bob", history[1].HolderID)

	_, err = f.engine.StartOperation(ctx, item.ID, reaming.ID, "bob", "")
	assert.True(t, failure.Is(err, failure.KindInvalidState), "terminal items accept no transitions")
	_, err = f.engine.CompleteOperation(ctx, item.ID, "bob", "")
	assert.True(t, failure.Is(err, failure.KindNoActiveOperation))
}

func TestSequentialAdvancementVisitsEveryStation(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.NewActor(t, f.store, "sam", access.RoleSupervisor)
	ctx := context.Background()
	item := f.createItem(t, workitem.PriorityHigh)

	for _, st := range f.stations {
		current, err := f.engine.GetWorkItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, workitem.Pending(st.ID), current.Status, "pending at %s", st.Name)
		assert.Equal(t, station.Token(st.Name)+"_PENDING", f.encode(t, current))

		started, err := f.engine.StartOperation(ctx, item.ID, st.ID, "sam", "")
		require.NoError(t, err)
		assert.Equal(t, workitem.InProgress(st.ID), started.Status)

		f.clock.Advance(time.Minute)
		_, err = f.engine.CompleteOperation(ctx, item.ID, "sam", "")
		require.NoError(t, err)
		f.assertInvariants(t, item.ID)
	}

	final, err := f.engine.GetWorkItem(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, final.Status.IsTerminal())

	history, err := f.engine.History(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, history, len(f.stations))
	for i, entry := range history {
		assert.Equal(t, f.stations[i].ID, entry.StationID)
		assert.False(t, entry.IsOpen())
	}
}

func TestStartRequiresPendingAtRequestedStation(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.NewActor(t, f.store, "sam", access.RoleSupervisor)
	item := f.createItem(t, workitem.PriorityMedium)

	_, err := f.engine.StartOperation(context.Background(), item.ID, f.stations[1].ID, "sam", "")
	var invalid *workitem.InvalidStateError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "DRILLING_PENDING", invalid.Current)
	assert.Equal(t, "REAMING_PENDING", invalid.Expected)
	f.assertInvariants(t, item.ID)
}

func TestIdempotentReacquire(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.NewActor(t, f.store, "alice", access.RoleOperator, f.stations[0].ID)
	ctx := context.Background()
	item := f.createItem(t, workitem.PriorityMedium)

	first, err := f.engine.StartOperation(ctx, item.ID, f.stations[0].ID, "alice", "")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	second, err := f.engine.StartOperation(ctx, item.ID, f.stations[0].ID, "alice", "")
	require.NoError(t, err)

	assert.Equal(t, first.Claim.SessionID, second.Claim.SessionID)
	assert.True(t, first.Claim.AcquiredAt.Equal(second.Claim.AcquiredAt))

	history, err := f.engine.History(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestAccessDenial(t *testing.T) {
	f := newFixture(t, nil)
	drilling := f.stations[0]
	testsupport.NewActor(t, f.store, "olly", access.RoleOperator, f.stations[1].ID)
	testsupport.NewActor(t, f.store, "root", access.RoleAdmin)
	ctx := context.Background()
	item := f.createItem(t, workitem.PriorityMedium)

	_, err := f.engine.StartOperation(ctx, item.ID, drilling.ID, "olly", "")
	var denied *access.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "Drilling", denied.StationName)

	_, err = f.engine.StartOperation(ctx, item.ID, drilling.ID, "root", "")
	require.NoError(t, err)

	_, err = f.engine.CompleteOperation(ctx, item.ID, "olly", "")
	assert.True(t, failure.Is(err, failure.KindAccessDenied))

	_, err = f.engine.CompleteOperation(ctx, item.ID, "root", "")
	require.NoError(t, err)
	f.assertInvariants(t, item.ID)
}

func TestCompleteByNonHolderIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.NewActor(t, f.store, "alice", access.RoleOperator, f.stations[0].ID)
	testsupport.NewActor(t, f.store, "bob", access.RoleOperator, f.stations[0].ID)
	ctx := context.Background()
	item := f.createItem(t, workitem.PriorityMedium)

	_, err := f.engine.CompleteOperation(ctx, item.ID, "alice", "")
	assert.True(t, failure.Is(err, failure.KindNoActiveOperation))

	_, err = f.engine.StartOperation(ctx, item.ID, f.stations[0].ID, "alice", "")
	require.NoError(t, err)
	_, err = f.engine.CompleteOperation(ctx, item.ID, "bob", "")
	var notOwner *claim.NotOwnerError
	require.ErrorAs(t, err, &notOwner)
	assert.Equal(t, "alice", notOwner.HolderName)
	f.assertInvariants(t, item.ID)
}

func TestUnknownAndInactiveActors(t *testing.T) {
	f := newFixture(t, nil)
	root := testsupport.NewActor(t, f.store, "root", access.RoleAdmin)
	testsupport.NewActor(t, f.store, "gone", access.RoleSupervisor)
	ctx := context.Background()
	item := f.createItem(t, workitem.PriorityMedium)

	_, err := f.engine.StartOperation(ctx, item.ID, f.stations[0].ID, "ghost", "")
	assert.ErrorIs(t, err, workflow.ErrUnknownActor)
	assert.True(t, failure.Is(err, failure.KindNotFound))

	_, err = f.engine.SetActorActive(ctx, root.ID, "gone", false)
	require.NoError(t, err)
	_, err = f.engine.StartOperation(ctx, item.ID, f.stations[0].ID, "gone", "")
	assert.True(t, failure.Is(err, failure.KindAccessDenied))

	_, err = f.engine.StartOperation(ctx, "missing", f.stations[0].ID, "root", "")
	assert.True(t, failure.Is(err, failure.KindNotFound))
	_, err = f.engine.StartOperation(ctx, item.ID, station.ID(999), "root", "")
	assert.True(t, failure.Is(err, failure.KindNotFound))
}

func TestPauseAndResume(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.NewActor(t, f.store, "alice", access.RoleOperator, f.stations[0].ID)
	testsupport.NewActor(t, f.store, "bob", access.RoleOperator, f.stations[0].ID)
	ctx := context.Background()
	item := f.createItem(t, workitem.PriorityMedium)

	_, err := f.engine.PauseOperation(ctx, item.ID, "alice")
	assert.True(t, failure.Is(err, failure.KindNoActiveOperation))

	_, err = f.engine.StartOperation(ctx, item.ID, f.stations[0].ID, "alice", "")
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	paused, err := f.engine.PauseOperation(ctx, item.ID, "alice")
	require.NoError(t, err)
	assert.True(t, paused.IsPaused())

	_, err = f.engine.StartOperation(ctx, item.ID, f.stations[0].ID, "bob", "")
	var claimed *claim.AlreadyClaimedError
	require.ErrorAs(t, err, &claimed)
	assert.Equal(t, "alice", claimed.HolderName)
	f.assertInvariants(t, item.ID)

	_, err = f.engine.ResumeOperation(ctx, item.ID, "bob")
	assert.True(t, failure.Is(err, failure.KindNotClaimOwner))

	f.clock.Advance(5 * time.Minute)
	resumed, err := f.engine.ResumeOperation(ctx, item.ID, "alice")
	require.NoError(t, err)
	assert.False(t, resumed.IsPaused())
	require.NotNil(t, resumed.ResumedAt)

	current, err := f.engine.GetWorkItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, workitem.InProgress(f.stations[0].ID), current.Status)
	assert.Equal(t, "alice", current.Claim.HolderID)
}

func TestForceRelease(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.NewActor(t, f.store, "alice", access.RoleOperator, f.stations[0].ID)
	testsupport.NewActor(t, f.store, "sue", access.RoleSupervisor)
	testsupport.NewActor(t, f.store, "root", access.RoleAdmin)
	ctx := context.Background()
	item := f.createItem(t, workitem.PriorityMedium)

	_, err := f.engine.ForceRelease(ctx, item.ID, "root", "")
	assert.True(t, failure.Is(err, failure.KindNoActiveOperation))

	_, err = f.engine.StartOperation(ctx, item.ID, f.stations[0].ID, "alice", "")
	require.NoError(t, err)

	_, err = f.engine.ForceRelease(ctx, item.ID, "sue", "shift ended")
	assert.True(t, failure.Is(err, failure.KindAccessDenied), "supervisors need the config switch")
	_, err = f.engine.ForceRelease(ctx, item.ID, "alice", "")
	assert.True(t, failure.Is(err, failure.KindAccessDenied))

	released, err := f.engine.ForceRelease(ctx, item.ID, "root", "operator went home")
	require.NoError(t, err)
	assert.Equal(t, workitem.Pending(f.stations[0].ID), released.Status)
	assert.Nil(t, released.Claim)
	f.assertInvariants(t, item.ID)

	history, err := f.engine.History(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, workflow.ExceptionForceReleased, history[0].ExceptionCode)
	assert.Equal(t, "operator went home", history[0].Notes)

	_, err = f.engine.StartOperation(ctx, item.ID, f.stations[0].ID, "sue", "")
	require.NoError(t, err, "released barrel can be claimed again")
}

func TestSupervisorForceReleaseWhenEnabled(t *testing.T) {
	f := newFixture(t, nil, workflow.WithSupervisorForceRelease(true))
	testsupport.NewActor(t, f.store, "alice", access.RoleOperator, f.stations[0].ID)
	testsupport.NewActor(t, f.store, "sue", access.RoleSupervisor)
	ctx := context.Background()
	item := f.createItem(t, workitem.PriorityMedium)

	_, err := f.engine.StartOperation(ctx, item.ID, f.stations[0].ID, "alice", "")
	require.NoError(t, err)
	_, err = f.engine.ForceRelease(ctx, item.ID, "sue", "stuck")
	require.NoError(t, err)
}

func TestQuarantineIsAbsorbing(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.NewActor(t, f.store, "alice", access.RoleOperator, f.stations[0].ID)
	testsupport.NewActor(t, f.store, "sue", access.RoleSupervisor)
	ctx := context.Background()
	item := f.createItem(t, workitem.PriorityMedium)

	_, err := f.engine.StartOperation(ctx, item.ID, f.stations[0].ID, "alice", "")
	require.NoError(t, err)

	_, err = f.engine.Quarantine(ctx, item.ID, workitem.KindScrap, "alice", "")
	assert.True(t, failure.Is(err, failure.KindAccessDenied))
	_, err = f.engine.Quarantine(ctx, item.ID, workitem.Kind("melt"), "sue", "")
	assert.True(t, failure.Is(err, failure.KindValidation))

	held, err := f.engine.Quarantine(ctx, item.ID, workitem.KindHold, "sue", "bore scope shows chatter")
	require.NoError(t, err)
	assert.Equal(t, "HOLD", f.encode(t, held))
	assert.Equal(t, f.stations[0].ID, held.Status.StationID)
	assert.Nil(t, held.Claim)
	f.assertInvariants(t, item.ID)

	history, err := f.engine.History(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hold", history[0].ExceptionCode)

	_, err = f.engine.Quarantine(ctx, item.ID, workitem.KindScrap, "sue", "")
	assert.True(t, failure.Is(err, failure.KindInvalidState))
	_, err = f.engine.StartOperation(ctx, item.ID, f.stations[0].ID, "sue", "")
	assert.True(t, failure.Is(err, failure.KindInvalidState))
}

func TestQueueOrderingAndStats(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.NewActor(t, f.store, "sam", access.RoleSupervisor)
	ctx := context.Background()

	low := f.createItem(t, workitem.PriorityLow)
	f.clock.Advance(time.Second)
	medium := f.createItem(t, workitem.PriorityMedium)
	f.clock.Advance(time.Second)
	highLate := f.createItem(t, workitem.PriorityHigh)
	f.clock.Advance(time.Second)
	highLater := f.createItem(t, workitem.PriorityHigh)

	queue, err := f.engine.GetQueue(ctx, f.stations[0].ID)
	require.NoError(t, err)
	var ids []string
	for _, item := range queue {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{highLate.ID, highLater.ID, medium.ID, low.ID}, ids)

	_, err = f.engine.StartOperation(ctx, low.ID, f.stations[0].ID, "sam", "")
	require.NoError(t, err)
	_, err = f.engine.CompleteOperation(ctx, low.ID, "sam", "")
	require.NoError(t, err)
	_, err = f.engine.StartOperation(ctx, medium.ID, f.stations[0].ID, "sam", "")
	require.NoError(t, err)

	stats, err := f.engine.StationStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Stations[0].Pending)
	assert.Equal(t, 1, stats.Stations[0].InProgress)
	assert.Equal(t, 1, stats.Stations[1].Pending)

	_, err = f.engine.GetQueue(ctx, station.ID(999))
	assert.True(t, failure.Is(err, failure.KindNotFound))
}

func TestDescribeAndLookup(t *testing.T) {
	f := newFixture(t, nil)
	testsupport.NewActor(t, f.store, "sam", access.RoleSupervisor)
	ctx := context.Background()

	item, err := f.engine.CreateWorkItem(ctx, workflow.NewWorkItem{
		Attributes:   workitem.Attributes{Caliber: ".308 Win", LengthInches: 20},
		SerialNumber: "BRL-1001",
		Barcode:      "0001001",
	})
	require.NoError(t, err)
	assert.Equal(t, workitem.PriorityMedium, item.Attributes.Priority)

	found, err := f.engine.Lookup(ctx, "0001001")
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)
	_, err = f.engine.Lookup(ctx, "nope")
	assert.True(t, failure.Is(err, failure.KindNotFound))

	_, err = f.engine.StartOperation(ctx, item.ID, f.stations[0].ID, "sam", "")
	require.NoError(t, err)
	f.clock.Advance(2 * time.Minute)
	_, err = f.engine.CompleteOperation(ctx, item.ID, "sam", "")
	require.NoError(t, err)
	_, err = f.engine.StartOperation(ctx, item.ID, f.stations[1].ID, "sam", "")
	require.NoError(t, err)

	desc, err := f.engine.Describe(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, desc.History, 2)
	require.NotNil(t, desc.Open)
	assert.Equal(t, f.stations[1].ID, desc.Open.StationID)
	require.Len(t, desc.Totals, 2)
	assert.Equal(t, int64(120), desc.Totals[0].Seconds)
	assert.Equal(t, 18, desc.Progress, "position 2 of 10 stations")
}

func TestCreateWorkItemValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.engine.CreateWorkItem(ctx, workflow.NewWorkItem{Attributes: workitem.Attributes{LengthInches: 24}})
	assert.True(t, failure.Is(err, failure.KindValidation))

	item := f.createItem(t, workitem.PriorityLow)
	assert.NotEmpty(t, item.SerialNumber)
	assert.Equal(t, item.SerialNumber, item.Barcode)

	_, err = f.engine.CreateWorkItem(ctx, workflow.NewWorkItem{
		Attributes:   workitem.Attributes{Caliber: "6mm", LengthInches: 26},
		SerialNumber: item.SerialNumber,
	})
	assert.True(t, failure.Is(err, failure.KindValidation))
}

func TestEventsPublishedAfterCommit(t *testing.T) {
	f := newFixture(t, twoStations())
	testsupport.NewActor(t, f.store, "sam", access.RoleSupervisor)
	ctx := context.Background()
	sub := f.hub.Subscribe(32, events.ForStation(f.stations[1].ID))
	defer sub.Unsubscribe()

	item := f.createItem(t, workitem.PriorityMedium)
	_, err := f.engine.StartOperation(ctx, item.ID, f.stations[0].ID, "sam", "")
	require.NoError(t, err)
	_, err = f.engine.StartOperation(ctx, item.ID, f.stations[0].ID, "sam", "")
	require.NoError(t, err)
	_, err = f.engine.CompleteOperation(ctx, item.ID, "sam", "")
	require.NoError(t, err)

	all, _ := f.hub.Tail(0)
	var types []events.Type
	for _, evt := range all {
		types = append(types, evt.Type)
	}
	assert.Equal(t, []events.Type{
		events.ItemCreated, events.QueueUpdated,
		events.OperationStarted, events.QueueUpdated,
		events.OperationCompleted, events.QueueUpdated, events.QueueUpdated,
	}, types, "a repeated start publishes nothing")

	select {
	case evt := <-sub.Events():
		assert.Equal(t, events.QueueUpdated, evt.Type)
		require.Len(t, evt.Queue, 1)
		assert.Equal(t, "REAMING_PENDING", evt.Queue[0].Status)
	case <-time.After(time.Second):
		t.Fatal("expected queue update for the next station")
	}

	_, err = f.engine.StartOperation(ctx, item.ID, f.stations[0].ID, "sam", "")
	require.Error(t, err)
	after, _ := f.hub.Tail(0)
	assert.Len(t, after, len(all), "failed transitions publish nothing")
}

func TestConcurrentStartsGrantOneClaim(t *testing.T) {
	f := newFixture(t, nil)
	const workers = 8
	for i := 0; i < workers; i++ {
		testsupport.NewActor(t, f.store, fmt.Sprintf("sup-%d", i), access.RoleSupervisor)
	}
	item := f.createItem(t, workitem.PriorityMedium)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
		claimed int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(actorID string) {
			defer wg.Done()
			_, err := f.engine.StartOperation(context.Background(), item.ID, f.stations[0].ID, actorID, "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, actorID)
			case failure.Is(err, failure.KindAlreadyClaimed):
				claimed++
			default:
				t.Errorf("unexpected error for %s: %v", actorID, err)
			}
		}(fmt.Sprintf("sup-%d", i))
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, workers-1, claimed)
	f.assertInvariants(t, item.ID)
}

func TestActorAdministration(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	root, err := f.engine.RegisterActor(ctx, "", workflow.NewActor{Username: "root", Role: access.RoleAdmin})
	require.NoError(t, err, "first actor bootstraps without an admin")
	assert.Equal(t, "root", root.ID)

	_, err = f.engine.RegisterActor(ctx, "", workflow.NewActor{Username: "alice", Role: access.RoleOperator})
	require.Error(t, err)

	alice, err := f.engine.RegisterActor(ctx, root.ID, workflow.NewActor{Username: "alice", DisplayName: "Alice", Role: access.RoleOperator})
	require.NoError(t, err)
	_, err = f.engine.RegisterActor(ctx, alice.ID, workflow.NewActor{Username: "eve", Role: access.RoleAdmin})
	assert.True(t, failure.Is(err, failure.KindAccessDenied))

	_, err = f.engine.AssignStation(ctx, root.ID, alice.ID, f.stations[2].ID)
	require.NoError(t, err)
	profiles, err := f.engine.ListActors(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	for _, p := range profiles {
		if p.Actor.ID == alice.ID {
			assert.Equal(t, []station.ID{f.stations[2].ID}, p.Stations)
			assert.Equal(t, "Alice", p.Actor.Name())
		}
	}

	require.NoError(t, f.engine.UnassignStation(ctx, root.ID, alice.ID, f.stations[2].ID))
	err = f.engine.UnassignStation(ctx, root.ID, alice.ID, f.stations[2].ID)
	assert.True(t, failure.Is(err, failure.KindNotFound))
}
