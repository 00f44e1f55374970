package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boreline/internal/access"
	"boreline/internal/api"
	"boreline/internal/events"
	"boreline/internal/station"
	"boreline/internal/testsupport"
)

const testToken = "s3cret"

type apiHarness struct {
	t      *testing.T
	base   string
	client *http.Client
	plant  *testsupport.Plant
}

func startAPI(t *testing.T) *apiHarness {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken(testToken))
	plant := testsupport.NewPlant(t, testsupport.MustOpenStore(t, cfg))
	testsupport.NewActor(t, plant.Store, "op2", access.RoleOperator, 1)

	d, err := New(cfg, plant.Store, plant.Engine, plant.Hub, nil, nil)
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(d.Stop)

	return &apiHarness{
		t:      t,
		base:   "http://" + d.APIAddress(),
		client: &http.Client{Timeout: 10 * time.Second},
		plant:  plant,
	}
}

func (h *apiHarness) do(method, path string, body any, out any) int {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.base+path, reader)
	require.NoError(h.t, err)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(h.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (h *apiHarness) createItem(serial string) api.WorkItem {
	h.t.Helper()
	var created api.ItemResponse
	status := h.do(http.MethodPost, "/api/items", api.CreateItemRequest{SerialNumber: serial, Caliber: "6mm Dasher", LengthInches: 26}, &created)
	require.Equal(h.t, http.StatusCreated, status)
	return created.Item
}

func TestAPIServerRequiresToken(t *testing.T) {
	h := startAPI(t)

	resp, err := h.client.Get(h.base + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = h.client.Get(h.base + "/api/stations")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = h.client.Get(h.base + "/api/stations?token=" + testToken)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestAPIServerOperationFlow(t *testing.T) {
	h := startAPI(t)
	item := h.createItem("BRL-501")
	assert.Equal(t, "DRILLING_PENDING", item.Status)

	var started api.ItemResponse
	status := h.do(http.MethodPost, "/api/items/"+item.ID+"/start", api.TransitionRequest{ActorID: "root", StationID: 1}, &started)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "DRILLING_IN_PROGRESS", started.Item.Status)

	var queue api.QueueResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/stations/1/queue", nil, &queue))
	require.Len(t, queue.Items, 1)
	assert.Equal(t, "BRL-501", queue.Items[0].SerialNumber)

	var apiErr api.ErrorResponse
	status = h.do(http.MethodPost, "/api/items/"+item.ID+"/start", api.TransitionRequest{ActorID: "op2", StationID: 1}, &apiErr)
	assert.Equal(t, http.StatusConflict, status)

	apiErr = api.ErrorResponse{}
	status = h.do(http.MethodPost, "/api/items/"+item.ID+"/complete", api.TransitionRequest{ActorID: "op2"}, &apiErr)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "not_claim_owner", apiErr.Kind)
	assert.Equal(t, "root", apiErr.HolderName)

	var completed api.ItemResponse
	status = h.do(http.MethodPost, "/api/items/"+item.ID+"/complete", api.TransitionRequest{ActorID: "root", Notes: "drilled"}, &completed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "REAMING_PENDING", completed.Item.Status)

	var history api.HistoryResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/items/"+item.ID+"/history", nil, &history))
	require.Len(t, history.Entries, 1)
	assert.Equal(t, "drilled", history.Entries[0].Notes)

	var found api.ItemResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/items/lookup?code=brl-501", nil, &found))
	assert.Equal(t, item.ID, found.Item.ID)

	var quarantined api.ItemResponse
	status = h.do(http.MethodPost, "/api/items/"+item.ID+"/quarantine", api.TransitionRequest{ActorID: "root", Kind: "rework", Reason: "chatter marks"}, &quarantined)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "REWORK", quarantined.Item.Status)

	var stats api.Stats
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/stats", nil, &stats))
	assert.Equal(t, 1, stats.Rework)
	assert.Equal(t, 1, stats.Total)
}

func TestAPIServerErrorKinds(t *testing.T) {
	h := startAPI(t)

	var apiErr api.ErrorResponse
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/items/missing", nil, &apiErr))
	assert.Equal(t, "not_found", apiErr.Kind)

	apiErr = api.ErrorResponse{}
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/stations/abc/queue", nil, &apiErr))
	assert.Equal(t, "stationId", apiErr.Field)

	apiErr = api.ErrorResponse{}
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/items/lookup", nil, &apiErr))
	assert.Equal(t, "validation", apiErr.Kind)

	item := h.createItem("BRL-502")
	apiErr = api.ErrorResponse{}
	status := h.do(http.MethodPost, "/api/items/"+item.ID+"/pause", api.TransitionRequest{ActorID: "root"}, &apiErr)
	assert.Equal(t, http.StatusConflict, status)

	apiErr = api.ErrorResponse{}
	status = h.do(http.MethodPost, "/api/actors", api.RegisterActorRequest{AdminID: "op2", ID: "op3", Username: "op3", Role: "operator"}, &apiErr)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "access_denied", apiErr.Kind)
}

func TestAPIServerActors(t *testing.T) {
	h := startAPI(t)

	var actor api.Actor
	status := h.do(http.MethodPost, "/api/actors", api.RegisterActorRequest{AdminID: "root", ID: "sup1", Username: "sup1", DisplayName: "Shift Lead", Role: "supervisor"}, &actor)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "supervisor", actor.Role)

	var assignment api.Assignment
	status = h.do(http.MethodPost, "/api/actors/sup1/assignments", api.AssignmentRequest{AdminID: "root", StationID: 2}, &assignment)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, assignment.Active)

	status = h.do(http.MethodPost, "/api/actors/sup1/status", api.ActorStatusRequest{AdminID: "root", Active: false}, &actor)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, actor.Active)

	var list api.ActorsResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/actors", nil, &list))
	assert.Len(t, list.Actors, 3)
}

func TestAPIServerEventsLongPoll(t *testing.T) {
	h := startAPI(t)
	item := h.createItem("BRL-601")

	var first api.EventsResponse
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/events?since=0", nil, &first))
	require.NotEmpty(t, first.Events)
	assert.Equal(t, events.ItemCreated, first.Events[0].Type)

	type result struct {
		resp   api.EventsResponse
		status int
	}
	done := make(chan result, 1)
	go func() {
		var resp api.EventsResponse
		status := h.do(http.MethodGet, "/api/events?wait=5&since="+uintString(first.Next), nil, &resp)
		done <- result{resp: resp, status: status}
	}()

	time.Sleep(100 * time.Millisecond)
	status := h.do(http.MethodPost, "/api/items/"+item.ID+"/start", api.TransitionRequest{ActorID: "root", StationID: 1}, nil)
	require.Equal(t, http.StatusOK, status)

	select {
	case res := <-done:
		require.Equal(t, http.StatusOK, res.status)
		require.NotEmpty(t, res.resp.Events)
		assert.Greater(t, res.resp.Next, first.Next)
		assert.True(t, containsType(res.resp.Events, events.OperationStarted))
	case <-time.After(8 * time.Second):
		t.Fatal("long poll did not return")
	}
}

func TestAPIServerEventStream(t *testing.T) {
	h := startAPI(t)
	item := h.createItem("BRL-701")

	url := "ws" + strings.TrimPrefix(h.base, "http") + "/api/events/ws?stationId=1&token=" + testToken
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()

	status := h.do(http.MethodPost, "/api/items/"+item.ID+"/start", api.TransitionRequest{ActorID: "root", StationID: 1}, nil)
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var evt events.Event
		require.NoError(t, conn.ReadJSON(&evt))
		assert.Equal(t, station.ID(1), evt.StationID)
		if evt.Type == events.OperationStarted {
			assert.Equal(t, item.ID, evt.WorkItemID)
			assert.Equal(t, "root", evt.ActorID)
			return
		}
	}
}

func TestStationSetFilters(t *testing.T) {
	set := newStationSet()
	drilling := events.Event{StationID: 1}
	lapping := events.Event{StationID: 4}

	assert.True(t, set.accepts(drilling))
	assert.True(t, set.accepts(lapping))

	set.join(4)
	assert.False(t, set.accepts(drilling))
	assert.True(t, set.accepts(lapping))

	set.leave(4)
	assert.True(t, set.accepts(drilling))
}

func TestParseWait(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseWait(""))
	assert.Equal(t, 3*time.Second, parseWait("3"))
	assert.Equal(t, 1500*time.Millisecond, parseWait("1500ms"))
	assert.Equal(t, maxEventWait, parseWait("600"))
	assert.Equal(t, maxEventWait, parseWait("true"))
	assert.Equal(t, time.Duration(0), parseWait("-2"))
}

func containsType(list []events.Event, typ events.Type) bool {
	for _, evt := range list {
		if evt.Type == typ {
			return true
		}
	}
	return false
}

func uintString(v uint64) string {
	return strconv.FormatUint(v, 10)
}
