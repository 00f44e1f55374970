package ipc

import (
	"context"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"boreline/internal/api"
)

// DefaultCallTimeout bounds calls made with a context that has no deadline.
const DefaultCallTimeout = 10 * time.Second

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// call runs one RPC, honoring ctx and decoding classified daemon errors.
func (c *Client) call(ctx context.Context, method string, req, resp any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCallTimeout)
		defer cancel()
	}
	pending := c.client.Go(ServiceName+"."+method, req, resp, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case done := <-pending.Done:
		return api.DecodeError(done.Error)
	}
}

// Start requests the daemon to start its transports.
func (c *Client) Start(ctx context.Context) (*StartResponse, error) {
	var resp StartResponse
	if err := c.call(ctx, "Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop its transports.
func (c *Client) Stop(ctx context.Context) (*StopResponse, error) {
	var resp StopResponse
	if err := c.call(ctx, "Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown stops the daemon and asks its process to exit.
func (c *Client) Shutdown(ctx context.Context) (*StopResponse, error) {
	var resp StopResponse
	if err := c.call(ctx, "Shutdown", ShutdownRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call(ctx, "Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stations lists the station catalog.
func (c *Client) Stations(ctx context.Context) (api.StationsResponse, error) {
	var resp api.StationsResponse
	err := c.call(ctx, "Stations", StationsRequest{}, &resp)
	return resp, err
}

// Queue lists the work at a station.
func (c *Client) Queue(ctx context.Context, stationID int64) (api.QueueResponse, error) {
	var resp api.QueueResponse
	err := c.call(ctx, "Queue", QueueRequest{StationID: stationID}, &resp)
	return resp, err
}

// Items lists items filtered by status kind.
func (c *Client) Items(ctx context.Context, kinds []string) (api.ItemListResponse, error) {
	var resp api.ItemListResponse
	err := c.call(ctx, "Items", ItemsRequest{Kinds: kinds}, &resp)
	return resp, err
}

// CreateItem registers a barrel.
func (c *Client) CreateItem(ctx context.Context, req api.CreateItemRequest) (api.ItemResponse, error) {
	var resp api.ItemResponse
	err := c.call(ctx, "CreateItem", req, &resp)
	return resp, err
}

// Item returns an item with its history.
func (c *Client) Item(ctx context.Context, itemID string) (api.ItemDetail, error) {
	var resp api.ItemDetail
	err := c.call(ctx, "Item", ItemRequest{ID: itemID}, &resp)
	return resp, err
}

// Lookup resolves a serial number or barcode.
func (c *Client) Lookup(ctx context.Context, code string) (api.ItemResponse, error) {
	var resp api.ItemResponse
	err := c.call(ctx, "Lookup", LookupRequest{Code: code}, &resp)
	return resp, err
}

// History returns an item's operation log and per-station totals.
func (c *Client) History(ctx context.Context, itemID string) (api.HistoryResponse, error) {
	var resp api.HistoryResponse
	err := c.call(ctx, "History", ItemRequest{ID: itemID}, &resp)
	return resp, err
}

// Operation applies a state transition named by action.
func (c *Client) Operation(ctx context.Context, action, itemID string, req api.TransitionRequest) (api.ItemResponse, error) {
	var resp api.ItemResponse
	err := c.call(ctx, "Operation", OperationRequest{Action: action, ItemID: itemID, Request: req}, &resp)
	return resp, err
}

// Stats returns plant statistics.
func (c *Client) Stats(ctx context.Context) (api.Stats, error) {
	var resp api.Stats
	err := c.call(ctx, "Stats", StatsRequest{}, &resp)
	return resp, err
}

// Actors lists actors with their assignments.
func (c *Client) Actors(ctx context.Context) (api.ActorsResponse, error) {
	var resp api.ActorsResponse
	err := c.call(ctx, "Actors", ActorsRequest{}, &resp)
	return resp, err
}

// RegisterActor creates or updates an actor.
func (c *Client) RegisterActor(ctx context.Context, req api.RegisterActorRequest) (api.Actor, error) {
	var resp api.Actor
	err := c.call(ctx, "RegisterActor", req, &resp)
	return resp, err
}

// Assign adds or removes a station assignment.
func (c *Client) Assign(ctx context.Context, actorID string, req api.AssignmentRequest) (api.Assignment, error) {
	var resp api.Assignment
	err := c.call(ctx, "Assign", AssignRequest{ActorID: actorID, Request: req}, &resp)
	return resp, err
}

// SetActorActive activates or deactivates an actor.
func (c *Client) SetActorActive(ctx context.Context, actorID string, req api.ActorStatusRequest) (api.Actor, error) {
	var resp api.Actor
	err := c.call(ctx, "SetActorActive", ActorStatusRequest{ActorID: actorID, Request: req}, &resp)
	return resp, err
}

// Events reads the daemon event log.
func (c *Client) Events(ctx context.Context, req EventsRequest) (api.EventsResponse, error) {
	if req.WaitMillis > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctxOrBackground(ctx), time.Duration(req.WaitMillis)*time.Millisecond+DefaultCallTimeout)
		defer cancel()
	}
	var resp api.EventsResponse
	err := c.call(ctx, "Events", req, &resp)
	return resp, err
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification(ctx context.Context) (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.call(ctx, "TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
