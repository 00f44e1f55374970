package ipc

import "boreline/internal/api"

// StartRequest starts the daemon's transports.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the daemon's transports.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// ShutdownRequest stops the daemon and exits the daemon process.
type ShutdownRequest struct{}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse mirrors the HTTP status DTO.
type StatusResponse = api.DaemonStatus

// StationsRequest lists the station catalog.
type StationsRequest struct{}

// QueueRequest lists the items waiting at or worked on at a station.
type QueueRequest struct {
	StationID int64 `json:"station_id"`
}

// ItemsRequest lists items, optionally filtered by status kind.
type ItemsRequest struct {
	Kinds []string `json:"kinds"`
}

// ItemRequest fetches a single item by id.
type ItemRequest struct {
	ID string `json:"id"`
}

// LookupRequest resolves a serial number or barcode.
type LookupRequest struct {
	Code string `json:"code"`
}

// OperationRequest applies a state transition to an item. Action is one of
// the api.Action names.
type OperationRequest struct {
	Action  string                `json:"action"`
	ItemID  string                `json:"item_id"`
	Request api.TransitionRequest `json:"request"`
}

// StatsRequest fetches plant statistics.
type StatsRequest struct{}

// ActorsRequest lists actors with their assignments.
type ActorsRequest struct{}

// AssignRequest adds or removes a station assignment for an actor.
type AssignRequest struct {
	ActorID string                `json:"actor_id"`
	Request api.AssignmentRequest `json:"request"`
}

// ActorStatusRequest activates or deactivates an actor.
type ActorStatusRequest struct {
	ActorID string                 `json:"actor_id"`
	Request api.ActorStatusRequest `json:"request"`
}

// EventsRequest reads the event log after Since. WaitMillis > 0 blocks until
// an event arrives or the wait elapses.
type EventsRequest struct {
	Since      uint64 `json:"since"`
	Limit      int    `json:"limit"`
	WaitMillis int    `json:"wait_millis"`
	StationID  int64  `json:"station_id"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
