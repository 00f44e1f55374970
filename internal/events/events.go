// Package events fans work item and queue changes out to observers.
//
// The Hub keeps a bounded history of recent events for long-poll readers
// and delivers each published event to explicit subscribers over buffered
// channels. Delivery is best effort: a subscriber whose buffer is full
// misses the event and its drop counter increases. Publishing never blocks
// on observers.
package events

import (
	"encoding/json"
	"time"

	"boreline/internal/station"
)

// Type names an event.
type Type string

const (
	OperationStarted   Type = "operation.started"
	OperationCompleted Type = "operation.completed"
	OperationPaused    Type = "operation.paused"
	OperationResumed   Type = "operation.resumed"
	OperationReleased  Type = "operation.released"
	ItemCreated        Type = "item.created"
	ItemQuarantined    Type = "item.quarantined"
	QueueUpdated       Type = "queue.updated"
)

// QueueEntry summarizes one item in a station queue.
type QueueEntry struct {
	WorkItemID   string `json:"workItemId"`
	SerialNumber string `json:"serialNumber"`
	Status       string `json:"status"`
	Priority     string `json:"priority"`
	HolderName   string `json:"holderName,omitempty"`
}

// Event is a change notification.
type Event struct {
	Sequence   uint64       `json:"seq"`
	Type       Type         `json:"type"`
	Timestamp  time.Time    `json:"timestamp"`
	WorkItemID string       `json:"workItemId,omitempty"`
	StationID  station.ID   `json:"stationId,omitempty"`
	ActorID    string       `json:"actorId,omitempty"`
	Status     string       `json:"status,omitempty"`
	Notes      string       `json:"notes,omitempty"`
	Queue      []QueueEntry `json:"queue,omitempty"`
}

// MarshalJSON always writes the queue of a queue.updated event, so an
// emptied station is sent as an empty list.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	if e.Type != QueueUpdated {
		return json.Marshal(plain(e))
	}
	queue := e.Queue
	if queue == nil {
		queue = []QueueEntry{}
	}
	return json.Marshal(struct {
		plain
		Queue []QueueEntry `json:"queue"`
	}{plain: plain(e), Queue: queue})
}

// Terminal reports whether the event moved an item to ready to ship.
func (e Event) Terminal() bool {
	return e.Type == OperationCompleted && e.Status == "READY_TO_SHIP"
}

// Publisher accepts events for fan-out.
type Publisher interface {
	Publish(Event)
}

// Sink receives every published event synchronously after it is buffered.
type Sink interface {
	Append(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Append(evt Event) { f(evt) }

// Filter selects events for a subscriber. A nil filter accepts everything.
type Filter func(Event) bool

// ForStation accepts events about the given station.
func ForStation(id station.ID) Filter {
	return func(evt Event) bool {
		return evt.StationID == id
	}
}
