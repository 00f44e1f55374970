package api

import "boreline/internal/events"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Station describes one pipeline station.
type Station struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Token          string `json:"token"`
	SequenceNumber int    `json:"sequenceNumber"`
	Description    string `json:"description,omitempty"`
	Active         bool   `json:"active"`
}

// Attributes describe the physical barrel.
type Attributes struct {
	Caliber      string  `json:"caliber"`
	LengthInches float64 `json:"lengthInches"`
	TwistRate    string  `json:"twistRate,omitempty"`
	Material     string  `json:"material,omitempty"`
	Priority     string  `json:"priority"`
}

// Claim identifies who currently works a barrel.
type Claim struct {
	HolderID   string `json:"holderId"`
	HolderName string `json:"holderName"`
	SessionID  string `json:"sessionId"`
	AcquiredAt string `json:"acquiredAt"`
}

// WorkItem is a barrel in a transport-friendly format.
type WorkItem struct {
	ID           string         `json:"id"`
	SerialNumber string         `json:"serialNumber"`
	Barcode      string         `json:"barcode"`
	Attributes   Attributes     `json:"attributes"`
	Status       string         `json:"status"`
	StatusKind   string         `json:"statusKind"`
	StationID    int64          `json:"stationId,omitempty"`
	StationName  string         `json:"stationName,omitempty"`
	Phase        string         `json:"phase,omitempty"`
	Claim        *Claim         `json:"claim,omitempty"`
	Progress     int            `json:"progress"`
	CreatedAt    string         `json:"createdAt,omitempty"`
	UpdatedAt    string         `json:"updatedAt,omitempty"`
	StartedAt    string         `json:"startedAt,omitempty"`
	CompletedAt  string         `json:"completedAt,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// LogEntry is one station visit from the operation log.
type LogEntry struct {
	ID              int64  `json:"id"`
	WorkItemID      string `json:"workItemId"`
	StationID       int64  `json:"stationId"`
	StationName     string `json:"stationName,omitempty"`
	HolderID        string `json:"holderId"`
	HolderName      string `json:"holderName"`
	SessionID       string `json:"sessionId"`
	StartedAt       string `json:"startedAt"`
	EndedAt         string `json:"endedAt,omitempty"`
	PausedAt        string `json:"pausedAt,omitempty"`
	ResumedAt       string `json:"resumedAt,omitempty"`
	DurationSeconds *int64 `json:"durationSeconds,omitempty"`
	Notes           string `json:"notes,omitempty"`
	ExceptionCode   string `json:"exceptionCode,omitempty"`
	Open            bool   `json:"open"`
	Paused          bool   `json:"paused"`
}

// StationTotal sums the closed visits to one station.
type StationTotal struct {
	StationID   int64  `json:"stationId"`
	StationName string `json:"stationName,omitempty"`
	Visits      int    `json:"visits"`
	Seconds     int64  `json:"seconds"`
}

// ItemDetail is a barrel with its history.
type ItemDetail struct {
	Item      WorkItem       `json:"item"`
	History   []LogEntry     `json:"history"`
	Totals    []StationTotal `json:"totals"`
	OpenEntry *LogEntry      `json:"openEntry,omitempty"`
}

// Actor is an operator, supervisor or admin with their station assignments.
type Actor struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	Role        string  `json:"role"`
	Active      bool    `json:"active"`
	Stations    []int64 `json:"stations"`
}

// Assignment links an actor to a station.
type Assignment struct {
	ActorID    string `json:"actorId"`
	StationID  int64  `json:"stationId"`
	Active     bool   `json:"active"`
	AssignedBy string `json:"assignedBy,omitempty"`
	AssignedAt string `json:"assignedAt,omitempty"`
}

// StationLoad counts the work at one station.
type StationLoad struct {
	Station    Station `json:"station"`
	Pending    int     `json:"pending"`
	InProgress int     `json:"inProgress"`
}

// Stats summarizes the pipeline.
type Stats struct {
	Stations    []StationLoad `json:"stations"`
	ReadyToShip int           `json:"readyToShip"`
	Hold        int           `json:"hold"`
	Rework      int           `json:"rework"`
	Scrap       int           `json:"scrap"`
	Total       int           `json:"total"`
}

// CreateItemRequest registers a barrel.
type CreateItemRequest struct {
	SerialNumber string         `json:"serialNumber,omitempty"`
	Barcode      string         `json:"barcode,omitempty"`
	Caliber      string         `json:"caliber"`
	LengthInches float64        `json:"lengthInches"`
	TwistRate    string         `json:"twistRate,omitempty"`
	Material     string         `json:"material,omitempty"`
	Priority     string         `json:"priority,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedBy    string         `json:"createdBy,omitempty"`
}

// TransitionRequest carries the inputs of start, pause, resume, complete,
// release and quarantine. Fields irrelevant to an action are ignored.
type TransitionRequest struct {
	ActorID   string `json:"actorId"`
	StationID int64  `json:"stationId,omitempty"`
	Notes     string `json:"notes,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Kind      string `json:"kind,omitempty"`
}

// RegisterActorRequest creates or updates an actor.
type RegisterActorRequest struct {
	AdminID     string `json:"adminId,omitempty"`
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	Role        string `json:"role"`
}

// AssignmentRequest adds or removes a station assignment.
type AssignmentRequest struct {
	AdminID   string `json:"adminId"`
	StationID int64  `json:"stationId"`
	Remove    bool   `json:"remove,omitempty"`
}

// ActorStatusRequest activates or deactivates an actor.
type ActorStatusRequest struct {
	AdminID string `json:"adminId"`
	Active  bool   `json:"active"`
}

// StationsResponse lists the catalog.
type StationsResponse struct {
	Stations []Station `json:"stations"`
}

// QueueResponse is one station's work queue.
type QueueResponse struct {
	Station Station    `json:"station"`
	Items   []WorkItem `json:"items"`
}

// ItemResponse wraps a single barrel, plus the log entry a pause or resume
// stamped.
type ItemResponse struct {
	Item  WorkItem  `json:"item"`
	Entry *LogEntry `json:"entry,omitempty"`
}

// ItemListResponse wraps a collection of barrels.
type ItemListResponse struct {
	Items []WorkItem `json:"items"`
}

// HistoryResponse lists a barrel's log entries.
type HistoryResponse struct {
	Entries []LogEntry     `json:"entries"`
	Totals  []StationTotal `json:"totals"`
}

// ActorsResponse lists actors.
type ActorsResponse struct {
	Actors []Actor `json:"actors"`
}

// EventsResponse is one long-poll batch. Next is the cursor for the
// following request.
type EventsResponse struct {
	Events []events.Event `json:"events"`
	Next   uint64         `json:"next"`
}

// HealthResponse reports daemon liveness.
type HealthResponse struct {
	Status        string `json:"status"`
	SchemaVersion string `json:"schemaVersion,omitempty"`
	Stations      int    `json:"stations"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool   `json:"running"`
	PID           int    `json:"pid"`
	DatabasePath  string `json:"databasePath"`
	LockFilePath  string `json:"lockFilePath"`
	SocketPath    string `json:"socketPath,omitempty"`
	APIAddress    string `json:"apiAddress,omitempty"`
	StartedAt     string `json:"startedAt,omitempty"`
	EventSequence uint64 `json:"eventSequence"`
	Subscribers   int    `json:"subscribers"`
	Stats         Stats  `json:"stats"`
}
