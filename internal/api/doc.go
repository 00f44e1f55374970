// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates engine models into transport-friendly DTOs that
// the CLI, floor terminals and dashboards can render without coupling to
// internal types.
//
// # Key Types
//
// WorkItem: transport representation of a barrel with its encoded status,
// claim holder and progress percentage.
//
// LogEntry/ItemDetail: operation log entries and the per-station totals
// shown on a barrel's detail page.
//
// Stats/StationLoad: pipeline counters per station and per absorbing status.
//
// ErrorResponse: the error body every transport returns, carrying the
// failure kind and any structured detail.
//
// # Service
//
// Service wraps the workflow engine and returns DTOs. The HTTP handlers,
// the JSON-RPC server and the CLI's direct store fallback all go through it
// so the three surfaces render identical payloads.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Status
// values are the encoded strings (DRILLING_PENDING, READY_TO_SHIP, ...)
// with the raw kind, station id and phase alongside. Timestamps use RFC3339
// with milliseconds.
package api
