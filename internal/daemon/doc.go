// Package daemon coordinates the long-running Boreline process.
//
// It wires configuration, the SQLite store, the workflow engine, the event
// hub and notifications into a single lifecycle with flock-based locking to
// prevent multiple instances. While running it serves the HTTP API (REST
// plus long-poll and WebSocket event streams) and forwards engine events to
// ntfy.
//
// Keep orchestration logic here: transition rules belong to the workflow
// package and DTO shaping to the api package, while the daemon focuses on
// startup, shutdown and transport.
package daemon
