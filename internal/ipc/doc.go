// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// Handlers delegate to the same api.Service the HTTP server uses. Errors are
// encoded with api.EncodeError so the client can recover the failure kind and
// its details on the other side of the socket.
package ipc
