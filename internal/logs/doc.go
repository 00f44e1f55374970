// Package logs reads the daemon log file for `boreline logs`.
//
// Read returns the last N lines or everything after a byte offset, and can
// poll until new lines arrive. When the file shrinks below the caller's
// offset (rotation or truncation) reading restarts from the top and the
// batch is marked Rotated.
package logs
