// Package preflight provides readiness checks for the filesystem paths and
// external services Boreline depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failed check.
//   - The CLI "boreline status" command uses individual check functions
//     (CheckDatabase, CheckNtfyFromConfig) to display service health.
//
// Each check is gated by its config toggle -- unconfigured features are
// skipped.
package preflight
