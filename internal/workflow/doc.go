// Package workflow moves barrels through the station pipeline.
//
// The Engine composes the station registry, the work item state machine,
// claims, the operation log and the access policy over an injected
// Repository. Every transition runs under a per-item lock inside one
// repository transaction, so concurrent requests for the same barrel are
// linearized and a failed transition leaves nothing behind. Events are
// published only after the transaction commits.
//
// Read-side helpers (queues, history, stats) live here too so that status
// encoding and progress math stay next to the transitions that produce
// them.
package workflow
