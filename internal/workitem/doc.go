// Package workitem models a barrel and the legal moves of its status.
//
// For every station S the item passes through S pending and S in progress.
// Completing the last station leaves the item ready to ship. Hold, rework
// and scrap are absorbing statuses reached only through quarantine.
//
// The functions in this package are pure checks and state updates; the
// workflow engine composes them with the claim manager, the operation log
// and the store.
package workitem
