// Package notifications delivers plant events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Enumerated event types cover the milestones a floor lead cares
// about (a barrel ready to ship, a force-released claim, a quarantined
// barrel, daemon lifecycle) so callers emit consistent messages without
// duplicating HTTP glue.
//
// Dispatcher bridges the in-process event hub to a Service without ever
// blocking the publisher.
package notifications
