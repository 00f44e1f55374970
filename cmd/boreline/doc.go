// Command boreline is the operator and admin CLI for the barrel tracking
// daemon.
//
// Commands talk to borelined over its Unix control socket. When the daemon
// is not running, plant operations open the SQLite store directly so the
// floor can keep working; the event stream and notifications need the
// daemon.
//
// Global flags:
//
//	--socket   daemon control socket (defaults to paths.socket_path)
//	--config   configuration file
//	--actor    acting user for transitions (defaults to $BORELINE_ACTOR)
//	--json     print raw JSON instead of tables
package main
