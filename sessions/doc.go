// Package sessions tracks the live MCP sessions of the streaming HTTP
// transport.
//
// A Registry maps server-generated session ids to Sessions. Each Session owns
// one mcpserver.Runtime. The Registry bounds the number of live sessions,
// refreshes a session's activity timestamp on every lookup, and periodically
// sweeps sessions that have been idle for longer than the configured TTL.
//
// Removal is driven by the runtime: the Registry subscribes to each runtime's
// state changes and unlinks the entry as soon as the runtime reports
// StateClosed. Explicit deletes, failed initializations, sweeps and shutdown
// therefore all converge on the same idempotent Remove.
//
// The table is guarded by a mutex that is only held for map operations;
// runtimes are always closed outside of it.
package sessions
