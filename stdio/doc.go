// Package stdio implements a single-connection MCP transport over
// stdin/stdout. It is intended for running the server as a subprocess of a
// desktop MCP client.
//
// Characteristics
//
//	Connection model : 1 process <-> 1 client
//	Sessions         : one runtime with an empty session id, no registry
//	Framing          : newline-delimited JSON-RPC, one message per line
//
// Requests are served concurrently, each on its own goroutine, and their
// responses are written as whole lines under a mutex so they never
// interleave. Logs must go elsewhere (stderr) to keep stdout clean.
//
// Example:
//
//	h := stdio.NewHandler(tools.NewHandler(client))
//	if err := h.Serve(ctx); err != nil { log.Fatal(err) }
//
// For multi-client deployments use the streaming HTTP transport.
package stdio
