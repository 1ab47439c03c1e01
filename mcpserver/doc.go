// Package mcpserver implements the per-session MCP protocol server.
//
// A Runtime binds exactly one protocol server to one Transport. It answers
// initialize, ping, tools/list and tools/call, and follows the
// notifications/initialized and notifications/cancelled notifications. Tool
// calls are delegated to an Invoker whose catalogue is copied when the
// Runtime is constructed and never changes afterwards.
//
// Lifecycle
//
//	Created --initialize--> Initialized --Close--> Closed
//	Created --------------Close--------------> Closed
//
// Transitions are reported synchronously to every Listener registered with
// WithListener, and can be polled with State. Close is idempotent: the
// transport is closed once and listeners observe the Closed transition once.
//
// The Runtime does not frame messages. Transports decode the JSON-RPC
// envelope, call Handle, and write the returned response (if any) back to the
// peer in their own format:
//
//	rt := mcpserver.New(transport, handler,
//	    mcpserver.WithServerInfo(mcp.ImplementationInfo{Name: "open-meteo-mcp-server", Version: "1.0.0"}),
//	)
//	res := rt.Handle(ctx, req) // nil for notifications
package mcpserver
