// Package streaminghttp implements the MCP streaming HTTP transport. It mounts
// as a standard net/http handler and turns independent HTTP requests into a
// multi-session JSON-RPC server backed by a sessions.Registry.
//
// Routing
//
//	POST   initialize without Mcp-Session-Id -> create a session and initialize it
//	POST   with Mcp-Session-Id               -> route to that session's runtime
//	POST   anything else                     -> 400, session id required
//	GET    with Mcp-Session-Id               -> keepalive SSE stream until the session closes
//	DELETE with Mcp-Session-Id               -> close the session, 204
//
// Responses to requests are written as a single Server-Sent Event by default,
// or as a plain application/json body when the handler is built with
// WithJSONResponse. Notifications and client responses are acknowledged with
// 202 Accepted.
//
// # Error Handling
//
// Failures that happen before a session runtime sees the message are
// serialized as JSON-RPC error envelopes with a matching HTTP status:
//
//	415 -32600  content type is not application/json
//	400 -32700  body is not JSON
//	400 -32600  batch, malformed envelope, missing session id
//	404 -32600  unknown session
//	503 -32603  registry at capacity
//	500 -32603  recovered panic
//
// The envelope echoes the request id when one could be parsed and carries a
// null id otherwise. Errors produced by a runtime are ordinary JSON-RPC
// responses and use 200.
//
// Example (mount in net/http):
//
//	reg := sessions.New(streaminghttp.SessionFactory(toolHandler))
//	mux := http.NewServeMux()
//	mux.Handle("/mcp", streaminghttp.New(reg))
//	http.ListenAndServe(":3000", mux)
package streaminghttp
