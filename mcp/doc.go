// Package mcp contains the Model Context Protocol data types and constants
// used by the weather server. It mirrors the wire representation of the
// subset of the protocol the server speaks: the initialize handshake, ping,
// cancellation and the tools capability.
//
// The package is free of transport logic. The streaming HTTP and stdio
// transports import these types but implement their own framing and session
// handling.
//
// # Method Names
//
// JSON-RPC method and notification names are enumerated as Method constants
// (e.g. ToolsListMethod).
//
// # Tool Results
//
// Every outcome of a tool call is a CallToolResult. Business failures such as
// an invalid argument or an upstream error set IsError and carry a single text
// block prefixed with "Error: ". They are never reported as JSON-RPC errors.
package mcp
