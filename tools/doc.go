// Package tools exposes the Open-Meteo API as MCP tools.
//
// Catalog lists the seventeen tools and binds each one to a typed parameter
// struct from package openmeteo and to an upstream endpoint. The Validator
// reflects those structs into JSON Schemas with invopop/jsonschema, checks
// raw arguments against them with gojsonschema, then decodes the arguments
// and applies defaults.
//
// Handler.Invoke is the single entry point used by sessions. It never returns
// a protocol error: unknown tools, rejected model arrays, invalid arguments
// and upstream failures all become CallToolResult values with IsError set
// and text prefixed "Error: ".
package tools
