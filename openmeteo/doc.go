// Package openmeteo is a client for the Open-Meteo weather APIs.
//
// Each API operation is described by an Endpoint and accepts one of the typed
// parameter structs in this package (ForecastParams, GeocodingParams, ...).
// The structs double as the source of the MCP tool input schemas: their json
// and jsonschema tags are reflected into JSON Schema documents by the tools
// package, so the wire names, ranges and enumerations live in one place.
//
// Client.Fetch returns the upstream JSON body untouched. Non-2xx answers are
// reported as *APIError, whose Error method yields the upstream "reason" text
// when there is one. Transient failures (network errors, 429 and 5xx) are
// retried with exponential backoff; identical concurrent requests are
// coalesced; an optional Cache short-circuits repeated requests.
package openmeteo
