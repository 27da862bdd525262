// Package model defines the catalog's record types, the sparse patch used for
// overrides and custom-agent edits, payload validation, and the HTTP API
// envelopes shared by the server and MCP surfaces.
package model
