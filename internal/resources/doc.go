// Package resources provides MCP resources exposing the current inbox view.
// Resources are read-only snapshots that MCP clients can fetch without
// calling a tool: the session state, the loaded messages and the labels.
package resources
