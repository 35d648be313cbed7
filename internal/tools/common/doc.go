// Package common provides shared utilities for MCP tool implementations:
// the instrumented handler wrapper, per-call audit helpers and delivery of
// queued user notifications with tool results.
package common
