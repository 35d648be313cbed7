// Package server provides the shared MCP server context and the auxiliary
// HTTP endpoints of smartinbox.
//
// ServerContext owns the inbox state, the notification queue and the
// instrumentation provider that tool handlers use.
//
// MetricsServer serves Prometheus metrics on a dedicated port together with
// the health endpoints from HealthChecker:
//   - /healthz: liveness
//   - /readyz: readiness
//   - /healthz/detailed: uptime and session state
package server
