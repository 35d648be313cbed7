// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for smartinbox.
//
// # Metrics
//
// Gmail API:
//   - google_api_operations_total: Gmail calls by service, operation, status
//   - google_api_operation_duration_seconds: Gmail call latency
//
// Completion:
//   - completion_requests_total: text-generation requests by purpose and status
//   - completion_duration_seconds: text-generation latency
//
// Inbox state:
//   - mutation_transitions_total: label mutation transitions by kind and state
//   - session_events_total: login, logout and expiry events
//   - session_active: 1 while a Gmail session is held
//
// Server:
//   - http_requests_total, http_request_duration_seconds
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>), Gmail calls
// (google.gmail.<operation>) and completion requests (completion.<purpose>).
//
// # Configuration
//
// Instrumentation is configured from the environment:
//   - INSTRUMENTATION_ENABLED: enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: service name (default: smartinbox)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail,
//		instrumentation.OperationList, instrumentation.StatusSuccess, time.Since(start))
package instrumentation
