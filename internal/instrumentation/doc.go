// Package instrumentation provides OpenTelemetry metrics and tracing for rejectlabel.
//
// # Metrics
//
// Google API:
//   - google_api_operations_total: Counter by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of call durations
//
// OAuth:
//   - oauth_auth_total: Counter of credential acquisitions by method and result
//   - oauth_token_refresh_total: Counter of refresh attempts by result
//
// Triage:
//   - triage_runs_total: Counter of pipeline runs by status
//   - messages_found_total, messages_labeled_total: message counters
//
// MCP tools:
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds
//
// # Tracing
//
// Spans are created for every pipeline run (triage.run) and every Gmail API
// call (google.gmail.<operation>).
//
// # Configuration
//
// Configuration comes from environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: rejectlabel)
package instrumentation
