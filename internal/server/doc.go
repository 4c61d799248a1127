// Package server holds the state shared by the MCP tools of the serve
// command and the optional HTTP endpoint that exposes Prometheus metrics
// and health probes.
//
// ServerContext owns the labeling pipeline, the active rules and the
// history of runs started through MCP. MetricsServer serves /metrics from
// the default Prometheus registry, which the OpenTelemetry prometheus
// exporter writes to, next to /healthz, /readyz and /healthz/detailed.
package server
