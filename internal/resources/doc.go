// Package resources provides MCP resources for exposing mailbox and session data.
// Resources are read-only data sources that MCP clients can fetch, such as
// the authorized account and the outcome of the last labeling run.
package resources
