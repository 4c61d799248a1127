// Package common provides helpers shared by the MCP tool packages:
// metrics around tool handlers, argument parsing and JSON results.
package common
