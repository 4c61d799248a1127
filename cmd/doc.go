// Package cmd implements the command-line interface for rejectlabel.
//
// This package provides the following commands:
//   - label: Find rejection emails in the inbox and label them
//   - login: Run the OAuth flow and store the token without labeling
//   - serve: Start the MCP server to provide triage tools for AI assistants
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The label command is the default command when no subcommand is specified.
package cmd
