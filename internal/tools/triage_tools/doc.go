// Package triage_tools exposes rejection triage as MCP tools.
//
// gmail_rejection_rules and gmail_search_rejections are read-only and always
// registered. gmail_label_rejections creates labels and modifies messages, so
// it is only registered when the server runs with write access.
package triage_tools
