// Package triage finds job-application rejection emails and labels them.
//
// A run has four steps, each with its own error sentinel:
//
//	authenticate   ErrAuthentication
//	resolve label  ErrLabelLookup   (ResolveLabel)
//	search         ErrSearch        (Cursor, Search)
//	apply label    ErrLabelApply    (ApplyLabel)
//
// Pipeline wires the steps together. The mailbox is reached through the
// small interfaces in mailbox.go, which internal/gmail.Client satisfies.
package triage
