// Package logging provides structured logging utilities for rejectlabel.
//
// Everything logs through the standard library's slog package. This package
// keeps attribute names consistent across the codebase and makes sure
// credentials never reach a log line.
//
// # Usage Patterns
//
// Build the process logger once and derive scoped loggers from it:
//
//	logger := logging.New(os.Stderr, slog.LevelInfo, logging.FormatText)
//	logger = logging.WithOperation(logger, "label.resolve")
//	logger.Info("label found", logging.Label("rejections"), logging.Count(2))
//
// Components that only need to emit messages accept the Logger interface,
// which SlogAdapter satisfies.
//
// # Security Considerations
//
//   - Tokens are never logged directly, use SanitizeToken
//   - Mailbox addresses are hashed with UserHash
package logging
