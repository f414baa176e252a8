// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for the logging patterns used by the worker and the CLI.
//
// Key features:
//   - JSON and text output formats
//   - Refresh run id propagation
//   - Context-aware logging
//   - Credential masking for errors that may carry a DSN
//
// Example usage:
//
//	logger := logging.NewLogger()
//	ctx = logging.WithLogger(ctx, logging.WithRunID(logger, runID))
//	logging.FromContext(ctx).Info("refresh started")
package logging
