// Package logger provides structured logging for minisocial-cli.
//
// It wraps log/slog:
//
//   - logger.go: handler construction, per-logger level, the default logger
//   - context.go: context-carried loggers, request and task IDs
//   - redact.go: masking of passwords, bearer headers and JWTs
//
// A logger bound with WithContext tags each record with the request_id and
// task_id found in the context. Logs go to stderr so that command output on
// stdout stays machine-readable.
package logger
