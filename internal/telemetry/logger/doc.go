// Package logger provides structured logging for stmkit.
//
//   - logger.go: log/slog setup, dynamic level, process default
//   - context.go: context-carried logger and transaction id
//   - redact.go: payment data redaction
//
// New installs its level in a shared slog.LevelVar, so SetLevel (used by
// config hot reload) affects every logger created here. SetDefault also
// installs the logger as the slog default, which is what the primitives in
// pkg/ log through.
package logger
