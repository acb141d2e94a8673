// Package logx wraps zerolog behind a small structured-logging API.
//
// The Service owns the configured sinks (console, file, Telegram relay) and
// can swap them at runtime via Apply(), while Loggers handed out earlier keep
// writing to the current sinks.
package logx
