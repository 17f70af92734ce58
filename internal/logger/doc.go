// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger writing a compact console format to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and adjustment,
//   - convenience functions (Info, InfoKV, WarnKV, ErrorKV, ...).
//
// Pipeline stages accept a context and log through it, so names and fields
// attached by callers (platform, stage) appear on every entry.
package logger
