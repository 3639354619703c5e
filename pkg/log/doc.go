// Package log provides blocklog's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. It is backed by log/slog through a
// bridge handler that feeds a Formatter and a set of Outputs.
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("cursors"), log.Str("writer", "compactor-0"))
//	l.Info("cursor saved", log.Uint64("offset", 42))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config (level, text or json
// format, redacted keys). RedirectStdLog sends standard library log output,
// which Pebble uses by default, through a Logger.
package log
