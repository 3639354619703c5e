package log

import (
	stdlog "log"
	"strings"

	"github.com/cockroachdb/errors"
)

// Config declares how a process logger is built.
type Config struct {
	Level      string   `json:"level" yaml:"level"`
	Format     string   `json:"format" yaml:"format"`
	RedactKeys []string `json:"redactKeys" yaml:"redactKeys"`
}

// ApplyConfig builds a logger writing to stderr from cfg.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = &TextFormatter{}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, errors.Newf("log: unknown format %q", cfg.Format)
	}
	return NewLogger(
		WithLevel(level),
		WithFormatter(formatter),
		WithOutput(NewConsoleOutput()),
		WithRedactedKeys(cfg.RedactKeys...),
	), nil
}

// stdWriter adapts a Logger to io.Writer for the standard library logger.
type stdWriter struct {
	logger Logger
}

func (w stdWriter) Write(p []byte) (int, error) {
	w.logger.Info(strings.TrimRight(string(p), "\n"), Str("source", "stdlog"))
	return len(p), nil
}

// RedirectStdLog routes the standard library logger (used by Pebble's
// default logger) through l.
func RedirectStdLog(l Logger) {
	stdlog.SetFlags(0)
	stdlog.SetPrefix("")
	stdlog.SetOutput(stdWriter{logger: l})
}
