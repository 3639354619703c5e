package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays BLOCKLOG_* environment variables onto cfg. Unparseable
// numbers are ignored.
func FromEnv(cfg *Config) {
	if v := os.Getenv("BLOCKLOG_WRITER"); v != "" {
		cfg.Writer = v
	}
	if v, ok := os.LookupEnv("BLOCKLOG_CURSOR_PREFIX"); ok {
		cfg.CursorPrefix = v
	}
	if v := os.Getenv("BLOCKLOG_CURSOR_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CursorConcurrency = n
		}
	}
	if v := os.Getenv("BLOCKLOG_BLOCK_MAX_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BlockMaxBytes = n
		}
	}
	if v := os.Getenv("BLOCKLOG_KEY_KIND"); v != "" {
		cfg.KeyKind = strings.ToLower(v)
	}
	if v := os.Getenv("BLOCKLOG_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("BLOCKLOG_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("BLOCKLOG_LOG_REDACT_KEYS"); v != "" {
		cfg.Log.RedactKeys = nil
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.Log.RedactKeys = append(cfg.Log.RedactKeys, p)
			}
		}
	}
}
