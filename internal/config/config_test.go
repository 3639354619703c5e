package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rzbill/blocklog/internal/blockstore"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Writer == "" {
		t.Fatalf("default writer must not be empty")
	}
	if cfg.CursorPrefix != "log" || cfg.CursorConcurrency != 10 {
		t.Fatalf("cursor defaults: %+v", cfg)
	}
	if cfg.BlockKeyKind() != blockstore.KeyKindString {
		t.Fatalf("key kind default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "blocklog.json")
	data := []byte(`{"writer":"node-1","cursorConcurrency":4,"keyKind":"uint32","log":{"level":"debug"}}`)
	if err := os.WriteFile(file, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Writer != "node-1" || cfg.CursorConcurrency != 4 {
		t.Fatalf("unexpected %+v", cfg)
	}
	if cfg.BlockKeyKind() != blockstore.KeyKindUint32 {
		t.Fatalf("key kind %q", cfg.KeyKind)
	}
	// untouched fields keep their defaults
	if cfg.CursorPrefix != "log" || cfg.BlockMaxBytes != 8<<20 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level %q", cfg.Log.Level)
	}
}

func TestLoadYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "blocklog.yaml")
	data := []byte("writer: node-2\ncursorPrefix: tenants/a\nblockMaxBytes: 4096\nlog:\n  format: json\n")
	if err := os.WriteFile(file, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Writer != "node-2" || cfg.CursorPrefix != "tenants/a" || cfg.BlockMaxBytes != 4096 {
		t.Fatalf("unexpected %+v", cfg)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "info" {
		t.Fatalf("log config %+v", cfg.Log)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	file := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(file, []byte("writer: [unterminated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(file); err == nil {
		t.Fatalf("expected parse error")
	}
	cfg, err := Load("")
	if err != nil || cfg.CursorPrefix != "log" {
		t.Fatalf("empty path should give defaults: %+v %v", cfg, err)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty writer":    func(c *Config) { c.Writer = " " },
		"absolute prefix": func(c *Config) { c.CursorPrefix = "/log" },
		"no concurrency":  func(c *Config) { c.CursorConcurrency = 0 },
		"no block size":   func(c *Config) { c.BlockMaxBytes = -1 },
		"bad key kind":    func(c *Config) { c.KeyKind = "int128" },
		"bad log level":   func(c *Config) { c.Log.Level = "loud" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("BLOCKLOG_WRITER", "env-writer")
	t.Setenv("BLOCKLOG_CURSOR_PREFIX", "")
	t.Setenv("BLOCKLOG_CURSOR_CONCURRENCY", "3")
	t.Setenv("BLOCKLOG_BLOCK_MAX_BYTES", "not-a-number")
	t.Setenv("BLOCKLOG_KEY_KIND", "BOOL")
	t.Setenv("BLOCKLOG_LOG_REDACT_KEYS", "token, ,secret")
	FromEnv(&cfg)
	if cfg.Writer != "env-writer" {
		t.Fatalf("writer %q", cfg.Writer)
	}
	if cfg.CursorPrefix != "" {
		t.Fatalf("an explicitly empty prefix should apply, got %q", cfg.CursorPrefix)
	}
	if cfg.CursorConcurrency != 3 {
		t.Fatalf("concurrency %d", cfg.CursorConcurrency)
	}
	if cfg.BlockMaxBytes != 8<<20 {
		t.Fatalf("bad number should be ignored, got %d", cfg.BlockMaxBytes)
	}
	if cfg.BlockKeyKind() != blockstore.KeyKindBool {
		t.Fatalf("key kind %q", cfg.KeyKind)
	}
	if len(cfg.Log.RedactKeys) != 2 || cfg.Log.RedactKeys[1] != "secret" {
		t.Fatalf("redact keys %v", cfg.Log.RedactKeys)
	}
}
