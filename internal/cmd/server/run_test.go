package serverrun

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/blocklog/internal/config"
	pebblestore "github.com/rzbill/blocklog/internal/storage/pebble"
	logpkg "github.com/rzbill/blocklog/pkg/log"
)

func TestStoreDir(t *testing.T) {
	if got := storeDir("/custom/data"); got != filepath.Join("/custom/data", "store") {
		t.Fatalf("store dir %s", got)
	}
	t.Setenv("BLOCKLOG_DATA_DIR", "/srv/bl")
	if got := storeDir(""); got != "/srv/bl/store" {
		t.Fatalf("fallback store dir %s", got)
	}
}

func TestProcessLoggerFallback(t *testing.T) {
	l := processLogger(logpkg.Config{Level: "shouting"})
	if l == nil || l.GetLevel() != logpkg.InfoLevel {
		t.Fatalf("expected info fallback logger")
	}
	l = processLogger(logpkg.Config{Level: "debug", Format: "json"})
	if l.GetLevel() != logpkg.DebugLevel {
		t.Fatalf("level %v", l.GetLevel())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	cfg := cfgpkg.Default()
	cfg.Log.Level = "error"
	opts := Options{
		DataDir:  t.TempDir(),
		GRPCAddr: "127.0.0.1:0",
		HTTPAddr: "127.0.0.1:0",
		Fsync:    pebblestore.FsyncModeNever,
		Config:   cfg,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := Run(ctx, opts); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.KeyKind = "decimal"
	cfg.Log.Level = "error"
	err := Run(context.Background(), Options{DataDir: t.TempDir(), GRPCAddr: "127.0.0.1:0", HTTPAddr: "127.0.0.1:0", Config: cfg})
	if err == nil || !strings.Contains(err.Error(), "keyKind") {
		t.Fatalf("expected keyKind validation error, got %v", err)
	}
}
