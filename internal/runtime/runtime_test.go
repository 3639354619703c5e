package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/rzbill/blocklog/internal/blobstore"
	"github.com/rzbill/blocklog/internal/blockstore"
	cfgpkg "github.com/rzbill/blocklog/internal/config"
	pebblestore "github.com/rzbill/blocklog/internal/storage/pebble"
	"github.com/rzbill/blocklog/internal/wal"
)

func openRuntime(t *testing.T, dir string, cfg cfgpkg.Config) *Runtime {
	t.Helper()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfg})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	return rt
}

func TestOpenCloseHealth(t *testing.T) {
	rt := openRuntime(t, t.TempDir(), cfgpkg.Default())
	defer rt.Close()
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if rt.CursorStore().Writer() != rt.Config().Writer {
		t.Fatalf("cursor store writer %q", rt.CursorStore().Writer())
	}
	if rt.NewDeltaBuffer().KeyKind() != blockstore.KeyKindString {
		t.Fatalf("delta buffer kind")
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.CursorConcurrency = 0
	if _, err := Open(Options{DataDir: t.TempDir(), Config: cfg}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestCursorsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := cfgpkg.Default()
	cfg.Writer = "node-a"

	rt := openRuntime(t, dir, cfg)
	name, _ := wal.NewCursorName("reader")
	w, err := rt.CursorStore().Init(ctx, name, wal.Cursor{Position: wal.LogPositionFromOffset(17)})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rt = openRuntime(t, dir, cfg)
	defer rt.Close()
	got, err := rt.CursorStore().Load(ctx, name)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ETag() != w.ETag() || got.Cursor().Position.Offset != 17 || got.Cursor().Writer != "node-a" {
		t.Fatalf("unexpected cursor after reopen: %+v", got.Cursor())
	}
	paths, err := rt.BlobStore().List(ctx, "log/")
	if err != nil || len(paths) != 1 || paths[0] != "log/cursor/reader.json" {
		t.Fatalf("blob listing %v %v", paths, err)
	}
	if _, _, err := rt.BlobStore().GetWithETag(ctx, "log/cursor/nope.json"); !errors.Is(err, blobstore.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
