package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultDataDirOverrides(t *testing.T) {
	t.Setenv("BLOCKLOG_DATA_DIR", "")
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	if got := DefaultDataDir(); got != "/custom/data/blocklog" {
		t.Fatalf("xdg: got %s", got)
	}
	t.Setenv("BLOCKLOG_DATA_DIR", "/srv/blocklog")
	if got := DefaultDataDir(); got != "/srv/blocklog" {
		t.Fatalf("explicit: got %s", got)
	}
}

func TestDefaultDataDirNoHome(t *testing.T) {
	t.Setenv("BLOCKLOG_DATA_DIR", "")
	t.Setenv("HOME", "")
	if got := DefaultDataDir(); got != "./data" {
		t.Fatalf("expected fallback to ./data, got %s", got)
	}
}

func TestDefaultDataDirShape(t *testing.T) {
	t.Setenv("BLOCKLOG_DATA_DIR", "")
	got := DefaultDataDir()
	if !filepath.IsAbs(got) && !strings.HasPrefix(got, "./") {
		t.Fatalf("expected absolute path or ./ prefix, got %s", got)
	}
	if !strings.Contains(got, "blocklog") {
		t.Fatalf("expected blocklog in %s", got)
	}
	if DefaultDataDir() != got {
		t.Fatalf("not stable")
	}
}

func TestIsDir(t *testing.T) {
	if !isDir(".") {
		t.Fatalf(". should be a dir")
	}
	if isDir("/non/existent/path") {
		t.Fatalf("missing path is not a dir")
	}
	if isDir(os.Args[0]) {
		t.Fatalf("executable is not a dir")
	}
}
