package config

import (
	"os"
	"path/filepath"
)

const appDirName = "blocklog"

// DefaultDataDir returns the directory the Pebble blob store lives in when
// --data-dir is not given. BLOCKLOG_DATA_DIR wins, then XDG_DATA_HOME, then
// the platform's usual location, then ~/.blocklog.
func DefaultDataDir() string {
	if dir := os.Getenv("BLOCKLOG_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./data"
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	for _, c := range []struct{ probe, dir string }{
		{"/var/lib", filepath.Join("/var/lib", appDirName)},
		{filepath.Join(home, "Library"), filepath.Join(home, "Library", "Application Support", appDirName)},
		{filepath.Join(home, "AppData"), filepath.Join(home, "AppData", "Local", appDirName)},
	} {
		if isDir(c.probe) {
			return c.dir
		}
	}
	return filepath.Join(home, "."+appDirName)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
