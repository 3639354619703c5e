package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/rzbill/blocklog/internal/blockstore"
	logpkg "github.com/rzbill/blocklog/pkg/log"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// Writer identifies this process on every cursor it saves. Defaults to
	// the host name.
	Writer string `json:"writer" yaml:"writer"`
	// CursorPrefix is the blob path prefix cursors live under.
	CursorPrefix string `json:"cursorPrefix" yaml:"cursorPrefix"`
	// CursorConcurrency bounds in-flight blob calls per cursor store.
	CursorConcurrency int `json:"cursorConcurrency" yaml:"cursorConcurrency"`
	// BlockMaxBytes is the estimated size at which a delta buffer is split.
	BlockMaxBytes int `json:"blockMaxBytes" yaml:"blockMaxBytes"`
	// KeyKind is the key type of delta buffers: string|uint32|float32|bool.
	KeyKind string `json:"keyKind" yaml:"keyKind"`

	Log logpkg.Config `json:"log" yaml:"log"`
}

// Default returns built-in defaults.
func Default() Config {
	writer, err := os.Hostname()
	if err != nil || writer == "" {
		writer = "blocklog"
	}
	return Config{
		Writer:            writer,
		CursorPrefix:      "log",
		CursorConcurrency: 10,
		BlockMaxBytes:     8 << 20,
		KeyKind:           "string",
		Log:               logpkg.Config{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension) on top of
// the defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: read")
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "config: parse %s", path)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "config: parse %s", path)
		}
	}
	return cfg, nil
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Writer) == "" {
		return errors.New("config: writer must not be empty")
	}
	if strings.HasPrefix(c.CursorPrefix, "/") {
		return errors.Newf("config: cursorPrefix %q must be relative", c.CursorPrefix)
	}
	if c.CursorConcurrency <= 0 {
		return errors.Newf("config: cursorConcurrency must be positive, got %d", c.CursorConcurrency)
	}
	if c.BlockMaxBytes <= 0 {
		return errors.Newf("config: blockMaxBytes must be positive, got %d", c.BlockMaxBytes)
	}
	if _, ok := blockstore.ParseKeyKind(c.KeyKind); !ok {
		return errors.Newf("config: unknown keyKind %q", c.KeyKind)
	}
	if _, err := logpkg.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "config")
	}
	return nil
}

// BlockKeyKind returns the parsed KeyKind. Call Validate first.
func (c Config) BlockKeyKind() blockstore.KeyKind {
	k, _ := blockstore.ParseKeyKind(c.KeyKind)
	return k
}
