package log

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
)

type captureOutput struct {
	mu    sync.Mutex
	lines []string
}

func (c *captureOutput) Write(_ *Entry, b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, string(b))
	return nil
}

func (c *captureOutput) Close() error { return nil }

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"debug": DebugLevel, "INFO": InfoLevel, "": InfoLevel, "warning": WarnLevel, "error": ErrorLevel}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %v want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLevelFiltering(t *testing.T) {
	out := &captureOutput{}
	l := NewLogger(WithLevel(WarnLevel), WithFormatter(&TextFormatter{DisableTimestamp: true}), WithOutput(out))
	l.Info("dropped")
	l.Warn("kept", Int("n", 1))
	if len(out.lines) != 1 {
		t.Fatalf("want 1 line, got %d", len(out.lines))
	}
	if !strings.Contains(out.lines[0], "kept n=1") {
		t.Fatalf("unexpected line %q", out.lines[0])
	}
	l.SetLevel(DebugLevel)
	l.Debug("now visible")
	if len(out.lines) != 2 {
		t.Fatalf("SetLevel not applied")
	}
}

func TestJSONWithFieldsAndRedaction(t *testing.T) {
	out := &captureOutput{}
	l := NewLogger(WithOutput(out), WithRedactedKeys("secret"))
	l.WithComponent("cursors").WithError(errors.New("boom")).Info("hello", Str("secret", "hunter2"), Uint64("offset", 7))
	if len(out.lines) != 1 {
		t.Fatalf("want 1 line, got %d", len(out.lines))
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(out.lines[0]), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m["component"] != "cursors" || m["error"] != "boom" || m["msg"] != "hello" {
		t.Fatalf("unexpected entry %v", m)
	}
	if m["secret"] != "[REDACTED]" {
		t.Fatalf("secret not redacted: %v", m["secret"])
	}
}

func TestApplyConfig(t *testing.T) {
	if _, err := ApplyConfig(&Config{Level: "debug", Format: "json"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := ApplyConfig(&Config{Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
