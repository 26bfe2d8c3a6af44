package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"json", "console", ""} {
		l, err := New("warn", format)
		if err != nil {
			t.Fatalf("New(warn, %q) error: %v", format, err)
		}
		if l.Core().Enabled(zap.InfoLevel) {
			t.Fatalf("format %q: info should be disabled at warn level", format)
		}
		if !l.Core().Enabled(zap.ErrorLevel) {
			t.Fatalf("format %q: error should be enabled at warn level", format)
		}
	}
}

func TestNewTo_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := NewTo(&buf, "info", "json")
	if err != nil {
		t.Fatalf("NewTo error: %v", err)
	}
	l.Info("calibrated", zap.Int("steps", 5))
	_ = l.Sync()

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "calibrated" || entry["steps"] != float64(5) {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNewTo_Console(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := NewTo(&buf, "debug", "console")
	if err != nil {
		t.Fatalf("NewTo error: %v", err)
	}
	l.Debug("step")
	_ = l.Sync()
	if !strings.Contains(buf.String(), "DEBUG") || !strings.Contains(buf.String(), "step") {
		t.Fatalf("unexpected console output: %q", buf.String())
	}
}

func TestNew_Rejects(t *testing.T) {
	t.Parallel()

	if _, err := New("loud", "json"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
