package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildWritesJSONWithLevel(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log.json")
	l, err := Build(Options{JSON: true, Output: path, App: "skill-navigator"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	l.Debug("hidden")
	l.Info("dashboard refreshed", JobFields(42, "Acme")...)
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one entry at info level, got %d: %q", len(lines), data)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}

	for key, want := range map[string]string{
		"msg":        "dashboard refreshed",
		"level":      "info",
		"app":        "skill-navigator",
		FieldJobID:   "42",
		FieldCompany: "Acme",
	} {
		if got := entry[key]; got != want {
			t.Fatalf("expected %s=%q, got %v", key, want, got)
		}
	}
}

func TestBuildDebugLevel(t *testing.T) {
	t.Parallel()

	l, err := Build(Options{Debug: true, Output: filepath.Join(t.TempDir(), "log.txt")})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !l.Core().Enabled(-1) {
		t.Fatalf("expected debug level to be enabled")
	}
}
