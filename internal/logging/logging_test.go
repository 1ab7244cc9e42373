package logging

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func useTempLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "tabdir.log")
	Configure(path)
	t.Cleanup(func() {
		Configure("")
		SetTraceEnabled(false)
	})
	return path
}

func TestConfigureCreatesDirectory(t *testing.T) {
	path := useTempLog(t)
	if Path() != path {
		t.Fatalf("expected path %q, got %q", path, Path())
	}
	Error(errors.New("boom"))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "boom") {
		t.Fatalf("expected error in log, got %q", data)
	}
}

func TestConfigureEmptyFallsBack(t *testing.T) {
	useTempLog(t)
	Configure("  ")
	if Path() != DefaultPath() {
		t.Fatalf("expected default path, got %q", Path())
	}
}

func TestTraceOnlyWhenEnabled(t *testing.T) {
	path := useTempLog(t)
	Trace("skipped", nil)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("trace should not write while disabled")
	}
	SetTraceEnabled(true)
	Trace("tab.rename", map[string]interface{}{"ordinal": 1})
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry struct {
		Event   string                 `json:"event"`
		Payload map[string]interface{} `json:"payload"`
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("trace line is not JSON: %v (%q)", err, data)
	}
	if entry.Event != "tab.rename" || entry.Payload["ordinal"] != float64(1) {
		t.Fatalf("unexpected entry %#v", entry)
	}
}

func TestErrorIgnoresNil(t *testing.T) {
	path := useTempLog(t)
	Error(nil)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("nil error should not create the log")
	}
}
