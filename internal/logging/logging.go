package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const defaultLogName = "tmux-tabdir.log"

var (
	mu           sync.Mutex
	traceEnabled bool
	logPath      = DefaultPath()
)

// DefaultPath is the log destination used when none is configured.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), defaultLogName)
}

// Path reports the active log destination.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}

// Error appends err to the shared log file. Errors are written regardless of
// the trace setting.
func Error(err error) {
	if err == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	f, ferr := openLog()
	if ferr != nil {
		fmt.Fprintf(os.Stderr, "logging failed: %v\n", ferr)
		return
	}
	defer f.Close()

	logger := log.New(f, "", log.LstdFlags)
	logger.Println(err)
}

// Errorf formats and logs an error in one step.
func Errorf(format string, args ...interface{}) {
	Error(fmt.Errorf(format, args...))
}

// SetTraceEnabled toggles emission of structured trace entries.
func SetTraceEnabled(enabled bool) {
	mu.Lock()
	traceEnabled = enabled
	mu.Unlock()
}

// TraceEnabled reports whether Trace writes anything.
func TraceEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return traceEnabled
}

// Trace appends a structured JSON entry to the shared log when tracing is enabled.
func Trace(event string, payload interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if !traceEnabled {
		return
	}

	entry := struct {
		Time    time.Time   `json:"time"`
		Event   string      `json:"event"`
		Payload interface{} `json:"payload,omitempty"`
	}{
		Time:    time.Now().UTC(),
		Event:   event,
		Payload: payload,
	}

	f, err := openLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "trace logging failed: %v\n", err)
		return
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(entry); err != nil {
		fmt.Fprintf(os.Stderr, "trace encoding failed: %v\n", err)
	}
}

// Configure sets the log destination. Empty values fall back to the default
// path. Directories are created automatically when missing.
func Configure(path string) {
	mu.Lock()
	defer mu.Unlock()
	if strings.TrimSpace(path) == "" {
		logPath = DefaultPath()
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "unable to create log directory: %v\n", err)
		logPath = DefaultPath()
		return
	}
	logPath = path
}

// openLog must be called with mu held.
func openLog() (*os.File, error) {
	return os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}
