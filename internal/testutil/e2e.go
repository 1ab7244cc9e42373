package testutil

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// BuildBinary compiles the tmux-tabdir command into a temporary directory.
func BuildBinary(t *testing.T) string {
	t.Helper()
	RequireTmux(t)
	tdir := t.TempDir()
	bin := filepath.Join(tdir, "tmux-tabdir")
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = repoRoot(t)
	cmd.Env = append(os.Environ(), "GOCACHE="+filepath.Join(tdir, ".gocache"))
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build binary: %v\n%s", err, out)
	}
	return bin
}

// WaitForWindowName polls until the window at index carries want.
func WaitForWindowName(t *testing.T, ctx context.Context, socket, session string, index int, want string) {
	t.Helper()
	var last []string
	for {
		names, err := WindowNames(socket, session)
		if err == nil {
			last = names
			if index < len(names) && names[index] == want {
				return
			}
		}
		select {
		case <-ctx.Done():
			t.Fatalf("timeout waiting for window %d to be named %q; windows: %q", index, want, last)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// PaneID returns the tmux id of target's active pane.
func PaneID(t *testing.T, socket, target string) string {
	t.Helper()
	out, err := tmuxCommand(socket, "display-message", "-t", target, "-p", "#{pane_id}").Output()
	if err != nil {
		t.Fatalf("display-message failed: %v", err)
	}
	return strings.TrimSpace(string(out))
}

func repoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
