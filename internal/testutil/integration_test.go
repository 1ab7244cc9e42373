package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func TestOrganizerRenamesWindows(t *testing.T) {
	bin := BuildBinary(t)
	socket, cleanup, logDir := StartTmuxServer(t)
	defer cleanup()
	t.Cleanup(func() {
		AssertNoServerCrash(t, logDir)
	})

	root := t.TempDir()
	alpha := filepath.Join(root, "alpha")
	beta := filepath.Join(root, "beta")
	betaSub := filepath.Join(beta, "sub")
	gamma := filepath.Join(root, "gamma")
	for _, dir := range []string{alpha, betaSub, gamma} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	steps := [][]string{
		{"new-window", "-d", "-t", SessionName + ":1", "-c", alpha, "sleep", "600"},
		{"split-window", "-d", "-t", SessionName + ":1", "-c", alpha, "sleep", "600"},
		{"new-window", "-d", "-t", SessionName + ":2", "-c", beta, "sleep", "600"},
		{"split-window", "-d", "-t", SessionName + ":2", "-c", betaSub, "sleep", "600"},
	}
	for _, args := range steps {
		if err := Tmux(socket, args...); err != nil {
			t.Fatalf("tmux %v: %v", args, err)
		}
	}

	pipeSocket := filepath.Join(root, "pipe.sock")
	launch := fmt.Sprintf("%q run --socket %q --session %q --pipe-socket %q --seed-from-tmux --no-git --set home_dir=/nonexistent --log-file %q",
		bin, socket, SessionName, pipeSocket, filepath.Join(root, "tabdir.log"))
	if err := Tmux(socket, "new-window", "-d", "-t", SessionName+":3", launch); err != nil {
		t.Fatalf("failed to launch organiser: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	WaitForWindowName(t, ctx, socket, SessionName, 1, alpha+"/")
	WaitForWindowName(t, ctx, socket, SessionName, 2, beta+"/* (2 panes)")

	pane := PaneID(t, socket, SessionName+":1.0")
	report := exec.Command(bin, "report", "--pipe-socket", pipeSocket, pane, gamma)
	if out, err := report.CombinedOutput(); err != nil {
		t.Fatalf("report failed: %v\n%s", err, out)
	}
	WaitForWindowName(t, ctx, socket, SessionName, 1, root+"/* (2 panes)")
}
