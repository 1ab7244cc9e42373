package testutil

import "testing"

func TestStartTmuxServerLifecycle(t *testing.T) {
	socket, cleanup, _ := StartTmuxServer(t)
	defer cleanup()
	if err := tmuxCommand(socket, "list-sessions").Run(); err != nil {
		t.Skipf("skipping: list-sessions failed: %v", err)
	}
	names, err := WindowNames(socket, SessionName)
	if err != nil {
		t.Fatalf("WindowNames failed: %v", err)
	}
	if len(names) != 1 {
		t.Fatalf("expected one window in a fresh session, got %q", names)
	}
}
