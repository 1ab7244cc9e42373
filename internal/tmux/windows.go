package tmux

import (
	"fmt"
	"strings"
)

// RenameWindow sets a window's name. tmux turns automatic-rename off for the
// window as a side effect, so the name sticks.
func RenameWindow(socketPath, windowID, name string) error {
	target := strings.TrimSpace(windowID)
	if target == "" {
		return fmt.Errorf("window target required")
	}
	if name == "" {
		return fmt.Errorf("window name required")
	}
	args := append(baseArgs(socketPath), "rename-window", "-t", target, "--", name)
	if err := runExecCommand("tmux", args...).Run(); err != nil {
		return fmt.Errorf("rename window %s: %w", target, err)
	}
	return nil
}

func baseArgs(socketPath string) []string {
	if strings.TrimSpace(socketPath) == "" {
		return []string{}
	}
	return []string{"-S", socketPath}
}
