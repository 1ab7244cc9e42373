package tmux

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// ResolveSocketPath picks the tmux server socket: the flag, then
// TMUX_TABDIR_SOCKET, then $TMUX, then the default per-user socket.
func ResolveSocketPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if envSocket := os.Getenv("TMUX_TABDIR_SOCKET"); envSocket != "" {
		return envSocket, nil
	}
	if tmuxEnv := os.Getenv("TMUX"); tmuxEnv != "" {
		parts := strings.Split(tmuxEnv, ",")
		if len(parts) > 0 && parts[0] != "" {
			return parts[0], nil
		}
	}
	baseDir := os.Getenv("TMUX_TMPDIR")
	if baseDir == "" {
		baseDir = "/tmp"
	}
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	return filepath.Join(baseDir, fmt.Sprintf("tmux-%s", u.Uid), "default"), nil
}

// CurrentPaneID is the pane this process runs in, if any.
func CurrentPaneID() string {
	return strings.TrimSpace(os.Getenv("TMUX_PANE"))
}

// CurrentSession resolves the session to organise when none was configured:
// the session of $TMUX_PANE, else the session of the first real client.
func CurrentSession(socketPath string) (string, error) {
	client, err := newTmux(socketPath)
	if err != nil {
		return "", err
	}
	if name := currentSessionName(client); name != "" {
		return name, nil
	}
	return "", fmt.Errorf("no tmux session found; pass --session")
}

func currentSessionName(client tmuxClient) string {
	if pane := CurrentPaneID(); pane != "" {
		if name, err := client.DisplayMessage(pane, "#{session_name}"); err == nil {
			if name = strings.TrimSpace(name); name != "" {
				return name
			}
		}
	}
	if clients, err := client.ListClients(); err == nil {
		for _, c := range clients {
			if c != nil && !c.ControlMode && c.Session != "" {
				return c.Session
			}
		}
	}
	return ""
}
