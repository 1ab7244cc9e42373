package tmux

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// IgnoreOption is the pane user option that hides a pane from the organiser.
const IgnoreOption = "@tabdir-ignore"

const (
	windowFormat = "#{session_name}\t#{window_id}\t#{window_index}\t#{window_name}"
	paneFormat   = "#{session_name}\t#{pane_id}\t#{window_id}\t#{pane_dead}\t#{" + IgnoreOption + "}\t#{pane_current_path}"
)

// FetchLayout lists the windows and panes of session.
func FetchLayout(socketPath, session string) (Layout, error) {
	session = strings.TrimSpace(session)
	if session == "" {
		return Layout{}, fmt.Errorf("session required")
	}
	client, err := newTmux(socketPath)
	if err != nil {
		return Layout{}, err
	}
	windowLines, err := client.ListWindowsFormat("", "", windowFormat)
	if err != nil {
		dropClient(client)
		return Layout{}, fmt.Errorf("list windows: %w", err)
	}
	paneLines, err := client.ListPanesFormat("", "", paneFormat)
	if err != nil {
		dropClient(client)
		return Layout{}, fmt.Errorf("list panes: %w", err)
	}
	layout := Layout{
		Session: session,
		Windows: parseWindowLines(windowLines, session),
		Panes:   parsePaneLines(paneLines, session),
	}
	return layout, nil
}

// WindowOrdinal maps window ids to their 1-based position in the layout.
func (l Layout) WindowOrdinal() map[string]int {
	out := make(map[string]int, len(l.Windows))
	for i, w := range l.Windows {
		out[w.ID] = i + 1
	}
	return out
}

// WindowAt returns the window at a 1-based position.
func (l Layout) WindowAt(position int) (Window, bool) {
	if position < 1 || position > len(l.Windows) {
		return Window{}, false
	}
	return l.Windows[position-1], true
}

func parseWindowLines(lines []string, session string) []Window {
	windows := make([]Window, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 4)
		if len(parts) < 4 {
			continue
		}
		if parts[0] != session {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			continue
		}
		windows = append(windows, Window{
			ID:      strings.TrimSpace(parts[1]),
			Session: parts[0],
			Index:   idx,
			Name:    parts[3],
		})
	}
	sort.SliceStable(windows, func(i, j int) bool { return windows[i].Index < windows[j].Index })
	return windows
}

func parsePaneLines(lines []string, session string) []Pane {
	panes := make([]Pane, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 6)
		if len(parts) < 6 {
			continue
		}
		if parts[0] != session {
			continue
		}
		id := strings.TrimSpace(parts[1])
		number, ok := PaneNumber(id)
		if !ok {
			continue
		}
		panes = append(panes, Pane{
			ID:          id,
			Number:      number,
			Session:     parts[0],
			WindowID:    strings.TrimSpace(parts[2]),
			Dead:        strings.TrimSpace(parts[3]) == "1",
			Ignored:     isSet(parts[4]),
			CurrentPath: parts[5],
		})
	}
	return panes
}

// PaneNumber converts a tmux pane id such as "%12" to 12.
func PaneNumber(id string) (uint32, bool) {
	id = strings.TrimPrefix(strings.TrimSpace(id), "%")
	if id == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

func isSet(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "off", "no", "false":
		return false
	default:
		return true
	}
}
