package ui

import (
	"fmt"
	"sort"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/atomicstack/tmux-tabdir/internal/pipe"
	"github.com/atomicstack/tmux-tabdir/internal/plugin"
	"github.com/atomicstack/tmux-tabdir/internal/state"
)

const recentReports = 5

// View implements tea.Model.
func (m *Model) View() tea.View {
	var v tea.View
	v.AltScreen = m.alt
	v.SetContent(m.Render())
	return v
}

// Render draws the status view as plain text with styles applied.
func (m *Model) Render() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	tabs := m.state.Tabs()
	panes := m.state.Panes()
	dirs := m.state.WorkingDirs()
	if len(tabs) == 0 {
		b.WriteString(styles.Muted.Render("waiting for tmux…"))
		b.WriteString("\n")
	}
	for _, tab := range tabs {
		b.WriteString(m.renderTab(tab, panes, dirs))
	}

	if received := m.state.Received(); len(received) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.Header.Render("recent reports"))
		b.WriteString("\n")
		if len(received) > recentReports {
			received = received[len(received)-recentReports:]
		}
		for _, msg := range received {
			b.WriteString("  ")
			b.WriteString(styles.Muted.Render(m.clip(payloadText(msg), 2)))
			b.WriteString("\n")
		}
	}

	if m.lastErr != "" {
		b.WriteString("\n")
		b.WriteString(styles.Error.Render(m.clip("error: "+m.lastErr, 0)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.Footer.Render(m.help.View(m.keys)))
	return b.String()
}

func (m *Model) renderHeader() string {
	parts := []string{styles.Title.Render(plugin.Name)}
	if m.session != "" {
		parts = append(parts, styles.Header.Render("session "+m.session))
	}
	perm := m.state.Permission()
	permStyle := styles.Muted
	switch perm {
	case plugin.PermissionGranted:
		permStyle = styles.Granted
	case plugin.PermissionDenied:
		permStyle = styles.Denied
	}
	parts = append(parts, permStyle.Render("git "+perm.String()))
	parts = append(parts, styles.Muted.Render(fmt.Sprintf("%d renames", m.state.Renames())))
	return strings.Join(parts, "  ")
}

func (m *Model) renderTab(tab state.Tab, panes []state.Pane, dirs map[uint32]string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%3d  ", tab.Position+1))
	b.WriteString(styles.Tab.Render(m.clip(tab.Name, 5)))
	b.WriteString("\n")

	own := make([]state.Pane, 0, len(panes))
	for _, p := range panes {
		if p.TabPosition == tab.Position {
			own = append(own, p)
		}
	}
	sort.Slice(own, func(i, j int) bool { return own[i].ID < own[j].ID })
	for _, p := range own {
		dir, ok := dirs[p.ID]
		label := dir
		switch {
		case p.IsPlugin:
			label = "(organiser)"
		case p.IsSuppressed:
			label = "(ignored)"
		case !ok:
			label = "(no report)"
		}
		line := fmt.Sprintf("%%%d  %s", p.ID, label)
		style := styles.Pane
		if !ok || p.IsPlugin || p.IsSuppressed {
			style = styles.Muted
		}
		b.WriteString("       ")
		b.WriteString(style.Render(m.clip(line, 7)))
		b.WriteString("\n")
	}
	return b.String()
}

// clip truncates s to the terminal width minus indent cells.
func (m *Model) clip(s string, indent int) string {
	if m.width <= 0 {
		return s
	}
	limit := m.width - indent
	if limit <= 0 {
		return ""
	}
	return ansi.Truncate(s, limit, "…")
}

func payloadText(msg pipe.Message) string {
	if msg.Payload == nil {
		return "(no payload)"
	}
	return *msg.Payload
}
