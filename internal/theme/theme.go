package theme

import "charm.land/lipgloss/v2"

// Styles describes the Lip Gloss styles used by the status view.
type Styles struct {
	Header  *lipgloss.Style
	Title   *lipgloss.Style
	Tab     *lipgloss.Style
	Pane    *lipgloss.Style
	Muted   *lipgloss.Style
	Granted *lipgloss.Style
	Denied  *lipgloss.Style
	Error   *lipgloss.Style
	Footer  *lipgloss.Style
}

var defaultStyles = Styles{
	Header: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),
	),
	Title: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true),
	),
	Tab: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
	),
	Pane: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	Muted: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	),
	Granted: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	),
	Denied: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	),
	Error: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	),
	Footer: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
}

// Default exposes the standard style set.
func Default() *Styles {
	return &defaultStyles
}

func ptr(style lipgloss.Style) *lipgloss.Style {
	s := style
	return &s
}
