package ui

import "charm.land/bubbles/v2/key"

type keyMap struct {
	quit key.Binding
	help key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit, k.help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.quit, k.help}}
}
