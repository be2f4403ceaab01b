package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the wallpaper view.
type keyMap struct {
	Newer   key.Binding
	Older   key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Newer: key.NewBinding(
			key.WithKeys("n", "right"),
			key.WithHelp("n/→", "Newer image"),
		),
		Older: key.NewBinding(
			key.WithKeys("p", "left"),
			key.WithHelp("p/←", "Older image"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh today"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "Quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Older, k.Newer, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Older, k.Newer},
		{k.Refresh},
		{k.Help, k.Quit},
	}
}

// syncEnabled mirrors the menu behaviour: a direction is disabled at its history bound
func (k *keyMap) syncEnabled(canNewer, canOlder bool) {
	k.Newer.SetEnabled(canNewer)
	k.Older.SetEnabled(canOlder)
}
