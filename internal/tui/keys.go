package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	NextDevice key.Binding
	RefUp      key.Binding
	RefDown    key.Binding
	Reset      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
		NextDevice: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "next device"),
		),
		RefUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "reference +1 dB"),
		),
		RefDown: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "reference -1 dB"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "default reference"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.NextDevice, k.RefUp, k.RefDown, k.Reset}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
