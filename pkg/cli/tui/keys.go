package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Faster    key.Binding
	Slower    key.Binding
	Left      key.Binding
	Right     key.Binding
	Center    key.Binding
	Stop      key.Binding
	Heartbeat key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Faster, k.Slower, k.Left, k.Right, k.Stop, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Faster, k.Slower, k.Stop},
		{k.Left, k.Right, k.Center},
		{k.Heartbeat, k.Help, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Faster: key.NewBinding(
			key.WithKeys("up", "w"),
			key.WithHelp("↑/w", "faster"),
		),
		Slower: key.NewBinding(
			key.WithKeys("down", "s"),
			key.WithHelp("↓/s", "slower"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "a"),
			key.WithHelp("←/a", "steer left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "d"),
			key.WithHelp("→/d", "steer right"),
		),
		Center: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "center steering"),
		),
		Stop: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space/x", "emergency stop"),
		),
		Heartbeat: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "toggle heartbeat"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
