package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	start    key.Binding
	stop     key.Binding
	live     key.Binding
	dates    key.Binding
	settings key.Binding
	logout   key.Binding
	next     key.Binding
	prev     key.Binding
	enter    key.Binding
	back     key.Binding
	add      key.Binding
	remove   key.Binding
	save     key.Binding
	up       key.Binding
	down     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start sync"),
		),
		stop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "stop sync"),
		),
		live: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open live view"),
		),
		dates: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit dates"),
		),
		settings: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "settings"),
		),
		logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "logout"),
		),
		next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		prev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev field"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add mapping"),
		),
		remove: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete mapping"),
		),
		save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.start, k.stop, k.live},
		{k.dates, k.settings, k.logout},
		{k.save, k.back, k.quit},
	}
}
