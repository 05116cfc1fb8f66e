package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	prev   key.Binding
	next   key.Binding
	short  key.Binding
	medium key.Binding
	long   key.Binding
	panel  key.Binding
	retry  key.Binding
	help   key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		prev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "shorter range")),
		next:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "longer range")),
		short:  key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "4 weeks")),
		medium: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "6 months")),
		long:   key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "all time")),
		panel:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "artists/tracks/genres")),
		retry:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.prev, k.next, k.panel, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.prev, k.next},
		{k.short, k.medium, k.long},
		{k.panel, k.retry},
		{k.help, k.quit},
	}
}
