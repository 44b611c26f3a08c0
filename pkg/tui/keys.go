package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	LoadMore key.Binding
	Retry    key.Binding
	Filter   key.Binding
	Back     key.Binding
	Summary  key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "down")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		LoadMore: key.NewBinding(key.WithKeys("ctrl+l", "pgdown"), key.WithHelp("ctrl+l", "load more")),
		Retry:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "retry")),
		Filter:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "search/filter")),
		Back:     key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Summary:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "ask the AI")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) listHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.LoadMore, k.Retry, k.Filter, k.Quit}
}

func (k keyMap) detailHelp() []key.Binding {
	return []key.Binding{k.Back, k.Summary, k.Retry, k.Quit}
}
