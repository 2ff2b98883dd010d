package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap описывает привязки клавиш шага выбора контейнера.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Clear    key.Binding
	Sort     key.Binding
	Filter   key.Binding
	Retry    key.Binding
	Continue key.Binding
	Quit     key.Binding
}

// DefaultKeyMap возвращает привязки клавиш по умолчанию.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "select"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "road filter"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Continue: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "continue"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp возвращает привязки для строки подсказок.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Clear, k.Sort, k.Filter, k.Retry, k.Continue, k.Quit}
}
