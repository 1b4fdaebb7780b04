package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the dashboard.
type KeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Open  key.Binding
	Back  key.Binding

	Search  key.Binding
	Filters key.Binding
	Clear   key.Binding
	Sort    key.Binding
	Order   key.Binding
	Refresh key.Binding
	More    key.Binding
	Export  key.Binding

	Settings key.Binding
	Logout   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Open:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),

		Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Filters: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filters")),
		Clear:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
		Sort:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort by")),
		Order:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "order")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		More:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "load more")),
		Export:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),

		Settings: key.NewBinding(key.WithKeys(","), key.WithHelp(",", "settings")),
		Logout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Search, k.Filters, k.More, k.Export, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Open, k.Back},
		{k.Search, k.Filters, k.Clear, k.Sort, k.Order},
		{k.Refresh, k.More, k.Export},
		{k.Settings, k.Logout, k.Help, k.Quit},
	}
}

// exportKeys - выбор формата в меню экспорта
var exportKeys = map[string]string{
	"j": "json",
	"c": "csv",
	"x": "xlsx",
}
