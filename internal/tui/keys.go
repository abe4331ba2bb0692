package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Home     key.Binding
	Features key.Binding
	About    key.Binding
	Login    key.Binding
	Chat     key.Binding
	Logout   key.Binding
	Start    key.Binding
	Menu     key.Binding
	Palette  key.Binding
	Focus    key.Binding
	Submit   key.Binding
	Blur     key.Binding
	Scroll   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Home:     key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "home")),
		Features: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "features")),
		About:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "about")),
		Login:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "login")),
		Chat:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "chat")),
		Logout:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "logout")),
		Start:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "get started")),
		Menu:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "menu")),
		Palette:  key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "commands")),
		Focus:    key.NewBinding(key.WithKeys("tab", "i"), key.WithHelp("tab", "focus input")),
		Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		Blur:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave input")),
		Scroll:   key.NewBinding(key.WithKeys("up", "down", "pgup", "pgdown"), key.WithHelp("↑/↓", "scroll")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Menu, k.Focus, k.Palette, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Home, k.Features, k.About, k.Login, k.Chat},
		{k.Start, k.Logout, k.Menu, k.Palette},
		{k.Focus, k.Submit, k.Blur, k.Scroll},
		{k.Help, k.Quit},
	}
}
