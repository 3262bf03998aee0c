package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Quit          key.Binding
	Back          key.Binding
	Confirm       key.Binding
	NextField     key.Binding
	PrevField     key.Binding
	Up            key.Binding
	Down          key.Binding
	Left          key.Binding
	Right         key.Binding
	NextTab       key.Binding
	PrevTab       key.Binding
	Notifications key.Binding
	Login         key.Binding
	Signup        key.Binding
	Filter        key.Binding
	Add           key.Binding
	Write         key.Binding
	Calendar      key.Binding
	Edit          key.Binding
	Cycle         key.Binding
	Logout        key.Binding
	Refresh       key.Binding
	Rent          key.Binding
	Trade         key.Binding
	Mark          key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:          key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Back:          key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Confirm:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		NextField:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		PrevField:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
		Up:            key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k", "up")),
		Down:          key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j", "down")),
		Left:          key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("h", "left")),
		Right:         key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("l", "right")),
		NextTab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		PrevTab:       key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		Notifications: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notifications")),
		Login:         key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log in")),
		Signup:        key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "sign up")),
		Filter:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Add:           key.NewBinding(key.WithKeys("+", "a"), key.WithHelp("+", "new item")),
		Write:         key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "write")),
		Calendar:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "calendar")),
		Edit:          key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Cycle:         key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		Logout:        key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "log out")),
		Refresh:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Rent:          key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "rent")),
		Trade:         key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "buy")),
		Mark:          key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pick day")),
	}
}

// helpLine renders bindings as "key action" pairs.
func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}

func globalHelp(k keyMap) string {
	return "1-5 tabs · " + helpLine(k.NextTab, k.Notifications, k.Login, k.Quit)
}
