package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the chat client. Bindings that are
// plain letters only apply while no text field has focus.
type KeyMap struct {
	Up   key.Binding
	Down key.Binding

	Select key.Binding // Open room, pick candidate, submit text.
	Back   key.Binding // Leave a text field or close the results.
	Focus  key.Binding // Rooms <-> message input.

	NewPost    key.Binding
	Search     key.Binding
	TogglePost key.Binding // Want to buy <-> want to sell while composing.
	Retry      key.Binding // Resend the latest failed message.
	Reload     key.Binding
	Dismiss    key.Binding
	Login      key.Binding
	Logout     key.Binding

	Quit      key.Binding
	ForceQuit key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "back"),
	),
	Focus: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "write message"),
	),
	NewPost: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "new post"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	TogglePost: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "buy/sell"),
	),
	Retry: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "retry"),
	),
	Reload: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "reload rooms"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "dismiss"),
	),
	Login: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "sign in with Facebook"),
	),
	Logout: key.NewBinding(
		key.WithKeys("L"),
		key.WithHelp("L", "log out"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
}
