package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/hay-kot/oauth-sessions/internal/core/config"
	"github.com/hay-kot/oauth-sessions/internal/core/connection"
)

// KeyMap holds the session list actions. It is shared by pointer so the list
// help always reflects the current enabled state.
type KeyMap struct {
	LoadMore key.Binding
	Retry    key.Binding
	Reload   key.Binding
	Filter   key.Binding
	Details  key.Binding
	Close    key.Binding
	Quit     key.Binding
}

// NewKeyMap builds the key map from configured keybindings.
func NewKeyMap(kb config.Keybindings) *KeyMap {
	return &KeyMap{
		LoadMore: key.NewBinding(
			key.WithKeys(kb.LoadMore),
			key.WithHelp(kb.LoadMore, "load more"),
			key.WithDisabled(),
		),
		Retry: key.NewBinding(
			key.WithKeys(kb.Retry),
			key.WithHelp(kb.Retry, "retry"),
			key.WithDisabled(),
		),
		Reload: key.NewBinding(
			key.WithKeys(kb.Reload),
			key.WithHelp(kb.Reload, "reload"),
		),
		Filter: key.NewBinding(
			key.WithKeys(kb.Filter),
			key.WithHelp(kb.Filter, "state filter"),
		),
		Details: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc", "enter", "q"),
			key.WithHelp("esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings appended to the list help. Disabled
// bindings are hidden by the help renderer.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.LoadMore, k.Retry, k.Details, k.Filter, k.Reload}
}

// Sync enables load-more only while another page exists and nothing is in
// flight, and retry only after a failed request.
func (k *KeyMap) Sync(c *connection.Connection) {
	k.LoadMore.SetEnabled(c.CanLoadMore())
	k.Retry.SetEnabled(c.Err() != nil && !c.Loading())
}
