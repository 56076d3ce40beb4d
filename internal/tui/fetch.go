package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hay-kot/oauth-sessions/internal/core/connection"
	"github.com/hay-kot/oauth-sessions/internal/core/oauthsession"
)

// pageLoadedMsg is sent when a page request settles.
type pageLoadedMsg struct {
	ticket connection.Ticket
	page   oauthsession.Page
	err    error
}

// fetchPage returns a command that loads the page described by ticket.
func fetchPage(source oauthsession.Source, req oauthsession.PageRequest, ticket connection.Ticket, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		page, err := source.ListSessions(ctx, req)
		return pageLoadedMsg{ticket: ticket, page: page, err: err}
	}
}
