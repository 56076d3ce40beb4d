package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/hay-kot/oauth-sessions/internal/core/oauthsession"
)

// SessionItem wraps one connection edge for the list component. Key is the
// edge cursor and identifies the item across re-renders.
type SessionItem struct {
	Key     string
	Session oauthsession.Session
}

// FilterValue returns the value used for filtering.
func (i SessionItem) FilterValue() string {
	return i.Session.DisplayName() + " " + i.Session.ID + " " + i.Session.Client.ClientID
}

// SessionDelegate renders a single session in the list.
type SessionDelegate struct {
	Styles SessionDelegateStyles
	Now    func() time.Time
}

// SessionDelegateStyles defines the styles for the delegate.
type SessionDelegateStyles struct {
	Normal   lipgloss.Style
	Selected lipgloss.Style
	Active   lipgloss.Style
	Finished lipgloss.Style
	Detail   lipgloss.Style
}

// DefaultSessionDelegateStyles returns the default styles.
func DefaultSessionDelegateStyles() SessionDelegateStyles {
	return SessionDelegateStyles{
		Normal:   normalStyle,
		Selected: selectedStyle,
		Active:   activeStyle,
		Finished: finishedStyle,
		Detail:   detailStyle,
	}
}

// NewSessionDelegate creates a new session delegate with default styles.
func NewSessionDelegate(now func() time.Time) SessionDelegate {
	if now == nil {
		now = time.Now
	}
	return SessionDelegate{
		Styles: DefaultSessionDelegateStyles(),
		Now:    now,
	}
}

// Height returns the height of each item.
func (d SessionDelegate) Height() int {
	return 3
}

// Spacing returns the spacing between items.
func (d SessionDelegate) Spacing() int {
	return 1
}

// Update handles item updates.
func (d SessionDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render renders a single item.
func (d SessionDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	si, ok := item.(SessionItem)
	if !ok {
		return
	}

	s := si.Session

	var title string
	if index == m.Index() {
		title = d.Styles.Selected.Render("> " + s.DisplayName())
	} else {
		title = d.Styles.Normal.Render("  " + s.DisplayName())
	}

	var badge string
	switch s.State() {
	case oauthsession.StateFinished:
		badge = d.Styles.Finished.Render(string(oauthsession.StateFinished))
	default:
		badge = d.Styles.Active.Render(string(oauthsession.StateActive))
	}

	ids := s.ID
	if scopes := s.Scopes(); len(scopes) > 0 {
		ids += " • " + strings.Join(scopes, " ")
	}

	_, _ = fmt.Fprintf(w, "%s  %s\n", title, badge)
	_, _ = fmt.Fprintf(w, "  %s\n", d.Styles.Detail.Render(ids))
	_, _ = fmt.Fprintf(w, "  %s", d.Styles.Detail.Render(d.activity(s)))
}

// activity describes when the session started and was last seen.
func (d SessionDelegate) activity(s oauthsession.Session) string {
	now := d.Now()
	parts := []string{"created " + relTime(s.CreatedAt, now)}

	if s.FinishedAt != nil {
		parts = append(parts, "finished "+relTime(*s.FinishedAt, now))
	} else if s.LastActiveAt != nil {
		seen := "last active " + relTime(*s.LastActiveAt, now)
		if s.LastActiveIP != "" {
			seen += " from " + s.LastActiveIP
		}
		parts = append(parts, seen)
	}

	return strings.Join(parts, " • ")
}

func relTime(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
