package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/hay-kot/oauth-sessions/internal/core/oauthsession"
)

// Detail modal sizing.
const (
	detailMaxWidth = 90
	detailMargin   = 4  // space kept around the modal
	detailChrome   = 8  // border, padding, title and help lines
	glamourGutter  = 2  // glamour adds gutter space
	detailMinWidth = 30 // below this the markdown is unreadable
)

// DetailModal shows every field of one session, rendered as markdown.
type DetailModal struct {
	key      string
	session  oauthsession.Session
	viewport viewport.Model
}

// NewDetailModal creates a modal sized for a width x height screen.
func NewDetailModal(item SessionItem, width, height int, now time.Time) DetailModal {
	w := min(width-detailMargin*2, detailMaxWidth)
	w = max(w, detailMinWidth)
	h := max(height-detailMargin*2-detailChrome, 3)

	vp := viewport.New(w, h)

	m := DetailModal{
		key:      item.Key,
		session:  item.Session,
		viewport: vp,
	}
	m.viewport.SetContent(renderMarkdown(sessionMarkdown(item, now), w-glamourGutter))
	return m
}

// Key returns the identity key of the session shown.
func (m DetailModal) Key() string {
	return m.key
}

// Update forwards scrolling input to the viewport.
func (m DetailModal) Update(msg tea.Msg) (DetailModal, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// Overlay renders the modal centered on a width x height screen.
func (m DetailModal) Overlay(width, height int) string {
	content := lipgloss.JoinVertical(
		lipgloss.Left,
		modalTitleStyle.Render(m.session.DisplayName()),
		"",
		m.viewport.View(),
		modalHelpStyle.Render("↑/↓ scroll  esc close"),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modalStyle.Render(content))
}

// sessionMarkdown describes a session as a markdown document.
func sessionMarkdown(item SessionItem, now time.Time) string {
	s := item.Session

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", s.DisplayName())

	fmt.Fprintf(&b, "| Field | Value |\n|---|---|\n")
	row := func(k, v string) {
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", k, strings.ReplaceAll(v, "|", `\|`))
	}
	row("Session", "`"+s.ID+"`")
	row("State", string(s.State()))
	row("Created", formatTime(s.CreatedAt, now))
	if s.FinishedAt != nil {
		row("Finished", formatTime(*s.FinishedAt, now))
	}
	if s.LastActiveAt != nil {
		row("Last active", formatTime(*s.LastActiveAt, now))
	}
	row("Last IP", s.LastActiveIP)
	row("Client ID", "`"+s.Client.ClientID+"`")
	row("Client URI", s.Client.ClientURI)
	row("Cursor", "`"+item.Key+"`")

	if scopes := s.Scopes(); len(scopes) > 0 {
		b.WriteString("\n### Scopes\n\n")
		for _, scope := range scopes {
			fmt.Fprintf(&b, "- `%s`\n", scope)
		}
	}

	return b.String()
}

func formatTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04") + " (" + relTime(t, now) + ")"
}

// renderMarkdown renders md for the terminal, falling back to the raw text
// when glamour cannot.
func renderMarkdown(md string, width int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("tokyo-night"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}

	out, err := renderer.Render(md)
	if err != nil {
		return md
	}

	return strings.Trim(out, "\n")
}
