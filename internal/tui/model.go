package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/hay-kot/oauth-sessions/internal/core/config"
	"github.com/hay-kot/oauth-sessions/internal/core/connection"
	"github.com/hay-kot/oauth-sessions/internal/core/oauthsession"
)

// UIState represents the current state of the TUI.
type UIState int

const (
	stateNormal UIState = iota
	stateViewingDetail
)

// Key constants for event handling.
const (
	keyCtrlC = "ctrl+c"
)

// Layout: header (1) + blank (1) above the list, footer (1) below it.
const chromeHeight = 3

// Options configures the TUI behavior.
type Options struct {
	UserID string                   // user whose sessions are listed
	Label  string                   // shown in the header instead of UserID when set
	State  oauthsession.StateFilter // initial state filter
	Logger zerolog.Logger
	Now    func() time.Time // clock for relative times, defaults to time.Now
}

// Model is the session list view. It owns one connection per mount; a
// reload or filter change remounts it.
type Model struct {
	cfg     *config.Config
	source  oauthsession.Source
	log     zerolog.Logger
	now     func() time.Time
	userID  string
	label   string
	filter  oauthsession.StateFilter
	conn    *connection.Connection
	keys    *KeyMap
	list    list.Model
	spinner spinner.Model
	state   UIState
	detail  DetailModal
	width   int
	height  int

	quitting bool
}

// New creates a new TUI model.
func New(source oauthsession.Source, cfg *config.Config, opts Options) Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	filter := opts.State
	if filter == "" {
		filter = oauthsession.FilterAll
	}

	keys := NewKeyMap(cfg.Keybindings)

	l := list.New([]list.Item{}, NewSessionDelegate(now), 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()
	l.FilterInput.Prompt = "Filter: "
	l.AdditionalShortHelpKeys = keys.ShortHelp
	l.AdditionalFullHelpKeys = keys.ShortHelp

	helpStyle := lipgloss.NewStyle().Foreground(colorGray)
	l.Help.Styles.ShortKey = helpStyle
	l.Help.Styles.ShortDesc = helpStyle
	l.Help.Styles.ShortSeparator = helpStyle
	l.Help.ShortSeparator = " • "
	l.Styles.HelpStyle = lipgloss.NewStyle().PaddingLeft(1)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorBlue)

	label := opts.Label
	if label == "" {
		label = opts.UserID
	}

	return Model{
		cfg:     cfg,
		source:  source,
		log:     opts.Logger,
		now:     now,
		userID:  opts.UserID,
		label:   label,
		filter:  filter,
		conn:    connection.New(),
		keys:    keys,
		list:    l,
		spinner: s,
		state:   stateNormal,
	}
}

// Init loads the first page.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.request(), m.spinner.Tick)
}

// request starts the next page request: the first page while nothing is
// loaded, otherwise a load-more. It returns nil when the connection refuses,
// which is what keeps repeated key presses from overlapping.
func (m Model) request() tea.Cmd {
	size := m.cfg.Pagination.PageSize
	if !m.conn.Loaded() {
		size = m.cfg.Pagination.InitialPageSize
	}

	ticket, ok := m.conn.Begin(size)
	if !ok {
		return nil
	}
	m.keys.Sync(m.conn)

	m.log.Debug().
		Str("after", ticket.After).
		Int("first", ticket.First).
		Str("state", string(m.filter)).
		Msg("requesting session page")

	req := oauthsession.PageRequest{
		UserID: m.userID,
		First:  ticket.First,
		After:  ticket.After,
		State:  m.filter,
	}
	return fetchPage(m.source, req, ticket, m.cfg.RequestTimeout)
}

// remount drops the current connection and loads the first page again.
func (m Model) remount() (tea.Model, tea.Cmd) {
	m.conn.Reset()
	m.keys.Sync(m.conn)
	m.list.ResetFilter()
	cmd := m.list.SetItems(nil)
	return m, tea.Batch(cmd, m.request())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, max(msg.Height-chromeHeight, 1))
		return m, nil

	case pageLoadedMsg:
		return m.handlePageLoaded(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handlePageLoaded applies a settled page request.
func (m Model) handlePageLoaded(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	// Results landing after quit belong to a view that no longer exists.
	if m.quitting {
		return m, nil
	}

	defer m.keys.Sync(m.conn)

	if msg.err != nil {
		if m.conn.Fail(msg.ticket, msg.err) {
			m.log.Warn().Err(msg.err).Str("after", msg.ticket.After).Msg("session page failed")
		}
		return m, nil
	}

	applied, err := m.conn.Complete(msg.ticket, msg.page)
	if err != nil {
		m.log.Warn().Err(err).Str("after", msg.ticket.After).Msg("rejected session page")
		return m, nil
	}
	if !applied {
		m.log.Debug().Str("after", msg.ticket.After).Msg("discarded stale session page")
		return m, nil
	}

	cmd := m.syncItems()
	return m, cmd
}

// syncItems rebuilds the list items from the connection, keeping the
// selection on the same key.
func (m *Model) syncItems() tea.Cmd {
	var selectedKey string
	if item, ok := m.list.SelectedItem().(SessionItem); ok {
		selectedKey = item.Key
	}

	edges := m.conn.Edges()
	items := make([]list.Item, len(edges))
	selected := -1
	for i, e := range edges {
		items[i] = SessionItem{Key: e.Cursor, Session: e.Node}
		if e.Cursor == selectedKey {
			selected = i
		}
	}

	cmd := m.list.SetItems(items)
	if selected >= 0 {
		m.list.Select(selected)
	}
	return cmd
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	if m.state == stateViewingDetail {
		return m.handleDetailKey(msg, keyStr)
	}

	// While typing a filter every key belongs to the filter input.
	if m.list.SettingFilter() {
		if keyStr == keyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.LoadMore), key.Matches(msg, m.keys.Retry):
		return m, m.request()

	case key.Matches(msg, m.keys.Reload):
		return m.remount()

	case key.Matches(msg, m.keys.Filter):
		m.filter = m.filter.Next()
		return m.remount()

	case key.Matches(msg, m.keys.Details):
		item, ok := m.list.SelectedItem().(SessionItem)
		if !ok {
			return m, nil
		}
		m.detail = NewDetailModal(item, m.viewWidth(), m.viewHeight(), m.now())
		m.state = stateViewingDetail
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleDetailKey handles keys while the detail modal is open.
func (m Model) handleDetailKey(msg tea.KeyMsg, keyStr string) (tea.Model, tea.Cmd) {
	if keyStr == keyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Close) {
		m.state = stateNormal
		return m, nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m Model) viewWidth() int {
	if m.width == 0 {
		return 80
	}
	return m.width
}

func (m Model) viewHeight() int {
	if m.height == 0 {
		return 24
	}
	return m.height
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.state == stateViewingDetail {
		return m.detail.Overlay(m.viewWidth(), m.viewHeight())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		"",
		m.renderBody(),
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("OAuth2 sessions")

	count := fmt.Sprintf("%d loaded", m.conn.Len())
	if total := m.conn.TotalCount(); total > 0 {
		count = fmt.Sprintf("%d of %d", m.conn.Len(), total)
	}

	meta := subtleStyle.Render(fmt.Sprintf("  %s • %s • %s", m.label, m.filter, count))
	return title + meta
}

func (m Model) renderBody() string {
	body := m.list.View()

	switch {
	case !m.conn.Loaded() && m.conn.Loading():
		body = footerStyle.Render(m.spinner.View() + " Loading sessions...")
	case !m.conn.Loaded() && m.conn.Err() != nil:
		body = footerStyle.Render(errorStyle.Render("Could not load sessions: " + m.conn.Err().Error()))
	case m.conn.Loaded() && m.conn.Len() == 0:
		body = footerStyle.Render(subtleStyle.Render(fmt.Sprintf("No %s sessions.", m.filterNoun())))
	}

	if m.height > 0 {
		body = lipgloss.NewStyle().Height(max(m.height-chromeHeight, 1)).Render(body)
	}
	return body
}

func (m Model) filterNoun() string {
	if m.filter == oauthsession.FilterAll {
		return "OAuth2"
	}
	return string(m.filter)
}

// renderFooter shows pagination status. The load-more hint only appears when
// the action is actually available.
func (m Model) renderFooter() string {
	var line string

	switch {
	case m.conn.Loading():
		if m.conn.Loaded() {
			line = m.spinner.View() + subtleStyle.Render(" Loading more...")
		}
	case m.conn.Err() != nil:
		prefix := "Failed to load more: "
		if !m.conn.Loaded() {
			prefix = "Failed: "
		}
		line = errorStyle.Render(prefix+m.conn.Err().Error()) +
			subtleStyle.Render(" • ") + hintStyle.Render(m.keys.Retry.Help().Key+" retry")
	case m.keys.LoadMore.Enabled():
		line = hintStyle.Render(m.keys.LoadMore.Help().Key + " load more")
	case m.conn.Loaded():
		line = subtleStyle.Render("End of list")
	}

	return footerStyle.Render(line)
}
