// Package tui is the terminal dashboard: login, the post overview with
// filters and export, post details and settings.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ButyrinIA/postboard/internal/api"
	"github.com/ButyrinIA/postboard/internal/export"
	"github.com/ButyrinIA/postboard/internal/feed"
	"github.com/ButyrinIA/postboard/internal/filter"
	"github.com/ButyrinIA/postboard/internal/models"
	"github.com/ButyrinIA/postboard/internal/session"
	"github.com/ButyrinIA/postboard/internal/settings"
)

// Backend is the read side of the API client.
type Backend interface {
	feed.PostSource
	feed.OverviewSource
	Post(ctx context.Context, postID string) (*models.Post, error)
	ImageURL(raw string) string
}

// Auth is the part of session.Session the UI drives.
type Auth interface {
	session.State
	Restore(ctx context.Context) error
	Login(ctx context.Context, email, password string) session.LoginResult
	Logout(ctx context.Context)
	User() (models.User, bool)
}

type Exporter interface {
	Busy() bool
	Export(ctx context.Context, criteria filter.Criteria, format export.Format) (string, error)
}

type Settings interface {
	UpdateProfile(ctx context.Context, name, email string) (settings.ProfileResult, error)
	Preferences(ctx context.Context) (settings.Preferences, error)
	SavePreferences(ctx context.Context, p settings.Preferences) error
}

type Deps struct {
	Backend  Backend
	Auth     Auth
	Exporter Exporter
	Settings Settings
	PerPage  int
}

// mode - что показано внутри /dashboard
type mode int

const (
	modeGrid mode = iota
	modeSearch
	modeFilters
	modeExport
	modeDetail
)

const defaultStatusTTL = 4 * time.Second

// Model is the root bubbletea model. Update is the only place that mutates
// filters, the post list and navigation; network calls run in commands and
// come back as messages.
type Model struct {
	ctx      context.Context
	backend  Backend
	auth     Auth
	exporter Exporter
	settings Settings
	guard    session.Guard

	route  session.Route
	mode   mode
	keys   KeyMap
	styles Styles
	help   help.Model

	spinner spinner.Model
	width   int
	height  int

	feed     *feed.Controller
	overview feed.Overview
	prefs    settings.Preferences
	// loaded: данные дашборда запрошены для текущего входа
	loaded bool

	cursor int
	scroll int

	login        loginForm
	filters      filterForm
	search       textinput.Model
	detail       detailView
	detailGen    uint64
	settingsForm settingsForm
	exporting    bool

	status    string
	statusErr bool
	statusID  int
	statusTTL time.Duration
}

// New creates the model for the requested start route. Everything protected
// stays pending until the session is restored in Init.
func New(ctx context.Context, deps Deps, start session.Route) Model {
	styles := DefaultStyles(false)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	m := Model{
		ctx:       ctx,
		backend:   deps.Backend,
		auth:      deps.Auth,
		exporter:  deps.Exporter,
		settings:  deps.Settings,
		guard:     session.NewGuard(deps.Auth),
		keys:      DefaultKeyMap(),
		styles:    styles,
		help:      help.New(),
		spinner:   s,
		feed:      feed.NewController(deps.PerPage),
		prefs:     settings.DefaultPreferences(),
		login:     newLoginForm(),
		search:    newInput("Search posts...", 200),
		statusTTL: defaultStatusTTL,
	}
	m.route = m.guard.Resolve(start).Route
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		restoreCmd(m.ctx, m.auth),
		loadPrefsCmd(m.ctx, m.settings),
	)
}

// Update handles one message and then re-checks the route guard, so any
// message that ended the session lands on /login.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	m, guardCmd := m.enforceGuard()
	return m, tea.Batch(cmd, guardCmd)
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.detail.vp.Width = m.contentWidth()
		m.detail.vp.Height = m.detailHeight()
		m.scroll = clampScroll(m.cursorRow(), m.scroll, m.visibleRows(), m.totalRows())
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case restoredMsg:
		if msg.err != nil {
			slog.Warn("failed to restore session", "error", msg.err)
		}
		return m, nil

	case loginMsg:
		m.login.submitting = false
		if !msg.result.Success {
			m.login.err = msg.result.Error
			return m, nil
		}
		m.login = newLoginForm()
		m.route = session.RouteDashboard
		return m, nil

	case postsMsg:
		if !m.feed.Apply(msg.resp) {
			return m, nil
		}
		if m.cursor >= len(m.feed.Posts()) {
			m.cursor = max(0, len(m.feed.Posts())-1)
		}
		if err := msg.resp.Err; err != nil && !errors.Is(err, api.ErrUnauthorized) {
			return m.setStatus("Failed to load posts", true)
		}
		return m, nil

	case groupsMsg:
		m.overview.ApplyGroups(msg.res)
		return m, nil

	case statsMsg:
		m.overview.ApplyStats(msg.res)
		return m, nil

	case postMsg:
		return m.applyPost(msg), nil

	case exportedMsg:
		return m.applyExport(msg)

	case profileSavedMsg:
		return m.applyProfile(msg)

	case prefsLoadedMsg:
		if msg.err != nil {
			slog.Warn("failed to load preferences", "error", msg.err)
		}
		m.prefs = msg.prefs
		m.styles = DefaultStyles(m.prefs.DarkMode)
		m.spinner.Style = m.styles.Spinner
		return m, nil

	case prefsSavedMsg:
		return m.applyPrefsSaved(msg), nil

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

// enforceGuard moves the model to the route the guard allows and loads the
// dashboard on first entry after a sign-in.
func (m Model) enforceGuard() (Model, tea.Cmd) {
	d := m.guard.Resolve(m.route)
	if d.Pending {
		return m, nil
	}
	if d.Redirected(m.route) {
		slog.Debug("route redirected", "from", m.route, "to", d.Route)
		m.route = d.Route
	}

	if m.route == session.RouteLogin {
		if m.loaded {
			// дашборд был открыт, а сессия пропала без явного выхода
			m.loaded = false
			m.mode = modeGrid
			m.login = newLoginForm()
			return m.setStatus("Your session has expired. Please sign in again.", true)
		}
		return m, nil
	}

	if m.loaded {
		return m, nil
	}
	m.loaded = true
	m.mode = modeGrid
	m.cursor, m.scroll = 0, 0
	criteria := m.feed.Criteria()
	if criteria.SortBy == "" {
		criteria = filter.Default()
	}
	return m, tea.Batch(
		fetchPostsCmd(m.ctx, m.backend, m.feed.ResetAndFetch(criteria)),
		fetchGroupsCmd(m.ctx, m.backend),
		fetchStatsCmd(m.ctx, m.backend),
		m.spinner.Tick,
	)
}

func (m Model) busy() bool {
	return m.guard.Resolve(m.route).Pending ||
		m.feed.Loading() ||
		m.exporting ||
		m.login.submitting ||
		m.settingsForm.saving ||
		(m.mode == modeDetail && m.detail.loading)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.guard.Resolve(m.route).Pending {
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	switch m.route {
	case session.RouteLogin:
		return m.updateLogin(msg)
	case session.RouteSettings:
		return m.updateSettings(msg)
	}

	switch m.mode {
	case modeSearch:
		return m.updateSearch(msg)
	case modeFilters:
		return m.updateFilters(msg)
	case modeExport:
		return m.updateExportMenu(msg)
	case modeDetail:
		return m.updateDetail(msg)
	}
	return m.updateGrid(msg)
}

func (m Model) updateGrid(msg tea.KeyMsg) (Model, tea.Cmd) {
	posts := m.feed.Posts()
	cols := m.columns()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-cols)
	case key.Matches(msg, m.keys.Down):
		if m.cursor+cols >= len(posts) && m.feed.HasMore() {
			m.cursor = max(0, len(posts)-1)
			return m.loadMore()
		}
		m.moveCursor(cols)
	case key.Matches(msg, m.keys.Left):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.Open):
		if m.cursor < len(posts) {
			return m.openDetail(posts[m.cursor])
		}

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.search.SetValue(m.feed.Criteria().Keyword)
		m.search.CursorEnd()
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Filters):
		m.mode = modeFilters
		m.filters = newFilterForm(m.feed.Criteria(), m.overview.Groups())
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		if m.feed.Criteria().Equal(filter.Default()) {
			return m, nil
		}
		return m.applyCriteria(filter.Default())

	case key.Matches(msg, m.keys.Sort):
		c := m.feed.Criteria()
		c.SortBy = c.SortBy.Next()
		return m.applyCriteria(c)

	case key.Matches(msg, m.keys.Order):
		c := m.feed.Criteria()
		c.Order = c.Order.Toggle()
		return m.applyCriteria(c)

	case key.Matches(msg, m.keys.Refresh):
		m.cursor, m.scroll = 0, 0
		return m, tea.Batch(
			fetchPostsCmd(m.ctx, m.backend, m.feed.Refresh()),
			fetchGroupsCmd(m.ctx, m.backend),
			fetchStatsCmd(m.ctx, m.backend),
			m.spinner.Tick,
		)

	case key.Matches(msg, m.keys.More):
		return m.loadMore()

	case key.Matches(msg, m.keys.Export):
		if m.exportBusy() {
			return m.setStatus("Export in progress...", false)
		}
		m.mode = modeExport
		return m, nil

	case key.Matches(msg, m.keys.Settings):
		m.route = session.RouteSettings
		m.settingsForm = m.newSettingsForm()
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		m.auth.Logout(m.ctx)
		m.loaded = false
		m.login = newLoginForm()
		return m.setStatus("Signed out", false)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	n := len(m.feed.Posts())
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = min(max(0, m.cursor+delta), n-1)
	m.scroll = clampScroll(m.cursorRow(), m.scroll, m.visibleRows(), m.totalRows())
}

// applyCriteria replaces the criteria and refetches from page 1. The list
// and page are reset before the request goes out.
func (m Model) applyCriteria(c filter.Criteria) (Model, tea.Cmd) {
	m.cursor, m.scroll = 0, 0
	m.mode = modeGrid
	req := m.feed.SetFilters(c)
	return m, tea.Batch(fetchPostsCmd(m.ctx, m.backend, req), m.spinner.Tick)
}

func (m Model) loadMore() (Model, tea.Cmd) {
	req, ok := m.feed.LoadMore()
	if !ok {
		return m, nil
	}
	return m, tea.Batch(fetchPostsCmd(m.ctx, m.backend, req), m.spinner.Tick)
}

// updateSearch applies the keyword on enter, and only when it changed.
func (m Model) updateSearch(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeGrid
		m.search.Blur()
		return m, nil
	case "enter":
		m.mode = modeGrid
		m.search.Blur()
		c := m.feed.Criteria()
		kw := strings.TrimSpace(m.search.Value())
		if kw == c.Keyword {
			return m, nil
		}
		c.Keyword = kw
		return m.applyCriteria(c)
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) updateFilters(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.mode = modeGrid
		return m, nil
	}
	f, cmd, apply := m.filters.update(msg)
	m.filters = f
	if !apply {
		return m, cmd
	}
	c, err := f.criteria()
	if err != nil {
		m.filters.err = err.Error()
		return m, nil
	}
	if c.Equal(m.feed.Criteria()) {
		m.mode = modeGrid
		return m, nil
	}
	return m.applyCriteria(c)
}

func (m Model) exportBusy() bool {
	return m.exporting || m.exporter.Busy()
}

func (m Model) updateExportMenu(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.String() == "esc" || key.Matches(msg, m.keys.Export) {
		m.mode = modeGrid
		return m, nil
	}
	name, ok := exportKeys[msg.String()]
	if !ok {
		return m, nil
	}
	m.mode = modeGrid
	if m.exportBusy() {
		return m.setStatus("Export in progress...", false)
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		return m, nil
	}
	m.exporting = true
	return m, tea.Batch(exportCmd(m.ctx, m.exporter, m.feed.Criteria(), format), m.spinner.Tick)
}

func (m Model) applyExport(msg exportedMsg) (Model, tea.Cmd) {
	m.exporting = false
	switch {
	case errors.Is(msg.err, export.ErrBusy):
		return m.setStatus("Export already in progress", true)
	case errors.Is(msg.err, api.ErrUnauthorized):
		return m, nil
	case msg.err != nil:
		slog.Error("export failed", "format", msg.format, "error", msg.err)
		return m.setStatus("Failed to export data: "+api.Message(msg.err, msg.err.Error()), true)
	}
	return m.setStatus("Exported to "+msg.path, false)
}

func (m Model) setStatus(text string, isErr bool) (Model, tea.Cmd) {
	m.statusID++
	m.status = text
	m.statusErr = isErr
	return m, clearStatusCmd(m.statusID, m.statusTTL)
}

func (m Model) statusView() string {
	if m.statusErr {
		return m.styles.Error.Render(m.status)
	}
	return m.styles.Status.Render(m.status)
}

// Layout

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return max(20, m.width-2)
}

func (m Model) columns() int {
	return max(1, m.contentWidth()/cardWidth)
}

func (m Model) cursorRow() int { return m.cursor / m.columns() }

func (m Model) totalRows() int {
	cols := m.columns()
	return (len(m.feed.Posts()) + cols - 1) / cols
}

// chromeHeight - заголовок, плитки (4 строки), сводка фильтров, подсказки и статус
const chromeHeight = 1 + 1 + 4 + 1 + 1 + 1 + 2 + 1

func (m Model) visibleRows() int {
	if m.height <= 0 {
		return 0
	}
	return max(1, (m.height-chromeHeight)/cardHeight)
}

func (m Model) detailHeight() int {
	if m.height <= 0 {
		return 20
	}
	return max(5, m.height-6)
}

// View

func (m Model) View() string {
	if m.guard.Resolve(m.route).Pending {
		return "\n  " + m.spinner.View() + " Restoring session...\n"
	}
	switch m.route {
	case session.RouteLogin:
		return m.viewLogin()
	case session.RouteSettings:
		return m.viewSettings()
	}
	return m.viewDashboard()
}

func (m Model) viewDashboard() string {
	st := m.styles
	if m.mode == modeDetail {
		return m.viewDetail()
	}

	var b strings.Builder
	title := st.Title.Render("Facebook Media Aggregator")
	if u, ok := m.auth.User(); ok {
		who := u.Name
		if who == "" {
			who = u.Email
		}
		title += "  " + st.Subtle.Render(who)
	}
	b.WriteString(title + "\n")
	b.WriteString(renderTiles(m.overview.Stats(), st) + "\n")

	pg := m.feed.Pagination()
	summary := filterSummary(m.feed.Criteria(), m.overview.Groups())
	if !m.feed.Loading() || len(m.feed.Posts()) > 0 {
		summary += st.Subtle.Render(fmt.Sprintf("  (%d of %d posts)", len(m.feed.Posts()), pg.Total))
	}
	b.WriteString(summary + "\n")

	switch m.mode {
	case modeFilters:
		b.WriteString("\n" + m.filters.view(st) + "\n")
		return b.String()
	case modeSearch:
		b.WriteString(st.Focused.Render("/ ") + m.search.View() + "\n")
	case modeExport:
		b.WriteString(m.viewExportMenu() + "\n")
	}

	b.WriteString(renderGrid(gridView{
		Posts:     m.feed.Posts(),
		Loading:   m.feed.Loading(),
		HasMore:   m.feed.HasMore(),
		Cursor:    m.cursor,
		Columns:   m.columns(),
		CardWidth: cardWidth,
		Offset:    m.scroll,
		Rows:      m.visibleRows(),
	}, st) + "\n")

	switch {
	case m.exporting:
		b.WriteString(m.spinner.View() + " Exporting...\n")
	case m.feed.Loading() && len(m.feed.Posts()) > 0:
		b.WriteString(m.spinner.View() + " Loading...\n")
	}
	if m.status != "" {
		b.WriteString(m.statusView() + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) viewExportMenu() string {
	st := m.styles
	items := []string{"[j] JSON", "[c] CSV", "[x] Excel"}
	style := st.Focused
	if m.exportBusy() {
		style = st.Disabled
	}
	for i, it := range items {
		items[i] = style.Render(it)
	}
	return st.Label.Render("Export:") + strings.Join(items, "  ") + "  " + st.Subtle.Render("esc  cancel")
}
