package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/watchlist/internal/formatter"
	"github.com/desertthunder/watchlist/internal/models"
	"github.com/desertthunder/watchlist/internal/shared"
	"github.com/desertthunder/watchlist/internal/tasks"
)

// Focus is the pane receiving key presses.
type Focus int

const (
	SearchFocus Focus = iota
	ResultsFocus
	ListFocus
	RenameFocus
)

// Options configures optional session behavior.
type Options struct {
	ExportFormat  formatter.Format
	ExportDir     string
	CreateOnStart bool // create the list at startup instead of on the first search
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	catalog *tasks.CatalogCache
	sync    *tasks.Synchronizer
	events  <-chan tasks.SyncEvent
	opts    Options

	focus     Focus
	prevFocus Focus
	search    textinput.Model
	rename    textinput.Model
	results   list.Model
	entries   list.Model
	found     []models.CatalogItem
	ready     bool
	status    string
	failed    bool
	width     int
	height    int
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model. events should be the channel passed to the synchronizer's options.
func NewModel(ctx context.Context, catalog *tasks.CatalogCache, sync *tasks.Synchronizer, events <-chan tasks.SyncEvent, opts Options) *Model {
	if opts.ExportFormat == "" {
		opts.ExportFormat = formatter.Text
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	search := textinput.New()
	search.Placeholder = "Search movies and shows"
	search.CharLimit = 120
	search.Focus()

	rename := textinput.New()
	rename.Placeholder = "New list name"
	rename.CharLimit = 80

	return &Model{
		ctx:     ctx,
		catalog: catalog,
		sync:    sync,
		events:  events,
		opts:    opts,
		focus:   SearchFocus,
		search:  search,
		rename:  rename,
		results: newPane("Results"),
		entries: newPane("My List"),
		status:  "Loading catalog...",
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

func newPane(title string) list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return l
}

// Init loads the catalog and starts listening for synchronizer events.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadCatalog(), m.waitForEvent(), textinput.Blink}
	if m.opts.CreateOnStart {
		cmds = append(cmds, m.ensureList())
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		paneWidth := max(msg.Width/2-4, 20)
		paneHeight := max(msg.Height-12, 5)
		m.results.SetSize(paneWidth, paneHeight)
		m.entries.SetSize(paneWidth, paneHeight)
		m.search.Width = max(msg.Width-8, 20)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.forceQuit) {
			return m, tea.Quit
		}
		switch m.focus {
		case SearchFocus:
			return m.handleSearchKeys(msg)
		case RenameFocus:
			return m.handleRenameKeys(msg)
		case ResultsFocus:
			return m.handleResultsKeys(msg)
		case ListFocus:
			return m.handleListKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCatalogLoaded:
		if err, _ := msg.data.(error); err != nil {
			m.setError(fmt.Sprintf("Could not load the catalog: %v", err))
			return m, nil
		}
		m.ready = true
		m.setStatus(fmt.Sprintf("Loaded %d titles", m.catalog.Len()))

	case MsgListReady:
		res := msg.data.(listReady)
		if res.err != nil {
			m.setError(describe(res.err))
			return m, nil
		}
		if res.list != nil {
			m.showList(*res.list)
		}

	case MsgOpDone:
		res := msg.data.(opResult)
		if wl, ok := m.sync.Snapshot(); ok {
			m.showList(wl)
		}
		if res.err != nil {
			m.setError(describe(res.err))
			return m, nil
		}
		m.setStatus(res.action)

	case MsgSyncEvent:
		event := msg.data.(tasks.SyncEvent)
		// Events queue behind later mutations; the session list is authoritative.
		if current, ok := m.sync.Snapshot(); ok {
			m.showList(current)
		} else {
			m.showList(event.List)
		}
		if event.Kind == tasks.RolledBack {
			m.setError(event.Message)
		} else {
			m.setStatus(event.Message)
		}
		return m, m.waitForEvent()

	case MsgEventsClosed:
		m.events = nil

	case MsgExported:
		res := msg.data.(exportResult)
		if res.err != nil {
			m.setError(fmt.Sprintf("Export failed: %v", res.err))
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Exported to %s", res.path))
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.enter):
		return m.submitSearch()
	case key.Matches(msg, m.keys.next):
		return m, m.setFocus(ResultsFocus)
	case key.Matches(msg, m.keys.back):
		m.search.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.enter):
		if selected, ok := m.results.SelectedItem().(resultItem); ok {
			return m, m.addItem(selected.item)
		}
		return m, nil
	case key.Matches(msg, m.keys.next):
		return m, m.setFocus(ListFocus)
	}
	if cmd, handled := m.handleCommonKeys(msg); handled {
		return m, cmd
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.remove):
		if selected, ok := m.entries.SelectedItem().(entryItem); ok {
			return m, m.removeItem(selected.entry.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.next):
		return m, m.setFocus(SearchFocus)
	}
	if cmd, handled := m.handleCommonKeys(msg); handled {
		return m, cmd
	}

	var cmd tea.Cmd
	m.entries, cmd = m.entries.Update(msg)
	return m, cmd
}

// handleCommonKeys covers bindings shared by the two list panes.
func (m *Model) handleCommonKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit, true
	case key.Matches(msg, m.keys.search), key.Matches(msg, m.keys.back):
		return m.setFocus(SearchFocus), true
	case key.Matches(msg, m.keys.rename):
		return m.startRename(), true
	case key.Matches(msg, m.keys.export):
		return m.export(), true
	}
	return nil, false
}

func (m *Model) handleRenameKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.enter):
		name := m.rename.Value()
		m.setFocus(m.prevFocus)
		return m, m.renameList(name)
	case key.Matches(msg, m.keys.back):
		m.setStatus("Rename cancelled")
		return m, m.setFocus(m.prevFocus)
	}

	var cmd tea.Cmd
	m.rename, cmd = m.rename.Update(msg)
	return m, cmd
}

func (m *Model) submitSearch() (tea.Model, tea.Cmd) {
	query, ok := shared.NormalizeQuery(m.search.Value())
	if !ok {
		m.setStatus("Type a title to search")
		return m, nil
	}
	if !m.ready {
		m.setError("The catalog has not loaded yet")
		return m, nil
	}

	m.found = m.catalog.Search(query)
	m.showResults()
	if len(m.found) == 0 {
		m.setStatus(fmt.Sprintf("No matches for %q", query))
		return m, nil
	}

	m.setStatus(fmt.Sprintf("%d matches for %q", len(m.found), query))
	m.setFocus(ResultsFocus)
	return m, m.materialize(m.found)
}

func (m *Model) startRename() tea.Cmd {
	wl, ok := m.sync.Snapshot()
	if !ok {
		m.setError(describe(shared.ErrNoActiveList))
		return nil
	}
	m.rename.SetValue(wl.Name)
	m.rename.CursorEnd()
	return m.setFocus(RenameFocus)
}

// setFocus moves key input to focus and returns the text input's focus command, if any.
func (m *Model) setFocus(focus Focus) tea.Cmd {
	if focus == m.focus {
		return nil
	}
	if focus == RenameFocus {
		m.prevFocus = m.focus
	}

	m.search.Blur()
	m.rename.Blur()
	m.focus = focus

	switch focus {
	case SearchFocus:
		return m.search.Focus()
	case RenameFocus:
		return m.rename.Focus()
	default:
		return nil
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.failed = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.failed = true
}

func (m *Model) showList(wl models.WatchList) {
	entries := formatter.Resolve(wl, m.catalog)
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = entryItem{entry: e}
	}
	m.entries.Title = fmt.Sprintf("%s (%d)", wl.Name, len(wl.Items))
	m.entries.SetItems(items)
	m.showResults()
}

func (m *Model) showResults() {
	current, _ := m.sync.Snapshot()
	items := make([]list.Item, len(m.found))
	for i, it := range m.found {
		items[i] = resultItem{item: it, inList: current.Contains(it.ID)}
	}
	m.results.SetItems(items)
}

func (m *Model) loadCatalog() tea.Cmd {
	return func() tea.Msg {
		return catalogLoadedMsg(m.catalog.Load(m.ctx))
	}
}

func (m *Model) ensureList() tea.Cmd {
	return func() tea.Msg {
		wl, err := m.sync.EnsureList(m.ctx)
		if err != nil {
			return listReadyMsg(nil, err)
		}
		return listReadyMsg(&wl, nil)
	}
}

func (m *Model) materialize(results []models.CatalogItem) tea.Cmd {
	return func() tea.Msg {
		wl, err := m.sync.MaterializeFromSearch(m.ctx, results)
		return listReadyMsg(wl, err)
	}
}

func (m *Model) addItem(item models.CatalogItem) tea.Cmd {
	return func() tea.Msg {
		err := m.sync.AddItem(m.ctx, item.ID)
		return opDoneMsg(fmt.Sprintf("Added %s", item.Name), err)
	}
}

func (m *Model) removeItem(id models.ID) tea.Cmd {
	return func() tea.Msg {
		err := m.sync.RemoveItem(m.ctx, id)
		return opDoneMsg(fmt.Sprintf("Removed item %d", id), err)
	}
}

func (m *Model) renameList(name string) tea.Cmd {
	return func() tea.Msg {
		err := m.sync.Rename(m.ctx, name)
		return opDoneMsg(fmt.Sprintf("Renamed list to %q", name), err)
	}
}

func (m *Model) export() tea.Cmd {
	wl, ok := m.sync.Snapshot()
	if !ok {
		m.setError(describe(shared.ErrNoActiveList))
		return nil
	}
	format, dir := m.opts.ExportFormat, m.opts.ExportDir
	return func() tea.Msg {
		path := filepath.Join(dir, formatter.DefaultFilename(wl, format))
		path, err := formatter.WriteExport(wl, m.catalog, format, path)
		return exportedMsg(path, err)
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return eventsClosedMsg()
		}
		return syncEventMsg(event)
	}
}

// describe turns synchronizer failures into status line text.
func describe(err error) string {
	switch {
	case errors.Is(err, shared.ErrNoActiveList):
		return "Search for a title first to create your list"
	case errors.Is(err, shared.ErrCatalogNotReady):
		return "The catalog has not loaded yet"
	case errors.Is(err, shared.ErrDuplicateItem):
		return "That title is already in your list"
	case errors.Is(err, shared.ErrListCreationFailed):
		return "Could not create your list; search again to retry"
	case errors.Is(err, shared.ErrSyncFailed):
		return "Could not save the change; your list was restored"
	case errors.Is(err, shared.ErrInvalidInput):
		return "List name cannot be blank"
	case errors.Is(err, context.Canceled):
		return "Cancelled"
	default:
		return err.Error()
	}
}

// View renders the search bar, both panes, the status line and contextual help.
func (m *Model) View() string {
	title := styles.title.Render("Watchlist")

	var top string
	if m.focus == RenameFocus {
		top = "Rename list: " + m.rename.View()
	} else {
		top = m.search.View()
	}

	resultsPane := m.paneStyle(ResultsFocus).Render(m.results.View())
	listPane := m.paneStyle(ListFocus).Render(m.entries.View())
	panes := lipgloss.JoinHorizontal(lipgloss.Top, resultsPane, listPane)

	var status string
	switch {
	case m.failed:
		status = styles.err.Render(m.status)
	case !m.ready:
		status = styles.warn.Render(m.status)
	default:
		status = styles.ok.Render(m.status)
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n%s\n%s", title, top, panes, status, styles.help.Render(m.helpView()))
}

func (m *Model) paneStyle(focus Focus) lipgloss.Style {
	if m.focus == focus {
		return styles.focused
	}
	return styles.pane
}

func (m *Model) helpView() string {
	var keys []key.Binding
	switch m.focus {
	case SearchFocus:
		keys = []key.Binding{m.keys.enter, m.keys.next, m.keys.back}
	case ResultsFocus:
		add := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add"))
		keys = []key.Binding{add, m.keys.next, m.keys.rename, m.keys.export, m.keys.quit}
	case ListFocus:
		keys = []key.Binding{m.keys.remove, m.keys.next, m.keys.rename, m.keys.export, m.keys.quit}
	case RenameFocus:
		save := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save"))
		keys = []key.Binding{save, m.keys.back}
	}
	return m.help.ShortHelpView(keys)
}
