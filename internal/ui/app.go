package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/readshelf/internal/books"
	"github.com/five82/readshelf/internal/library"
	"github.com/five82/readshelf/internal/logtail"
	"github.com/five82/readshelf/internal/prefs"
	"github.com/five82/readshelf/internal/recommend"
)

// View represents the current active view.
type View int

const (
	ViewShelves View = iota
	ViewRecommendations
	ViewLogs
)

// Service is the read side the UI needs for reloads.
type Service interface {
	library.Fetcher
	recommend.Fetcher
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Service   Service
	Store     *library.Store
	Mutator   *library.Mutator
	Recs      *recommend.List
	LogPath   string
	PollTick  time.Duration
	ThemeName string
	Shelf     library.Status
	PrefsPath string
	Logger    *zap.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	svc       Service
	store     *library.Store
	mutator   *library.Mutator
	recs      *recommend.List
	logPath   string
	prefsPath string
	pollTick  time.Duration
	logger    *zap.Logger

	// UI state
	keys        keyMap
	theme       Theme
	spinner     spinner.Model
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Data state
	snapshot    library.Snapshot
	updating    map[string]bool
	recItems    []recommend.Item
	adding      map[string]bool // recommendation titles with an add in flight
	reloading   bool
	lastUpdated time.Time

	// Selection
	shelf   library.Status
	rows    map[library.Status]int
	recsRow int

	// Status line
	status status

	// Log state
	logViewport viewport.Model
	logEntries  []logtail.Entry
	follow      bool
}

// status is the one-line message under the content area.
type status struct {
	text  string
	isErr bool
	at    time.Time
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Nightfox"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	shelf := opts.Shelf
	if !shelf.Valid() {
		shelf = library.StatusToRead
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	theme := GetTheme(themeName)
	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))

	return Model{
		ctx:         ctx,
		svc:         opts.Service,
		store:       opts.Store,
		mutator:     opts.Mutator,
		recs:        opts.Recs,
		logPath:     opts.LogPath,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		logger:      logger.Named("ui"),
		keys:        DefaultKeyMap(),
		theme:       theme,
		spinner:     sp,
		currentView: ViewShelves,
		updating:    make(map[string]bool),
		adding:      make(map[string]bool),
		shelf:       shelf,
		rows:        make(map[library.Status]int),
		follow:      true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
		m.spinner.Tick,
	}
	if m.store != nil {
		cmds = append(cmds, m.snapshotCmd())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.initLogViewport()
		}
		m.ready = true
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.applySnapshot(msg)
		return m, nil

	case mutationDoneMsg:
		return m.handleMutationDone(msg)

	case addDoneMsg:
		return m.handleAddDone(msg)

	case reloadDoneMsg:
		return m.handleReloadDone(msg)

	case logEntriesMsg:
		m.handleLogEntries(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		return m.startReload()

	case key.Matches(msg, m.keys.ViewShelves), key.Matches(msg, m.keys.Escape):
		m.currentView = ViewShelves
		return m, nil

	case key.Matches(msg, m.keys.ViewRecs):
		m.currentView = ViewRecommendations
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return m, m.readLogsCmd()
	}

	switch m.currentView {
	case ViewShelves:
		return m.handleShelfKey(msg)
	case ViewRecommendations:
		return m.handleRecsKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, m.snapshotCmd())
	}

	if m.currentView == ViewLogs && m.follow {
		cmds = append(cmds, m.readLogsCmd())
	}

	// Clear stale success messages; errors stay until replaced.
	if m.status.text != "" && !m.status.isErr && time.Since(m.status.at) > StatusMessageTTL {
		m.status = status{}
	}

	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// applySnapshot replaces the displayed data and keeps selections in range.
func (m *Model) applySnapshot(msg snapshotMsg) {
	m.snapshot = msg.snapshot
	m.lastUpdated = time.Now()

	m.updating = make(map[string]bool, len(msg.updating))
	for _, id := range msg.updating {
		m.updating[id] = true
	}
	m.recItems = msg.recs

	for _, shelf := range library.Statuses {
		m.rows[shelf] = clampRow(m.rows[shelf], len(m.snapshot.Shelf(shelf)))
	}
	m.recsRow = clampRow(m.recsRow, len(m.recItems))
}

// refreshNow reads the store synchronously so a staged change shows at once.
func (m *Model) refreshNow() {
	if msg, ok := m.snapshotCmd()().(snapshotMsg); ok {
		m.applySnapshot(msg)
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = status{text: text, isErr: isErr, at: time.Now()}
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, DefaultShelf: string(m.shelf)}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Warn("save prefs failed", zap.Error(err))
	}
}

func (m Model) startReload() (tea.Model, tea.Cmd) {
	if m.reloading || m.svc == nil || m.store == nil {
		return m, nil
	}
	m.reloading = true
	m.setStatus("Reloading library...", false)
	return m, m.reloadCmd()
}

func (m Model) handleReloadDone(msg reloadDoneMsg) (tea.Model, tea.Cmd) {
	m.reloading = false
	switch {
	case msg.err != nil:
		m.setStatus(errorMessage(msg.err), true)
	case msg.recErr != nil:
		m.setStatus("Library reloaded. Recommendations are unavailable.", true)
	default:
		m.setStatus("Library reloaded.", false)
	}
	return m, m.snapshotCmd()
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	b.WriteString(m.renderContent())
	b.WriteString("\n")

	b.WriteString(m.renderStatusLine())

	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewShelves:
		return m.renderShelves()
	case ViewRecommendations:
		return m.renderRecommendations()
	case ViewLogs:
		return m.renderLogs()
	default:
		return ""
	}
}

// contentHeight is the height left for the main area after the header,
// command bar, and status line.
func (m Model) contentHeight() int {
	return max(m.height-3, 3)
}

// Messages

type tickMsg time.Time

type snapshotMsg struct {
	snapshot library.Snapshot
	updating []string
	recs     []recommend.Item
}

type mutationDoneMsg struct {
	recordID string
	op       library.Op
	title    string
	err      error
}

type addDoneMsg struct {
	title    string
	identity string
	work     books.Identity
	result   library.AddResult
	err      error
}

type reloadDoneMsg struct {
	err    error
	recErr error
}

type logEntriesMsg struct {
	entries []logtail.Entry
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) snapshotCmd() tea.Cmd {
	store, mutator, recs := m.store, m.mutator, m.recs
	return func() tea.Msg {
		msg := snapshotMsg{}
		if store != nil {
			msg.snapshot = store.Snapshot()
		}
		if mutator != nil {
			msg.updating = mutator.UpdatingIDs()
		}
		if recs != nil {
			msg.recs = recs.Items()
		}
		return msg
	}
}

func (m Model) reloadCmd() tea.Cmd {
	ctx, svc, store, recs := m.ctx, m.svc, m.store, m.recs
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, ReloadTimeout)
		defer cancel()

		if _, err := store.Load(ctx, svc); err != nil {
			return reloadDoneMsg{err: err}
		}
		var recErr error
		if recs != nil {
			_, recErr = recs.Load(ctx, svc, store.Identities())
		}
		return reloadDoneMsg{recErr: recErr}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
