package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/minhvu/tcbsync/internal/models"
	"github.com/minhvu/tcbsync/internal/services"
	"github.com/minhvu/tcbsync/internal/shared"
	"github.com/minhvu/tcbsync/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	LoginView
	DashboardView
	SettingsView
)

// Login input indexes.
const (
	loginUsername = iota
	loginPassword
)

// Settings field input indexes, matching the order fields render in.
const (
	fieldTCBUsername = iota
	fieldTCBPassword
	fieldActualURL
	fieldActualPassword
	fieldBudgetID
	fieldBudgetPassword
	fieldCount
)

// Mapping editor input indexes.
const (
	mapName = iota
	mapActualID
	mapArrangements
)

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	session     *services.SessionManager
	syncSvc     *services.SyncService
	settingsSvc *services.SettingsService
	supervisor  *tasks.Supervisor
	poller      *tasks.Poller
	logger      *log.Logger

	view          ViewState
	width, height int
	spin          spinner.Model
	keys          keyMap
	help          help.Model

	// login
	loginInputs  []textinput.Model
	loginFocus   int
	registerMode bool
	authErr      string
	signingIn    bool

	// dashboard
	sub        *tasks.Subscription
	snapshot   *models.StatusSnapshot
	pollErr    string
	notice     string
	logView    viewport.Model
	dateInputs []textinput.Model
	dateFocus  int // -1 when not editing
	dateRange  models.DateRange
	autoLive   bool
	otpSeen    bool

	// settings
	settings       models.Settings
	mappings       models.MappingList
	fieldInputs    []textinput.Model
	mappingInputs  []textinput.Model
	settingsFocus  int // 0..fieldCount-1 fields, then mapping rows, then the add row
	editingMapping bool
	settingsMsg    string
}

type sessionReadyMsg struct{ err error }

type authResultMsg struct{ err error }

type statusMsg tasks.StatusUpdate

type pollClosedMsg struct{}

type startResultMsg struct{ err error }

type stopResultMsg struct{ err error }

type liveViewMsg struct{ err error }

type settingsFetchedMsg struct {
	settings *models.Settings
	err      error
}

type settingsSavedMsg struct{ err error }

// Opts contains the dependencies and behavior switches for the TUI.
type Opts struct {
	Session      *services.SessionManager
	Sync         *services.SyncService
	Settings     *services.SettingsService
	Supervisor   *tasks.Supervisor
	Poller       *tasks.Poller
	Logger       *log.Logger
	OpenLiveView bool
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Opts) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:         ctx,
		session:     opts.Session,
		syncSvc:     opts.Sync,
		settingsSvc: opts.Settings,
		supervisor:  opts.Supervisor,
		poller:      opts.Poller,
		logger:      logger,
		view:        LoadingView,
		spin:        sp,
		keys:        newKeyMap(),
		help:        newHelp(),
		dateFocus:   -1,
		dateRange:   models.DefaultDateRange(),
		autoLive:    opts.OpenLiveView,
	}

	m.loginInputs = newLoginInputs()
	m.dateInputs = newDateInputs(m.dateRange)
	m.fieldInputs = newFieldInputs()
	m.mappingInputs = newMappingInputs()
	return m
}

func newHelp() help.Model {
	h := help.New()
	h.ShowAll = true
	return h
}

func newLoginInputs() []textinput.Model {
	username := textinput.New()
	username.Placeholder = "username"
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword

	return []textinput.Model{username, password}
}

func newDateInputs(dr models.DateRange) []textinput.Model {
	from := textinput.New()
	from.Placeholder = "YYYY-MM-DD"
	from.SetValue(dr.FromString())
	from.CharLimit = 10

	to := textinput.New()
	to.Placeholder = "YYYY-MM-DD"
	to.SetValue(dr.ToString())
	to.CharLimit = 10

	return []textinput.Model{from, to}
}

func newFieldInputs() []textinput.Model {
	labels := []string{
		"bank username", "bank password", "server url",
		"server password", "budget id", "budget encryption password",
	}
	inputs := make([]textinput.Model, fieldCount)
	for i, label := range labels {
		in := textinput.New()
		in.Placeholder = label
		if strings.Contains(label, "password") {
			in.EchoMode = textinput.EchoPassword
		}
		inputs[i] = in
	}
	return inputs
}

func newMappingInputs() []textinput.Model {
	name := textinput.New()
	name.Placeholder = "account name"

	actualID := textinput.New()
	actualID.Placeholder = "actual account uuid"

	arrangements := textinput.New()
	arrangements.Placeholder = "arrangement ids, comma separated"

	return []textinput.Model{name, actualID, arrangements}
}

// Init resolves the persisted session before any navigation decision.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.initSession())
}

func (m *Model) initSession() tea.Cmd {
	return func() tea.Msg {
		err := m.session.Initialize(m.ctx)
		return sessionReadyMsg{err: err}
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logView = viewport.New(msg.Width-4, max(msg.Height-14, 5))
		if m.snapshot != nil {
			m.logView.SetContent(m.renderLogs())
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case sessionReadyMsg:
		if msg.err != nil {
			m.authErr = msg.err.Error()
		}
		if m.session.CurrentUser() != nil {
			return m, m.enterDashboard()
		}
		m.view = LoginView
		return m, nil

	case authResultMsg:
		m.signingIn = false
		if msg.err != nil {
			m.authErr = msg.err.Error()
			return m, nil
		}
		m.authErr = ""
		return m, m.enterDashboard()

	case statusMsg:
		return m.handleStatus(tasks.StatusUpdate(msg))

	case pollClosedMsg:
		return m, nil

	case startResultMsg:
		if msg.err == nil {
			m.notice = "Sync started"
			return m, nil
		}
		if errors.Is(msg.err, shared.ErrConfigMissing) {
			// The distinguished failure: send the user to settings
			// instead of showing a generic alert.
			m.notice = "Configure settings before starting a sync"
			return m, m.enterSettings()
		}
		m.notice = "Start failed: " + msg.err.Error()
		return m, nil

	case stopResultMsg:
		if msg.err != nil {
			m.notice = "Stop failed: " + msg.err.Error()
		} else {
			m.notice = "Stop requested, waiting for the service to confirm"
		}
		return m, nil

	case liveViewMsg:
		if msg.err != nil {
			m.notice = "Could not open live view: " + msg.err.Error()
		}
		return m, nil

	case settingsFetchedMsg:
		if msg.err != nil {
			m.settingsMsg = "Failed to load settings: " + msg.err.Error()
			return m, nil
		}
		m.applySettings(*msg.settings)
		return m, nil

	case settingsSavedMsg:
		if msg.err != nil {
			m.settingsMsg = "Error saving settings: " + msg.err.Error()
			return m, nil
		}
		m.settingsMsg = "Settings saved"
		m.notice = ""
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case DashboardView:
			return m.handleDashboardKeys(msg)
		case SettingsView:
			return m.handleSettingsKeys(msg)
		default:
			if msg.String() == "q" || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		}
	}

	return m, nil
}

// handleStatus applies one poll result. The snapshot fully replaces local
// state; errors are shown but do not clear the previous snapshot.
func (m *Model) handleStatus(update tasks.StatusUpdate) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.waitForStatus()}

	if update.Err != nil {
		m.pollErr = update.Err.Error()
		return m, tea.Batch(cmds...)
	}

	m.pollErr = ""
	m.snapshot = update.Snapshot
	m.supervisor.Observe(update.Snapshot)
	if m.logView.Width > 0 {
		atBottom := m.logView.AtBottom()
		m.logView.SetContent(m.renderLogs())
		if atBottom {
			m.logView.GotoBottom()
		}
	}

	if update.Snapshot.State.WaitingOTP() {
		if !m.otpSeen && m.autoLive {
			cmds = append(cmds, m.openLiveView())
		}
		m.otpSeen = true
	} else {
		m.otpSeen = false
	}

	return m, tea.Batch(cmds...)
}

// enterDashboard is the guarded navigation into the main view. Entering
// mounts a poll subscription; leaving tears it down.
func (m *Model) enterDashboard() tea.Cmd {
	if m.session.Loading() {
		m.view = LoadingView
		return nil
	}
	if m.session.CurrentUser() == nil {
		m.view = LoginView
		return nil
	}

	m.view = DashboardView
	m.notice = ""
	if m.sub == nil {
		m.sub = m.poller.Subscribe(m.ctx)
	}
	return m.waitForStatus()
}

// enterSettings is the guarded navigation into the settings view.
func (m *Model) enterSettings() tea.Cmd {
	if m.session.Loading() {
		m.view = LoadingView
		return nil
	}
	if m.session.CurrentUser() == nil {
		m.view = LoginView
		return nil
	}

	m.stopPolling()
	m.view = SettingsView
	m.settingsMsg = ""
	m.settingsFocus = 0
	m.editingMapping = false
	m.focusSettingsInput()
	return m.fetchSettings()
}

func (m *Model) stopPolling() {
	if m.sub != nil {
		m.sub.Stop()
		m.sub = nil
	}
}

func (m *Model) waitForStatus() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		if sub == nil {
			return pollClosedMsg{}
		}
		update, ok := <-sub.Updates()
		if !ok {
			return pollClosedMsg{}
		}
		return statusMsg(update)
	}
}

func (m *Model) openLiveView() tea.Cmd {
	url := m.syncSvc.StreamURL()
	return func() tea.Msg {
		return liveViewMsg{err: shared.OpenBrowser(url)}
	}
}

func (m *Model) fetchSettings() tea.Cmd {
	return func() tea.Msg {
		settings, err := m.settingsSvc.Fetch(m.ctx)
		return settingsFetchedMsg{settings: settings, err: err}
	}
}

// applySettings loads fetched settings into the editable inputs, migrating
// legacy mapping blobs in the process.
func (m *Model) applySettings(s models.Settings) {
	m.settings = s
	m.mappings = s.Mappings()
	m.fieldInputs[fieldTCBUsername].SetValue(s.TCBUsername)
	m.fieldInputs[fieldTCBPassword].SetValue(s.TCBPassword)
	m.fieldInputs[fieldActualURL].SetValue(s.ActualURL)
	m.fieldInputs[fieldActualPassword].SetValue(s.ActualPassword)
	m.fieldInputs[fieldBudgetID].SetValue(s.ActualBudgetID)
	m.fieldInputs[fieldBudgetPassword].SetValue(s.ActualBudgetPassword)
}

// collectSettings gathers the inputs back into the wire shape. Mappings are
// always re-serialized in the modern form.
func (m *Model) collectSettings() models.Settings {
	s := m.settings
	s.TCBUsername = m.fieldInputs[fieldTCBUsername].Value()
	s.TCBPassword = m.fieldInputs[fieldTCBPassword].Value()
	s.ActualURL = m.fieldInputs[fieldActualURL].Value()
	s.ActualPassword = m.fieldInputs[fieldActualPassword].Value()
	s.ActualBudgetID = m.fieldInputs[fieldBudgetID].Value()
	s.ActualBudgetPassword = m.fieldInputs[fieldBudgetPassword].Value()
	s.SetMappings(m.mappings)
	return s
}

func (m *Model) saveSettings() tea.Cmd {
	settings := m.collectSettings()
	return func() tea.Msg {
		return settingsSavedMsg{err: m.settingsSvc.Save(m.ctx, settings)}
	}
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab", "shift+tab", "up", "down":
		m.loginFocus = (m.loginFocus + 1) % len(m.loginInputs)
		for i := range m.loginInputs {
			if i == m.loginFocus {
				m.loginInputs[i].Focus()
			} else {
				m.loginInputs[i].Blur()
			}
		}
		return m, nil
	case "ctrl+r":
		m.registerMode = !m.registerMode
		m.authErr = ""
		return m, nil
	case "enter":
		if m.signingIn {
			return m, nil
		}
		username := m.loginInputs[loginUsername].Value()
		password := m.loginInputs[loginPassword].Value()
		if username == "" || password == "" {
			m.authErr = "username and password are required"
			return m, nil
		}
		m.signingIn = true
		m.authErr = ""
		register := m.registerMode
		return m, func() tea.Msg {
			var err error
			if register {
				err = m.session.Register(m.ctx, username, password)
			} else {
				err = m.session.SignIn(m.ctx, username, password)
			}
			return authResultMsg{err: err}
		}
	}

	var cmd tea.Cmd
	m.loginInputs[m.loginFocus], cmd = m.loginInputs[m.loginFocus].Update(msg)
	return m, cmd
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.dateFocus >= 0 {
		return m.handleDateEditKeys(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.stopPolling()
		return m, tea.Quit
	case "s":
		return m, m.startSync()
	case "x":
		return m, m.stopSync()
	case "o":
		return m, m.openLiveView()
	case "e":
		state := m.currentState()
		if state.Running() {
			m.notice = "Date range is locked while a sync is running"
			return m, nil
		}
		m.dateFocus = 0
		m.dateInputs[0].Focus()
		m.dateInputs[1].Blur()
		return m, nil
	case "g":
		return m, m.enterSettings()
	case "L":
		m.stopPolling()
		if err := m.session.SignOut(); err != nil {
			m.notice = "Logout failed: " + err.Error()
			return m, nil
		}
		m.snapshot = nil
		m.view = LoginView
		return m, nil
	}

	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	return m, cmd
}

func (m *Model) handleDateEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		m.dateInputs[m.dateFocus].Blur()
		m.dateFocus = (m.dateFocus + 1) % len(m.dateInputs)
		m.dateInputs[m.dateFocus].Focus()
		return m, nil
	case "enter":
		dr, err := models.ParseDateRange(m.dateInputs[0].Value(), m.dateInputs[1].Value())
		if err != nil {
			m.notice = "Invalid date: " + err.Error()
			return m, nil
		}
		if err := dr.Validate(); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.dateRange = dr
		m.dateInputs[m.dateFocus].Blur()
		m.dateFocus = -1
		m.notice = ""
		return m, nil
	case "esc":
		m.dateInputs[0].SetValue(m.dateRange.FromString())
		m.dateInputs[1].SetValue(m.dateRange.ToString())
		m.dateInputs[m.dateFocus].Blur()
		m.dateFocus = -1
		return m, nil
	}

	var cmd tea.Cmd
	m.dateInputs[m.dateFocus], cmd = m.dateInputs[m.dateFocus].Update(msg)
	return m, cmd
}

func (m *Model) currentState() models.SyncState {
	if m.snapshot == nil {
		return ""
	}
	return m.snapshot.State
}

// startSync is gated locally on the last polled state, including waiting_otp.
func (m *Model) startSync() tea.Cmd {
	state := m.currentState()
	if !state.Startable() {
		if state == "" {
			m.notice = "Waiting for the first status poll"
		} else {
			m.notice = "Cannot start while the job is " + state.Label()
		}
		return nil
	}

	dateRange := m.dateRange
	return func() tea.Msg {
		return startResultMsg{err: m.supervisor.Start(m.ctx, dateRange)}
	}
}

func (m *Model) stopSync() tea.Cmd {
	if !m.currentState().Running() {
		m.notice = "No sync is running"
		return nil
	}
	return func() tea.Msg {
		return stopResultMsg{err: m.supervisor.StopJob(m.ctx)}
	}
}

// Settings focus layout: credential fields first, then one row per mapping,
// then a synthetic "add mapping" row.
func (m *Model) settingsRowCount() int {
	return fieldCount + len(m.mappings) + 1
}

func (m *Model) focusedMapping() int {
	idx := m.settingsFocus - fieldCount
	if idx >= 0 && idx < len(m.mappings) {
		return idx
	}
	return -1
}

func (m *Model) focusSettingsInput() {
	for i := range m.fieldInputs {
		if i == m.settingsFocus {
			m.fieldInputs[i].Focus()
		} else {
			m.fieldInputs[i].Blur()
		}
	}
}

func (m *Model) handleSettingsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editingMapping {
		return m.handleMappingEditKeys(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		return m, m.enterDashboard()
	case "ctrl+s":
		return m, m.saveSettings()
	case "tab", "down":
		m.settingsFocus = (m.settingsFocus + 1) % m.settingsRowCount()
		m.focusSettingsInput()
		return m, nil
	case "shift+tab", "up":
		m.settingsFocus = (m.settingsFocus - 1 + m.settingsRowCount()) % m.settingsRowCount()
		m.focusSettingsInput()
		return m, nil
	}

	if m.settingsFocus >= fieldCount {
		// Mapping rows: plain letters are safe here, nothing is typing.
		switch msg.String() {
		case "a":
			idx := m.mappings.Add()
			m.settingsFocus = fieldCount + idx
			return m, nil
		case "d":
			if idx := m.focusedMapping(); idx >= 0 {
				m.mappings.Remove(idx)
				if m.settingsFocus >= m.settingsRowCount() {
					m.settingsFocus = m.settingsRowCount() - 1
				}
			}
			return m, nil
		case "enter":
			if idx := m.focusedMapping(); idx >= 0 {
				m.openMappingEditor(idx)
			} else {
				// The add row.
				added := m.mappings.Add()
				m.settingsFocus = fieldCount + added
				m.openMappingEditor(added)
			}
			return m, nil
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.fieldInputs[m.settingsFocus], cmd = m.fieldInputs[m.settingsFocus].Update(msg)
	return m, cmd
}

func (m *Model) openMappingEditor(idx int) {
	entry := m.mappings[idx]
	m.mappingInputs[mapName].SetValue(entry.Name)
	m.mappingInputs[mapActualID].SetValue(entry.ActualID)
	m.mappingInputs[mapArrangements].SetValue(strings.Join(entry.ArrangementIDs, ", "))
	m.mappingInputs[mapName].Focus()
	m.mappingInputs[mapActualID].Blur()
	m.mappingInputs[mapArrangements].Blur()
	m.editingMapping = true
}

func (m *Model) handleMappingEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	focused := 0
	for i := range m.mappingInputs {
		if m.mappingInputs[i].Focused() {
			focused = i
		}
	}

	switch msg.String() {
	case "tab", "shift+tab":
		m.mappingInputs[focused].Blur()
		next := (focused + 1) % len(m.mappingInputs)
		m.mappingInputs[next].Focus()
		return m, nil
	case "enter":
		idx := m.focusedMapping()
		if idx >= 0 {
			m.mappings.SetName(idx, m.mappingInputs[mapName].Value())
			m.mappings.SetActualID(idx, m.mappingInputs[mapActualID].Value())
			m.mappings.SetArrangementIDs(idx, splitArrangements(m.mappingInputs[mapArrangements].Value()))
		}
		m.editingMapping = false
		return m, nil
	case "esc":
		m.editingMapping = false
		return m, nil
	}

	var cmd tea.Cmd
	m.mappingInputs[focused], cmd = m.mappingInputs[focused].Update(msg)
	return m, cmd
}

// splitArrangements parses the comma separated arrangement id field.
func splitArrangements(value string) []string {
	parts := strings.Split(value, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
