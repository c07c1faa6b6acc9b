package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ---------------------------------------------------------------------------
// App constants
// ---------------------------------------------------------------------------

const appName = "Runboard"

// Tab indices
const (
	tabChart    = 0
	tabRuns     = 1
	tabSettings = 2
	tabCount    = 3
)

// ---------------------------------------------------------------------------
// File-picker item (implements list.Item)
// ---------------------------------------------------------------------------

type fileItem struct {
	name string
}

func (f fileItem) Title() string       { return f.name }
func (f fileItem) Description() string { return "" }
func (f fileItem) FilterValue() string { return f.name }

type fileItemDelegate struct{}

func (d fileItemDelegate) Height() int  { return 1 }
func (d fileItemDelegate) Spacing() int { return 0 }
func (d fileItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}
func (d fileItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(fileItem)
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = cursorStyle.Render("> ")
	}
	line := fmt.Sprintf("%s%s", prefix, entry.name)
	fmt.Fprint(w, padRight(line, m.Width()))
}

// ---------------------------------------------------------------------------
// Key bindings
// ---------------------------------------------------------------------------

type keyMap struct {
	Metrics   key.Binding
	Import    key.Binding
	ChartType key.Binding
	Save      key.Binding
	Quit      key.Binding
	UpDown    key.Binding
	Enter     key.Binding
	Close     key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Metrics:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "metrics")),
		Import:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import")),
		ChartType: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "chart type")),
		Save:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save defaults")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		UpDown:    key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("j/k", "navigate")),
		Enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Close:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		NextTab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		PrevTab:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Metrics, k.ChartType, k.UpDown, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.NextTab, k.Metrics, k.ChartType, k.UpDown, k.Quit}}
}

type modalKeyMap struct {
	keyMap
}

func (k modalKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Close, k.UpDown, k.Quit}
}

func (k modalKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Enter, k.Close, k.UpDown, k.Quit}}
}

// ---------------------------------------------------------------------------
// Bubble Tea messages
// ---------------------------------------------------------------------------

type dbReadyMsg struct {
	db         *sql.DB
	experiment experimentRow
	err        error
}

type refreshDoneMsg struct {
	runs []runRow
	keys []string
	err  error
}

type seriesLoadedMsg struct {
	series []metricSeries
	err    error
}

type ingestDoneMsg struct {
	count int
	err   error
	file  string
}

type filesLoadedMsg struct {
	items []list.Item
	err   error
}

type configSavedMsg struct {
	err error
}

// ---------------------------------------------------------------------------
// Model
// ---------------------------------------------------------------------------

type model struct {
	db         *sql.DB
	dbPath     string
	expName    string
	experiment experimentRow

	status    string
	ready     bool
	basePath  string
	activeTab int

	opts   chartOptions
	panel  chartPanel
	series []metricSeries
	runs   []runRow

	showImport bool
	showPicker bool
	fileList   list.Model
	listReady  bool
	picker     *metricPicker

	settings  appSettings
	keys      keyMap
	modalKeys modalKeyMap

	runsCursor int
	runsTop    int
	width      int
	height     int
}

func newModel(dbPath, experimentName string, defaults chartDefaults, settings appSettings) model {
	listModel := list.New([]list.Item{}, fileItemDelegate{}, 0, 0)
	listModel.Title = "Import Metrics"
	listModel.Styles.Title = titleStyle
	listModel.Styles.NoItems = lipgloss.NewStyle()
	listModel.SetShowStatusBar(false)
	listModel.SetFilteringEnabled(false)
	listModel.SetShowHelp(false)
	listModel.DisableQuitKeybindings()

	cwd, _ := os.Getwd()
	return model{
		dbPath:    dbPath,
		expName:   experimentName,
		basePath:  cwd,
		activeTab: tabChart,
		opts:      chartOptionsFromDefaults(defaults),
		fileList:  listModel,
		settings:  settings,
		keys:      newKeyMap(),
		modalKeys: modalKeyMap{keyMap: newKeyMap()},
	}
}

// ---------------------------------------------------------------------------
// Bubble Tea interface: Init / Update / View
// ---------------------------------------------------------------------------

func (m model) Init() tea.Cmd {
	return openDBCmd(m.dbPath, m.expName)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dbReadyMsg:
		return m.handleDBReady(msg)
	case refreshDoneMsg:
		return m.handleRefreshDone(msg)
	case seriesLoadedMsg:
		return m.handleSeriesLoaded(msg)
	case ingestDoneMsg:
		return m.handleIngestDone(msg)
	case filesLoadedMsg:
		return m.handleFilesLoaded(msg)
	case configSavedMsg:
		return m.handleConfigSaved(msg)
	case optionChangedMsg:
		return m.handleOptionChanged(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeList()
		m.ensureCursorInWindow()
		return m, nil
	case tea.KeyMsg:
		switch {
		case m.showPicker:
			return m.updatePicker(msg)
		case m.showImport:
			return m.updateImport(msg)
		default:
			return m.updateMain(msg)
		}
	}
	return m, nil
}

func (m model) View() string {
	status := statusStyle.Render(m.status)

	if !m.ready {
		return status
	}

	header := renderHeader(appName, m.activeTab, m.width)
	statusLine := m.renderStatus(m.status)
	footer := m.renderFooter(m.footerBindings())

	var body string
	switch m.activeTab {
	case tabChart:
		body = m.chartTabView()
	case tabRuns:
		body = m.runsTabView()
	case tabSettings:
		body = m.settingsTabView()
	default:
		body = m.chartTabView()
	}

	main := header + "\n\n" + body

	if m.showImport || m.showPicker {
		return m.composeModal(main, statusLine, footer)
	}
	return m.placeWithFooter(main, statusLine, footer)
}

// ---------------------------------------------------------------------------
// Per-tab views
// ---------------------------------------------------------------------------

func (m model) chartTabView() string {
	panelWidth := 34
	contentWidth := m.sectionContentWidth()
	chartWidth := contentWidth - panelWidth - 3
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := m.chartHeight()

	panel := m.panel.render(m.opts, panelWidth, m.activeTab == tabChart)
	chart := renderChart(m.opts, m.series, chartWidth, chartHeight)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(panelWidth).Render(panel),
		"   ",
		chart,
	)
	title := fmt.Sprintf("Metrics · %s", m.experiment.name)
	return m.renderSection(title, body)
}

func (m model) runsTabView() string {
	content := renderRunsTable(m.runs, m.runsCursor, m.runsTop, m.visibleRows(), m.sectionContentWidth())
	return m.renderSection("Runs", content)
}

func (m model) settingsTabView() string {
	content := renderSettings(m.opts, m.settings, m.dbPath, m.experiment.name)
	return m.renderSection("Settings", content)
}

// ---------------------------------------------------------------------------
// Message handlers (called from Update)
// ---------------------------------------------------------------------------

func (m model) handleDBReady(msg dbReadyMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = fmt.Sprintf("DB error: %v", msg.err)
		m.ready = true
		return m, nil
	}
	m.db = msg.db
	m.experiment = msg.experiment
	return m, refreshCmd(m.db, m.experiment.id)
}

func (m model) handleRefreshDone(msg refreshDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = fmt.Sprintf("DB error: %v", msg.err)
		m.ready = true
		return m, nil
	}
	m.runs = msg.runs
	m.ready = true
	m.runsCursor = 0
	m.runsTop = 0

	m.opts.distinctMetricKeys = msg.keys
	if len(m.opts.selectedMetricKeys) == 0 && len(msg.keys) > 0 {
		m.opts.selectedMetricKeys = msg.keys[:1]
	}
	m.opts = normalizeOptions(m.opts)

	if m.status == "" {
		m.status = "Ready. Press tab to switch views, m to pick metrics."
	}
	return m, loadSeriesCmd(m.db, m.runs, m.opts.selectedMetricKeys)
}

func (m model) handleSeriesLoaded(msg seriesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = fmt.Sprintf("Load series failed: %v", msg.err)
		return m, nil
	}
	m.series = msg.series
	return m, nil
}

func (m model) handleIngestDone(msg ingestDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = fmt.Sprintf("Import failed: %v", msg.err)
		return m, nil
	}
	m.status = fmt.Sprintf("Imported %d metric values from %s", msg.count, msg.file)
	if m.db == nil {
		return m, nil
	}
	return m, refreshCmd(m.db, m.experiment.id)
}

func (m model) handleFilesLoaded(msg filesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = fmt.Sprintf("File scan error: %v", msg.err)
		m.showImport = false
		return m, nil
	}
	m.fileList.SetItems(msg.items)
	m.listReady = true
	return m, nil
}

func (m model) handleConfigSaved(msg configSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = fmt.Sprintf("Save failed: %v", msg.err)
		return m, nil
	}
	m.status = "Defaults saved."
	return m, nil
}

// handleOptionChanged folds the panel's change message into the options.
// Selection changes refetch series data; everything else only re-renders.
func (m model) handleOptionChanged(msg optionChangedMsg) (tea.Model, tea.Cmd) {
	m.opts = applyOptionChange(m.opts, msg)
	if msg.field == fieldSelectedMetrics && m.db != nil {
		return m, loadSeriesCmd(m.db, m.runs, m.opts.selectedMetricKeys)
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// Key-input handlers
// ---------------------------------------------------------------------------

func (m model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		m.activeTab = (m.activeTab + 1) % tabCount
		return m, nil
	case "shift+tab":
		m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		return m, nil
	case "i":
		m.showImport = true
		m.listReady = false
		m.fileList.Select(0)
		return m, loadFilesCmd(m.basePath)
	case "m":
		if m.activeTab == tabChart {
			m.showPicker = true
			m.picker = newMetricPicker(m.opts.distinctMetricKeys, m.opts.selectedMetricKeys)
			return m, nil
		}
	case "s":
		return m, saveConfigCmd(m.opts, m.settings)
	}

	switch m.activeTab {
	case tabChart:
		return m.updateChartKeys(msg)
	case tabRuns:
		return m.updateRunsKeys(msg)
	}
	return m, nil
}

func (m model) updateChartKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	result := m.panel.HandleKey(msg.String(), m.opts)
	switch result.Action {
	case panelActionOpenPicker:
		m.showPicker = true
		m.picker = newMetricPicker(m.opts.distinctMetricKeys, m.opts.selectedMetricKeys)
		return m, nil
	case panelActionChanged:
		return m, optionCmd(result.Change)
	default:
		return m, nil
	}
}

func (m model) updateRunsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k", "ctrl+p":
		if m.runsCursor > 0 {
			m.runsCursor--
			if m.runsCursor < m.runsTop {
				m.runsTop--
			}
			if m.runsTop < 0 {
				m.runsTop = 0
			}
		}
	case "down", "j", "ctrl+n":
		if m.runsCursor < len(m.runs)-1 {
			m.runsCursor++
			visible := m.visibleRows()
			if visible <= 0 {
				visible = 1
			}
			if m.runsCursor >= m.runsTop+visible {
				m.runsTop++
			}
			maxTop := len(m.runs) - visible
			if maxTop < 0 {
				maxTop = 0
			}
			if m.runsTop > maxTop {
				m.runsTop = maxTop
			}
		}
	}
	return m, nil
}

func (m model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	}
	result := m.picker.HandleKey(msg.String())
	switch result.Action {
	case pickerActionSubmitted:
		m.showPicker = false
		m.picker = nil
		return m, optionCmd(optionChangedMsg{field: fieldSelectedMetrics, metricKeys: result.SelectedKeys})
	case pickerActionCancelled:
		m.showPicker = false
		m.picker = nil
		return m, nil
	default:
		return m, nil
	}
}

func (m model) updateImport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showImport = false
		return m, nil
	case "ctrl+c", "q":
		return m, tea.Quit
	case "enter":
		item, ok := m.fileList.SelectedItem().(fileItem)
		if !ok || item.name == "" {
			m.status = "No file selected."
			return m, nil
		}
		if m.db == nil {
			m.status = "Database not ready."
			return m, nil
		}
		m.status = "Importing..."
		m.showImport = false
		return m, ingestCmd(m.db, m.experiment.id, item.name, m.basePath)
	}

	var cmd tea.Cmd
	m.fileList, cmd = m.fileList.Update(msg)
	return m, cmd
}

// ---------------------------------------------------------------------------
// Layout helpers
// ---------------------------------------------------------------------------

func (m model) footerBindings() []key.Binding {
	if m.showImport || m.showPicker {
		return m.modalKeys.ShortHelp()
	}
	return m.keys.ShortHelp()
}

func (m *model) visibleRows() int {
	if m.height == 0 {
		return m.settings.RowsPerPage
	}
	frameV := listBoxStyle.GetVerticalFrameSize()
	headerHeight := 1
	headerGap := 1
	sectionHeaderHeight := 2
	tableHeaderHeight := 1
	scrollIndicator := 1
	available := m.height - 2 - headerHeight - headerGap - frameV - sectionHeaderHeight - tableHeaderHeight - scrollIndicator
	if available < 3 {
		available = 3
	}
	if available > m.settings.RowsPerPage {
		available = m.settings.RowsPerPage
	}
	return available
}

func (m *model) chartHeight() int {
	if m.height == 0 {
		return 16
	}
	frameV := listBoxStyle.GetVerticalFrameSize()
	available := m.height - 2 - 1 - 1 - frameV - 2
	if available < 8 {
		available = 8
	}
	if available > 28 {
		available = 28
	}
	return available
}

func (m *model) sectionContentWidth() int {
	if m.width == 0 {
		return 80
	}
	frameH := listBoxStyle.GetHorizontalFrameSize()
	contentWidth := m.sectionWidth() - frameH
	if contentWidth < 1 {
		contentWidth = 1
	}
	return contentWidth
}

func (m *model) sectionWidth() int {
	if m.width == 0 {
		return 80
	}
	width := m.width - 4
	if width < 20 {
		width = m.width
	}
	return width
}

func (m *model) resizeList() {
	if m.width == 0 || m.height == 0 {
		return
	}
	listWidth := min(70, m.width-6)
	if listWidth < 40 {
		listWidth = 40
	}
	m.fileList.SetWidth(listWidth)
	m.fileList.SetHeight(min(14, m.height-8))
}

func (m *model) ensureCursorInWindow() {
	visible := m.visibleRows()
	if visible <= 0 {
		return
	}
	if m.runsCursor < m.runsTop {
		m.runsTop = m.runsCursor
	} else if m.runsCursor >= m.runsTop+visible {
		m.runsTop = m.runsCursor - visible + 1
	}
	maxTop := len(m.runs) - visible
	if maxTop < 0 {
		maxTop = 0
	}
	if m.runsTop > maxTop {
		m.runsTop = maxTop
	}
	if m.runsTop < 0 {
		m.runsTop = 0
	}
}
