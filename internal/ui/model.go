// Package ui implements the interactive prompt browser
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/dpshade/promptlib/internal/clipboard"
	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/indexer"
	"github.com/dpshade/promptlib/internal/models"
	"github.com/dpshade/promptlib/internal/renderer"
	"github.com/dpshade/promptlib/internal/service"
)

// Commands for async operations
type indexLoadedMsg struct {
	headers []*models.Header
	err     error
}

type promptLoadedMsg struct {
	doc *models.Document
	err error
}

type reindexDoneMsg struct {
	report *indexer.Report
	err    error
}

func loadIndexCmd(svc *service.Service, expr *models.TagExpr) tea.Cmd {
	return func() tea.Msg {
		headers, err := svc.ListPrompts(service.ListFilter{Expr: expr})
		return indexLoadedMsg{headers: headers, err: err}
	}
}

func loadPromptCmd(svc *service.Service, id string) tea.Cmd {
	return func() tea.Msg {
		doc, err := svc.GetPrompt(id)
		return promptLoadedMsg{doc: doc, err: err}
	}
}

func reindexCmd(ctx context.Context, svc *service.Service) tea.Cmd {
	return func() tea.Msg {
		report, err := svc.GenerateIndex(ctx)
		return reindexDoneMsg{report: report, err: err}
	}
}

// ViewMode represents the current view in the TUI
type ViewMode int

const (
	ViewLibrary ViewMode = iota
	ViewPromptDetail
)

// Model represents the TUI application state
type Model struct {
	ctx      context.Context
	service  *service.Service
	viewMode ViewMode

	// UI components
	promptList list.Model
	viewport   viewport.Model
	help       help.Model
	keys       KeyMap

	// Data
	headers  []*models.Header
	expr     *models.TagExpr
	loading  bool
	selected *models.Document

	glamourRenderer *glamour.TermRenderer

	width  int
	height int

	statusMsg     string
	statusType    string
	statusTimeout int
}

// KeyMap defines all key bindings
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Search  key.Binding
	Reindex key.Binding
	Copy    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to show in the mini help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Search, k.Reindex, k.Help, k.Quit}
}

// FullHelp returns keybindings to show in the full help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Back},
		{k.Search, k.Reindex, k.Copy},
		{k.Help, k.Quit},
	}
}

var keys = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "move down"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "view"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "left"),
		key.WithHelp("esc", "back"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	Reindex: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "regenerate index"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy body"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more keys"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// NewModel creates a browser over svc. A non-nil expr limits the list to
// prompts whose tags match it.
func NewModel(ctx context.Context, svc *service.Service, expr *models.TagExpr) (*Model, error) {
	setupStyles()

	l := list.New(nil, list.NewDefaultDelegate(), 80, 20) // resized on first WindowSizeMsg
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	keyMap := list.DefaultKeyMap()
	keyMap.Filter = keys.Search
	l.KeyMap = keyMap

	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()

	r, err := renderer.NewTerminalRenderer(60)
	if err != nil {
		return nil, fmt.Errorf("failed to create glamour renderer: %w", err)
	}

	modelKeys := keys
	modelKeys.Copy.SetEnabled(clipboard.IsClipboardAvailable())

	return &Model{
		ctx:             ctx,
		service:         svc,
		viewMode:        ViewLibrary,
		promptList:      l,
		viewport:        vp,
		help:            help.New(),
		keys:            modelKeys,
		expr:            expr,
		loading:         true,
		glamourRenderer: r,
	}, nil
}

// Init loads the index
func (m Model) Init() tea.Cmd {
	return loadIndexCmd(m.service, m.expr)
}

// tickMsg is sent to clear the status message
type tickMsg time.Time

func clearStatusCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// setStatus shows msg for a few seconds
func (m *Model) setStatus(msg, statusType string) tea.Cmd {
	m.statusMsg = msg
	m.statusType = statusType
	m.statusTimeout = 4
	return clearStatusCmd()
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.statusTimeout > 0 {
			m.statusTimeout--
			if m.statusTimeout == 0 {
				m.statusMsg = ""
				return m, nil
			}
			return m, clearStatusCmd()
		}
		return m, nil

	case indexLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.headers = nil
			m.promptList.SetItems(nil)
			if errors.IsCode(msg.err, errors.ErrCodeIndexNotFound) {
				return m, m.setStatus("No index yet, press r to generate it", "warning")
			}
			return m, m.setStatus(fmt.Sprintf("Error: %v", msg.err), "error")
		}
		m.headers = msg.headers
		items := make([]list.Item, len(msg.headers))
		for i, h := range msg.headers {
			items[i] = h
		}
		return m, m.promptList.SetItems(items)

	case reindexDoneMsg:
		switch {
		case msg.err != nil:
			return m, m.setStatus(fmt.Sprintf("Error: %v", msg.err), "error")
		case msg.report.Failed():
			text := fmt.Sprintf("Index not written: %d problem(s), run validate for details", len(msg.report.Diagnostics))
			return m, m.setStatus(text, "error")
		}
		m.loading = true
		text := fmt.Sprintf("Indexed %d prompts", len(msg.report.Corpus.Valid()))
		return m, tea.Batch(m.setStatus(text, "success"), loadIndexCmd(m.service, m.expr))

	case promptLoadedMsg:
		if msg.err != nil {
			return m, m.setStatus(fmt.Sprintf("Error: %v", msg.err), "error")
		}
		m.selected = msg.doc
		m.viewMode = ViewPromptDetail
		m.resize()
		m.renderPreview()
		m.viewport.GotoTop()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		if m.viewMode == ViewPromptDetail {
			m.renderPreview()
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) && !m.promptList.SettingFilter() {
			return m, tea.Quit
		}
		switch m.viewMode {
		case ViewLibrary:
			return m.updateLibrary(msg)
		case ViewPromptDetail:
			return m.updateDetail(msg)
		}
	}

	if m.viewMode == ViewLibrary {
		var cmd tea.Cmd
		m.promptList, cmd = m.promptList.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateLibrary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// keys belong to the filter input while it is open
	if m.promptList.SettingFilter() {
		var cmd tea.Cmd
		m.promptList, cmd = m.promptList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		if h, ok := m.promptList.SelectedItem().(*models.Header); ok {
			return m, loadPromptCmd(m.service, h.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.Reindex):
		return m, tea.Batch(m.setStatus("Regenerating index...", "info"), reindexCmd(m.ctx, m.service))
	}

	var cmd tea.Cmd
	m.promptList, cmd = m.promptList.Update(msg)
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.viewMode = ViewLibrary
		m.selected = nil
		m.resize()
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Copy):
		if m.selected == nil {
			return m, nil
		}
		status, err := clipboard.CopyWithFallback(m.selected.Body)
		if err != nil {
			return m, m.setStatus(err.Error(), "error")
		}
		return m, m.setStatus(status, "success")
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// resize fits the list and the viewport to the window
func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}

	// title, filter indicator, help and status lines
	reserved := 6
	if m.help.ShowAll {
		reserved += 2
	}
	available := m.height - reserved
	if available < 5 {
		available = 5
	}

	m.promptList.SetSize(m.width-2, available)
	m.help.Width = m.width - 2

	viewportWidth := m.width - 6
	if viewportWidth < 40 {
		viewportWidth = 40
	}
	if viewportWidth != m.viewport.Width {
		if r, err := renderer.NewTerminalRenderer(viewportWidth); err == nil {
			m.glamourRenderer = r
		}
	}
	m.viewport.Width = viewportWidth
	m.viewport.Height = available - 1
}

// renderPreview renders the selected prompt body into the viewport
func (m *Model) renderPreview() {
	if m.selected == nil {
		return
	}
	formatted, err := m.glamourRenderer.Render(m.selected.Body)
	if err != nil {
		formatted = m.selected.Body
	}
	m.viewport.SetContent(formatted)
}

// View renders the current view
func (m Model) View() string {
	var mainView string
	switch m.viewMode {
	case ViewPromptDetail:
		mainView = m.renderPromptDetailView()
	default:
		mainView = m.renderLibraryView()
	}

	if m.statusMsg != "" {
		mainView = lipgloss.JoinVertical(lipgloss.Left, mainView, CreateStatus(m.statusMsg, m.statusType))
	}
	return AddMainPadding(mainView)
}

func (m Model) renderLibraryView() string {
	elements := []string{CreateMainHeader("Prompt Library")}

	if m.expr != nil {
		elements = append(elements, CreateFilterIndicator(m.expr.String(), len(m.headers)))
	}

	switch {
	case m.loading:
		elements = append(elements, StyleInfo.Render("Loading index..."))
	case len(m.headers) == 0:
		elements = append(elements, CreateMetadata("No prompts indexed."))
	default:
		elements = append(elements, m.promptList.View())
	}

	elements = append(elements, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, elements...)
}

func (m Model) renderPromptDetailView() string {
	if m.selected == nil || m.selected.Header == nil {
		return "No prompt selected"
	}
	h := m.selected.Header

	metadata := fmt.Sprintf("ID: %s • Version: %s • Category: %s", h.ID, h.Version, h.Category)
	if h.SubCategory != "" {
		metadata += "/" + h.SubCategory
	}
	if len(h.Tags) > 0 {
		metadata += " • Tags: " + strings.Join(h.Tags, ", ")
	}

	elements := []string{
		CreateMainHeader(h.Title()),
		CreateMetadata(metadata),
	}
	if field := CreateField("Description", h.Summary); field != "" {
		elements = append(elements, field)
	}
	if field := CreateField("File", h.FilePath); field != "" {
		elements = append(elements, field)
	}
	elements = append(elements,
		m.viewport.View(),
		CreateHelp(fmt.Sprintf("c copy • esc back • q quit • %3.f%%", m.viewport.ScrollPercent()*100), m.width),
	)
	return lipgloss.JoinVertical(lipgloss.Left, elements...)
}

// Run starts the browser and blocks until the user quits
func Run(ctx context.Context, svc *service.Service, expr *models.TagExpr) error {
	m, err := NewModel(ctx, svc, expr)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
