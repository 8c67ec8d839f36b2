package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	catalogdto "mathbot/internal/modules/catalog/dto"
	progressdto "mathbot/internal/modules/progress/dto"
	"mathbot/internal/ui/components"
	"mathbot/internal/ui/theme"
	dashboardview "mathbot/internal/ui/views/dashboard"
	lessonsview "mathbot/internal/ui/views/lessons"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type catalogPort interface {
	Lessons(ctx context.Context) ([]catalogdto.Lesson, error)
	Search(ctx context.Context, query string, limit int) ([]catalogdto.Lesson, error)
	Refresh(ctx context.Context) (catalogdto.StatusOutput, error)
}

type progressPort interface {
	Open(ctx context.Context, lessonID string) (progressdto.ChangeOutput, error)
	Toggle(ctx context.Context, lessonID string) (progressdto.ChangeOutput, error)
	Complete(ctx context.Context, lessonID, timestamp string, force bool) (progressdto.ChangeOutput, error)
	Uncomplete(ctx context.Context, lessonID string) (progressdto.ChangeOutput, error)
	Status(ctx context.Context) progressdto.Snapshot
	Report(ctx context.Context) (progressdto.ReportOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabLessons tabID = iota
	tabProgress
	tabCount
)

var tabLabels = [tabCount]string{"Lecciones", "Progreso"}

// hints must stay in sync with the switch in executePalette.
var paletteHints = []string{
	"lesson:open",
	"lesson:complete [id]",
	"lesson:uncomplete [id]",
	"lesson:toggle [id]",
	"catalog:refresh",
	"catalog:search <query>",
	"catalog:all",
	"progress:report",
}

// ─── async messages ───────────────────────────────────────────────────────────

type progressChangedMsg struct {
	verb string
	out  progressdto.ChangeOutput
	err  error
}

type catalogRefreshedMsg struct {
	status catalogdto.StatusOutput
	err    error
}

type reportWrittenMsg struct {
	out progressdto.ReportOutput
	err error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Open    key.Binding
	Toggle  key.Binding
	Refresh key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open lesson")),
		Toggle:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "toggle completed")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh catalog")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Open, k.Toggle},
		{k.Refresh},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It routes tabs, owns the help overlay
// and command palette, and turns key presses into catalog and progress calls.
type Model struct {
	catalog  catalogPort
	progress progressPort

	lessonsView   lessonsview.Model
	dashboardView dashboardview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	studying  string
	status    string
	width     int
	height    int
}

func NewModel(catalog catalogPort, progress progressPort) Model {
	return Model{
		catalog:       catalog,
		progress:      progress,
		lessonsView:   lessonsview.New(catalog),
		dashboardView: dashboardview.New(progress),
		activeTab:     tabLessons,
		keys:          defaultKeys(),
		help:          help.New(),
		palette:       components.NewPalette(paletteHints...),
		status:        "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.lessonsView.Init(), m.dashboardView.Init())
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case lessonsview.LessonsLoadedMsg:
		var cmd tea.Cmd
		m.lessonsView, cmd = m.lessonsView.Update(msg)
		if msg.Err != nil {
			m.status = "catalog: " + msg.Err.Error()
		}
		return m, tea.Batch(cmd, m.dashboardView.Reload())

	case dashboardview.SnapshotLoadedMsg:
		var cmd tea.Cmd
		m.dashboardView, cmd = m.dashboardView.Update(msg)
		return m, tea.Batch(cmd, m.lessonsView.SetCompleted(msg.Snapshot.CompletedIDs))

	case progressChangedMsg:
		if msg.err != nil {
			m.status = msg.verb + " failed: " + msg.err.Error()
			return m, nil
		}
		m.status = describeChange(msg.verb, msg.out)
		if msg.verb == "open" {
			m.studying = msg.out.LessonID.String()
		} else if msg.out.Completed && m.studying == msg.out.LessonID.String() {
			m.studying = ""
		}
		return m, m.dashboardView.Reload()

	case catalogRefreshedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("catalog %s: %d lessons", msg.status.State, msg.status.Totals.Lessons)
		return m, m.lessonsView.Reload()

	case reportWrittenMsg:
		if msg.err != nil {
			m.status = "report failed: " + msg.err.Error()
		} else {
			m.status = "report written: " + msg.out.Path
		}
		return m, nil

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		// Yield to the lesson list while its filter is open.
		if m.activeTab == tabLessons && m.lessonsView.Filtering() {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			return m, m.palette.Open()
		case "r":
			return m, m.refreshCmd()
		case "enter":
			if lesson, ok := m.lessonsView.SelectedLesson(); ok && m.activeTab == tabLessons {
				return m, m.changeCmd("open", lesson.ID.String())
			}
		case "c":
			if lesson, ok := m.lessonsView.SelectedLesson(); ok && m.activeTab == tabLessons {
				return m, m.changeCmd("toggle", lesson.ID.String())
			}
		}
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabLessons:
		m.lessonsView, tabCmd = m.lessonsView.Update(msg)
	case tabProgress:
		m.dashboardView, tabCmd = m.dashboardView.Update(msg)
	}
	cmds = append(cmds, tabCmd)
	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(1, m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar))

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabProgress:
		content = m.dashboardView.View()
	default:
		content = m.lessonsView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	bar := "mathbot  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.studying != "" {
		left = theme.Hot.Render("● leccion "+m.studying) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	target := ""
	if len(parts) >= 2 {
		target = parts[1]
	} else if lesson, ok := m.lessonsView.SelectedLesson(); ok {
		target = lesson.ID.String()
	}

	switch parts[0] {
	case "lesson:open", "lesson:complete", "lesson:uncomplete", "lesson:toggle":
		if target == "" {
			m.status = "no lesson selected"
			return m, nil
		}
		return m, m.changeCmd(strings.TrimPrefix(parts[0], "lesson:"), target)
	case "catalog:refresh":
		return m, m.refreshCmd()
	case "catalog:search":
		query := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))
		if query == "" {
			m.status = "usage: catalog:search <query>"
			return m, nil
		}
		m.activeTab = tabLessons
		return m, m.lessonsView.Search(query)
	case "catalog:all":
		m.activeTab = tabLessons
		return m, m.lessonsView.Reload()
	case "progress:report":
		return m, m.reportCmd()
	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func describeChange(verb string, out progressdto.ChangeOutput) string {
	if !out.Changed {
		return fmt.Sprintf("lesson %s unchanged", out.LessonID)
	}
	state := "pending"
	if out.Completed {
		state = "completed"
	}
	if verb == "open" {
		return fmt.Sprintf("studying lesson %s", out.LessonID)
	}
	return fmt.Sprintf("lesson %s %s", out.LessonID, state)
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.lessonsView, _ = m.lessonsView.Update(sz)
	m.dashboardView, _ = m.dashboardView.Update(sz)
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) changeCmd(verb, lessonID string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var (
			out progressdto.ChangeOutput
			err error
		)
		switch verb {
		case "open":
			out, err = m.progress.Open(ctx, lessonID)
		case "complete":
			out, err = m.progress.Complete(ctx, lessonID, "", false)
		case "uncomplete":
			out, err = m.progress.Uncomplete(ctx, lessonID)
		default:
			out, err = m.progress.Toggle(ctx, lessonID)
		}
		return progressChangedMsg{verb: verb, out: out, err: err}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		status, err := m.catalog.Refresh(context.Background())
		return catalogRefreshedMsg{status: status, err: err}
	}
}

func (m Model) reportCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.progress.Report(context.Background())
		return reportWrittenMsg{out: out, err: err}
	}
}
