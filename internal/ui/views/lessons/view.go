package lessons

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	catalogdto "mathbot/internal/modules/catalog/dto"
	"mathbot/internal/platform/id"
	"mathbot/internal/ui/theme"
)

type LessonsPort interface {
	Lessons(ctx context.Context) ([]catalogdto.Lesson, error)
	Search(ctx context.Context, query string, limit int) ([]catalogdto.Lesson, error)
}

type LessonsLoadedMsg struct {
	Lessons []catalogdto.Lesson
	Query   string
	Err     error
}

type lessonItem struct {
	lesson catalogdto.Lesson
	done   bool
}

func (i lessonItem) Title() string {
	if i.done {
		return theme.Done.Render("✓ ") + i.lesson.Nombre
	}
	return "  " + i.lesson.Nombre
}

func (i lessonItem) Description() string {
	return fmt.Sprintf("  %s · %s", i.lesson.AreaLabel, i.lesson.UnitTitulo)
}

func (i lessonItem) FilterValue() string {
	return i.lesson.Nombre + " " + i.lesson.UnitTitulo + " " + i.lesson.TopicTitulo
}

type Model struct {
	port      LessonsPort
	list      list.Model
	preview   viewport.Model
	spinner   spinner.Model
	lessons   []catalogdto.Lesson
	completed map[id.LessonID]bool
	query     string
	loading   bool
	width     int
	height    int
}

func New(port LessonsPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Lecciones"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:      port,
		list:      l,
		preview:   vp,
		spinner:   sp,
		completed: map[id.LessonID]bool{},
		loading:   true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

// Reload fetches the full lesson list.
func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return LessonsLoadedMsg{}
		}
		lessons, err := m.port.Lessons(context.Background())
		return LessonsLoadedMsg{Lessons: lessons, Err: err}
	}
}

// Search replaces the list with lessons matching query.
func (m Model) Search(query string) tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return LessonsLoadedMsg{Query: query}
		}
		lessons, err := m.port.Search(context.Background(), query, 50)
		return LessonsLoadedMsg{Lessons: lessons, Query: query, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case LessonsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Lecciones: " + msg.Err.Error()
			return m, nil
		}
		m.lessons = msg.Lessons
		m.query = msg.Query
		m.list.Title = "Lecciones"
		if m.query != "" {
			m.list.Title = fmt.Sprintf("Lecciones: %q", m.query)
		}
		cmds = append(cmds, m.list.SetItems(m.items()))
		m.preview.SetContent(m.renderDetail())

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.loading {
		var lCmd tea.Cmd
		prevIdx := m.list.Index()
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		if m.list.Index() != prevIdx {
			m.preview.SetContent(m.renderDetail())
		}

		var vCmd tea.Cmd
		m.preview, vCmd = m.preview.Update(msg)
		cmds = append(cmds, vCmd)
	}

	return m, tea.Batch(cmds...)
}

// SetCompleted marks the given lessons done and redraws the list.
func (m *Model) SetCompleted(ids []id.LessonID) tea.Cmd {
	m.completed = make(map[id.LessonID]bool, len(ids))
	for _, lessonID := range ids {
		m.completed[lessonID] = true
	}
	m.preview.SetContent(m.renderDetail())
	if m.loading {
		return nil
	}
	return m.list.SetItems(m.items())
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Cargando lecciones…")
	}

	listW := m.width * 5 / 10
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().
		Width(listW).
		Height(m.height).
		Render(m.list.View())

	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(detailW - 2).
		Height(m.height - 2).
		Render(m.preview.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// SelectedLesson returns the lesson under the cursor, if any.
func (m Model) SelectedLesson() (catalogdto.Lesson, bool) {
	if item, ok := m.list.SelectedItem().(lessonItem); ok {
		return item.lesson, true
	}
	return catalogdto.Lesson{}, false
}

// Filtering reports whether the list's search filter is currently active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m *Model) resize() {
	listW := m.width * 5 / 10
	detailW := m.width - listW
	m.list.SetSize(listW, m.height)
	m.preview.Width = detailW - 4
	m.preview.Height = m.height - 4
}

func (m Model) items() []list.Item {
	items := make([]list.Item, len(m.lessons))
	for i, lesson := range m.lessons {
		items[i] = lessonItem{lesson: lesson, done: m.completed[lesson.ID]}
	}
	return items
}

func (m Model) renderDetail() string {
	lesson, ok := m.SelectedLesson()
	if !ok {
		return theme.Muted.Render("Selecciona una leccion")
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(lesson.Nombre) + "\n\n")
	sb.WriteString(theme.Muted.Render("id:     ") + lesson.ID.String() + "\n")
	sb.WriteString(theme.Muted.Render("area:   ") + lesson.AreaLabel + "\n")
	sb.WriteString(theme.Muted.Render("unidad: ") + strings.TrimSpace(lesson.UnitNumero+" "+lesson.UnitTitulo) + "\n")
	sb.WriteString(theme.Muted.Render("tema:   ") + strings.TrimSpace(lesson.TopicNumero+" "+lesson.TopicTitulo) + "\n")
	if m.completed[lesson.ID] {
		sb.WriteString(theme.Muted.Render("estado: ") + theme.Done.Render("completada") + "\n")
	} else {
		sb.WriteString(theme.Muted.Render("estado: ") + "pendiente\n")
	}
	if lesson.Preview != "" {
		sb.WriteString("\n" + lesson.Preview + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("enter: abrir  c: completar/desmarcar"))
	return sb.String()
}
