package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	progressdto "mathbot/internal/modules/progress/dto"
	"mathbot/internal/ui/theme"
)

const barWidth = 24

type ProgressPort interface {
	Status(ctx context.Context) progressdto.Snapshot
}

type SnapshotLoadedMsg struct {
	Snapshot progressdto.Snapshot
}

type Model struct {
	port     ProgressPort
	snapshot progressdto.Snapshot
	loaded   bool
	view     viewport.Model
	width    int
	height   int
}

func New(port ProgressPort) Model {
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Foreground(theme.Text).Padding(0, 1)
	return Model{port: port, view: vp}
}

func (m Model) Init() tea.Cmd {
	return m.Reload()
}

// Reload recomputes the snapshot in the background.
func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return SnapshotLoadedMsg{}
		}
		return SnapshotLoadedMsg{Snapshot: m.port.Status(context.Background())}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.view.Width = msg.Width
		m.view.Height = msg.Height
		m.view.SetContent(Render(m.snapshot))
	case SnapshotLoadedMsg:
		m.snapshot = msg.Snapshot
		m.loaded = true
		m.view.SetContent(Render(m.snapshot))
	}
	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.loaded {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, theme.Muted.Render("Calculando progreso…"))
	}
	return m.view.View()
}

// Snapshot returns the most recently loaded snapshot.
func (m Model) Snapshot() progressdto.Snapshot {
	return m.snapshot
}

// Render lays out a snapshot as plain dashboard text.
func Render(snap progressdto.Snapshot) string {
	var sb strings.Builder
	t := snap.Totals
	sb.WriteString(theme.Title.Render("Progreso") + "\n\n")
	sb.WriteString(fmt.Sprintf("%s %s %d/%d\n", theme.Muted.Render("lecciones"), theme.Bar(t.LessonsCompleted, t.Lessons, barWidth), t.LessonsCompleted, t.Lessons))
	sb.WriteString(fmt.Sprintf("%s %d  %s %d\n", theme.Muted.Render("unidades completas:"), t.UnitsCompleted, theme.Muted.Render("areas completas:"), t.AreasCompleted))

	streak := theme.Muted.Render("sin racha")
	if snap.Streak.Count > 0 {
		streak = theme.Hot.Render(fmt.Sprintf("%d dias", snap.Streak.Count))
	} else if snap.Streak.LastDate != nil {
		streak = theme.Muted.Render("ultima: " + *snap.Streak.LastDate)
	}
	sb.WriteString(theme.Muted.Render("racha: ") + streak + "\n\n")

	if len(snap.Areas) > 0 {
		sb.WriteString(theme.Title.Render("Areas") + "\n")
		width := 0
		for _, area := range snap.Areas {
			width = max(width, lipgloss.Width(area.Label))
		}
		for _, area := range snap.Areas {
			sb.WriteString(fmt.Sprintf("%-*s %s %d/%d\n", width, area.Label, theme.Bar(area.Completed, area.Total, barWidth), area.Completed, area.Total))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(theme.Title.Render("Estudio") + "\n")
	sb.WriteString(fmt.Sprintf("%s %d min  %s %d min\n", theme.Muted.Render("total:"), snap.Study.TotalMinutes, theme.Muted.Render("semana:"), snap.Study.ThisWeekMinutes))
	peak := 0
	for _, day := range snap.Study.LastSevenDays {
		peak = max(peak, day.Minutes)
	}
	for _, day := range snap.Study.LastSevenDays {
		sb.WriteString(fmt.Sprintf("%s %s %d\n", theme.Muted.Render(day.Day), theme.Bar(day.Minutes, peak, barWidth), day.Minutes))
	}
	if last := snap.Study.LastSession; last != nil {
		sb.WriteString(fmt.Sprintf("\n%s leccion %s, %d min\n", theme.Muted.Render("ultima sesion:"), last.LessonID, last.Minutes))
	}
	return sb.String()
}
