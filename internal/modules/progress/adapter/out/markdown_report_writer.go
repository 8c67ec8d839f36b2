package out

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"mathbot/internal/modules/progress/domain"
	progressout "mathbot/internal/modules/progress/port/out"
	"mathbot/internal/platform/clock"
	"mathbot/internal/platform/markdown"
)

const (
	ReportFileName = "progress.md"

	reportBlock = "mathbot:progress"
)

// MarkdownReportWriter keeps a progress note up to date. Only the frontmatter
// keys it owns and the managed block are rewritten.
type MarkdownReportWriter struct {
	path  string
	clock clock.Clock
}

func NewMarkdownReportWriter(dataDir string, clk clock.Clock) progressout.ReportWriter {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &MarkdownReportWriter{path: filepath.Join(dataDir, ReportFileName), clock: clk}
}

func (w *MarkdownReportWriter) Write(_ context.Context, snapshot domain.Snapshot) (string, error) {
	note, err := markdown.Load(w.path, "# Progreso\n")
	if err != nil {
		return "", err
	}

	meta := note.Meta
	meta["type"] = "mathbot-progress"
	meta["updated_at"] = domain.FormatTimestamp(w.clock.Now())
	meta["lessons_total"] = snapshot.Totals.Lessons
	meta["lessons_completed"] = snapshot.Totals.LessonsCompleted
	meta["units_completed"] = snapshot.Totals.UnitsCompleted
	meta["areas_completed"] = snapshot.Totals.AreasCompleted
	meta["streak"] = snapshot.Streak.Count
	if snapshot.Streak.LastDate != nil {
		meta["streak_last_date"] = *snapshot.Streak.LastDate
	} else {
		delete(meta, "streak_last_date")
	}
	meta["total_minutes"] = snapshot.Study.TotalMinutes
	meta["week_minutes"] = snapshot.Study.ThisWeekMinutes

	note.SetBlock(reportBlock, renderReport(snapshot))
	if err := note.Save(w.path); err != nil {
		return "", fmt.Errorf("write progress report: %w", err)
	}
	return w.path, nil
}

func renderReport(snapshot domain.Snapshot) string {
	lines := []string{
		"| Area | Completadas | Total | % |",
		"|---|---:|---:|---:|",
	}
	for _, area := range snapshot.Areas {
		lines = append(lines, fmt.Sprintf("| %s | %d | %d | %d%% |", area.Label, area.Completed, area.Total, percent(area.Completed, area.Total)))
	}
	lines = append(lines, "", "| Dia | Minutos |", "|---|---:|")
	for _, day := range snapshot.Study.LastSevenDays {
		lines = append(lines, fmt.Sprintf("| %s | %d |", day.Day, day.Minutes))
	}
	return strings.Join(lines, "\n")
}

func percent(done, total int) int {
	if total == 0 {
		return 0
	}
	return done * 100 / total
}
