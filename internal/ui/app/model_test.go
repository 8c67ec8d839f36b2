package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	catalogdto "mathbot/internal/modules/catalog/dto"
	progressdto "mathbot/internal/modules/progress/dto"
	"mathbot/internal/platform/id"
)

type fakeCatalog struct {
	lessons   []catalogdto.Lesson
	refreshed int
}

func (f *fakeCatalog) Lessons(context.Context) ([]catalogdto.Lesson, error) { return f.lessons, nil }

func (f *fakeCatalog) Search(_ context.Context, query string, _ int) ([]catalogdto.Lesson, error) {
	var out []catalogdto.Lesson
	for _, lesson := range f.lessons {
		if strings.Contains(strings.ToLower(lesson.Nombre), strings.ToLower(query)) {
			out = append(out, lesson)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Refresh(context.Context) (catalogdto.StatusOutput, error) {
	f.refreshed++
	return catalogdto.StatusOutput{State: "loaded", Totals: catalogdto.Totals{Lessons: len(f.lessons)}}, nil
}

type fakeProgress struct {
	calls []string
}

func (f *fakeProgress) record(verb, lessonID string, completed bool) progressdto.ChangeOutput {
	f.calls = append(f.calls, verb+":"+lessonID)
	return progressdto.ChangeOutput{LessonID: id.Lesson(lessonID), Changed: true, Completed: completed}
}

func (f *fakeProgress) Open(_ context.Context, lessonID string) (progressdto.ChangeOutput, error) {
	return f.record("open", lessonID, false), nil
}

func (f *fakeProgress) Toggle(_ context.Context, lessonID string) (progressdto.ChangeOutput, error) {
	return f.record("toggle", lessonID, true), nil
}

func (f *fakeProgress) Complete(_ context.Context, lessonID, _ string, _ bool) (progressdto.ChangeOutput, error) {
	return f.record("complete", lessonID, true), nil
}

func (f *fakeProgress) Uncomplete(_ context.Context, lessonID string) (progressdto.ChangeOutput, error) {
	return f.record("uncomplete", lessonID, false), nil
}

func (f *fakeProgress) Status(context.Context) progressdto.Snapshot { return progressdto.Snapshot{} }

func (f *fakeProgress) Report(context.Context) (progressdto.ReportOutput, error) {
	return progressdto.ReportOutput{}, errors.New("report writer is not configured")
}

func newTestModel() (Model, *fakeCatalog, *fakeProgress) {
	catalog := &fakeCatalog{lessons: []catalogdto.Lesson{
		{ID: "12", Nombre: "Ecuaciones lineales"},
		{ID: "13", Nombre: "Funciones"},
	}}
	progress := &fakeProgress{}
	return NewModel(catalog, progress), catalog, progress
}

func TestPaletteCommandsReachProgressPort(t *testing.T) {
	t.Parallel()
	model, _, progress := newTestModel()

	for _, input := range []string{"lesson:open 12", "lesson:complete 12", "lesson:uncomplete 13", "lesson:toggle 13"} {
		next, cmd := model.executePalette(input)
		model = next.(Model)
		if cmd == nil {
			t.Fatalf("%q: expected a command", input)
		}
		next, _ = model.Update(cmd())
		model = next.(Model)
	}

	want := []string{"open:12", "complete:12", "uncomplete:13", "toggle:13"}
	if strings.Join(progress.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected calls: %v", progress.calls)
	}
	if model.status != "lesson 13 completed" {
		t.Fatalf("unexpected status %q", model.status)
	}
}

func TestOpenMarksStudyingUntilCompleted(t *testing.T) {
	t.Parallel()
	model, _, _ := newTestModel()

	next, _ := model.Update(progressChangedMsg{verb: "open", out: progressdto.ChangeOutput{LessonID: "12", Changed: true}})
	model = next.(Model)
	if model.studying != "12" {
		t.Fatalf("expected lesson 12 to be studied, got %q", model.studying)
	}
	if !strings.Contains(model.renderStatusBar(), "leccion 12") {
		t.Fatalf("status bar should show the active lesson")
	}

	next, _ = model.Update(progressChangedMsg{verb: "complete", out: progressdto.ChangeOutput{LessonID: "12", Changed: true, Completed: true}})
	model = next.(Model)
	if model.studying != "" {
		t.Fatalf("completion should clear the active lesson, got %q", model.studying)
	}
}

func TestPaletteRejectsMissingTargetsAndUnknownCommands(t *testing.T) {
	t.Parallel()
	model, catalog, _ := newTestModel()

	next, cmd := model.executePalette("lesson:toggle")
	model = next.(Model)
	if cmd != nil || model.status != "no lesson selected" {
		t.Fatalf("expected no-selection status, got %q", model.status)
	}

	next, _ = model.executePalette("lesson:explode 1")
	model = next.(Model)
	if model.status != "unknown command: lesson:explode" {
		t.Fatalf("unexpected status %q", model.status)
	}

	next, cmd = model.executePalette("catalog:refresh")
	model = next.(Model)
	next, _ = model.Update(cmd())
	model = next.(Model)
	if catalog.refreshed != 1 || model.status != "catalog loaded: 2 lessons" {
		t.Fatalf("unexpected refresh outcome: %d %q", catalog.refreshed, model.status)
	}
}

func TestReportFailureSurfacesInStatus(t *testing.T) {
	t.Parallel()
	model, _, _ := newTestModel()

	next, cmd := model.executePalette("progress:report")
	model = next.(Model)
	next, _ = model.Update(cmd())
	model = next.(Model)
	if !strings.HasPrefix(model.status, "report failed:") {
		t.Fatalf("unexpected status %q", model.status)
	}
}

func TestTabCyclesViews(t *testing.T) {
	t.Parallel()
	model, _, _ := newTestModel()

	next, _ := model.Update(tea.KeyMsg{Type: tea.KeyTab})
	model = next.(Model)
	if model.activeTab != tabProgress {
		t.Fatalf("expected progress tab, got %d", model.activeTab)
	}
	next, _ = model.Update(tea.KeyMsg{Type: tea.KeyTab})
	model = next.(Model)
	if model.activeTab != tabLessons {
		t.Fatalf("expected lessons tab, got %d", model.activeTab)
	}
}
