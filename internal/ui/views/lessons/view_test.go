package lessons

import (
	"context"
	"errors"
	"testing"

	catalogdto "mathbot/internal/modules/catalog/dto"
	"mathbot/internal/platform/id"
)

type stubPort struct {
	lessons []catalogdto.Lesson
	err     error
	queries []string
}

func (s *stubPort) Lessons(context.Context) ([]catalogdto.Lesson, error) { return s.lessons, s.err }

func (s *stubPort) Search(_ context.Context, query string, _ int) ([]catalogdto.Lesson, error) {
	s.queries = append(s.queries, query)
	return s.lessons[:1], s.err
}

func TestReloadFillsListAndMarksCompleted(t *testing.T) {
	t.Parallel()
	port := &stubPort{lessons: []catalogdto.Lesson{
		{ID: "12", Nombre: "Ecuaciones lineales", AreaLabel: "Algebra"},
		{ID: "13", Nombre: "Funciones", AreaLabel: "Algebra"},
	}}
	model := New(port)

	model, _ = model.Update(model.Reload()())
	if model.loading {
		t.Fatalf("model should stop loading after the first result")
	}
	selected, ok := model.SelectedLesson()
	if !ok || selected.ID != "12" {
		t.Fatalf("expected lesson 12 selected, got %#v/%t", selected, ok)
	}

	model.SetCompleted([]id.LessonID{"13"})
	items := model.items()
	if len(items) != 2 || items[0].(lessonItem).done || !items[1].(lessonItem).done {
		t.Fatalf("unexpected completion marks: %#v", items)
	}
}

func TestSearchKeepsQueryAndErrorsKeepPreviousList(t *testing.T) {
	t.Parallel()
	port := &stubPort{lessons: []catalogdto.Lesson{{ID: "1", Nombre: "Limites"}, {ID: "2", Nombre: "Derivadas"}}}
	model := New(port)
	model, _ = model.Update(model.Reload()())

	msg := model.Search("lim")().(LessonsLoadedMsg)
	if msg.Query != "lim" || len(port.queries) != 1 {
		t.Fatalf("unexpected search message %#v", msg)
	}
	model, _ = model.Update(msg)
	if model.query != "lim" || len(model.lessons) != 1 {
		t.Fatalf("expected filtered lessons, got %d for %q", len(model.lessons), model.query)
	}

	model, _ = model.Update(LessonsLoadedMsg{Err: errors.New("offline")})
	if len(model.lessons) != 1 || model.list.Title != "Lecciones: offline" {
		t.Fatalf("error should keep the list, got %d lessons titled %q", len(model.lessons), model.list.Title)
	}
}
