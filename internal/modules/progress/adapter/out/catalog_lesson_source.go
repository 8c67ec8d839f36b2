package out

import (
	"context"

	catalogdto "mathbot/internal/modules/catalog/dto"
	catalogin "mathbot/internal/modules/catalog/port/in"
	"mathbot/internal/modules/progress/domain"
	progressout "mathbot/internal/modules/progress/port/out"
	"mathbot/internal/platform/id"
)

// CatalogLessonSource reads whatever lesson index the catalog has published.
// It never triggers a load.
type CatalogLessonSource struct {
	catalog catalogin.Usecase
}

func NewCatalogLessonSource(catalog catalogin.Usecase) progressout.LessonSource {
	return &CatalogLessonSource{catalog: catalog}
}

func (s *CatalogLessonSource) Lessons(ctx context.Context) []domain.LessonRef {
	lessons := s.catalog.ListLessons(ctx)
	out := make([]domain.LessonRef, 0, len(lessons))
	for _, lesson := range lessons {
		out = append(out, toRef(lesson))
	}
	return out
}

func (s *CatalogLessonSource) Lesson(ctx context.Context, lessonID id.LessonID) (domain.LessonRef, bool) {
	lesson, err := s.catalog.GetLesson(ctx, lessonID)
	if err != nil {
		return domain.LessonRef{}, false
	}
	return toRef(lesson), true
}

func toRef(lesson catalogdto.Lesson) domain.LessonRef {
	return domain.LessonRef{
		ID:         lesson.ID,
		Nombre:     lesson.Nombre,
		AreaKey:    lesson.AreaKey,
		AreaLabel:  lesson.AreaLabel,
		UnitID:     lesson.UnitID,
		UnitNumero: lesson.UnitNumero,
		UnitTitulo: lesson.UnitTitulo,
	}
}
