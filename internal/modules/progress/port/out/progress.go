package out

import (
	"context"

	"mathbot/internal/modules/progress/domain"
	"mathbot/internal/platform/id"
)

// StateStore persists the serialized progress state. Load reports
// apperrors.ErrNotFound when nothing was saved yet.
type StateStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, raw []byte) error
}

// LessonSource exposes the lessons currently known to the catalog.
type LessonSource interface {
	Lessons(ctx context.Context) []domain.LessonRef
	Lesson(ctx context.Context, lessonID id.LessonID) (domain.LessonRef, bool)
}

// SessionJournal writes a note for each recorded study session and returns its path.
type SessionJournal interface {
	Record(ctx context.Context, session domain.SessionRecord, lesson domain.LessonRef) (string, error)
}

type ReportWriter interface {
	Write(ctx context.Context, snapshot domain.Snapshot) (string, error)
}
