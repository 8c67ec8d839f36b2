package out

import (
	"context"

	"mathbot/internal/modules/catalog/domain"
	"mathbot/internal/platform/id"
)

// Fetcher retrieves the raw unidades list from the lessons API.
type Fetcher interface {
	FetchUnits(ctx context.Context) ([]byte, error)
}

// RawCache keeps the last successfully loaded raw unit list. Load reports
// apperrors.ErrNotFound when nothing was cached yet; Clear drops a payload
// that no longer decodes.
type RawCache interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, raw []byte) error
	Clear(ctx context.Context) error
}

type LessonProjector interface {
	Replace(ctx context.Context, lessons []domain.Lesson) error
	Search(ctx context.Context, query string, limit int) ([]id.LessonID, error)
}
