package in

import (
	"context"

	"mathbot/internal/modules/catalog/dto"
)

type Usecase interface {
	Ready(ctx context.Context) (dto.IndexOutput, error)
	Refresh(ctx context.Context) (dto.IndexOutput, error)
	Hydrate(ctx context.Context, input dto.HydrateInput) (dto.IndexOutput, error)
	Status(ctx context.Context) dto.StatusOutput
	ListLessons(ctx context.Context) []dto.Lesson
	ListUnits(ctx context.Context) []dto.Unit
	GetLesson(ctx context.Context, rawID any) (dto.Lesson, error)
	GetUnit(ctx context.Context, rawID any) (dto.Unit, error)
	UnitsByArea(ctx context.Context, areaKey string) []dto.Unit
	AreaSummary(ctx context.Context) []dto.AreaSummary
	Search(ctx context.Context, input dto.SearchInput) ([]dto.Lesson, error)
	Subscribe(fn func(dto.Event)) func()
}
