package in

import (
	"context"

	"mathbot/internal/modules/catalog/dto"
	catalogin "mathbot/internal/modules/catalog/port/in"
)

type CLIHandler struct {
	usecase catalogin.Usecase
}

func NewCLIHandler(usecase catalogin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Lessons(ctx context.Context) ([]dto.Lesson, error) {
	if _, err := h.usecase.Ready(ctx); err != nil {
		return nil, err
	}
	return h.usecase.ListLessons(ctx), nil
}

func (h CLIHandler) Units(ctx context.Context, areaKey string) ([]dto.Unit, error) {
	if _, err := h.usecase.Ready(ctx); err != nil {
		return nil, err
	}
	if areaKey != "" {
		return h.usecase.UnitsByArea(ctx, areaKey), nil
	}
	return h.usecase.ListUnits(ctx), nil
}

func (h CLIHandler) Areas(ctx context.Context) ([]dto.AreaSummary, error) {
	if _, err := h.usecase.Ready(ctx); err != nil {
		return nil, err
	}
	return h.usecase.AreaSummary(ctx), nil
}

func (h CLIHandler) Lesson(ctx context.Context, rawID string) (dto.Lesson, error) {
	if _, err := h.usecase.Ready(ctx); err != nil {
		return dto.Lesson{}, err
	}
	return h.usecase.GetLesson(ctx, rawID)
}

func (h CLIHandler) Refresh(ctx context.Context) (dto.StatusOutput, error) {
	if _, err := h.usecase.Refresh(ctx); err != nil {
		return dto.StatusOutput{}, err
	}
	return h.usecase.Status(ctx), nil
}

func (h CLIHandler) Search(ctx context.Context, query string, limit int) ([]dto.Lesson, error) {
	return h.usecase.Search(ctx, dto.SearchInput{Query: query, Limit: limit})
}
