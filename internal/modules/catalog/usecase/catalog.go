package usecase

import (
	"context"
	"fmt"
	"strings"

	"mathbot/internal/modules/catalog/domain"
	"mathbot/internal/modules/catalog/dto"
	catalogin "mathbot/internal/modules/catalog/port/in"
	"mathbot/internal/modules/catalog/service"
	apperrors "mathbot/internal/platform/errors"
	"mathbot/internal/platform/id"
)

const defaultSearchLimit = 20

type Interactor struct {
	svc *service.CatalogService
}

func NewInteractor(svc *service.CatalogService) catalogin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Ready(ctx context.Context) (dto.IndexOutput, error) {
	idx, err := i.svc.Ready(ctx)
	if err != nil {
		return dto.IndexOutput{}, err
	}
	return toIndexOutput(idx), nil
}

func (i *Interactor) Refresh(ctx context.Context) (dto.IndexOutput, error) {
	idx, err := i.svc.Refresh(ctx)
	if err != nil {
		return dto.IndexOutput{}, err
	}
	return toIndexOutput(idx), nil
}

func (i *Interactor) Hydrate(ctx context.Context, input dto.HydrateInput) (dto.IndexOutput, error) {
	idx, err := i.svc.Hydrate(ctx, input.Units)
	if err != nil {
		return dto.IndexOutput{}, err
	}
	return toIndexOutput(idx), nil
}

func (i *Interactor) Status(_ context.Context) dto.StatusOutput {
	return dto.StatusOutput{State: i.svc.State().String(), Totals: dto.Totals(i.svc.Totals())}
}

func (i *Interactor) ListLessons(_ context.Context) []dto.Lesson {
	return toLessons(i.svc.Lessons())
}

func (i *Interactor) ListUnits(_ context.Context) []dto.Unit {
	return toUnits(i.svc.Units())
}

func (i *Interactor) GetLesson(_ context.Context, rawID any) (dto.Lesson, error) {
	if _, ok := id.Parse[id.LessonID](rawID); !ok {
		return dto.Lesson{}, fmt.Errorf("%w: lesson id is required", apperrors.ErrInvalidInput)
	}
	lesson, ok := i.svc.LessonByID(rawID)
	if !ok {
		return dto.Lesson{}, fmt.Errorf("lesson %v: %w", rawID, apperrors.ErrNotFound)
	}
	return dto.Lesson(lesson), nil
}

func (i *Interactor) GetUnit(_ context.Context, rawID any) (dto.Unit, error) {
	if _, ok := id.Parse[id.UnitID](rawID); !ok {
		return dto.Unit{}, fmt.Errorf("%w: unit id is required", apperrors.ErrInvalidInput)
	}
	unit, ok := i.svc.UnitByID(rawID)
	if !ok {
		return dto.Unit{}, fmt.Errorf("unit %v: %w", rawID, apperrors.ErrNotFound)
	}
	return toUnit(unit), nil
}

func (i *Interactor) UnitsByArea(_ context.Context, areaKey string) []dto.Unit {
	return toUnits(i.svc.UnitsByArea(areaKey))
}

func (i *Interactor) AreaSummary(_ context.Context) []dto.AreaSummary {
	areas := i.svc.AreaSummary()
	out := make([]dto.AreaSummary, 0, len(areas))
	for _, area := range areas {
		out = append(out, dto.AreaSummary(area))
	}
	return out
}

func (i *Interactor) Search(ctx context.Context, input dto.SearchInput) ([]dto.Lesson, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", apperrors.ErrInvalidInput)
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if _, ok := i.svc.Index(); !ok {
		if _, err := i.svc.Ready(ctx); err != nil {
			return nil, err
		}
	}
	return toLessons(i.svc.Search(ctx, query, limit)), nil
}

func (i *Interactor) Subscribe(fn func(dto.Event)) func() {
	if fn == nil {
		return func() {}
	}
	return i.svc.Subscribe(func(event domain.Event) {
		fn(dto.Event{Reason: event.Reason, Data: toIndexOutput(event.Index)})
	})
}

func toIndexOutput(idx domain.Index) dto.IndexOutput {
	out := dto.IndexOutput{
		Units:   toUnits(idx.Units),
		Lessons: toLessons(idx.Lessons),
		Totals:  dto.Totals(idx.Totals),
		Areas:   make([]dto.AreaSummary, 0, len(idx.Areas)),
	}
	for _, area := range idx.Areas {
		out.Areas = append(out.Areas, dto.AreaSummary(area))
	}
	return out
}

func toLessons(lessons []domain.Lesson) []dto.Lesson {
	out := make([]dto.Lesson, 0, len(lessons))
	for _, lesson := range lessons {
		out = append(out, dto.Lesson(lesson))
	}
	return out
}

func toUnits(units []domain.Unit) []dto.Unit {
	out := make([]dto.Unit, 0, len(units))
	for _, unit := range units {
		out = append(out, toUnit(unit))
	}
	return out
}

func toUnit(unit domain.Unit) dto.Unit {
	topics := make([]dto.Topic, 0, len(unit.Topics))
	for _, topic := range unit.Topics {
		topics = append(topics, dto.Topic{
			ID:           topic.ID,
			Numero:       topic.Numero,
			Titulo:       topic.Titulo,
			Lessons:      toLessons(topic.Lessons),
			LessonsCount: topic.LessonsCount,
		})
	}
	return dto.Unit{
		ID:           unit.ID,
		Numero:       unit.Numero,
		Titulo:       unit.Titulo,
		AreaKey:      unit.AreaKey,
		AreaLabel:    unit.AreaLabel,
		Topics:       topics,
		TopicsCount:  unit.TopicsCount,
		LessonsCount: unit.LessonsCount,
	}
}
