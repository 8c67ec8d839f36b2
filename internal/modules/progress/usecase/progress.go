package usecase

import (
	"context"
	"errors"
	"fmt"

	"mathbot/internal/modules/progress/domain"
	"mathbot/internal/modules/progress/dto"
	progressin "mathbot/internal/modules/progress/port/in"
	progressout "mathbot/internal/modules/progress/port/out"
	"mathbot/internal/modules/progress/service"
	apperrors "mathbot/internal/platform/errors"
	"mathbot/internal/platform/id"
)

const maxActivityDays = 366

type Interactor struct {
	svc    *service.ProgressService
	report progressout.ReportWriter
}

func NewInteractor(svc *service.ProgressService, report progressout.ReportWriter) progressin.Usecase {
	return &Interactor{svc: svc, report: report}
}

func (i *Interactor) Open(ctx context.Context, lessonID string) (dto.ChangeOutput, error) {
	parsed, err := parseLessonID(lessonID)
	if err != nil {
		return dto.ChangeOutput{}, err
	}
	return i.output(parsed, i.svc.TouchLesson(ctx, parsed)), nil
}

func (i *Interactor) Complete(ctx context.Context, input dto.MarkInput) (dto.ChangeOutput, error) {
	parsed, err := parseLessonID(input.LessonID)
	if err != nil {
		return dto.ChangeOutput{}, err
	}
	if input.Timestamp != "" {
		if _, ok := domain.ParseTimestamp(input.Timestamp); !ok {
			return dto.ChangeOutput{}, fmt.Errorf("%w: timestamp %q is not RFC 3339", apperrors.ErrInvalidInput, input.Timestamp)
		}
	}
	changed := i.svc.MarkLesson(ctx, parsed, service.MarkOptions{
		Completed: input.Completed,
		Timestamp: input.Timestamp,
		Force:     input.Force,
	})
	return i.output(parsed, changed), nil
}

func (i *Interactor) Toggle(ctx context.Context, lessonID string) (dto.ChangeOutput, error) {
	parsed, err := parseLessonID(lessonID)
	if err != nil {
		return dto.ChangeOutput{}, err
	}
	return i.output(parsed, i.svc.ToggleLesson(ctx, parsed)), nil
}

func (i *Interactor) IsCompleted(_ context.Context, lessonID string) (bool, error) {
	parsed, err := parseLessonID(lessonID)
	if err != nil {
		return false, err
	}
	return i.svc.IsCompleted(parsed), nil
}

func (i *Interactor) Snapshot(ctx context.Context) dto.Snapshot {
	return toSnapshot(i.svc.Snapshot(ctx))
}

func (i *Interactor) RecentActivity(_ context.Context, days int) ([]dto.DayValue, error) {
	if days > maxActivityDays {
		return nil, fmt.Errorf("%w: days must be at most %d", apperrors.ErrInvalidInput, maxActivityDays)
	}
	values := i.svc.RecentActivity(days)
	out := make([]dto.DayValue, 0, len(values))
	for _, value := range values {
		out = append(out, dto.DayValue(value))
	}
	return out, nil
}

// HandleSignal applies a frontend event. Signals without a lesson id and
// unknown signal types are ignored.
func (i *Interactor) HandleSignal(ctx context.Context, input dto.SignalInput) (dto.ChangeOutput, error) {
	lessonID := id.Lesson(input.LessonID)
	if lessonID.IsZero() {
		return dto.ChangeOutput{}, nil
	}
	switch input.Type {
	case dto.SignalCompleted:
		changed := i.svc.MarkLesson(ctx, lessonID, service.MarkOptions{Completed: input.Completed, Force: true})
		return i.output(lessonID, changed), nil
	case dto.SignalOpened:
		return i.output(lessonID, i.svc.TouchLesson(ctx, lessonID)), nil
	default:
		return dto.ChangeOutput{LessonID: lessonID, Completed: i.svc.IsCompleted(lessonID)}, nil
	}
}

func (i *Interactor) WriteReport(ctx context.Context) (dto.ReportOutput, error) {
	if i.report == nil {
		return dto.ReportOutput{}, errors.New("report writer is not configured")
	}
	path, err := i.report.Write(ctx, i.svc.Snapshot(ctx))
	if err != nil {
		return dto.ReportOutput{}, err
	}
	return dto.ReportOutput{Path: path}, nil
}

func (i *Interactor) Subscribe(fn func(dto.Change)) func() {
	if fn == nil {
		return func() {}
	}
	return i.svc.Subscribe(func(change domain.Change) {
		fn(dto.Change(change))
	})
}

func (i *Interactor) output(lessonID id.LessonID, changed bool) dto.ChangeOutput {
	return dto.ChangeOutput{LessonID: lessonID, Changed: changed, Completed: i.svc.IsCompleted(lessonID)}
}

func parseLessonID(raw string) (id.LessonID, error) {
	lessonID, ok := id.Parse[id.LessonID](raw)
	if !ok {
		return "", fmt.Errorf("%w: lesson id is required", apperrors.ErrInvalidInput)
	}
	return lessonID, nil
}

func toSnapshot(snap domain.Snapshot) dto.Snapshot {
	out := dto.Snapshot{
		CompletedIDs: snap.CompletedIDs,
		Totals:       dto.Totals(snap.Totals),
		Areas:        make([]dto.AreaProgress, 0, len(snap.Areas)),
		Units:        make([]dto.UnitProgress, 0, len(snap.Units)),
		Streak:       dto.Streak(snap.Streak),
		History:      make([]dto.Event, 0, len(snap.History)),
		Study: dto.StudySnapshot{
			TotalMinutes:    snap.Study.TotalMinutes,
			MinutesByDay:    snap.Study.MinutesByDay,
			LastSevenDays:   make([]dto.DayMinutes, 0, len(snap.Study.LastSevenDays)),
			ThisWeekMinutes: snap.Study.ThisWeekMinutes,
			Sessions:        make([]dto.SessionRecord, 0, len(snap.Study.Sessions)),
		},
	}
	for _, area := range snap.Areas {
		out.Areas = append(out.Areas, dto.AreaProgress(area))
	}
	for _, unit := range snap.Units {
		out.Units = append(out.Units, dto.UnitProgress(unit))
	}
	for _, event := range snap.History {
		out.History = append(out.History, dto.Event{Type: string(event.Type), LessonID: event.LessonID, TS: event.TS, Minutes: event.Minutes})
	}
	for _, day := range snap.Study.LastSevenDays {
		out.Study.LastSevenDays = append(out.Study.LastSevenDays, dto.DayMinutes(day))
	}
	for _, session := range snap.Study.Sessions {
		out.Study.Sessions = append(out.Study.Sessions, dto.SessionRecord(session))
	}
	if snap.Study.LastSession != nil {
		last := dto.SessionRecord(*snap.Study.LastSession)
		out.Study.LastSession = &last
	}
	return out
}
