package in

import (
	"context"

	"mathbot/internal/modules/progress/dto"
	progressin "mathbot/internal/modules/progress/port/in"
)

type CLIHandler struct {
	usecase progressin.Usecase
}

func NewCLIHandler(usecase progressin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Open(ctx context.Context, lessonID string) (dto.ChangeOutput, error) {
	return h.usecase.Open(ctx, lessonID)
}

func (h CLIHandler) Complete(ctx context.Context, lessonID, timestamp string, force bool) (dto.ChangeOutput, error) {
	return h.usecase.Complete(ctx, dto.MarkInput{LessonID: lessonID, Timestamp: timestamp, Force: force})
}

func (h CLIHandler) Uncomplete(ctx context.Context, lessonID string) (dto.ChangeOutput, error) {
	completed := false
	return h.usecase.Complete(ctx, dto.MarkInput{LessonID: lessonID, Completed: &completed})
}

func (h CLIHandler) Toggle(ctx context.Context, lessonID string) (dto.ChangeOutput, error) {
	return h.usecase.Toggle(ctx, lessonID)
}

func (h CLIHandler) Status(ctx context.Context) dto.Snapshot {
	return h.usecase.Snapshot(ctx)
}

func (h CLIHandler) Activity(ctx context.Context, days int) ([]dto.DayValue, error) {
	return h.usecase.RecentActivity(ctx, days)
}

func (h CLIHandler) Report(ctx context.Context) (dto.ReportOutput, error) {
	return h.usecase.WriteReport(ctx)
}
