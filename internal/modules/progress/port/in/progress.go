package in

import (
	"context"

	"mathbot/internal/modules/progress/dto"
)

type Usecase interface {
	Open(ctx context.Context, lessonID string) (dto.ChangeOutput, error)
	Complete(ctx context.Context, input dto.MarkInput) (dto.ChangeOutput, error)
	Toggle(ctx context.Context, lessonID string) (dto.ChangeOutput, error)
	IsCompleted(ctx context.Context, lessonID string) (bool, error)
	Snapshot(ctx context.Context) dto.Snapshot
	RecentActivity(ctx context.Context, days int) ([]dto.DayValue, error)
	HandleSignal(ctx context.Context, input dto.SignalInput) (dto.ChangeOutput, error)
	WriteReport(ctx context.Context) (dto.ReportOutput, error)
	Subscribe(fn func(dto.Change)) func()
}
