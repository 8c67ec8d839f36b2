package in

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	hclog "github.com/hashicorp/go-hclog"

	"mathbot/internal/modules/catalog/dto"
	catalogin "mathbot/internal/modules/catalog/port/in"
	"mathbot/internal/platform/logging"
)

// SyncScheduler refreshes the catalog on a fixed interval so the offline
// cache stays warm.
type SyncScheduler struct {
	usecase   catalogin.Usecase
	every     time.Duration
	logger    hclog.Logger
	scheduler *gocron.Scheduler
	onResult  func(error)
}

func NewSyncScheduler(usecase catalogin.Usecase, every time.Duration, logger hclog.Logger) *SyncScheduler {
	return &SyncScheduler{
		usecase:   usecase,
		every:     every,
		logger:    logging.OrNull(logger),
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// OnResult registers a callback invoked after every refresh attempt.
func (s *SyncScheduler) OnResult(fn func(error)) {
	s.onResult = fn
}

// Start runs one refresh immediately and then every interval, until ctx ends.
func (s *SyncScheduler) Start(ctx context.Context) error {
	if s.every <= 0 {
		return fmt.Errorf("sync interval must be positive, got %s", s.every)
	}
	if _, err := s.scheduler.Every(s.every).SingletonMode().Do(s.run, ctx); err != nil {
		return fmt.Errorf("schedule catalog sync: %w", err)
	}
	s.scheduler.StartAsync()
	return nil
}

func (s *SyncScheduler) Stop() {
	s.scheduler.Stop()
}

func (s *SyncScheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	status, err := s.refresh(ctx)
	if err != nil {
		s.logger.Warn("catalog sync failed", "error", err)
	} else {
		s.logger.Info("catalog synced", "units", status.Totals.Units, "lessons", status.Totals.Lessons)
	}
	if s.onResult != nil {
		s.onResult(err)
	}
}

func (s *SyncScheduler) refresh(ctx context.Context) (dto.StatusOutput, error) {
	if _, err := s.usecase.Refresh(ctx); err != nil {
		return dto.StatusOutput{}, err
	}
	return s.usecase.Status(ctx), nil
}
