package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"mathbot/internal/modules/progress/domain"
	progressout "mathbot/internal/modules/progress/port/out"
	"mathbot/internal/platform/clock"
	apperrors "mathbot/internal/platform/errors"
	"mathbot/internal/platform/events"
	"mathbot/internal/platform/id"
	"mathbot/internal/platform/logging"
)

// MarkOptions tunes MarkLesson. A nil Completed means true; an empty
// Timestamp means now.
type MarkOptions struct {
	Completed *bool
	Timestamp string
	Force     bool
}

// ProgressService owns the progress state. Every mutation runs under one
// lock (mutate, persist) and listeners are notified after the lock is released.
type ProgressService struct {
	store   progressout.StateStore
	lessons progressout.LessonSource
	journal progressout.SessionJournal
	clock   clock.Clock
	logger  hclog.Logger
	events  *events.Emitter[domain.Change]

	mu    sync.Mutex
	state domain.State
}

// NewProgressService loads the persisted state. A missing or unreadable blob
// starts an empty state; journal and lessons may be nil.
func NewProgressService(ctx context.Context, store progressout.StateStore, lessons progressout.LessonSource, journal progressout.SessionJournal, clk clock.Clock, logger hclog.Logger) *ProgressService {
	logger = logging.OrNull(logger)
	if clk == nil {
		clk = clock.SystemClock{}
	}
	s := &ProgressService{
		store:   store,
		lessons: lessons,
		journal: journal,
		clock:   clk,
		logger:  logger,
		events:  events.NewEmitter[domain.Change](logger),
	}
	s.state = s.load(ctx)
	return s
}

func (s *ProgressService) load(ctx context.Context) domain.State {
	if s.store == nil {
		return domain.NewState()
	}
	raw, err := s.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("progress load failed", "error", err)
		}
		return domain.NewState()
	}
	state, err := domain.DecodeState(raw)
	if err != nil {
		s.logger.Warn("progress state corrupt, starting empty", "error", err)
		return domain.NewState()
	}
	return state
}

// MarkLesson completes or uncompletes a lesson and reports whether the state changed.
func (s *ProgressService) MarkLesson(ctx context.Context, lessonID id.LessonID, opts MarkOptions) bool {
	completed := opts.Completed == nil || *opts.Completed
	ts := s.timestamp(opts.Timestamp)
	return s.mutate(ctx, lessonID, func(state *domain.State, loc *time.Location) (string, *domain.SessionRecord, bool) {
		return mark(state, lessonID, completed, ts, opts.Force, loc)
	}, ts)
}

// ToggleLesson flips the completion of a lesson, forcing a fresh completion timestamp.
func (s *ProgressService) ToggleLesson(ctx context.Context, lessonID id.LessonID) bool {
	ts := s.timestamp("")
	return s.mutate(ctx, lessonID, func(state *domain.State, loc *time.Location) (string, *domain.SessionRecord, bool) {
		return mark(state, lessonID, !state.IsCompleted(lessonID), ts, true, loc)
	}, ts)
}

// TouchLesson records that a lesson was opened now and starts its study interval.
func (s *ProgressService) TouchLesson(ctx context.Context, lessonID id.LessonID) bool {
	ts := s.timestamp("")
	return s.mutate(ctx, lessonID, func(state *domain.State, _ *time.Location) (string, *domain.SessionRecord, bool) {
		state.Open(lessonID, ts)
		return domain.ReasonLessonOpened, nil, true
	}, ts)
}

func mark(state *domain.State, lessonID id.LessonID, completed bool, ts string, force bool, loc *time.Location) (string, *domain.SessionRecord, bool) {
	if completed {
		changed, session := state.Complete(lessonID, ts, force, loc)
		return domain.ReasonLessonCompleted, session, changed
	}
	return domain.ReasonLessonUncompleted, nil, state.Uncomplete(lessonID, ts)
}

type mutation func(state *domain.State, loc *time.Location) (reason string, session *domain.SessionRecord, changed bool)

func (s *ProgressService) mutate(ctx context.Context, lessonID id.LessonID, fn mutation, ts string) bool {
	lessonID = id.Lesson(lessonID)
	if lessonID.IsZero() {
		return false
	}

	s.mu.Lock()
	reason, session, changed := fn(&s.state, s.clock.Now().Location())
	if changed {
		s.persistLocked(ctx)
	}
	s.mu.Unlock()

	if !changed {
		return false
	}
	if session != nil {
		s.recordJournal(ctx, *session)
	}
	s.events.Emit(domain.Change{Reason: reason, LessonID: lessonID, Timestamp: ts})
	return true
}

func (s *ProgressService) persistLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	raw, err := json.Marshal(s.state)
	if err != nil {
		s.logger.Warn("progress encode failed", "error", err)
		return
	}
	if err := s.store.Save(ctx, raw); err != nil {
		s.logger.Warn("progress persist failed", "error", err)
	}
}

func (s *ProgressService) recordJournal(ctx context.Context, session domain.SessionRecord) {
	if s.journal == nil {
		return
	}
	lesson := domain.LessonRef{ID: session.LessonID}
	if s.lessons != nil {
		if ref, ok := s.lessons.Lesson(ctx, session.LessonID); ok {
			lesson = ref
		}
	}
	path, err := s.journal.Record(ctx, session, lesson)
	if err != nil {
		s.logger.Warn("study journal write failed", "lesson", session.LessonID, "error", err)
		return
	}
	s.logger.Debug("study session journaled", "lesson", session.LessonID, "minutes", session.Minutes, "path", path)
}

func (s *ProgressService) timestamp(raw string) string {
	now := s.clock.Now()
	if raw != "" {
		if t, ok := domain.ParseTimestampIn(raw, now.Location()); ok {
			return domain.FormatTimestamp(t)
		}
	}
	return domain.FormatTimestamp(now)
}

func (s *ProgressService) IsCompleted(lessonID id.LessonID) bool {
	lessonID = id.Lesson(lessonID)
	if lessonID.IsZero() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsCompleted(lessonID)
}

// Snapshot aggregates the current state over the lessons the catalog knows now.
func (s *ProgressService) Snapshot(ctx context.Context) domain.Snapshot {
	var lessons []domain.LessonRef
	if s.lessons != nil {
		lessons = s.lessons.Lessons(ctx)
	}
	state := s.State()
	return domain.ComputeSnapshot(state, lessons, s.clock.Now())
}

// RecentActivity counts completions per day over the trailing days.
func (s *ProgressService) RecentActivity(days int) []domain.DayValue {
	s.mu.Lock()
	history := append([]domain.Event(nil), s.state.History...)
	s.mu.Unlock()
	return domain.RecentActivity(history, days, s.clock.Now())
}

// State returns a deep copy of the current state.
func (s *ProgressService) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *ProgressService) Subscribe(fn func(domain.Change)) func() {
	return s.events.Subscribe(fn)
}
