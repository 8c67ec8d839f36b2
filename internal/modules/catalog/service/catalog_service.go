package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	hclog "github.com/hashicorp/go-hclog"
	"golang.org/x/sync/singleflight"

	"mathbot/internal/modules/catalog/domain"
	catalogout "mathbot/internal/modules/catalog/port/out"
	apperrors "mathbot/internal/platform/errors"
	"mathbot/internal/platform/events"
	"mathbot/internal/platform/logging"
)

type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unloaded"
	}
}

const loadKey = "catalog"

// CatalogService owns the published lesson index. Concurrent Ready calls
// share one in-flight load; every load carries a sequence number and only a
// load newer than the published index may replace it.
type CatalogService struct {
	fetcher   catalogout.Fetcher
	cache     catalogout.RawCache
	projector catalogout.LessonProjector
	logger    hclog.Logger
	events    *events.Emitter[domain.Event]
	group     singleflight.Group

	mu        sync.RWMutex
	index     *domain.Index
	issued    uint64
	published uint64
	inFlight  int
	lastErr   error

	projectMu sync.Mutex
}

func NewCatalogService(fetcher catalogout.Fetcher, cache catalogout.RawCache, projector catalogout.LessonProjector, logger hclog.Logger) *CatalogService {
	logger = logging.OrNull(logger)
	return &CatalogService{
		fetcher:   fetcher,
		cache:     cache,
		projector: projector,
		logger:    logger,
		events:    events.NewEmitter[domain.Event](logger),
	}
}

// Ready returns the published index, loading it first when there is none.
// A caller whose ctx ends stops waiting; the shared load keeps running.
func (s *CatalogService) Ready(ctx context.Context) (domain.Index, error) {
	if idx, ok := s.Index(); ok {
		return idx, nil
	}
	return s.wait(ctx, s.group.DoChan(loadKey, func() (any, error) {
		// A load may have published between the check above and DoChan.
		if idx, ok := s.Index(); ok {
			return idx, nil
		}
		return s.load(context.WithoutCancel(ctx))
	}))
}

// Refresh always starts a new network load. Ready calls issued afterwards
// join this load rather than an older one.
func (s *CatalogService) Refresh(ctx context.Context) (domain.Index, error) {
	s.group.Forget(loadKey)
	return s.wait(ctx, s.group.DoChan(loadKey, func() (any, error) {
		return s.load(context.WithoutCancel(ctx))
	}))
}

// Hydrate publishes a caller-supplied raw unit list as if it had been fetched.
func (s *CatalogService) Hydrate(ctx context.Context, raw []byte) (domain.Index, error) {
	units, err := domain.DecodeUnits(raw)
	if err != nil {
		return domain.Index{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}
	if _, ok := units.([]any); !ok {
		return domain.Index{}, fmt.Errorf("%w: unit list must be an array", apperrors.ErrInvalidInput)
	}
	seq := s.begin()
	s.saveCache(ctx, raw)
	return s.publish(ctx, seq, domain.Normalize(units), "hydrate"), nil
}

func (s *CatalogService) wait(ctx context.Context, ch <-chan singleflight.Result) (domain.Index, error) {
	select {
	case <-ctx.Done():
		return domain.Index{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Index{}, res.Err
		}
		return res.Val.(domain.Index).Clone(), nil
	}
}

func (s *CatalogService) load(ctx context.Context) (domain.Index, error) {
	seq := s.begin()
	s.logger.Debug("loading lesson catalog", "seq", seq)

	raw, units, err := s.fetch(ctx)
	if err == nil {
		s.saveCache(ctx, raw)
		return s.publish(ctx, seq, domain.Normalize(units), "network"), nil
	}
	s.logger.Warn("lesson fetch failed", "error", err)

	units, cacheErr := s.cached(ctx)
	if cacheErr != nil {
		if !errors.Is(cacheErr, apperrors.ErrNotFound) {
			s.logger.Warn("lesson cache read failed", "error", cacheErr)
		}
		failure := fmt.Errorf("%w: %w", apperrors.ErrCatalogUnavailable, err)
		s.fail(failure)
		return domain.Index{}, failure
	}
	return s.publish(ctx, seq, domain.Normalize(units), "cache"), nil
}

func (s *CatalogService) fetch(ctx context.Context) ([]byte, any, error) {
	if s.fetcher == nil {
		return nil, nil, errors.New("lesson fetcher is not configured")
	}
	raw, err := s.fetcher.FetchUnits(ctx)
	if err != nil {
		return nil, nil, err
	}
	units, err := domain.DecodeUnits(raw)
	if err != nil {
		return nil, nil, err
	}
	return raw, units, nil
}

func (s *CatalogService) cached(ctx context.Context) (any, error) {
	if s.cache == nil {
		return nil, apperrors.ErrNotFound
	}
	raw, err := s.cache.Load(ctx)
	if err != nil {
		return nil, err
	}
	units, err := domain.DecodeUnits(raw)
	if err != nil {
		s.logger.Warn("lesson cache corrupt, discarding", "error", err)
		if clearErr := s.cache.Clear(ctx); clearErr != nil {
			s.logger.Warn("lesson cache clear failed", "error", clearErr)
		}
		return nil, apperrors.ErrNotFound
	}
	return units, nil
}

func (s *CatalogService) saveCache(ctx context.Context, raw []byte) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Save(ctx, raw); err != nil {
		s.logger.Warn("lesson cache write failed", "error", err)
	}
}

func (s *CatalogService) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.inFlight++
	return s.issued
}

func (s *CatalogService) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	s.lastErr = err
}

// publish installs idx unless a newer load has already been published, in
// which case the caller receives the newer index instead.
func (s *CatalogService) publish(ctx context.Context, seq uint64, idx domain.Index, source string) domain.Index {
	s.mu.Lock()
	s.inFlight--
	if seq <= s.published && s.index != nil {
		current, published := *s.index, s.published
		s.mu.Unlock()
		s.logger.Debug("discarding stale catalog load", "seq", seq, "published", published)
		return current
	}
	s.index = &idx
	s.published = seq
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Debug("lesson catalog published", "seq", seq, "source", source, "units", idx.Totals.Units, "lessons", idx.Totals.Lessons)
	s.project(ctx, seq, idx)
	s.events.Emit(domain.Event{Reason: domain.ReasonIndexLoaded, Index: idx.Clone()})
	return idx
}

func (s *CatalogService) project(ctx context.Context, seq uint64, idx domain.Index) {
	if s.projector == nil {
		return
	}
	s.projectMu.Lock()
	defer s.projectMu.Unlock()
	s.mu.RLock()
	stale := seq < s.published
	s.mu.RUnlock()
	if stale {
		return
	}
	if err := s.projector.Replace(ctx, idx.Lessons); err != nil {
		s.logger.Warn("lesson search projection failed", "error", err)
	}
}

func (s *CatalogService) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.inFlight > 0:
		return StateLoading
	case s.index != nil:
		return StateLoaded
	case s.lastErr != nil:
		return StateFailed
	default:
		return StateUnloaded
	}
}

// Index returns a copy of the published index.
func (s *CatalogService) Index() (domain.Index, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return domain.Index{}, false
	}
	return s.index.Clone(), true
}

func (s *CatalogService) current() (domain.Index, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return domain.Index{}, false
	}
	return *s.index, true
}

func (s *CatalogService) Lessons() []domain.Lesson {
	idx, _ := s.current()
	return idx.LessonList()
}

func (s *CatalogService) Units() []domain.Unit {
	idx, _ := s.current()
	return idx.UnitList()
}

func (s *CatalogService) LessonByID(raw any) (domain.Lesson, bool) {
	idx, _ := s.current()
	return idx.Lesson(raw)
}

func (s *CatalogService) UnitByID(raw any) (domain.Unit, bool) {
	idx, _ := s.current()
	return idx.Unit(raw)
}

func (s *CatalogService) UnitsByArea(areaKey string) []domain.Unit {
	idx, ok := s.current()
	if !ok {
		return []domain.Unit{}
	}
	return idx.UnitsByArea(areaKey)
}

func (s *CatalogService) AreaSummary() []domain.AreaSummary {
	idx, _ := s.current()
	return idx.AreaList()
}

func (s *CatalogService) Totals() domain.Totals {
	idx, _ := s.current()
	return idx.Totals
}

// Search prefers the projection and falls back to scanning the index.
func (s *CatalogService) Search(ctx context.Context, query string, limit int) []domain.Lesson {
	idx, ok := s.current()
	if !ok {
		return []domain.Lesson{}
	}
	if s.projector == nil {
		return idx.Search(query, limit)
	}
	ids, err := s.projector.Search(ctx, query, limit)
	if err != nil {
		s.logger.Warn("lesson search failed, scanning index", "error", err)
		return idx.Search(query, limit)
	}
	out := make([]domain.Lesson, 0, len(ids))
	for _, lessonID := range ids {
		if lesson, ok := idx.Lesson(lessonID); ok {
			out = append(out, lesson)
		}
	}
	return out
}

// Subscribe registers fn for index-loaded events.
func (s *CatalogService) Subscribe(fn func(domain.Event)) func() {
	return s.events.Subscribe(fn)
}
