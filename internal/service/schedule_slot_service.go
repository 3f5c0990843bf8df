package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

const slotCatalogueCacheKey = "timetable:slots"

type scheduleSlotRepository interface {
	List(ctx context.Context) ([]models.ScheduleSlot, error)
	FindExisting(ctx context.Context, ids []string) ([]string, error)
}

type slotCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// ScheduleSlotService serves the slot catalogue, caching it in Redis when available.
type ScheduleSlotService struct {
	repo     scheduleSlotRepository
	cache    slotCache
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewScheduleSlotService constructs the service. cache may be nil.
func NewScheduleSlotService(repo scheduleSlotRepository, cache slotCache, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *ScheduleSlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ScheduleSlotService{repo: repo, cache: cache, cacheTTL: cacheTTL, metrics: metrics, logger: logger}
}

// List returns the catalogue ordered by start time.
func (s *ScheduleSlotService) List(ctx context.Context) ([]models.ScheduleSlot, error) {
	if s.cache != nil {
		var cached []models.ScheduleSlot
		hit, err := s.cache.Get(ctx, slotCatalogueCacheKey, &cached)
		if err == nil && hit {
			return cached, nil
		}
	}

	start := time.Now()
	slots, err := s.repo.List(ctx)
	s.metrics.ObserveDBQuery("schedule_slots", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule slots")
	}
	if slots == nil {
		slots = []models.ScheduleSlot{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, slotCatalogueCacheKey, slots, s.cacheTTL); err != nil {
			s.logger.Debug("slot catalogue not cached", zap.Error(err))
		}
	}
	return slots, nil
}

// Refresh drops the cached catalogue and reloads it from the database. Slots are written by the
// school platform, so a cached copy can lag behind until its TTL runs out.
func (s *ScheduleSlotService) Refresh(ctx context.Context) ([]models.ScheduleSlot, error) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, slotCatalogueCacheKey); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to drop cached schedule slots")
		}
	}
	return s.List(ctx)
}

// Missing returns the ids that are not in the catalogue, preserving input order.
func (s *ScheduleSlotService) Missing(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := s.repo.FindExisting(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify schedule slots")
	}
	known := make(map[string]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
