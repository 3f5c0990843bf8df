package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

const runKeyPrefix = "timetable:run:"

type runCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// RunRepository keeps asynchronous solve runs in Redis. Runs expire after the configured TTL.
type RunRepository struct {
	cache runCache
	ttl   time.Duration
}

// NewRunRepository constructs the repository.
func NewRunRepository(cache runCache, ttl time.Duration) *RunRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RunRepository{cache: cache, ttl: ttl}
}

// Save writes the run and refreshes its expiry.
func (r *RunRepository) Save(ctx context.Context, run *models.TimetableRun) error {
	if err := r.cache.Set(ctx, runKey(run.ID), run, r.ttl); err != nil {
		return fmt.Errorf("save timetable run %s: %w", run.ID, err)
	}
	return nil
}

// FindByID loads a run; expired or unknown runs yield appErrors.ErrNotFound.
func (r *RunRepository) FindByID(ctx context.Context, id string) (*models.TimetableRun, error) {
	var run models.TimetableRun
	if err := r.cache.Get(ctx, runKey(id), &run); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable run not found")
		}
		return nil, fmt.Errorf("load timetable run %s: %w", id, err)
	}
	return &run, nil
}

func runKey(id string) string {
	return runKeyPrefix + id
}
