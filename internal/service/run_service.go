package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

// JobTypeTimetableRun tags queued asynchronous solves.
const JobTypeTimetableRun = "timetable_run"

const markFailedTimeout = 5 * time.Second

type runStore interface {
	Save(ctx context.Context, run *models.TimetableRun) error
	FindByID(ctx context.Context, id string) (*models.TimetableRun, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type runValidator interface {
	Validate(req dto.GenerateTimetableRequest) error
}

type runGenerator interface {
	GenerateForRun(ctx context.Context, params models.TimetableRunParams) (*dto.SolveTimetableResponse, error)
}

// RunService accepts asynchronous generate requests and reports their progress.
type RunService struct {
	store     runStore
	queue     jobDispatcher
	validator runValidator
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewRunService constructs the run service.
func NewRunService(store runStore, queue jobDispatcher, validator runValidator, metrics *MetricsService, logger *zap.Logger) *RunService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunService{
		store:     store,
		queue:     queue,
		validator: validator,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores a pending run and enqueues it for a worker.
func (s *RunService) Submit(ctx context.Context, req dto.GenerateTimetableRequest, actorID string) (*dto.TimetableRunResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	now := s.now()
	run := &models.TimetableRun{
		ID:     uuid.NewString(),
		Status: models.RunStatusPending,
		Params: models.TimetableRunParams{
			ClassAcademicYearIDs: dedupeStrings(req.ClassAcademicYearIDs),
			Options:              req.Options.ToSolver(),
		},
		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable run")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: run.ID, Type: JobTypeTimetableRun}); err != nil {
		msg := "failed to enqueue run"
		run.Status = models.RunStatusFailed
		run.ErrorMessage = &msg
		run.UpdatedAt = s.now()
		run.FinishedAt = &run.UpdatedAt
		if saveErr := s.store.Save(ctx, run); saveErr != nil {
			s.logger.Warn("failed to mark run failed", zap.String("run_id", run.ID), zap.Error(saveErr))
		}
		s.metrics.ObserveRun(string(models.RunStatusFailed))
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "solver queue is full, retry later")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue timetable run")
	}

	s.logger.Info("timetable run queued", zap.String("run_id", run.ID), zap.Strings("classes", run.Params.ClassAcademicYearIDs))
	return toRunResponse(run), nil
}

// Get returns a run by id.
func (s *RunService) Get(ctx context.Context, id string) (*dto.TimetableRunResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable run not found")
	}
	run, err := s.store.FindByID(ctx, id)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable run")
	}
	return toRunResponse(run), nil
}

func toRunResponse(run *models.TimetableRun) *dto.TimetableRunResponse {
	resp := &dto.TimetableRunResponse{
		ID:         run.ID,
		Status:     string(run.Status),
		Error:      run.ErrorMessage,
		CreatedAt:  run.CreatedAt,
		UpdatedAt:  run.UpdatedAt,
		FinishedAt: run.FinishedAt,
	}
	if run.Result != nil {
		result := dto.NewSolveTimetableResponse(*run.Result, run.Days)
		resp.Result = &result
	}
	return resp
}

// RunWorker executes queued runs.
type RunWorker struct {
	store      runStore
	generator  runGenerator
	metrics    *MetricsService
	logger     *zap.Logger
	maxRetries int
	now        func() time.Time
}

// NewRunWorker constructs a worker. maxRetries must match the queue so the final attempt marks the run failed.
func NewRunWorker(store runStore, generator runGenerator, metrics *MetricsService, maxRetries int, logger *zap.Logger) *RunWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RunWorker{
		store:      store,
		generator:  generator,
		metrics:    metrics,
		logger:     logger,
		maxRetries: maxRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes one queued run. Each call builds its own solver so runs never share state.
func (w *RunWorker) Handle(ctx context.Context, job jobs.Job) error {
	run, err := w.store.FindByID(ctx, job.ID)
	if err != nil {
		if appErrors.FromError(err).Status == http.StatusNotFound {
			return jobs.Permanent(err)
		}
		return err
	}
	if run.Status.Terminal() {
		return nil
	}

	run.Status = models.RunStatusRunning
	run.UpdatedAt = w.now()
	if err := w.store.Save(ctx, run); err != nil {
		return err
	}

	resp, err := w.generator.GenerateForRun(ctx, run.Params)
	if err != nil {
		appErr := appErrors.FromError(err)
		// Only server-side failures are worth another attempt.
		retryable := appErr.Status >= http.StatusInternalServerError
		msg := appErr.Message
		run.ErrorMessage = &msg
		run.UpdatedAt = w.now()
		if !retryable || job.Attempt >= w.maxRetries {
			run.Status = models.RunStatusFailed
			finished := run.UpdatedAt
			run.FinishedAt = &finished
			w.metrics.ObserveRun(string(models.RunStatusFailed))
		} else {
			run.Status = models.RunStatusPending
		}
		if saveErr := w.store.Save(ctx, run); saveErr != nil {
			w.logger.Sugar().Warnw("failed to record run failure", "run_id", run.ID, "error", saveErr)
		}
		if !retryable {
			return jobs.Permanent(err)
		}
		return err
	}

	result := resp.SolveResult
	run.Status = models.RunStatusCompleted
	run.Result = &result
	run.Days = resp.Summary.Days
	run.ErrorMessage = nil
	run.UpdatedAt = w.now()
	finished := run.UpdatedAt
	run.FinishedAt = &finished
	if err := w.store.Save(ctx, run); err != nil {
		w.logger.Sugar().Warnw("failed to mark run completed", "run_id", run.ID, "error", err)
		return err
	}
	w.metrics.ObserveRun(string(models.RunStatusCompleted))
	w.logger.Info("timetable run completed",
		zap.String("run_id", run.ID),
		zap.Int("placed", resp.Summary.Placed),
		zap.Int("unscheduled", resp.Summary.Unscheduled),
	)
	return nil
}

// MarkFailed is the queue's drop hook: a run the queue gave up on is moved to FAILED
// unless it already reached a terminal state.
func (w *RunWorker) MarkFailed(job jobs.Job, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), markFailedTimeout)
	defer cancel()

	run, err := w.store.FindByID(ctx, job.ID)
	if err != nil {
		w.logger.Sugar().Warnw("failed to load dropped run", "run_id", job.ID, "error", err)
		return
	}
	if run.Status.Terminal() {
		return
	}

	msg := droppedRunMessage(cause)
	run.Status = models.RunStatusFailed
	run.ErrorMessage = &msg
	run.UpdatedAt = w.now()
	finished := run.UpdatedAt
	run.FinishedAt = &finished
	if err := w.store.Save(ctx, run); err != nil {
		w.logger.Sugar().Warnw("failed to mark dropped run failed", "run_id", run.ID, "error", err)
		return
	}
	w.metrics.ObserveRun(string(models.RunStatusFailed))
	w.logger.Warn("timetable run dropped", zap.String("run_id", run.ID), zap.Int("attempt", job.Attempt), zap.Error(cause))
}

func droppedRunMessage(cause error) string {
	switch {
	case errors.Is(cause, context.Canceled):
		return "run cancelled by shutdown"
	case errors.Is(cause, jobs.ErrQueueFull):
		return "run could not be requeued: queue full"
	}
	var appErr *appErrors.Error
	if errors.As(cause, &appErr) {
		return appErr.Message
	}
	return "run failed"
}
