package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/solver"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

type runStoreStub struct {
	mu      sync.Mutex
	runs    map[string]models.TimetableRun
	history []models.RunStatus
	saveErr error
}

func newRunStoreStub() *runStoreStub {
	return &runStoreStub{runs: map[string]models.TimetableRun{}}
}

func (s *runStoreStub) Save(_ context.Context, run *models.TimetableRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.runs[run.ID] = *run
	s.history = append(s.history, run.Status)
	return nil
}

func (s *runStoreStub) FindByID(_ context.Context, id string) (*models.TimetableRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable run not found")
	}
	return &run, nil
}

type dispatcherStub struct {
	jobs []jobs.Job
	err  error
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type runValidatorStub struct{ err error }

func (v runValidatorStub) Validate(dto.GenerateTimetableRequest) error { return v.err }

type runGeneratorStub struct {
	resp   *dto.SolveTimetableResponse
	err    error
	params []models.TimetableRunParams
}

func (g *runGeneratorStub) GenerateForRun(_ context.Context, params models.TimetableRunParams) (*dto.SolveTimetableResponse, error) {
	g.params = append(g.params, params)
	return g.resp, g.err
}

func TestRunServiceSubmitQueuesPendingRun(t *testing.T) {
	store := newRunStoreStub()
	queue := &dispatcherStub{}
	svc := NewRunService(store, queue, runValidatorStub{}, NewMetricsService(), zap.NewNop())

	limit := 500
	resp, err := svc.Submit(context.Background(), dto.GenerateTimetableRequest{
		ClassAcademicYearIDs: []string{"c1", "c2", "c1"},
		Options:              dto.SolveOptionsInput{Days: []string{"monday"}, TimeLimitMs: &limit},
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, string(models.RunStatusPending), resp.Status)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, resp.ID, queue.jobs[0].ID)
	assert.Equal(t, JobTypeTimetableRun, queue.jobs[0].Type)

	stored := store.runs[resp.ID]
	assert.Equal(t, "admin-1", stored.CreatedBy)
	assert.Equal(t, []string{"c1", "c2"}, stored.Params.ClassAcademicYearIDs)
	require.NotNil(t, stored.Params.Options.TimeLimitMs)
	assert.Equal(t, 500, *stored.Params.Options.TimeLimitMs)
}

func TestRunServiceSubmitValidationAndQueueErrors(t *testing.T) {
	svc := NewRunService(newRunStoreStub(), &dispatcherStub{}, runValidatorStub{err: appErrors.Clone(appErrors.ErrValidation, "bad")}, nil, nil)
	_, err := svc.Submit(context.Background(), dto.GenerateTimetableRequest{}, "admin-1")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	store := newRunStoreStub()
	queue := &dispatcherStub{err: fmt.Errorf("queue timetable_runs: %w", jobs.ErrQueueFull)}
	svc = NewRunService(store, queue, runValidatorStub{}, nil, nil)
	_, err = svc.Submit(context.Background(), dto.GenerateTimetableRequest{ClassAcademicYearIDs: []string{"c1"}}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnavailable.Code, appErrors.FromError(err).Code)
	assert.Equal(t, []models.RunStatus{models.RunStatusPending, models.RunStatusFailed}, store.history)

	store = newRunStoreStub()
	store.saveErr = errors.New("redis down")
	svc = NewRunService(store, &dispatcherStub{}, runValidatorStub{}, nil, nil)
	_, err = svc.Submit(context.Background(), dto.GenerateTimetableRequest{ClassAcademicYearIDs: []string{"c1"}}, "admin-1")
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestRunServiceGet(t *testing.T) {
	store := newRunStoreStub()
	svc := NewRunService(store, &dispatcherStub{}, runValidatorStub{}, nil, nil)

	_, err := svc.Get(context.Background(), "not-a-uuid")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), "5f0c7f4e-8c1a-4a53-9d0b-0c3f0b1f3c11")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	created, err := svc.Submit(context.Background(), dto.GenerateTimetableRequest{ClassAcademicYearIDs: []string{"c1"}}, "admin-1")
	require.NoError(t, err)
	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Nil(t, got.Result)
}

func TestRunWorkerCompletesRun(t *testing.T) {
	store := newRunStoreStub()
	store.runs["run-1"] = models.TimetableRun{ID: "run-1", Status: models.RunStatusPending, Params: models.TimetableRunParams{ClassAcademicYearIDs: []string{"c1"}}}
	resp := dto.NewSolveTimetableResponse(solver.SolveResult{
		Success: true,
		Entries: []solver.TimetableEntry{{TeacherID: "t1", ScheduleSlotID: "slot-1", DayName: solver.Monday}},
	}, []solver.Day{solver.Monday})
	generator := &runGeneratorStub{resp: &resp}
	worker := NewRunWorker(store, generator, NewMetricsService(), 1, zap.NewNop())

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "run-1", Type: JobTypeTimetableRun}))

	run := store.runs["run-1"]
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	require.NotNil(t, run.Result)
	assert.Len(t, run.Result.Entries, 1)
	assert.Equal(t, []solver.Day{solver.Monday}, run.Days)
	assert.NotNil(t, run.FinishedAt)
	assert.Equal(t, []models.RunStatus{models.RunStatusRunning, models.RunStatusCompleted}, store.history)

	out := toRunResponse(&run)
	require.NotNil(t, out.Result)
	assert.Equal(t, 1, out.Result.Summary.Placed)

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "run-1"}))
	assert.Len(t, generator.params, 1)
}

func TestRunWorkerRetriesThenFails(t *testing.T) {
	store := newRunStoreStub()
	store.runs["run-1"] = models.TimetableRun{ID: "run-1", Status: models.RunStatusPending, CreatedAt: time.Now()}
	generator := &runGeneratorStub{err: appErrors.Clone(appErrors.ErrInternal, "failed to load teacher assignments")}
	worker := NewRunWorker(store, generator, nil, 1, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "run-1", Attempt: 0})
	require.Error(t, err)
	assert.Equal(t, models.RunStatusPending, store.runs["run-1"].Status)

	err = worker.Handle(context.Background(), jobs.Job{ID: "run-1", Attempt: 1})
	require.Error(t, err)
	run := store.runs["run-1"]
	assert.Equal(t, models.RunStatusFailed, run.Status)
	require.NotNil(t, run.ErrorMessage)
	assert.Equal(t, "failed to load teacher assignments", *run.ErrorMessage)
	assert.NotNil(t, run.FinishedAt)
}

func TestRunWorkerMissingRun(t *testing.T) {
	worker := NewRunWorker(newRunStoreStub(), &runGeneratorStub{}, nil, 0, nil)
	err := worker.Handle(context.Background(), jobs.Job{ID: "gone"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.True(t, jobs.IsPermanent(err))
}

func TestRunWorkerFailsNonRetryableErrorsImmediately(t *testing.T) {
	store := newRunStoreStub()
	store.runs["run-1"] = models.TimetableRun{ID: "run-1", Status: models.RunStatusPending}
	generator := &runGeneratorStub{err: appErrors.Clone(appErrors.ErrPayloadTooLarge, "900 assignments exceed the limit of 500")}
	worker := NewRunWorker(store, generator, nil, 3, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "run-1", Attempt: 0})
	require.Error(t, err)
	assert.True(t, jobs.IsPermanent(err))
	assert.Equal(t, appErrors.ErrPayloadTooLarge.Code, appErrors.FromError(err).Code)

	run := store.runs["run-1"]
	assert.Equal(t, models.RunStatusFailed, run.Status)
	require.NotNil(t, run.ErrorMessage)
	assert.Equal(t, "900 assignments exceed the limit of 500", *run.ErrorMessage)
	assert.NotNil(t, run.FinishedAt)

	store.runs["run-2"] = models.TimetableRun{ID: "run-2", Status: models.RunStatusPending}
	generator.err = appErrors.Clone(appErrors.ErrUnavailable, "database unavailable")
	err = worker.Handle(context.Background(), jobs.Job{ID: "run-2", Attempt: 0})
	require.Error(t, err)
	assert.False(t, jobs.IsPermanent(err))
	assert.Equal(t, models.RunStatusPending, store.runs["run-2"].Status)
}

func TestRunWorkerMarkFailed(t *testing.T) {
	store := newRunStoreStub()
	store.runs["pending"] = models.TimetableRun{ID: "pending", Status: models.RunStatusPending}
	store.runs["running"] = models.TimetableRun{ID: "running", Status: models.RunStatusRunning}
	store.runs["done"] = models.TimetableRun{ID: "done", Status: models.RunStatusCompleted}
	worker := NewRunWorker(store, &runGeneratorStub{}, NewMetricsService(), 1, zap.NewNop())

	worker.MarkFailed(jobs.Job{ID: "pending", Attempt: 1}, fmt.Errorf("requeue: %w", jobs.ErrQueueFull))
	worker.MarkFailed(jobs.Job{ID: "running", Attempt: 1}, context.Canceled)
	worker.MarkFailed(jobs.Job{ID: "done", Attempt: 1}, errors.New("late"))
	worker.MarkFailed(jobs.Job{ID: "missing"}, errors.New("gone"))

	pending := store.runs["pending"]
	assert.Equal(t, models.RunStatusFailed, pending.Status)
	require.NotNil(t, pending.ErrorMessage)
	assert.Equal(t, "run could not be requeued: queue full", *pending.ErrorMessage)
	assert.NotNil(t, pending.FinishedAt)

	running := store.runs["running"]
	assert.Equal(t, models.RunStatusFailed, running.Status)
	require.NotNil(t, running.ErrorMessage)
	assert.Equal(t, "run cancelled by shutdown", *running.ErrorMessage)

	assert.Equal(t, models.RunStatusCompleted, store.runs["done"].Status)
	assert.Len(t, store.history, 2)
}

type blockingGenerator struct {
	release chan struct{}
	started chan string
}

func (g *blockingGenerator) GenerateForRun(ctx context.Context, params models.TimetableRunParams) (*dto.SolveTimetableResponse, error) {
	id := params.ClassAcademicYearIDs[0]
	g.started <- id
	if id == "a" {
		return nil, appErrors.Clone(appErrors.ErrInternal, "failed to load teacher assignments")
	}
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	resp := dto.NewSolveTimetableResponse(solver.SolveResult{Success: true}, []solver.Day{solver.Monday})
	return &resp, nil
}

func (s *runStoreStub) status(id string) models.RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id].Status
}

func TestRunWorkerDroppedRetryReachesTerminalState(t *testing.T) {
	store := newRunStoreStub()
	for _, id := range []string{"a", "b", "c"} {
		store.runs[id] = models.TimetableRun{ID: id, Status: models.RunStatusPending, Params: models.TimetableRunParams{ClassAcademicYearIDs: []string{id}}}
	}
	generator := &blockingGenerator{release: make(chan struct{}), started: make(chan string, 8)}
	worker := NewRunWorker(store, generator, nil, 1, nil)
	queue := jobs.NewQueue("timetable-runs", worker.Handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 1,
		MaxRetries: 1,
		RetryDelay: 50 * time.Millisecond,
		OnDrop:     worker.MarkFailed,
	})
	queue.Start(context.Background())
	defer queue.Stop()
	defer close(generator.release)

	require.NoError(t, queue.Enqueue(jobs.Job{ID: "a", Type: JobTypeTimetableRun}))
	require.Equal(t, "a", <-generator.started)
	require.NoError(t, queue.Enqueue(jobs.Job{ID: "b", Type: JobTypeTimetableRun}))
	require.Equal(t, "b", <-generator.started)
	require.NoError(t, queue.Enqueue(jobs.Job{ID: "c", Type: JobTypeTimetableRun}))

	assert.Eventually(t, func() bool {
		return store.status("a") == models.RunStatusFailed
	}, time.Second, 5*time.Millisecond)

	store.mu.Lock()
	run := store.runs["a"]
	store.mu.Unlock()
	require.NotNil(t, run.ErrorMessage)
	assert.Equal(t, "run could not be requeued: queue full", *run.ErrorMessage)
	assert.NotNil(t, run.FinishedAt)
}
