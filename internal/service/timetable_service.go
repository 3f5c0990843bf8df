package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/solver"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// Solve modes used as metric labels.
const (
	SolveModeInline   = "inline"
	SolveModeGenerate = "generate"
	SolveModeAsync    = "async"
)

type slotCatalogue interface {
	List(ctx context.Context) ([]models.ScheduleSlot, error)
}

type teacherAssignmentLister interface {
	ListByClassAcademicYears(ctx context.Context, classIDs []string) ([]models.TeacherAssignment, error)
}

type teacherPreferenceLister interface {
	ListByTeachers(ctx context.Context, teacherIDs []string) ([]models.TeacherPreference, error)
}

// TimetableConfig bounds solver usage.
type TimetableConfig struct {
	DefaultTimeLimit time.Duration
	MaxAssignments   int
}

// TimetableService assembles solver inputs and runs the solver.
type TimetableService struct {
	slots       slotCatalogue
	assignments teacherAssignmentLister
	prefs       teacherPreferenceLister
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         TimetableConfig
}

// NewTimetableService wires timetable dependencies.
func NewTimetableService(
	slots slotCatalogue,
	assignments teacherAssignmentLister,
	prefs teacherPreferenceLister,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	dto.RegisterTimetableValidations(validate)
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultTimeLimit <= 0 {
		cfg.DefaultTimeLimit = solver.DefaultTimeLimitMs * time.Millisecond
	}
	return &TimetableService{
		slots:       slots,
		assignments: assignments,
		prefs:       prefs,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// Validate checks a generate payload without running it.
func (s *TimetableService) Validate(req dto.GenerateTimetableRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	return nil
}

// Solve runs the solver over an inline payload.
func (s *TimetableService) Solve(ctx context.Context, req dto.SolveTimetableRequest) (*dto.SolveTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable solve payload")
	}
	assignments, slots, prefs := req.ToSolver()
	return s.solve(ctx, SolveModeInline, assignments, slots, prefs, req.Options.ToSolver())
}

// Generate solves the stored assignments of the requested class academic years.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.SolveTimetableResponse, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}
	return s.generate(ctx, SolveModeGenerate, req.ClassAcademicYearIDs, req.Options.ToSolver())
}

// GenerateForRun replays a stored run request. Params were validated at submission.
func (s *TimetableService) GenerateForRun(ctx context.Context, params models.TimetableRunParams) (*dto.SolveTimetableResponse, error) {
	return s.generate(ctx, SolveModeAsync, params.ClassAcademicYearIDs, params.Options)
}

func (s *TimetableService) generate(ctx context.Context, mode string, classIDs []string, opts solver.SolveOptions) (*dto.SolveTimetableResponse, error) {
	start := time.Now()
	rows, err := s.assignments.ListByClassAcademicYears(ctx, dedupeStrings(classIDs))
	s.metrics.ObserveDBQuery("teacher_assignments", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher assignments")
	}
	if err := s.checkSize(len(rows)); err != nil {
		return nil, err
	}

	slotRows, err := s.slots.List(ctx)
	if err != nil {
		return nil, err
	}

	teacherIDs := make([]string, 0, len(rows))
	assignments := make([]solver.Assignment, 0, len(rows))
	for _, row := range rows {
		teacherIDs = append(teacherIDs, row.TeacherID)
		assignments = append(assignments, solver.Assignment{
			TeacherID:           row.TeacherID,
			ClassAcademicYearID: row.ClassAcademicYearID,
			SubjectID:           row.SubjectID,
		})
	}
	teacherIDs = dedupeStrings(teacherIDs)
	sort.Strings(teacherIDs)

	start = time.Now()
	prefRows, err := s.prefs.ListByTeachers(ctx, teacherIDs)
	s.metrics.ObserveDBQuery("teacher_preferences", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher preferences")
	}

	slots := make([]solver.ScheduleSlot, 0, len(slotRows))
	for _, row := range slotRows {
		slots = append(slots, solver.ScheduleSlot{ID: row.ID, Name: row.Name, StartTime: row.StartTime, EndTime: row.EndTime})
	}
	prefs := make([]solver.TeacherPreference, 0, len(prefRows))
	for _, row := range prefRows {
		prefs = append(prefs, solver.TeacherPreference{TeacherID: row.TeacherID, BlockedSlotIDs: []string(row.BlockedSlotIDs)})
	}

	return s.solve(ctx, mode, assignments, slots, prefs, opts)
}

func (s *TimetableService) solve(ctx context.Context, mode string, assignments []solver.Assignment, slots []solver.ScheduleSlot, prefs []solver.TeacherPreference, opts solver.SolveOptions) (*dto.SolveTimetableResponse, error) {
	if err := s.checkSize(len(assignments)); err != nil {
		return nil, err
	}
	opts.TimeLimitMs = s.timeLimit(ctx, opts.TimeLimitMs)

	started := time.Now()
	sv := solver.New(assignments, slots, prefs, opts)
	result := sv.Solve()
	duration := time.Since(started)

	s.metrics.ObserveSolve(mode, duration, len(result.Entries), len(result.Unscheduled), result.TimedOut, result.Success)

	fields := []zap.Field{
		zap.String("mode", mode),
		zap.Int("assignments", len(assignments)),
		zap.Int("slots", len(slots)),
		zap.Int("placed", len(result.Entries)),
		zap.Int("unscheduled", len(result.Unscheduled)),
		zap.Bool("timed_out", result.TimedOut),
		zap.Bool("success", result.Success),
		zap.Duration("duration", duration),
	}
	if result.TimedOut || !result.Success {
		s.logger.Warn("timetable solve incomplete", fields...)
	} else {
		s.logger.Info("timetable solved", fields...)
	}

	resp := dto.NewSolveTimetableResponse(result, sv.Days())
	return &resp, nil
}

func (s *TimetableService) checkSize(n int) error {
	if s.cfg.MaxAssignments > 0 && n > s.cfg.MaxAssignments {
		return appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("%d assignments exceed the limit of %d", n, s.cfg.MaxAssignments))
	}
	return nil
}

// timeLimit fills in the configured default and never lets the budget outlive the context.
func (s *TimetableService) timeLimit(ctx context.Context, requested *int) *int {
	limit := int(s.cfg.DefaultTimeLimit / time.Millisecond)
	if requested != nil {
		limit = *requested
	}
	if deadline, ok := ctx.Deadline(); ok {
		remaining := int(time.Until(deadline) / time.Millisecond)
		if remaining < 0 {
			remaining = 0
		}
		if remaining < limit {
			limit = remaining
		}
	}
	return &limit
}
