package dto

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-timetable-api/internal/solver"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)

// RegisterTimetableValidations adds the clock and weekday tags used by timetable payloads.
func RegisterTimetableValidations(v *validator.Validate) {
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return solver.IsWeekday(solver.Day(fl.Field().String()))
	})
}

// AssignmentInput is one teaching requirement in an inline solve payload.
type AssignmentInput struct {
	TeacherID           string `json:"teacherId" validate:"required"`
	ClassAcademicYearID string `json:"classAcademicYearId" validate:"required"`
	SubjectID           string `json:"subjectId" validate:"required"`
	TeacherName         string `json:"teacherName,omitempty"`
	ClassName           string `json:"className,omitempty"`
	SubjectName         string `json:"subjectName,omitempty"`
}

// SlotInput is one catalogue period.
type SlotInput struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock"`
}

// PreferenceInput blocks slots for a teacher on every day.
type PreferenceInput struct {
	TeacherID      string   `json:"teacherId" validate:"required"`
	BlockedSlotIDs []string `json:"blockedSlotIds" validate:"omitempty,dive,required"`
}

// SolveOptionsInput mirrors solver.SolveOptions with request validation.
type SolveOptionsInput struct {
	AllYear                   bool           `json:"allYear"`
	Days                      []string       `json:"days" validate:"omitempty,dive,weekday"`
	ClassMaxConcurrentPerSlot map[string]int `json:"classMaxConcurrentPerSlot" validate:"omitempty,dive,keys,required,endkeys,min=1"`
	TimeLimitMs               *int           `json:"timeLimitMs" validate:"omitempty,min=0,max=600000"`
	RequireComplete           bool           `json:"requireComplete"`
}

// SolveTimetableRequest carries everything needed for an inline solve.
type SolveTimetableRequest struct {
	Assignments []AssignmentInput `json:"assignments" validate:"dive"`
	Slots       []SlotInput       `json:"slots" validate:"dive"`
	Preferences []PreferenceInput `json:"preferences" validate:"dive"`
	Options     SolveOptionsInput `json:"options"`
}

// GenerateTimetableRequest solves the stored assignments of the given class academic years.
type GenerateTimetableRequest struct {
	ClassAcademicYearIDs []string          `json:"classAcademicYearIds" validate:"required,min=1,dive,required"`
	Options              SolveOptionsInput `json:"options"`
}

// SolveSummary condenses a result for dashboards and logs.
type SolveSummary struct {
	Assignments int          `json:"assignments"`
	Placed      int          `json:"placed"`
	Unscheduled int          `json:"unscheduled"`
	Days        []solver.Day `json:"days"`
	TimedOut    bool         `json:"timedOut"`
	ElapsedMs   int64        `json:"elapsedMs"`
}

// SolveTimetableResponse is the solver result plus its summary.
type SolveTimetableResponse struct {
	solver.SolveResult
	Summary SolveSummary `json:"summary"`
}

// TimetableRunResponse exposes an asynchronous run.
type TimetableRunResponse struct {
	ID         string                  `json:"id"`
	Status     string                  `json:"status"`
	Result     *SolveTimetableResponse `json:"result,omitempty"`
	Error      *string                 `json:"error,omitempty"`
	CreatedAt  time.Time               `json:"createdAt"`
	UpdatedAt  time.Time               `json:"updatedAt"`
	FinishedAt *time.Time              `json:"finishedAt,omitempty"`
}

// UpsertTeacherPreferenceRequest replaces a teacher's blocked slots.
type UpsertTeacherPreferenceRequest struct {
	BlockedSlotIDs []string `json:"blockedSlotIds" validate:"omitempty,dive,required"`
}

// ToSolver converts validated input to solver options.
func (o SolveOptionsInput) ToSolver() solver.SolveOptions {
	days := make([]solver.Day, 0, len(o.Days))
	for _, day := range o.Days {
		days = append(days, solver.Day(day))
	}
	var capacity map[string]int
	if len(o.ClassMaxConcurrentPerSlot) > 0 {
		capacity = make(map[string]int, len(o.ClassMaxConcurrentPerSlot))
		for classID, limit := range o.ClassMaxConcurrentPerSlot {
			capacity[classID] = limit
		}
	}
	var limit *int
	if o.TimeLimitMs != nil {
		value := *o.TimeLimitMs
		limit = &value
	}
	return solver.SolveOptions{
		AllYear:                   o.AllYear,
		Days:                      days,
		ClassMaxConcurrentPerSlot: capacity,
		TimeLimitMs:               limit,
		RequireComplete:           o.RequireComplete,
	}
}

// ToSolver converts the inline payload into solver inputs.
func (r SolveTimetableRequest) ToSolver() ([]solver.Assignment, []solver.ScheduleSlot, []solver.TeacherPreference) {
	assignments := make([]solver.Assignment, 0, len(r.Assignments))
	for _, a := range r.Assignments {
		assignments = append(assignments, solver.Assignment(a))
	}
	slots := make([]solver.ScheduleSlot, 0, len(r.Slots))
	for _, s := range r.Slots {
		slots = append(slots, solver.ScheduleSlot(s))
	}
	prefs := make([]solver.TeacherPreference, 0, len(r.Preferences))
	for _, p := range r.Preferences {
		prefs = append(prefs, solver.TeacherPreference{TeacherID: p.TeacherID, BlockedSlotIDs: append([]string(nil), p.BlockedSlotIDs...)})
	}
	return assignments, slots, prefs
}

// NewSolveTimetableResponse wraps a result with its summary.
func NewSolveTimetableResponse(result solver.SolveResult, days []solver.Day) SolveTimetableResponse {
	if result.Entries == nil {
		result.Entries = []solver.TimetableEntry{}
	}
	if result.Unscheduled == nil {
		result.Unscheduled = []solver.Assignment{}
	}
	if days == nil {
		days = []solver.Day{}
	}
	return SolveTimetableResponse{
		SolveResult: result,
		Summary: SolveSummary{
			Assignments: len(result.Entries) + len(result.Unscheduled),
			Placed:      len(result.Entries),
			Unscheduled: len(result.Unscheduled),
			Days:        days,
			TimedOut:    result.TimedOut,
			ElapsedMs:   result.ElapsedMs,
		},
	}
}
