package solver

// Day identifies a scheduling plane. Real weekdays and the AllYear sentinel share the type so that
// TimetableEntry.DayName keeps a single wire representation.
type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"

	// AllYear replaces every weekday when SolveOptions.AllYear is set.
	AllYear Day = "all_year"
)

// Weekdays lists the real weekday names in calendar order.
var Weekdays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// IsWeekday reports whether d is one of the seven weekday names.
func IsWeekday(d Day) bool {
	for _, day := range Weekdays {
		if day == d {
			return true
		}
	}
	return false
}

// DefaultTimeLimitMs is used when SolveOptions.TimeLimitMs is nil.
const DefaultTimeLimitMs = 10000

// ScheduleSlot is one teaching period shared by every day.
type ScheduleSlot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Assignment is a (teacher, class, subject) requirement waiting for a slot. The name fields are
// display-only.
type Assignment struct {
	TeacherID           string `json:"teacherId"`
	ClassAcademicYearID string `json:"classAcademicYearId"`
	SubjectID           string `json:"subjectId"`
	TeacherName         string `json:"teacherName,omitempty"`
	ClassName           string `json:"className,omitempty"`
	SubjectName         string `json:"subjectName,omitempty"`
}

// TeacherPreference lists the slots a teacher can never take, on any day.
type TeacherPreference struct {
	TeacherID      string   `json:"teacherId"`
	BlockedSlotIDs []string `json:"blockedSlotIds"`
}

// SolveOptions tunes a single solve.
type SolveOptions struct {
	AllYear bool  `json:"allYear"`
	Days    []Day `json:"days"`
	// ClassMaxConcurrentPerSlot caps lessons per (class, day, slot); absent classes get 1.
	ClassMaxConcurrentPerSlot map[string]int `json:"classMaxConcurrentPerSlot"`
	// TimeLimitMs is the wall-clock budget. Nil means DefaultTimeLimitMs, zero or less means no budget at all.
	TimeLimitMs *int `json:"timeLimitMs,omitempty"`
	// RequireComplete turns dead ends into backtracking instead of demoting the assignment.
	RequireComplete bool `json:"requireComplete"`
}

// TimetableEntry is one placed assignment.
type TimetableEntry struct {
	ClassAcademicYearID string `json:"class_academic_year_id"`
	SubjectID           string `json:"subject_id"`
	TeacherID           string `json:"teacher_id"`
	ScheduleSlotID      string `json:"schedule_slot_id"`
	DayName             Day    `json:"day_name"`
	PeriodOrder         int    `json:"period_order"`
}

// SolveResult is everything a caller gets back from Solve.
type SolveResult struct {
	Success     bool             `json:"success"`
	Entries     []TimetableEntry `json:"entries"`
	Unscheduled []Assignment     `json:"unscheduled"`
	TimedOut    bool             `json:"timedOut"`
	ElapsedMs   int64            `json:"elapsedMs"`
}
