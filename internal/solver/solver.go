// Package solver places teaching assignments onto (day, slot) pairs without double-booking a
// teacher or overfilling a class. It performs no I/O and keeps all working state on the Solver.
package solver

import (
	"sort"
	"time"
)

type candidate struct {
	day         Day
	slotID      string
	periodOrder int
}

// frame tracks one assignment index on the explicit search stack.
type frame struct {
	index      int
	candidates []candidate
	next       int
	placed     bool
	demoted    bool
	mark       int
}

// Solver runs a depth-first placement over a statically ordered assignment list. A Solver is
// single-use and not safe for concurrent use; build one per solve.
type Solver struct {
	order           []Assignment
	slots           []ScheduleSlot
	days            []Day
	blocked         map[string]map[string]struct{}
	capacity        map[string]int
	requireComplete bool
	timeLimit       time.Duration

	teacherBusy map[string]map[Day]map[string]struct{}
	classLoad   map[string]map[Day]map[string]int
	candCache   map[string][]candidate

	entries     []TimetableEntry
	unscheduled []Assignment
	timedOut    bool

	now     func() time.Time
	started time.Time
	result  *SolveResult
}

// New prepares a solver. Inputs are copied; the caller's slices and maps are never mutated.
func New(assignments []Assignment, slots []ScheduleSlot, preferences []TeacherPreference, opts SolveOptions) *Solver {
	order := make([]Assignment, len(assignments))
	copy(order, assignments)
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].ClassAcademicYearID != order[j].ClassAcademicYearID {
			return order[i].ClassAcademicYearID < order[j].ClassAcademicYearID
		}
		return order[i].TeacherID < order[j].TeacherID
	})

	catalogue := make([]ScheduleSlot, len(slots))
	copy(catalogue, slots)

	blocked := make(map[string]map[string]struct{}, len(preferences))
	for _, pref := range preferences {
		set := blocked[pref.TeacherID]
		if set == nil {
			set = make(map[string]struct{}, len(pref.BlockedSlotIDs))
			blocked[pref.TeacherID] = set
		}
		for _, slotID := range pref.BlockedSlotIDs {
			set[slotID] = struct{}{}
		}
	}

	capacity := make(map[string]int, len(opts.ClassMaxConcurrentPerSlot))
	for classID, limit := range opts.ClassMaxConcurrentPerSlot {
		capacity[classID] = limit
	}

	limitMs := DefaultTimeLimitMs
	if opts.TimeLimitMs != nil {
		limitMs = *opts.TimeLimitMs
	}
	if limitMs < 0 {
		limitMs = 0
	}

	s := &Solver{
		order:           order,
		slots:           catalogue,
		days:            resolveDays(opts),
		blocked:         blocked,
		capacity:        capacity,
		requireComplete: opts.RequireComplete,
		timeLimit:       time.Duration(limitMs) * time.Millisecond,
		teacherBusy:     make(map[string]map[Day]map[string]struct{}),
		classLoad:       make(map[string]map[Day]map[string]int),
		candCache:       make(map[string][]candidate),
		entries:         make([]TimetableEntry, 0, len(order)),
		unscheduled:     make([]Assignment, 0),
		now:             time.Now,
	}

	for _, a := range order {
		if _, ok := s.teacherBusy[a.TeacherID]; !ok {
			perDay := make(map[Day]map[string]struct{}, len(s.days))
			for _, day := range s.days {
				perDay[day] = make(map[string]struct{})
			}
			s.teacherBusy[a.TeacherID] = perDay
		}
		if _, ok := s.classLoad[a.ClassAcademicYearID]; !ok {
			perDay := make(map[Day]map[string]int, len(s.days))
			for _, day := range s.days {
				perDay[day] = make(map[string]int)
			}
			s.classLoad[a.ClassAcademicYearID] = perDay
		}
	}
	return s
}

// Days returns the resolved scheduling planes in search order.
func (s *Solver) Days() []Day {
	out := make([]Day, len(s.days))
	copy(out, s.days)
	return out
}

// Solve runs the search. Infeasibility never fails the call: unplaceable assignments, and every
// assignment still pending when the time budget runs out, are reported in Unscheduled. Calling
// Solve again returns the first result.
func (s *Solver) Solve() SolveResult {
	if s.result != nil {
		return *s.result
	}
	s.started = s.now()
	success := s.search()
	if !success {
		s.entries = s.entries[:0]
		s.unscheduled = append(s.unscheduled[:0], s.order...)
	}
	result := SolveResult{
		Success:     success,
		Entries:     s.entries,
		Unscheduled: s.unscheduled,
		TimedOut:    s.timedOut,
		ElapsedMs:   s.now().Sub(s.started).Milliseconds(),
	}
	s.result = &result
	return result
}

// search walks the sorted assignments with an explicit stack. Entering an index checks the time
// budget first; a feasible candidate is placed and the walk descends, a frame that runs out of
// candidates is either demoted to unscheduled or, with RequireComplete, popped so its parent can
// undo and try the next candidate.
func (s *Solver) search() bool {
	stack := make([]frame, 0, len(s.order))
	index := 0
	descend := true
	for {
		if descend {
			if index == len(s.order) {
				return true
			}
			if s.expired() {
				s.timedOut = true
				s.unscheduled = append(s.unscheduled, s.order[index:]...)
				return true
			}
			a := s.order[index]
			stack = append(stack, frame{
				index:      index,
				candidates: s.candidates(a.TeacherID),
				mark:       len(s.unscheduled),
			})
		}

		top := &stack[len(stack)-1]
		a := s.order[top.index]
		if top.placed {
			s.undo(a, top.candidates[top.next-1])
			top.placed = false
		}

		if s.advance(top, a) {
			index = top.index + 1
			descend = true
			continue
		}

		if !s.requireComplete && !top.demoted {
			top.demoted = true
			s.unscheduled = append(s.unscheduled, a)
			index = top.index + 1
			descend = true
			continue
		}

		s.unscheduled = s.unscheduled[:top.mark]
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			return false
		}
		descend = false
	}
}

func (s *Solver) advance(f *frame, a Assignment) bool {
	for f.next < len(f.candidates) {
		c := f.candidates[f.next]
		f.next++
		if s.canPlace(a, c) {
			s.place(a, c)
			f.placed = true
			return true
		}
	}
	return false
}

func (s *Solver) expired() bool {
	return s.now().Sub(s.started) >= s.timeLimit
}

// candidates lists every (day, slot) the teacher has not blocked, earliest period first. The
// list only depends on the teacher so it is built once and shared read-only between frames.
func (s *Solver) candidates(teacherID string) []candidate {
	if cached, ok := s.candCache[teacherID]; ok {
		return cached
	}
	blocked := s.blocked[teacherID]
	result := make([]candidate, 0, len(s.days)*len(s.slots))
	for _, day := range s.days {
		for _, slot := range s.slots {
			if _, skip := blocked[slot.ID]; skip {
				continue
			}
			result = append(result, candidate{day: day, slotID: slot.ID, periodOrder: ParseClock(slot.StartTime)})
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].periodOrder < result[j].periodOrder
	})
	s.candCache[teacherID] = result
	return result
}

func (s *Solver) canPlace(a Assignment, c candidate) bool {
	if _, busy := s.teacherBusy[a.TeacherID][c.day][c.slotID]; busy {
		return false
	}
	return s.classLoad[a.ClassAcademicYearID][c.day][c.slotID] < s.classCapacity(a.ClassAcademicYearID)
}

func (s *Solver) classCapacity(classID string) int {
	if limit, ok := s.capacity[classID]; ok {
		return limit
	}
	return 1
}

func (s *Solver) place(a Assignment, c candidate) {
	s.teacherBusy[a.TeacherID][c.day][c.slotID] = struct{}{}
	s.classLoad[a.ClassAcademicYearID][c.day][c.slotID]++
	s.entries = append(s.entries, TimetableEntry{
		ClassAcademicYearID: a.ClassAcademicYearID,
		SubjectID:           a.SubjectID,
		TeacherID:           a.TeacherID,
		ScheduleSlotID:      c.slotID,
		DayName:             c.day,
		PeriodOrder:         c.periodOrder,
	})
}

func (s *Solver) undo(a Assignment, c candidate) {
	delete(s.teacherBusy[a.TeacherID][c.day], c.slotID)
	load := s.classLoad[a.ClassAcademicYearID][c.day]
	load[c.slotID]--
	if load[c.slotID] <= 0 {
		delete(load, c.slotID)
	}
	s.entries = s.entries[:len(s.entries)-1]
}

func resolveDays(opts SolveOptions) []Day {
	if opts.AllYear {
		return []Day{AllYear}
	}
	seen := make(map[Day]struct{}, len(opts.Days))
	days := make([]Day, 0, len(opts.Days))
	for _, day := range opts.Days {
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	return days
}
