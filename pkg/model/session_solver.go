package model

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/mberube/schoolplan/pkg/sat"
)

// attendee is the planning unit of Stage A: a single student (weight 1)
// or a formed group (weight = member count). Session-size sums weigh
// each attendee by its member count, so both variants share one
// encoding.
type attendee struct {
	index    int
	weight   int
	students []int
	program  string
}

// SessionPlan is Stage A's output: activated sessions without resources
// plus the per-student timetables they imply.
type SessionPlan struct {
	Status    sat.Status
	Sessions  []CourseSession
	Schedules map[int][]ScheduleEntry
	Stats     SolveStats
}

// SolveStats carries stage diagnostics for logging and failure reports.
type SolveStats struct {
	Variables   int
	Constraints int
	Objective   int
	Elapsed     time.Duration
}

// SessionPlanner builds and solves the session-formation model: every
// required course instance of every attendee lands on exactly one slot,
// attendees never sit in two places at once, a course type repeats at
// most once per attendee per day, and every activated (course, slot)
// session respects the size band.
type SessionPlanner struct {
	solver    sat.Solver
	logger    *zap.Logger
	horizon   Horizon
	band      SizeBand
	strategy  Strategy
	warmStart bool
}

func NewSessionPlanner(solver sat.Solver, logger *zap.Logger, horizon Horizon, band SizeBand, strategy Strategy, warmStart bool) *SessionPlanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionPlanner{
		solver:    solver,
		logger:    logger,
		horizon:   horizon,
		band:      band,
		strategy:  strategy,
		warmStart: warmStart,
	}
}

// planState holds the model under construction plus the lookups the
// constraint builders and the extraction share.
type planState struct {
	model     *sat.Model
	indexer   *varIndexer
	attendees []attendee
	curricula []map[int]int // per attendee: course id -> instance count
	active    [][]int       // [course][slot] activation literal, 0 when unused
	catalog   *Catalog
}

// PlanStudents runs Stage A with one attendee per student.
func (planner *SessionPlanner) PlanStudents(input Input, opts sat.Options) (SessionPlan, error) {
	attendees := lo.Map(input.Students, func(s Student, i int) attendee {
		return attendee{index: i, weight: 1, students: []int{s.Id}, program: s.Program}
	})
	return planner.plan(input, attendees, nil, opts)
}

// PlanGroups runs Stage A with one attendee per formed group. Groups
// must be program-pure; mixed pools plan per student instead.
func (planner *SessionPlanner) PlanGroups(input Input, groups []Group, opts sat.Options) (SessionPlan, error) {
	for _, group := range groups {
		if group.Program == "" {
			return SessionPlan{}, fmt.Errorf("group %q spans programs and cannot be planned as a unit", group.Name)
		}
	}
	attendees := lo.Map(groups, func(g Group, i int) attendee {
		return attendee{index: i, weight: len(g.Students), students: g.Students, program: g.Program}
	})
	return planner.plan(input, attendees, groups, opts)
}

func (planner *SessionPlanner) plan(input Input, attendees []attendee, groups []Group, opts sat.Options) (SessionPlan, error) {
	start := time.Now()
	state, err := planner.buildState(input, attendees)
	if err != nil {
		return SessionPlan{}, err
	}

	planner.buildSlotAssignment(state)
	planner.buildConflictFreedom(state)
	planner.buildDailyRepeatLimit(state)
	planner.buildSessionActivation(state)
	planner.buildSizeBounds(state)
	planner.buildObjective(state)
	if planner.warmStart {
		seedWarmStart(state, planner.horizon)
	}

	planner.logger.Debug("session model built",
		zap.Int("attendees", len(attendees)),
		zap.Int("variables", state.model.Variables()),
		zap.Int("constraints", state.model.Constraints()),
	)

	solution, err := planner.solver.Solve(state.model, opts)
	if err != nil {
		return SessionPlan{}, err
	}

	plan := SessionPlan{
		Status: solution.Status,
		Stats: SolveStats{
			Variables:   state.model.Variables(),
			Constraints: state.model.Constraints(),
			Objective:   solution.Objective,
			Elapsed:     time.Since(start),
		},
	}
	if solution.Status != sat.StatusOptimal && solution.Status != sat.StatusFeasible {
		planner.logger.Info("session formation failed",
			zap.Stringer("status", solution.Status),
			zap.Duration("elapsed", plan.Stats.Elapsed),
		)
		return plan, nil
	}

	plan.Sessions, plan.Schedules = planner.extract(state, solution.Values, groups)
	planner.logger.Info("session formation solved",
		zap.Stringer("status", solution.Status),
		zap.Int("sessions", len(plan.Sessions)),
		zap.Duration("elapsed", plan.Stats.Elapsed),
	)
	return plan, nil
}

func (planner *SessionPlanner) buildState(input Input, attendees []attendee) (*planState, error) {
	catalog := NewCatalog(input.Programs)
	programs := lo.SliceToMap(input.Programs, func(p Program) (string, Program) {
		return p.Name, p
	})

	state := &planState{
		model:     sat.NewModel(),
		indexer:   newVarIndexer(planner.horizon.Slots()),
		attendees: attendees,
		curricula: make([]map[int]int, len(attendees)),
		catalog:   catalog,
	}

	for i, a := range attendees {
		program, ok := programs[a.program]
		if !ok {
			return nil, fmt.Errorf("attendee %v references unknown program %q", i, a.program)
		}
		curriculum := make(map[int]int, len(program.Courses))
		for course, count := range program.Courses {
			courseId, _ := catalog.Id(course)
			curriculum[courseId] = count
			state.indexer.register(i, courseId, count)
		}
		state.curricula[i] = curriculum
	}
	state.model.NewBools(state.indexer.count())
	return state, nil
}

// buildSlotAssignment places every required instance on exactly one slot.
func (planner *SessionPlanner) buildSlotAssignment(state *planState) {
	slots := planner.horizon.Slots()
	for a, curriculum := range state.curricula {
		for course, count := range curriculum {
			for instance := 0; instance < count; instance++ {
				lits := make([]int, slots)
				for slot := 0; slot < slots; slot++ {
					lits[slot] = state.indexer.variable(a, course, instance, slot)
				}
				state.model.AddExactlyOne(lits)
			}
		}
	}
}

// buildConflictFreedom forbids an attendee from sitting in two courses
// during the same slot.
func (planner *SessionPlanner) buildConflictFreedom(state *planState) {
	slots := planner.horizon.Slots()
	for a, curriculum := range state.curricula {
		for slot := 0; slot < slots; slot++ {
			var lits []int
			for course, count := range curriculum {
				for instance := 0; instance < count; instance++ {
					lits = append(lits, state.indexer.variable(a, course, instance, slot))
				}
			}
			state.model.AddAtMostOne(lits)
		}
	}
}

// buildDailyRepeatLimit caps each course type at one instance per
// attendee per day.
func (planner *SessionPlanner) buildDailyRepeatLimit(state *planState) {
	for a, curriculum := range state.curricula {
		for course, count := range curriculum {
			if count < 2 {
				continue
			}
			for day := 0; day < planner.horizon.Days; day++ {
				var lits []int
				for instance := 0; instance < count; instance++ {
					for period := 0; period < planner.horizon.PeriodsPerDay; period++ {
						slot := planner.horizon.Index(TimeSlot{Day: day, Period: period})
						lits = append(lits, state.indexer.variable(a, course, instance, slot))
					}
				}
				state.model.AddAtMostOne(lits)
			}
		}
	}
}

// buildSessionActivation reifies one activation literal per (course,
// slot) pair that any attendee could occupy.
func (planner *SessionPlanner) buildSessionActivation(state *planState) {
	slots := planner.horizon.Slots()
	state.active = make([][]int, state.catalog.Len())
	for course := 0; course < state.catalog.Len(); course++ {
		state.active[course] = make([]int, slots)
		for slot := 0; slot < slots; slot++ {
			lits := planner.occupancyLiterals(state, course, slot)
			if len(lits) == 0 {
				continue
			}
			active := state.model.NewBool()
			state.active[course][slot] = active
			state.model.AddActivation(active, lits)
		}
	}
}

// buildSizeBounds holds every activated session inside the size band.
// The upper bound is unconditional: an inactive session has no
// occupants to bound.
func (planner *SessionPlanner) buildSizeBounds(state *planState) {
	for course := range state.active {
		for slot, active := range state.active[course] {
			if active == 0 {
				continue
			}
			lits := planner.occupancyLiterals(state, course, slot)
			weights := planner.occupancyWeights(state, course, slot)
			state.model.AddAtLeastIf(active, lits, weights, planner.band.Min)
			state.model.AddAtMost(lits, weights, planner.band.Max)
		}
	}
}

// occupancyLiterals lists every variable that puts an attendee into
// (course, slot), one per instance.
func (planner *SessionPlanner) occupancyLiterals(state *planState, course, slot int) []int {
	var lits []int
	for a, curriculum := range state.curricula {
		for instance := 0; instance < curriculum[course]; instance++ {
			lits = append(lits, state.indexer.variable(a, course, instance, slot))
		}
	}
	return lits
}

func (planner *SessionPlanner) occupancyWeights(state *planState, course, slot int) []int {
	var weights []int
	for a, curriculum := range state.curricula {
		for i := 0; i < curriculum[course]; i++ {
			weights = append(weights, state.attendees[a].weight)
		}
	}
	return weights
}

// buildObjective minimizes the number of activated sessions, scaled by
// the strategy's pressure.
func (planner *SessionPlanner) buildObjective(state *planState) {
	weight := planner.strategy.sessionWeight()
	var terms []sat.Term
	for course := range state.active {
		for _, active := range state.active[course] {
			if active != 0 {
				terms = append(terms, sat.Term{Lit: active, Weight: weight})
			}
		}
	}
	state.model.Minimize(terms)
}

// extract reads the assignment back into sessions and per-student
// schedules. Sessions are numbered in (course, slot) order so ids are
// deterministic.
func (planner *SessionPlanner) extract(state *planState, values []bool, groups []Group) ([]CourseSession, map[int][]ScheduleEntry) {
	sessions := make([]CourseSession, 0)
	schedules := make(map[int][]ScheduleEntry)

	for course := range state.active {
		for slot, active := range state.active[course] {
			if active == 0 || !values[active-1] {
				continue
			}
			courseName := state.catalog.Name(course)
			timeSlot := planner.horizon.Slot(slot)
			session := CourseSession{
				Id:      len(sessions),
				Course:  courseName,
				Slot:    timeSlot,
				Teacher: -1,
				Room:    -1,
			}
			for a, curriculum := range state.curricula {
				occupied := false
				for instance := 0; instance < curriculum[course]; instance++ {
					if values[state.indexer.variable(a, course, instance, slot)-1] {
						occupied = true
						break
					}
				}
				if !occupied {
					continue
				}
				session.Students = append(session.Students, state.attendees[a].students...)
				if groups != nil {
					groups[state.attendees[a].index].Schedule[timeSlot] = courseName
				}
			}
			sort.Ints(session.Students)
			for _, studentId := range session.Students {
				schedules[studentId] = append(schedules[studentId], ScheduleEntry{
					Course:  courseName,
					Slot:    timeSlot,
					Session: session.Id,
				})
			}
			sessions = append(sessions, session)
		}
	}
	return sessions, schedules
}

// VerifyPlan replays the Stage A invariants against a finished plan:
// per-student totals match the curriculum, slots never collide, course
// types repeat at most once per day, every session sits inside the
// band, and every session roster agrees with the schedule entries that
// reference it.
func VerifyPlan(plan SessionPlan, input Input, band SizeBand) bool {
	programs := lo.SliceToMap(input.Programs, func(p Program) (string, Program) {
		return p.Name, p
	})

	referencedBy := make(map[int][]int)
	for studentId, entries := range plan.Schedules {
		for _, entry := range entries {
			referencedBy[entry.Session] = append(referencedBy[entry.Session], studentId)
		}
	}

	for _, session := range plan.Sessions {
		if len(session.Students) < band.Min || len(session.Students) > band.Max {
			return false
		}
		// The roster must be exactly the students whose entries point
		// at this session.
		references := referencedBy[session.Id]
		sort.Ints(references)
		if !slices.Equal(session.Students, references) {
			return false
		}
		delete(referencedBy, session.Id)
	}
	// Entries referencing an absent session are orphans.
	if len(referencedBy) > 0 {
		return false
	}

	for _, student := range input.Students {
		entries := plan.Schedules[student.Id]
		program := programs[student.Program]
		if len(entries) != program.TotalInstances() {
			return false
		}

		slots := lo.CountValues(lo.Map(entries, func(e ScheduleEntry, _ int) TimeSlot {
			return e.Slot
		}))
		for _, occurrences := range slots {
			if occurrences > 1 {
				return false
			}
		}

		perCourse := lo.CountValues(lo.Map(entries, func(e ScheduleEntry, _ int) string {
			return e.Course
		}))
		for course, required := range program.Courses {
			if perCourse[course] != required {
				return false
			}
		}

		perCourseDay := lo.CountValues(lo.Map(entries, func(e ScheduleEntry, _ int) [2]any {
			return [2]any{e.Course, e.Slot.Day}
		}))
		for _, occurrences := range perCourseDay {
			if occurrences > 1 {
				return false
			}
		}
	}
	return true
}
