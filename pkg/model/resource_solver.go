package model

import (
	"fmt"
	"time"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/mberube/schoolplan/pkg/sat"
)

// ResourcePlan is Stage B's output: the same sessions with teacher and
// room ids filled in.
type ResourcePlan struct {
	Status   sat.Status
	Sessions []CourseSession
	// PreferredMatches counts sessions whose assigned teacher landed in
	// their preferred room.
	PreferredMatches int
	Stats            SolveStats
}

// SlotShortageError reports time slots whose concurrent sessions exceed
// the available teachers or rooms, found by a matching probe before the
// solve is attempted.
type SlotShortageError struct {
	Slot     TimeSlot
	Resource string // "teachers" or "rooms"
	Sessions int
	Supply   int
}

func (e *SlotShortageError) Error() string {
	return fmt.Sprintf(
		"slot (day %v, period %v) holds %v concurrent sessions but only %v %s can serve them",
		e.Slot.Day, e.Slot.Period, e.Sessions, e.Supply, e.Resource,
	)
}

// ResourceAssigner binds exactly one qualified teacher and one
// compatible room to every session, with no double-booking inside a
// slot, maximizing teacher-in-preferred-room placements.
type ResourceAssigner struct {
	solver sat.Solver
	logger *zap.Logger
}

func NewResourceAssigner(solver sat.Solver, logger *zap.Logger) *ResourceAssigner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceAssigner{solver: solver, logger: logger}
}

// Assign resources the sessions. The input slice is not mutated, so
// re-running on the same Stage A output is safe and yields an equally
// feasible assignment.
func (assigner *ResourceAssigner) Assign(sessions []CourseSession, teachers []Teacher, rooms []Classroom, opts sat.Options) (ResourcePlan, error) {
	start := time.Now()

	if err := probeSlots(sessions, teachers, rooms); err != nil {
		return ResourcePlan{}, err
	}

	model := sat.NewModel()

	// teacherVars[s][t] and roomVars[s][r] hold the candidate literals,
	// 0 where the pairing is ruled out up front.
	teacherVars := make([][]int, len(sessions))
	roomVars := make([][]int, len(sessions))
	var affinity []sat.Term

	for s, session := range sessions {
		teacherVars[s] = make([]int, len(teachers))
		candidates := make([]int, 0)
		for t, teacher := range teachers {
			if !teacher.QualifiedFor(session.Course) {
				continue
			}
			variable := model.NewBool()
			teacherVars[s][t] = variable
			candidates = append(candidates, variable)
		}
		model.AddExactlyOne(candidates)

		roomVars[s] = make([]int, len(rooms))
		candidates = candidates[:0]
		for r, room := range rooms {
			if !room.Compatible(session.Course, len(session.Students)) {
				continue
			}
			variable := model.NewBool()
			roomVars[s][r] = variable
			candidates = append(candidates, variable)
		}
		model.AddExactlyOne(candidates)
	}

	// No teacher or room serves two sessions in the same slot.
	bySlot := lo.GroupBy(lo.Range(len(sessions)), func(s int) TimeSlot {
		return sessions[s].Slot
	})
	for _, concurrent := range bySlot {
		for t := range teachers {
			lits := collectCandidates(concurrent, teacherVars, t)
			if len(lits) > 1 {
				model.AddAtMostOne(lits)
			}
		}
		for r := range rooms {
			lits := collectCandidates(concurrent, roomVars, r)
			if len(lits) > 1 {
				model.AddAtMostOne(lits)
			}
		}
	}

	// Affinity: a match literal per (session, teacher with a preference)
	// that fires when the teacher and their preferred room land on the
	// session together. Minimizing the misses maximizes the matches.
	roomIndex := lo.SliceToMap(lo.Range(len(rooms)), func(r int) (int, int) {
		return rooms[r].Id, r
	})
	for s := range sessions {
		for t, teacher := range teachers {
			if teacherVars[s][t] == 0 || teacher.PreferredRoom < 0 {
				continue
			}
			r, ok := roomIndex[teacher.PreferredRoom]
			if !ok || roomVars[s][r] == 0 {
				continue
			}
			match := model.NewBool()
			model.AddBoolAnd(match, teacherVars[s][t], roomVars[s][r])
			affinity = append(affinity, sat.Term{Lit: -match, Weight: 1})
		}
	}
	model.Minimize(affinity)

	assigner.logger.Debug("resource model built",
		zap.Int("sessions", len(sessions)),
		zap.Int("variables", model.Variables()),
		zap.Int("constraints", model.Constraints()),
	)

	solution, err := assigner.solver.Solve(model, opts)
	if err != nil {
		return ResourcePlan{}, err
	}

	plan := ResourcePlan{
		Status: solution.Status,
		Stats: SolveStats{
			Variables:   model.Variables(),
			Constraints: model.Constraints(),
			Objective:   solution.Objective,
			Elapsed:     time.Since(start),
		},
	}
	if solution.Status != sat.StatusOptimal && solution.Status != sat.StatusFeasible {
		assigner.logger.Info("resource assignment failed",
			zap.Stringer("status", solution.Status),
			zap.Duration("elapsed", plan.Stats.Elapsed),
		)
		return plan, nil
	}

	plan.Sessions = make([]CourseSession, len(sessions))
	copy(plan.Sessions, sessions)
	for s := range plan.Sessions {
		for t := range teachers {
			if variable := teacherVars[s][t]; variable != 0 && solution.Values[variable-1] {
				plan.Sessions[s].Teacher = teachers[t].Id
			}
		}
		for r := range rooms {
			if variable := roomVars[s][r]; variable != 0 && solution.Values[variable-1] {
				plan.Sessions[s].Room = rooms[r].Id
			}
		}
	}
	plan.PreferredMatches = countPreferredMatches(plan.Sessions, teachers)

	assigner.logger.Info("resource assignment solved",
		zap.Stringer("status", solution.Status),
		zap.Int("preferredMatches", plan.PreferredMatches),
		zap.Duration("elapsed", plan.Stats.Elapsed),
	)
	return plan, nil
}

func collectCandidates(sessionIndices []int, vars [][]int, resource int) []int {
	var lits []int
	for _, s := range sessionIndices {
		if vars[s][resource] != 0 {
			lits = append(lits, vars[s][resource])
		}
	}
	return lits
}

// probeSlots runs a bipartite matching per slot on both resource sides
// and rejects slots that cannot possibly be served, before the full
// model is built.
func probeSlots(sessions []CourseSession, teachers []Teacher, rooms []Classroom) error {
	bySlot := lo.GroupBy(sessions, func(s CourseSession) TimeSlot { return s.Slot })
	for slot, concurrent := range bySlot {
		matched, err := largestMatching(concurrent, len(teachers), func(session CourseSession, t int) bool {
			return teachers[t].QualifiedFor(session.Course)
		})
		if err != nil {
			return err
		}
		if matched < len(concurrent) {
			return &SlotShortageError{Slot: slot, Resource: "teachers", Sessions: len(concurrent), Supply: matched}
		}

		matched, err = largestMatching(concurrent, len(rooms), func(session CourseSession, r int) bool {
			return rooms[r].Compatible(session.Course, len(session.Students))
		})
		if err != nil {
			return err
		}
		if matched < len(concurrent) {
			return &SlotShortageError{Slot: slot, Resource: "rooms", Sessions: len(concurrent), Supply: matched}
		}
	}
	return nil
}

func largestMatching(sessions []CourseSession, supply int, serves func(CourseSession, int) bool) (int, error) {
	neighbors := func(sessionAny any, resourceAny any) (bool, error) {
		return serves(sessionAny.(CourseSession), resourceAny.(int)), nil
	}
	sessionsAny := lo.Map(sessions, func(s CourseSession, _ int) any { return s })
	resourcesAny := lo.Map(lo.Range(supply), func(r int, _ int) any { return r })

	graph, err := bipartitegraph.NewBipartiteGraph(sessionsAny, resourcesAny, neighbors)
	if err != nil {
		return 0, err
	}
	return len(graph.LargestMatching()), nil
}

func countPreferredMatches(sessions []CourseSession, teachers []Teacher) int {
	preferred := lo.SliceToMap(teachers, func(t Teacher) (int, int) {
		return t.Id, t.PreferredRoom
	})
	return lo.CountBy(sessions, func(s CourseSession) bool {
		room, ok := preferred[s.Teacher]
		return ok && room >= 0 && room == s.Room
	})
}

// VerifyResources replays the Stage B invariants: every session holds a
// qualified teacher and compatible room, and no resource is booked
// twice in a slot.
func VerifyResources(sessions []CourseSession, teachers []Teacher, rooms []Classroom) bool {
	teacherById := lo.SliceToMap(teachers, func(t Teacher) (int, Teacher) { return t.Id, t })
	roomById := lo.SliceToMap(rooms, func(r Classroom) (int, Classroom) { return r.Id, r })

	busyTeachers := make(map[[3]int]bool)
	busyRooms := make(map[[3]int]bool)
	for _, session := range sessions {
		teacher, ok := teacherById[session.Teacher]
		if !ok || !teacher.QualifiedFor(session.Course) {
			return false
		}
		room, ok := roomById[session.Room]
		if !ok || !room.Compatible(session.Course, len(session.Students)) {
			return false
		}

		teacherKey := [3]int{session.Slot.Day, session.Slot.Period, session.Teacher}
		roomKey := [3]int{session.Slot.Day, session.Slot.Period, session.Room}
		if busyTeachers[teacherKey] || busyRooms[roomKey] {
			return false
		}
		busyTeachers[teacherKey] = true
		busyRooms[roomKey] = true
	}
	return true
}
