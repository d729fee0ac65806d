package model

import (
	"time"

	"go.uber.org/zap"

	"github.com/mberube/schoolplan/pkg/sat"
)

// Config tunes a scheduling run. Zero values fall back to the defaults
// noted on each field.
type Config struct {
	Solver        sat.Solver  // default: the gophersat backend
	Logger        *zap.Logger // default: no-op
	Band          SizeBand
	Strategy      Strategy      // default: balance
	Mixing        MixingVariant // default: by-program
	PeriodsPerDay int           // default: DefaultPeriodsPerDay
	Budget        time.Duration // per stage; zero means unbounded
	RelativeGap   float64
	WarmStart     bool
	OnProgress    func(sat.Progress)
}

// Timetable is the fully resourced result of a scheduling run.
type Timetable struct {
	Horizon   Horizon
	Groups    []Group
	Sessions  []CourseSession
	Schedules map[int][]ScheduleEntry
	StageA    SolveStats
	StageB    SolveStats
	// PreferredMatches counts teacher-in-preferred-room placements.
	PreferredMatches int
	Status           sat.Status
}

// Scheduler runs the full pipeline: validation, group formation when the
// mixing variant plans rigid groups, session formation, then resource
// assignment. Each stage consumes the previous stage's output and the
// engine never retries; remediation belongs to the caller.
type Scheduler struct {
	config Config
}

func NewScheduler(config Config) *Scheduler {
	if config.Solver == nil {
		config.Solver = sat.NewGophersatSolver()
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Strategy == "" {
		config.Strategy = StrategyBalance
	}
	if config.Mixing == "" {
		config.Mixing = MixByProgram
	}
	if config.PeriodsPerDay <= 0 {
		config.PeriodsPerDay = DefaultPeriodsPerDay
	}
	return &Scheduler{config: config}
}

func (scheduler *Scheduler) solveOptions() sat.Options {
	return sat.Options{
		Budget:      scheduler.config.Budget,
		RelativeGap: scheduler.config.RelativeGap,
		OnProgress:  scheduler.config.OnProgress,
	}
}

// Schedule runs the pipeline on the input. A non-nil error means the
// input was rejected or the backend broke; solver verdicts travel in
// the Timetable status instead.
func (scheduler *Scheduler) Schedule(input Input) (Timetable, error) {
	config := scheduler.config
	logger := config.Logger

	if err := ValidateInput(input, config.Band); err != nil {
		return Timetable{}, err
	}

	horizon := NewHorizon(input.Programs, config.PeriodsPerDay)
	logger.Info("scheduling",
		zap.Int("students", len(input.Students)),
		zap.Int("days", horizon.Days),
		zap.Int("periodsPerDay", horizon.PeriodsPerDay),
		zap.String("band", config.Band.String()),
		zap.String("strategy", string(config.Strategy)),
		zap.String("mixing", string(config.Mixing)),
	)

	timetable := Timetable{Horizon: horizon}

	// By-program groups plan as rigid units; the other variants plan per
	// student, letting sessions mix programs.
	planner := NewSessionPlanner(config.Solver, logger, horizon, config.Band, config.Strategy, config.WarmStart)
	var plan SessionPlan
	var err error
	if config.Mixing == MixByProgram {
		timetable.Groups, err = FormGroups(input.Students, config.Band, config.Mixing)
		if err != nil {
			return Timetable{}, err
		}
		plan, err = planner.PlanGroups(input, timetable.Groups, scheduler.solveOptions())
	} else {
		plan, err = planner.PlanStudents(input, scheduler.solveOptions())
	}
	if err != nil {
		return Timetable{}, err
	}

	timetable.StageA = plan.Stats
	timetable.Status = plan.Status
	if plan.Status != sat.StatusOptimal && plan.Status != sat.StatusFeasible {
		return timetable, nil
	}
	timetable.Sessions = plan.Sessions
	timetable.Schedules = plan.Schedules

	assigner := NewResourceAssigner(config.Solver, logger)
	resourced, err := assigner.Assign(plan.Sessions, input.Teachers, input.Classrooms, scheduler.solveOptions())
	if err != nil {
		return Timetable{}, err
	}

	timetable.StageB = resourced.Stats
	if resourced.Status != sat.StatusOptimal && resourced.Status != sat.StatusFeasible {
		timetable.Status = resourced.Status
		return timetable, nil
	}
	timetable.Sessions = resourced.Sessions
	timetable.PreferredMatches = resourced.PreferredMatches
	// The overall verdict is only as strong as the weaker stage.
	if resourced.Status == sat.StatusFeasible {
		timetable.Status = sat.StatusFeasible
	}
	return timetable, nil
}
