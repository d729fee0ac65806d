package sat

import "time"

type Status int

const (
	// StatusOptimal means the returned assignment is proven best under the
	// objective (or the model is satisfiable and has no objective).
	StatusOptimal Status = iota
	// StatusFeasible means an assignment was found but optimality was not
	// proven before the budget or gap tolerance cut the search.
	StatusFeasible
	// StatusInfeasible means the constraints were proven contradictory.
	StatusInfeasible
	// StatusUnknown means the budget expired before any verdict.
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	default:
		return "unknown"
	}
}

// Solution is the outcome of a solve. Values is indexed by variable id
// minus one and is nil unless Status is Optimal or Feasible.
type Solution struct {
	Status    Status
	Values    []bool
	Objective int
}

// Progress describes an incumbent improvement during an optimizing solve.
type Progress struct {
	Objective int
	Elapsed   time.Duration
}

// Options tune a solve. The zero value means no budget, exact
// optimization and no progress reporting.
type Options struct {
	// Budget caps wall-clock time. Zero means unbounded.
	Budget time.Duration
	// RelativeGap stops the descent once the incumbent is proven within
	// this fraction of the best possible objective. Zero demands proof of
	// optimality.
	RelativeGap float64
	// OnProgress, when set, is invoked from the solving goroutine each
	// time a better incumbent is found.
	OnProgress func(Progress)
}

// Solver runs a Model to completion. Implementations block until a
// verdict is reached or the budget expires.
type Solver interface {
	Solve(model *Model, opts Options) (Solution, error)
}
