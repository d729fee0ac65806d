package sat

import (
	"slices"
	"time"

	"github.com/crillab/gophersat/solver"
)

// gophersatSolver runs models on the pure-Go gophersat pseudo-boolean
// engine. Optimization is a linear descent: solve, bound the objective
// strictly below the incumbent, re-solve until UNSAT proves optimality,
// the relative gap is reached, or the budget expires.
type gophersatSolver struct{}

func NewGophersatSolver() Solver {
	return &gophersatSolver{}
}

func (gs *gophersatSolver) Solve(model *Model, opts Options) (Solution, error) {
	start := time.Now()
	var deadline time.Time
	if opts.Budget != 0 {
		deadline = start.Add(opts.Budget)
	}

	base := make([]solver.PBConstr, 0, len(model.constraints)+1)
	for _, c := range model.constraints {
		base = append(base, solver.GtEq(slices.Clone(c.lits), slices.Clone(c.weights), c.atLeast))
	}
	// Tautology over the last variable so the backend sizes its model to
	// the full arena even when trailing variables are unconstrained.
	if model.variables > 0 {
		base = append(base, solver.GtEq([]int{model.variables, -model.variables}, []int{1, 1}, 1))
	}

	var incumbent []bool
	bestObjective := 0
	haveIncumbent := false

	if hint := model.hintAssignment(); hint != nil && model.feasible(hint) {
		incumbent = hint
		bestObjective = model.ObjectiveValue(hint)
		haveIncumbent = true
		if opts.OnProgress != nil {
			opts.OnProgress(Progress{Objective: bestObjective, Elapsed: time.Since(start)})
		}
	}

	constrs := base
	gapBounded := false
	if haveIncumbent && len(model.objective) > 0 {
		bound, gapped, ok := nextBound(model, bestObjective, opts.RelativeGap)
		if !ok {
			return Solution{Status: StatusOptimal, Values: incumbent, Objective: bestObjective}, nil
		}
		constrs = append(constrs, objectiveBound(model, bound))
		gapBounded = gapped
	}

	for {
		remaining := time.Duration(0)
		if !deadline.IsZero() {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				return timedOut(incumbent, bestObjective, haveIncumbent), nil
			}
		}

		status, values, err := solveOnce(constrs, remaining)
		if err != nil {
			return Solution{Status: StatusUnknown}, err
		}

		switch status {
		case solver.Unsat:
			if !haveIncumbent {
				return Solution{Status: StatusInfeasible}, nil
			}
			// The bound below the incumbent is unreachable. With an exact
			// bound that proves optimality; a gap-tightened bound only
			// proves the incumbent is within tolerance.
			final := StatusOptimal
			if gapBounded {
				final = StatusFeasible
			}
			return Solution{Status: final, Values: incumbent, Objective: bestObjective}, nil

		case solver.Sat:
			incumbent = padAssignment(values, model.variables)
			bestObjective = model.ObjectiveValue(incumbent)
			haveIncumbent = true
			if opts.OnProgress != nil {
				opts.OnProgress(Progress{Objective: bestObjective, Elapsed: time.Since(start)})
			}
			if len(model.objective) == 0 {
				return Solution{Status: StatusOptimal, Values: incumbent, Objective: 0}, nil
			}
			bound, gapped, ok := nextBound(model, bestObjective, opts.RelativeGap)
			if !ok {
				return Solution{Status: StatusOptimal, Values: incumbent, Objective: bestObjective}, nil
			}
			constrs = append(slices.Clone(base), objectiveBound(model, bound))
			gapBounded = gapped

		default:
			return timedOut(incumbent, bestObjective, haveIncumbent), nil
		}
	}
}

// solveOnce runs a single satisfiability call, abandoning it when the
// remaining budget elapses. Gophersat cannot be interrupted mid-search,
// so an abandoned call keeps its goroutine until it returns on its own.
func solveOnce(constrs []solver.PBConstr, remaining time.Duration) (solver.Status, []bool, error) {
	type outcome struct {
		status solver.Status
		values []bool
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{status: solver.Indet}
			}
		}()
		pb := solver.ParsePBConstrs(constrs)
		s := solver.New(pb)
		status := s.Solve()
		var values []bool
		if status == solver.Sat {
			values = slices.Clone(s.Model())
		}
		done <- outcome{status: status, values: values}
	}()

	if remaining <= 0 {
		out := <-done
		return out.status, out.values, nil
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case out := <-done:
		return out.status, out.values, nil
	case <-timer.C:
		return solver.Indet, nil, nil
	}
}

// nextBound computes the strict upper bound for the next descent step.
// Returns ok=false when the incumbent already sits at the objective's
// floor, and gapped=true when the gap tolerance tightened the bound
// beyond objective-1.
func nextBound(model *Model, objective int, gap float64) (bound int, gapped bool, ok bool) {
	if objective <= 0 {
		return 0, false, false
	}
	bound = objective - 1
	if gap > 0 {
		relaxed := int(float64(objective) * (1 - gap))
		if relaxed < bound {
			bound = relaxed
			gapped = true
		}
	}
	if bound < 0 {
		bound = 0
	}
	return bound, gapped, true
}

// objectiveBound encodes objective <= bound as an at-least over negated
// objective literals.
func objectiveBound(model *Model, bound int) solver.PBConstr {
	lits := make([]int, len(model.objective))
	weights := make([]int, len(model.objective))
	total := 0
	for i, term := range model.objective {
		lits[i] = -term.Lit
		weights[i] = term.Weight
		total += term.Weight
	}
	return solver.GtEq(lits, weights, total-bound)
}

func padAssignment(values []bool, variables int) []bool {
	if len(values) >= variables {
		return values[:variables]
	}
	padded := make([]bool, variables)
	copy(padded, values)
	return padded
}

func timedOut(incumbent []bool, objective int, haveIncumbent bool) Solution {
	if haveIncumbent {
		return Solution{Status: StatusFeasible, Values: incumbent, Objective: objective}
	}
	return Solution{Status: StatusUnknown}
}
