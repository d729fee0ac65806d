package sat

import "slices"

// Term is a weighted literal of the objective function. A positive Lit
// contributes Weight when the variable is true, a negative Lit when it is
// false.
type Term struct {
	Lit    int
	Weight int
}

// constraint is the canonical pseudo-boolean form every Add* method lowers
// to: sum(weights[i] * lits[i]) >= atLeast, with strictly positive weights.
// A negative literal counts its weight when the variable is false.
type constraint struct {
	lits    []int
	weights []int
	atLeast int
}

// Model holds boolean decision variables (dense 1-based ids) together with
// linear constraints over them and an optional linear objective to minimize.
// It is a pure description: solving happens through a Solver.
type Model struct {
	variables   int
	constraints []constraint
	objective   []Term
	hints       map[int]bool
}

func NewModel() *Model {
	return &Model{hints: make(map[int]bool)}
}

// NewBool allocates a fresh variable and returns its id.
func (m *Model) NewBool() int {
	m.variables++
	return m.variables
}

// NewBools allocates a contiguous block of n variables and returns the id of
// the first one.
func (m *Model) NewBools(n int) int {
	first := m.variables + 1
	m.variables += n
	return first
}

func (m *Model) Variables() int   { return m.variables }
func (m *Model) Constraints() int { return len(m.constraints) }

func unitWeights(n int) []int {
	weights := make([]int, n)
	for i := range weights {
		weights[i] = 1
	}
	return weights
}

func (m *Model) add(lits []int, weights []int, atLeast int) {
	if atLeast <= 0 {
		return // Trivially satisfied
	}
	if weights == nil {
		weights = unitWeights(len(lits))
	}
	m.constraints = append(m.constraints, constraint{
		lits:    slices.Clone(lits),
		weights: slices.Clone(weights),
		atLeast: atLeast,
	})
}

// AddClause requires at least one of the literals to hold.
func (m *Model) AddClause(lits ...int) {
	m.add(lits, nil, 1)
}

func (m *Model) AddAtLeast(lits []int, weights []int, bound int) {
	m.add(lits, weights, bound)
}

// AddAtMost lowers sum(w*lit) <= bound to an at-least over the negated
// literals: sum(w*(1-lit)) >= total-bound.
func (m *Model) AddAtMost(lits []int, weights []int, bound int) {
	if weights == nil {
		weights = unitWeights(len(lits))
	}
	total := 0
	for _, w := range weights {
		total += w
	}
	negated := make([]int, len(lits))
	for i, lit := range lits {
		negated[i] = -lit
	}
	m.add(negated, weights, total-bound)
}

func (m *Model) AddExactlyOne(lits []int) {
	m.AddAtLeast(lits, nil, 1)
	m.AddAtMost(lits, nil, 1)
}

func (m *Model) AddAtMostOne(lits []int) {
	m.AddAtMost(lits, nil, 1)
}

// AddAtLeastIf enforces sum(w*lit) >= bound only when the guard literal
// holds: sum(w*lit) + bound*(1-guard) >= bound.
func (m *Model) AddAtLeastIf(guard int, lits []int, weights []int, bound int) {
	if bound <= 0 {
		return
	}
	if weights == nil {
		weights = unitWeights(len(lits))
	}
	guarded := append(slices.Clone(lits), -guard)
	guardedWeights := append(slices.Clone(weights), bound)
	m.add(guarded, guardedWeights, bound)
}

// AddAtMostIf enforces sum(w*lit) <= bound only when the guard literal
// holds, by guarding the negated at-least form.
func (m *Model) AddAtMostIf(guard int, lits []int, weights []int, bound int) {
	if weights == nil {
		weights = unitWeights(len(lits))
	}
	total := 0
	for _, w := range weights {
		total += w
	}
	negated := make([]int, len(lits))
	for i, lit := range lits {
		negated[i] = -lit
	}
	m.AddAtLeastIf(guard, negated, weights, total-bound)
}

// AddActivation reifies "at least one of lits holds" into the active
// literal as a full equivalence: active implies the disjunction, and every
// literal implies active.
func (m *Model) AddActivation(active int, lits []int) {
	m.AddClause(append([]int{-active}, lits...)...)
	for _, lit := range lits {
		m.AddClause(-lit, active)
	}
}

// AddBoolAnd reifies target <=> a AND b through the standard linearization
// (target <= a, target <= b, target >= a+b-1). The backend has no product
// primitive.
func (m *Model) AddBoolAnd(target, a, b int) {
	m.AddClause(-target, a)
	m.AddClause(-target, b)
	m.AddClause(-a, -b, target)
}

// Minimize sets the linear objective. Weights must be positive; direction
// is fixed to minimization (maximize by negating literals).
func (m *Model) Minimize(terms []Term) {
	m.objective = slices.Clone(terms)
}

// SetHint records a warm-start value for a variable. Hints are soft search
// guidance: a backend is free to use, partially use, or silently drop them,
// and must never fail because a hint violates a constraint.
func (m *Model) SetHint(variable int, value bool) {
	m.hints[variable] = value
}

// holds reports whether the literal is true under the assignment, where
// assignment[v-1] is the value of variable v.
func holds(assignment []bool, lit int) bool {
	if lit > 0 {
		return assignment[lit-1]
	}
	return !assignment[-lit-1]
}

// feasible reports whether the assignment satisfies every constraint.
func (m *Model) feasible(assignment []bool) bool {
	if len(assignment) < m.variables {
		return false
	}
	for _, c := range m.constraints {
		sum := 0
		for i, lit := range c.lits {
			if holds(assignment, lit) {
				sum += c.weights[i]
			}
		}
		if sum < c.atLeast {
			return false
		}
	}
	return true
}

// ObjectiveValue evaluates the objective under a full assignment.
func (m *Model) ObjectiveValue(assignment []bool) int {
	value := 0
	for _, term := range m.objective {
		if holds(assignment, term.Lit) {
			value += term.Weight
		}
	}
	return value
}

// hintAssignment expands the recorded hints into a full assignment,
// defaulting unhinted variables to false. Returns nil when no hints were
// set.
func (m *Model) hintAssignment() []bool {
	if len(m.hints) == 0 {
		return nil
	}
	assignment := make([]bool, m.variables)
	for variable, value := range m.hints {
		if variable >= 1 && variable <= m.variables {
			assignment[variable-1] = value
		}
	}
	return assignment
}
